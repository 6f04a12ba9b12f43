package models

import "strings"

// Category is one entry in the controlled classification vocabulary.
type Category struct {
	Slug        string `gorm:"primaryKey;size:100" json:"slug"`
	Name        string `gorm:"size:100" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	Keywords    string `gorm:"size:1000" json:"keywords"` // comma-separated hints for the prompt and the heuristic
}

// TableName specifies the table name for GORM.
func (Category) TableName() string {
	return "categories"
}

// KeywordList splits the comma-separated keyword hints.
func (c Category) KeywordList() []string {
	if c.Keywords == "" {
		return nil
	}
	parts := strings.Split(c.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SkillCategory is a many-to-many edge between a skill and a category.
// The full set for a skill is replaced on every successful classification run.
type SkillCategory struct {
	SkillID      string  `gorm:"primaryKey;size:64" json:"skill_id"`
	CategorySlug string  `gorm:"primaryKey;size:100" json:"category_slug"`
	Confidence   float64 `gorm:"default:0" json:"confidence"`
	Primary      bool    `gorm:"default:false" json:"primary"`
}

// TableName specifies the table name for GORM.
func (SkillCategory) TableName() string {
	return "skill_categories"
}

// CategoryPick is one classifier decision before persistence.
type CategoryPick struct {
	Slug       string  `json:"slug"`
	Confidence float64 `json:"confidence"`
	Primary    bool    `json:"primary"`
}

// CatchAllCategory is assigned when no classifier produces a match.
const CatchAllCategory = "general"
