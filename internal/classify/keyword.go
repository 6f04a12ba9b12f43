package classify

import (
	"context"
	"regexp"
	"sort"

	"github.com/backrunner/skillscat/internal/models"
)

// CatchAllConfidence is assigned when no category keyword matches at all.
const CatchAllConfidence = 0.3

// KeywordClassifier scores categories by whole-word keyword matches in the
// lower-cased content. It is the final tier of the cascade and never fails.
type KeywordClassifier struct {
	vocab    []models.Category
	patterns map[string][]*regexp.Regexp // category slug -> keyword matchers
}

// NewKeywordClassifier builds whole-word matchers from the vocabulary's
// keyword hints.
func NewKeywordClassifier(vocab []models.Category) *KeywordClassifier {
	patterns := make(map[string][]*regexp.Regexp, len(vocab))
	for _, cat := range vocab {
		for _, kw := range cat.KeywordList() {
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
			if err != nil {
				continue
			}
			patterns[cat.Slug] = append(patterns[cat.Slug], re)
		}
	}
	return &KeywordClassifier{vocab: vocab, patterns: patterns}
}

// Name identifies the classifier in logs.
func (c *KeywordClassifier) Name() string {
	return "keyword"
}

// Classify counts keyword hits per category and returns the top 3 by score.
// When nothing scores, a single catch-all pick is returned.
func (c *KeywordClassifier) Classify(_ context.Context, content string) ([]models.CategoryPick, error) {
	type scored struct {
		slug  string
		score int
	}

	var results []scored
	for slug, res := range c.patterns {
		score := 0
		for _, re := range res {
			score += len(re.FindAllStringIndex(content, -1))
		}
		if score > 0 {
			results = append(results, scored{slug: slug, score: score})
		}
	}

	if len(results) == 0 {
		return []models.CategoryPick{{
			Slug:       models.CatchAllCategory,
			Confidence: CatchAllConfidence,
			Primary:    true,
		}}, nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].slug < results[j].slug
	})
	if len(results) > MaxCategories {
		results = results[:MaxCategories]
	}

	top := float64(results[0].score)
	picks := make([]models.CategoryPick, 0, len(results))
	for i, r := range results {
		picks = append(picks, models.CategoryPick{
			Slug:       r.slug,
			Confidence: 0.5 * float64(r.score) / top, // scaled into (0, 0.5]
			Primary:    i == 0,
		})
	}
	return picks, nil
}
