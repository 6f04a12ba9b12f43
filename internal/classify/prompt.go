package classify

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/backrunner/skillscat/internal/models"
)

// MaxCategories is the most categories one classification may assign.
const MaxCategories = 3

// remoteResponse is the JSON shape both remote classifiers must produce.
type remoteResponse struct {
	Categories []string `json:"categories"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// BuildPrompt renders the classification prompt: the controlled vocabulary
// followed by the manifest content, truncated to maxChars.
func BuildPrompt(vocab []models.Category, content string, maxChars int) string {
	var b strings.Builder

	b.WriteString("Classify the following skill manifest into 1-3 categories from this list. ")
	b.WriteString("Respond with a JSON object: {\"categories\": [\"slug\", ...], \"confidence\": 0.0-1.0, \"reasoning\": \"...\"}. ")
	b.WriteString("Use only the listed slugs.\n\nCategories:\n")

	for _, cat := range vocab {
		b.WriteString("- ")
		b.WriteString(cat.Slug)
		b.WriteString(": ")
		b.WriteString(cat.Name)
		if cat.Description != "" {
			b.WriteString(" - ")
			b.WriteString(cat.Description)
		}
		if kws := cat.KeywordList(); len(kws) > 0 {
			b.WriteString(" (keywords: ")
			b.WriteString(strings.Join(kws, ", "))
			b.WriteString(")")
		}
		b.WriteString("\n")
	}

	if maxChars > 0 && len(content) > maxChars {
		content = truncateUTF8(content, maxChars)
	}
	b.WriteString("\nManifest:\n")
	b.WriteString(content)

	return b.String()
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune,
// so truncated prompts stay valid UTF-8.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// ExtractJSON finds the first balanced {...} block in free text. Remote
// models wrap their JSON in prose often enough that this is load-bearing.
func ExtractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", fmt.Errorf("no JSON object in response")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in response")
}

// parseRemoteResponse extracts and validates a remote classifier reply
// against the controlled vocabulary. Slugs outside the vocabulary are
// dropped; if none survive, ErrNoValidCategories is returned so the cascade
// advances instead of accepting an empty result.
func parseRemoteResponse(raw string, vocab []models.Category) ([]models.CategoryPick, error) {
	block, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	var resp remoteResponse
	if err := json.Unmarshal([]byte(block), &resp); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}

	valid := make(map[string]bool, len(vocab))
	for _, cat := range vocab {
		valid[cat.Slug] = true
	}

	confidence := resp.Confidence
	if confidence < 0 || confidence > 1 {
		confidence = 0
	}

	var picks []models.CategoryPick
	seen := make(map[string]bool)
	for _, slug := range resp.Categories {
		slug = strings.TrimSpace(strings.ToLower(slug))
		if !valid[slug] || seen[slug] {
			continue
		}
		seen[slug] = true
		picks = append(picks, models.CategoryPick{
			Slug:       slug,
			Confidence: confidence,
			Primary:    len(picks) == 0,
		})
		if len(picks) == MaxCategories {
			break
		}
	}

	if len(picks) == 0 {
		return nil, ErrNoValidCategories
	}
	return picks, nil
}

// sortVocab returns the vocabulary in stable slug order for prompting.
func sortVocab(vocab []models.Category) []models.Category {
	out := make([]models.Category, len(vocab))
	copy(out, vocab)
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
