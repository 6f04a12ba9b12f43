// Package manifest parses skill manifests: markdown documents with optional
// YAML front-matter defining a skill's name and description.
package manifest

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Parsed holds the fields extracted from a manifest.
type Parsed struct {
	Name        string
	Description string
	Version     string
	Author      string
	License     string
}

// Parser parses manifest files with front-matter support.
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a parser with front-matter support.
func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			meta.Meta,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Parser{md: md}
}

// Parse extracts skill fields from manifest content. Front-matter wins;
// markdown heuristics fill in what it omits. Callers supply repository
// metadata as the final fallback.
func (p *Parser) Parse(content string) (*Parsed, error) {
	var buf bytes.Buffer
	context := parser.NewContext()

	if err := p.md.Convert([]byte(content), &buf, parser.WithContext(context)); err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}

	frontmatter := meta.Get(context)
	parsed := &Parsed{}

	if name, ok := frontmatter["name"].(string); ok && name != "" {
		parsed.Name = strings.TrimSpace(name)
	} else {
		parsed.Name = ExtractFirstHeading(content)
	}

	if desc, ok := frontmatter["description"].(string); ok && desc != "" {
		parsed.Description = strings.TrimSpace(desc)
	} else {
		parsed.Description = ExtractDescription(content)
	}

	if version, ok := frontmatter["version"].(string); ok {
		parsed.Version = version
	}
	if author, ok := frontmatter["author"].(string); ok {
		parsed.Author = author
	}
	if license, ok := frontmatter["license"].(string); ok {
		parsed.License = license
	}

	return parsed, nil
}

// ExtractFirstHeading finds the first H1 or H2 heading in the markdown.
// Returns "" if no heading is found.
func ExtractFirstHeading(content string) string {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)

		// Skip frontmatter
		if line == "---" {
			continue
		}

		if strings.HasPrefix(line, "# ") {
			return strings.TrimPrefix(line, "# ")
		}
		if strings.HasPrefix(line, "## ") {
			return strings.TrimPrefix(line, "## ")
		}
	}
	return ""
}

// ExtractDescription extracts the first meaningful paragraph after the
// heading. Skips frontmatter, headings, code blocks, and lists.
// Returns up to 200 characters.
func ExtractDescription(content string) string {
	lines := strings.Split(content, "\n")
	inDescription := false
	var desc []string

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if line == "---" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			inDescription = true
			continue
		}

		if inDescription && line != "" {
			desc = append(desc, line)
			if len(desc) >= 3 {
				break
			}
		}

		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "- ") {
			break
		}
	}

	result := strings.Join(desc, " ")
	if len(result) > 200 {
		result = truncateRunes(result, 197) + "..."
	}
	return result
}

// truncateRunes cuts s to at most max bytes on a rune boundary.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9\s\-]`)
	slugSpaces   = regexp.MustCompile(`\s+`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// Slugify creates a URL-safe slug from a string. Maximum 50 characters.
func Slugify(s string) string {
	slug := strings.ToLower(s)
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugCollapse.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 50 {
		slug = truncateRunes(slug, 50)
	}
	return slug
}

// SkillSlug builds the globally unique slug from owner plus derived name.
func SkillSlug(owner, name string) string {
	return Slugify(owner) + "-" + Slugify(name)
}
