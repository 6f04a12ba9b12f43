// Package classify assigns controlled-vocabulary categories to skill
// manifests. Classifiers are tried in order until one succeeds; the local
// keyword heuristic at the end of the chain cannot fail.
package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/backrunner/skillscat/internal/log"
	"github.com/backrunner/skillscat/internal/models"
)

// ErrNoValidCategories is returned when a classifier call succeeded but
// produced no category inside the controlled vocabulary. The cascade treats
// it like any other failure and advances to the next classifier.
var ErrNoValidCategories = errors.New("classify: no valid categories in response")

// Classifier assigns 1-3 categories to manifest content.
type Classifier interface {
	// Classify returns category picks ordered by relevance, first = primary.
	Classify(ctx context.Context, content string) ([]models.CategoryPick, error)

	// Name identifies the classifier in logs.
	Name() string
}

// Cascade tries an ordered list of classifiers and stops at the first
// success.
type Cascade struct {
	classifiers []Classifier
}

// NewCascade creates a cascade over the given classifiers, in order.
func NewCascade(classifiers ...Classifier) *Cascade {
	return &Cascade{classifiers: classifiers}
}

// Classify runs the chain. It fails only when every classifier fails;
// with the keyword heuristic last, that means remote errors on every
// preceding tier.
func (c *Cascade) Classify(ctx context.Context, content string) ([]models.CategoryPick, error) {
	var lastErr error
	for _, cl := range c.classifiers {
		picks, err := cl.Classify(ctx, content)
		if err != nil {
			log.Printf("classify: %s failed, trying next: %v\n", cl.Name(), err)
			lastErr = err
			continue
		}
		return picks, nil
	}
	if lastErr == nil {
		lastErr = errors.New("classify: no classifiers configured")
	}
	return nil, fmt.Errorf("all classifiers failed: %w", lastErr)
}
