package classify

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/backrunner/skillscat/internal/models"
)

// DefaultAnthropicModel is fast and cheap, which suits bulk classification.
const DefaultAnthropicModel = "claude-3-haiku-20240307"

// AnthropicClientInterface defines the interface for the Anthropic API
// client. This allows for mocking in tests.
type AnthropicClientInterface interface {
	CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

// anthropicClientWrapper wraps the real Anthropic client.
type anthropicClientWrapper struct {
	client anthropic.Client
}

func (w *anthropicClientWrapper) CreateMessage(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return w.client.Messages.New(ctx, params)
}

// AnthropicClassifier is the primary remote classifier.
type AnthropicClassifier struct {
	client   AnthropicClientInterface
	model    string
	vocab    []models.Category
	maxChars int
}

// NewAnthropicClassifier creates the primary remote classifier.
func NewAnthropicClassifier(apiKey, model string, vocab []models.Category, maxChars int) (*AnthropicClassifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClassifier{
		client:   &anthropicClientWrapper{client: client},
		model:    model,
		vocab:    sortVocab(vocab),
		maxChars: maxChars,
	}, nil
}

// NewAnthropicClassifierWithClient creates a classifier with a custom client.
// This is useful for testing.
func NewAnthropicClassifierWithClient(client AnthropicClientInterface, model string, vocab []models.Category, maxChars int) *AnthropicClassifier {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicClassifier{
		client:   client,
		model:    model,
		vocab:    sortVocab(vocab),
		maxChars: maxChars,
	}
}

// Name identifies the classifier in logs.
func (c *AnthropicClassifier) Name() string {
	return "anthropic"
}

// Classify sends the classification prompt and parses the reply.
func (c *AnthropicClassifier) Classify(ctx context.Context, content string) ([]models.CategoryPick, error) {
	prompt := BuildPrompt(c.vocab, content, c.maxChars)

	msg, err := c.client.CreateMessage(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return parseRemoteResponse(text, c.vocab)
}
