package classify

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/backrunner/skillscat/internal/models"
)

// DefaultOpenAIModel is the default model for the secondary classifier.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClientInterface abstracts the OpenAI client for testing.
type OpenAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier is the secondary remote classifier.
type OpenAIClassifier struct {
	client   OpenAIClientInterface
	model    string
	vocab    []models.Category
	maxChars int
}

// NewOpenAIClassifier creates the secondary remote classifier.
func NewOpenAIClassifier(apiKey, model string, vocab []models.Category, maxChars int) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClassifier{
		client:   openai.NewClient(apiKey),
		model:    model,
		vocab:    sortVocab(vocab),
		maxChars: maxChars,
	}, nil
}

// NewOpenAIClassifierWithClient creates a classifier with a custom client
// interface (for testing).
func NewOpenAIClassifierWithClient(client OpenAIClientInterface, model string, vocab []models.Category, maxChars int) *OpenAIClassifier {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIClassifier{
		client:   client,
		model:    model,
		vocab:    sortVocab(vocab),
		maxChars: maxChars,
	}
}

// Name identifies the classifier in logs.
func (c *OpenAIClassifier) Name() string {
	return "openai"
}

// Classify sends the classification prompt and parses the reply.
func (c *OpenAIClassifier) Classify(ctx context.Context, content string) ([]models.CategoryPick, error) {
	prompt := BuildPrompt(c.vocab, content, c.maxChars)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: 512,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty response")
	}
	return parseRemoteResponse(resp.Choices[0].Message.Content, c.vocab)
}
