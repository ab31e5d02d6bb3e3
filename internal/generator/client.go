package generator

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

// LLMClient is the interface every model backend satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error)
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// ── APIClient: Anthropic SDK ───────────────────────────────

type APIClient struct {
	client *anthropic.Client
	model  string
}

func NewAPIClient(apiKey, model string) *APIClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		// Retries are handled by ResilientGenerator.
		option.WithMaxRetries(0),
	)
	return &APIClient{client: &client, model: model}
}

func (c *APIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   4096,
		Temperature: param.NewOpt(0.7),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic API: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

// ── MockClient: local development ──────────────────────────

// MockClient returns one valid exercise of every type regardless of prompt.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string) (*LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &LLMResponse{
		Content:      mockJSON,
		PromptTokens: len(systemPrompt+userPrompt) / 4,
		OutputTokens: len(mockJSON) / 4,
	}, nil
}

const mockJSON = `{"exercises": [
  {"type": "FILL_IN_BLANK", "question": "[Mock] A baby cat is called a ___.",
   "content": {"blanks": [{"id": "b1", "text": "baby cat"}]},
   "solution": {"blanks": {"b1": {"answer": "kitten", "variations": ["kitty"]}}}},
  {"type": "MATCHING", "question": "[Mock] Match each shape to its number of sides.",
   "content": {"left": [{"id": "l1", "text": "Triangle"}, {"id": "l2", "text": "Square"}],
               "right": [{"id": "r1", "text": "4"}, {"id": "r2", "text": "3"}]},
   "solution": {"pairs": {"l1": "r2", "l2": "r1"}}},
  {"type": "ORDERING", "question": "[Mock] Order these numbers from smallest to largest.",
   "content": {"items": [{"id": "i1", "text": "11"}, {"id": "i2", "text": "2"}, {"id": "i3", "text": "7"}]},
   "solution": {"order": ["i2", "i3", "i1"]}},
  {"type": "TRUE_FALSE", "question": "[Mock] True or false?",
   "content": {"statements": [{"id": "s1", "text": "The sun is a star."}, {"id": "s2", "text": "Fish breathe with lungs."}]},
   "solution": {"values": {"s1": true, "s2": false}}},
  {"type": "CALCULATION", "question": "[Mock] What is 6 × 7?",
   "content": {},
   "solution": {"value": 42, "tolerance": 0}},
  {"type": "SHORT_ANSWER", "question": "[Mock] What do bees make from nectar?",
   "content": {},
   "solution": {"accepted": ["honey"], "keywords": ["honey", "sweet"]}}
]}`
