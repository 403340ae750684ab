package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenRouterClient implements Client against an OpenAI-compatible endpoint.
type OpenRouterClient struct {
	client *openai.Client
	model  string
}

// NewOpenRouterClient creates a client. The SDK's own retries are disabled;
// the letter generator has its own fallback path.
func NewOpenRouterClient(cfg *Config) *OpenRouterClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	for k, v := range cfg.Headers {
		if v != "" {
			opts = append(opts, option.WithHeader(k, v))
		}
	}

	return &OpenRouterClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Complete sends one chat completion request.
func (c *OpenRouterClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.F(openai.ChatModel(c.model)),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		}),
		Temperature: openai.F(req.Temperature),
		MaxTokens:   openai.F(req.MaxTokens),
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model identifier.
func (c *OpenRouterClient) Model() string {
	return c.model
}

// Close is a no-op; the underlying HTTP client holds no resources of its own.
func (c *OpenRouterClient) Close() error {
	return nil
}
