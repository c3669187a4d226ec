package summarizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAI calls any OpenAI-compatible chat completion endpoint.
type OpenAI struct {
	client *openai.Client
	model  string
	apiKey string
}

// NewOpenAI creates an OpenAI-compatible generator. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, apiKey: apiKey}
}

func (o *OpenAI) Provider() string { return ProviderOpenAI }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY is required", ErrConfiguration)
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: Temperature,
		MaxTokens:   int(MaxOutputTokens),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.HTTPStatusCode {
			case 401, 403:
				return "", fmt.Errorf("%w: %v", ErrConfiguration, err)
			case 429:
				return "", fmt.Errorf("%w: %v", ErrQuota, err)
			}
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}
