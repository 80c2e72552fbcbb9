package questionbank

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAICompleter completes prompts through a chat-completions endpoint.
// BaseURL may point at any OpenAI-compatible service.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewOpenAICompleter creates a completer from the remote settings in cfg
func NewOpenAICompleter(apiKey string, cfg RemoteConfig) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   cfg.MaxOutputTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout.Duration,
	}
}

// Complete sends prompt as a single user message and returns the first choice
func (oc *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if oc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, oc.timeout)
		defer cancel()
	}

	resp, err := oc.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: oc.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are an experienced examiner who writes clear exam questions from study material.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   oc.maxTokens,
			Temperature: oc.temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
