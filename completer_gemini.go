package questionbank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiCompleter completes prompts with a Gemini generative model
type GeminiCompleter struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiCompleter creates a Gemini client configured from cfg
func NewGeminiCompleter(ctx context.Context, apiKey string, cfg RemoteConfig) (*GeminiCompleter, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(cfg.Temperature)
	if cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(cfg.MaxOutputTokens))
	}

	return &GeminiCompleter{
		client:  client,
		model:   model,
		timeout: cfg.Timeout.Duration,
	}, nil
}

// Close releases the underlying client
func (gc *GeminiCompleter) Close() error {
	return gc.client.Close()
}

// Complete sends prompt as one user turn and concatenates the text parts
func (gc *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if gc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gc.timeout)
		defer cancel()
	}

	resp, err := gc.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return extractGeminiText(resp), nil
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
