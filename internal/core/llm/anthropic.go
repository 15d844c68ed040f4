package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicProvider implements Provider using the Anthropic messages API
type AnthropicProvider struct {
	client *anthropic.Client
	cfg    Config
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(cfg Config) *AnthropicProvider {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		cfg:    cfg,
	}
}

// GenerateText implements Provider
func (p *AnthropicProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	temperature := float32(0.3)
	if p.cfg.Temperature > 0 {
		temperature = p.cfg.Temperature
	}

	resp, err := p.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(p.cfg.Model),
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", &ServiceError{Provider: "anthropic", Err: err}
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &ServiceError{Provider: "anthropic", Err: errors.New("empty response")}
	}
	return text, nil
}

// Name implements Provider
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}
