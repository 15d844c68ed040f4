package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible
// chat completion endpoints (Gemini, DeepSeek, Groq, Ollama, LM Studio)
type OpenAIProvider struct {
	client *openai.Client
	name   string
	cfg    Config
}

// NewOpenAIProvider creates a provider for an OpenAI-compatible API
func NewOpenAIProvider(name string, cfg Config) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		name:   name,
		cfg:    cfg,
	}
}

// GenerateText implements Provider
func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
		MaxTokens: p.cfg.MaxTokens,
	}
	if p.cfg.Temperature > 0 {
		temperature := p.cfg.Temperature
		req.Temperature = &temperature
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &ServiceError{Provider: p.name, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Provider: p.name, Err: errors.New("no choices in response")}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &ServiceError{Provider: p.name, Err: errors.New("empty response")}
	}
	return text, nil
}

// Name implements Provider
func (p *OpenAIProvider) Name() string {
	return p.name
}
