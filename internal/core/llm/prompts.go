package llm

import (
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"
)

// DefaultTitlePrompt asks for a single short title. Triple braces keep page text unescaped.
const DefaultTitlePrompt = `Analyze the following text from a webpage and provide ONLY a concise, descriptive title (max {{max_words}} words).
Do not include "Title:" prefix. Just the title text.
{{#url}}
URL: {{{url}}}
{{/url}}

Text:
{{{content}}}`

// DefaultTitleWords bounds the requested title length
const DefaultTitleWords = 10

// TitlePromptData is the data available to the title prompt template
type TitlePromptData struct {
	URL      string
	Content  string
	MaxWords int
}

// BuildTitlePrompt renders tmpl with data. An empty template uses DefaultTitlePrompt.
func BuildTitlePrompt(tmpl string, data TitlePromptData) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultTitlePrompt
	}
	if data.MaxWords <= 0 {
		data.MaxWords = DefaultTitleWords
	}

	templateData := map[string]interface{}{
		"url":       data.URL,
		"content":   data.Content,
		"max_words": data.MaxWords,
	}

	prompt, err := mustache.Render(tmpl, templateData)
	if err != nil {
		return "", fmt.Errorf("failed to render title prompt: %w", err)
	}
	return prompt, nil
}
