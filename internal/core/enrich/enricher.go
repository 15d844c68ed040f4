// Package enrich derives descriptive page titles from page content
// using a text-generation provider.
package enrich

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/neilberkman/researchtrail/internal/core/llm"
)

// Page is the input to title enrichment
type Page struct {
	URL      string
	Title    string // browser-reported title, used only for logging by callers
	Content  string // visible text supplied by the extension, optional
	MIMEType string
}

// Options configures an Enricher
type Options struct {
	PromptTemplate  string        // mustache template; llm.DefaultTitlePrompt when empty
	MaxContentChars int           // bound on text sent to the provider
	MaxTitleChars   int           // bound on the returned title
	FetchTimeout    time.Duration // per-page fetch timeout
	Fetcher         Fetcher       // defaults to an HTTPFetcher
}

const (
	DefaultMaxContentChars = 2000
	DefaultMaxTitleChars   = 120
	DefaultFetchTimeout    = 10 * time.Second
)

// Enricher turns page content into a concise title
type Enricher struct {
	provider    llm.Provider
	providerErr error
	opts        Options
}

// New creates an Enricher. A nil provider makes every content-based
// enrichment fail with providerErr (typically an *llm.ConfigError).
func New(provider llm.Provider, providerErr error, opts Options) *Enricher {
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = DefaultMaxContentChars
	}
	if opts.MaxTitleChars <= 0 {
		opts.MaxTitleChars = DefaultMaxTitleChars
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Fetcher == nil {
		opts.Fetcher = &HTTPFetcher{
			Client:   &http.Client{Timeout: opts.FetchTimeout},
			MaxChars: opts.MaxContentChars,
		}
	}
	if provider == nil && providerErr == nil {
		providerErr = &llm.ConfigError{Provider: "none", Reason: "no provider configured"}
	}

	return &Enricher{provider: provider, providerErr: providerErr, opts: opts}
}

// FromConfig builds the provider from cfg and wraps it in an Enricher.
// A provider configuration error is kept and reported on each enrichment.
func FromConfig(cfg llm.Config, opts Options) *Enricher {
	provider, err := llm.NewProvider(cfg)
	return New(provider, err, opts)
}

// Title returns a generated title for page.
//
// PDFs are titled from their file name without calling the provider.
// Errors are *ExtractionError, *llm.ConfigError or *llm.ServiceError;
// callers are expected to fall back to the browser title.
func (e *Enricher) Title(ctx context.Context, page Page) (string, error) {
	if IsPDF(page.URL, page.MIMEType) {
		if title := PDFTitle(page.URL); title != "" {
			return title, nil
		}
		return "", &ExtractionError{URL: page.URL, Err: errors.New("no file name in PDF URL")}
	}

	text, err := e.Text(ctx, page)
	if err != nil {
		return "", err
	}

	if e.provider == nil {
		return "", e.providerErr
	}

	prompt, err := llm.BuildTitlePrompt(e.opts.PromptTemplate, llm.TitlePromptData{
		URL:     page.URL,
		Content: text,
	})
	if err != nil {
		return "", err
	}

	out, err := e.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	title := CleanTitle(out, e.opts.MaxTitleChars)
	if title == "" {
		return "", &llm.ServiceError{Provider: e.provider.Name(), Err: errors.New("no usable title in response")}
	}
	return title, nil
}

// Text returns the bounded page text used for the prompt: the supplied
// content when present, otherwise the fetched page.
func (e *Enricher) Text(ctx context.Context, page Page) (string, error) {
	text := collapseSpace(page.Content)
	if text == "" {
		fetchCtx, cancel := context.WithTimeout(ctx, e.opts.FetchTimeout)
		defer cancel()

		fetched, err := e.opts.Fetcher.Fetch(fetchCtx, page.URL)
		if err != nil {
			return "", err
		}
		text = collapseSpace(fetched)
	}

	text = truncateRunes(text, e.opts.MaxContentChars)
	if text == "" {
		return "", &ExtractionError{URL: page.URL, Err: ErrNoContent}
	}
	return text, nil
}

const titleTrim = "\"'`*#“”‘’ \t"

// CleanTitle takes the first non-empty line of a model response, strips
// a "Title:" prefix plus quoting and markdown markers, and bounds it to
// maxChars runes.
func CleanTitle(raw string, maxChars int) string {
	var line string
	for _, l := range strings.Split(raw, "\n") {
		if l = strings.Trim(l, titleTrim); l != "" {
			line = l
			break
		}
	}

	if len(line) >= 6 && strings.EqualFold(line[:6], "title:") {
		line = line[6:]
	}
	line = collapseSpace(strings.Trim(line, titleTrim))

	if maxChars > 0 {
		line = strings.TrimSpace(truncateRunes(line, maxChars))
	}
	return line
}
