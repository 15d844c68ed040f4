package enrich

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Fetcher retrieves page text for a URL
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// HTTPFetcher fetches http(s) pages and reduces HTML to visible text
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
	MaxChars int
}

const (
	defaultMaxFetchBytes = 2 << 20
	userAgent            = "researchtrail/1.0 (+title enrichment)"
)

// Fetch implements Fetcher. Non-http schemes, error statuses and
// unsupported content types return an *ExtractionError.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", &ExtractionError{URL: pageURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &ExtractionError{URL: pageURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &ExtractionError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &ExtractionError{URL: pageURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ExtractionError{URL: pageURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxFetchBytes
	}
	body := io.LimitReader(resp.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text, err := VisibleText(body, f.MaxChars)
		if err != nil {
			return "", &ExtractionError{URL: pageURL, Err: err}
		}
		return text, nil
	case mediaType == "text/plain":
		data, err := io.ReadAll(body)
		if err != nil {
			return "", &ExtractionError{URL: pageURL, Err: err}
		}
		text := collapseSpace(string(data))
		if f.MaxChars > 0 {
			text = truncateRunes(text, f.MaxChars)
		}
		return text, nil
	default:
		return "", &ExtractionError{URL: pageURL, Err: fmt.Errorf("unsupported content type %q", mediaType)}
	}
}

// VisibleText returns the text a reader would see, in document order,
// with whitespace collapsed and bounded to maxChars runes (0 = unbounded).
func VisibleText(r io.Reader, maxChars int) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var b strings.Builder
	count := 0
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && isHiddenElement(n.Data) {
			return false
		}
		if n.Type == html.TextNode {
			text := collapseSpace(n.Data)
			if text == "" {
				return false
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
				count++
			}
			if maxChars > 0 && count+utf8.RuneCountInString(text) >= maxChars {
				b.WriteString(truncateRunes(text, maxChars-count))
				return true
			}
			b.WriteString(text)
			count += utf8.RuneCountInString(text)
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)

	return strings.TrimSpace(b.String()), nil
}

// isHiddenElement returns true for elements whose text is never rendered
func isHiddenElement(tagName string) bool {
	switch strings.ToLower(tagName) {
	case "head", "script", "style", "noscript", "iframe", "embed", "object", "svg", "template":
		return true
	}
	return false
}

// IsPDF reports whether the page is a PDF document
func IsPDF(pageURL, mimeType string) bool {
	if strings.EqualFold(strings.TrimSpace(mimeType), "application/pdf") {
		return true
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// PDFTitle derives a title from the URL-decoded file name without extension
func PDFTitle(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.EscapedPath())
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSpace(name)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
