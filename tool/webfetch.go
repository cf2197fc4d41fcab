package tool

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// WebFetch is a tool that fetches a web page and returns its readable text.
// Script, style and markup are stripped so the result is safe to hand to a
// model as context.
type WebFetch struct {
	Client    *http.Client
	MaxBytes  int
	UserAgent string

	sanitizer *bluemonday.Policy
}

type WebFetchOption func(*WebFetch)

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) WebFetchOption {
	return func(w *WebFetch) {
		w.Client = client
	}
}

// WithMaxBytes caps the returned text length.
func WithMaxBytes(n int) WebFetchOption {
	return func(w *WebFetch) {
		if n > 0 {
			w.MaxBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header on requests.
func WithUserAgent(ua string) WebFetchOption {
	return func(w *WebFetch) {
		w.UserAgent = ua
	}
}

// NewWebFetch creates a new WebFetch tool.
func NewWebFetch(opts ...WebFetchOption) *WebFetch {
	w := &WebFetch{
		Client:    http.DefaultClient,
		MaxBytes:  16 * 1024,
		UserAgent: "agentgraphgo/1.0",
		sanitizer: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the name of the tool.
func (w *WebFetch) Name() string {
	return "Web_Fetch"
}

// Description returns the description of the tool.
func (w *WebFetch) Description() string {
	return "Fetches a web page and returns its readable text content. " +
		"Input should be a single absolute URL."
}

// Call fetches the URL and extracts its text.
func (w *WebFetch) Call(ctx context.Context, input string) (string, error) {
	u := strings.TrimSpace(input)
	if u == "" {
		return "", fmt.Errorf("empty URL")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", w.UserAgent)

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s returned status: %d", u, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", u, err)
	}

	doc.Find("script, style, noscript, iframe").Remove()

	var sb strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		sb.WriteString("Title: " + title + "\n\n")
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	html, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}
	text := w.sanitizer.Sanitize(html)
	sb.WriteString(collapseWhitespace(text))

	out := sb.String()
	if len(out) > w.MaxBytes {
		out = out[:w.MaxBytes] + "\n... [truncated]"
	}
	if strings.TrimSpace(out) == "" {
		return "No readable content found", nil
	}
	return out, nil
}

// collapseWhitespace squeezes runs of blank lines and spaces left behind by
// stripped markup.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
