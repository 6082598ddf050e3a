package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	userAgent = "Mozilla/5.0 (compatible; LinkLensBot/1.0)"

	// Hard cap on cleaned body length; bounds completion prompt size
	maxBodyChars = 3000

	// Upper bound on how much of a page we read; titles live in <head>
	maxHTMLBytes = 1 << 20
)

var (
	reMetaLine  = regexp.MustCompile(`(?m)^(Title|URL|Published Time|Description|Markdown Content):.*$`)
	reImage     = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	reLink      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	reCodeFence = regexp.MustCompile("(?s)```.*?```")
	reHeading   = regexp.MustCompile(`#{1,6}\s+`)
	reNewlines  = regexp.MustCompile(`\n{3,}`)
)

// Result is what the fetch stage hands to the summarizer. Every field may
// be empty; fetching is best-effort end to end.
type Result struct {
	Title  string
	Body   string
	Source string
}

// Fetcher retrieves article material from two independent upstreams: the
// page itself (title) and a reader relay (plaintext body).
type Fetcher struct {
	readerBaseURL string
	htmlClient    *http.Client
	readerClient  *http.Client
}

func New(readerBaseURL string) *Fetcher {
	return &Fetcher{
		readerBaseURL: strings.TrimRight(readerBaseURL, "/"),
		htmlClient:    &http.Client{Timeout: 8 * time.Second},
		readerClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

type outcome struct {
	body string
	err  error
}

// Analyze fetches the raw HTML and the reader relay output concurrently.
// The two fetches are settled independently: either may fail or time out
// without affecting the other, and both are awaited before returning.
func (f *Fetcher) Analyze(ctx context.Context, articleURL string) Result {
	htmlCh := make(chan outcome, 1)
	readerCh := make(chan outcome, 1)

	go func() {
		body, err := f.fetchHTML(ctx, articleURL)
		htmlCh <- outcome{body: body, err: err}
	}()
	go func() {
		body, err := f.fetchReader(ctx, articleURL)
		readerCh <- outcome{body: body, err: err}
	}()

	htmlRes := <-htmlCh
	readerRes := <-readerCh

	var result Result

	if htmlRes.err == nil {
		result.Title = ExtractTitle(htmlRes.body)
	}

	if readerRes.err == nil {
		if result.Title == "" {
			result.Title = ReaderTitle(readerRes.body)
		}
		result.Body = CleanBody(readerRes.body)
	}

	return result
}

// Preview fetches only the page HTML for a title; the body is never needed.
// Fetch failures yield an empty title, never an error.
func (f *Fetcher) Preview(ctx context.Context, articleURL string) Result {
	result := Result{Source: SourceHost(articleURL)}

	body, err := f.fetchHTML(ctx, articleURL)
	if err != nil {
		return result
	}

	result.Title = ExtractPreviewTitle(body)
	return result
}

func (f *Fetcher) fetchHTML(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.htmlClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, articleURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHTMLBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *Fetcher) fetchReader(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.readerBaseURL+"/"+articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("X-Return-Format", "markdown")

	resp, err := f.readerClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d from reader relay", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// CleanBody strips the reader relay's metadata lines and markdown noise,
// then caps the result at the first 3000 characters.
func CleanBody(text string) string {
	text = reMetaLine.ReplaceAllString(text, "")
	text = reImage.ReplaceAllString(text, "")
	text = reLink.ReplaceAllString(text, "$1")
	text = reCodeFence.ReplaceAllString(text, "")
	text = reHeading.ReplaceAllString(text, "")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxBodyChars {
		return string(runes[:maxBodyChars])
	}
	return text
}

// SourceHost returns the article's hostname with a leading www. removed.
func SourceHost(articleURL string) string {
	u, err := url.Parse(articleURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
