package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatContent(content string) string {
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestAnalyze_NoAPIKey(t *testing.T) {
	c := NewClient("", "http://unused.invalid", "gpt-4o-mini")

	_, err := c.Analyze(context.Background(), "https://example.com", "", "")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestAnalyze_RequestShape(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, chatContent(`{"title":"T","summary":"S","keywords":["k"],"category":"tech"}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini")

	_, err := c.Analyze(context.Background(), "https://example.com/a", "Original Headline", "Body text.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", captured.Model)
	}
	if captured.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", captured.Temperature)
	}
	if captured.MaxTokens != 600 {
		t.Errorf("expected max_tokens 600, got %d", captured.MaxTokens)
	}
	if captured.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %q", captured.ResponseFormat.Type)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("expected system+user messages, got %+v", captured.Messages)
	}
	if !strings.Contains(captured.Messages[1].Content, `Original title: "Original Headline"`) {
		t.Errorf("user prompt should label the original title: %q", captured.Messages[1].Content)
	}
	if !strings.Contains(captured.Messages[1].Content, "Body text.") {
		t.Errorf("user prompt should include the body")
	}
}

func TestAnalyze_BareURLFallback(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprint(w, chatContent(`{"title":"T"}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini")

	_, err := c.Analyze(context.Background(), "https://example.com/a", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(captured.Messages[1].Content, "https://example.com/a") {
		t.Errorf("bare-URL prompt should carry the URL: %q", captured.Messages[1].Content)
	}
}

func TestAnalyze_Normalization(t *testing.T) {
	// keywords is not a list, category and summary absent, title empty
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatContent(`{"title":"","keywords":"oops"}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini")

	analysis, err := c.Analyze(context.Background(), "https://example.com", "Fetched Title", "body")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.Title != "Fetched Title" {
		t.Errorf("expected fetched-title fallback, got %q", analysis.Title)
	}
	if analysis.Summary != "" {
		t.Errorf("expected empty summary, got %q", analysis.Summary)
	}
	if analysis.Keywords == nil || len(analysis.Keywords) != 0 {
		t.Errorf("expected empty (non-nil) keywords, got %#v", analysis.Keywords)
	}
	if analysis.Category != "default" {
		t.Errorf("expected default category, got %q", analysis.Category)
	}
}

func TestAnalyze_CategoryPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatContent(`{"title":"T","category":"sports"}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini")

	analysis, err := c.Analyze(context.Background(), "https://example.com", "", "body")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Category != "sports" {
		t.Fatalf("model-supplied category should pass through, got %q", analysis.Category)
	}
}

func TestAnalyze_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini")

	_, err := c.Analyze(context.Background(), "https://example.com", "", "body")
	if err == nil {
		t.Fatalf("expected error for upstream 429")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("error should embed upstream status and body, got %q", err.Error())
	}
}

func TestAnalyze_MalformedContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatContent(`this is not json`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini")

	_, err := c.Analyze(context.Background(), "https://example.com", "", "body")
	if err == nil || !strings.Contains(err.Error(), "parse failed") {
		t.Fatalf("expected parse failure error, got %v", err)
	}
}

func TestAnalyze_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini")

	analysis, err := c.Analyze(context.Background(), "https://example.com", "Fetched", "body")
	if err != nil {
		t.Fatalf("empty choices should normalize, not fail: %v", err)
	}
	if analysis.Title != "Fetched" || analysis.Category != "default" {
		t.Fatalf("expected defaults, got %+v", analysis)
	}
}

func TestAnalyze_ConnectionFailure(t *testing.T) {
	c := NewClient("sk-test", "http://127.0.0.1:1", "gpt-4o-mini")

	_, err := c.Analyze(context.Background(), "https://example.com", "", "body")
	if err == nil || !strings.Contains(err.Error(), "connection failed") {
		t.Fatalf("expected connection failure, got %v", err)
	}
}
