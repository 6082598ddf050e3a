package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoAPIKey means the worker was deployed without a completion API key.
// An operator fault, surfaced as 500 rather than 401.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY is not configured")

const systemPrompt = `You are an expert news article analyst. Respond only with a JSON object in exactly this format:

{"title":"article title","summary":"3-4 sentence summary of the key points","keywords":["keyword1","keyword2","keyword3","keyword4","keyword5"],"category":"one of tech|economy|ai|science|politics|default"}

Title rules:
- If an original title is provided, use it as-is (translate it to English if it is in another language)
- If no original title is provided, write one that captures the core of the article
- No clickbait; the title must accurately reflect the article

Category guide: tech=IT/software/hardware/startups, economy=economy/finance/markets/business, ai=artificial intelligence/machine learning/LLMs, science=science/medicine/space/environment, politics=politics/society/law/international affairs, default=anything else`

// Analysis is the normalized result returned to the caller.
type Analysis struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
	Messages       []chatMessage  `json:"messages"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze asks the completion API to summarize and categorize an article.
// fetchedTitle and body come from the fetch stage and may both be empty;
// with no body the model is asked to work from the bare URL.
func (c *Client) Analyze(ctx context.Context, articleURL, fetchedTitle, body string) (*Analysis, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	payload := chatRequest{
		Model:          c.model,
		Temperature:    0.3,
		MaxTokens:      600,
		ResponseFormat: responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(articleURL, fetchedTitle, body)},
		},
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai %d: %s", resp.StatusCode, strings.TrimSpace(string(errText)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("openai response parse failed: %w", err)
	}

	content := "{}"
	if len(chat.Choices) > 0 && chat.Choices[0].Message.Content != "" {
		content = chat.Choices[0].Message.Content
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("openai response parse failed: %w", err)
	}

	return normalize(parsed, fetchedTitle), nil
}

func buildPrompt(articleURL, fetchedTitle, body string) string {
	if body == "" {
		// Nothing fetched at all: lean on the model's own knowledge of the URL
		return "Analyze the article at this URL: " + articleURL
	}

	if fetchedTitle != "" {
		return fmt.Sprintf("Original title: %q\n\nAnalyze the following article.\n\n%s", fetchedTitle, body)
	}
	return "Analyze the following article.\n\n" + body
}

// normalize never trusts the model's output shape. Missing or mistyped
// fields degrade to safe defaults; category is passed through verbatim
// whenever the model supplied one.
func normalize(parsed map[string]interface{}, fetchedTitle string) *Analysis {
	analysis := &Analysis{
		Keywords: []string{},
		Category: "default",
	}

	if title, ok := parsed["title"].(string); ok && title != "" {
		analysis.Title = title
	} else {
		analysis.Title = fetchedTitle
	}

	if summary, ok := parsed["summary"].(string); ok {
		analysis.Summary = summary
	}

	if keywords, ok := parsed["keywords"].([]interface{}); ok {
		for _, kw := range keywords {
			if s, ok := kw.(string); ok {
				analysis.Keywords = append(analysis.Keywords, s)
			}
		}
	}

	if category, ok := parsed["category"].(string); ok && category != "" {
		analysis.Category = category
	}

	return analysis
}
