package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linklens/worker/internal/fetch"
	"github.com/linklens/worker/internal/summarize"
)

type AnalyzeHandler struct {
	fetcher    *fetch.Fetcher
	summarizer *summarize.Client
}

func NewAnalyzeHandler(fetcher *fetch.Fetcher, summarizer *summarize.Client) *AnalyzeHandler {
	return &AnalyzeHandler{
		fetcher:    fetcher,
		summarizer: summarizer,
	}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

// Handles POST /analyze: fetch title and body, then summarize via the
// completion API. Fetch failures are tolerated; summarizer failures are not.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	req, ok := bindURL(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	fetched := h.fetcher.Analyze(ctx, req.URL)

	analysis, err := h.summarizer.Analyze(ctx, req.URL, fetched.Title, fetched.Body)
	if err != nil {
		// Upstream or configuration fault; the caller decides whether to retry
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// Handles POST /preview: title and source host only, no AI call. Fetch
// failures degrade to an empty title, never an error status.
func (h *AnalyzeHandler) Preview(c *gin.Context) {
	req, ok := bindURL(c)
	if !ok {
		return
	}

	fetched := h.fetcher.Preview(c.Request.Context(), req.URL)

	c.JSON(http.StatusOK, gin.H{
		"title":  fetched.Title,
		"source": fetched.Source,
	})
}

func bindURL(c *gin.Context) (analyzeRequest, bool) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return req, false
	}

	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url field is required"})
		return req, false
	}

	return req, true
}
