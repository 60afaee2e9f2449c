// Package worker is the HTTP client for the remote processing node, which
// runs the translation and embedding models. The client only moves JSON over
// the wire; all model work happens on the other side.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/travelbuddy/backend/internal/config"
)

// Result is the processing outcome for one input text.
type Result struct {
	TranslatedText string    `json:"translated_text"`
	Embedding      []float32 `json:"embedding"`
	Language       string    `json:"language"`
}

// Client talks to the worker node's processing API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	processTimeout time.Duration
	healthTimeout  time.Duration
	log            *slog.Logger
}

// NewClient creates a Client from worker node and processing configuration.
func NewClient(wcfg config.WorkerNodeConfig, pcfg config.ProcessingConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:        fmt.Sprintf("http://%s:%d", wcfg.Host, wcfg.APIPort),
		httpClient:     &http.Client{},
		processTimeout: pcfg.ProcessTimeout,
		healthTimeout:  pcfg.HealthTimeout,
		log:            logger.With("adapter", "worker"),
	}
}

// NewClientWithURL creates a Client against a custom base URL (for testing).
func NewClientWithURL(baseURL string, processTimeout, healthTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		processTimeout: processTimeout,
		healthTimeout:  healthTimeout,
		log:            logger.With("adapter", "worker"),
	}
}

// Health reports whether the processing API answers its liveness endpoint.
// Any non-2xx status or transport error counts as unavailable.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.DebugContext(ctx, "health check failed", slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// DetectLanguage returns the ISO-639-1 code of the text's language.
func (c *Client) DetectLanguage(ctx context.Context, text string) (string, error) {
	var out struct {
		Language string `json:"language"`
	}
	if err := c.postJSON(ctx, "/detect-language", c.processTimeout,
		map[string]any{"text": text}, &out); err != nil {
		return "", err
	}
	if out.Language == "" {
		return "", fmt.Errorf("detect-language: empty language: %w", ErrMalformedResponse)
	}
	return out.Language, nil
}

// Translate returns the text translated into the worker's target language.
// sourceLanguage may be nil; the worker then detects it.
func (c *Client) Translate(ctx context.Context, text string, sourceLanguage *string) (string, error) {
	var out struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := c.postJSON(ctx, "/translate", c.processTimeout,
		map[string]any{"text": text, "source_language": sourceLanguage}, &out); err != nil {
		return "", err
	}
	if out.TranslatedText == "" {
		return "", fmt.Errorf("translate: empty translation: %w", ErrMalformedResponse)
	}
	return out.TranslatedText, nil
}

// Embed returns the sentence vector for one text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.postJSON(ctx, "/embed", c.processTimeout,
		map[string]any{"text": text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embed: empty vector: %w", ErrMalformedResponse)
	}
	return out.Embedding, nil
}

// ProcessBatch translates and embeds several texts in one call. The result
// slice is index-aligned with texts; a length mismatch from the worker is
// rejected as malformed because downstream persistence zips by position.
// The deadline scales linearly with batch size — the worker processes
// sequentially, so a fixed timeout would starve large batches.
func (c *Client) ProcessBatch(ctx context.Context, texts []string, sourceLanguages []*string) ([]Result, error) {
	if len(texts) == 0 {
		return []Result{}, nil
	}

	payload := map[string]any{"texts": texts}
	if sourceLanguages != nil {
		payload["source_languages"] = sourceLanguages
	}

	var out struct {
		Results []Result `json:"results"`
	}
	timeout := c.processTimeout * time.Duration(len(texts))
	if err := c.postJSON(ctx, "/process-batch", timeout, payload, &out); err != nil {
		return nil, err
	}

	if len(out.Results) != len(texts) {
		return nil, fmt.Errorf("process-batch: got %d results for %d texts: %w",
			len(out.Results), len(texts), ErrMalformedResponse)
	}

	return out.Results, nil
}

// postJSON executes one JSON POST with the given per-call timeout and decodes
// the response into out, classifying failures into the package's error taxonomy.
func (c *Client) postJSON(ctx context.Context, path string, timeout time.Duration, payload any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %w", path, &RemoteError{
			Status:  resp.StatusCode,
			Message: decodeErrorMessage(resp.Body),
		})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, ErrMalformedResponse)
	}

	c.log.DebugContext(ctx, "worker call",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)),
	)

	return nil
}

// classifyTransportError separates deadline expiry from connection failure.
func (c *Client) classifyTransportError(ctx context.Context, path string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", path, ErrTimeout)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", path, ErrTimeout)
	}

	return fmt.Errorf("%s: %v: %w", path, err, ErrUnreachable)
}

// decodeErrorMessage extracts the worker's error detail from a non-2xx body.
// The worker answers {"detail": "..."}; anything else falls back to a raw
// (truncated) body snippet.
func decodeErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}

	return strings.TrimSpace(string(raw))
}
