package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OllamaConfig struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// OllamaProvider serves the text_generation capability against a local
// Ollama-compatible inference endpoint.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ Provider = (*OllamaProvider)(nil)

func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "llama3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}
}

func (p *OllamaProvider) Invoke(ctx context.Context, operation string, params map[string]any) (Result, error) {
	if operation != "generate" {
		return Result{}, Rejectedf("unknown text generation operation %q", operation)
	}
	if p.baseURL == "" {
		return Result{}, Unavailablef("text generation endpoint is not configured")
	}

	prompt, _ := params["prompt"].(string)
	if strings.TrimSpace(prompt) == "" {
		return Result{}, Rejectedf("prompt is required")
	}

	model := p.model
	if m, ok := params["model"].(string); ok && m != "" {
		model = m
	}

	body, err := json.Marshal(map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	})
	if err != nil {
		return Result{}, Rejectedf("encode generation request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return Result{}, Unavailablef("build generation request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: call text generation endpoint: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, Unavailablef("read generation response: %v", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{}, RateLimitedf("inference endpoint returned 429")
	case resp.StatusCode >= 500:
		return Result{}, Unavailablef("inference endpoint returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return Result{}, Rejectedf("inference endpoint returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded struct {
		Response string `json:"response"`
		Model    string `json:"model"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, Unavailablef("decode generation response: %v", err)
	}
	if strings.TrimSpace(decoded.Response) == "" {
		return Result{}, Unavailablef("inference endpoint returned an empty response")
	}

	return Result{Data: map[string]any{
		"text":  decoded.Response,
		"model": decoded.Model,
	}}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
