package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type WebSearchConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// WebSearchProvider serves the web_search capability against a configured
// search API endpoint.
type WebSearchProvider struct {
	baseURL    string
	httpClient *http.Client
}

var _ Provider = (*WebSearchProvider)(nil)

func NewWebSearchProvider(cfg WebSearchConfig) *WebSearchProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &WebSearchProvider{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: cfg.HTTPClient,
	}
}

func (p *WebSearchProvider) Invoke(ctx context.Context, operation string, params map[string]any) (Result, error) {
	if operation != "search" {
		return Result{}, Rejectedf("unknown search operation %q", operation)
	}
	if p.baseURL == "" {
		return Result{}, Unavailablef("search backend is not configured")
	}

	query, _ := params["query"].(string)
	if strings.TrimSpace(query) == "" {
		return Result{}, Rejectedf("search query is required")
	}

	endpoint := p.baseURL + "/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, Unavailablef("build search request: %v", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, Unavailablef("call search backend: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{}, RateLimitedf("search backend returned 429")
	case resp.StatusCode >= 500:
		return Result{}, Unavailablef("search backend returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return Result{}, Rejectedf("search backend returned %d", resp.StatusCode)
	}

	var decoded struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, Unavailablef("decode search response: %v", err)
	}

	return Result{Data: map[string]any{
		"results": decoded.Results,
	}}, nil
}
