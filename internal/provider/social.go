package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

type SocialConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// SocialProvider serves the social_post capability against a platform API
// treated as an opaque posting backend.
type SocialProvider struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Provider = (*SocialProvider)(nil)

func NewSocialProvider(cfg SocialConfig) *SocialProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &SocialProvider{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      cfg.Token,
		httpClient: cfg.HTTPClient,
	}
}

func (p *SocialProvider) Invoke(ctx context.Context, operation string, params map[string]any) (Result, error) {
	if operation != "post" {
		return Result{}, Rejectedf("unknown social operation %q", operation)
	}
	if p.baseURL == "" {
		return Result{}, Unavailablef("social backend is not configured")
	}

	message, _ := params["message"].(string)
	if strings.TrimSpace(message) == "" {
		return Result{}, Rejectedf("post message is required")
	}
	handle, _ := params["handle"].(string)

	body, err := json.Marshal(map[string]any{
		"handle":  handle,
		"message": message,
	})
	if err != nil {
		return Result{}, Rejectedf("encode post request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/posts", bytes.NewReader(body))
	if err != nil {
		return Result{}, Unavailablef("build post request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{}, Unavailablef("call social backend: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Result{}, RateLimitedf("social backend returned 429")
	case resp.StatusCode >= 500:
		return Result{}, Unavailablef("social backend returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return Result{}, Rejectedf("social backend returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded struct {
		PostID string `json:"post_id"`
	}
	_ = json.Unmarshal(raw, &decoded)

	return Result{Data: map[string]any{
		"post_id": decoded.PostID,
		"handle":  handle,
	}}, nil
}
