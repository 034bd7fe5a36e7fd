package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Invoke(t *testing.T) {
	ctx := context.Background()

	t.Run("successful generation", func(t *testing.T) {
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/generate", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(map[string]any{"response": "A media kit for fashion creators.", "model": "llama3"})
		}))
		defer srv.Close()

		p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
		res, err := p.Invoke(ctx, "generate", map[string]any{"prompt": "Write a media kit"})
		require.NoError(t, err)
		assert.Equal(t, "A media kit for fashion creators.", res.String("text"))
		assert.Equal(t, "llama3", gotBody["model"])
		assert.Equal(t, false, gotBody["stream"])
	})

	t.Run("status classification", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			check  func(error) bool
		}{
			{"429 maps to rate limited", http.StatusTooManyRequests, IsRateLimited},
			{"500 maps to unavailable", http.StatusInternalServerError, IsUnavailable},
			{"400 maps to rejected", http.StatusBadRequest, IsRejected},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))
				defer srv.Close()

				p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
				_, err := p.Invoke(ctx, "generate", map[string]any{"prompt": "hi"})
				assert.True(t, tt.check(err), "got %v", err)
			})
		}
	})

	t.Run("empty response is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"response": "  "})
		}))
		defer srv.Close()

		p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
		_, err := p.Invoke(ctx, "generate", map[string]any{"prompt": "hi"})
		assert.True(t, IsUnavailable(err))
	})

	t.Run("unconfigured endpoint is unavailable", func(t *testing.T) {
		p := NewOllamaProvider(OllamaConfig{})
		_, err := p.Invoke(ctx, "generate", map[string]any{"prompt": "hi"})
		assert.True(t, IsUnavailable(err))
	})

	t.Run("missing prompt is rejected", func(t *testing.T) {
		p := NewOllamaProvider(OllamaConfig{BaseURL: "http://localhost:11434"})
		_, err := p.Invoke(ctx, "generate", map[string]any{})
		assert.True(t, IsRejected(err))
	})
}
