package provider

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeProvider struct {
	result Result
	err    error
	calls  int
}

func (f *fakeProvider) Invoke(ctx context.Context, operation string, params map[string]any) (Result, error) {
	f.calls++
	return f.result, f.err
}

func newTestGateway() *Gateway {
	return NewGateway(slog.New(slog.DiscardHandler))
}

func TestGateway_Invoke(t *testing.T) {
	t.Run("routes to the registered provider", func(t *testing.T) {
		g := newTestGateway()
		p := &fakeProvider{result: Result{Data: map[string]any{"text": "generated"}}}
		g.Register(CapabilityTextGeneration, p, nil)

		res, err := g.Invoke(context.Background(), CapabilityTextGeneration, "generate", map[string]any{"prompt": "hi"})
		require.NoError(t, err)
		assert.Equal(t, "generated", res.String("text"))
		assert.Equal(t, 1, p.calls)
	})

	t.Run("unregistered capability is unavailable", func(t *testing.T) {
		g := newTestGateway()

		_, err := g.Invoke(context.Background(), CapabilityEmailSend, "send", nil)
		assert.True(t, IsUnavailable(err))
	})

	t.Run("exhausted limiter reports rate limited without calling the provider", func(t *testing.T) {
		g := newTestGateway()
		p := &fakeProvider{}
		g.Register(CapabilitySocialPost, p, rate.NewLimiter(rate.Limit(0.001), 1))

		_, err := g.Invoke(context.Background(), CapabilitySocialPost, "post", nil)
		require.NoError(t, err)

		_, err = g.Invoke(context.Background(), CapabilitySocialPost, "post", nil)
		assert.True(t, IsRateLimited(err))
		assert.Equal(t, 1, p.calls)
	})

	t.Run("unclassified provider errors surface as unavailable", func(t *testing.T) {
		g := newTestGateway()
		g.Register(CapabilityWebSearch, &fakeProvider{err: errors.New("connection reset")}, nil)

		_, err := g.Invoke(context.Background(), CapabilityWebSearch, "search", nil)
		assert.True(t, IsUnavailable(err))
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("classified errors pass through unchanged", func(t *testing.T) {
		g := newTestGateway()
		g.Register(CapabilityEmailSend, &fakeProvider{err: Rejectedf("missing recipient")}, nil)

		_, err := g.Invoke(context.Background(), CapabilityEmailSend, "send", nil)
		assert.True(t, IsRejected(err))
		assert.False(t, IsUnavailable(err))
	})
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(Unavailablef("down")))
	assert.True(t, Retryable(RateLimitedf("slow down")))
	assert.False(t, Retryable(Rejectedf("bad input")))
	assert.False(t, Retryable(errors.New("unclassified")))
}
