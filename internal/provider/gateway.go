package provider

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// Gateway routes capability invocations to the provider registered for
// each capability. It holds no state beyond the registry and the shared
// per-capability rate limiters; all side effects live in the providers.
type Gateway struct {
	providers map[Capability]Provider
	limiters  map[Capability]*rate.Limiter
	log       *slog.Logger
}

var _ Invoker = (*Gateway)(nil)

func NewGateway(log *slog.Logger) *Gateway {
	return &Gateway{
		providers: make(map[Capability]Provider),
		limiters:  make(map[Capability]*rate.Limiter),
		log:       log,
	}
}

// Register binds a provider to a capability. A nil limiter means the
// capability is not rate limited. Registration happens once at wiring
// time and is not safe for concurrent use with Invoke.
func (g *Gateway) Register(cap Capability, p Provider, limiter *rate.Limiter) {
	g.providers[cap] = p
	if limiter != nil {
		g.limiters[cap] = limiter
	}
}

// Invoke resolves the capability's provider, checks the shared limiter and
// delegates. Errors coming back are guaranteed to be classified as
// Unavailable, RateLimited or Rejected; raw transport errors never leak
// past this boundary.
func (g *Gateway) Invoke(ctx context.Context, cap Capability, operation string, params map[string]any) (Result, error) {
	p, ok := g.providers[cap]
	if !ok {
		return Result{}, Unavailablef("no provider registered for capability %q", cap)
	}

	if lim, ok := g.limiters[cap]; ok && !lim.Allow() {
		g.log.Warn("capability rate limited",
			slog.String("capability", string(cap)),
			slog.String("operation", operation))
		return Result{}, RateLimitedf("capability %q over its configured rate", cap)
	}

	res, err := p.Invoke(ctx, operation, params)
	if err != nil {
		if !classified(err) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		g.log.Warn("provider invocation failed",
			slog.String("capability", string(cap)),
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return Result{}, err
	}
	return res, nil
}
