package provider

import "context"

// Capability is an abstract category of external operation. Callers request
// a capability, never a named vendor; concrete providers are bound to
// capabilities once at configuration time.
type Capability string

const (
	CapabilityTextGeneration Capability = "text_generation"
	CapabilityEmailSend      Capability = "email_send"
	CapabilitySocialPost     Capability = "social_post"
	CapabilityFileRender     Capability = "file_render"
	CapabilityWebSearch      Capability = "web_search"
)

// Result carries a provider's structured output.
type Result struct {
	Data map[string]any
}

// String returns the string value under key, or "" when absent.
func (r Result) String(key string) string {
	s, _ := r.Data[key].(string)
	return s
}

// Provider executes one capability's operations. Implementations must
// return errors already classified via this package's sentinels; the
// gateway treats anything else as an outage.
type Provider interface {
	Invoke(ctx context.Context, operation string, params map[string]any) (Result, error)
}

// Invoker is the capability surface consumed by workers.
type Invoker interface {
	Invoke(ctx context.Context, cap Capability, operation string, params map[string]any) (Result, error)
}
