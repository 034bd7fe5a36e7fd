package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

type MailgunConfig struct {
	Domain    string
	APIKey    string
	FromEmail string
	FromName  string
}

// MailgunProvider serves the email_send capability through the Mailgun API.
type MailgunProvider struct {
	cfg    MailgunConfig
	client *mailgun.MailgunImpl
}

var _ Provider = (*MailgunProvider)(nil)

func NewMailgunProvider(cfg MailgunConfig) *MailgunProvider {
	p := &MailgunProvider{cfg: cfg}
	if cfg.Domain != "" && cfg.APIKey != "" {
		p.client = mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	}
	return p
}

func (p *MailgunProvider) Invoke(ctx context.Context, operation string, params map[string]any) (Result, error) {
	if operation != "send" {
		return Result{}, Rejectedf("unknown email operation %q", operation)
	}
	if p.client == nil {
		return Result{}, Unavailablef("email backend is not configured")
	}

	to, _ := params["to"].(string)
	subject, _ := params["subject"].(string)
	body, _ := params["body"].(string)
	if strings.TrimSpace(to) == "" {
		return Result{}, Rejectedf("recipient address is required")
	}
	if subject == "" && body == "" {
		return Result{}, Rejectedf("email needs a subject or a body")
	}

	from := p.cfg.FromEmail
	if p.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", p.cfg.FromName, p.cfg.FromEmail)
	}

	message := p.client.NewMessage(from, subject, body, to)
	if html, ok := params["html"].(string); ok && html != "" {
		message.SetHtml(html)
	}

	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, messageID, err := p.client.Send(sendCtx, message)
	if err != nil {
		return Result{}, classifyMailgunErr(err)
	}

	return Result{Data: map[string]any{
		"message_id": messageID,
		"to":         to,
	}}, nil
}

func classifyMailgunErr(err error) error {
	switch status := mailgun.GetStatusFromErr(err); {
	case status == http.StatusTooManyRequests:
		return RateLimitedf("mailgun returned 429")
	case status >= 400 && status < 500:
		return Rejectedf("mailgun returned %d: %v", status, err)
	default:
		return fmt.Errorf("%w: mailgun send: %v", ErrUnavailable, err)
	}
}
