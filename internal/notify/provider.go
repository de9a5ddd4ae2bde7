package notify

import (
	"fmt"
	"log/slog"
)

// Email providers selectable in configuration
const (
	ProviderResend = "resend"
	ProviderLog    = "log"
	ProviderNone   = "none"
)

// Config selects and configures the email provider
type Config struct {
	Provider string
	APIKey   string
	From     string
}

// NewFromConfig builds the Mailer for cfg. It returns nil, nil when email is disabled.
func NewFromConfig(cfg Config, logger *slog.Logger) (*Mailer, error) {
	var transport Transport
	switch cfg.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderLog:
		transport = NewLogTransport(logger)
	case ProviderResend:
		t, err := NewResendTransport(cfg.APIKey)
		if err != nil {
			return nil, err
		}
		transport = t
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	if cfg.From == "" {
		return nil, fmt.Errorf("email.from is required for provider %s", cfg.Provider)
	}

	return NewMailer(transport, cfg.From, logger), nil
}
