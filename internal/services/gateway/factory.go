package gateway

import (
	"fmt"

	"festival-tickets/config"
	"festival-tickets/internal/services/gateway/razorpay"
	"festival-tickets/internal/services/gateway/sandbox"
)

// New creates the gateway selected by cfg.PaymentProvider.
func New(cfg *config.Config) (Gateway, error) {
	switch cfg.PaymentProvider {
	case config.ProviderRazorpay:
		return razorpay.New(&razorpay.Config{
			BaseURL:   cfg.RazorpayBaseURL,
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpaySecret,
			Timeout:   cfg.ProviderTimeout,
		}), nil

	case config.ProviderSandbox:
		return sandbox.New(cfg.RazorpayKeyID, cfg.RazorpaySecret), nil

	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", cfg.PaymentProvider)
	}
}
