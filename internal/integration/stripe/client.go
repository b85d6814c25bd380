package stripe

import (
	"github.com/stripe/stripe-go/v82"

	"github.com/splitsub/splitsub/internal/config"
	"github.com/splitsub/splitsub/internal/domain/billing"
	"github.com/splitsub/splitsub/internal/logger"
)

// Gateway is the Stripe-backed payment gateway. All ledger writes happen
// elsewhere; this package only talks to the Stripe API and translates its
// objects into domain values.
type Gateway struct {
	client *stripe.Client
	cfg    config.StripeConfig
	logger *logger.Logger
}

func NewGateway(cfg *config.Configuration, logger *logger.Logger) billing.Gateway {
	return &Gateway{
		client: stripe.NewClient(cfg.Stripe.SecretKey, nil),
		cfg:    cfg.Stripe,
		logger: logger,
	}
}
