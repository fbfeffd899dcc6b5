package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/refund"
	"go.uber.org/zap"
)

// PaymentProvider charges the trip fee and supports a compensating refund
// when a downstream step fails after the charge committed. The charge and
// the persisted schedule must end up consistent: either both exist or the
// charge is refunded.
type PaymentProvider interface {
	Charge(ctx context.Context, userID uuid.UUID, amount int64, currency string) (string, error)
	Refund(ctx context.Context, chargeID string) error
}

// StripeProvider implements PaymentProvider on Stripe payment intents.
type StripeProvider struct {
	logger *zap.Logger
}

func NewStripeProvider(apiKey string, logger *zap.Logger) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{logger: logger}
}

func (s *StripeProvider) Charge(ctx context.Context, userID uuid.UUID, amount int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		Metadata: map[string]string{"user_id": userID.String()},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payment intent: %w", err)
	}

	s.logger.Info("Trip fee charged",
		zap.String("user_id", userID.String()),
		zap.String("payment_intent", pi.ID),
		zap.Int64("amount", amount))
	return pi.ID, nil
}

// Refund reverses a charge in full. Used as the compensating action when
// schedule assembly or persistence fails after the fee was taken.
func (s *StripeProvider) Refund(ctx context.Context, chargeID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeID),
	}
	params.Context = ctx

	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	s.logger.Info("Trip fee refunded", zap.String("payment_intent", chargeID))
	return nil
}

// NoopProvider disables billing (zero trip fee).
type NoopProvider struct{}

func (NoopProvider) Charge(context.Context, uuid.UUID, int64, string) (string, error) {
	return "", nil
}

func (NoopProvider) Refund(context.Context, string) error { return nil }
