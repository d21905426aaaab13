package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

const StripeName = "stripe"

// Stripe creates PaymentIntents that the client confirms with the returned
// client secret.
type Stripe struct {
	api *client.API
}

// NewStripe builds a gateway bound to secretKey.  backends may be nil; tests
// pass backends pointing at a local server.
func NewStripe(secretKey string, backends *stripe.Backends) *Stripe {
	return &Stripe{api: client.New(secretKey, backends)}
}

func (s *Stripe) Name() string { return StripeName }

func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(ToMinor(req.Amount, req.Currency)),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, stripeErr(err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, stripeErr(err)
	}
	return toIntent(pi), nil
}

func (s *Stripe) Refund(ctx context.Context, intentID string, amount decimal.Decimal) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(intentID)}
	params.Context = ctx
	if amount.IsPositive() {
		pi, err := s.GetIntent(ctx, intentID)
		if err != nil {
			return err
		}
		params.Amount = stripe.Int64(ToMinor(amount, pi.Currency))
	}
	if _, err := s.api.Refunds.New(params); err != nil {
		return stripeErr(err)
	}
	return nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	cur := strings.ToUpper(string(pi.Currency))
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       stripeStatus(pi.Status),
		Amount:       FromMinor(pi.Amount, cur),
		Currency:     cur,
	}
}

func stripeStatus(s stripe.PaymentIntentStatus) IntentStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return IntentSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return IntentFailed
	}
	return IntentPending
}

// stripeErr maps card and request errors to ErrDeclined and keeps the
// provider message.
func stripeErr(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.Type == stripe.ErrorTypeCard || se.Type == stripe.ErrorTypeInvalidRequest {
			return fmt.Errorf("%w: %s", ErrDeclined, se.Msg)
		}
		return fmt.Errorf("stripe: %s", se.Msg)
	}
	return fmt.Errorf("stripe: %w", err)
}
