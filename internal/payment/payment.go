// Package payment abstracts payment providers behind Gateway.  Amounts are
// decimals in major units; gateways convert to minor units themselves.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// IntentStatus is the provider independent state of a payment intent.
type IntentStatus string

const (
	IntentPending   IntentStatus = "pending"
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
)

// Intent is a provider side payment attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	Amount       decimal.Decimal
	Currency     string
}

// IntentRequest asks a gateway to start collecting Amount.
type IntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	Description    string
	Email          string
	IdempotencyKey string
	Metadata       map[string]string
}

// Gateway is implemented by Stripe and Manual.
type Gateway interface {
	Name() string
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	Refund(ctx context.Context, intentID string, amount decimal.Decimal) error
}

var (
	// ErrDeclined is returned when the provider rejects the request.
	ErrDeclined = errors.New("payment declined")
	// ErrUnknownGateway is returned by Registry.Get for a name that is not
	// configured.
	ErrUnknownGateway = errors.New("unknown payment gateway")
)

// zeroDecimal lists ISO currencies that have no minor unit.
var zeroDecimal = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true, "KRW": true,
	"MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true, "VUV": true, "XAF": true,
	"XOF": true, "XPF": true,
}

// ToMinor converts a major unit amount to the integer minor units providers
// expect, rounding half away from zero.
func ToMinor(amount decimal.Decimal, currency string) int64 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinor is the inverse of ToMinor.
func FromMinor(minor int64, currency string) decimal.Decimal {
	d := decimal.NewFromInt(minor)
	if zeroDecimal[strings.ToUpper(currency)] {
		return d
	}
	return d.Shift(-2)
}

// Registry holds the configured gateways by name.
type Registry struct {
	def      string
	gateways map[string]Gateway
}

// NewRegistry registers gateways; the first one is the default.
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: map[string]Gateway{}}
	for _, g := range gateways {
		if r.def == "" {
			r.def = g.Name()
		}
		r.gateways[g.Name()] = g
	}
	return r
}

// Get returns the named gateway, or the default for an empty name.
func (r *Registry) Get(name string) (Gateway, error) {
	if name == "" {
		name = r.def
	}
	g, ok := r.gateways[name]
	if !ok {
		return nil, ErrUnknownGateway
	}
	return g, nil
}

func (r *Registry) Default() string { return r.def }
