package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const ManualName = "manual"

// Manual records offline payments (cash or card at the front desk).  Intents
// never settle on their own; staff confirm them through the payments API.
type Manual struct{}

func NewManual() *Manual { return &Manual{} }

func (Manual) Name() string { return ManualName }

func (Manual) CreateIntent(_ context.Context, req IntentRequest) (*Intent, error) {
	return &Intent{
		ID:       "manual_" + uuid.NewString(),
		Status:   IntentPending,
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
	}, nil
}

func (Manual) GetIntent(_ context.Context, id string) (*Intent, error) {
	return &Intent{ID: id, Status: IntentPending}, nil
}

func (Manual) Refund(context.Context, string, decimal.Decimal) error { return nil }
