// Package queue carries domain events from use cases to background
// handlers, either through RabbitMQ or in-process.
package queue

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Event types published by the use cases.  Workflow events are
// "<kind>.<status>" in lower case, e.g. "order.paid".
const (
	TypeUserRegistered  = "user.registered"
	TypeTicketPurchased = "ticket.purchased"
)

// Event is one domain event.  Data holds the template arguments used by the
// notification texts.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	TenantID   uint64         `json:"tenant_id"`
	UserID     uint64         `json:"user_id"`
	Locale     string         `json:"locale,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent stamps a new id and the current time.
func NewEvent(typ string, tenantID, userID uint64, locale string, data map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		TenantID:   tenantID,
		UserID:     userID,
		Locale:     locale,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode and Decode define the wire format (JSON).
func Encode(ev Event) ([]byte, error) { return json.Marshal(ev) }

func Decode(body []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(body, &ev)
	return ev, err
}

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Publisher hands events to whatever delivers them.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
