// Package ticketing talks to the external ticketing provider.  Client is
// the plain HTTP client; CachedClient puts a Redis read-through cache in
// front of any API.
package ticketing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the provider answers 404.
var ErrNotFound = errors.New("ticketing: not found")

// APIError is any other non 2xx answer of the provider.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ticketing: status %d: %s", e.Status, e.Message)
}

// Event is a ticketed event offered by the provider.
type Event struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Venue    string          `json:"venue"`
	StartsAt time.Time       `json:"starts_at"`
	Currency string          `json:"currency"`
	MinPrice decimal.Decimal `json:"min_price"`
	Status   string          `json:"status"`
}

// Section is a priced block of seats with its remaining capacity.
type Section struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available int             `json:"available"`
}

type Availability struct {
	EventID   string    `json:"event_id"`
	Sections  []Section `json:"sections"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PurchaseRequest struct {
	EventID       string `json:"event_id"`
	SectionID     string `json:"section_id"`
	Quantity      int    `json:"quantity"`
	CustomerEmail string `json:"customer_email"`
	CustomerName  string `json:"customer_name,omitempty"`
	Reference     string `json:"reference"`
}

type Purchase struct {
	ID       string          `json:"id"`
	EventID  string          `json:"event_id"`
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
}

// API is implemented by Client and CachedClient.
type API interface {
	ListEvents(ctx context.Context, tenantRef string) ([]Event, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	Availability(ctx context.Context, id string) (*Availability, error)
	Purchase(ctx context.Context, req PurchaseRequest) (*Purchase, error)
}

// Client calls the provider's REST API with a bearer key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListEvents(ctx context.Context, tenantRef string) ([]Event, error) {
	var out struct {
		Events []Event `json:"events"`
	}
	q := url.Values{"organizer": {tenantRef}}
	if err := c.do(ctx, http.MethodGet, "/events?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out.Events == nil {
		out.Events = []Event{}
	}
	return out.Events, nil
}

func (c *Client) GetEvent(ctx context.Context, id string) (*Event, error) {
	var ev Event
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *Client) Availability(ctx context.Context, id string) (*Availability, error) {
	var av Availability
	if err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id)+"/availability", nil, &av); err != nil {
		return nil, err
	}
	return &av, nil
}

func (c *Client) Purchase(ctx context.Context, req PurchaseRequest) (*Purchase, error) {
	var p Purchase
	if err := c.do(ctx, http.MethodPost, "/purchases", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ticketing: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		msg := e.Message
		if msg == "" {
			msg = e.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
