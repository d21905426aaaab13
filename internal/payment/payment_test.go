package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1050), ToMinor(decimal.RequireFromString("10.50"), "USD"))
	assert.Equal(t, int64(1001), ToMinor(decimal.RequireFromString("10.005"), "eur"))
	assert.Equal(t, int64(1500), ToMinor(decimal.RequireFromString("1500"), "JPY"))
	assert.True(t, FromMinor(1050, "USD").Equal(decimal.RequireFromString("10.5")))
	assert.True(t, FromMinor(1500, "JPY").Equal(decimal.NewFromInt(1500)))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewManual())
	g, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, ManualName, g.Name())
	_, err = r.Get(StripeName)
	assert.ErrorIs(t, err, ErrUnknownGateway)
}

func TestManualIntentStaysPending(t *testing.T) {
	m := NewManual()
	in, err := m.CreateIntent(context.Background(), IntentRequest{Amount: decimal.NewFromInt(20), Currency: "usd"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(in.ID, "manual_"))
	assert.Equal(t, "USD", in.Currency)
	got, err := m.GetIntent(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, IntentPending, got.Status)
}

func stripeServer(t *testing.T, handler http.HandlerFunc) *Stripe {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
	return NewStripe("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestStripeCreateIntent(t *testing.T) {
	var form url.Values
	var idem string
	s := stripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(body))
		idem = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","amount":1050,"currency":"usd",
			"status":"requires_payment_method","client_secret":"pi_1_secret"}`))
	})

	in, err := s.CreateIntent(context.Background(), IntentRequest{
		Amount:         decimal.RequireFromString("10.50"),
		Currency:       "USD",
		IdempotencyKey: "key-1",
		Metadata:       map[string]string{"payment_id": "7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "1050", form.Get("amount"))
	assert.Equal(t, "usd", form.Get("currency"))
	assert.Equal(t, "7", form.Get("metadata[payment_id]"))
	assert.Equal(t, "key-1", idem)
	assert.Equal(t, "pi_1", in.ID)
	assert.Equal(t, "pi_1_secret", in.ClientSecret)
	assert.Equal(t, IntentPending, in.Status)
	assert.True(t, in.Amount.Equal(decimal.RequireFromString("10.50")))
}

func TestStripeGetIntentSucceeded(t *testing.T) {
	s := stripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_9", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_9","object":"payment_intent","amount":500,"currency":"eur","status":"succeeded"}`))
	})
	in, err := s.GetIntent(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, IntentSucceeded, in.Status)
	assert.Equal(t, "EUR", in.Currency)
}

func TestStripeCardErrorIsDeclined(t *testing.T) {
	s := stripeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`))
	})
	_, err := s.CreateIntent(context.Background(), IntentRequest{Amount: decimal.NewFromInt(1), Currency: "USD"})
	assert.ErrorIs(t, err, ErrDeclined)
}
