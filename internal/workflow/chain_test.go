package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

func chainOf(t *testing.T, kind string) *Chain {
	t.Helper()
	var rows []*model.Status
	for _, s := range DefaultStatuses() {
		if s.Kind == kind {
			rows = append(rows, s)
		}
	}
	c, err := NewChain(kind, rows)
	require.NoError(t, err)
	return c
}

func codes(list []*model.Status) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Code
	}
	return out
}

func TestDefaultChainsPaths(t *testing.T) {
	assert.Equal(t, []string{"PENDING", "PAID", "FULFILLED"}, codes(chainOf(t, model.StatusKindOrder).Path()))
	assert.Equal(t, []string{"PENDING", "CONFIRMED", "COMPLETED"}, codes(chainOf(t, model.StatusKindBooking).Path()))
	assert.Equal(t, []string{"PENDING", "ACTIVE", "COMPLETED"}, codes(chainOf(t, model.StatusKindEnrollment).Path()))
	assert.Equal(t, []string{"PENDING", "SUCCEEDED", "REFUNDED"}, codes(chainOf(t, model.StatusKindPayment).Path()))
}

func TestOrderTransitions(t *testing.T) {
	c := chainOf(t, model.StatusKindOrder)
	pending, _ := c.ByCode("PENDING")
	paid, _ := c.ByCode("PAID")
	fulfilled, _ := c.ByCode("FULFILLED")
	cancelled, _ := c.ByCode("CANCELLED")
	refunded, _ := c.ByCode("REFUNDED")

	cases := []struct {
		from, to *model.Status
		ok       bool
	}{
		{pending, paid, true},
		{pending, cancelled, true},
		{pending, fulfilled, false},
		{pending, refunded, false},
		{paid, fulfilled, true},
		{paid, refunded, true},
		{paid, cancelled, false},
		{paid, pending, false},
		{fulfilled, refunded, false},
		{cancelled, pending, false},
		{pending, pending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, c.CanTransition(tc.from, tc.to), "%s -> %s", tc.from.Code, tc.to.Code)
	}
	assert.Equal(t, []string{"PAID", "CANCELLED"}, c.Targets(pending))
	assert.Empty(t, c.Targets(cancelled))
}

func TestTransitionErrors(t *testing.T) {
	c := chainOf(t, model.StatusKindBooking)
	pending := c.Initial()

	to, err := c.Transition(pending.ID, "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", to.Code)

	_, err = c.Transition(pending.ID, "COMPLETED")
	require.ErrorIs(t, err, ErrInvalidTransition)
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "PENDING", te.From)
	assert.Equal(t, "COMPLETED", te.To)

	_, err = c.Transition(pending.ID, "NOPE")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = c.Transition(9999, "CONFIRMED")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func u64(v uint64) *uint64 { return &v }

func TestNewChainValidation(t *testing.T) {
	t.Run("no initial", func(t *testing.T) {
		_, err := NewChain("X", []*model.Status{{ID: 1, Kind: "X", Code: "A"}})
		assert.ErrorIs(t, err, ErrInvalidChain)
	})
	t.Run("two initials", func(t *testing.T) {
		_, err := NewChain("X", []*model.Status{
			{ID: 1, Kind: "X", Code: "A", IsInitial: true},
			{ID: 2, Kind: "X", Code: "B", IsInitial: true},
		})
		assert.ErrorIs(t, err, ErrInvalidChain)
	})
	t.Run("asymmetric link", func(t *testing.T) {
		_, err := NewChain("X", []*model.Status{
			{ID: 1, Kind: "X", Code: "A", IsInitial: true, NextID: u64(2)},
			{ID: 2, Kind: "X", Code: "B"},
		})
		assert.ErrorIs(t, err, ErrInvalidChain)
	})
	t.Run("cycle", func(t *testing.T) {
		_, err := NewChain("X", []*model.Status{
			{ID: 1, Kind: "X", Code: "A", IsInitial: true, NextID: u64(2), PreviousID: u64(2)},
			{ID: 2, Kind: "X", Code: "B", NextID: u64(1), PreviousID: u64(1)},
		})
		assert.ErrorIs(t, err, ErrInvalidChain)
	})
	t.Run("unknown allowed code", func(t *testing.T) {
		_, err := NewChain("X", []*model.Status{
			{ID: 1, Kind: "X", Code: "A", IsInitial: true, Allowed: []string{"Z"}},
		})
		assert.ErrorIs(t, err, ErrInvalidChain)
	})
	t.Run("foreign kind", func(t *testing.T) {
		_, err := NewChain("X", []*model.Status{{ID: 1, Kind: "Y", Code: "A", IsInitial: true}})
		assert.ErrorIs(t, err, ErrInvalidChain)
	})
}

type fakeSource struct {
	calls int
	rows  []*model.Status
	err   error
}

func (f *fakeSource) ListAll(context.Context) ([]*model.Status, error) {
	f.calls++
	return f.rows, f.err
}

func TestRegistryLoadsOnceAndReloads(t *testing.T) {
	src := &fakeSource{rows: DefaultStatuses()}
	reg := NewRegistry(src)

	c, err := reg.Chain(context.Background(), model.StatusKindPayment)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", c.Initial().Code)
	_, err = reg.Chain(context.Background(), model.StatusKindOrder)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	src.err = errors.New("db down")
	assert.Error(t, reg.Reload(context.Background()))
	_, err = reg.Chain(context.Background(), model.StatusKindOrder)
	require.NoError(t, err, "previous chains stay usable")

	_, err = reg.Chain(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
