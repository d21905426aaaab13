package workflow

import "github.com/iliyamo/sports-booking-backend/internal/model"

type seed struct {
	code, name string
	allowed    []string
}

// defaultChains lists, per kind, the linked statuses first and the side exits
// after them.  main is the number of linked statuses.
var defaultChains = []struct {
	kind string
	main int
	rows []seed
}{
	{model.StatusKindOrder, 3, []seed{
		{model.StatusPending, "Pending", []string{model.StatusCancelled}},
		{model.StatusPaid, "Paid", []string{model.StatusRefunded}},
		{model.StatusFulfilled, "Fulfilled", nil},
		{model.StatusCancelled, "Cancelled", nil},
		{model.StatusRefunded, "Refunded", nil},
	}},
	{model.StatusKindBooking, 3, []seed{
		{model.StatusPending, "Pending", []string{model.StatusCancelled}},
		{model.StatusConfirmed, "Confirmed", []string{model.StatusCancelled}},
		{model.StatusCompleted, "Completed", nil},
		{model.StatusCancelled, "Cancelled", nil},
	}},
	{model.StatusKindEnrollment, 3, []seed{
		{model.StatusPending, "Pending", []string{model.StatusCancelled}},
		{model.StatusActive, "Active", []string{model.StatusCancelled}},
		{model.StatusCompleted, "Completed", nil},
		{model.StatusCancelled, "Cancelled", nil},
	}},
	{model.StatusKindPayment, 3, []seed{
		{model.StatusPending, "Pending", []string{model.StatusFailed}},
		{model.StatusSucceeded, "Succeeded", nil},
		{model.StatusRefunded, "Refunded", nil},
		{model.StatusFailed, "Failed", nil},
	}},
}

// DefaultStatuses builds the rows inserted by the status chain migration,
// with ids assigned in insertion order.
func DefaultStatuses() []*model.Status {
	var (
		out []*model.Status
		id  uint64
	)
	for _, ch := range defaultChains {
		for i, r := range ch.rows {
			id++
			s := &model.Status{
				ID:        id,
				Kind:      ch.kind,
				Code:      r.code,
				Name:      r.name,
				Allowed:   append([]string{}, r.allowed...),
				IsInitial: i == 0,
				IsFinal:   i >= ch.main-1,
			}
			if i > 0 && i < ch.main {
				prev := id - 1
				s.PreviousID = &prev
			}
			if i < ch.main-1 {
				next := id + 1
				s.NextID = &next
			}
			out = append(out, s)
		}
	}
	return out
}
