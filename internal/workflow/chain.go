// Package workflow models the linked status chains that drive orders,
// bookings, enrollments and payments.  A chain is a main line of statuses
// linked through previous/next pointers plus per status side exits listed by
// code (CANCELLED, REFUNDED, FAILED).
package workflow

import (
	"errors"
	"fmt"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

var (
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownStatus is returned for a code or id that is not in the chain.
	ErrUnknownStatus = errors.New("unknown status")
	// ErrInvalidChain is returned by NewChain when the rows do not form a
	// well linked chain.
	ErrInvalidChain = errors.New("invalid status chain")
)

// TransitionError carries both ends of a rejected transition.
type TransitionError struct {
	Kind string
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s cannot move from %s to %s", ErrInvalidTransition, e.Kind, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Chain is the validated, immutable set of statuses of one kind.
type Chain struct {
	kind    string
	initial *model.Status
	byID    map[uint64]*model.Status
	byCode  map[string]*model.Status
}

// NewChain validates statuses of a single kind and indexes them.
func NewChain(kind string, statuses []*model.Status) (*Chain, error) {
	c := &Chain{
		kind:   kind,
		byID:   make(map[uint64]*model.Status, len(statuses)),
		byCode: make(map[string]*model.Status, len(statuses)),
	}
	for _, s := range statuses {
		if s.Kind != kind {
			return nil, fmt.Errorf("%w: %s status %s has kind %s", ErrInvalidChain, kind, s.Code, s.Kind)
		}
		if _, dup := c.byCode[s.Code]; dup {
			return nil, fmt.Errorf("%w: %s has duplicate code %s", ErrInvalidChain, kind, s.Code)
		}
		c.byID[s.ID] = s
		c.byCode[s.Code] = s
		if s.IsInitial {
			if c.initial != nil {
				return nil, fmt.Errorf("%w: %s has more than one initial status", ErrInvalidChain, kind)
			}
			c.initial = s
		}
	}
	if c.initial == nil {
		return nil, fmt.Errorf("%w: %s has no initial status", ErrInvalidChain, kind)
	}

	for _, s := range statuses {
		if s.NextID != nil {
			next, ok := c.byID[*s.NextID]
			if !ok {
				return nil, fmt.Errorf("%w: %s next of %s is outside the chain", ErrInvalidChain, kind, s.Code)
			}
			if next.PreviousID == nil || *next.PreviousID != s.ID {
				return nil, fmt.Errorf("%w: %s %s -> %s is not mirrored by previous", ErrInvalidChain, kind, s.Code, next.Code)
			}
		}
		if s.PreviousID != nil {
			prev, ok := c.byID[*s.PreviousID]
			if !ok {
				return nil, fmt.Errorf("%w: %s previous of %s is outside the chain", ErrInvalidChain, kind, s.Code)
			}
			if prev.NextID == nil || *prev.NextID != s.ID {
				return nil, fmt.Errorf("%w: %s %s <- %s is not mirrored by next", ErrInvalidChain, kind, prev.Code, s.Code)
			}
		}
		for _, code := range s.Allowed {
			if _, ok := c.byCode[code]; !ok {
				return nil, fmt.Errorf("%w: %s %s allows unknown code %s", ErrInvalidChain, kind, s.Code, code)
			}
		}
	}

	seen := map[uint64]bool{}
	for s := c.initial; s != nil; s = c.Next(s) {
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: %s main line has a cycle at %s", ErrInvalidChain, kind, s.Code)
		}
		seen[s.ID] = true
	}
	return c, nil
}

func (c *Chain) Kind() string { return c.kind }

// Initial is the status new rows start in.
func (c *Chain) Initial() *model.Status { return c.initial }

func (c *Chain) ByCode(code string) (*model.Status, error) {
	s, ok := c.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownStatus, c.kind, code)
	}
	return s, nil
}

func (c *Chain) ByID(id uint64) (*model.Status, error) {
	s, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s #%d", ErrUnknownStatus, c.kind, id)
	}
	return s, nil
}

// Next follows the next pointer, nil at the end of the main line.
func (c *Chain) Next(s *model.Status) *model.Status {
	if s == nil || s.NextID == nil {
		return nil
	}
	return c.byID[*s.NextID]
}

// Path returns the main line from the initial status.
func (c *Chain) Path() []*model.Status {
	var out []*model.Status
	for s := c.initial; s != nil; s = c.Next(s) {
		out = append(out, s)
	}
	return out
}

// CanTransition reports whether to is reachable from from in one step.
// Final statuses allow nothing.
func (c *Chain) CanTransition(from, to *model.Status) bool {
	if from == nil || to == nil || from.IsFinal || from.ID == to.ID {
		return false
	}
	if from.NextID != nil && *from.NextID == to.ID {
		return true
	}
	for _, code := range from.Allowed {
		if code == to.Code {
			return true
		}
	}
	return false
}

// Targets lists the codes reachable from s in one step.
func (c *Chain) Targets(s *model.Status) []string {
	if s == nil || s.IsFinal {
		return nil
	}
	var out []string
	next := c.Next(s)
	if next != nil {
		out = append(out, next.Code)
	}
	for _, code := range s.Allowed {
		if next == nil || code != next.Code {
			out = append(out, code)
		}
	}
	return out
}

// Transition resolves toCode and checks the move from the status with id
// fromID.
func (c *Chain) Transition(fromID uint64, toCode string) (*model.Status, error) {
	from, err := c.ByID(fromID)
	if err != nil {
		return nil, err
	}
	to, err := c.ByCode(toCode)
	if err != nil {
		return nil, &TransitionError{Kind: c.kind, From: from.Code, To: toCode}
	}
	if !c.CanTransition(from, to) {
		return nil, &TransitionError{Kind: c.kind, From: from.Code, To: to.Code}
	}
	return to, nil
}
