package usecase

import (
	"context"
	"sort"
	"strings"
)

type chainReloader interface {
	Chains
	Reload(ctx context.Context) error
}

// StatusUsecase publishes the workflow chains so clients can render the
// allowed actions of a row.
type StatusUsecase struct {
	Registry chainReloader
}

// List returns the statuses of kind, main line first, each with the codes
// reachable from it.
func (u *StatusUsecase) List(ctx context.Context, kind string) ([]StatusDTO, error) {
	c, err := u.Registry.Chain(ctx, strings.ToUpper(kind))
	if err != nil {
		return nil, errNotFound("workflow.unknown_status")
	}
	path := c.Path()
	seen := make(map[uint64]bool, len(path))
	out := make([]StatusDTO, 0, len(path))
	for _, s := range path {
		seen[s.ID] = true
		out = append(out, StatusDTO{ID: s.ID, Code: s.Code, Name: s.Name, Initial: s.IsInitial, Final: s.IsFinal, Targets: nonNil(c.Targets(s))})
	}
	var side []StatusDTO
	for _, s := range path {
		for _, code := range s.Allowed {
			st, err := c.ByCode(code)
			if err != nil || seen[st.ID] {
				continue
			}
			seen[st.ID] = true
			side = append(side, StatusDTO{ID: st.ID, Code: st.Code, Name: st.Name, Final: st.IsFinal, Targets: nonNil(c.Targets(st))})
		}
	}
	sort.Slice(side, func(i, j int) bool { return side[i].ID < side[j].ID })
	return append(out, side...), nil
}

// Reload re-reads the chains after the statuses table changed.
func (u *StatusUsecase) Reload(ctx context.Context, s Scope) error {
	if err := requireAdmin(s); err != nil {
		return err
	}
	if err := u.Registry.Reload(ctx); err != nil {
		return errInternal(err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
