package repository

import (
	"context"
	"database/sql"

	"github.com/goccy/go-json"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

var statusTable = &Table[model.Status]{
	Meta: statusesMeta,
	Columns: []string{"id", "kind", "code", "name", "previous_id", "next_id", "allowed", "is_initial", "is_final",
		"created_at", "updated_at"},
	Scan: func(s Scanner, st *model.Status) error {
		var allowed []byte
		if err := s.Scan(&st.ID, &st.Kind, &st.Code, &st.Name, &st.PreviousID, &st.NextID, &allowed,
			&st.IsInitial, &st.IsFinal, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return err
		}
		st.Allowed = nil
		if len(allowed) > 0 {
			return json.Unmarshal(allowed, &st.Allowed)
		}
		return nil
	},
	ID: func(st *model.Status) uint64 { return st.ID },
	Insert: func(st *model.Status) ([]string, []any) {
		return []string{"kind", "code", "name", "previous_id", "next_id", "allowed", "is_initial", "is_final"},
			[]any{st.Kind, st.Code, st.Name, st.PreviousID, st.NextID, allowedJSON(st.Allowed), st.IsInitial, st.IsFinal}
	},
	Update: func(st *model.Status) ([]string, []any) {
		return []string{"name", "previous_id", "next_id", "allowed", "is_initial", "is_final"},
			[]any{st.Name, st.PreviousID, st.NextID, allowedJSON(st.Allowed), st.IsInitial, st.IsFinal}
	},
	Filterable:  []string{"kind", "code"},
	Sortable:    []string{"kind", "code"},
	DefaultSort: "kind",
}

func allowedJSON(codes []string) string {
	if codes == nil {
		codes = []string{}
	}
	b, _ := json.Marshal(codes)
	return string(b)
}

// StatusRepo reads and edits the workflow status chains.  Statuses are
// global, not tenant scoped.
type StatusRepo struct{ *Repo[model.Status] }

func NewStatusRepo(db *sql.DB) *StatusRepo { return &StatusRepo{NewRepo(db, statusTable)} }

// ListAll returns every status ordered by kind and id.
func (r *StatusRepo) ListAll(ctx context.Context) ([]*model.Status, error) {
	return r.query(ctx, r.selectSQL()+" ORDER BY kind, id")
}
