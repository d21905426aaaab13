package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/iliyamo/sports-booking-backend/internal/database"
)

// Policy says what happens to child rows when a parent is soft deleted.
type Policy int

const (
	// Cascade soft deletes soft children (recursively) and hard deletes the rest.
	Cascade Policy = iota
	// Restrict refuses the delete while live children exist.
	Restrict
	// SetNull clears the child's foreign key column.
	SetNull
)

func (p Policy) String() string {
	switch p {
	case Cascade:
		return "cascade"
	case Restrict:
		return "restrict"
	case SetNull:
		return "set null"
	}
	return "unknown"
}

// Dependent is a child table referencing the parent through FK.
// Where optionally narrows which children count, e.g. only bookings that are
// not cancelled.
type Dependent struct {
	Table  *Meta
	FK     string
	Policy Policy
	Where  string
}

// Meta is the non generic part of a table description.  It is what the
// soft delete walk needs to follow dependents across tables of different
// entity types.
type Meta struct {
	Name       string
	Tenant     bool // has tenant_id
	Soft       bool // has deleted_at
	Dependents []Dependent
}

// Scanner is implemented by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table describes how entity T maps onto a table.
type Table[T any] struct {
	*Meta
	// Columns is the select list; the first column must be id.
	Columns []string
	Scan    func(s Scanner, v *T) error
	ID      func(v *T) uint64
	// Insert and Update return column names and matching values.
	Insert func(v *T) ([]string, []any)
	Update func(v *T) ([]string, []any)

	Searchable  []string
	Filterable  []string
	Sortable    []string
	DefaultSort string
}

// Cond is a trusted SQL fragment with its arguments, built by repository
// code, never from request input.
type Cond struct {
	SQL  string
	Args []any
}

// Filter narrows a List call.
type Filter struct {
	Eq             map[string]any
	Search         string
	Conds          []Cond
	Page           int
	PerPage        int
	Sort           string
	IncludeDeleted bool
}

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Normalize clamps paging values.
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
}

// Repo runs the generic statements of a Table against the pool or the
// transaction carried by the context.
type Repo[T any] struct {
	DB    *sql.DB
	Table *Table[T]
}

func NewRepo[T any](db *sql.DB, t *Table[T]) *Repo[T] {
	return &Repo[T]{DB: db, Table: t}
}

func (r *Repo[T]) q(ctx context.Context) database.Querier {
	return database.Conn(ctx, r.DB)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// scope appends the tenant and soft delete predicates.  tenantID 0 means
// unscoped and is reserved for platform and internal callers.
func (m *Meta) scope(where []string, args []any, tenantID uint64, includeDeleted bool) ([]string, []any) {
	if m.Tenant && tenantID != 0 {
		where = append(where, "tenant_id = ?")
		args = append(args, tenantID)
	}
	if m.Soft && !includeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	return where, args
}

func (r *Repo[T]) selectSQL() string {
	return "SELECT " + strings.Join(r.Table.Columns, ", ") + " FROM " + r.Table.Name
}

// Create inserts v and reloads it so generated columns are populated.
func (r *Repo[T]) Create(ctx context.Context, v *T) error {
	cols, vals := r.Table.Insert(v)
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	query := "INSERT INTO " + r.Table.Name + " (" + strings.Join(cols, ", ") + ") VALUES (" + marks + ")"
	res, err := r.q(ctx).ExecContext(ctx, query, vals...)
	if err != nil {
		return mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.get(ctx, 0, uint64(id), false, "")
	if err != nil {
		return err
	}
	*v = *fresh
	return nil
}

func (r *Repo[T]) get(ctx context.Context, tenantID, id uint64, includeDeleted bool, suffix string) (*T, error) {
	where, args := r.Table.scope([]string{"id = ?"}, []any{id}, tenantID, includeDeleted)
	query := r.selectSQL() + " WHERE " + strings.Join(where, " AND ") + " LIMIT 1" + suffix
	v := new(T)
	if err := r.Table.Scan(r.q(ctx).QueryRowContext(ctx, query, args...), v); err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// Get returns a live row of the tenant.
func (r *Repo[T]) Get(ctx context.Context, tenantID, id uint64) (*T, error) {
	return r.get(ctx, tenantID, id, false, "")
}

// GetWithDeleted also returns soft deleted rows.
func (r *Repo[T]) GetWithDeleted(ctx context.Context, tenantID, id uint64) (*T, error) {
	return r.get(ctx, tenantID, id, true, "")
}

// Lock reads a live row with SELECT ... FOR UPDATE.  Only meaningful inside
// database.WithTx.
func (r *Repo[T]) Lock(ctx context.Context, tenantID, id uint64) (*T, error) {
	return r.get(ctx, tenantID, id, false, " FOR UPDATE")
}

// Exists reports whether a live row of the tenant exists.
func (r *Repo[T]) Exists(ctx context.Context, tenantID, id uint64) (bool, error) {
	where, args := r.Table.scope([]string{"id = ?"}, []any{id}, tenantID, false)
	var one int
	err := r.q(ctx).QueryRowContext(ctx,
		"SELECT 1 FROM "+r.Table.Name+" WHERE "+strings.Join(where, " AND ")+" LIMIT 1", args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// buildWhere turns a filter into predicates.  Column names are checked
// against the table whitelists before they reach the SQL text.
func (r *Repo[T]) buildWhere(tenantID uint64, f Filter) ([]string, []any, error) {
	where, args := r.Table.scope(nil, nil, tenantID, f.IncludeDeleted && r.Table.Soft)
	cols := make([]string, 0, len(f.Eq))
	for col := range f.Eq {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		val := f.Eq[col]
		if !contains(r.Table.Filterable, col) {
			return nil, nil, fmt.Errorf("%w: %s", ErrInvalidFilter, col)
		}
		if val == nil {
			where = append(where, col+" IS NULL")
			continue
		}
		where = append(where, col+" = ?")
		args = append(args, val)
	}
	if s := strings.TrimSpace(f.Search); s != "" && len(r.Table.Searchable) > 0 {
		like := "%" + escapeLike(s) + "%"
		parts := make([]string, 0, len(r.Table.Searchable))
		for _, col := range r.Table.Searchable {
			parts = append(parts, col+" LIKE ?")
			args = append(args, like)
		}
		where = append(where, "("+strings.Join(parts, " OR ")+")")
	}
	for _, c := range f.Conds {
		where = append(where, c.SQL)
		args = append(args, c.Args...)
	}
	return where, args, nil
}

func (r *Repo[T]) orderBy(by string) (string, error) {
	if by == "" {
		by = r.Table.DefaultSort
	}
	if by == "" {
		return "id DESC", nil
	}
	dir := "ASC"
	col := by
	if strings.HasPrefix(by, "-") {
		dir = "DESC"
		col = by[1:]
	}
	if col != "id" && !contains(r.Table.Sortable, col) {
		return "", fmt.Errorf("%w: sort %s", ErrInvalidFilter, col)
	}
	if col == "id" {
		return "id " + dir, nil
	}
	return col + " " + dir + ", id " + dir, nil
}

// List returns one page of rows and the total number of matching rows.
func (r *Repo[T]) List(ctx context.Context, tenantID uint64, f Filter) ([]*T, int, error) {
	f.Normalize()
	where, args, err := r.buildWhere(tenantID, f)
	if err != nil {
		return nil, 0, err
	}
	order, err := r.orderBy(f.Sort)
	if err != nil {
		return nil, 0, err
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM "+r.Table.Name+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*T{}, 0, nil
	}

	query := r.selectSQL() + clause + " ORDER BY " + order + " LIMIT ? OFFSET ?"
	pageArgs := append(append([]any{}, args...), f.PerPage, (f.Page-1)*f.PerPage)
	items, err := r.query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// query runs an arbitrary select that returns the table's column list.
func (r *Repo[T]) query(ctx context.Context, query string, args ...any) ([]*T, error) {
	rows, err := r.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*T{}
	for rows.Next() {
		v := new(T)
		if err := r.Table.Scan(rows, v); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// Update writes the Update columns of v.  The DSN sets clientFoundRows so
// an unchanged row still counts as affected.
func (r *Repo[T]) Update(ctx context.Context, tenantID uint64, v *T) error {
	cols, vals := r.Table.Update(v)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = ?"
	}
	where, args := r.Table.scope([]string{"id = ?"}, []any{r.Table.ID(v)}, tenantID, false)
	query := "UPDATE " + r.Table.Name + " SET " + strings.Join(sets, ", ") + " WHERE " + strings.Join(where, " AND ")
	res, err := r.q(ctx).ExecContext(ctx, query, append(vals, args...)...)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a row.  Soft tables mark deleted_at and apply dependent
// policies in one transaction; hard tables rely on the database foreign keys.
func (r *Repo[T]) Delete(ctx context.Context, tenantID, id uint64) error {
	if !r.Table.Soft {
		where, args := r.Table.scope([]string{"id = ?"}, []any{id}, tenantID, false)
		res, err := r.q(ctx).ExecContext(ctx, "DELETE FROM "+r.Table.Name+" WHERE "+strings.Join(where, " AND "), args...)
		if err != nil {
			return mapError(err)
		}
		return affected(res)
	}
	return database.WithTx(ctx, r.DB, func(ctx context.Context) error {
		q := r.q(ctx)
		where, args := r.Table.scope([]string{"id = ?"}, []any{id}, tenantID, false)
		var one int
		err := q.QueryRowContext(ctx,
			"SELECT 1 FROM "+r.Table.Name+" WHERE "+strings.Join(where, " AND ")+" FOR UPDATE", args...).Scan(&one)
		if err != nil {
			return mapError(err)
		}
		return softDelete(ctx, q, r.Table.Meta, id)
	})
}

// softDelete applies the dependents of m to the children of id and then
// marks the row itself.
func softDelete(ctx context.Context, q database.Querier, m *Meta, id uint64) error {
	for _, d := range m.Dependents {
		child := d.Table
		pred := d.FK + " = ?"
		if d.Where != "" {
			pred += " AND " + d.Where
		}
		live := pred
		if child.Soft {
			live += " AND deleted_at IS NULL"
		}
		switch d.Policy {
		case Restrict:
			var one int
			err := q.QueryRowContext(ctx, "SELECT 1 FROM "+child.Name+" WHERE "+live+" LIMIT 1", id).Scan(&one)
			if err == nil {
				return fmt.Errorf("%w: %s has dependent %s", ErrConflict, m.Name, child.Name)
			}
			if err != sql.ErrNoRows {
				return err
			}
		case SetNull:
			if _, err := q.ExecContext(ctx, "UPDATE "+child.Name+" SET "+d.FK+" = NULL WHERE "+pred, id); err != nil {
				return mapError(err)
			}
		case Cascade:
			if !child.Soft {
				if _, err := q.ExecContext(ctx, "DELETE FROM "+child.Name+" WHERE "+pred, id); err != nil {
					return mapError(err)
				}
				continue
			}
			ids, err := childIDs(ctx, q, child.Name, live, id)
			if err != nil {
				return err
			}
			for _, cid := range ids {
				if err := softDelete(ctx, q, child, cid); err != nil {
					return err
				}
			}
		}
	}
	_, err := q.ExecContext(ctx, "UPDATE "+m.Name+" SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL", id)
	return mapError(err)
}

func childIDs(ctx context.Context, q database.Querier, table, pred string, parent uint64) ([]uint64, error) {
	rows, err := q.QueryContext(ctx, "SELECT id FROM "+table+" WHERE "+pred+" FOR UPDATE", parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Restore clears deleted_at.  Children removed by a cascade stay deleted.
func (r *Repo[T]) Restore(ctx context.Context, tenantID, id uint64) error {
	if !r.Table.Soft {
		return ErrNotSoftDeletable
	}
	where, args := r.Table.scope([]string{"id = ?", "deleted_at IS NOT NULL"}, []any{id}, tenantID, true)
	res, err := r.q(ctx).ExecContext(ctx,
		"UPDATE "+r.Table.Name+" SET deleted_at = NULL WHERE "+strings.Join(where, " AND "), args...)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
