// Package repository implements persistence over MySQL.  Every table is
// described once by a Table value; Repo[T] runs the generic CRUD, filter and
// pagination statements against it, and the entity repositories add the few
// domain queries that do not fit the generic shape.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist, is soft deleted, or
// belongs to another tenant.  A foreign key pointing at a missing parent
// (MySQL 1452) maps here too.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned on duplicate keys and when a delete is blocked by
// dependent rows, either by a Restrict policy or by a database foreign key.
var ErrConflict = errors.New("conflict")

// ErrInvalidFilter is returned when a list request names a column that is
// not whitelisted for filtering or sorting.
var ErrInvalidFilter = errors.New("invalid filter")

// ErrNotSoftDeletable is returned by Restore on hard delete tables.
var ErrNotSoftDeletable = errors.New("table has no soft delete")

const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %s", ErrConflict, me.Message)
		case mysqlRowIsReferenced:
			return fmt.Errorf("%w: row is referenced", ErrConflict)
		case mysqlNoReferencedRow:
			return fmt.Errorf("%w: referenced row", ErrNotFound)
		}
	}
	return err
}
