package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

var academyTable = &Table[model.Academy]{
	Meta: academiesMeta,
	Columns: []string{"id", "tenant_id", "name", "sport", "description", "address", "phone", "logo_file_id",
		"is_active", "created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, a *model.Academy) error {
		return s.Scan(&a.ID, &a.TenantID, &a.Name, &a.Sport, &a.Description, &a.Address, &a.Phone, &a.LogoFileID,
			&a.IsActive, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt)
	},
	ID: func(a *model.Academy) uint64 { return a.ID },
	Insert: func(a *model.Academy) ([]string, []any) {
		return []string{"tenant_id", "name", "sport", "description", "address", "phone", "logo_file_id", "is_active"},
			[]any{a.TenantID, a.Name, a.Sport, a.Description, a.Address, a.Phone, a.LogoFileID, a.IsActive}
	},
	Update: func(a *model.Academy) ([]string, []any) {
		return []string{"name", "sport", "description", "address", "phone", "logo_file_id", "is_active"},
			[]any{a.Name, a.Sport, a.Description, a.Address, a.Phone, a.LogoFileID, a.IsActive}
	},
	Searchable:  []string{"name", "sport", "description"},
	Filterable:  []string{"sport", "is_active"},
	Sortable:    []string{"name", "sport", "created_at"},
	DefaultSort: "name",
}

type AcademyRepo struct{ *Repo[model.Academy] }

func NewAcademyRepo(db *sql.DB) *AcademyRepo { return &AcademyRepo{NewRepo(db, academyTable)} }

var classTable = &Table[model.AcademyClass]{
	Meta: academyClassesMeta,
	Columns: []string{"id", "tenant_id", "academy_id", "name", "coach", "description", "capacity", "weekday",
		"start_time", "end_time", "price", "is_active", "created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, c *model.AcademyClass) error {
		return s.Scan(&c.ID, &c.TenantID, &c.AcademyID, &c.Name, &c.Coach, &c.Description, &c.Capacity, &c.Weekday,
			&c.StartTime, &c.EndTime, &c.Price, &c.IsActive, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	},
	ID: func(c *model.AcademyClass) uint64 { return c.ID },
	Insert: func(c *model.AcademyClass) ([]string, []any) {
		return []string{"tenant_id", "academy_id", "name", "coach", "description", "capacity", "weekday",
				"start_time", "end_time", "price", "is_active"},
			[]any{c.TenantID, c.AcademyID, c.Name, c.Coach, c.Description, c.Capacity, c.Weekday,
				c.StartTime, c.EndTime, c.Price, c.IsActive}
	},
	Update: func(c *model.AcademyClass) ([]string, []any) {
		return []string{"name", "coach", "description", "capacity", "weekday", "start_time", "end_time", "price", "is_active"},
			[]any{c.Name, c.Coach, c.Description, c.Capacity, c.Weekday, c.StartTime, c.EndTime, c.Price, c.IsActive}
	},
	Searchable:  []string{"name", "coach"},
	Filterable:  []string{"academy_id", "weekday", "is_active"},
	Sortable:    []string{"name", "weekday", "start_time", "price", "created_at"},
	DefaultSort: "weekday",
}

type ClassRepo struct{ *Repo[model.AcademyClass] }

func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{NewRepo(db, classTable)} }

var enrollmentTable = &Table[model.Enrollment]{
	Meta:    enrollmentsMeta,
	Columns: []string{"id", "tenant_id", "class_id", "user_id", "status_id", "notes", "created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, e *model.Enrollment) error {
		return s.Scan(&e.ID, &e.TenantID, &e.ClassID, &e.UserID, &e.StatusID, &e.Notes, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	},
	ID: func(e *model.Enrollment) uint64 { return e.ID },
	Insert: func(e *model.Enrollment) ([]string, []any) {
		return []string{"tenant_id", "class_id", "user_id", "status_id", "notes"},
			[]any{e.TenantID, e.ClassID, e.UserID, e.StatusID, e.Notes}
	},
	Update: func(e *model.Enrollment) ([]string, []any) {
		return []string{"status_id", "notes"}, []any{e.StatusID, e.Notes}
	},
	Filterable:  []string{"class_id", "user_id", "status_id"},
	Sortable:    []string{"created_at"},
	DefaultSort: "-created_at",
}

type EnrollmentRepo struct{ *Repo[model.Enrollment] }

func NewEnrollmentRepo(db *sql.DB) *EnrollmentRepo { return &EnrollmentRepo{NewRepo(db, enrollmentTable)} }

// CountOpen counts live enrollments of a class that still take a seat
// (PENDING or ACTIVE).
func (r *EnrollmentRepo) CountOpen(ctx context.Context, classID uint64) (int, error) {
	var n int
	err := r.q(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM enrollments WHERE class_id = ? AND deleted_at IS NULL AND "+openEnrollmentPredicate,
		classID).Scan(&n)
	return n, err
}

// HasOpen reports whether the user already holds an open enrollment in the
// class.
func (r *EnrollmentRepo) HasOpen(ctx context.Context, classID, userID uint64) (bool, error) {
	var one int
	err := r.q(ctx).QueryRowContext(ctx,
		"SELECT 1 FROM enrollments WHERE class_id = ? AND user_id = ? AND deleted_at IS NULL AND "+openEnrollmentPredicate+" LIMIT 1",
		classID, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}
