package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Academy is a sports school run by a tenant.
type Academy struct {
	ID          uint64     // academies.id
	TenantID    uint64     // academies.tenant_id
	Name        string     // academies.name
	Sport       string     // academies.sport
	Description *string    // academies.description
	Address     *string    // academies.address
	Phone       *string    // academies.phone
	LogoFileID  *uint64    // academies.logo_file_id (SET NULL when the file goes)
	IsActive    bool       // academies.is_active
	CreatedAt   time.Time  // academies.created_at
	UpdatedAt   time.Time  // academies.updated_at
	DeletedAt   *time.Time // academies.deleted_at
}

// AcademyClass is a weekly recurring class of an academy.  StartTime and
// EndTime are "HH:MM" in the tenant's local time.
type AcademyClass struct {
	ID          uint64          // academy_classes.id
	TenantID    uint64          // academy_classes.tenant_id
	AcademyID   uint64          // academy_classes.academy_id
	Name        string          // academy_classes.name
	Coach       *string         // academy_classes.coach
	Description *string         // academy_classes.description
	Capacity    uint32          // academy_classes.capacity
	Weekday     uint8           // academy_classes.weekday (0 = Sunday)
	StartTime   string          // academy_classes.start_time
	EndTime     string          // academy_classes.end_time
	Price       decimal.Decimal // academy_classes.price
	IsActive    bool            // academy_classes.is_active
	CreatedAt   time.Time       // academy_classes.created_at
	UpdatedAt   time.Time       // academy_classes.updated_at
	DeletedAt   *time.Time      // academy_classes.deleted_at
}

// Enrollment registers a customer in a class.
type Enrollment struct {
	ID        uint64     // enrollments.id
	TenantID  uint64     // enrollments.tenant_id
	ClassID   uint64     // enrollments.class_id
	UserID    uint64     // enrollments.user_id
	StatusID  uint64     // enrollments.status_id
	Notes     *string    // enrollments.notes
	CreatedAt time.Time  // enrollments.created_at
	UpdatedAt time.Time  // enrollments.updated_at
	DeletedAt *time.Time // enrollments.deleted_at
}
