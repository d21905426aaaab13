package model

import "time"

// Notification channels.
const (
	ChannelInApp = "IN_APP"
	ChannelEmail = "EMAIL"
)

// Notification is a message shown to a user in the app.
type Notification struct {
	ID        uint64     // notifications.id
	TenantID  uint64     // notifications.tenant_id
	UserID    uint64     // notifications.user_id
	Channel   string     // notifications.channel
	Type      string     // notifications.type (event type)
	Subject   string     // notifications.subject
	Body      string     // notifications.body
	ReadAt    *time.Time // notifications.read_at
	CreatedAt time.Time  // notifications.created_at
}

// File is metadata of an uploaded object.  The bytes live in the storage
// driver under StorageKey.
type File struct {
	ID           uint64     // files.id
	TenantID     uint64     // files.tenant_id
	UploadedBy   *uint64    // files.uploaded_by (SET NULL when the user goes)
	Driver       string     // files.driver
	StorageKey   string     // files.storage_key
	OriginalName string     // files.original_name
	ContentType  string     // files.content_type
	SizeBytes    int64      // files.size_bytes
	CreatedAt    time.Time  // files.created_at
	UpdatedAt    time.Time  // files.updated_at
	DeletedAt    *time.Time // files.deleted_at
}
