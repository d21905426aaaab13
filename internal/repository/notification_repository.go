package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/sports-booking-backend/internal/model"
)

var notificationTable = &Table[model.Notification]{
	Meta:    notificationsMeta,
	Columns: []string{"id", "tenant_id", "user_id", "channel", "type", "subject", "body", "read_at", "created_at"},
	Scan: func(s Scanner, n *model.Notification) error {
		return s.Scan(&n.ID, &n.TenantID, &n.UserID, &n.Channel, &n.Type, &n.Subject, &n.Body, &n.ReadAt, &n.CreatedAt)
	},
	ID: func(n *model.Notification) uint64 { return n.ID },
	Insert: func(n *model.Notification) ([]string, []any) {
		return []string{"tenant_id", "user_id", "channel", "type", "subject", "body"},
			[]any{n.TenantID, n.UserID, n.Channel, n.Type, n.Subject, n.Body}
	},
	Update: func(n *model.Notification) ([]string, []any) {
		return []string{"read_at"}, []any{n.ReadAt}
	},
	Filterable:  []string{"user_id", "channel", "type"},
	Sortable:    []string{"created_at"},
	DefaultSort: "-created_at",
}

type NotificationRepo struct{ *Repo[model.Notification] }

func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{NewRepo(db, notificationTable)}
}

// MarkRead stamps read_at on one notification of the user.  Marking an
// already read notification is not an error.
func (r *NotificationRepo) MarkRead(ctx context.Context, tenantID, userID, id uint64) error {
	res, err := r.q(ctx).ExecContext(ctx,
		"UPDATE notifications SET read_at = COALESCE(read_at, UTC_TIMESTAMP()) WHERE id = ? AND tenant_id = ? AND user_id = ?",
		id, tenantID, userID)
	if err != nil {
		return err
	}
	return affected(res)
}

// MarkAllRead stamps every unread notification of the user and returns how
// many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, tenantID, userID uint64) (int64, error) {
	res, err := r.q(ctx).ExecContext(ctx,
		"UPDATE notifications SET read_at = UTC_TIMESTAMP() WHERE tenant_id = ? AND user_id = ? AND read_at IS NULL",
		tenantID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUnread returns the number of unread notifications of the user.
func (r *NotificationRepo) CountUnread(ctx context.Context, tenantID, userID uint64) (int, error) {
	var n int
	err := r.q(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE tenant_id = ? AND user_id = ? AND read_at IS NULL",
		tenantID, userID).Scan(&n)
	return n, err
}

var fileTable = &Table[model.File]{
	Meta: filesMeta,
	Columns: []string{"id", "tenant_id", "uploaded_by", "driver", "storage_key", "original_name", "content_type",
		"size_bytes", "created_at", "updated_at", "deleted_at"},
	Scan: func(s Scanner, f *model.File) error {
		return s.Scan(&f.ID, &f.TenantID, &f.UploadedBy, &f.Driver, &f.StorageKey, &f.OriginalName, &f.ContentType,
			&f.SizeBytes, &f.CreatedAt, &f.UpdatedAt, &f.DeletedAt)
	},
	ID: func(f *model.File) uint64 { return f.ID },
	Insert: func(f *model.File) ([]string, []any) {
		return []string{"tenant_id", "uploaded_by", "driver", "storage_key", "original_name", "content_type", "size_bytes"},
			[]any{f.TenantID, f.UploadedBy, f.Driver, f.StorageKey, f.OriginalName, f.ContentType, f.SizeBytes}
	},
	Update: func(f *model.File) ([]string, []any) {
		return []string{"original_name"}, []any{f.OriginalName}
	},
	Searchable:  []string{"original_name"},
	Filterable:  []string{"uploaded_by", "content_type", "driver"},
	Sortable:    []string{"created_at", "size_bytes", "original_name"},
	DefaultSort: "-created_at",
}

type FileRepo struct{ *Repo[model.File] }

func NewFileRepo(db *sql.DB) *FileRepo { return &FileRepo{NewRepo(db, fileTable)} }
