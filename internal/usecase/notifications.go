package usecase

import (
	"context"

	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
)

type notificationStore interface {
	List(ctx context.Context, tenantID uint64, f repository.Filter) ([]*model.Notification, int, error)
	MarkRead(ctx context.Context, tenantID, userID, id uint64) error
	MarkAllRead(ctx context.Context, tenantID, userID uint64) (int64, error)
	CountUnread(ctx context.Context, tenantID, userID uint64) (int, error)
}

// NotificationUsecase is the caller's in-app inbox.
type NotificationUsecase struct {
	Notifications notificationStore
}

type NotificationPage struct {
	Page[NotificationDTO]
	Unread int `json:"unread"`
}

func (u *NotificationUsecase) List(ctx context.Context, s Scope, q ListQuery, unreadOnly bool) (*NotificationPage, error) {
	if err := requireUser(s); err != nil {
		return nil, err
	}
	f := q.filter()
	f.Eq["user_id"] = s.UserID
	f.Eq["channel"] = model.ChannelInApp
	if unreadOnly {
		f.Conds = append(f.Conds, repository.Cond{SQL: "read_at IS NULL"})
	}
	items, total, err := u.Notifications.List(ctx, s.TenantID, f)
	if err != nil {
		return nil, fromRepo(err)
	}
	unread, err := u.Notifications.CountUnread(ctx, s.TenantID, s.UserID)
	if err != nil {
		return nil, fromRepo(err)
	}
	return &NotificationPage{Page: mapPage(items, total, f, notificationDTO), Unread: unread}, nil
}

func (u *NotificationUsecase) MarkRead(ctx context.Context, s Scope, id uint64) error {
	if err := requireUser(s); err != nil {
		return err
	}
	return fromRepo(u.Notifications.MarkRead(ctx, s.TenantID, s.UserID, id))
}

// MarkAllRead returns how many notifications changed.
func (u *NotificationUsecase) MarkAllRead(ctx context.Context, s Scope) (int64, error) {
	if err := requireUser(s); err != nil {
		return 0, err
	}
	n, err := u.Notifications.MarkAllRead(ctx, s.TenantID, s.UserID)
	return n, fromRepo(err)
}
