// Package notify turns domain events into user notifications.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/sports-booking-backend/internal/i18n"
	"github.com/iliyamo/sports-booking-backend/internal/mailer"
	"github.com/iliyamo/sports-booking-backend/internal/model"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
)

type notificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
}

type userGetter interface {
	Get(ctx context.Context, tenantID, id uint64) (*model.User, error)
}

type translator interface {
	Has(locale, key string) bool
	Translate(locale, key string, args i18n.Args) string
	Default() string
}

// Dispatcher handles queue events: an IN_APP notification row plus an
// email to the user.  Event types without a subject text are ignored.
type Dispatcher struct {
	notifications notificationStore
	users         userGetter
	texts         translator
	mail          mailer.Mailer
	log           *zap.Logger
}

func NewDispatcher(n notificationStore, u userGetter, t translator, m mailer.Mailer, log *zap.Logger) *Dispatcher {
	return &Dispatcher{notifications: n, users: u, texts: t, mail: m, log: log}
}

func (d *Dispatcher) locale(ev queue.Event, u *model.User) string {
	if ev.Locale != "" {
		return ev.Locale
	}
	if u.Locale != nil && *u.Locale != "" {
		return *u.Locale
	}
	return d.texts.Default()
}

func (d *Dispatcher) Handle(ctx context.Context, ev queue.Event) error {
	subjectKey := "notify." + ev.Type + ".subject"
	if !d.texts.Has(d.texts.Default(), subjectKey) {
		d.log.Debug("no notification text for event", zap.String("type", ev.Type))
		return nil
	}
	if ev.UserID == 0 {
		return nil
	}

	u, err := d.users.Get(ctx, ev.TenantID, ev.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		d.log.Info("notification target gone", zap.Uint64("user_id", ev.UserID), zap.String("type", ev.Type))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	lang := d.locale(ev, u)
	args := i18n.Args{"name": u.FullName}
	for k, v := range ev.Data {
		args[k] = v
	}
	subject := d.texts.Translate(lang, subjectKey, args)
	body := d.texts.Translate(lang, "notify."+ev.Type+".body", args)

	n := &model.Notification{
		TenantID: ev.TenantID,
		UserID:   u.ID,
		Channel:  model.ChannelInApp,
		Type:     ev.Type,
		Subject:  subject,
		Body:     body,
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if !u.IsActive {
		return nil
	}
	err = d.mail.Send(ctx, mailer.Message{To: u.Email, ToName: u.FullName, Subject: subject, Text: body})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	d.log.Info("notification delivered",
		zap.String("type", ev.Type),
		zap.String("event_id", ev.ID),
		zap.Uint64("tenant_id", ev.TenantID),
		zap.Uint64("user_id", u.ID))
	return nil
}
