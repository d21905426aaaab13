package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/sports-booking-backend/internal/config"
	"github.com/iliyamo/sports-booking-backend/internal/database"
	"github.com/iliyamo/sports-booking-backend/internal/handler"
	"github.com/iliyamo/sports-booking-backend/internal/i18n"
	"github.com/iliyamo/sports-booking-backend/internal/logger"
	"github.com/iliyamo/sports-booking-backend/internal/mailer"
	"github.com/iliyamo/sports-booking-backend/internal/notify"
	"github.com/iliyamo/sports-booking-backend/internal/payment"
	"github.com/iliyamo/sports-booking-backend/internal/queue"
	"github.com/iliyamo/sports-booking-backend/internal/repository"
	"github.com/iliyamo/sports-booking-backend/internal/router"
	"github.com/iliyamo/sports-booking-backend/internal/storage"
	"github.com/iliyamo/sports-booking-backend/internal/ticketing"
	"github.com/iliyamo/sports-booking-backend/internal/usecase"
	"github.com/iliyamo/sports-booking-backend/internal/workflow"
)

// repos are the repositories shared by the server and the worker.
type repos struct {
	tenants       *repository.TenantRepo
	users         *repository.UserRepo
	tokens        *repository.TokenRepo
	statuses      *repository.StatusRepo
	academies     *repository.AcademyRepo
	classes       *repository.ClassRepo
	enrollments   *repository.EnrollmentRepo
	fields        *repository.FieldRepo
	bookings      *repository.BookingRepo
	products      *repository.ProductRepo
	orders        *repository.OrderRepo
	orderItems    *repository.OrderItemRepo
	payments      *repository.PaymentRepo
	purchases     *repository.TicketPurchaseRepo
	notifications *repository.NotificationRepo
	files         *repository.FileRepo
}

func newRepos(db *sql.DB) repos {
	return repos{
		tenants:       repository.NewTenantRepo(db),
		users:         repository.NewUserRepo(db),
		tokens:        repository.NewTokenRepo(db),
		statuses:      repository.NewStatusRepo(db),
		academies:     repository.NewAcademyRepo(db),
		classes:       repository.NewClassRepo(db),
		enrollments:   repository.NewEnrollmentRepo(db),
		fields:        repository.NewFieldRepo(db),
		bookings:      repository.NewBookingRepo(db),
		products:      repository.NewProductRepo(db),
		orders:        repository.NewOrderRepo(db),
		orderItems:    repository.NewOrderItemRepo(db),
		payments:      repository.NewPaymentRepo(db),
		purchases:     repository.NewTicketPurchaseRepo(db),
		notifications: repository.NewNotificationRepo(db),
		files:         repository.NewFileRepo(db),
	}
}

// app holds the process wide resources.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	db     *sql.DB
	rdb    *redis.Client
	texts  *i18n.Bundle
	repos  repos
	chains *workflow.Registry
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDev() || cfg.LogFormat == "console",
		Service:     "sports-booking",
	})
	texts, err := i18n.Load(cfg.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; cache and rate limit disabled", zap.String("addr", cfg.Redis.Addr))
	}
	a := &app{cfg: cfg, log: log, db: db, rdb: rdb, texts: texts, repos: newRepos(db)}
	a.chains = workflow.NewRegistry(a.repos.statuses)
	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = a.db.Close()
	_ = a.log.Sync()
}

func (a *app) dispatcher() *notify.Dispatcher {
	m := mailer.New(a.cfg.Mail.SendGridAPIKey, a.cfg.Mail.From, a.cfg.Mail.FromName, a.log)
	return notify.NewDispatcher(a.repos.notifications, a.repos.users, a.texts, m, a.log)
}

// publisher sends events to RabbitMQ when configured and delivers them in
// process otherwise.
func (a *app) publisher() queue.Publisher {
	if a.cfg.Queue.URL != "" {
		return queue.NewAMQPPublisher(a.cfg.Queue.URL, a.cfg.Queue.Queue, a.log)
	}
	return queue.NewInlinePublisher(a.dispatcher(), a.log)
}

func (a *app) consumer() *queue.Consumer {
	return queue.NewConsumer(a.cfg.Queue.URL, a.cfg.Queue.Queue, a.cfg.Queue.Prefetch, a.dispatcher(), a.log)
}

func (a *app) storage(ctx context.Context) (storage.Storage, error) {
	sc := a.cfg.Storage
	if sc.Driver == "gcs" {
		return storage.NewGCS(ctx, sc.GCSBucket, sc.GCSCredFile, sc.PublicBaseURL)
	}
	return storage.NewLocal(sc.LocalRoot, sc.PublicBaseURL)
}

// gateways registers Stripe first when a key is configured, so it becomes
// the default; the manual gateway is always available.
func (a *app) gateways() *payment.Registry {
	if key := a.cfg.Payment.StripeSecretKey; key != "" {
		return payment.NewRegistry(payment.NewStripe(key, nil), payment.NewManual())
	}
	return payment.NewRegistry(payment.NewManual())
}

func (a *app) ticketingAPI() ticketing.API {
	tc := a.cfg.Ticketing
	if !tc.Enabled() {
		return nil
	}
	origin := ticketing.NewClient(tc.BaseURL, tc.APIKey, tc.Timeout)
	return ticketing.NewCachedClient(origin, a.rdb, tc.EventsTTL, tc.AvailabilityTTL, a.log)
}

func (a *app) handlers(ctx context.Context, pub queue.Publisher) (router.Handlers, *usecase.TenantUsecase, error) {
	r := a.repos
	cfg := a.cfg
	store, err := a.storage(ctx)
	if err != nil {
		return router.Handlers{}, nil, fmt.Errorf("storage: %w", err)
	}
	base := usecase.Base{Tx: database.NewTransactor(a.db), Chains: a.chains, Events: pub, Log: a.log}

	tenants := &usecase.TenantUsecase{Base: base, Tenants: r.tenants, Users: r.users, BcryptCost: cfg.BcryptCost,
		DefaultLocale: cfg.DefaultLocale, DefaultCurrency: cfg.Payment.Currency}
	auth := &usecase.AuthUsecase{Base: base, Users: r.users, Tokens: r.tokens, Tenants: r.tenants, Secret: cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
		BcryptCost: cfg.BcryptCost}
	users := &usecase.UserUsecase{Base: base, Users: r.users, Tokens: r.tokens, BcryptCost: cfg.BcryptCost}
	academies := &usecase.AcademyUsecase{Base: base, Academies: r.academies, Classes: r.classes, Files: r.files}
	enrollments := &usecase.EnrollmentUsecase{Base: base, Enrollments: r.enrollments, Classes: r.classes,
		Payments: r.payments}
	fields := &usecase.FieldUsecase{Base: base, Fields: r.fields, Bookings: r.bookings, Payments: r.payments}
	products := &usecase.ProductUsecase{Base: base, Products: r.products, Files: r.files}
	orders := &usecase.OrderUsecase{Base: base, Orders: r.orders, Items: r.orderItems, Products: r.products,
		Payments: r.payments, Currency: cfg.Payment.Currency}
	payments := &usecase.PaymentUsecase{Base: base, Payments: r.payments, Gateways: a.gateways(), Orders: orders,
		Fields: fields, Enrollments: enrollments, Users: r.users, Currency: cfg.Payment.Currency}
	files := &usecase.FileUsecase{Base: base, Files: r.files, Storage: store, Tenants: r.tenants,
		MaxSize: cfg.Storage.MaxUploadSize, AllowedTypes: cfg.Storage.AllowedTypes}
	tickets := &usecase.TicketingUsecase{Base: base, API: a.ticketingAPI(), Purchases: r.purchases,
		Tenants: r.tenants, Users: r.users}

	h := router.Handlers{
		Health:        &handler.HealthHandler{DB: a.db, Redis: a.rdb},
		Auth:          &handler.AuthHandler{Auth: auth, Users: users},
		Tenants:       &handler.TenantHandler{UC: tenants},
		Users:         &handler.UserHandler{UC: users},
		Academies:     &handler.AcademyHandler{UC: academies, Enrollments: enrollments},
		Fields:        &handler.FieldHandler{UC: fields},
		Shop:          &handler.ShopHandler{Products: products, Orders: orders},
		Payments:      &handler.PaymentHandler{UC: payments},
		Notifications: &handler.NotificationHandler{UC: &usecase.NotificationUsecase{Notifications: r.notifications}},
		Files:         &handler.FileHandler{UC: files},
		Ticketing:     &handler.TicketingHandler{UC: tickets},
		Statuses:      &handler.StatusHandler{UC: &usecase.StatusUsecase{Registry: a.chains}},
	}
	return h, tenants, nil
}

func runMigrate(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	return database.Migrate(ctx, a.db, a.log)
}

func runServe(ctx context.Context, migrate, consume bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if migrate {
		if err := database.Migrate(ctx, a.db, a.log); err != nil {
			return err
		}
	}
	if err := a.chains.Reload(ctx); err != nil {
		return fmt.Errorf("load status chains: %w", err)
	}

	pub := a.publisher()
	if p, ok := pub.(*queue.AMQPPublisher); ok {
		defer p.Close()
	}
	h, tenants, err := a.handlers(ctx, pub)
	if err != nil {
		return err
	}
	// Uploads plus one MiB of multipart overhead.
	bodyLimit := strconv.FormatInt(a.cfg.Storage.MaxUploadSize+1<<20, 10) + "B"
	e := router.New(h, router.Deps{
		JWTSecret:   a.cfg.JWTSecret,
		PlatformKey: a.cfg.PlatformAPIKey,
		BodyLimit:   bodyLimit,
		Tenants:     tenants,
		Locales:     a.texts,
		Errors:      &handler.ErrorHandler{Bundle: a.texts, Log: a.log},
		Redis:       a.rdb,
		RateLimit:   a.cfg.RateLimit,
		Cache:       a.cfg.Cache,
		Log:         a.log,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + a.cfg.Port
		a.log.Info("listening", zap.String("addr", addr), zap.String("env", a.cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if consume && a.cfg.Queue.URL != "" {
		g.Go(func() error { return a.consumer().Run(ctx) })
	}
	return g.Wait()
}

func runWorker(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	if a.cfg.Queue.URL == "" {
		return errors.New("worker needs RABBITMQ_URL")
	}
	a.log.Info("worker started", zap.String("queue", a.cfg.Queue.Queue))
	return a.consumer().Run(ctx)
}
