package config

import "time"

// QueueConfig points at the RabbitMQ broker used for domain events.  An
// empty URL makes the server deliver events in-process.
type QueueConfig struct {
	URL      string
	Queue    string
	Prefetch int
}

func LoadQueueConfig() QueueConfig {
	url := envStr("RABBITMQ_URL", envStr("AMQP_URL", ""))
	return QueueConfig{
		URL:      url,
		Queue:    envStr("NOTIFY_QUEUE", "notifications"),
		Prefetch: envInt("NOTIFY_PREFETCH", 50),
	}
}

// StorageConfig selects the file storage backend.
type StorageConfig struct {
	Driver        string // local | gcs
	LocalRoot     string
	PublicBaseURL string
	GCSBucket     string
	GCSCredFile   string // service account JSON; empty uses application default credentials
	MaxUploadSize int64
	AllowedTypes  []string
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:        envStr("STORAGE_DRIVER", "local"),
		LocalRoot:     envStr("STORAGE_LOCAL_ROOT", "uploads"),
		PublicBaseURL: envStr("STORAGE_PUBLIC_BASE_URL", ""),
		GCSBucket:     envStr("GCS_BUCKET", ""),
		GCSCredFile:   envStr("GCS_CREDENTIALS_FILE", ""),
		MaxUploadSize: envInt64("UPLOAD_MAX_BYTES", 5<<20),
		AllowedTypes:  envList("UPLOAD_ALLOWED_TYPES", "image/jpeg,image/png,image/webp,application/pdf"),
	}
}

// MailConfig configures outgoing email.  Without an API key mails are
// written to the log instead of being sent.
type MailConfig struct {
	SendGridAPIKey string
	From           string
	FromName       string
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		SendGridAPIKey: envStr("SENDGRID_API_KEY", ""),
		From:           envStr("MAIL_FROM", "no-reply@example.com"),
		FromName:       envStr("MAIL_FROM_NAME", "Bookings"),
	}
}

// PaymentConfig selects the payment gateway.  Stripe is used when a secret
// key is present, the manual gateway otherwise.
type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
}

func LoadPaymentConfig() PaymentConfig {
	return PaymentConfig{
		StripeSecretKey: envStr("STRIPE_SECRET_KEY", ""),
		Currency:        envStr("PAYMENT_CURRENCY", "USD"),
	}
}

// TicketingConfig describes the external ticketing provider and how long
// its responses are cached.
type TicketingConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	EventsTTL       time.Duration
	AvailabilityTTL time.Duration
}

// Enabled reports whether the integration is configured.
func (t TicketingConfig) Enabled() bool { return t.BaseURL != "" }

func LoadTicketingConfig() TicketingConfig {
	return TicketingConfig{
		BaseURL:         envStr("TICKETING_BASE_URL", ""),
		APIKey:          envStr("TICKETING_API_KEY", ""),
		Timeout:         envDur("TICKETING_TIMEOUT", 10*time.Second),
		EventsTTL:       envDur("TICKETING_EVENTS_TTL", 5*time.Minute),
		AvailabilityTTL: envDur("TICKETING_AVAILABILITY_TTL", 15*time.Second),
	}
}
