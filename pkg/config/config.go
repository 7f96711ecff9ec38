package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Booking      BookingConfig
	Sweeper      SweeperConfig
	Paystack     PaystackConfig
	Cache        CacheConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Booking.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ARTISANPRO_APP_ENV" required:"true"`
	Port         string `envconfig:"ARTISANPRO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ARTISANPRO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARTISANPRO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ARTISANPRO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ARTISANPRO_DB_DSN"`
	Driver string `envconfig:"ARTISANPRO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ARTISANPRO_DB_HOST"`
	LegacyPort     int    `envconfig:"ARTISANPRO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ARTISANPRO_DB_USER"`
	LegacyPassword string `envconfig:"ARTISANPRO_DB_PASSWORD"`
	LegacyName     string `envconfig:"ARTISANPRO_DB_NAME"`
	LegacySSLMode  string `envconfig:"ARTISANPRO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ARTISANPRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ARTISANPRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ARTISANPRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARTISANPRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ARTISANPRO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ARTISANPRO_REDIS_ADDR"`
	Password     string        `envconfig:"ARTISANPRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARTISANPRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARTISANPRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARTISANPRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARTISANPRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARTISANPRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARTISANPRO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string        `envconfig:"ARTISANPRO_JWT_SECRET" required:"true"`
	Issuer string        `envconfig:"ARTISANPRO_JWT_ISSUER" required:"true"`
	TTL    time.Duration `envconfig:"ARTISANPRO_JWT_TTL" default:"1h"`
}

// BookingConfig holds the commercial and timing rules of the booking lifecycle.
type BookingConfig struct {
	AcceptTimeout          time.Duration `envconfig:"ARTISANPRO_BOOKING_ACCEPT_TIMEOUT" default:"2m"`
	NegotiationMaxRounds   int           `envconfig:"ARTISANPRO_NEGOTIATION_MAX_ROUNDS" default:"3"`
	NegotiationTTL         time.Duration `envconfig:"ARTISANPRO_NEGOTIATION_TTL" default:"24h"`
	EscrowAutoReleaseAfter time.Duration `envconfig:"ARTISANPRO_ESCROW_AUTO_RELEASE_AFTER" default:"48h"`
	PlatformFeePercent     string        `envconfig:"ARTISANPRO_PLATFORM_FEE_PERCENT" default:"5"`
	Currency               string        `envconfig:"ARTISANPRO_BOOKING_CURRENCY" default:"NGN"`
}

func (b BookingConfig) validate() error {
	if b.AcceptTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvBookingAcceptTimeout)
	}
	if b.NegotiationMaxRounds <= 0 {
		return fmt.Errorf("%s must be positive", EnvNegotiationMaxRounds)
	}
	if b.EscrowAutoReleaseAfter <= 0 {
		return fmt.Errorf("%s must be positive", EnvEscrowAutoRelease)
	}
	return nil
}

type SweeperConfig struct {
	Tick                    time.Duration `envconfig:"ARTISANPRO_SWEEPER_TICK" default:"30s"`
	BookingExpiryInterval   time.Duration `envconfig:"ARTISANPRO_SWEEPER_BOOKING_EXPIRY_INTERVAL" default:"1m"`
	AutoReleaseInterval     time.Duration `envconfig:"ARTISANPRO_SWEEPER_AUTO_RELEASE_INTERVAL" default:"1h"`
	PayoutInterval          time.Duration `envconfig:"ARTISANPRO_SWEEPER_PAYOUT_INTERVAL" default:"15m"`
	PaymentReverifyInterval time.Duration `envconfig:"ARTISANPRO_SWEEPER_PAYMENT_REVERIFY_INTERVAL" default:"10m"`
	PaymentReverifyAge      time.Duration `envconfig:"ARTISANPRO_SWEEPER_PAYMENT_REVERIFY_AGE" default:"15m"`
	RetentionInterval       time.Duration `envconfig:"ARTISANPRO_SWEEPER_RETENTION_INTERVAL" default:"24h"`
	ReminderInterval        time.Duration `envconfig:"ARTISANPRO_SWEEPER_REMINDER_INTERVAL" default:"15m"`
	BatchSize               int           `envconfig:"ARTISANPRO_SWEEPER_BATCH_SIZE" default:"100"`
}

type PaystackConfig struct {
	SecretKey      string        `envconfig:"ARTISANPRO_PAYSTACK_SECRET_KEY"`
	BaseURL        string        `envconfig:"ARTISANPRO_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL    string        `envconfig:"ARTISANPRO_PAYSTACK_CALLBACK_URL"`
	RequestTimeout time.Duration `envconfig:"ARTISANPRO_PAYSTACK_REQUEST_TIMEOUT" default:"10s"`
	WebhookTTL     time.Duration `envconfig:"ARTISANPRO_PAYSTACK_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type CacheConfig struct {
	BookingTTL      time.Duration `envconfig:"ARTISANPRO_CACHE_BOOKING_TTL" default:"30s"`
	ArtisanStatsTTL time.Duration `envconfig:"ARTISANPRO_CACHE_ARTISAN_STATS_TTL" default:"5m"`
}

type RateLimitConfig struct {
	BookingWindow     time.Duration `envconfig:"ARTISANPRO_RATE_LIMIT_BOOKING_WINDOW" default:"1m"`
	BookingActorLimit int           `envconfig:"ARTISANPRO_RATE_LIMIT_BOOKING_ACTOR_LIMIT" default:"10"`
	BookingIPLimit    int           `envconfig:"ARTISANPRO_RATE_LIMIT_BOOKING_IP_LIMIT" default:"30"`
	WebhookWindow     time.Duration `envconfig:"ARTISANPRO_RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	WebhookIPLimit    int           `envconfig:"ARTISANPRO_RATE_LIMIT_WEBHOOK_IP_LIMIT" default:"300"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ARTISANPRO_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"ARTISANPRO_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	OutboxRetention      time.Duration `envconfig:"ARTISANPRO_EVENTING_OUTBOX_RETENTION" default:"720h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"ARTISANPRO_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"ARTISANPRO_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	BookingTopic             string `envconfig:"ARTISANPRO_PUBSUB_BOOKING_TOPIC" default:"ap-booking-events"`
	NotificationSubscription string `envconfig:"ARTISANPRO_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"ap-booking-notifications"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ARTISANPRO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ARTISANPRO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ARTISANPRO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
