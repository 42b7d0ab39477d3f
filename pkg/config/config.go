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
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Checkout     CheckoutConfig
	Notification NotificationConfig
	GCP          GCPConfig
	Auth         AuthConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Notification.validate(cfg.GCP); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FABGUARD_APP_ENV" required:"true"`
	Port         string `envconfig:"FABGUARD_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FABGUARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FABGUARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FABGUARD_DB_DSN"`
	Driver string `envconfig:"FABGUARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FABGUARD_DB_HOST"`
	LegacyPort     int    `envconfig:"FABGUARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FABGUARD_DB_USER"`
	LegacyPassword string `envconfig:"FABGUARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"FABGUARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"FABGUARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FABGUARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FABGUARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FABGUARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FABGUARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FABGUARD_REDIS_URL"`
	Address      string        `envconfig:"FABGUARD_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"FABGUARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"FABGUARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FABGUARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FABGUARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FABGUARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FABGUARD_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"FABGUARD_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type SessionConfig struct {
	TTL           time.Duration `envconfig:"FABGUARD_SESSION_TTL" default:"24h"`
	SweepInterval time.Duration `envconfig:"FABGUARD_SESSION_SWEEP_INTERVAL" default:"5m"`
}

type CheckoutConfig struct {
	RequireItemSelection bool          `envconfig:"FABGUARD_CHECKOUT_REQUIRE_ITEM_SELECTION" default:"false"`
	SubmitTimeout        time.Duration `envconfig:"FABGUARD_CHECKOUT_SUBMIT_TIMEOUT" default:"15s"`
	OrderIDPrefix        string        `envconfig:"FABGUARD_CHECKOUT_ORDER_ID_PREFIX" default:"ORDER"`
	FeedbackURL          string        `envconfig:"FABGUARD_CHECKOUT_FEEDBACK_URL" default:"https://g.page/r/CZZUXPjcrajXEBM/review"`
	CatalogCacheTTL      time.Duration `envconfig:"FABGUARD_CATALOG_CACHE_TTL" default:"5m"`
}

type NotificationConfig struct {
	AdminWhatsAppNumber string `envconfig:"FABGUARD_NOTIFY_ADMIN_WHATSAPP" default:"917262927177"`
	PubSubEnabled       bool   `envconfig:"FABGUARD_NOTIFY_PUBSUB_ENABLED" default:"false"`
	OrdersTopic         string `envconfig:"FABGUARD_PUBSUB_ORDERS_TOPIC" default:"fg-order-events"`

	EmailEnabled    bool     `envconfig:"FABGUARD_NOTIFY_EMAIL_ENABLED" default:"false"`
	EmailTopic      string   `envconfig:"FABGUARD_PUBSUB_EMAIL_TOPIC" default:"fg-email-requests"`
	EmailFrom       string   `envconfig:"FABGUARD_NOTIFY_EMAIL_FROM" default:"Fabguard Services <support@fabguard.co.in>"`
	EmailReplyTo    string   `envconfig:"FABGUARD_NOTIFY_EMAIL_REPLY_TO" default:"support@fabguard.co.in"`
	AdminEmails     []string `envconfig:"FABGUARD_NOTIFY_ADMIN_EMAILS" default:"info@fabguard.co.in,fabguard.in@gmail.com,support@fabguard.co.in"`
}

// QueuesToOutbox reports whether any channel writes to the outbox table.
func (n NotificationConfig) QueuesToOutbox() bool {
	return n.PubSubEnabled || n.EmailEnabled
}

// Topics lists the Pub/Sub topics the enabled channels publish to.
func (n NotificationConfig) Topics() []string {
	var topics []string
	if n.PubSubEnabled {
		topics = append(topics, n.OrdersTopic)
	}
	if n.EmailEnabled {
		topics = append(topics, n.EmailTopic)
	}
	return topics
}

func (n NotificationConfig) validate(gcp GCPConfig) error {
	if strings.TrimSpace(n.AdminWhatsAppNumber) == "" {
		return fmt.Errorf("%s is required", EnvAdminWhatsApp)
	}
	if n.PubSubEnabled && strings.TrimSpace(gcp.ProjectID) == "" {
		return fmt.Errorf("%s is required when %s is set", EnvGCPProjectID, EnvPubSubEnabled)
	}
	if n.EmailEnabled {
		if strings.TrimSpace(gcp.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s is set", EnvGCPProjectID, EnvEmailEnabled)
		}
		if strings.TrimSpace(n.EmailTopic) == "" {
			return fmt.Errorf("%s is required when %s is set", EnvPubSubEmail, EnvEmailEnabled)
		}
		if len(n.AdminEmails) == 0 {
			return fmt.Errorf("%s is required when %s is set", EnvAdminEmails, EnvEmailEnabled)
		}
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FABGUARD_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FABGUARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FABGUARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

// AuthConfig describes the external identity provider whose access tokens the API accepts.
type AuthConfig struct {
	JWTSecret string `envconfig:"FABGUARD_AUTH_JWT_SECRET"`
	JWTIssuer string `envconfig:"FABGUARD_AUTH_JWT_ISSUER"`
}

// Enabled reports whether token verification is configured.
func (a AuthConfig) Enabled() bool {
	return strings.TrimSpace(a.JWTSecret) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"FABGUARD_CORS_ALLOWED_ORIGINS"`
}

// RateLimitConfig throttles the public lead forms by client IP and submitted email.
type RateLimitConfig struct {
	Window         time.Duration `envconfig:"FABGUARD_RATE_LIMIT_WINDOW" default:"10m"`
	FormIPLimit    int           `envconfig:"FABGUARD_RATE_LIMIT_FORM_IP" default:"5"`
	FormEmailLimit int           `envconfig:"FABGUARD_RATE_LIMIT_FORM_EMAIL" default:"3"`
}

// OutboxConfig tunes the publisher that drains queued order events to Pub/Sub.
type OutboxConfig struct {
	BatchSize    int           `envconfig:"FABGUARD_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"FABGUARD_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"FABGUARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig schedules the maintenance worker.
type CronConfig struct {
	Interval            time.Duration `envconfig:"FABGUARD_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"FABGUARD_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	JobTimeout          time.Duration `envconfig:"FABGUARD_CRON_JOB_TIMEOUT" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FABGUARD_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:fabguard.db?cache=shared&_foreign_keys=on"
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
