package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "quotehub"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Lock         LockConfig
	Processing   ProcessingConfig
	DocEngine    DocEngineConfig
	Storage      StorageConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QUOTEHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"QUOTEHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUOTEHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUOTEHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"QUOTEHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"QUOTEHUB_DB_DSN"`
	Driver string `envconfig:"QUOTEHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUOTEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"QUOTEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUOTEHUB_DB_USER"`
	LegacyPassword string `envconfig:"QUOTEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUOTEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUOTEHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUOTEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUOTEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUOTEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUOTEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either QUOTEHUB_DB_DSN or QUOTEHUB_DB_HOST/USER/NAME must be set")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.LegacyUser),
		url.QueryEscape(d.LegacyPassword),
		d.LegacyHost,
		d.LegacyPort,
		d.LegacyName,
		d.LegacySSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"QUOTEHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QUOTEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"QUOTEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUOTEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUOTEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUOTEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUOTEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUOTEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUOTEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"QUOTEHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"QUOTEHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"QUOTEHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

// LockConfig holds the distributed lock acquisition budgets applied to
// quote and quote-file mutations.
type LockConfig struct {
	WaitTimeout time.Duration `envconfig:"QUOTEHUB_LOCK_WAIT_TIMEOUT" default:"10s"`
	TTL         time.Duration `envconfig:"QUOTEHUB_LOCK_TTL" default:"30s"`
	PollEvery   time.Duration `envconfig:"QUOTEHUB_LOCK_POLL_EVERY" default:"100ms"`
}

type ProcessingConfig struct {
	RowChunkSize   int           `envconfig:"QUOTEHUB_PROCESSING_ROW_CHUNK_SIZE" default:"100"`
	WorkerPollMs   int           `envconfig:"QUOTEHUB_PROCESSING_WORKER_POLL_MS" default:"1000"`
	WorkerDeadline time.Duration `envconfig:"QUOTEHUB_PROCESSING_WORKER_DEADLINE" default:"5m"`
}

type DocEngineConfig struct {
	BaseURL     string        `envconfig:"QUOTEHUB_DOC_ENGINE_URL"`
	APIKey      string        `envconfig:"QUOTEHUB_DOC_ENGINE_API_KEY"`
	HTTPTimeout time.Duration `envconfig:"QUOTEHUB_DOC_ENGINE_TIMEOUT" default:"30s"`
	Enabled     bool          `envconfig:"QUOTEHUB_DOC_ENGINE_ENABLED" default:"false"`
}

type StorageConfig struct {
	RootDir string `envconfig:"QUOTEHUB_STORAGE_ROOT" default:"./storage"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"QUOTEHUB_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ActivityTopic        string `envconfig:"QUOTEHUB_PUBSUB_ACTIVITY_TOPIC" default:"quotehub-activity"`
	ActivitySubscription string `envconfig:"QUOTEHUB_PUBSUB_ACTIVITY_SUBSCRIPTION" default:"quotehub-activity-sub"`
}

type OutboxConfig struct {
	BatchSize   int `envconfig:"QUOTEHUB_OUTBOX_BATCH_SIZE" default:"50"`
	PollMs      int `envconfig:"QUOTEHUB_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts int `envconfig:"QUOTEHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetainDays  int `envconfig:"QUOTEHUB_OUTBOX_RETAIN_DAYS" default:"14"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"QUOTEHUB_FF_AUTO_MIGRATE" default:"false"`
}
