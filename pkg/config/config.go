package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Dispatcher   DispatcherConfig
	Relay        RelayConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ESTATEPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"ESTATEPAY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ESTATEPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ESTATEPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ESTATEPAY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ESTATEPAY_DB_DSN"`
	Driver string `envconfig:"ESTATEPAY_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"ESTATEPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ESTATEPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ESTATEPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ESTATEPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) validate() error {
	switch db.Driver {
	case "postgres":
		if db.DSN == "" {
			return fmt.Errorf("ESTATEPAY_DB_DSN is required for the postgres driver")
		}
	case "sqlite":
		// empty DSN falls back to an in-memory database
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"ESTATEPAY_REDIS_URL"`
	Address      string        `envconfig:"ESTATEPAY_REDIS_ADDR"`
	Password     string        `envconfig:"ESTATEPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"ESTATEPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ESTATEPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ESTATEPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ESTATEPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ESTATEPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ESTATEPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ESTATEPAY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ESTATEPAY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ESTATEPAY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainEventsTopic string `envconfig:"ESTATEPAY_PUBSUB_DOMAIN_EVENTS_TOPIC" default:"ep-domain-events"`
}

// DispatcherConfig tunes the subscription worker pipelines.
type DispatcherConfig struct {
	BatchSize          int           `envconfig:"ESTATEPAY_DISPATCH_BATCH_SIZE" default:"100"`
	PollInterval       time.Duration `envconfig:"ESTATEPAY_DISPATCH_POLL_INTERVAL" default:"500ms"`
	MaxRetries         int           `envconfig:"ESTATEPAY_DISPATCH_MAX_RETRIES" default:"5"`
	RetryBaseDelay     time.Duration `envconfig:"ESTATEPAY_DISPATCH_RETRY_BASE_DELAY" default:"200ms"`
	MainConcurrency    int           `envconfig:"ESTATEPAY_DISPATCH_MAIN_CONCURRENCY" default:"8"`
	OrderedConcurrency int           `envconfig:"ESTATEPAY_DISPATCH_ORDERED_CONCURRENCY" default:"4"`
	MetricsPort        string        `envconfig:"ESTATEPAY_DISPATCH_METRICS_PORT" default:"9090"`
}

// RelayConfig tunes the committed-event relay that feeds Pub/Sub.
type RelayConfig struct {
	BatchSize    int           `envconfig:"ESTATEPAY_RELAY_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"ESTATEPAY_RELAY_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"ESTATEPAY_RELAY_MAX_ATTEMPTS" default:"10"`
	LockTTL      time.Duration `envconfig:"ESTATEPAY_RELAY_LOCK_TTL" default:"2m"`
}

type EventingConfig struct {
	HandlerIdempotencyTTL time.Duration `envconfig:"ESTATEPAY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ESTATEPAY_AUTO_MIGRATE" default:"false"`
}
