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
	JWT          JWTConfig
	Shipping     ShippingConfig
	Shopify      ShopifyConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string   `envconfig:"STOCKROOM_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOCKROOM_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"STOCKROOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOCKROOM_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"STOCKROOM_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKROOM_DB_DSN"`
	Driver string `envconfig:"STOCKROOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKROOM_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKROOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKROOM_DB_USER"`
	LegacyPassword string `envconfig:"STOCKROOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKROOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKROOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKROOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKROOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKROOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKROOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKROOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKROOM_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKROOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKROOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKROOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKROOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKROOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKROOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKROOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKROOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKROOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOCKROOM_JWT_EXPIRATION_MINUTES" required:"true"`
}

// RateLimitConfig throttles mutating cart and order endpoints.
type RateLimitConfig struct {
	WriteWindow       time.Duration `envconfig:"STOCKROOM_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteIPLimit      int           `envconfig:"STOCKROOM_RATE_LIMIT_WRITE_IP_LIMIT" default:"120"`
	WriteAccountLimit int           `envconfig:"STOCKROOM_RATE_LIMIT_WRITE_ACCOUNT_LIMIT" default:"60"`
}

// ShippingConfig tunes the shipment planner.
type ShippingConfig struct {
	// DefaultWindowDays sets the length of the proposed ship window for items
	// that carry no collection constraint.
	DefaultWindowDays int `envconfig:"STOCKROOM_SHIPPING_DEFAULT_WINDOW_DAYS" default:"14"`
}

type ShopifyConfig struct {
	ShopDomain  string        `envconfig:"STOCKROOM_SHOPIFY_SHOP_DOMAIN"`
	AccessToken string        `envconfig:"STOCKROOM_SHOPIFY_ACCESS_TOKEN"`
	APIVersion  string        `envconfig:"STOCKROOM_SHOPIFY_API_VERSION" default:"2024-10"`
	HTTPTimeout time.Duration `envconfig:"STOCKROOM_SHOPIFY_HTTP_TIMEOUT" default:"30s"`
	PageSize    int           `envconfig:"STOCKROOM_SHOPIFY_PAGE_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKROOM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKROOM_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOCKROOM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOCKROOM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOCKROOM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"STOCKROOM_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"STOCKROOM_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOCKROOM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOCKROOM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOCKROOM_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
