package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Catalog       CatalogConfig
	Identity      IdentityConfig
	AuthStore     AuthStoreConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Checkout      CheckoutConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STYLINX_APP_ENV" default:"dev"`
	Port         string `envconfig:"STYLINX_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STYLINX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STYLINX_LOG_WARN_STACK" default:"false"`

	// CORSOrigins lists the render shells allowed to call the local API.
	CORSOrigins []string `envconfig:"STYLINX_CORS_ORIGINS" default:"http://localhost:8081,http://localhost:19006"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type CatalogConfig struct {
	BaseURL string        `envconfig:"STYLINX_CATALOG_BASE_URL" default:"https://api.escuelajs.co/api/v1"`
	Timeout time.Duration `envconfig:"STYLINX_CATALOG_TIMEOUT" default:"10s"`
	// Sequenced discards responses that are superseded by a later request for the same slot.
	// Disabling it restores last-to-complete-wins.
	Sequenced bool `envconfig:"STYLINX_CATALOG_SEQUENCED" default:"true"`
}

type IdentityConfig struct {
	Provider       string        `envconfig:"STYLINX_IDENTITY_PROVIDER" default:"firebase"`
	FirebaseAPIKey string        `envconfig:"STYLINX_FIREBASE_API_KEY"`
	FirebaseURL    string        `envconfig:"STYLINX_FIREBASE_URL" default:"https://identitytoolkit.googleapis.com/v1"`
	Timeout        time.Duration `envconfig:"STYLINX_IDENTITY_TIMEOUT" default:"10s"`
}

// IsLocal reports whether the gorm-backed identity provider is selected.
func (i IdentityConfig) IsLocal() bool {
	return strings.EqualFold(strings.TrimSpace(i.Provider), IdentityProviderLocal)
}

type AuthStoreConfig struct {
	Backend string `envconfig:"STYLINX_AUTH_STORE" default:"none"`
	Key     string `envconfig:"STYLINX_AUTH_STORE_KEY" default:"@stylinx_auth"`
}

// Normalized returns the lower-cased backend name.
func (a AuthStoreConfig) Normalized() string {
	return strings.ToLower(strings.TrimSpace(a.Backend))
}

type DBConfig struct {
	Driver string `envconfig:"STYLINX_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"STYLINX_DB_DSN" default:"file:stylinx.db?_foreign_keys=on"`

	MaxOpenConns    int           `envconfig:"STYLINX_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"STYLINX_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"STYLINX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STYLINX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STYLINX_REDIS_URL"`
	Address      string        `envconfig:"STYLINX_REDIS_ADDR"`
	Password     string        `envconfig:"STYLINX_REDIS_PASSWORD"`
	DB           int           `envconfig:"STYLINX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STYLINX_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STYLINX_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STYLINX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STYLINX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STYLINX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STYLINX_JWT_SECRET"`
	Issuer            string `envconfig:"STYLINX_JWT_ISSUER" default:"stylinx-local"`
	ExpirationMinutes int    `envconfig:"STYLINX_JWT_EXPIRATION_MINUTES" default:"60"`
}

// TTL returns the ID token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STYLINX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STYLINX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STYLINX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STYLINX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STYLINX_ARGON_KEY_LEN" default:"32"`
}

type CheckoutConfig struct {
	FastShippingCost decimal.Decimal `envconfig:"STYLINX_FAST_SHIPPING_COST" default:"10"`
}

// AuthRateLimitConfig throttles login and signup attempts. It only applies when redis is
// configured.
type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"STYLINX_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit     int           `envconfig:"STYLINX_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit  int           `envconfig:"STYLINX_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
	SignupWindow     time.Duration `envconfig:"STYLINX_SIGNUP_RATE_WINDOW" default:"10m"`
	SignupIPLimit    int           `envconfig:"STYLINX_SIGNUP_RATE_IP_LIMIT" default:"10"`
	SignupEmailLimit int           `envconfig:"STYLINX_SIGNUP_RATE_EMAIL_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"STYLINX_AUTO_MIGRATE" default:"true"`
}

// NeedsDB reports whether any configured component requires the SQL database.
func (c *Config) NeedsDB() bool {
	return c.Identity.IsLocal() || c.AuthStore.Normalized() == AuthStoreSQL
}

// NeedsRedis reports whether any configured component requires redis.
func (c *Config) NeedsRedis() bool {
	return c.AuthStore.Normalized() == AuthStoreRedis
}

// RedisConfigured reports whether a redis endpoint is set, which also enables auth rate
// limiting.
func (c *Config) RedisConfigured() bool {
	return strings.TrimSpace(c.Redis.URL) != "" || strings.TrimSpace(c.Redis.Address) != ""
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Identity.Provider)) {
	case IdentityProviderFirebase:
		if strings.TrimSpace(c.Identity.FirebaseAPIKey) == "" {
			return fmt.Errorf("%s is required for the firebase identity provider", EnvFirebaseAPIKey)
		}
	case IdentityProviderLocal:
		if strings.TrimSpace(c.JWT.Secret) == "" {
			return fmt.Errorf("%s is required for the local identity provider", EnvJWTSecret)
		}
	default:
		return fmt.Errorf("unknown identity provider %q", c.Identity.Provider)
	}

	switch c.AuthStore.Normalized() {
	case AuthStoreNone, AuthStoreSQL:
	case AuthStoreRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis auth store", EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unknown auth store backend %q", c.AuthStore.Backend)
	}
	if strings.TrimSpace(c.AuthStore.Key) == "" {
		return fmt.Errorf("%s must not be empty", EnvAuthStoreKey)
	}

	if c.NeedsDB() {
		switch strings.ToLower(c.DB.Driver) {
		case DBDriverSQLite, DBDriverPostgres:
		default:
			return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
		}
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required", EnvDBDSN)
		}
	}

	if c.Checkout.FastShippingCost.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvFastShippingCost)
	}
	return nil
}
