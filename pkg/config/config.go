package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VAANIJYA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VAANIJYA_DB_DSN"
	EnvDBHost = "VAANIJYA_DB_HOST"
	EnvDBUser = "VAANIJYA_DB_USER"
	EnvDBName = "VAANIJYA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
	Checkout     CheckoutConfig
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
	Env          string `envconfig:"VAANIJYA_APP_ENV" required:"true"`
	Port         string `envconfig:"VAANIJYA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VAANIJYA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VAANIJYA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"VAANIJYA_DB_DSN"`

	LegacyHost     string `envconfig:"VAANIJYA_DB_HOST"`
	LegacyPort     int    `envconfig:"VAANIJYA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VAANIJYA_DB_USER"`
	LegacyPassword string `envconfig:"VAANIJYA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VAANIJYA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VAANIJYA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VAANIJYA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VAANIJYA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VAANIJYA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VAANIJYA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VAANIJYA_REDIS_URL"`
	Address      string        `envconfig:"VAANIJYA_REDIS_ADDR"`
	Password     string        `envconfig:"VAANIJYA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VAANIJYA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VAANIJYA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VAANIJYA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VAANIJYA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VAANIJYA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VAANIJYA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VAANIJYA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VAANIJYA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VAANIJYA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type RazorpayConfig struct {
	KeyID         string        `envconfig:"VAANIJYA_RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"VAANIJYA_RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"VAANIJYA_RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"VAANIJYA_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	Timeout       time.Duration `envconfig:"VAANIJYA_RAZORPAY_TIMEOUT" default:"10s"`
}

// EffectiveWebhookSecret falls back to the key secret when no dedicated
// webhook secret is configured, matching the gateway dashboard default.
func (r RazorpayConfig) EffectiveWebhookSecret() string {
	if s := strings.TrimSpace(r.WebhookSecret); s != "" {
		return s
	}
	return strings.TrimSpace(r.KeySecret)
}

type CheckoutConfig struct {
	Currency               string `envconfig:"VAANIJYA_CHECKOUT_CURRENCY" default:"INR"`
	B2BMinOrderPaise       int64  `envconfig:"VAANIJYA_CHECKOUT_B2B_MIN_ORDER_PAISE" default:"200000"`
	SubscriptionPricePaise int64  `envconfig:"VAANIJYA_SUBSCRIPTION_PRICE_PAISE" default:"499900"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VAANIJYA_AUTO_MIGRATE" default:"false"`
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
