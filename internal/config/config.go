// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	IdentityProviderFirebase = "firebase"
	IdentityProviderLocal    = "local"

	localIssuer   = "lifelessons-local"
	localAudience = "lifelessons-api"
)

type Config struct {
	App      AppConfig      `koanf:"app"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Identity IdentityConfig `koanf:"identity"`
	Payment  PaymentConfig  `koanf:"payment"`
	CORS     CORSConfig     `koanf:"cors"`
	Log      LogConfig      `koanf:"log"`
	Otel     OtelConfig     `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// IdentityConfig selects how bearer identity tokens are verified.
// In firebase mode tokens are checked against the provider's published
// key set; in local mode the service signs and verifies its own tokens.
type IdentityConfig struct {
	Provider       string        `koanf:"provider"`
	ProjectID      string        `koanf:"project_id"`
	JWKSURL        string        `koanf:"jwks_url"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
	KeyRefresh     time.Duration `koanf:"key_refresh"`
	PrivateKeyPath string        `koanf:"private_key_path"`
	TokenTTL       time.Duration `koanf:"token_ttl"`
}

type PaymentConfig struct {
	StripeSecretKey string        `koanf:"stripe_secret_key"`
	WebhookSecret   string        `koanf:"webhook_secret"`
	ClientURL       string        `koanf:"client_url"`
	EventTTL        time.Duration `koanf:"event_ttl"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	c.Identity.applyDerived()

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Life Lessons API",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             5000,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"identity.provider":         IdentityProviderFirebase,
		"identity.jwks_url":         "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com",
		"identity.key_refresh":      "1h",
		"identity.private_key_path": "keys/identity.pem",
		"identity.token_ttl":        "1h",

		"payment.client_url": "http://localhost:5173",
		"payment.event_ttl":  "72h",

		"cors.allowed_origins": []string{"http://localhost:5173"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "lifelessons-api",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"IDENTITY_PROVIDER":           "identity.provider",
	"FIREBASE_PROJECT_ID":         "identity.project_id",
	"IDENTITY_JWKS_URL":           "identity.jwks_url",
	"IDENTITY_ISSUER":             "identity.issuer",
	"IDENTITY_AUDIENCE":           "identity.audience",
	"IDENTITY_PRIVATE_KEY_PATH":   "identity.private_key_path",
	"IDENTITY_TOKEN_TTL":          "identity.token_ttl",
	"STRIPE_SECRET_KEY":           "payment.stripe_secret_key",
	"STRIPE_WEBHOOK_SECRET":       "payment.webhook_secret",
	"CLIENT_URL":                  "payment.client_url",
	"PAYMENT_EVENT_TTL":           "payment.event_ttl",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

// applyDerived fills the issuer and audience from the project id, which
// is how the identity provider stamps its tokens.
func (c *IdentityConfig) applyDerived() {
	if c.Provider == IdentityProviderLocal {
		if c.Issuer == "" {
			c.Issuer = localIssuer
		}
		if c.Audience == "" {
			c.Audience = localAudience
		}
		return
	}
	if c.Provider != IdentityProviderFirebase || c.ProjectID == "" {
		return
	}
	if c.Issuer == "" {
		c.Issuer = "https://securetoken.google.com/" + c.ProjectID
	}
	if c.Audience == "" {
		c.Audience = c.ProjectID
	}
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	switch c.Identity.Provider {
	case IdentityProviderFirebase:
		if c.Identity.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required")
		}
		if c.Identity.JWKSURL == "" {
			return fmt.Errorf("IDENTITY_JWKS_URL is required")
		}
	case IdentityProviderLocal:
		if c.App.Environment == "production" {
			return fmt.Errorf("local identity provider cannot be used in production")
		}
		if c.Identity.PrivateKeyPath == "" {
			return fmt.Errorf("IDENTITY_PRIVATE_KEY_PATH is required")
		}
	default:
		return fmt.Errorf("unknown identity provider %q", c.Identity.Provider)
	}

	if c.Payment.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}

	if c.Payment.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}

	if !strings.HasPrefix(c.Payment.ClientURL, "http://") &&
		!strings.HasPrefix(c.Payment.ClientURL, "https://") {
		return fmt.Errorf("CLIENT_URL must be an absolute http(s) URL")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
