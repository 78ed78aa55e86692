// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App         AppConfig         `koanf:"app"`
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Redis       RedisConfig       `koanf:"redis"`
	Identity    IdentityConfig    `koanf:"identity"`
	Cookies     CookieConfig      `koanf:"cookies"`
	Attribution AttributionConfig `koanf:"attribution"`
	ViewAs      ViewAsConfig      `koanf:"view_as"`
	Access      AccessConfig      `koanf:"access"`
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
	CORS        CORSConfig        `koanf:"cors"`
	Log         LogConfig         `koanf:"log"`
	Otel        OtelConfig        `koanf:"otel"`
	Metrics     MetricsConfig     `koanf:"metrics"`
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
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// IdentityConfig describes how tokens issued by the identity provider are
// verified and how its loosely typed claims map onto an identity.
type IdentityConfig struct {
	PublicKeyPath  string        `koanf:"public_key_path"`
	PrivateKeyPath string        `koanf:"private_key_path"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
	DevTokenExpire time.Duration `koanf:"dev_token_expire"`
	Claims         ClaimsConfig  `koanf:"claims"`
}

// ClaimsConfig holds JMESPath expressions evaluated against the token claims.
type ClaimsConfig struct {
	Role        string `koanf:"role"`
	Permissions string `koanf:"permissions"`
	Email       string `koanf:"email"`
	FirstName   string `koanf:"first_name"`
	LastName    string `koanf:"last_name"`
}

type CookieConfig struct {
	Secure        bool   `koanf:"secure"`
	Domain        string `koanf:"domain"`
	SigningSecret string `koanf:"signing_secret"`
}

type AttributionConfig struct {
	CookieMaxAge   time.Duration `koanf:"cookie_max_age"`
	Policy         string        `koanf:"policy"`
	LandingPath    string        `koanf:"landing_path"`
	NotFoundPath   string        `koanf:"not_found_path"`
	LookupCacheTTL time.Duration `koanf:"lookup_cache_ttl"`
	RecordClicks   bool          `koanf:"record_clicks"`
}

type ViewAsConfig struct {
	MaxAge time.Duration `koanf:"max_age"`
}

type AccessConfig struct {
	SignInPath    string `koanf:"sign_in_path"`
	ForbiddenPath string `koanf:"forbidden_path"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
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

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

const (
	PolicyLastClick  = "last_click"
	PolicyFirstClick = "first_click"
)

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

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

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

	if c.IsProduction() {
		c.Cookies.Secure = true
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "taxdesk",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"identity.public_key_path":    "keys/public.pem",
		"identity.private_key_path":   "keys/private.pem",
		"identity.issuer":             "taxdesk-identity",
		"identity.audience":           "taxdesk",
		"identity.dev_token_expire":   "1h",
		"identity.claims.role":        "public_metadata.role",
		"identity.claims.permissions": "public_metadata.permissions",
		"identity.claims.email":       "email",
		"identity.claims.first_name":  "first_name",
		"identity.claims.last_name":   "last_name",

		"cookies.secure": false,

		"attribution.cookie_max_age":   "720h",
		"attribution.policy":           PolicyLastClick,
		"attribution.landing_path":     "/",
		"attribution.not_found_path":   "/not-found",
		"attribution.lookup_cache_ttl": "5m",
		"attribution.record_clicks":    true,

		"view_as.max_age": "8h",

		"access.sign_in_path":   "/auth/signin",
		"access.forbidden_path": "/forbidden",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
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
		"otel.service_name": "taxdesk",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",
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
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"IDENTITY_PUBLIC_KEY_PATH":    "identity.public_key_path",
	"IDENTITY_PRIVATE_KEY_PATH":   "identity.private_key_path",
	"IDENTITY_ISSUER":             "identity.issuer",
	"IDENTITY_AUDIENCE":           "identity.audience",
	"IDENTITY_ROLE_CLAIM":         "identity.claims.role",
	"IDENTITY_PERMISSIONS_CLAIM":  "identity.claims.permissions",
	"COOKIE_SECURE":               "cookies.secure",
	"COOKIE_DOMAIN":               "cookies.domain",
	"COOKIE_SIGNING_SECRET":       "cookies.signing_secret",
	"ATTRIBUTION_COOKIE_MAX_AGE":  "attribution.cookie_max_age",
	"ATTRIBUTION_POLICY":          "attribution.policy",
	"ATTRIBUTION_LANDING_PATH":    "attribution.landing_path",
	"ATTRIBUTION_CACHE_TTL":       "attribution.lookup_cache_ttl",
	"ATTRIBUTION_RECORD_CLICKS":   "attribution.record_clicks",
	"VIEW_AS_MAX_AGE":             "view_as.max_age",
	"ACCESS_SIGN_IN_PATH":         "access.sign_in_path",
	"ACCESS_FORBIDDEN_PATH":       "access.forbidden_path",
	"RATE_LIMIT_REQUESTS":         "rate_limit.requests",
	"RATE_LIMIT_WINDOW":           "rate_limit.window",
	"RATE_LIMIT_BURST":            "rate_limit.burst",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
	"METRICS_ENABLED":             "metrics.enabled",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

//nolint:gocyclo // flat list of independent checks
func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Identity.PublicKeyPath == "" {
		return fmt.Errorf("IDENTITY_PUBLIC_KEY_PATH is required")
	}

	if c.Identity.Claims.Role == "" {
		return fmt.Errorf("identity.claims.role is required")
	}

	if len(c.Cookies.SigningSecret) < 32 {
		return fmt.Errorf("COOKIE_SIGNING_SECRET must be at least 32 bytes")
	}

	if c.Attribution.Policy != PolicyLastClick &&
		c.Attribution.Policy != PolicyFirstClick {
		return fmt.Errorf(
			"attribution.policy must be %q or %q",
			PolicyLastClick,
			PolicyFirstClick,
		)
	}

	if c.Attribution.CookieMaxAge <= 0 {
		return fmt.Errorf("attribution.cookie_max_age must be positive")
	}

	if c.ViewAs.MaxAge <= 0 {
		return fmt.Errorf("view_as.max_age must be positive")
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
