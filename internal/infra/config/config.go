package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	HTTPClient  HTTPClientConfig  `mapstructure:"http_client"`
	Log         LogConfig         `mapstructure:"log"`
	Auth        AuthConfig        `mapstructure:"auth"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Gateways    GatewaysConfig    `mapstructure:"gateways"`
	Reconcile   ReconcileConfig   `mapstructure:"reconcile"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database" validate:"required"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Database, c.SSLMode,
	)
	if c.Password != "" {
		dsn += fmt.Sprintf(" password=%s", c.Password)
	}
	return dsn
}

// RedisConfig holds Redis configuration. Redis is optional; an empty
// address disables idempotent checkout.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis address is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Address != ""
}

// HTTPClientConfig holds HTTP client configuration for connection pooling.
type HTTPClientConfig struct {
	// Connection pool settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	// Timeout settings
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`

	// Keep-alive settings
	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text console"`
}

// AuthConfig holds caller authentication configuration.
// Tokens are issued by the external identity provider and signed with HS256.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`

	// ReconcileScope, when set, must be granted to callers of POST /reconcile.
	ReconcileScope string `mapstructure:"reconcile_scope"`
}

// CORSConfig holds the origins allowed to call the checkout endpoints.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// GatewaysConfig holds the settings of the three payment providers.
type GatewaysConfig struct {
	Aggregator GatewayConfig `mapstructure:"aggregator"`
	Pix        GatewayConfig `mapstructure:"pix"`
	Card       GatewayConfig `mapstructure:"card"`
}

// GatewayConfig holds the settings of one payment provider.
// A provider without a base URL is not registered.
type GatewayConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Token   string `mapstructure:"token"`

	// OAuth2 client-credentials, used instead of Token when TokenURL is set.
	TokenURL     string   `mapstructure:"token_url" validate:"omitempty,url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`

	Currency        string `mapstructure:"currency"`
	SuccessURL      string `mapstructure:"success_url"`
	CancelURL       string `mapstructure:"cancel_url"`
	NotificationURL string `mapstructure:"notification_url"`

	ProbePath    string        `mapstructure:"probe_path"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`

	Breaker BreakerConfig `mapstructure:"breaker"`

	// UseStripe switches the card processor to the Stripe Checkout dialect.
	UseStripe bool `mapstructure:"use_stripe"`
}

// Enabled reports whether the provider is configured.
func (c *GatewayConfig) Enabled() bool {
	return c.BaseURL != ""
}

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// ReconcileConfig holds reconciliation driver configuration.
type ReconcileConfig struct {
	// Interval between scheduled passes; 0 disables the scheduler.
	Interval             time.Duration `mapstructure:"interval" validate:"min=0"`
	LocalReferencePrefix string        `mapstructure:"local_reference_prefix"`
}

// ArchiveConfig holds the S3-compatible storage for reconciliation reports.
type ArchiveConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// Enabled reports whether a bucket is configured.
func (c *ArchiveConfig) Enabled() bool {
	return c.Bucket != ""
}

// IdempotencyConfig holds idempotent checkout configuration.
type IdempotencyConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// TracingConfig holds tracing configuration.
type TracingConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint" validate:"omitempty,url"`
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"min=0,max=1"`
}

// MetricsConfig holds Prometheus configuration.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// Load loads configuration from the default paths and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from path, or from the default paths when
// path is empty, and the environment.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/botmarket")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	// BOTMARKET_GATEWAYS_PIX_BASE_URL overrides gateways.pix.base_url.
	v.SetEnvPrefix("BOTMARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applySecretEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applySecretEnv overrides sensitive values from short environment names.
func applySecretEnv(cfg *Config) {
	if secret := os.Getenv("BOTMARKET_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if password := os.Getenv("BOTMARKET_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if password := os.Getenv("BOTMARKET_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}
	if key := os.Getenv("BOTMARKET_ARCHIVE_SECRET_KEY"); key != "" {
		cfg.Archive.SecretAccessKey = key
	}
	if token := os.Getenv("BOTMARKET_AGGREGATOR_TOKEN"); token != "" {
		cfg.Gateways.Aggregator.Token = token
	}
	if token := os.Getenv("BOTMARKET_PIX_TOKEN"); token != "" {
		cfg.Gateways.Pix.Token = token
	}
	if token := os.Getenv("BOTMARKET_CARD_TOKEN"); token != "" {
		cfg.Gateways.Card.Token = token
	}
	if s := os.Getenv("BOTMARKET_CORS_ORIGINS"); s != "" {
		cfg.CORS.AllowedOrigins = parseCommaSeparatedList(s)
	}
}

func parseCommaSeparatedList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "botmarket")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", false)

	// Redis defaults
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 10*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 30*time.Second)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.reconcile_scope", "")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{})

	// Gateway defaults
	for _, name := range []string{"aggregator", "pix", "card"} {
		prefix := "gateways." + name + "."
		v.SetDefault(prefix+"base_url", "")
		v.SetDefault(prefix+"token", "")
		v.SetDefault(prefix+"currency", "BRL")
		v.SetDefault(prefix+"probe_path", "/")
		v.SetDefault(prefix+"probe_timeout", 5*time.Second)
		v.SetDefault(prefix+"breaker.failure_threshold", 5)
		v.SetDefault(prefix+"breaker.interval", time.Minute)
		v.SetDefault(prefix+"breaker.timeout", 30*time.Second)
	}
	v.SetDefault("gateways.card.use_stripe", false)

	// Reconcile defaults
	v.SetDefault("reconcile.interval", 5*time.Minute)
	v.SetDefault("reconcile.local_reference_prefix", "local_")

	// Archive defaults
	v.SetDefault("archive.region", "auto")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "reconcile/")

	// Idempotency defaults
	v.SetDefault("idempotency.ttl", 24*time.Hour)
	v.SetDefault("idempotency.lock_ttl", 30*time.Second)

	// Tracing defaults
	v.SetDefault("tracing.service_name", "botmarket-server")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)

	// Metrics defaults
	v.SetDefault("metrics.namespace", "botmarket")
}
