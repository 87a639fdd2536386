package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server" envconfig:"HTTP"`
	Database      DatabaseConfig      `mapstructure:"database" envconfig:"DB"`
	Security      SecurityConfig      `mapstructure:"security" envconfig:"SECURITY"`
	Observability ObservabilityConfig `mapstructure:"observability" envconfig:"OBSERVABILITY"`
	Card          CardConfig          `mapstructure:"card" envconfig:"CARD"`
	Redis         RedisConfig         `mapstructure:"redis" envconfig:"REDIS"`
	Billing       BillingConfig       `mapstructure:"billing" envconfig:"BILLING"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" envconfig:"PORT" default:"8080"`
	BaseURL           string        `mapstructure:"base_url" envconfig:"BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" envconfig:"CONN_MAX_IDLE_TIME" default:"5m"`
	Source          string        `mapstructure:"source" envconfig:"SOURCE" required:"true"`
}

type SecurityConfig struct {
	AccessTokenSecret    string        `mapstructure:"access_token_secret" envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	RefreshTokenSecret   string        `mapstructure:"refresh_token_secret" envconfig:"REFRESH_TOKEN_SECRET" required:"true"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" envconfig:"ACCESS_TOKEN_DURATION" default:"15m"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" envconfig:"REFRESH_TOKEN_DURATION" default:"168h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" envconfig:"BCRYPT_COST" default:"12"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics" envconfig:"METRICS"`
	Logging LoggingConfig `mapstructure:"logging" envconfig:"LOGGING"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" envconfig:"ENABLED" default:"true"`
	Path    string `mapstructure:"path" envconfig:"PATH" default:"/metrics"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"LEVEL" default:"info"`
	Format string `mapstructure:"format" envconfig:"FORMAT" default:"json"`
}

// CardConfig holds membership card lifecycle policy.
type CardConfig struct {
	ActivateOnPurchase  bool          `mapstructure:"activate_on_purchase" envconfig:"ACTIVATE_ON_PURCHASE" default:"false"`
	FreezeExtendsExpiry bool          `mapstructure:"freeze_extends_expiry" envconfig:"FREEZE_EXTENDS_EXPIRY" default:"true"`
	ExpirySweepBatch    int           `mapstructure:"expiry_sweep_batch" envconfig:"EXPIRY_SWEEP_BATCH" default:"500"`
	ExpirySweepInterval time.Duration `mapstructure:"expiry_sweep_interval" envconfig:"EXPIRY_SWEEP_INTERVAL" default:"0s"`
}

type RedisConfig struct {
	Enabled       bool          `mapstructure:"enabled" envconfig:"ENABLED" default:"false"`
	Address       string        `mapstructure:"address" envconfig:"ADDRESS"`
	URL           string        `mapstructure:"url" envconfig:"URL"`
	Password      string        `mapstructure:"password" envconfig:"PASSWORD"`
	DB            int           `mapstructure:"db" envconfig:"DB" default:"0"`
	PoolSize      int           `mapstructure:"pool_size" envconfig:"POOL_SIZE" default:"10"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout" envconfig:"DIAL_TIMEOUT" default:"5s"`
	CoachCacheTTL time.Duration `mapstructure:"coach_cache_ttl" envconfig:"COACH_CACHE_TTL" default:"5m"`
}

// BillingConfig selects where compensating ledger entries are written:
// "log" only logs them, "postgres" stores them in billing_ledger_entries.
type BillingConfig struct {
	Ledger string `mapstructure:"ledger" envconfig:"LEDGER" default:"log"`
}

const (
	LedgerLog      = "log"
	LedgerPostgres = "postgres"
)

const EnvPrefix = "GYM"

// LoadConfigFromEnv builds the configuration from the process environment,
// loading a .env file first when one is present.
func LoadConfigFromEnv() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config from environment: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Redis.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("redis config: %v", err))
	}

	if err := c.Billing.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("billing config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range strings.Split(c.AllowedOrigins, ",") {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.AccessTokenSecret) < 32 {
		return errors.New("access_token_secret must be at least 32 characters")
	}
	if len(c.RefreshTokenSecret) < 32 {
		return errors.New("refresh_token_secret must be at least 32 characters")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.AccessTokenDuration <= 0 || c.RefreshTokenDuration <= c.AccessTokenDuration {
		return errors.New("refresh_token_duration must be longer than access_token_duration")
	}
	if c.BCryptCost < 10 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 10 and 15")
	}
	return nil
}

func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Address == "" && c.URL == "" {
		return errors.New("address or url is required when redis is enabled")
	}
	return nil
}

func (c *BillingConfig) Validate() error {
	switch c.Ledger {
	case "", LedgerLog, LedgerPostgres:
		return nil
	}
	return fmt.Errorf("unknown ledger %q, want %s or %s", c.Ledger, LedgerLog, LedgerPostgres)
}
