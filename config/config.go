package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/forbiddenlink/finance-quest-sub016/calculator"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server struct {
		Port            int           `mapstructure:"port"`
		AdminPort       int           `mapstructure:"admin_port"`
		AdminToken      string        `mapstructure:"admin_token"`
		RateLimit       int           `mapstructure:"rate_limit"` // requests per client per minute
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		TrustedProxies  []string      `mapstructure:"trusted_proxies"` // IPs or CIDRs allowed to set X-Forwarded-For
	} `mapstructure:"server"`
	DB struct {
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port"`
		User           string `mapstructure:"user"`
		Password       string `mapstructure:"password"`
		DBName         string `mapstructure:"name"`
		MigrationsPath string `mapstructure:"migrations_path"`
	} `mapstructure:"db"`
	Redis struct {
		Addr string        `mapstructure:"addr"`
		TTL  time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
		ExpiresIn int    `mapstructure:"expires_in"` // hours
	} `mapstructure:"jwt"`
	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`
	Rates struct {
		FeedURL string        `mapstructure:"feed_url"`
		Spread  float64       `mapstructure:"spread"` // percentage points added to the reference rate
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"rates"`
	Sessions struct {
		IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"sessions"`
	Calculator calculator.Options `mapstructure:"calculator"`
	Log        struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// EnvPrefix is the prefix of environment overrides, e.g. DEBTPLANNER_DB_HOST.
const EnvPrefix = "DEBTPLANNER"

// NewConfig loads defaults, an optional YAML file named by DEBTPLANNER_CONFIG and
// environment overrides, in that order of precedence.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit <= 0 {
		return nil, fmt.Errorf("invalid rate limit: %d", cfg.Server.RateLimit)
	}
	if cfg.JWT.ExpiresIn <= 0 {
		return nil, fmt.Errorf("invalid jwt expiry: %d", cfg.JWT.ExpiresIn)
	}
	if cfg.Sessions.SweepInterval <= 0 {
		return nil, fmt.Errorf("invalid session sweep interval: %s", cfg.Sessions.SweepInterval)
	}
	if cfg.Sessions.IdleTimeout <= 0 {
		return nil, fmt.Errorf("invalid session idle timeout: %s", cfg.Sessions.IdleTimeout)
	}
	if cfg.Redis.TTL <= 0 {
		return nil, fmt.Errorf("invalid cache ttl: %s", cfg.Redis.TTL)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.admin_port", 8081)
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "debtplanner")
	v.SetDefault("db.migrations_path", "migrations")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.ttl", 15*time.Minute)

	v.SetDefault("jwt.secret_key", "change-me")
	v.SetDefault("jwt.expires_in", 24)

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "planner@example.com")

	v.SetDefault("rates.feed_url", "https://www.cbr.ru/scripts/XML_key_rate.asp")
	v.SetDefault("rates.spread", 3.0)
	v.SetDefault("rates.timeout", 5*time.Second)

	v.SetDefault("sessions.idle_timeout", 30*time.Minute)
	v.SetDefault("sessions.sweep_interval", 5*time.Minute)

	opts := calculator.DefaultOptions()
	v.SetDefault("calculator.total_available_credit", opts.TotalAvailableCredit)
	v.SetDefault("calculator.consolidation_horizon_months", opts.ConsolidationHorizonMonths)
	v.SetDefault("calculator.debt_service_threshold", opts.DebtServiceThreshold)
	v.SetDefault("calculator.utilization_threshold", opts.UtilizationThreshold)
	v.SetDefault("calculator.high_apr_threshold", opts.HighAPRThreshold)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// DSN returns the gorm connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.DBName)
}

// MigrateURL returns the connection URL used by golang-migrate.
func (c *Config) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.DBName)
}

// CalculatorOptions returns the calculator assumptions with defaults filled in.
func (c *Config) CalculatorOptions() calculator.Options {
	opts := c.Calculator
	d := calculator.DefaultOptions()
	if opts.TotalAvailableCredit <= 0 {
		opts.TotalAvailableCredit = d.TotalAvailableCredit
	}
	if opts.ConsolidationHorizonMonths <= 0 {
		opts.ConsolidationHorizonMonths = d.ConsolidationHorizonMonths
	}
	return opts
}
