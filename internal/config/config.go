package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Cache     CacheConfig     `yaml:"cache"`
	Report    ReportConfig    `yaml:"report"`
	Logger    LoggerConfig    `yaml:"logger"`
	Security  SecurityConfig  `yaml:"security"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WarehouseConfig points the loader at the cleaned orders table. Driver
// must be registered with database/sql by the binary.
type WarehouseConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	Table        string        `yaml:"table"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// CacheConfig controls memoization of warehouse loads. A zero TTL keeps
// results until the cache is cleared explicitly.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type ReportConfig struct {
	ExcludePartialMonth bool `yaml:"exclude_partial_month"`
	CategoryLimit       int  `yaml:"category_limit"`
	ProductLateLimit    int  `yaml:"product_late_limit"`
	ProductProfitLimit  int  `yaml:"product_profit_limit"`
	SegmentLimit        int  `yaml:"segment_limit"`
}

type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SecurityConfig struct {
	EnableRateLimit bool     `yaml:"enable_rate_limit"`
	RateLimitRPS    int      `yaml:"rate_limit_rps"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	TrustedProxies  []string `yaml:"trusted_proxies"`
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Warehouse: WarehouseConfig{
			Driver:       "sqlite",
			DSN:          "warehouse.db",
			Table:        "orders_clean",
			QueryTimeout: 60 * time.Second,
		},
		Cache: CacheConfig{
			TTL:        0,
			MaxEntries: 8,
		},
		Report: ReportConfig{
			ExcludePartialMonth: true,
			CategoryLimit:       20,
			ProductLateLimit:    20,
			ProductProfitLimit:  10,
			SegmentLimit:        5,
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    100,
			RateLimitBurst:  10,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE, and environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnvString("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Warehouse.Driver = getEnvString("WAREHOUSE_DRIVER", c.Warehouse.Driver)
	c.Warehouse.DSN = getEnvString("WAREHOUSE_DSN", c.Warehouse.DSN)
	c.Warehouse.Table = getEnvString("WAREHOUSE_TABLE", c.Warehouse.Table)
	c.Warehouse.QueryTimeout = getEnvDuration("WAREHOUSE_QUERY_TIMEOUT", c.Warehouse.QueryTimeout)

	c.Cache.TTL = getEnvDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.MaxEntries = getEnvInt("CACHE_MAX_ENTRIES", c.Cache.MaxEntries)

	c.Report.ExcludePartialMonth = getEnvBool("REPORT_EXCLUDE_PARTIAL_MONTH", c.Report.ExcludePartialMonth)
	c.Report.CategoryLimit = getEnvInt("REPORT_CATEGORY_LIMIT", c.Report.CategoryLimit)
	c.Report.ProductLateLimit = getEnvInt("REPORT_PRODUCT_LATE_LIMIT", c.Report.ProductLateLimit)
	c.Report.ProductProfitLimit = getEnvInt("REPORT_PRODUCT_PROFIT_LIMIT", c.Report.ProductProfitLimit)
	c.Report.SegmentLimit = getEnvInt("REPORT_SEGMENT_LIMIT", c.Report.SegmentLimit)

	c.Logger.Level = getEnvString("LOG_LEVEL", c.Logger.Level)
	c.Logger.Format = getEnvString("LOG_FORMAT", c.Logger.Format)

	c.Security.EnableRateLimit = getEnvBool("SECURITY_RATE_LIMIT_ENABLED", c.Security.EnableRateLimit)
	c.Security.RateLimitRPS = getEnvInt("SECURITY_RATE_LIMIT_RPS", c.Security.RateLimitRPS)
	c.Security.RateLimitBurst = getEnvInt("SECURITY_RATE_LIMIT_BURST", c.Security.RateLimitBurst)
	c.Security.AllowedOrigins = getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", c.Security.AllowedOrigins)
	c.Security.TrustedProxies = getEnvStringSlice("SECURITY_TRUSTED_PROXIES", c.Security.TrustedProxies)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Warehouse.Driver == "" {
		return fmt.Errorf("warehouse driver cannot be empty")
	}

	if c.Warehouse.DSN == "" {
		return fmt.Errorf("warehouse DSN cannot be empty")
	}

	if !tableNamePattern.MatchString(c.Warehouse.Table) {
		return fmt.Errorf("invalid warehouse table name %q", c.Warehouse.Table)
	}

	if c.Warehouse.QueryTimeout <= 0 {
		return fmt.Errorf("warehouse query timeout must be positive")
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache TTL cannot be negative")
	}

	if c.Cache.MaxEntries < 2 {
		return fmt.Errorf("cache must hold at least 2 entries, got %d", c.Cache.MaxEntries)
	}

	limits := map[string]int{
		"category limit":       c.Report.CategoryLimit,
		"product late limit":   c.Report.ProductLateLimit,
		"product profit limit": c.Report.ProductProfitLimit,
		"segment limit":        c.Report.SegmentLimit,
	}
	for name, v := range limits {
		if v <= 0 {
			return fmt.Errorf("report %s must be positive, got %d", name, v)
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
