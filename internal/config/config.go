package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Backend   BackendConfig   `yaml:"backend"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Polling   PollingConfig   `yaml:"polling"`
	Workspace WorkspaceConfig `yaml:"workspace"`
}

type ServerConfig struct {
	BindAddr string `yaml:"bindAddr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BackendConfig locates the monitoring backend that proxies Zabbix.
type BackendConfig struct {
	BaseURL string `yaml:"baseURL"`
	Timeout string `yaml:"timeout"` // e.g. "30s"
}

// AuthConfig verifies access tokens locally when JWTSecret is set. Otherwise
// every token is confirmed by the backend and the answer is reused for IdentityTTL.
type AuthConfig struct {
	JWTSecret   string `yaml:"jwtSecret"`
	IdentityTTL string `yaml:"identityTTL"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PollingConfig holds the refresh period of every polled collection.
type PollingConfig struct {
	Dashboard    string `yaml:"dashboard"`
	Hosts        string `yaml:"hosts"`
	HostTriggers string `yaml:"hostTriggers"`
	KeyMetrics   string `yaml:"keyMetrics"`
	SystemInfo   string `yaml:"systemInfo"`
}

type WorkspaceConfig struct {
	IdleTTL       string `yaml:"idleTTL"`
	SweepInterval string `yaml:"sweepInterval"`
}

// Load reads the environment and the file given by -f.
func Load() (*Config, error) {
	configFile := flag.String("f", "", "Path to configuration file")
	flag.Parse()
	return LoadFile(*configFile)
}

// LoadFile builds the config from the environment, overlays filePath when it
// is not empty, fills omitted fields and validates the result.
func LoadFile(filePath string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getEnv("SERVER_BIND_ADDR", "0.0.0.0:8080"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:8000"),
			Timeout: getEnv("BACKEND_TIMEOUT", "30s"),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			IdentityTTL: getEnv("AUTH_IDENTITY_TTL", "1m"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Polling: PollingConfig{
			Dashboard:    getEnv("POLL_DASHBOARD_INTERVAL", "30s"),
			Hosts:        getEnv("POLL_HOSTS_INTERVAL", "60s"),
			HostTriggers: getEnv("POLL_HOST_TRIGGERS_INTERVAL", "15s"),
			KeyMetrics:   getEnv("POLL_KEY_METRICS_INTERVAL", "5s"),
			SystemInfo:   getEnv("POLL_SYSTEM_INFO_INTERVAL", "300s"),
		},
		Workspace: WorkspaceConfig{
			IdleTTL:       getEnv("WORKSPACE_IDLE_TTL", "30m"),
			SweepInterval: getEnv("WORKSPACE_SWEEP_INTERVAL", "1m"),
		},
	}

	if filePath != "" {
		if err := loadFromFile(cfg, filePath); err != nil {
			log.Error().Err(err).Str("file", filePath).Msg("failed to load config file")
			return nil, err
		}
	}

	// fill reasonable defaults when fields omitted in file
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = "0.0.0.0:8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Backend.Timeout == "" {
		cfg.Backend.Timeout = "30s"
	}
	if cfg.Auth.IdentityTTL == "" {
		cfg.Auth.IdentityTTL = "1m"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Workspace.IdleTTL == "" {
		cfg.Workspace.IdleTTL = "30m"
	}
	if cfg.Workspace.SweepInterval == "" {
		cfg.Workspace.SweepInterval = "1m"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend.baseURL %q must be an absolute http(s) URL", c.Backend.BaseURL))
	}
	durations := map[string]string{
		"backend.timeout":         c.Backend.Timeout,
		"auth.identityTTL":        c.Auth.IdentityTTL,
		"polling.dashboard":       c.Polling.Dashboard,
		"polling.hosts":           c.Polling.Hosts,
		"polling.hostTriggers":    c.Polling.HostTriggers,
		"polling.keyMetrics":      c.Polling.KeyMetrics,
		"polling.systemInfo":      c.Polling.SystemInfo,
		"workspace.idleTTL":       c.Workspace.IdleTTL,
		"workspace.sweepInterval": c.Workspace.SweepInterval,
	}
	for name, v := range durations {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s %q must be a positive duration", name, v))
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of trace|debug|info|warn|error", c.Logging.Level))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, fmt.Errorf("redis.db %d must not be negative", c.Redis.DB))
	}
	return errors.Join(errs...)
}

// ParseDuration returns d when s is empty or malformed.
func ParseDuration(s string, d time.Duration) time.Duration {
	if s == "" {
		return d
	}
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	return d
}

func loadFromFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
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
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
