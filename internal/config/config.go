package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	API       APIConfig `mapstructure:"api"`
	Session   SessionConfig
	Redis     RedisConfig
	Shell     ShellConfig     `mapstructure:"shell"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// APIConfig describes the remote LMS REST API the portal fronts.
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	AuthMode string        `mapstructure:"auth_mode"` // cookie | bearer
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SessionConfig struct {
	Secret     string        `mapstructure:"secret"`
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Store      string        `mapstructure:"store"` // memory | redis
	Secure     bool          `mapstructure:"secure"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ShellConfig tunes the live layout channel.
type ShellConfig struct {
	NotificationPoll time.Duration `mapstructure:"notification_poll"`
	SearchDebounce   time.Duration `mapstructure:"search_debounce"`
	FanoutLimit      int           `mapstructure:"fanout_limit"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

const (
	AuthModeCookie = "cookie"
	AuthModeBearer = "bearer"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"

	devSessionSecret = "formar-portal-dev-session-secret"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("api.base_url", "https://backend-4tkw.onrender.com")
	v.SetDefault("api.auth_mode", AuthModeCookie)
	v.SetDefault("api.timeout", 15*time.Second)

	v.SetDefault("session.secret", devSessionSecret)
	v.SetDefault("session.cookie_name", "portal_session")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.store", SessionStoreMemory)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("shell.notification_poll", 30*time.Second)
	v.SetDefault("shell.search_debounce", 300*time.Millisecond)
	v.SetDefault("shell.fanout_limit", 8)

	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)

	v.SetDefault("log.file", "logs/portal.log")
}

// LoadConfig reads configs/config.yaml (optional) under path, a .env file in
// the working directory (optional) and PORTAL_* environment variables.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("api.base_url", "API_BASE_URL")
	v.BindEnv("api.auth_mode", "API_AUTH_MODE")
	v.BindEnv("session.secret", "SESSION_SECRET")
	v.BindEnv("session.store", "SESSION_STORE")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Log.File); dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			os.MkdirAll(dir, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.API.AuthMode {
	case AuthModeCookie, AuthModeBearer:
	default:
		return fmt.Errorf("unknown api.auth_mode %q (want cookie or bearer)", c.API.AuthMode)
	}

	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown session.store %q (want memory or redis)", c.Session.Store)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	// 生产环境校验 session secret 强度
	if c.Server.Mode == "release" {
		if len(c.Session.Secret) < 32 {
			return fmt.Errorf("session secret is too short (%d chars), must be at least 32 characters in release mode", len(c.Session.Secret))
		}
		if c.Session.Secret == devSessionSecret {
			return fmt.Errorf("session secret must be set in release mode")
		}
	}

	if c.Shell.FanoutLimit <= 0 {
		c.Shell.FanoutLimit = 1
	}

	return nil
}
