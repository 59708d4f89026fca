package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for SmartSearch
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Backend BackendConfig `mapstructure:"backend"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// AdminConfig holds API key configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// BackendConfig holds the search backend endpoints
type BackendConfig struct {
	SocketURL      string        `mapstructure:"socket_url"`
	APIURL         string        `mapstructure:"api_url"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
}

// CacheConfig holds search response cache configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// SessionConfig holds search session configuration
type SessionConfig struct {
	TerminalPhrases []string `mapstructure:"terminal_phrases"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// SMARTSEARCH_BACKEND_SOCKET_URL overrides backend.socket_url
	v.SetEnvPrefix("SMARTSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("admin.api_key", "")

	v.SetDefault("backend.socket_url", "ws://localhost:5000/ws")
	v.SetDefault("backend.api_url", "http://localhost:5000")
	v.SetDefault("backend.dial_timeout", 10*time.Second)
	v.SetDefault("backend.request_timeout", 30*time.Second)
	v.SetDefault("backend.reconnect_delay", 3*time.Second)
	v.SetDefault("backend.ping_interval", 25*time.Second)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "./data/smartsearch.db")
	v.SetDefault("cache.ttl", 30*time.Minute)

	// empty means the built-in phrase list
	v.SetDefault("session.terminal_phrases", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("cors.allow_origins", []string{"*"})
}

// Validate checks ports, backend URLs and durations
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if err := checkURL("backend.socket_url", c.Backend.SocketURL, "ws", "wss"); err != nil {
		return err
	}
	if err := checkURL("backend.api_url", c.Backend.APIURL, "http", "https"); err != nil {
		return err
	}

	durations := map[string]time.Duration{
		"backend.dial_timeout":    c.Backend.DialTimeout,
		"backend.request_timeout": c.Backend.RequestTimeout,
		"backend.reconnect_delay": c.Backend.ReconnectDelay,
		"backend.ping_interval":   c.Backend.PingInterval,
	}
	for key, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
		}
		if c.Cache.Path == "" {
			return errors.New("cache.path is required when cache is enabled")
		}
	}
	return nil
}

func checkURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: want %s URL", key, raw, strings.Join(schemes, " or "))
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
