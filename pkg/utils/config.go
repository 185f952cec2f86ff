package utils

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultHTTPTimeoutMS   = 5000
	MinHTTPTimeoutMS       = 100
	DefaultPort            = "3000"
	DefaultGRPCAddr        = ":9090"
	DefaultChatHistorySize = 50
)

// AppConfig is read from an optional TOML file, then overridden by env.
type AppConfig struct {
	APIBase         string `toml:"api_base"`
	UploadsBase     string `toml:"uploads_base"`
	HTTPTimeoutMS   int    `toml:"http_timeout_ms"`
	DatabaseURL     string `toml:"database_url"`
	Port            string `toml:"port"`
	GRPCAddr        string `toml:"grpc_addr"`
	LogLevel        string `toml:"log_level"`
	LogFile         string `toml:"log_file"`
	ChatHistorySize int    `toml:"chat_history_size"`
}

func DefaultAppConfig() AppConfig {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return AppConfig{
		HTTPTimeoutMS:   DefaultHTTPTimeoutMS,
		DatabaseURL:     filepath.Join(home, ".mangacover", "data.db"),
		Port:            DefaultPort,
		GRPCAddr:        DefaultGRPCAddr,
		LogLevel:        "info",
		ChatHistorySize: DefaultChatHistorySize,
	}
}

// LoadAppConfig builds the config from defaults, the TOML file at path (if
// non-empty) and the environment, then validates it.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %q", key, v)
		}
		*dst = n
		return nil
	}

	setString("MANGADEX_API_BASE", &cfg.APIBase)
	setString("MANGADEX_UPLOADS_BASE", &cfg.UploadsBase)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setString("PORT", &cfg.Port)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("LOG_FILE", &cfg.LogFile)
	// empty GRPC_ADDR is meaningful (disables the listener), so check presence
	if v, ok := os.LookupEnv("GRPC_ADDR"); ok {
		cfg.GRPCAddr = strings.TrimSpace(v)
	}

	if err := setInt("HTTP_TIMEOUT_MS", &cfg.HTTPTimeoutMS); err != nil {
		return err
	}
	return setInt("CHAT_HISTORY_SIZE", &cfg.ChatHistorySize)
}

func (c AppConfig) Validate() error {
	var errs []error
	if err := validateBaseURL("MANGADEX_API_BASE", c.APIBase); err != nil {
		errs = append(errs, err)
	}
	if err := validateBaseURL("MANGADEX_UPLOADS_BASE", c.UploadsBase); err != nil {
		errs = append(errs, err)
	}
	if c.HTTPTimeoutMS < MinHTTPTimeoutMS {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT_MS must be >= %d, got %d", MinHTTPTimeoutMS, c.HTTPTimeoutMS))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL must not be empty"))
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}
	return errors.Join(errs...)
}

// HTTPTimeout returns the upstream timeout as a duration.
func (c AppConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

func (c AppConfig) HTTPAddr() string {
	return ":" + c.Port
}

func validateBaseURL(key, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}
