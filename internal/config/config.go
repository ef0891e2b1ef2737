package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	// RequestTimeout bounds both upstream calls of one search together.
	RequestTimeout time.Duration
	SessionTTL     time.Duration

	// Sessions live in process memory unless RedisAddr is set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MQTTBroker      string
	MQTTTopicPrefix string

	OTLPEndpoint   string
	StaticDir      string
	AllowedOrigins []string
}

// Load reads an optional .env file, then environment variables and, when path
// is non-empty, a YAML file. Environment variables win over the file.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", "8095")
	v.SetDefault("openweather_base_url", "https://api.openweathermap.org")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("session_ttl", "30m")
	v.SetDefault("redis_db", 0)
	v.SetDefault("mqtt_topic_prefix", "weather-widget/models")
	v.SetDefault("cors_allowed_origins", "*")
	v.AutomaticEnv()
	_ = v.BindEnv("port", "PORT", "WEATHER_WIDGET_PORT")
	_ = v.BindEnv("openweather_api_key", "OPENWEATHER_API_KEY", "OPENWEATHER_APP_ID")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	appEnv := strings.TrimSpace(v.GetString("app_env"))
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(v.GetString("log_level"))
	if err != nil {
		return Config{}, err
	}

	timeout, err := parsePositiveDuration("REQUEST_TIMEOUT", v.GetString("request_timeout"))
	if err != nil {
		return Config{}, err
	}
	ttl, err := parsePositiveDuration("SESSION_TTL", v.GetString("session_ttl"))
	if err != nil {
		return Config{}, err
	}

	staticDir := strings.TrimSpace(v.GetString("static_dir"))
	if staticDir != "" {
		if staticDir, err = filepath.Abs(staticDir); err != nil {
			return Config{}, fmt.Errorf("STATIC_DIR %q: %w", staticDir, err)
		}
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		Port:               strings.TrimSpace(v.GetString("port")),
		OpenWeatherAPIKey:  strings.TrimSpace(v.GetString("openweather_api_key")),
		OpenWeatherBaseURL: strings.TrimSpace(v.GetString("openweather_base_url")),
		RequestTimeout:     timeout,
		SessionTTL:         ttl,
		RedisAddr:          strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:      v.GetString("redis_password"),
		RedisDB:            v.GetInt("redis_db"),
		MQTTBroker:         strings.TrimSpace(v.GetString("mqtt_broker")),
		MQTTTopicPrefix:    strings.TrimSpace(v.GetString("mqtt_topic_prefix")),
		OTLPEndpoint:       strings.TrimSpace(v.GetString("otlp_endpoint")),
		StaticDir:          staticDir,
		AllowedOrigins:     splitList(v.GetString("cors_allowed_origins")),
	}, nil
}

func parsePositiveDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be > 0", name, s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
