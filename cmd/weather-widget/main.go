package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"weather-widget/internal/config"
	"weather-widget/internal/httpapi"
	"weather-widget/internal/logging"
	"weather-widget/internal/mqtt"
	"weather-widget/internal/observability"
	"weather-widget/internal/owm"
	"weather-widget/internal/widget"
)

const appName = "weather-widget"

// Overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load(os.Getenv("WEATHER_WIDGET_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(cfg, version, appName))
	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownTelemetry, promHandler, tracer, err := observability.Setup(ctx, appName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer shutdownTelemetry()

	client, err := owm.New(cfg.OpenWeatherAPIKey,
		owm.WithBaseURL(cfg.OpenWeatherBaseURL),
		owm.WithTracer(tracer),
	)
	if err != nil {
		return fmt.Errorf("owm client: %w", err)
	}

	store, closeStore, err := setupStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var pub widget.Publisher
	if cfg.MQTTBroker != "" {
		p, err := mqtt.Connect(cfg.MQTTBroker, "", cfg.MQTTTopicPrefix)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer p.Close()
		pub = p
	}

	svc := widget.NewService(client, cfg.RequestTimeout)
	sessions := widget.NewSessions(svc, store, pub)
	router := httpapi.NewRouter(httpapi.NewServer(svc, sessions), httpapi.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Tracer:         tracer,
		Metrics:        promHandler,
		StaticDir:      cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("weather-widget listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return ctx.Err()
}

func setupStore(ctx context.Context, cfg config.Config) (widget.Store, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("using in-memory session store", "ttl", cfg.SessionTTL)
		return widget.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pong, err := rdb.Ping(pingCtx).Result()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
	}
	slog.Info("connected to redis", "addr", cfg.RedisAddr, "pong", pong)
	return widget.NewRedisStore(rdb, cfg.SessionTTL), func() { _ = rdb.Close() }, nil
}
