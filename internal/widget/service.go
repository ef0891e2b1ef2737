// Package widget implements the weather search behind the widget: input
// validation, the two upstream calls, and per-session state where only the
// most recently issued search may replace the display model.
package widget

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"weather-widget/internal/forecast"
	"weather-widget/internal/models"
	"weather-widget/internal/observability"
)

const DefaultTimeout = 10 * time.Second

// Provider is the upstream weather API.
type Provider interface {
	FetchCurrent(ctx context.Context, city string) (models.CurrentPayload, error)
	FetchForecast(ctx context.Context, lat, lon float64) (models.ForecastPayload, error)
}

type Service struct {
	provider Provider
	timeout  time.Duration
}

func NewService(p Provider, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{provider: p, timeout: timeout}
}

func normalizeCity(city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", &ValidationError{Err: ErrCityNotSpecified}
	}
	return city, nil
}

// Lookup resolves city into a fresh display model. Current conditions come from
// the current-weather endpoint; its coordinates drive the forecast request.
func (s *Service) Lookup(ctx context.Context, city string) (models.DisplayModel, error) {
	city, err := normalizeCity(city)
	if err != nil {
		observability.RecordLookup("invalid")
		return models.DisplayModel{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	model, err := s.lookup(ctx, city)
	if err != nil {
		observability.RecordLookup("failed")
		slog.Warn("weather lookup failed", "city", city, "error", err)
		return models.DisplayModel{}, &LookupError{City: city, Err: err}
	}
	observability.RecordLookup("ok")
	slog.Debug("weather lookup", "city", city, "location", model.Current.Location, "took", time.Since(started))
	return model, nil
}

func (s *Service) lookup(ctx context.Context, city string) (models.DisplayModel, error) {
	current, err := s.provider.FetchCurrent(ctx, city)
	if err != nil {
		return models.DisplayModel{}, err
	}
	fc, err := s.provider.FetchForecast(ctx, current.Coord.Lat, current.Coord.Lon)
	if err != nil {
		return models.DisplayModel{}, err
	}
	return forecast.Normalize(current, fc)
}
