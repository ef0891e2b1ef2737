package owm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"weather-widget/internal/models"
)

const DefaultBaseURL = "https://api.openweathermap.org"

var ErrCityNotFound = errors.New("city not found")

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	tracer     oteltrace.Tracer
	schemas    schemas
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			c.baseURL = u
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTracer(t oteltrace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

type httpStatusError struct {
	status int
	body   string
}

func (e httpStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("API returned status %d", e.status)
	}
	return fmt.Sprintf("API returned status %d: %s", e.status, e.body)
}

func (e httpStatusError) Is(target error) bool {
	return target == ErrCityNotFound && e.status == http.StatusNotFound
}

// StatusCode reports the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se httpStatusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

func New(apiKey string, opts ...Option) (*Client, error) {
	s, err := loadSchemas()
	if err != nil {
		return nil, fmt.Errorf("loading payload schemas: %w", err)
	}
	c := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		tracer:  otel.Tracer("weather-widget/owm"),
		schemas: s,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		slog.Warn("OPENWEATHER_API_KEY not set, serving demo weather data")
	}
	return c, nil
}

// FetchCurrent queries the current-weather endpoint by city name.
func (c *Client) FetchCurrent(ctx context.Context, city string) (models.CurrentPayload, error) {
	if c.apiKey == "" {
		return mockCurrent(city)
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	var out models.CurrentPayload
	if err := c.get(ctx, "current", "/data/2.5/weather", q, c.schemas.current, &out); err != nil {
		return models.CurrentPayload{}, fmt.Errorf("fetching current weather: %w", err)
	}
	return out, nil
}

// FetchForecast queries the 5-day/3-hour forecast for a coordinate.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64) (models.ForecastPayload, error) {
	if c.apiKey == "" {
		return mockForecast(lat, lon), nil
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	var out models.ForecastPayload
	if err := c.get(ctx, "forecast", "/data/2.5/forecast", q, c.schemas.forecast, &out); err != nil {
		return models.ForecastPayload{}, fmt.Errorf("fetching forecast: %w", err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, schema *jsonschema.Schema, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "owm."+op)
	span.SetAttributes(attribute.String("owm.path", path))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return decodeValidated(schema, body, out)
}
