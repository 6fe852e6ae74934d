package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/solarflow/solarflow/internal/models"
)

// Client talks to an Open-Meteo compatible forecast endpoint. Calls are
// rate limited so a burst of user requests cannot exhaust the provider's
// free-tier quota.
type Client struct {
	baseURL    string
	httpClient *resty.Client
	limiter    *rate.Limiter
}

// Config holds client settings.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RequestsPerHour int
}

// DefaultConfig returns settings for the public Open-Meteo endpoint.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://api.open-meteo.com",
		Timeout:         10 * time.Second,
		RequestsPerHour: 600,
	}
}

type forecastResponse struct {
	Current struct {
		Temperature        float64 `json:"temperature_2m"`
		CloudCover         float64 `json:"cloud_cover"` // percent
		ShortwaveRadiation float64 `json:"shortwave_radiation"`
	} `json:"current"`
	Daily struct {
		SunshineDuration []float64 `json:"sunshine_duration"` // seconds
	} `json:"daily"`
}

// NewClient creates a weather client. Returns nil for an empty base URL,
// meaning weather enrichment is disabled.
func NewClient(config Config) *Client {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rph := config.RequestsPerHour
	if rph <= 0 {
		rph = 600
	}
	return &Client{
		baseURL: baseURL,
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("User-Agent", "SolarFlow/1.0").
			SetTimeout(timeout),
		limiter: rate.NewLimiter(rate.Limit(float64(rph)/3600.0), 10),
	}
}

// Forecast fetches the structured solar weather summary for a location.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*models.WeatherSummary, error) {
	if c == nil {
		return nil, fmt.Errorf("weather client is not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp forecastResponse
	httpResp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  fmt.Sprintf("%.4f", lat),
			"longitude": fmt.Sprintf("%.4f", lon),
			"current":   "temperature_2m,cloud_cover,shortwave_radiation",
			"daily":     "sunshine_duration",
			"timezone":  "auto",
		}).
		SetResult(&resp).
		Get("/v1/forecast")
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	if httpResp.IsError() {
		return nil, fmt.Errorf("weather request error (%d): %s", httpResp.StatusCode(), httpResp.String())
	}

	summary := &models.WeatherSummary{
		Latitude:     lat,
		Longitude:    lon,
		CloudCover:   resp.Current.CloudCover / 100,
		Irradiance:   resp.Current.ShortwaveRadiation,
		TemperatureC: resp.Current.Temperature,
		ObservedAt:   time.Now(),
	}
	if len(resp.Daily.SunshineDuration) > 0 {
		summary.SunshineHours = resp.Daily.SunshineDuration[0] / 3600
	}
	summary.Condition = condition(summary.CloudCover)
	return summary, nil
}

func condition(cloudCover float64) string {
	switch {
	case cloudCover < 0.2:
		return "clear"
	case cloudCover < 0.5:
		return "partly cloudy"
	case cloudCover < 0.8:
		return "mostly cloudy"
	default:
		return "overcast"
	}
}
