package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

const weatherPath = "/data/2.5/weather"

// Report is the subset of provider output the platform actually uses.
type Report struct {
	Description string
	TempCelsius float64
	HasData     bool
}

// Fetcher exposes the lookup surface consumed by the dashboard and alert job.
type Fetcher interface {
	Current(ctx context.Context, city string) (*Report, error)
}

// Client calls an OpenWeatherMap-compatible endpoint over plain HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	units      string
	logg       *logger.Logger
}

type providerResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Message any `json:"message"`
}

// NewClient builds a weather client from configuration.
func NewClient(cfg config.WeatherConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("weather base url is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("weather api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		units:      cfg.Units,
		logg:       logg,
	}, nil
}

// Current looks up current conditions for a city. An empty weather array in
// the provider payload means "no data", which is a valid report, not an error.
func (c *Client) Current(ctx context.Context, city string) (*Report, error) {
	if city == "" {
		return nil, errors.New("city is required")
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	if c.units != "" {
		q.Set("units", c.units)
	}

	endpoint := c.baseURL + weatherPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling weather provider: %w", err)
	}
	defer closeBody(ctx, c.logg, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather provider returned %d: %s", resp.StatusCode, string(body))
	}

	var payload providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}

	report := &Report{TempCelsius: payload.Main.Temp}
	if len(payload.Weather) > 0 {
		report.Description = payload.Weather[0].Description
		report.HasData = true
	}
	return report, nil
}

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, "closing weather response body failed")
	}
}
