package alerts

import (
	"context"
	"fmt"
	"strings"

	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/logger"
	"github.com/agroscan/agroscan-backend/pkg/weather"
)

const (
	missingLocationMessage = "Weather location not set. Update your profile to receive weather alerts."
	noDataMessage          = "No weather data available for your location right now."
)

// Composer builds the per-farmer weather alert text. A provider failure never
// fails the caller; the alert degrades to a fallback line instead.
type Composer struct {
	fetcher  weather.Fetcher
	greeting string
	logg     *logger.Logger
}

// NewComposer wires the alert composer.
func NewComposer(fetcher weather.Fetcher, cfg config.AlertsConfig, logg *logger.Logger) (*Composer, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("weather fetcher is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Composer{fetcher: fetcher, greeting: strings.TrimSpace(cfg.Greeting), logg: logg}, nil
}

// Compose returns the alert body for one farmer. A blank location short
// circuits without touching the provider.
func (c *Composer) Compose(ctx context.Context, location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return c.withGreeting(missingLocationMessage)
	}

	report, err := c.fetcher.Current(ctx, location)
	if err != nil {
		ctx = c.logg.WithFields(ctx, map[string]any{"location": location, "error": err.Error()})
		c.logg.Warn(ctx, "alerts.weather_fetch_failed")
		return c.withGreeting(fmt.Sprintf("Weather update for %s is unavailable right now (%v).", location, err))
	}
	if !report.HasData {
		return c.withGreeting(noDataMessage)
	}

	return c.withGreeting(fmt.Sprintf(
		"Weather in %s: %s, %.1f C.",
		location, report.Description, report.TempCelsius,
	))
}

func (c *Composer) withGreeting(body string) string {
	if c.greeting == "" {
		return body
	}
	return c.greeting + " " + body
}
