package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/logger"
	"github.com/agroscan/agroscan-backend/pkg/weather"
)

type stubFetcher struct {
	report *weather.Report
	err    error
	calls  int
}

func (s *stubFetcher) Current(context.Context, string) (*weather.Report, error) {
	s.calls++
	return s.report, s.err
}

func newComposer(t *testing.T, fetcher weather.Fetcher) *Composer {
	t.Helper()
	composer, err := NewComposer(fetcher, config.AlertsConfig{Greeting: "Hello from AgroScan!"}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	return composer
}

func TestComposeEmbedsWeatherReport(t *testing.T) {
	fetcher := &stubFetcher{report: &weather.Report{Description: "clear sky", TempCelsius: 28.4, HasData: true}}
	composer := newComposer(t, fetcher)

	msg := composer.Compose(context.Background(), "Pune")
	if !strings.Contains(msg, "clear sky") || !strings.Contains(msg, "28.4") {
		t.Fatalf("expected report details in message, got %q", msg)
	}
	if !strings.HasPrefix(msg, "Hello from AgroScan!") {
		t.Fatalf("expected greeting prefix, got %q", msg)
	}
}

func TestComposeBlankLocationSkipsProvider(t *testing.T) {
	fetcher := &stubFetcher{}
	composer := newComposer(t, fetcher)

	msg := composer.Compose(context.Background(), "   ")
	if !strings.Contains(msg, "location not set") {
		t.Fatalf("expected missing-location message, got %q", msg)
	}
	if fetcher.calls != 0 {
		t.Fatal("provider must not be called for a blank location")
	}
}

func TestComposeProviderFailureFallsBack(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("upstream 503")}
	composer := newComposer(t, fetcher)

	msg := composer.Compose(context.Background(), "Pune")
	if !strings.Contains(msg, "unavailable") || !strings.Contains(msg, "upstream 503") {
		t.Fatalf("expected degraded message with provider error, got %q", msg)
	}
}

func TestComposeNoDataForLocation(t *testing.T) {
	fetcher := &stubFetcher{report: &weather.Report{HasData: false}}
	composer := newComposer(t, fetcher)

	msg := composer.Compose(context.Background(), "Nowhere")
	if !strings.Contains(msg, "No weather data") {
		t.Fatalf("expected no-data message, got %q", msg)
	}
}
