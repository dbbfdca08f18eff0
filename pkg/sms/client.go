package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

// Sender exposes the delivery surface consumed by the alert job.
type Sender interface {
	Send(ctx context.Context, toNumber, message string) error
}

// Client posts messages to a Fast2SMS-compatible bulk endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	senderID   string
	route      string
	logg       *logger.Logger
}

type providerResponse struct {
	Return  bool   `json:"return"`
	Message any    `json:"message"`
	Request string `json:"request_id"`
}

// NewClient builds an SMS client from configuration.
func NewClient(cfg config.SMSConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("sms base url is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("sms api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		senderID:   cfg.SenderID,
		route:      cfg.Route,
		logg:       logg,
	}, nil
}

// Send delivers one message to one number. The provider signals failure both
// through HTTP status and through `"return": false` in an otherwise-200 body.
func (c *Client) Send(ctx context.Context, toNumber, message string) error {
	if strings.TrimSpace(toNumber) == "" {
		return errors.New("destination number is required")
	}
	if strings.TrimSpace(message) == "" {
		return errors.New("message is required")
	}

	form := url.Values{}
	form.Set("sender_id", c.senderID)
	form.Set("message", message)
	form.Set("route", c.route)
	form.Set("numbers", toNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling sms provider: %w", err)
	}
	defer closeBody(ctx, c.logg, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, string(body))
	}

	var payload providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decoding sms response: %w", err)
	}
	if !payload.Return {
		return fmt.Errorf("sms provider rejected message: %v", payload.Message)
	}
	return nil
}

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, "closing sms response body failed")
	}
}
