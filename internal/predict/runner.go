package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
)

// Runner posts tensors to a model-serving endpoint and returns the raw
// prediction rows. Runner failures are dependency errors, never validation.
type Runner interface {
	Predict(ctx context.Context, runnerURL string, instances any) ([][]float64, error)
}

type httpRunner struct {
	client *http.Client
}

// NewRunner builds the HTTP runner with the configured request timeout.
func NewRunner(timeout time.Duration) Runner {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpRunner{client: &http.Client{Timeout: timeout}}
}

type runnerRequest struct {
	Instances any `json:"instances"`
}

type runnerResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

func (r *httpRunner) Predict(ctx context.Context, runnerURL string, instances any) ([][]float64, error) {
	body, err := json.Marshal(runnerRequest{Instances: instances})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding runner request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, runnerURL, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building runner request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling model runner")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("model runner returned %d: %s", resp.StatusCode, string(snippet)))
	}

	var payload runnerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding runner response")
	}
	if payload.Error != "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "model runner error: "+payload.Error)
	}
	if len(payload.Predictions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "model runner returned no predictions")
	}
	return payload.Predictions, nil
}
