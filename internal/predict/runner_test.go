package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
)

func TestRunnerPostsInstancesAndDecodesPredictions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Instances [][]float64 `json:"instances"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Instances) != 1 {
			t.Errorf("expected one instance, got %d", len(req.Instances))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predictions":[[0.1,0.9]]}`))
	}))
	t.Cleanup(server.Close)

	runner := NewRunner(2 * time.Second)
	rows, err := runner.Predict(context.Background(), server.URL, [][]float64{{1, 2, 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0][1] != 0.9 {
		t.Fatalf("unexpected predictions %v", rows)
	}
}

func TestRunnerNon2xxIsDependencyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	runner := NewRunner(2 * time.Second)
	_, err := runner.Predict(context.Background(), server.URL, []float64{1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRunnerMalformedBodyIsDependencyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	t.Cleanup(server.Close)

	runner := NewRunner(2 * time.Second)
	_, err := runner.Predict(context.Background(), server.URL, []float64{1})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRunnerEmptyPredictionsIsDependencyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions":[]}`))
	}))
	t.Cleanup(server.Close)

	runner := NewRunner(2 * time.Second)
	if _, err := runner.Predict(context.Background(), server.URL, []float64{1}); err == nil {
		t.Fatal("expected error for empty predictions")
	}
}
