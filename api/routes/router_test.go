package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agroscan/agroscan-backend/internal/auth"
	"github.com/agroscan/agroscan-backend/internal/crops"
	"github.com/agroscan/agroscan-backend/internal/dashboard"
	"github.com/agroscan/agroscan-backend/internal/predict"
	"github.com/agroscan/agroscan-backend/internal/queries"
	pkgAuth "github.com/agroscan/agroscan-backend/pkg/auth"
	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/enums"
	"github.com/agroscan/agroscan-backend/pkg/logger"
)

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubAuthService struct{}

func (stubAuthService) Signup(context.Context, auth.SignupRequest) (*auth.SessionResponse, error) {
	return &auth.SessionResponse{Token: "t", DashboardRoute: "/farmer/dashboard"}, nil
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.SessionResponse, error) {
	return &auth.SessionResponse{Token: "t", DashboardRoute: "/farmer/dashboard"}, nil
}

func (stubAuthService) Logout(context.Context, string) error { return nil }

type stubQueriesService struct {
	pendingCalls int
}

func (s *stubQueriesService) Submit(context.Context, string, queries.SubmitRequest) (*queries.QueryDTO, error) {
	return &queries.QueryDTO{Question: "q", Answer: "Pending", Status: enums.QueryStatusOpen}, nil
}

func (s *stubQueriesService) ListMine(context.Context, string) ([]queries.QueryDTO, error) {
	return nil, nil
}

func (s *stubQueriesService) ListPending(context.Context) ([]queries.QueryDTO, error) {
	s.pendingCalls++
	return nil, nil
}

func (s *stubQueriesService) Reply(context.Context, uuid.UUID, queries.ReplyRequest) (*queries.QueryDTO, error) {
	return &queries.QueryDTO{Status: enums.QueryStatusAnswered}, nil
}

type stubCropsService struct{}

func (stubCropsService) ListMine(context.Context, string) ([]crops.CropHealthDTO, error) {
	return nil, nil
}

func (stubCropsService) Correct(context.Context, uuid.UUID, string, crops.CorrectRequest) (*crops.CropHealthDTO, error) {
	return &crops.CropHealthDTO{Prediction: "Unhealthy"}, nil
}

type stubDashboardService struct{}

func (stubDashboardService) Live(context.Context, string, string) (*dashboard.LiveView, error) {
	return &dashboard.LiveView{WeatherAlert: "clear"}, nil
}

type stubPredictService struct{}

func (stubPredictService) PredictImage(context.Context, predict.PredictImageInput) (*predict.CropHealthResult, error) {
	return &predict.CropHealthResult{Prediction: "Healthy"}, nil
}

func (stubPredictService) RecommendCrop(context.Context, predict.SoilInput) (*predict.RecommendationResult, error) {
	return &predict.RecommendationResult{Recommendation: "rice"}, nil
}

func (stubPredictService) Degraded() bool { return false }

type stubSoilRepo struct{}

func (stubSoilRepo) ListByUsername(context.Context, string) ([]models.SoilData, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080", RequestTimeout: 30 * time.Second},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "agroscan-test", ExpirationDays: 1},
	}
}

func newTestRouter(t *testing.T, queriesSvc queries.Service) http.Handler {
	t.Helper()
	return NewRouter(RouterParams{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "router-test"}),
		Sessions:  stubSessionChecker{},
		Auth:      stubAuthService{},
		Predict:   stubPredictService{},
		Crops:     stubCropsService{},
		Queries:   queriesSvc,
		Dashboard: stubDashboardService{},
		Soil:      stubSoilRepo{},
	})
}

func mintToken(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintSessionToken(testConfig().JWT, time.Now(), pkgAuth.SessionPayload{
		UserID:   uuid.New(),
		Username: "ravi",
		Location: "Pune",
		Role:     role,
		JTI:      uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, &stubQueriesService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := newTestRouter(t, &stubQueriesService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/live", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestFarmerTokenReachesFarmerRoutes(t *testing.T) {
	router := newTestRouter(t, &stubQueriesService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/farmer/queries", strings.NewReader(`{"question":"why are my leaves yellow?"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleFarmer))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestFarmerTokenBlockedFromAgronomistRoutes(t *testing.T) {
	svc := &stubQueriesService{}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agronomist/queries", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleFarmer))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if svc.pendingCalls != 0 {
		t.Fatal("handler must not run for a forbidden role")
	}
}

func TestDashboardIsFarmerOnly(t *testing.T) {
	router := newTestRouter(t, &stubQueriesService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/live", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleAgronomist))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAgronomistTokenReachesQueue(t *testing.T) {
	router := newTestRouter(t, &stubQueriesService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/agronomist/queries", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleAgronomist))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginCookieCarriesSessionLifetime(t *testing.T) {
	router := newTestRouter(t, &stubQueriesService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"ravi","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "agroscan_session" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("login must set the session cookie")
	}
	if want := int((24 * time.Hour).Seconds()); session.MaxAge != want {
		t.Fatalf("expected cookie max-age %d, got %d", want, session.MaxAge)
	}
}

type deadlineDashboard struct {
	hadDeadline bool
}

func (d *deadlineDashboard) Live(ctx context.Context, _, _ string) (*dashboard.LiveView, error) {
	_, d.hadDeadline = ctx.Deadline()
	return &dashboard.LiveView{}, nil
}

func TestRequestsCarryTheConfiguredTimeout(t *testing.T) {
	svc := &deadlineDashboard{}
	router := NewRouter(RouterParams{
		Config:    testConfig(),
		Logger:    logger.New(logger.Options{ServiceName: "router-test"}),
		Sessions:  stubSessionChecker{},
		Auth:      stubAuthService{},
		Predict:   stubPredictService{},
		Crops:     stubCropsService{},
		Queries:   &stubQueriesService{},
		Dashboard: svc,
		Soil:      stubSoilRepo{},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/live", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleFarmer))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !svc.hadDeadline {
		t.Fatal("handlers must run under the configured request deadline")
	}
}

func TestSessionCookieAuthenticates(t *testing.T) {
	router := newTestRouter(t, &stubQueriesService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/live", nil)
	req.AddCookie(&http.Cookie{Name: "agroscan_session", Value: mintToken(t, enums.RoleFarmer)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data dashboard.LiveView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.WeatherAlert != "clear" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}
