package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/internal/users"
	pkgAuth "github.com/agroscan/agroscan-backend/pkg/auth"
	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/enums"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/security"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubSignupRepo struct {
	existing map[string]bool
	created  *models.User
}

func (s *stubSignupRepo) ExistsByUsernameOrMobile(ctx context.Context, username, mobile string) (bool, error) {
	return s.existing[username], nil
}

func (s *stubSignupRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	s.created = user
	return user, nil
}

type stubUserRepo struct {
	byUsername map[string]*models.User
	lastLogin  *uuid.UUID
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if user, ok := s.byUsername[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = &id
	return nil
}

type stubSessionManager struct {
	established []string
	revoked     []string
}

func (s *stubSessionManager) Establish(ctx context.Context, accessID string) error {
	s.established = append(s.established, accessID)
	return nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:         "test-secret-at-least-32-bytes-long!",
		Issuer:         "agroscan-test",
		ExpirationDays: 7,
	}
}

func newTestService(t *testing.T, signup *stubSignupRepo, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		DB:             stubTxRunner{},
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      jwtTestConfig(),
		PasswordConfig: config.PasswordConfig{},
		SignupRepo: func(tx *gorm.DB) signupRepository {
			return signup
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSignupIssuesSessionAndDashboardRoute(t *testing.T) {
	signup := &stubSignupRepo{}
	sessions := &stubSessionManager{}
	svc := newTestService(t, signup, &stubUserRepo{}, sessions)

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Username: "Ravi",
		Password: "strong-password-1",
		Location: "Pune",
		Role:     "farmer",
		Mobile:   "9876543210",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if signup.created == nil {
		t.Fatal("expected a user row")
	}
	if signup.created.Username != "ravi" {
		t.Fatalf("username must be lowercased, got %q", signup.created.Username)
	}
	if signup.created.PasswordHash == "strong-password-1" {
		t.Fatal("password must be hashed")
	}
	if ok, _ := security.VerifyPassword("strong-password-1", signup.created.PasswordHash); !ok {
		t.Fatal("stored hash must verify against the original password")
	}

	farmerRoute, err := enums.RoleFarmer.DashboardRoute()
	if err != nil {
		t.Fatalf("farmer route: %v", err)
	}
	if resp.DashboardRoute != farmerRoute {
		t.Fatalf("unexpected dashboard route %q", resp.DashboardRoute)
	}
	if len(sessions.established) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions.established))
	}

	claims, err := pkgAuth.ParseSessionToken(jwtTestConfig(), resp.Token)
	if err != nil {
		t.Fatalf("token must parse: %v", err)
	}
	if claims.Role != enums.RoleFarmer || claims.Username != "ravi" || claims.Location != "Pune" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID != sessions.established[0] {
		t.Fatal("jti must match the established session key")
	}
}

func TestSignupRejectsUnknownRoleWithoutRow(t *testing.T) {
	signup := &stubSignupRepo{}
	sessions := &stubSessionManager{}
	svc := newTestService(t, signup, &stubUserRepo{}, sessions)

	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "maya",
		Password: "strong-password-1",
		Role:     "vet",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if signup.created != nil {
		t.Fatal("no row may be created for an invalid role")
	}
	if len(sessions.established) != 0 {
		t.Fatal("no session may be issued for an invalid role")
	}
}

func TestSignupDuplicateUsernameConflicts(t *testing.T) {
	signup := &stubSignupRepo{existing: map[string]bool{"ravi": true}}
	svc := newTestService(t, signup, &stubUserRepo{}, &stubSessionManager{})

	_, err := svc.Signup(context.Background(), SignupRequest{
		Username: "ravi",
		Password: "strong-password-1",
		Role:     "farmer",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func seededUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Username:     "ravi",
		PasswordHash: hash,
		Location:     "Pune",
		Role:         enums.RoleFarmer,
		Mobile:       "9876543210",
	}
}

func TestLoginWrongPasswordIsInvalidCredentials(t *testing.T) {
	repo := &stubUserRepo{byUsername: map[string]*models.User{
		"ravi": seededUser(t, "correct-password"),
	}}
	sessions := &stubSessionManager{}
	svc := newTestService(t, &stubSignupRepo{}, repo, sessions)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "ravi", Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != "invalid credentials" {
		t.Fatalf("message must not reveal which part failed, got %q", typed.Message())
	}
	if len(sessions.established) != 0 {
		t.Fatal("no session may be issued for a failed login")
	}
}

func TestLoginUnknownUserIsIndistinguishable(t *testing.T) {
	svc := newTestService(t, &stubSignupRepo{}, &stubUserRepo{byUsername: map[string]*models.User{}}, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "whatever"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized || typed.Message() != "invalid credentials" {
		t.Fatalf("expected generic invalid credentials, got %v", err)
	}
}

func TestLoginSuccessRecordsLastLogin(t *testing.T) {
	user := seededUser(t, "correct-password")
	repo := &stubUserRepo{byUsername: map[string]*models.User{"ravi": user}}
	sessions := &stubSessionManager{}
	svc := newTestService(t, &stubSignupRepo{}, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "Ravi", Password: "correct-password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLogin == nil || *repo.lastLogin != user.ID {
		t.Fatal("expected last login to be recorded")
	}
	if resp.User == nil || resp.User.Username != "ravi" {
		t.Fatalf("unexpected user payload %+v", resp.User)
	}
	if len(sessions.established) != 1 {
		t.Fatal("expected one session")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessionManager{}
	svc := newTestService(t, &stubSignupRepo{}, &stubUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), "access-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-1" {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}

	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Fatal("expected error for blank access id")
	}
}
