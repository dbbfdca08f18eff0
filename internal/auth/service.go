package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agroscan/agroscan-backend/internal/users"
	pkgAuth "github.com/agroscan/agroscan-backend/pkg/auth"
	"github.com/agroscan/agroscan-backend/pkg/auth/session"
	"github.com/agroscan/agroscan-backend/pkg/config"
	"github.com/agroscan/agroscan-backend/pkg/db"
	"github.com/agroscan/agroscan-backend/pkg/db/models"
	"github.com/agroscan/agroscan-backend/pkg/enums"
	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
	"github.com/agroscan/agroscan-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error)
	Login(ctx context.Context, req LoginRequest) (*SessionResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type signupRepository interface {
	ExistsByUsernameOrMobile(ctx context.Context, username, mobile string) (bool, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionManager interface {
	Establish(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	tx          txRunner
	signupRepo  func(tx *gorm.DB) signupRepository
	users       userRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	DB             txRunner
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig

	// SignupRepo lets tests swap the tx-bound repository; defaults to the
	// users package repository.
	SignupRepo func(tx *gorm.DB) signupRepository
}

// NewService constructs the signup/login/logout service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client is required")
	}
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	signupRepo := params.SignupRepo
	if signupRepo == nil {
		signupRepo = func(tx *gorm.DB) signupRepository {
			return users.NewRepository(tx)
		}
	}
	return &service{
		tx:          params.DB,
		signupRepo:  signupRepo,
		users:       params.UserRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Signup creates the account and issues a session in one call. The role must
// parse before anything touches the database; the uniqueness check and the
// insert run inside one transaction.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*SessionResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	role, err := enums.ParseRole(strings.TrimSpace(req.Role))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be farmer or agronomist")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	mobile := strings.TrimSpace(req.Mobile)

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.signupRepo(tx)

		exists, checkErr := repo.ExistsByUsernameOrMobile(ctx, username, mobile)
		if checkErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, checkErr, "check existing user")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "username or mobile already registered")
		}

		user, createErr := repo.Create(ctx, users.CreateUserDTO{
			Username:     username,
			PasswordHash: passwordHash,
			Location:     strings.TrimSpace(req.Location),
			Role:         role,
			Mobile:       mobile,
		})
		if createErr != nil {
			if db.IsUniqueViolation(createErr, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "username or mobile already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "create user")
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, created, time.Now().UTC())
}

// Login verifies credentials and issues a session. A wrong username and a
// wrong password are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	user, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	return s.issueSession(ctx, user, now)
}

// Logout revokes the redis session; the JWT dies with it.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	input := strings.ToLower(strings.TrimSpace(username))
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByUsername(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) issueSession(ctx context.Context, user *models.User, now time.Time) (*SessionResponse, error) {
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintSessionToken(s.jwtCfg, now, pkgAuth.SessionPayload{
		UserID:   user.ID,
		Username: user.Username,
		Location: user.Location,
		Role:     user.Role,
		Mobile:   user.Mobile,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	if err := s.session.Establish(ctx, accessID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "establish session")
	}

	// The role was parsed before the user row existed, so this cannot fail
	// for a persisted user.
	route, err := user.Role.DashboardRoute()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve dashboard route")
	}

	return &SessionResponse{
		Token:          token,
		DashboardRoute: route,
		User:           users.FromModel(user),
	}, nil
}
