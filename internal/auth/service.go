package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coldrackhq/coldrack-backend/internal/users"
	pkgAuth "github.com/coldrackhq/coldrack-backend/pkg/auth"
	"github.com/coldrackhq/coldrack-backend/pkg/auth/session"
	"github.com/coldrackhq/coldrack-backend/pkg/config"
	"github.com/coldrackhq/coldrack-backend/pkg/db/models"
	pkgerrors "github.com/coldrackhq/coldrack-backend/pkg/errors"
	"github.com/coldrackhq/coldrack-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest, clientIP string) (*SessionResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*SessionResponse, error)
	Logout(ctx context.Context, accessToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type service struct {
	users    userRepository
	session  sessionManager
	limiter  rateLimiter
	jwtCfg   config.JWTConfig
	limitCfg config.AuthRateLimitConfig
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo        userRepository
	SessionManager  sessionManager
	RateLimiter     rateLimiter
	JWTConfig       config.JWTConfig
	RateLimitConfig config.AuthRateLimitConfig
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.RateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	return &service{
		users:    params.UserRepo,
		session:  params.SessionManager,
		limiter:  params.RateLimiter,
		jwtCfg:   params.JWTConfig,
		limitCfg: params.RateLimitConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest, clientIP string) (*SessionResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.allowLoginAttempt(ctx, email, clientIP); err != nil {
		return nil, err
	}

	user, err := s.authenticate(ctx, email, req.Password)
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

// Refresh rotates the refresh session and re-reads the profile so revoked
// or deactivated accounts lose access at rotation time.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*SessionResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		// The rotated session must not outlive a removed account.
		_ = s.session.Revoke(ctx, newAccessID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session no longer valid")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	if err := s.session.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session no longer valid")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session no longer valid")
	}
	return users.FromModel(user), nil
}

func (s *service) issueSession(ctx context.Context, user *models.User, now time.Time) (*SessionResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) allowLoginAttempt(ctx context.Context, email, clientIP string) error {
	window := s.limitCfg.LoginWindow
	if window <= 0 {
		return nil
	}
	if email != "" && s.limitCfg.LoginEmailLimit > 0 {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:email:"+email, int64(s.limitCfg.LoginEmailLimit), window)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
		}
		if !allowed {
			return pkgerrors.New(pkgerrors.CodeRateLimited, "too many login attempts")
		}
	}
	if clientIP != "" && s.limitCfg.LoginIPLimit > 0 {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:ip:"+clientIP, int64(s.limitCfg.LoginIPLimit), window)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
		}
		if !allowed {
			return pkgerrors.New(pkgerrors.CodeRateLimited, "too many login attempts")
		}
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, email)
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
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}
