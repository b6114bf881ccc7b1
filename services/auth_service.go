package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/vetnova/clinic-platform/auth"
	"github.com/vetnova/clinic-platform/models"
	"github.com/vetnova/clinic-platform/repositories"
	"go.uber.org/zap"
)

// authTokenCookieName is the cookie name for session tokens
// (Authorization header takes precedence)
const authTokenCookieName = "auth_token"

// AuthContext holds the resolved principal and tenant for a request
type AuthContext struct {
	User   *models.User
	Clinic *models.Clinic
}

// TokenValidator defines the interface for validating session tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.ParsedClaims, error)
}

// AuthService resolves the principal and tenant behind a request
type AuthService struct {
	validator  TokenValidator
	principals repositories.PrincipalRepository
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(validator TokenValidator, principals repositories.PrincipalRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		validator:  validator,
		principals: principals,
		logger:     logger,
	}
}

// Authenticate extracts and validates the session token, then resolves the
// user and clinic it names. Any failure maps to ErrAuthenticationRequired
// or a token error; callers respond 401 and never see partial identity.
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (*AuthContext, error) {
	token := extractToken(r)
	if token == "" {
		return nil, ErrAuthenticationRequired
	}

	claims, err := s.validator.ValidateToken(ctx, token)
	if err != nil {
		s.logger.Warn("token validation failed", zap.Error(err))
		return nil, NewDomainError(ErrorTypeUnauthorized, "invalid or expired token", err)
	}

	user, err := s.principals.GetUserByID(ctx, claims.UserID)
	if err != nil {
		s.logger.Warn("principal lookup failed",
			zap.String("user_id", claims.UserID.String()),
			zap.Error(err))
		return nil, NewDomainError(ErrorTypeUnauthorized, "unknown principal", err)
	}

	clinic, err := s.principals.GetClinicByID(ctx, user.ClinicID)
	if err != nil {
		s.logger.Warn("tenant lookup failed",
			zap.String("user_id", user.ID.String()),
			zap.String("clinic_id", user.ClinicID.String()),
			zap.Error(err))
		// Authenticated user with no resolvable tenant is a configuration
		// error, not an authentication failure.
		return &AuthContext{User: user}, nil
	}

	return &AuthContext{User: user, Clinic: clinic}, nil
}

// extractToken extracts the session token from the Authorization header
// ("Bearer TOKEN") or the auth_token cookie. The header takes precedence.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
