package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vetnova/clinic-platform/auth"
	"github.com/vetnova/clinic-platform/models"
	"go.uber.org/zap"
)

// stubValidator maps token strings to fixed claims
type stubValidator struct {
	claims *auth.ParsedClaims
	err    error
}

func (s *stubValidator) ValidateToken(ctx context.Context, token string) (*auth.ParsedClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

// MockPrincipalRepository is a mock implementation of PrincipalRepository
type MockPrincipalRepository struct {
	mock.Mock
}

func (m *MockPrincipalRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPrincipalRepository) GetClinicByID(ctx context.Context, id uuid.UUID) (*models.Clinic, error) {
	args := m.Called(ctx, id)
	if clinic := args.Get(0); clinic != nil {
		return clinic.(*models.Clinic), args.Error(1)
	}
	return nil, args.Error(1)
}

func validClaims(userID, clinicID uuid.UUID) *auth.ParsedClaims {
	return &auth.ParsedClaims{
		UserID:    userID,
		ClinicID:  clinicID,
		Email:     "vet@clinic.example",
		Role:      "vet",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	userID := uuid.New()
	clinicID := uuid.New()
	user := &models.User{ID: userID, ClinicID: clinicID, Role: models.RoleVet}
	clinic := &models.Clinic{ID: clinicID, Name: "North Paws"}

	t.Run("resolves user and clinic", func(t *testing.T) {
		repo := &MockPrincipalRepository{}
		repo.On("GetUserByID", mock.Anything, userID).Return(user, nil)
		repo.On("GetClinicByID", mock.Anything, clinicID).Return(clinic, nil)

		svc := NewAuthService(&stubValidator{claims: validClaims(userID, clinicID)}, repo, zap.NewNop())

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer some-token")

		authCtx, err := svc.Authenticate(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, user, authCtx.User)
		assert.Equal(t, clinic, authCtx.Clinic)
		repo.AssertExpectations(t)
	})

	t.Run("missing token", func(t *testing.T) {
		svc := NewAuthService(&stubValidator{}, &MockPrincipalRepository{}, zap.NewNop())

		_, err := svc.Authenticate(context.Background(), httptest.NewRequest("GET", "/", nil))
		assert.ErrorIs(t, err, ErrAuthenticationRequired)
	})

	t.Run("invalid token", func(t *testing.T) {
		svc := NewAuthService(&stubValidator{err: errors.New("bad signature")}, &MockPrincipalRepository{}, zap.NewNop())

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer whatever")

		_, err := svc.Authenticate(context.Background(), r)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown principal", func(t *testing.T) {
		repo := &MockPrincipalRepository{}
		repo.On("GetUserByID", mock.Anything, userID).Return(nil, ErrUserNotFound)

		svc := NewAuthService(&stubValidator{claims: validClaims(userID, clinicID)}, repo, zap.NewNop())

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer some-token")

		_, err := svc.Authenticate(context.Background(), r)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAuthenticationRequired)
	})

	t.Run("unresolvable clinic yields user without tenant", func(t *testing.T) {
		repo := &MockPrincipalRepository{}
		repo.On("GetUserByID", mock.Anything, userID).Return(user, nil)
		repo.On("GetClinicByID", mock.Anything, clinicID).Return(nil, ErrClinicNotFound)

		svc := NewAuthService(&stubValidator{claims: validClaims(userID, clinicID)}, repo, zap.NewNop())

		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer some-token")

		authCtx, err := svc.Authenticate(context.Background(), r)
		require.NoError(t, err)
		assert.Equal(t, user, authCtx.User)
		assert.Nil(t, authCtx.Clinic)
	})
}

func TestExtractToken(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer abc.def.ghi")
		assert.Equal(t, "abc.def.ghi", extractToken(r))
	})

	t.Run("case insensitive scheme", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "bearer abc")
		assert.Equal(t, "abc", extractToken(r))
	})

	t.Run("cookie fallback", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
		assert.Equal(t, "cookie-token", extractToken(r))
	})

	t.Run("header beats cookie", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer header-token")
		r.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
		assert.Equal(t, "header-token", extractToken(r))
	})

	t.Run("non-bearer scheme ignored", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		assert.Equal(t, "", extractToken(r))
	})
}
