package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenValidator_RoundTrip(t *testing.T) {
	validator := NewTokenValidator(Config{Secret: "test-secret", Issuer: "vetnova"})

	userID := uuid.New()
	clinicID := uuid.New()

	token, err := validator.IssueToken(userID.String(), clinicID.String(), "vet@clinic.example", "vet", time.Hour)
	require.NoError(t, err)

	claims, err := validator.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, clinicID, claims.ClinicID)
	assert.Equal(t, "vet@clinic.example", claims.Email)
	assert.Equal(t, "vet", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestTokenValidator_Expired(t *testing.T) {
	validator := NewTokenValidator(Config{Secret: "test-secret", Issuer: "vetnova"})

	token, err := validator.IssueToken(uuid.New().String(), uuid.New().String(), "", "staff", -time.Minute)
	require.NoError(t, err)

	_, err = validator.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenValidator_WrongSecret(t *testing.T) {
	issuer := NewTokenValidator(Config{Secret: "secret-a", Issuer: "vetnova"})
	validator := NewTokenValidator(Config{Secret: "secret-b", Issuer: "vetnova"})

	token, err := issuer.IssueToken(uuid.New().String(), uuid.New().String(), "", "staff", time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenValidator_WrongIssuer(t *testing.T) {
	issuer := NewTokenValidator(Config{Secret: "test-secret", Issuer: "someone-else"})
	validator := NewTokenValidator(Config{Secret: "test-secret", Issuer: "vetnova"})

	token, err := issuer.IssueToken(uuid.New().String(), uuid.New().String(), "", "staff", time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestTokenValidator_RejectsUnsignedAlg(t *testing.T) {
	validator := NewTokenValidator(Config{Secret: "test-secret", Issuer: "vetnova"})

	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: uuid.New().String(),
			Issuer:  "vetnova",
		},
		ClinicID: uuid.New().String(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = validator.ValidateToken(context.Background(), signed)
	assert.Error(t, err)
}

func TestTokenValidator_GarbageToken(t *testing.T) {
	validator := NewTokenValidator(Config{Secret: "test-secret", Issuer: "vetnova"})

	_, err := validator.ValidateToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_Parse(t *testing.T) {
	t.Run("invalid subject", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"},
			ClinicID:         uuid.New().String(),
		}
		_, err := claims.Parse()
		assert.ErrorContains(t, err, "invalid subject claim")
	})

	t.Run("invalid clinic id", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.New().String()},
			ClinicID:         "not-a-uuid",
		}
		_, err := claims.Parse()
		assert.ErrorContains(t, err, "invalid clinic_id claim")
	})
}
