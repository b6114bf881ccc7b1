package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the custom claims in a session token
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	ClinicID string `json:"clinic_id"`
	Role     string `json:"role"`
}

// ParsedClaims represents parsed and validated claims
type ParsedClaims struct {
	UserID    uuid.UUID
	ClinicID  uuid.UUID
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Parse validates the claim shapes and converts them to typed values
func (c *Claims) Parse() (*ParsedClaims, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	clinicID, err := uuid.Parse(c.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("invalid clinic_id claim: %w", err)
	}

	parsed := &ParsedClaims{
		UserID:   userID,
		ClinicID: clinicID,
		Email:    c.Email,
		Role:     c.Role,
	}
	if c.IssuedAt != nil {
		parsed.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		parsed.ExpiresAt = c.ExpiresAt.Time
	}
	return parsed, nil
}
