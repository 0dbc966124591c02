package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/carsound-ops/api/internal/enum"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is stamped on every token this service mints and required on every
// token it accepts.
const Issuer = "carsound-ops"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownRole  = errors.New("unknown role")
)

// Claims identify the operator behind a request. Name is what ends up in
// salesperson and closed_by columns.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed access token. Users and roles live in the
// shop's identity system; this service only verifies what it is handed.
func GenerateToken(secret string, userID uuid.UUID, name, role string, ttl time.Duration) (string, error) {
	if !enum.ValidUserRole(role) {
		return "", fmt.Errorf("%q: %w", role, ErrUnknownRole)
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken checks signature, expiry and issuer, and rejects roles this
// service does not know.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	claims := &Claims{}
	key := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }
	if _, err := parser.ParseWithClaims(tokenStr, claims, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !enum.ValidUserRole(claims.Role) {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidToken, claims.Role, ErrUnknownRole)
	}
	return claims, nil
}
