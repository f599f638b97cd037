package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role represents a user's permission level within the event.
type Role string

const (
	RoleDJ    Role = "dj"    // Full control: approvals, queue, codes, playlists
	RoleGuest Role = "guest" // Can only search, submit, and view
)

// Claims represents the JWT payload for authenticated requests.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles JWT token generation and validation.
type AuthService struct {
	secret             []byte
	djTokenDuration    time.Duration
	guestTokenDuration time.Duration
}

// NewAuthService creates an AuthService with the given signing secret and
// token durations.
func NewAuthService(secret string, djDuration, guestDuration time.Duration) *AuthService {
	return &AuthService{
		secret:             []byte(secret),
		djTokenDuration:    djDuration,
		guestTokenDuration: guestDuration,
	}
}

// GenerateToken creates a signed JWT for the given role. DJ tokens have a
// longer expiry than guest tokens.
func (s *AuthService) GenerateToken(role Role) (string, error) {
	var duration time.Duration
	if role == RoleDJ {
		duration = s.djTokenDuration
	} else {
		duration = s.guestTokenDuration
	}

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "trackdeck",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies the JWT signature and expiry, returning the claims
// if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
