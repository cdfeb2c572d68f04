// Package auth mints and verifies the HS256 session tokens that carry a
// session's identity signals: user id, effective role, and the guest flag.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/employnext/jobcore/internal/common"
	"github.com/employnext/jobcore/internal/models"
)

// Claims includes the registered claims plus the identity signals resolved
// at token mint time. Role records never change after registration, so the
// role baked into the token stays authoritative for the token's lifetime.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string      `json:"uid"`
	DisplayName string      `json:"name,omitempty"`
	Email       string      `json:"email,omitempty"`
	Role        models.Role `json:"role"`
	Guest       bool        `json:"guest,omitempty"`
}

// Session is the verified content of a token.
type Session struct {
	UserID      string
	DisplayName string
	Email       string
	Role        models.Role
	Guest       bool
}

// GenerateToken signs a session token valid for validityDuration.
func GenerateToken(s Session, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:      s.UserID,
		DisplayName: s.DisplayName,
		Email:       s.Email,
		Role:        s.Role,
		Guest:       s.Guest,
	})

	return token.SignedString(secretKey)
}

// SessionFromToken verifies tokenString and returns the session it carries.
// Expired tokens yield common.ErrTokenExpired; any other verification
// failure yields common.ErrInvalidToken.
func SessionFromToken(tokenString string, secretKey []byte) (*Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return &Session{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
		Role:        claims.Role,
		Guest:       claims.Guest,
	}, nil
}
