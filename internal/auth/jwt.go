package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"waste-console/internal/models"
	"waste-console/internal/session"
)

// JWTCustomClaims: console token. It only points at a server-side session, the
// store tokens never leave the server.
type JWTCustomClaims struct {
	SessionID     string      `json:"sid"`
	UserID        string      `json:"user_id"`
	Role          models.Role `json:"role"`
	InstitutionID string      `json:"institution_id,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, s *session.Session) (string, error) {
	claims := &JWTCustomClaims{
		SessionID:     s.ID,
		UserID:        s.Actor.ID,
		Role:          s.Actor.Role,
		InstitutionID: s.Actor.InstitutionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   s.Actor.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenStr string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
