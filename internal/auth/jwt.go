package auth

import (
	"errors"
	"fmt"
	"time"

	"offerwise_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Roles. Advisors curate candidate pools; admins additionally manage the
// program corpus. Tokens are minted by the account service, this module only
// validates them (and mints its own in tests).
const (
	RoleAdvisor = "advisor"
	RoleAdmin   = "admin"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the authenticated user identity.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(userID, name, role string) (string, error) {
	cfg := config.GetConfig()
	now := time.Now()

	claims := &Claims{
		UserID: userID,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.JWT.TTL) * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.GetConfig()

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func ValidateRole(role string) error {
	switch role {
	case RoleAdvisor, RoleAdmin:
		return nil
	default:
		return errors.New("invalid role")
	}
}
