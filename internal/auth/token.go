package auth

import (
	"time"

	"github.com/and161185/gamewallet/internal/errs"
	"github.com/golang-jwt/jwt/v5"
)

const adminRole = "admin"

const tokenTTL = 24 * time.Hour

type TokenManager struct {
	secretKey []byte
}

func NewTokenManager(secretKey string) *TokenManager {
	return &TokenManager{[]byte(secretKey)}
}

// GenerateToken issues an admin bearer token valid for one day.
func (tm *TokenManager) GenerateToken(adminID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  adminID,
		"role": adminRole,
		"exp":  now.Add(tokenTTL).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

// ParseToken returns the admin id carried by a valid token.
func (tm *TokenManager) ParseToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errs.ErrInvalidToken
		}
		return tm.secretKey, nil
	})

	if err != nil || !token.Valid {
		return "", errs.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errs.ErrInvalidToken
	}

	if role, _ := claims["role"].(string); role != adminRole {
		return "", errs.ErrInvalidToken
	}

	adminID, ok := claims["sub"].(string)
	if !ok || adminID == "" {
		return "", errs.ErrInvalidToken
	}

	return adminID, nil
}
