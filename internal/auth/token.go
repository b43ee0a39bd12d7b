package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, expired, or tampered tokens.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims carries the identity embedded in an access token.
type Claims struct {
	AccountID string
	Username  string
	Admin     bool
}

// Sign mints an HS256 access token for the given identity.
func Sign(claims Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      claims.AccountID,
		"username": claims.Username,
		"admin":    claims.Admin,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

// Parse verifies an HS256 token and extracts its identity claims.
func Parse(tokenStr string, secret []byte) (Claims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return Claims{}, ErrInvalidToken
	}
	username, _ := mapClaims["username"].(string)
	admin, _ := mapClaims["admin"].(bool)
	return Claims{AccountID: sub, Username: username, Admin: admin}, nil
}
