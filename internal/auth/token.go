// Package auth issues and checks the bearer tokens that carry a user id to the server.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer   = "taskboard"
	audience = "taskboard-api"

	HeaderKey = "Authorization"
)

var ErrNoToken = errors.New("no token provided")

type Claims struct {
	jwt.RegisteredClaims
}

// NewToken returns an HS256 token whose subject is userID.
func NewToken(userID string, ttl time.Duration, secret []byte) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("user id is empty")
	}
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return t.SignedString(secret)
}

// ValidateToken checks signature, expiry and audience and returns the user id.
func ValidateToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithAudience(audience), jwt.WithIssuer(issuer))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// FromHeader extracts the token from an "Authorization: Bearer <token>" value.
func FromHeader(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ErrNoToken
	}
	tok, ok := strings.CutPrefix(v, "Bearer ")
	if !ok || strings.TrimSpace(tok) == "" {
		return "", errors.New("invalid authorization header")
	}
	return strings.TrimSpace(tok), nil
}
