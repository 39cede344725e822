package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestToken_RoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := NewToken("user-1", time.Hour, secret)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	uid, err := ValidateToken(tok, secret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if uid != "user-1" {
		t.Fatalf("subject = %q", uid)
	}
}

func TestToken_Rejects(t *testing.T) {
	secret := []byte("s3cret")

	wrong, _ := NewToken("user-1", time.Hour, []byte("other"))
	if _, err := ValidateToken(wrong, secret); err == nil {
		t.Fatalf("expected signature error")
	}

	expired, _ := NewToken("user-1", -time.Minute, secret)
	if _, err := ValidateToken(expired, secret); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{"someone-else"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, _ := foreign.SignedString(secret)
	if _, err := ValidateToken(s, secret); err == nil {
		t.Fatalf("expected audience error")
	}

	if _, err := NewToken(" ", time.Hour, secret); err == nil {
		t.Fatalf("expected empty user error")
	}
}

func TestFromHeader(t *testing.T) {
	if _, err := FromHeader(""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if _, err := FromHeader("Token abc"); err == nil {
		t.Fatalf("expected malformed header error")
	}
	tok, err := FromHeader("Bearer abc")
	if err != nil || tok != "abc" {
		t.Fatalf("FromHeader = %q, %v", tok, err)
	}
}
