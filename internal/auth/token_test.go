package auth

import (
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{AccountID: "acc-1", Username: "alice", Admin: true}

	token, err := Sign(claims, secret, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := Parse(token, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != claims {
		t.Fatalf("claims round trip: got %+v, want %+v", got, claims)
	}
}

func TestParseRejections(t *testing.T) {
	secret := []byte("test-secret")
	claims := Claims{AccountID: "acc-1", Username: "alice"}

	expired, err := Sign(claims, secret, -time.Minute)
	if err != nil {
		t.Fatalf("sign expired: %v", err)
	}
	if _, err := Parse(expired, secret); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	token, err := Sign(claims, secret, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token, []byte("other-secret")); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := Parse("not.a.token", secret); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
