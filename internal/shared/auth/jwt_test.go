package auth

import (
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "user-1", Sid: "session-1", Email: "a@b.test", Name: "Alice"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected 3-segment token, got %q", token)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Sub != "user-1" || claims.Sid != "session-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Email != "a@b.test" {
		t.Fatalf("expected email to round-trip, got %q", claims.Email)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{Sub: "user-1", Sid: "session-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := VerifyJWT(token + "x"); err == nil {
		t.Fatalf("expected tampered token to fail verification")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	past := time.Now().UTC().Add(-time.Hour).Unix()
	token, err := SignJWT(Claims{Sub: "user-1", Sid: "session-1", Iat: past - 60, Exp: past})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyJWT(token); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestSignRequiresSessionID(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := SignJWT(Claims{Sub: "user-1"}); err == nil {
		t.Fatalf("expected error for missing sid")
	}
}
