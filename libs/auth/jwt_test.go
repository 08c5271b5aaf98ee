package auth

import (
	"testing"
	"time"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	token, issued, err := signer.Sign(42, "admin")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("expected user 42, got %d (%v)", id, err)
	}
	if claims.Role != "admin" || claims.ID != issued.ID || claims.ID == "" {
		t.Fatalf("claims mismatch: got %+v", claims)
	}

	if _, err := NewSigner("wrong-secret", time.Hour).Verify(token); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	signer := NewSigner("test-secret", time.Minute)
	signer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := signer.Sign(1, "customer")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	verifier := NewSigner("test-secret", time.Minute)
	if _, err := verifier.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	claims, err := ParseUnverified(token)
	if err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}
	if !claims.ExpiresAtTime().Before(time.Now()) {
		t.Fatalf("expected expiry in the past, got %s", claims.ExpiresAtTime())
	}
}

func TestParseUnverifiedRejectsGarbage(t *testing.T) {
	if _, err := ParseUnverified("not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
