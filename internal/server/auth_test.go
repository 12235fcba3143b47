package server

import (
	"strings"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "secret123") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "secret124") {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 30*time.Minute)

	token, err := issuer.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	email, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if email != "alice@example.com" {
		t.Fatalf("email = %q", email)
	}
}

func TestTokenExpires(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 30*time.Minute)
	issued := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	token, err := issuer.Issue("alice@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(29 * time.Minute) }
	if _, err := issuer.Verify(token); err != nil {
		t.Fatalf("token expired early: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(31 * time.Minute) }
	if _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected an expired-token error")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", 30*time.Minute).Issue("alice@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenIssuer("secret-b", 30*time.Minute).Verify(token); err == nil {
		t.Fatal("expected a signature error for the wrong secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 30*time.Minute)
	for _, tok := range []string{"", "garbage", strings.Repeat("a.", 3)} {
		if _, err := issuer.Verify(tok); err == nil {
			t.Fatalf("verify(%q) succeeded", tok)
		}
	}
}
