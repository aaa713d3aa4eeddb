package jwt

import (
	"testing"
	"time"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseTokenRoundTrip(t *testing.T) {
	payload := &Payload{
		ID:       "user-123",
		Username: "alice",
		Nickname: "Alice",
	}

	token, err := GenerateToken(payload, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	parsed, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if parsed.ID != "user-123" || parsed.Username != "alice" || parsed.Nickname != "Alice" {
		t.Fatalf("parsed claims = %q/%q/%q, want user-123/alice/Alice", parsed.ID, parsed.Username, parsed.Nickname)
	}
	if parsed.Issuer != TokenIssuer {
		t.Fatalf("issuer = %q, want %q", parsed.Issuer, TokenIssuer)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "user-123", Username: "alice"}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ParseToken(token, "a-different-secret"); err == nil {
		t.Fatal("token signed with one secret parsed successfully with another")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{ID: "user-123", Username: "alice"}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := ParseToken(token, testSecret); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.jwt", testSecret); err == nil {
		t.Fatal("malformed token accepted")
	}
}
