package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestParseToken(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"sub":          "user-1",
		"email":        "user@example.com",
		"access_token": "ya29.token",
	})

	sess, err := ParseToken(raw, testSecret)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if sess.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", sess.UserID, "user-1")
	}
	if sess.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", sess.Email, "user@example.com")
	}
	if sess.AccessToken != "ya29.token" {
		t.Errorf("AccessToken = %q, want %q", sess.AccessToken, "ya29.token")
	}
}

func TestParseToken_NoAccessToken(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "user-1", "email": "user@example.com"})

	sess, err := ParseToken(raw, testSecret)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if sess.AccessToken != "" {
		t.Errorf("AccessToken = %q, want empty", sess.AccessToken)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "user-1"})

	if _, err := ParseToken(raw, "other-secret"); err == nil {
		t.Error("expected error for wrong secret, got nil")
	}
}

func TestParseToken_NoIdentity(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"access_token": "ya29.token"})

	if _, err := ParseToken(raw, testSecret); err == nil {
		t.Error("expected error for token without identity, got nil")
	}
}

func TestSessionContextRoundTrip(t *testing.T) {
	sess := &Session{UserID: "user-1"}
	ctx := WithSession(context.Background(), sess)

	got := FromContext(ctx)
	if got == nil || got.UserID != "user-1" {
		t.Errorf("FromContext = %+v, want session with UserID user-1", got)
	}

	if FromContext(context.Background()) != nil {
		t.Error("FromContext on empty context should be nil")
	}
}
