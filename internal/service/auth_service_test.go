package service

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestAuthDisabledWithoutPassword(t *testing.T) {
	auth, err := NewAuthService("", "secret", time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	if auth.Enabled() {
		t.Fatal("auth should be disabled without a password")
	}
	if _, apiErr := auth.Login(context.Background(), "anything"); apiErr == nil || apiErr.Status != http.StatusNotFound {
		t.Fatalf("login should be unavailable, got %v", apiErr)
	}
}

func TestLoginAndParseToken(t *testing.T) {
	auth, err := NewAuthService("hunter22", "secret", time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	ctx := context.Background()

	if _, apiErr := auth.Login(ctx, "wrong"); apiErr == nil || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("wrong password should be rejected, got %v", apiErr)
	}
	if _, apiErr := auth.Login(ctx, ""); apiErr == nil || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("empty password should be a bad request, got %v", apiErr)
	}

	result, apiErr := auth.Login(ctx, "hunter22")
	if apiErr != nil {
		t.Fatalf("login: %v", apiErr)
	}
	if result.Token == "" || !result.ExpiresAt.After(time.Now()) {
		t.Fatalf("unexpected result %+v", result)
	}

	subject, apiErr := auth.ParseToken(result.Token)
	if apiErr != nil || subject != localSubject {
		t.Fatalf("parse token: %q %v", subject, apiErr)
	}

	other, _ := NewAuthService("hunter22", "other-secret", time.Hour)
	if _, apiErr := other.ParseToken(result.Token); apiErr == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	auth, _ := NewAuthService("pw", "secret", -time.Minute)
	result, apiErr := auth.Login(context.Background(), "pw")
	if apiErr != nil {
		t.Fatalf("login: %v", apiErr)
	}
	if _, apiErr := auth.ParseToken(result.Token); apiErr == nil {
		t.Fatal("expired token must be rejected")
	}
}
