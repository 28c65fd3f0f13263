package utils

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tokenStr, err := GenerateAccessToken(42, "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	_, claims, err := ValidateAccessToken(tokenStr)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id, ok := claims["id"].(float64); !ok || uint(id) != 42 {
		t.Fatalf("expected id claim 42, got %v", claims["id"])
	}
	if role, _ := claims["role"].(string); role != "user" {
		t.Fatalf("expected role user, got %v", claims["role"])
	}
	if jti, _ := claims["jti"].(string); jti == "" {
		t.Fatalf("expected a jti claim")
	}
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	tokenStr, err := GenerateAccessTokenWithExpiry(42, "user", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, _, err := ValidateAccessToken(tokenStr); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	tokenStr, err := GenerateAccessToken(42, "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	t.Setenv("JWT_SECRET", "other-secret")
	if _, _, err := ValidateAccessToken(tokenStr); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, _, err := ValidateAccessToken("not.a.token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestGenerateAccessTokenNeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := GenerateAccessToken(1, "user"); err == nil {
		t.Fatalf("expected error when JWT_SECRET is unset")
	}
}
