package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Asabi89/ken/utils"
)

func authProbe(t *testing.T) (http.Handler, *uint) {
	t.Helper()
	var seenID uint
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.GetUserID(r)
		if !ok {
			t.Fatalf("user id missing from context")
		}
		seenID = id
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(next), &seenID
}

func TestAuthMiddlewarePassesValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	handler, seenID := authProbe(t)

	token, err := utils.GenerateAccessToken(7, "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if *seenID != 7 {
		t.Fatalf("expected user id 7 in context, got %d", *seenID)
	}
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	handler, _ := authProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	handler, _ := authProbe(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsAdminToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	handler, _ := authProbe(t)

	token, err := utils.GenerateAccessToken(1, "admin")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin tokens must be rejected on user routes, got %d", rec.Code)
	}
}
