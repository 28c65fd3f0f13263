package middleware

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIPGeneric_DirectRemote(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "203.0.113.5:54321"
	ip := clientIPGeneric(req, nil)
	if ip != "203.0.113.5" {
		t.Fatalf("expected direct remote IP, got %s", ip)
	}
}

func TestClientIPGeneric_TrustedProxyXFF(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "198.51.100.10:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.10")
	ip := clientIPGeneric(req, []string{"198.51.100.10"})
	if ip != "203.0.113.7" {
		t.Fatalf("expected X-Forwarded-For first value, got %s", ip)
	}
}

func TestClientIPGeneric_UntrustedProxyIgnoresXFF(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.local/", nil)
	req.RemoteAddr = "198.51.100.11:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.8, 198.51.100.11")
	ip := clientIPGeneric(req, []string{"198.51.100.10"})
	if ip != "198.51.100.11" {
		t.Fatalf("expected remote IP when proxy untrusted, got %s", ip)
	}
}

func TestOTPRateLimiter_SecondRequestNeedsWait(t *testing.T) {
	l := NewOTPRateLimiter()
	allowed, _, _ := l.CheckEmailRateLimit("a@example.com")
	if !allowed {
		t.Fatalf("first request should be allowed")
	}
	allowed, wait, _ := l.CheckEmailRateLimit("a@example.com")
	if allowed {
		t.Fatalf("immediate second request should be throttled")
	}
	if wait <= 0 || wait > time.Minute {
		t.Fatalf("unexpected wait duration %v", wait)
	}
}

func TestOTPRateLimiter_ResetClearsState(t *testing.T) {
	l := NewOTPRateLimiter()
	l.CheckEmailRateLimit("b@example.com")
	l.CheckEmailRateLimit("b@example.com")
	l.ResetEmailLimit("b@example.com")
	allowed, _, _ := l.CheckEmailRateLimit("b@example.com")
	if !allowed {
		t.Fatalf("request after reset should be allowed")
	}
}
