package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// OTPRequestRecord tracks verification-code requests for an email address
type OTPRequestRecord struct {
	Count       int
	FirstReqAt  time.Time
	LastReqAt   time.Time
	Locked      bool
	LockedUntil time.Time
}

// OTPRateLimiter throttles verification-code issuance per email and per IP.
// Resend intervals escalate: immediate, 1m, 5m, 10m, then a 1 hour lock.
type OTPRateLimiter struct {
	emailRecords  map[string]*OTPRequestRecord
	ipRecords     map[string]*IPOTPRecord
	mu            sync.RWMutex
	cleanupTicker *time.Ticker
}

// IPOTPRecord tracks verification-code requests per IP
type IPOTPRecord struct {
	Count      int
	FirstReqAt time.Time
	LastReqAt  time.Time
}

var globalOTPLimiter *OTPRateLimiter
var otpLimiterOnce sync.Once

// GetOTPRateLimiter returns the global OTP rate limiter instance
func GetOTPRateLimiter() *OTPRateLimiter {
	otpLimiterOnce.Do(func() {
		globalOTPLimiter = NewOTPRateLimiter()
	})
	return globalOTPLimiter
}

// NewOTPRateLimiter creates a new OTP rate limiter
func NewOTPRateLimiter() *OTPRateLimiter {
	limiter := &OTPRateLimiter{
		emailRecords: make(map[string]*OTPRequestRecord),
		ipRecords:    make(map[string]*IPOTPRecord),
	}

	limiter.cleanupTicker = time.NewTicker(5 * time.Minute)
	go limiter.cleanup()

	return limiter
}

func (l *OTPRateLimiter) cleanup() {
	for range l.cleanupTicker.C {
		l.mu.Lock()
		now := time.Now()

		for email, record := range l.emailRecords {
			if !record.Locked && now.Sub(record.LastReqAt) > time.Hour {
				delete(l.emailRecords, email)
			} else if record.Locked && now.After(record.LockedUntil) {
				record.Locked = false
				record.Count = 0
				record.FirstReqAt = time.Time{}
				record.LastReqAt = time.Time{}
			}
		}

		for ip, record := range l.ipRecords {
			if now.Sub(record.LastReqAt) > 30*time.Minute {
				delete(l.ipRecords, ip)
			}
		}

		l.mu.Unlock()
	}
}

// CheckEmailRateLimit checks if an email address can request a new code.
// Returns (allowed, waitDuration, message)
func (l *OTPRateLimiter) CheckEmailRateLimit(email string) (bool, time.Duration, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	record, exists := l.emailRecords[email]

	if !exists {
		l.emailRecords[email] = &OTPRequestRecord{
			Count:      1,
			FirstReqAt: now,
			LastReqAt:  now,
		}
		return true, 0, ""
	}

	if record.Locked {
		if now.Before(record.LockedUntil) {
			waitTime := record.LockedUntil.Sub(now)
			return false, waitTime, "Request limit reached, try again in 1 hour"
		}
		record.Locked = false
		record.Count = 0
		record.FirstReqAt = now
		record.LastReqAt = now
		return true, 0, ""
	}

	record.Count++
	record.LastReqAt = now

	var minElapsed time.Duration
	switch record.Count {
	case 1:
		return true, 0, ""
	case 2:
		minElapsed = time.Minute
	case 3:
		minElapsed = 5 * time.Minute
	case 4:
		minElapsed = 10 * time.Minute
	case 5:
		record.Locked = true
		record.LockedUntil = now.Add(time.Hour)
		return false, time.Hour, "Request limit reached, try again in 1 hour"
	default:
		if record.Locked && now.Before(record.LockedUntil) {
			return false, record.LockedUntil.Sub(now), "Request limit reached, try again in 1 hour"
		}
		record.Locked = false
		record.Count = 1
		record.FirstReqAt = now
		record.LastReqAt = now
		return true, 0, ""
	}

	elapsed := now.Sub(record.FirstReqAt)
	if elapsed < minElapsed {
		record.Count--
		wait := minElapsed - elapsed
		return false, wait, "Please wait before requesting another code"
	}
	return true, 0, ""
}

// CheckIPRateLimit checks if an IP can request a new code: 5 per 30 minutes.
// Returns (allowed, waitDuration, message)
func (l *OTPRateLimiter) CheckIPRateLimit(ip string) (bool, time.Duration, string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	record, exists := l.ipRecords[ip]

	if !exists {
		l.ipRecords[ip] = &IPOTPRecord{
			Count:      1,
			FirstReqAt: now,
			LastReqAt:  now,
		}
		return true, 0, ""
	}

	elapsed := now.Sub(record.FirstReqAt)
	if elapsed >= 30*time.Minute {
		record.Count = 1
		record.FirstReqAt = now
		record.LastReqAt = now
		return true, 0, ""
	}

	record.Count++
	record.LastReqAt = now

	if record.Count > 5 {
		waitTime := 30*time.Minute - elapsed
		record.Count--
		return false, waitTime, "Too many requests. Please try again later."
	}

	return true, 0, ""
}

// ResetEmailLimit clears the rate limit after a successful verification
func (l *OTPRateLimiter) ResetEmailLimit(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.emailRecords, email)
}

// GetClientIP extracts the client IP from the request
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return strings.TrimSpace(xr)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
