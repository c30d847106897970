package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitMiddlewareDisabledPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Enabled: false})
	h := RateLimitMiddleware(limiter)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimitMiddlewareRejectsOverBurst(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Enabled: true, RequestsPerSec: 1, Burst: 2})
	h := RateLimitMiddleware(limiter)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected first two requests within burst to succeed, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be rate limited, got %v", codes)
	}
}

func TestRateLimitMiddlewareTracksClientsIndependently(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Enabled: true, RequestsPerSec: 1, Burst: 1})
	h := RateLimitMiddleware(limiter)(okHandler())

	req1 := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	req1.RemoteAddr = "10.0.0.1:1"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, req1)

	req2 := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	req2.RemoteAddr = "10.0.0.2:1"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, req2)

	if w1.Code != http.StatusOK || w2.Code != http.StatusOK {
		t.Fatalf("expected independent clients each to get their own burst, got %d and %d", w1.Code, w2.Code)
	}
}
