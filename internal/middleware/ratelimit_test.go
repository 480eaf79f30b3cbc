package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock is advanced by hand so window expiry needs no sleeps.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func tracked(rl *RateLimiter) map[string]bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	out := make(map[string]bool, len(rl.clients))
	for k := range rl.clients {
		out[k] = true
	}
	return out
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Minute)

	for i := range 3 {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("4th request should be limited")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("another client should have its own budget")
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	rl.allow("ip")
	clock.advance(30 * time.Second)
	rl.allow("ip")
	if rl.allow("ip") {
		t.Fatal("third request inside the window should be limited")
	}

	// The first request leaves the window; the second is still in it.
	clock.advance(31 * time.Second)
	if !rl.allow("ip") {
		t.Fatal("one slot should have freed up")
	}
	if rl.allow("ip") {
		t.Error("only one slot should have freed up")
	}

	clock.advance(time.Minute)
	if !rl.allow("ip") {
		t.Error("budget should be restored after a full window")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, 90*time.Second)

	var served int
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served++
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/templates", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	for i := range 2 {
		if rr := do("192.168.1.1:5000"); rr.Code != http.StatusCreated {
			t.Fatalf("request %d: status %d, want 201", i+1, rr.Code)
		}
	}

	rr := do("192.168.1.1:5001")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "90" {
		t.Errorf("Retry-After = %q, want 90", got)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if served != 2 {
		t.Errorf("handler ran %d times, want 2", served)
	}

	clock.advance(91 * time.Second)
	if rr := do("192.168.1.1:5002"); rr.Code != http.StatusCreated {
		t.Errorf("after window: status %d, want 201", rr.Code)
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Stop()
	rl.Stop()
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 10, time.Minute)

	rl.allow("idle")
	rl.allow("active")
	clock.advance(2 * time.Minute)
	rl.allow("active")

	rl.cleanup()

	got := tracked(rl)
	if got["idle"] {
		t.Error("idle client should be dropped")
	}
	if !got["active"] {
		t.Error("active client should be kept")
	}
	if len(got) != 1 {
		t.Errorf("tracked %d clients, want 1", len(got))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded single", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "192.168.1.1:1234", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": " 10.0.0.1 , 172.16.0.1"}, "192.168.1.1:1234", "10.0.0.1"},
		{"forwarded wins over real ip", map[string]string{"X-Forwarded-For": "10.0.0.1", "X-Real-IP": "10.0.0.9"}, "192.168.1.1:1234", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.2"}, "192.168.1.1:1234", "10.0.0.2"},
		{"remote addr", nil, "192.168.1.1:1234", "192.168.1.1"},
		{"ipv6 remote addr", nil, "[::1]:8080", "::1"},
		{"remote addr without port", nil, "192.168.1.1", "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
