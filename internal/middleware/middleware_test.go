package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"geosales-dashboard/internal/config"
	"geosales-dashboard/internal/observability"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func ok(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "abc")
	h.ServeHTTP(w, r)

	if seen != "abc" || w.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("request id = %q / header %q, want abc", seen, w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(w.Header().Get("X-Request-ID")) != 32 {
		t.Errorf("generated id = %q, want 32 hex chars", w.Header().Get("X-Request-ID"))
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(quietLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/charts/x.csv", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 1, RateLimitBurst: 2}
	h := RateLimit(NewRateLimiter(cfg), quietLogger)(http.HandlerFunc(ok))

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}

	cfg.EnableRateLimit = false
	if !NewRateLimiter(cfg).Allow("10.0.0.1") {
		t.Error("disabled limiter should allow every request")
	}
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(config.SecurityConfig{EnableRateLimit: true, RateLimitRPS: 10, RateLimitBurst: 10})
	start := time.Now()

	rl.getLimiter("10.0.0.1", start)
	rl.getLimiter("10.0.0.2", start.Add(limiterIdleTTL+time.Second))
	rl.getLimiter("10.0.0.2", start.Add(2*limiterIdleTTL+2*time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.limiters["10.0.0.1"]; ok {
		t.Error("idle client should have been swept")
	}
	if _, ok := rl.limiters["10.0.0.2"]; !ok {
		t.Error("active client should be kept")
	}
}

func TestCORS(t *testing.T) {
	h := CORS(config.SecurityConfig{AllowedOrigins: []string{"http://localhost:8084"}})(http.HandlerFunc(ok))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	r.Header.Set("Origin", "http://localhost:8084")
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:8084" {
		t.Errorf("preflight = %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://evil.example")
	h.ServeHTTP(w, r)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origins must not be allowed")
	}
}

func TestTrustedProxyStripsForwardedHeaders(t *testing.T) {
	var forwarded string
	h := TrustedProxy(config.SecurityConfig{TrustedProxies: []string{"127.0.0.1"}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = r.Header.Get("X-Forwarded-For")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:4000"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if forwarded != "" {
		t.Errorf("untrusted X-Forwarded-For kept: %q", forwarded)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "127.0.0.1:4000"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), r)
	if forwarded != "1.2.3.4" {
		t.Errorf("trusted X-Forwarded-For = %q, want 1.2.3.4", forwarded)
	}
}

func TestResponseWriterCountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusCreated)
	rw.Write([]byte("hello"))

	if rw.statusCode != http.StatusCreated || rw.written != 5 {
		t.Errorf("status/written = %d/%d, want 201/5", rw.statusCode, rw.written)
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap should return the underlying writer")
	}
}

func BenchmarkChain(b *testing.B) {
	cfg := config.SecurityConfig{EnableRateLimit: false, AllowedOrigins: []string{"*"}}
	h := Chain(
		Recovery(quietLogger),
		RequestID(),
		Logger(quietLogger),
		Tracing(quietLogger),
		SecurityHeaders(),
		CORS(cfg),
		RateLimit(NewRateLimiter(cfg), quietLogger),
	)(http.HandlerFunc(ok))

	for b.Loop() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}
}
