package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// newTestRateLimiter は小さいバーストのRateLimiterを生成する。
func newTestRateLimiter(t *testing.T, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001),
		GeneralBurst:    burst,
		BookingRate:     rate.Limit(0.001),
		BookingBurst:    burst,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// バーストを超えたリクエストが429になることを検証
func TestRateLimiter_General_ExceedsBurst(t *testing.T) {
	rl := newTestRateLimiter(t, 3)
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		if rec := doRequest(handler, "192.0.2.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := doRequest(handler, "192.0.2.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header is missing")
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != "Too many requests. Please try again later." {
		t.Errorf("error body = %q", body["error"])
	}
}

// IPごとに独立したリミッターが適用されることを検証
func TestRateLimiter_PerIPIsolation(t *testing.T) {
	rl := newTestRateLimiter(t, 1)
	handler := rl.GeneralMiddleware()(okHandler())

	if rec := doRequest(handler, "192.0.2.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("first IP: status = %d, want 200", rec.Code)
	}
	if rec := doRequest(handler, "192.0.2.1:5678"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same IP different port: status = %d, want 429", rec.Code)
	}
	// 別IPは独立のトークンバケットを持つ
	if rec := doRequest(handler, "192.0.2.2:1234"); rec.Code != http.StatusOK {
		t.Errorf("second IP: status = %d, want 200", rec.Code)
	}

	if n := rl.GeneralLimiterCount(); n != 2 {
		t.Errorf("limiter count = %d, want 2", n)
	}
}

// 予約作成リミッターがAPI全般リミッターと独立に動作することを検証
func TestRateLimiter_BookingIndependentOfGeneral(t *testing.T) {
	rl := newTestRateLimiter(t, 1)
	general := rl.GeneralMiddleware()(okHandler())
	booking := rl.BookingMiddleware()(okHandler())

	if rec := doRequest(general, "192.0.2.1:1234"); rec.Code != http.StatusOK {
		t.Fatalf("general: status = %d, want 200", rec.Code)
	}
	// 一般リミッターを使い切っても予約リミッターは消費されていない
	if rec := doRequest(booking, "192.0.2.1:1234"); rec.Code != http.StatusOK {
		t.Errorf("booking: status = %d, want 200", rec.Code)
	}
	if rec := doRequest(booking, "192.0.2.1:1234"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("booking second: status = %d, want 429", rec.Code)
	}
}

// clientIPのRemoteAddr解釈を検証
func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"no-port", "no-port"},
	}

	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP(%q) = %q, want %q", tt.remoteAddr, got, tt.want)
			}
		})
	}
}
