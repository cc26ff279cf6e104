package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLimiterConfig(generalBurst, chatBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		ChatRate:        1,
		ChatBurst:       chatBurst,
		CleanupInterval: time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAsUser(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if userID != "" {
		req = req.WithContext(ContextWithUserID(req.Context(), userID))
	}
	return req
}

func TestRateLimiter_GeneralAllowsBurstThen429(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(2, 10))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestAsUser("user-1"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAsUser("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", w.Header().Get("Retry-After"))
	}
	var body ErrorResponseBody
	json.NewDecoder(w.Body).Decode(&body)
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestRateLimiter_UsersAreIndependent(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 1))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestAsUser("user-a"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestAsUser("user-b"))
	if w.Code != http.StatusOK {
		t.Errorf("user-b status = %d, want 200", w.Code)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount() = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestRateLimiter_ChatIsIndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(10, 1))
	defer rl.Stop()
	general := rl.GeneralMiddleware()(okHandler())
	chat := rl.ChatMiddleware()(okHandler())

	chat.ServeHTTP(httptest.NewRecorder(), requestAsUser("user-1"))
	w := httptest.NewRecorder()
	chat.ServeHTTP(w, requestAsUser("user-1"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second chat request status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	general.ServeHTTP(w, requestAsUser("user-1"))
	if w.Code != http.StatusOK {
		t.Errorf("general request status = %d, want 200", w.Code)
	}
	if rl.ChatLimiterCount() != 1 {
		t.Errorf("ChatLimiterCount() = %d, want 1", rl.ChatLimiterCount())
	}
}

func TestRateLimiter_AnonymousKeyedByIP(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig(1, 1))
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	first := requestAsUser("")
	first.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), first)

	samePeer := requestAsUser("")
	samePeer.RemoteAddr = "10.0.0.1:5678"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, samePeer)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP status = %d, want 429", w.Code)
	}

	otherPeer := requestAsUser("")
	otherPeer.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, otherPeer)
	if w.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", w.Code)
	}
}

func TestRateLimiter_CleanupEvictsIdleEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{GeneralRate: 1, GeneralBurst: 1, ChatRate: 1, ChatBurst: 1, CleanupInterval: time.Millisecond})
	rl.Stop()
	rl.GeneralMiddleware()(okHandler()).ServeHTTP(httptest.NewRecorder(), requestAsUser("user-1"))

	time.Sleep(5 * time.Millisecond)
	rl.cleanup()

	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("GeneralLimiterCount() = %d, want 0 after cleanup", rl.GeneralLimiterCount())
	}
}

func TestRateLimiterConfigPerMinute(t *testing.T) {
	cfg := RateLimiterConfigPerMinute(120, 20)
	if float64(cfg.GeneralRate) != 2 || cfg.GeneralBurst != 120 {
		t.Errorf("general = (%v, %d)", cfg.GeneralRate, cfg.GeneralBurst)
	}
	if cfg.ChatBurst != 20 {
		t.Errorf("ChatBurst = %d, want 20", cfg.ChatBurst)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}
