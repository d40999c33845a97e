package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig(generalBurst, mutationBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(0.001), // テスト中に補充されない低レート
		GeneralBurst:    generalBurst,
		MutationRate:    rate.Limit(0.001),
		MutationBurst:   mutationBurst,
		CleanupInterval: time.Hour,
	}
}

func doRequest(handler http.Handler, method, path, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(ContextWithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_General_AllowsUpToBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3, 3))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := doRequest(handler, http.MethodGet, "/api/events", "user-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := doRequest(handler, http.MethodGet, "/api/events", "user-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on 429 response")
	}
}

func TestRateLimiter_General_IsolatedPerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// user-1がバーストを使い切る
	doRequest(handler, http.MethodGet, "/api/events", "user-1")
	if rec := doRequest(handler, http.MethodGet, "/api/events", "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("user-1 second request: status = %d, want 429", rec.Code)
	}

	// user-2には影響しない
	if rec := doRequest(handler, http.MethodGet, "/api/events", "user-2"); rec.Code != http.StatusOK {
		t.Errorf("user-2 first request: status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter_General_MissingUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not be called without a user ID")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRateLimiter_Mutation_SafeMethodsNotCounted(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 1))
	defer rl.Stop()

	handler := rl.MutationMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GETは何度でも通る
	for i := 0; i < 5; i++ {
		if rec := doRequest(handler, http.MethodGet, "/api/events", "user-1"); rec.Code != http.StatusOK {
			t.Fatalf("GET request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	// POSTはバースト1で制限される
	if rec := doRequest(handler, http.MethodPost, "/api/events", "user-1"); rec.Code != http.StatusOK {
		t.Fatalf("first POST: status = %d, want 200", rec.Code)
	}
	if rec := doRequest(handler, http.MethodPost, "/api/events", "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second POST: status = %d, want 429", rec.Code)
	}
}

func TestRateLimiter_GeneralAndMutation_Independent(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(10, 1))
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mutation := rl.MutationMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// 変更操作のバーストを使い切る
	doRequest(mutation, http.MethodPost, "/api/events", "user-1")
	if rec := doRequest(mutation, http.MethodPost, "/api/events", "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("mutation limit should be exhausted, got %d", rec.Code)
	}

	// API全般のリミッターは独立して動作する
	if rec := doRequest(general, http.MethodGet, "/api/events", "user-1"); rec.Code != http.StatusOK {
		t.Errorf("general limiter should be unaffected, got %d", rec.Code)
	}
}

func TestRateLimiter_Cleanup_RemovesStaleEntries(t *testing.T) {
	config := testRateLimiterConfig(10, 10)
	config.CleanupInterval = time.Nanosecond // ttl = 2ns で全エントリが即座に期限切れ
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	doRequest(handler, http.MethodGet, "/api/events", "user-1")

	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("limiter count = %d, want 1", rl.GeneralLimiterCount())
	}

	time.Sleep(10 * time.Millisecond)
	rl.cleanup()

	if rl.GeneralLimiterCount() != 0 {
		t.Errorf("limiter count after cleanup = %d, want 0", rl.GeneralLimiterCount())
	}
}
