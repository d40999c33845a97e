package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/dayboard/internal/dday"
	"github.com/hitoshi/dayboard/internal/menu"
	"github.com/hitoshi/dayboard/internal/middleware"
	"github.com/hitoshi/dayboard/internal/model"
)

// mockSessionFinder はmiddleware.SessionFinderのモック実装。
type mockSessionFinder struct {
	sessions map[string]*model.Session
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.sessions[id], nil
}

// mockPinger はDB疎通確認のモック実装。
type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

// newTestRouter は全ルートをモックで配線したルーターを生成する。
func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()

	if deps.SessionFinder == nil {
		deps.SessionFinder = &mockSessionFinder{
			sessions: map[string]*model.Session{
				"valid-session": {ID: "valid-session", UserID: "user-123", ExpiresAt: time.Now().Add(time.Hour)},
			},
		}
	}
	if deps.RateLimiter == nil {
		rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(10000, 10000))
		t.Cleanup(rl.Stop)
		deps.RateLimiter = rl
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if deps.CORSAllowedOrigin == "" {
		deps.CORSAllowedOrigin = "http://localhost:3000"
	}
	if deps.HealthPinger == nil {
		deps.HealthPinger = &mockPinger{}
	}
	if deps.MetricsHandler == nil {
		deps.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}
	if deps.AuthService == nil {
		deps.AuthService = &mockAuthService{}
	}
	if deps.AuthConfig.BaseURL == "" {
		deps.AuthConfig = testAuthConfig()
	}
	if deps.EventService == nil {
		deps.EventService = &mockEventService{}
	}
	if deps.WeatherService == nil {
		deps.WeatherService = &mockWeatherService{}
	}
	if deps.MenuService == nil {
		deps.MenuService = &mockMenuService{}
	}
	if deps.UserService == nil {
		deps.UserService = &mockUserService{}
	}

	return NewRouter(deps)
}

// authedRequest は有効なセッションCookie付きのリクエストを生成する。
func authedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "valid-session"})
	return req
}

// csrfRequest はセッションとCSRFトークンの両方を備えたリクエストを生成する。
func csrfRequest(method, target string, body io.Reader) *http.Request {
	req := authedRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "test-csrf-token"})
	req.Header.Set("X-CSRF-Token", "test-csrf-token")
	return req
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestRouter_HealthEndpoint_DBDown(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		HealthPinger: &mockPinger{err: errors.New("connection refused")},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("GET /health status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// /api/csrf-tokenが認証なしで呼べて、トークンCookieを発行することを確認する。
func TestRouter_CSRFTokenEndpoint(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/csrf-token status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_token" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected csrf_token cookie to be issued")
	}
}

// 未認証のAPIアクセスは統一フォーマットの401になることを確認する。
func TestRouter_APIWithoutSession_ReturnsUnauthorized(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	paths := []string{"/api/events", "/api/menu", "/api/weather?lat=1&lon=1"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		resp := w.Result()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusUnauthorized)
			continue
		}

		var errBody apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
			t.Fatalf("failed to decode error response for %s: %v", path, err)
		}
		if errBody.Code != model.ErrCodeUnauthorized {
			t.Errorf("GET %s code = %q, want %q", path, errBody.Code, model.ErrCodeUnauthorized)
		}
	}
}

// 有効なセッションCookie付きのGETが通ることを確認する。
func TestRouter_APIWithSession_Succeeds(t *testing.T) {
	var gotOwner string
	router := newTestRouter(t, &RouterDeps{
		EventService: &mockEventService{
			listEventsFn: func(ctx context.Context, ownerID, iconFilter string) ([]*model.Event, error) {
				gotOwner = ownerID
				return []*model.Event{}, nil
			},
		},
	})

	req := authedRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if gotOwner != "user-123" {
		t.Errorf("ownerID = %q, want %q", gotOwner, "user-123")
	}
}

// CSRFトークンなしの状態変更リクエストは403になることを確認する。
func TestRouter_MutationWithoutCSRFToken_Forbidden(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := authedRequest(http.MethodPost, "/api/events", strings.NewReader(`{"title":"x","date":"2024-05-01"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusForbidden)
	}
}

// セッションとCSRFトークンが揃った状態変更リクエストが通ることを確認する。
func TestRouter_MutationWithCSRFToken_Succeeds(t *testing.T) {
	created := &model.Event{ID: "ev-1", Title: "생일", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local), Icon: model.IconCake, Color: model.DefaultEventColor}
	router := newTestRouter(t, &RouterDeps{
		EventService: &mockEventService{
			addEventFn: func(ctx context.Context, ownerID string, input dday.EventInput) (*model.Event, []*model.Event, error) {
				return created, []*model.Event{created}, nil
			},
		},
	})

	req := csrfRequest(http.MethodPost, "/api/events", strings.NewReader(`{"title":"생일","date":"2024-05-01"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusCreated)
	}
}

// URLパラメータのidがハンドラーまで届くことを確認する。
func TestRouter_DeleteEvent_PassesURLParam(t *testing.T) {
	var gotID string
	router := newTestRouter(t, &RouterDeps{
		EventService: &mockEventService{
			deleteEventFn: func(ctx context.Context, ownerID, id string, confirmed bool) ([]*model.Event, error) {
				gotID = id
				if !confirmed {
					t.Error("confirmed = false, want true")
				}
				return []*model.Event{}, nil
			},
		},
	})

	req := csrfRequest(http.MethodDelete, "/api/events/ev-42?confirm=true", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if gotID != "ev-42" {
		t.Errorf("event id = %q, want %q", gotID, "ev-42")
	}
}

// メニューの更新がURLパラメータとボディの両方をサービス層に渡すことを確認する。
func TestRouter_UpdateMenuItem_RoutesToHandler(t *testing.T) {
	var gotID string
	item := &model.MenuItem{ID: "mi-7", Label: "메일", URL: "https://mail.example.com"}
	router := newTestRouter(t, &RouterDeps{
		MenuService: &mockMenuService{
			updateItemFn: func(ctx context.Context, ownerID, id string, input menu.ItemInput) (*model.MenuItem, []*model.MenuItem, error) {
				gotID = id
				return item, []*model.MenuItem{item}, nil
			},
		},
	})

	req := csrfRequest(http.MethodPut, "/api/menu/mi-7", strings.NewReader(`{"label":"메일","url":"https://mail.example.com"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if gotID != "mi-7" {
		t.Errorf("item id = %q, want %q", gotID, "mi-7")
	}
}

// ハンドラー内のpanicがリカバリーされ、500のJSONで返ることを確認する。
func TestRouter_PanicRecovered(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		EventService: &mockEventService{
			listEventsFn: func(ctx context.Context, ownerID, iconFilter string) ([]*model.Event, error) {
				panic("boom")
			},
		},
	})

	req := authedRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}

// CORSヘッダーが全ルートに付与されることを確認する。
func TestRouter_CORSHeaders(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{CORSAllowedOrigin: "http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
}
