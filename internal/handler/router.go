package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/dayboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusObserver    middleware.StatusObserver

	// 認証なしの運用エンドポイント
	HealthPinger   Pinger
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	EventService   EventServiceInterface
	WeatherService WeatherServiceInterface
	MenuService    MenuServiceInterface
	UserService    UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → SecurityHeaders →（認証グループのみ）Session → CSRF → RateLimit
//
// /health、/metrics、/api/csrf-token、/auth/* は認証グループの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusObserver))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	eventHandler := NewEventHandler(deps.EventService)
	weatherHandler := NewWeatherHandler(deps.WeatherService)
	menuHandler := NewMenuHandler(deps.MenuService)
	userHandler := NewUserHandler(deps.UserService)
	healthHandler := NewHealthHandler(deps.HealthPinger)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Check)
	r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General + Mutation)
	// MutationMiddlewareは安全なメソッド（GET等）を内部でスキップする。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(deps.RateLimiter.MutationMiddleware())

		// D-Dayイベント
		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Post("/", eventHandler.AddEvent)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", eventHandler.UpdateEvent)
				r.Delete("/", eventHandler.DeleteEvent)
			})
		})

		// 天気
		r.Get("/api/weather", weatherHandler.GetWeather)

		// メニューグリッド
		r.Route("/api/menu", func(r chi.Router) {
			r.Get("/", menuHandler.ListItems)
			r.Post("/", menuHandler.AddItem)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", menuHandler.UpdateItem)
				r.Delete("/", menuHandler.DeleteItem)
			})
		})

		// ユーザー管理
		r.Route("/api/users", func(r chi.Router) {
			r.Delete("/me", userHandler.Withdraw)
		})
	})

	return r
}
