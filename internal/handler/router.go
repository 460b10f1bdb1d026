// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/guildcal/internal/metrics"
	"github.com/hitoshi/guildcal/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	CORSAllowedOrigin string
	MaxBodyBytes      int64
	RateLimiter       *middleware.RateLimiter

	// イベント
	EventService EventServiceInterface

	// プレゼンス
	PresenceTracker PresenceTrackerInterface

	// ヘルスチェック
	HealthChecker HealthChecker

	// /metrics で公開するレジストリ。nilの場合はルートを登録しない。
	MetricsGatherer prometheus.Gatherer

	// 現在時刻。nilの場合はtime.Now。
	Now func() time.Time
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Logging → Recovery → CORS → SecurityHeaders → BodyLimit → RateLimit(General)
//
// イベントの作成・更新・削除にはさらにRateLimit(Write)を適用する。
// /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewBodyLimitMiddleware(deps.MaxBodyBytes))

	r.NotFound(notFound)

	eventHandler := NewEventHandler(deps.EventService)
	presenceHandler := NewPresenceHandler(deps.PresenceTracker, deps.Now)
	healthHandler := NewHealthHandler(deps.HealthChecker, deps.Now)
	calendarHandler := NewCalendarHandler(deps.EventService, deps.Now)

	passthrough := func(next http.Handler) http.Handler { return next }
	general, write := passthrough, passthrough
	if deps.RateLimiter != nil {
		general = deps.RateLimiter.GeneralMiddleware()
		write = deps.RateLimiter.WriteMiddleware()
	}

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(general)

		r.Get("/health", healthHandler.Check)

		// イベント管理
		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Get("/range", eventHandler.ListEventsByRange)
			r.With(write).Post("/", eventHandler.CreateEvent)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", eventHandler.GetEvent)
				r.With(write).Put("/", eventHandler.UpdateEvent)
				r.With(write).Delete("/", eventHandler.DeleteEvent)
			})
		})

		// プレゼンス
		r.Post("/user/heartbeat", presenceHandler.Heartbeat)
		r.Get("/users/active", presenceHandler.ActiveUsers)

		// カレンダー出力
		r.Get("/calendar.ics", calendarHandler.Export)
	})

	return r
}
