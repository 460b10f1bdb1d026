// Package app はguildcalの起動処理とサブコマンドの実装を提供する。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/guildcal/internal/config"
	"github.com/hitoshi/guildcal/internal/database"
	"github.com/hitoshi/guildcal/internal/event"
	"github.com/hitoshi/guildcal/internal/handler"
	"github.com/hitoshi/guildcal/internal/logger"
	"github.com/hitoshi/guildcal/internal/metrics"
	"github.com/hitoshi/guildcal/internal/middleware"
	"github.com/hitoshi/guildcal/internal/presence"
)

// shutdownTimeout はグレースフルシャットダウンで処理中リクエストを待つ上限。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数のConfigを読み込み、ログレベルを反映する。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	level := new(slog.LevelVar)
	logger.SetupDefault(w, level)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level.Set(cfg.LogLevel)

	return cfg, nil
}

// openStore はPostgreSQLへの接続を試み、到達できずフォールバックが有効な場合は
// シードデータ入りのメモリストアを返す。
// PostgreSQLに接続できAutoMigrateが有効な場合はマイグレーションを適用する。
func openStore(ctx context.Context, cfg *config.Config) (database.Store, error) {
	pg := database.NewPostgresStore(cfg.DatabaseURL, cfg.DBConnectTimeout, slog.Default())

	err := pg.Connect(ctx)
	if err == nil {
		if cfg.AutoMigrate {
			if err := database.RunMigrations(pg.DatabaseURL()); err != nil {
				pg.Disconnect()
				return nil, fmt.Errorf("migration failed: %w", err)
			}
		}
		return pg, nil
	}

	if !cfg.StoreFallback || !errors.Is(err, database.ErrConnection) {
		return nil, err
	}

	slog.Warn("database unreachable, falling back to in-memory store",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		slog.String("error", err.Error()),
	)
	mem := database.NewMemoryStore(database.SeedEvents(time.Now()))
	if err := mem.Connect(ctx); err != nil {
		return nil, err
	}
	return mem, nil
}

// application はserveモードで組み立てた依存関係一式を保持する。
type application struct {
	store    database.Store
	tracker  *presence.Tracker
	limiter  *middleware.RateLimiter
	registry *prometheus.Registry
	handler  http.Handler
}

// newApplication は接続済みのstoreを使って全依存関係をワイヤリングする。
func newApplication(cfg *config.Config, store database.Store) (*application, error) {
	repo, err := database.EventCollection(store)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	eventService := event.NewService(repo, event.WithMetrics(collector))
	tracker := presence.NewTracker(
		presence.WithTimeout(cfg.PresenceTimeout),
		presence.WithSweepInterval(cfg.PresenceSweepInterval),
		presence.WithMetrics(collector),
		presence.WithLogger(slog.Default()),
	)
	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitWrite))

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Metrics:           collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		RateLimiter:       limiter,
		EventService:      eventService,
		PresenceTracker:   tracker,
		HealthChecker:     store,
		MetricsGatherer:   registry,
	})

	return &application{
		store:    store,
		tracker:  tracker,
		limiter:  limiter,
		registry: registry,
		handler:  router,
	}, nil
}

// close はバックグラウンド処理を止めてストアを切断する。
func (a *application) close() {
	a.limiter.Stop()
	if err := a.store.Disconnect(); err != nil {
		slog.Error("failed to disconnect store", slog.String("error", err.Error()))
	}
}

// runServe はAPIサーバーモードで起動する。
// ストアを選択し、全依存関係をワイヤリングしてHTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. ストアの選択
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	// 2. 依存関係のワイヤリング
	app, err := newApplication(cfg, store)
	if err != nil {
		store.Disconnect()
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.close()

	// 3. プレゼンスの定期掃除
	trackerCtx, stopTracker := context.WithCancel(ctx)
	defer stopTracker()
	go app.tracker.Start(trackerCtx)

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("store", store.Name()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /api/health エンドポイントにHTTPリクエストを送り、結果を返す。
// メモリストアで縮退動作中（degraded）も200のため成功として扱う。
func runHealthcheck(ctx context.Context, port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/api/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
