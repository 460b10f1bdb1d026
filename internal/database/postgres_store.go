package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/guildcal/internal/repository"
)

// DefaultConnectTimeout はConnectの既定タイムアウト。
const DefaultConnectTimeout = 5 * time.Second

// pingTimeout はヘルスチェック用Pingのタイムアウト。
const pingTimeout = 2 * time.Second

// PostgresStore はPostgreSQLをバックエンドとするStore実装。
type PostgresStore struct {
	databaseURL    string
	connectTimeout time.Duration
	logger         *slog.Logger

	mu sync.RWMutex
	db *sql.DB
}

// NewPostgresStore はPostgresStoreを生成する。接続はConnectで行う。
// connectTimeoutが0以下の場合はDefaultConnectTimeoutを使用する。
func NewPostgresStore(databaseURL string, connectTimeout time.Duration, logger *slog.Logger) *PostgresStore {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		databaseURL:    databaseURL,
		connectTimeout: connectTimeout,
		logger:         logger,
	}
}

// Name はストア名を返す。
func (s *PostgresStore) Name() string { return "postgres" }

// Connect はDBを開き、connectTimeout以内にPingが成功することを確認する。
// 既に接続済みの場合は何もしない。
func (s *PostgresStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := Open(s.databaseURL)
	if err != nil {
		return &ConnectionError{Store: s.Name(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return &ConnectionError{Store: s.Name(), Err: err}
	}

	s.db = db
	s.logger.Info("database connection established",
		slog.String("store", s.Name()),
	)
	return nil
}

// Disconnect はDB接続を閉じる。未接続の場合は何もしない。
func (s *PostgresStore) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.logger.Info("database connection closed", slog.String("store", s.Name()))
	return nil
}

// Collection はコレクションのハンドルを返す。
func (s *PostgresStore) Collection(name string) (repository.EventRepository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotConnected
	}
	if name != repository.EventsCollection {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return repository.NewPostgresEventRepo(s.db), nil
}

// Ping はDBへのPingが成功すればtrueを返す。未接続の場合はfalse。
func (s *PostgresStore) Ping(ctx context.Context) bool {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()

	if db == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		s.logger.Warn("database ping failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

// DatabaseURL は接続先URLを返す。マイグレーション実行に使用する。
func (s *PostgresStore) DatabaseURL() string {
	return s.databaseURL
}

// compile-time interface check
var _ Store = (*PostgresStore)(nil)
