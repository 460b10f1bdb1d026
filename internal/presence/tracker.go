// Package presence はハートビートに基づくアクティブユーザー数の集計を提供する。
package presence

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/guildcal/internal/metrics"
	"github.com/hitoshi/guildcal/internal/model"
)

// デフォルト値
const (
	DefaultTimeout       = 30 * time.Second
	DefaultSweepInterval = 10 * time.Second
	unknownMetadata      = "Unknown"
)

// Metadata は診断用のクライアント情報。削除判定には使用しない。
type Metadata struct {
	UserAgent string
	IP        string
}

// Session はプレゼンスセッションを表す。
type Session struct {
	SessionID string
	LastSeen  time.Time
	Metadata
}

// Tracker はセッションごとの最終ハートビート時刻を保持し、
// タイムアウトしたセッションを削除する。
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]Session

	timeout       time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	metrics       metrics.MetricsCollector
	logger        *slog.Logger
}

// Option はTrackerの設定を変更する関数。
type Option func(*Tracker)

// WithTimeout はセッションのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		t.timeout = d
	}
}

// WithSweepInterval はバックグラウンド削除の間隔を設定する。
func WithSweepInterval(d time.Duration) Option {
	return func(t *Tracker) {
		t.sweepInterval = d
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithMetrics はメトリクスの記録先を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// WithLogger はロガーを設定する。
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// NewTracker は新しいTrackerを生成する。
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		sessions:      make(map[string]Session),
		timeout:       DefaultTimeout,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		metrics:       metrics.Nop{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Heartbeat はセッションの最終時刻を現在時刻で上書きし、挿入直後のセッション数を返す。
// 削除はここでは行わないため、タイムアウト済みのセッションも件数に含まれうる。
func (t *Tracker) Heartbeat(sessionID string, meta Metadata) (int, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, model.NewValidationError("Session ID is required",
			model.FieldError{Field: "sessionId", Message: "is required"})
	}
	if meta.UserAgent == "" {
		meta.UserAgent = unknownMetadata
	}
	if meta.IP == "" {
		meta.IP = unknownMetadata
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessions[sessionID] = Session{
		SessionID: sessionID,
		LastSeen:  t.now(),
		Metadata:  meta,
	}
	count := len(t.sessions)
	t.metrics.SetActiveSessions(count)
	return count, nil
}

// ActiveCount はタイムアウトしたセッションを削除してから残りの件数を返す。
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweepLocked()
	return len(t.sessions)
}

// Sweep はタイムアウトしたセッションを削除し、削除件数を返す。
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.sweepLocked()
}

// Sessions は現在保持しているセッションのスナップショットを返す。
func (t *Tracker) Sessions() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	return out
}

// sweepLocked はmuを保持した状態で呼び出す。
// 経過時間がタイムアウトを厳密に超えたセッションのみ削除する。
func (t *Tracker) sweepLocked() int {
	now := t.now()
	evicted := 0
	for id, s := range t.sessions {
		if now.Sub(s.LastSeen) > t.timeout {
			delete(t.sessions, id)
			evicted++
		}
	}
	t.metrics.RecordSessionsEvicted(evicted)
	t.metrics.SetActiveSessions(len(t.sessions))
	return evicted
}

// Start はctxがキャンセルされるまでsweepInterval間隔で削除を実行する。
// 呼び出し元をブロックするため、goroutineで起動すること。
func (t *Tracker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.sweepInterval)
	defer ticker.Stop()

	t.logger.Info("プレゼンスの定期削除を開始しました",
		slog.Duration("timeout", t.timeout),
		slog.Duration("interval", t.sweepInterval),
	)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("プレゼンスの定期削除を停止しました")
			return
		case <-ticker.C:
			if evicted := t.Sweep(); evicted > 0 {
				t.logger.Debug("タイムアウトしたセッションを削除しました", slog.Int("count", evicted))
			}
		}
	}
}
