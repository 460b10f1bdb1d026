package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hitoshi/guildcal/internal/model"
	"github.com/hitoshi/guildcal/internal/repository"
)

// 縮退モードのシードイベントID。
const (
	SeedGuildMeetingID  = "7f1c2b9e-3d4a-4e5f-8a6b-1c2d3e4f5a61"
	SeedWarOfEmperiumID = "7f1c2b9e-3d4a-4e5f-8a6b-1c2d3e4f5a62"
)

// SeedEvents は縮退モードで提供する固定データセットを返す。
// created_at/updated_atにはnowを設定する。
func SeedEvents(now time.Time) []*model.Event {
	now = now.UTC()
	return []*model.Event{
		{
			ID:          SeedGuildMeetingID,
			Title:       "Guild Meeting",
			Description: "Monthly guild meeting to discuss strategies",
			Date:        time.Date(2025, 7, 15, 19, 0, 0, 0, time.UTC),
			Type:        model.EventTypeMeeting,
			Time:        "19:00",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          SeedWarOfEmperiumID,
			Title:       "War of Emperium",
			Description: "Weekly WoE event",
			Date:        time.Date(2025, 7, 12, 20, 0, 0, 0, time.UTC),
			Type:        model.EventTypePvP,
			Time:        "20:00",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// MemoryStore はプロセス内メモリを使用するStore実装。
// データベースに到達できない場合の縮退モードで、シードデータを提供する。
type MemoryStore struct {
	mu        sync.RWMutex
	connected bool
	events    *repository.MemoryEventRepo
}

// NewMemoryStore はseedで初期化したMemoryStoreを生成する。
func NewMemoryStore(seed []*model.Event) *MemoryStore {
	return &MemoryStore{
		events: repository.NewMemoryEventRepo(seed),
	}
}

// Name はストア名を返す。
func (s *MemoryStore) Name() string { return "memory" }

// Connect は接続済み状態にする。失敗することはない。
func (s *MemoryStore) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

// Disconnect は未接続状態に戻す。保持データは破棄しない。
func (s *MemoryStore) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

// Collection はコレクションのハンドルを返す。
func (s *MemoryStore) Collection(name string) (repository.EventRepository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.connected {
		return nil, ErrNotConnected
	}
	if name != repository.EventsCollection {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return s.events, nil
}

// Ping は接続済みであればtrueを返す。
func (s *MemoryStore) Ping(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
