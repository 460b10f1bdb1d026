package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/guildcal/internal/model"
)

// MemoryEventRepo はプロセス内メモリにイベントを保持するリポジトリ。
// データベースに接続できない場合の縮退モードで使用する。再起動すると内容は失われる。
type MemoryEventRepo struct {
	mu     sync.RWMutex
	order  []string // 挿入順
	events map[string]*model.Event
	newID  func() string
}

// NewMemoryEventRepo はseedの内容で初期化したMemoryEventRepoを生成する。
// seedのイベントはコピーして保持する。
func NewMemoryEventRepo(seed []*model.Event) *MemoryEventRepo {
	r := &MemoryEventRepo{
		events: make(map[string]*model.Event, len(seed)),
		newID:  func() string { return uuid.New().String() },
	}
	for _, e := range seed {
		c := *e
		r.order = append(r.order, c.ID)
		r.events[c.ID] = &c
	}
	return r
}

// List は全イベントを挿入順で返す。
func (r *MemoryEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*model.Event, 0, len(r.order))
	for _, id := range r.order {
		c := *r.events[id]
		events = append(events, &c)
	}
	return events, nil
}

// ListByDateRange はstart <= date <= endのイベントを挿入順で返す。
func (r *MemoryEventRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*model.Event, 0)
	for _, id := range r.order {
		e := r.events[id]
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		c := *e
		events = append(events, &c)
	}
	return events, nil
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *MemoryEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

// Create はイベントを保存し、UUIDを採番してevent.IDに設定する。
func (r *MemoryEventRepo) Create(ctx context.Context, event *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = r.newID()
	c := *event
	r.order = append(r.order, c.ID)
	r.events[c.ID] = &c
	return nil
}

// Update はロックを保持したままパッチをマージし、マージ後のイベントを返す。
func (r *MemoryEventRepo) Update(ctx context.Context, id string, patch *model.EventPatch, now time.Time) (*model.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(e, now)
	c := *e
	return &c, nil
}

// Delete は指定IDのイベントを削除する。
func (r *MemoryEventRepo) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[id]; !ok {
		return false, nil
	}
	delete(r.events, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Len は保持しているイベント数を返す。
func (r *MemoryEventRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// compile-time interface check
var _ EventRepository = (*MemoryEventRepo)(nil)
