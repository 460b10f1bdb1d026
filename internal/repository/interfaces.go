// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/guildcal/internal/model"
)

// EventsCollection はイベントを格納する論理コレクション名。
const EventsCollection = "events"

// EventRepository はイベントデータの永続化インターフェース。
// 各操作は単一ドキュメント単位でアトミックに実行される。
type EventRepository interface {
	// List は全イベントをストアの自然順で返す。
	List(ctx context.Context) ([]*model.Event, error)

	// ListByDateRange はstart <= date <= end（両端を含む）のイベントを返す。
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Event, error)

	// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Event, error)

	// Create はイベントを作成し、ストアが採番したIDをevent.IDに設定する。
	Create(ctx context.Context, event *model.Event) error

	// Update はパッチをアトミックにマージし、マージ後のイベントを返す。
	// updated_atはnowに更新される。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, patch *model.EventPatch, now time.Time) (*model.Event, error)

	// Delete は指定IDのイベントを物理削除する。削除対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// Querier はdatabase/sqlのクエリ実行を抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
