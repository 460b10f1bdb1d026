package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/guildcal/internal/model"
)

// eventColumns はSELECT/RETURNINGで使用するカラム並び。scanEventと順序を合わせる。
const eventColumns = `id, title, description, event_date, event_type, event_time, created_at, updated_at`

// PostgresEventRepo はPostgreSQLを使用したイベントリポジトリ。
type PostgresEventRepo struct {
	db Querier
}

// NewPostgresEventRepo はPostgresEventRepoを生成する。
func NewPostgresEventRepo(db Querier) *PostgresEventRepo {
	return &PostgresEventRepo{db: db}
}

// List は全イベントを返す。並び順は保証しない。
func (r *PostgresEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events`)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗しました: %w", err)
	}
	return collectEvents(rows)
}

// ListByDateRange はevent_dateが[start, end]に含まれるイベントを返す。
func (r *PostgresEventRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE event_date >= $1 AND event_date <= $2`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("期間指定のイベント取得に失敗しました: %w", err)
	}
	return collectEvents(rows)
}

// FindByID は指定IDのイベントを取得する。見つからない場合はnilを返す。
func (r *PostgresEventRepo) FindByID(ctx context.Context, id string) (*model.Event, error) {
	event, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの取得に失敗しました: %w", err)
	}
	return event, nil
}

// Create はイベントを作成する。IDはデータベースのgen_random_uuid()で採番する。
// 保存された行をRETURNINGで読み戻し、eventを永続化後の値で上書きする。
func (r *PostgresEventRepo) Create(ctx context.Context, event *model.Event) error {
	stored, err := scanEvent(r.db.QueryRowContext(ctx,
		`INSERT INTO events (title, description, event_date, event_type, event_time, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+eventColumns,
		event.Title, event.Description, event.Date.UTC(), event.Type, event.Time,
		event.CreatedAt.UTC(), event.UpdatedAt.UTC(),
	))
	if err != nil {
		return fmt.Errorf("イベントの作成に失敗しました: %w", err)
	}

	*event = *stored
	return nil
}

// Update はパッチを1回のUPDATE ... RETURNINGでマージし、マージ後のイベントを返す。
// 書き込みと読み出しの間に他のリクエストが割り込むことはない。
func (r *PostgresEventRepo) Update(ctx context.Context, id string, patch *model.EventPatch, now time.Time) (*model.Event, error) {
	query, args := buildUpdateQuery(id, patch, now)

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("イベントの更新に失敗しました: %w", err)
	}
	return event, nil
}

// Delete は指定IDのイベントを削除する。
func (r *PostgresEventRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("イベントの削除に失敗しました: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// buildUpdateQuery はパッチで指定されたカラムだけを更新するUPDATE文を組み立てる。
// $1は常にイベントID。updated_atはcreated_atより前にならない。
func buildUpdateQuery(id string, patch *model.EventPatch, now time.Time) (string, []any) {
	args := []any{id}
	var sets []string

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Date != nil {
		add("event_date", patch.Date.UTC())
	}
	if patch.Type != nil {
		add("event_type", *patch.Type)
	}
	if patch.Time != nil {
		add("event_time", *patch.Time)
	}

	args = append(args, now.UTC())
	sets = append(sets, fmt.Sprintf("updated_at = GREATEST(created_at, $%d)", len(args)))

	query := `UPDATE events SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + eventColumns
	return query, args
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent は1行をmodel.Eventに変換する。時刻はUTCに正規化する。
func scanEvent(row rowScanner) (*model.Event, error) {
	e := &model.Event{}
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Type, &e.Time,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Date = e.Date.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

// collectEvents は結果セットをすべて読み出してrowsを閉じる。
func collectEvents(rows *sql.Rows) ([]*model.Event, error) {
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("イベント行の読み取りに失敗しました: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の走査に失敗しました: %w", err)
	}
	return events, nil
}

// compile-time interface check
var _ EventRepository = (*PostgresEventRepo)(nil)
