// Package event はギルドイベントの検証・正規化とCRUDのドメインロジックを提供する。
package event

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/guildcal/internal/metrics"
	"github.com/hitoshi/guildcal/internal/model"
	"github.com/hitoshi/guildcal/internal/repository"
)

// 操作名。メトリクスのラベルとして使用する。
const (
	OpList   = "list"
	OpRange  = "range"
	OpCreate = "create"
	OpGet    = "get"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Service はイベント管理のサービス層。
// 入力検証はストア呼び出しより前に行い、失敗時はストアに一切触れない。
type Service struct {
	repo    repository.EventRepository
	now     func() time.Time
	metrics metrics.MetricsCollector
}

// Option はServiceの設定を変更する関数。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithMetrics はメトリクスの記録先を設定する。
func WithMetrics(m metrics.MetricsCollector) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.EventRepository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		now:     time.Now,
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll は全イベントをストアの順序で返す。
func (s *Service) ListAll(ctx context.Context) (events []*model.Event, err error) {
	defer func() { s.record(OpList, err) }()

	started := time.Now()
	events, err = s.repo.List(ctx)
	s.metrics.RecordStoreLatency(OpList, time.Since(started))
	if err != nil {
		return nil, model.NewStoreError("fetch events", err)
	}
	return events, nil
}

// ListByRange はstart <= date <= endのイベントを返す。両端を含む。
// start/endはISO-8601形式の文字列で、どちらかが欠けているか解釈できない場合は検証エラーになる。
func (s *Service) ListByRange(ctx context.Context, start, end string) (events []*model.Event, err error) {
	defer func() { s.record(OpRange, err) }()

	if start == "" || end == "" {
		var fields []model.FieldError
		if start == "" {
			fields = append(fields, model.FieldError{Field: "start", Message: msgRequired})
		}
		if end == "" {
			fields = append(fields, model.FieldError{Field: "end", Message: msgRequired})
		}
		return nil, model.NewValidationError("Start and end dates are required", fields...)
	}

	var fields []model.FieldError
	startAt, startErr := ParseDate(start)
	if startErr != nil {
		fields = append(fields, model.FieldError{Field: "start", Message: msgInvalidISO})
	}
	endAt, endErr := ParseDate(end)
	if endErr != nil {
		fields = append(fields, model.FieldError{Field: "end", Message: msgInvalidISO})
	}
	if len(fields) > 0 {
		return nil, model.NewValidationError("", fields...)
	}

	started := time.Now()
	events, err = s.repo.ListByDateRange(ctx, startAt, endAt)
	s.metrics.RecordStoreLatency(OpRange, time.Since(started))
	if err != nil {
		return nil, model.NewStoreError("fetch events by date range", err)
	}
	return events, nil
}

// Create は入力を検証してイベントを作成し、ストアが採番したIDを含むレコードを返す。
// createdAtとupdatedAtは同じ時刻になる。
func (s *Service) Create(ctx context.Context, in model.EventInput) (event *model.Event, err error) {
	defer func() { s.record(OpCreate, err) }()

	event, err = ValidateCreate(in)
	if err != nil {
		return nil, err
	}

	now := storeTime(s.now())
	event.CreatedAt = now
	event.UpdatedAt = now

	started := time.Now()
	err = s.repo.Create(ctx, event)
	s.metrics.RecordStoreLatency(OpCreate, time.Since(started))
	if err != nil {
		return nil, model.NewStoreError("create event", err)
	}
	if event.ID == "" {
		return nil, model.NewStoreError("create event", errors.New("store did not assign an id"))
	}

	slog.InfoContext(ctx, "イベントを作成しました",
		slog.String("event_id", event.ID),
		slog.String("type", event.Type),
	)
	return event, nil
}

// Get は指定IDのイベントを返す。
func (s *Service) Get(ctx context.Context, id string) (event *model.Event, err error) {
	defer func() { s.record(OpGet, err) }()

	id, err = normalizeID(id)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	event, err = s.repo.FindByID(ctx, id)
	s.metrics.RecordStoreLatency(OpGet, time.Since(started))
	if err != nil {
		return nil, model.NewStoreError("fetch event", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}
	return event, nil
}

// Update は指定されたフィールドのみをアトミックにマージし、更新後のレコードを返す。
// 競合は検出せず、後勝ちになる。
func (s *Service) Update(ctx context.Context, id string, in model.EventInput) (event *model.Event, err error) {
	defer func() { s.record(OpUpdate, err) }()

	id, err = normalizeID(id)
	if err != nil {
		return nil, err
	}

	patch, err := ValidateUpdate(in)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	event, err = s.repo.Update(ctx, id, patch, storeTime(s.now()))
	s.metrics.RecordStoreLatency(OpUpdate, time.Since(started))
	if err != nil {
		return nil, model.NewStoreError("update event", err)
	}
	if event == nil {
		return nil, model.NewEventNotFoundError(id)
	}
	return event, nil
}

// Delete は指定IDのイベントを物理削除する。
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.record(OpDelete, err) }()

	id, err = normalizeID(id)
	if err != nil {
		return err
	}

	started := time.Now()
	deleted, err := s.repo.Delete(ctx, id)
	s.metrics.RecordStoreLatency(OpDelete, time.Since(started))
	if err != nil {
		return model.NewStoreError("delete event", err)
	}
	if !deleted {
		return model.NewEventNotFoundError(id)
	}

	slog.InfoContext(ctx, "イベントを削除しました", slog.String("event_id", id))
	return nil
}

// storeTime はtimestamptzの精度（マイクロ秒）に丸めたUTC時刻を返す。
// どちらのストアでも作成直後の応答と以降の取得結果が一致する。
func storeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// normalizeID はIDがUUIDとして解釈できるか検証し、正規形に変換する。
func normalizeID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", model.NewInvalidIDError(id)
	}
	return parsed.String(), nil
}

// record は操作結果をメトリクスに記録する。
func (s *Service) record(operation string, err error) {
	result := metrics.ResultSuccess
	var apiErr *model.APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr) && (apiErr.Code == model.ErrCodeValidation || apiErr.Code == model.ErrCodeInvalidID):
		result = metrics.ResultInvalid
	case errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeEventNotFound:
		result = metrics.ResultNotFound
	default:
		result = metrics.ResultError
	}
	s.metrics.RecordEventOperation(operation, result)
}
