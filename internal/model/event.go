package model

import "time"

// 既知のイベント種別。UIが表示に使う値であり、サービスはこれ以外の値も受け付ける。
const (
	EventTypeGuild   = "guild"
	EventTypePvP     = "pvp"
	EventTypeRaid    = "raid"
	EventTypeMeeting = "meeting"
	EventTypeOther   = "other"
)

// Event はギルドの予定イベントを表す。
type Event struct {
	ID          string
	Title       string
	Description string
	Date        time.Time
	Type        string
	Time        string // 表示用の時刻文字列（例: "20:00"）。Dateの精度とは独立している。
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventInput は作成・更新リクエストの未検証の入力値を表す。
// 各フィールドはキーの有無を保持する。
type EventInput struct {
	Title       OptionalString `json:"title"`
	Description OptionalString `json:"description"`
	Date        OptionalString `json:"date"`
	Type        OptionalString `json:"type"`
	Time        OptionalString `json:"time"`
}

// EventPatch は検証済みの部分更新を表す。
// nilフィールドは変更せず、既存の値を維持する。
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Type        *string
	Time        *string
}

// IsEmpty は更新対象のフィールドが1つもない場合にtrueを返す。
func (p *EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil && p.Type == nil && p.Time == nil
}

// Apply はパッチをイベントにマージし、UpdatedAtを更新する。
// UpdatedAtはCreatedAtより前にならない。
func (p *EventPatch) Apply(e *Event, now time.Time) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if now.Before(e.CreatedAt) {
		now = e.CreatedAt
	}
	e.UpdatedAt = now
}
