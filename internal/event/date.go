package event

import (
	"errors"
	"time"
)

// ErrInvalidDate は日付文字列を解釈できない場合に返される。
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts はParseDateが受け付けるレイアウト。タイムゾーンを持たないものはUTCとみなす。
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate はISO-8601形式の日付文字列をUTCの時刻に変換する。
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
