// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"strings"
)

// FieldError は単一フィールドの検証エラーを表す。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error はerrorインターフェースを実装する。
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: validation, event, presence, system
	Action   string       // ユーザー向け対処方法
	Fields   []FieldError // フィールド単位の検証エラー（検証エラー時のみ）
	Cause    error        // 内部原因。レスポンスには含めない
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は内部原因を返す。
func (e *APIError) Unwrap() error {
	return e.Cause
}

// 定義済みエラーコード
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInvalidID     = "INVALID_ID"
	ErrCodeEventNotFound = "EVENT_NOT_FOUND"
	ErrCodeStore         = "STORE_ERROR"
	ErrCodeInvalidBody   = "INVALID_REQUEST"
	ErrCodeRateLimited   = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeBodyTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound = "ROUTE_NOT_FOUND"
)

// NewValidationError は入力検証エラーを生成する。
// fieldsが空でない場合はフィールド名をメッセージに含める。
func NewValidationError(message string, fields ...FieldError) *APIError {
	if message == "" {
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.Error())
		}
		message = "Invalid input: " + strings.Join(names, "; ")
	}
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してから再度お試しください。",
		Fields:   fields,
	}
}

// NewMissingRequiredFieldsError は必須フィールド欠落エラーを生成する。
func NewMissingRequiredFieldsError(fields ...FieldError) *APIError {
	return NewValidationError("Missing required fields: title, date, and type are required", fields...)
}

// NewInvalidIDError は不正な形式のイベントIDに対するエラーを生成する。
func NewInvalidIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("Invalid event ID: %q", id),
		Category: "validation",
		Action:   "イベントIDを確認してください。",
	}
}

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("Event not found: %s", id),
		Category: "event",
		Action:   "イベント一覧を再読み込みしてください。",
	}
}

// NewStoreError はストア操作の失敗を表すエラーを生成する。
// 内部の詳細はメッセージに含めず、Causeとして保持する。
func NewStoreError(operation string, cause error) *APIError {
	return &APIError{
		Code:     ErrCodeStore,
		Message:  fmt.Sprintf("Failed to %s", operation),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
		Cause:    cause,
	}
}

// NewInvalidBodyError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidBodyError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBody,
		Message:  "Request body must be a JSON object",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewRateLimitError はレート制限超過エラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Retry-Afterの秒数だけ待ってから再度お試しください。",
	}
}

// NewInternalError は分類できない内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewBodyTooLargeError はリクエストボディが上限を超えた場合のエラーを生成する。
func NewBodyTooLargeError(limit int64) *APIError {
	return &APIError{
		Code:     ErrCodeBodyTooLarge,
		Message:  fmt.Sprintf("Request body exceeds %d bytes", limit),
		Category: "validation",
		Action:   "説明文などを短くしてから再度お試しください。",
	}
}

// NewRouteNotFoundError は存在しないエンドポイントへのリクエストに対するエラーを生成する。
func NewRouteNotFoundError(path string) *APIError {
	return &APIError{
		Code:     ErrCodeRouteNotFound,
		Message:  fmt.Sprintf("Route not found: %s", path),
		Category: "system",
		Action:   "リクエストURLを確認してください。",
	}
}
