package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/guildcal/internal/middleware"
	"github.com/hitoshi/guildcal/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// 5xxに該当するエラーは原因をログに記録し、レスポンスには含めない。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		if statusCode >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "store operation failed",
				slog.String("code", apiErr.Code),
				slog.String("error", err.Error()),
				slog.String("path", r.URL.Path),
			)
		}
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidID, model.ErrCodeInvalidBody:
		return http.StatusBadRequest
	case model.ErrCodeEventNotFound, model.ErrCodeRouteNotFound:
		return http.StatusNotFound
	case model.ErrCodeBodyTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody はリクエストボディを1つのJSONオブジェクトとしてdstにデコードする。
// 空のボディは空オブジェクトとして扱い、後続にデータが残る場合は不正なボディとする。
func decodeJSONBody(r *http.Request, dst any) *model.APIError {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		err = dec.Decode(&struct{}{})
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return model.NewBodyTooLargeError(maxErr.Limit)
	}
	return model.NewInvalidBodyError()
}

// notFound は未定義ルートに対する404レスポンスを返す。
func notFound(w http.ResponseWriter, r *http.Request) {
	writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError(r.URL.Path))
}
