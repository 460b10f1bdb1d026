package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/guildcal/internal/middleware"
	"github.com/hitoshi/guildcal/internal/model"
	"github.com/hitoshi/guildcal/internal/presence"
)

// PresenceTrackerInterface はプレゼンスハンドラーが必要とするトラッカーインターフェース。
type PresenceTrackerInterface interface {
	Heartbeat(sessionID string, meta presence.Metadata) (int, error)
	ActiveCount() int
}

// PresenceHandler はアクティブユーザー集計のHTTPハンドラー。
type PresenceHandler struct {
	tracker PresenceTrackerInterface
	now     func() time.Time
}

// NewPresenceHandler はPresenceHandlerを生成する。nowがnilの場合はtime.Nowを使う。
func NewPresenceHandler(tracker PresenceTrackerInterface, now func() time.Time) *PresenceHandler {
	if now == nil {
		now = time.Now
	}
	return &PresenceHandler{
		tracker: tracker,
		now:     now,
	}
}

type heartbeatRequest struct {
	SessionID any `json:"sessionId"`
}

// sessionIDString はsessionIdを文字列に変換する。数値は10進表記にする。
// 未指定とnullは空文字列になり、トラッカー側の必須チェックで弾かれる。
func sessionIDString(v any) (string, *model.APIError) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return id, nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	default:
		return "", model.NewValidationError("Session ID must be a string or number",
			model.FieldError{Field: "sessionId", Message: "must be a string or number"})
	}
}

type heartbeatResponse struct {
	Success     bool   `json:"success"`
	ActiveUsers int    `json:"activeUsers"`
	SessionID   string `json:"sessionId"`
}

type activeUsersResponse struct {
	ActiveUsers int       `json:"activeUsers"`
	Timestamp   time.Time `json:"timestamp"`
}

// Heartbeat はセッションの生存を記録し、現在のセッション数を返す。
// POST /api/user/heartbeat
func (h *PresenceHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if apiErr := decodeJSONBody(r, &req); apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	sessionID, apiErr := sessionIDString(req.SessionID)
	if apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	count, err := h.tracker.Heartbeat(sessionID, presence.Metadata{
		UserAgent: r.UserAgent(),
		IP:        middleware.ClientIP(r),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, heartbeatResponse{
		Success:     true,
		ActiveUsers: count,
		SessionID:   sessionID,
	})
}

// ActiveUsers はタイムアウトしていないセッション数を返す。
// GET /api/users/active
func (h *PresenceHandler) ActiveUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, activeUsersResponse{
		ActiveUsers: h.tracker.ActiveCount(),
		Timestamp:   h.now().UTC(),
	})
}
