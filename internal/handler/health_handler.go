package handler

import (
	"context"
	"net/http"
	"time"
)

// ストア状態の表示値
const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
	healthStatusError    = "error"

	databaseConnected    = "connected"
	databaseMemory       = "memory"
	databaseDisconnected = "disconnected"

	memoryStoreName = "memory"
)

// HealthChecker はヘルスチェック対象のストア。
type HealthChecker interface {
	Ping(ctx context.Context) bool
	Name() string
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	checker HealthChecker
	now     func() time.Time
}

// NewHealthHandler はHealthHandlerを生成する。nowがnilの場合はtime.Nowを使う。
func NewHealthHandler(checker HealthChecker, now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{
		checker: checker,
		now:     now,
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Check はストアの疎通を確認して結果を返す。
// メモリストアで動作中の場合は200のままdegradedを返す。
// GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()

	if !h.checker.Ping(r.Context()) {
		writeJSON(w, http.StatusInternalServerError, healthResponse{
			Status:    healthStatusError,
			Database:  databaseDisconnected,
			Message:   "Database connection failed",
			Timestamp: now,
		})
		return
	}

	resp := healthResponse{
		Status:    healthStatusOK,
		Database:  databaseConnected,
		Timestamp: now,
	}
	if h.checker.Name() == memoryStoreName {
		resp.Status = healthStatusDegraded
		resp.Database = databaseMemory
	}
	writeJSON(w, http.StatusOK, resp)
}
