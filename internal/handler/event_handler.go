package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/guildcal/internal/model"
)

// EventServiceInterface はイベントハンドラーが必要とするサービスインターフェース。
type EventServiceInterface interface {
	// ListAll は全イベントを返す。
	ListAll(ctx context.Context) ([]*model.Event, error)
	// ListByRange はstart <= date <= endのイベントを返す。
	ListByRange(ctx context.Context, start, end string) ([]*model.Event, error)
	// Create はイベントを作成する。
	Create(ctx context.Context, in model.EventInput) (*model.Event, error)
	// Get は指定IDのイベントを返す。
	Get(ctx context.Context, id string) (*model.Event, error)
	// Update は指定されたフィールドのみを更新する。
	Update(ctx context.Context, id string, in model.EventInput) (*model.Event, error)
	// Delete はイベントを削除する。
	Delete(ctx context.Context, id string) error
}

// EventHandler はイベント管理のHTTPハンドラー。
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを生成する。
func NewEventHandler(service EventServiceInterface) *EventHandler {
	return &EventHandler{
		service: service,
	}
}

// eventResponse はイベントのAPIレスポンス。
type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	Time        string    `json:"time"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// messageResponse は処理結果メッセージのみを返すレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

func toEventResponse(e *model.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.UTC(),
		Type:        e.Type,
		Time:        e.Time,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

func toEventResponses(events []*model.Event) []eventResponse {
	resp := make([]eventResponse, len(events))
	for i, e := range events {
		resp[i] = toEventResponse(e)
	}
	return resp
}

// ListEvents は全イベントを返す。
// GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(events))
}

// ListEventsByRange は期間内のイベントを返す。両端を含む。
// GET /api/events/range?start=&end=
func (h *EventHandler) ListEventsByRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.service.ListByRange(r.Context(), q.Get("start"), q.Get("end"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(events))
}

// CreateEvent はイベントを作成する。
// POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if apiErr := decodeJSONBody(r, &in); apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	event, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

// GetEvent は指定IDのイベントを返す。
// GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// UpdateEvent はボディに含まれるフィールドのみを更新する。
// PUT /api/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if apiErr := decodeJSONBody(r, &in); apiErr != nil {
		handleServiceError(w, r, apiErr)
		return
	}

	event, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// DeleteEvent はイベントを削除する。
// DELETE /api/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Event deleted successfully"})
}
