package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/hitoshi/guildcal/internal/model"
)

const calendarProductID = "-//guildcal//Guild Events//EN"

// EventLister はカレンダー出力に必要な一覧取得インターフェース。
type EventLister interface {
	ListAll(ctx context.Context) ([]*model.Event, error)
}

// CalendarHandler はイベントをiCalendar形式で出力するHTTPハンドラー。
type CalendarHandler struct {
	events EventLister
	now    func() time.Time
}

// NewCalendarHandler はCalendarHandlerを生成する。nowがnilの場合はtime.Nowを使う。
func NewCalendarHandler(events EventLister, now func() time.Time) *CalendarHandler {
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{
		events: events,
		now:    now,
	}
}

// Export は全イベントをVCALENDARとして返す。
// GET /api/calendar.ics
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	cal := buildCalendar(events, h.now().UTC())

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="guild-events.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.ErrorContext(r.Context(), "failed to write calendar", slog.String("error", err.Error()))
	}
}

// buildCalendar はイベント一覧からVCALENDARを組み立てる。
// イベントが0件でも有効なカレンダーになるようUTCのVTIMEZONEを含める。
func buildCalendar(events []*model.Event, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	cal.Props.SetText("X-WR-CALNAME", "Guild Events")
	cal.Children = append(cal.Children, utcTimezone())

	for _, e := range events {
		cal.Children = append(cal.Children, toVEvent(e, now))
	}
	return cal
}

// toVEvent はイベントをVEVENTに変換する。
func toVEvent(e *model.Event, now time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID+"@guildcal")
	ve.Props.SetText(ical.PropSummary, e.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now)
	ve.Props.SetDateTime(ical.PropDateTimeStart, e.Date.UTC())
	ve.Props.SetText(ical.PropCategories, strings.ToUpper(e.Type))
	if !e.CreatedAt.IsZero() {
		ve.Props.SetDateTime(ical.PropCreated, e.CreatedAt.UTC())
	}
	if !e.UpdatedAt.IsZero() {
		ve.Props.SetDateTime(ical.PropLastModified, e.UpdatedAt.UTC())
	}

	description := e.Description
	if e.Time != "" {
		if description != "" {
			description += "\n"
		}
		description += "Time: " + e.Time
	}
	if description != "" {
		ve.Props.SetText(ical.PropDescription, description)
	}
	return ve
}

func utcTimezone() *ical.Component {
	tz := ical.NewComponent(ical.CompTimezone)
	tz.Props.SetText(ical.PropTimezoneID, "UTC")

	std := ical.NewComponent(ical.CompTimezoneStandard)
	start := ical.NewProp(ical.PropDateTimeStart)
	start.Value = "19700101T000000"
	std.Props.Set(start)
	std.Props.SetText(ical.PropTimezoneOffsetFrom, "+0000")
	std.Props.SetText(ical.PropTimezoneOffsetTo, "+0000")
	tz.Children = append(tz.Children, std)
	return tz
}
