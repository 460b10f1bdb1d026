package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"

	"github.com/hitoshi/guildcal/internal/model"
)

type eventListerFunc func(ctx context.Context) ([]*model.Event, error)

func (f eventListerFunc) ListAll(ctx context.Context) ([]*model.Event, error) { return f(ctx) }

func TestCalendarHandler_Export(t *testing.T) {
	e := sampleEvent()
	e.Description = "Monthly guild meeting"
	lister := eventListerFunc(func(ctx context.Context) ([]*model.Event, error) {
		return []*model.Event{e}, nil
	})
	h := NewCalendarHandler(lister, func() time.Time { return fixedNow })

	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest(http.MethodGet, "/api/calendar.ics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "guild-events.ics") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	cal, err := ical.NewDecoder(strings.NewReader(w.Body.String())).Decode()
	if err != nil {
		t.Fatalf("failed to decode calendar: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("VEVENT count = %d, want 1", len(events))
	}
	ve := events[0]

	if uid, _ := ve.Props.Text(ical.PropUID); uid != testEventID+"@guildcal" {
		t.Errorf("UID = %q", uid)
	}
	if summary, _ := ve.Props.Text(ical.PropSummary); summary != "Guild Meeting" {
		t.Errorf("SUMMARY = %q", summary)
	}
	if cat, _ := ve.Props.Text(ical.PropCategories); cat != "MEETING" {
		t.Errorf("CATEGORIES = %q", cat)
	}
	if desc, _ := ve.Props.Text(ical.PropDescription); desc != "Monthly guild meeting\nTime: 19:00" {
		t.Errorf("DESCRIPTION = %q", desc)
	}
	start, err := ve.DateTimeStart(time.UTC)
	if err != nil {
		t.Fatalf("DTSTART: %v", err)
	}
	if !start.Equal(e.Date) {
		t.Errorf("DTSTART = %v, want %v", start, e.Date)
	}
}

func TestCalendarHandler_Export_NoEvents(t *testing.T) {
	lister := eventListerFunc(func(ctx context.Context) ([]*model.Event, error) {
		return nil, nil
	})
	h := NewCalendarHandler(lister, nil)

	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest(http.MethodGet, "/api/calendar.ics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "END:VCALENDAR") {
		t.Errorf("body is not a calendar: %q", body)
	}
	if strings.Contains(body, "BEGIN:VEVENT") {
		t.Errorf("unexpected VEVENT in empty calendar")
	}
}

func TestCalendarHandler_Export_StoreError(t *testing.T) {
	lister := eventListerFunc(func(ctx context.Context) ([]*model.Event, error) {
		return nil, model.NewStoreError("fetch events", errors.New("connection reset"))
	})
	h := NewCalendarHandler(lister, nil)

	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest(http.MethodGet, "/api/calendar.ics", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

// failingWriter はボディの書き込みが常に失敗するResponseWriter。
type failingWriter struct {
	*httptest.ResponseRecorder
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestCalendarHandler_Export_LogsWriteError(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	lister := eventListerFunc(func(ctx context.Context) ([]*model.Event, error) {
		return []*model.Event{sampleEvent()}, nil
	})
	h := NewCalendarHandler(lister, nil)

	w := failingWriter{httptest.NewRecorder()}
	h.Export(w, httptest.NewRequest(http.MethodGet, "/api/calendar.ics", nil))

	if !strings.Contains(logs.String(), "failed to write calendar") {
		t.Errorf("write error was not logged: %s", logs.String())
	}
}
