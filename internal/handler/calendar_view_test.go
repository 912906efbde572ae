package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hollyfield/hearth/internal/aggregate"
	"github.com/hollyfield/hearth/internal/database"
	"github.com/hollyfield/hearth/internal/ical"
	"github.com/hollyfield/hearth/internal/model"
	"github.com/hollyfield/hearth/internal/store"
)

func setupViewHandler(t *testing.T) (*CalendarViewHandler, *store.EventStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	events := store.NewEventStore(db)
	agg := aggregate.New(
		events,
		store.NewFamilyMemberStore(db),
		store.NewFamilyCalendarStore(db),
		store.NewMealPlanStore(db),
		ical.NewFetcher(0),
		slog.Default(),
	)
	return NewCalendarViewHandler(agg, slog.Default()), events
}

func TestViewEventsRequiresRange(t *testing.T) {
	h, _ := setupViewHandler(t)

	rec := httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/api/calendar", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestViewEvents(t *testing.T) {
	h, events := setupViewHandler(t)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if _, err := events.Create("Dentist", "", start, start.Add(time.Hour), "", nil, ""); err != nil {
		t.Fatalf("create event: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Events(rec, httptest.NewRequest(http.MethodGet, "/api/calendar?start=2026-03-09&end=2026-03-16", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got []model.CalendarEvent
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Dentist" {
		t.Fatalf("events = %+v", got)
	}
}

func TestViewWeek(t *testing.T) {
	h, events := setupViewHandler(t)

	// Monday of the requested week.
	weekStart := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	// Timed event on Tuesday 10:00-11:30.
	timed := weekStart.AddDate(0, 0, 1).Add(10 * time.Hour)
	events.Create("Meeting", "", timed, timed.Add(90*time.Minute), "", nil, "")

	// All-day event spanning Wednesday and Thursday.
	allDayStart := weekStart.AddDate(0, 0, 2)
	events.Create("Grandparents visiting", "", allDayStart, allDayStart.AddDate(0, 0, 2), "", nil, "")

	rec := httptest.NewRecorder()
	h.Week(rec, httptest.NewRequest(http.MethodGet, "/api/calendar/week?start=2026-03-09&start_hour=8&end_hour=20&px_per_hour=60", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp weekResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Timed) != 1 {
		t.Fatalf("timed = %+v, want 1 box", resp.Timed)
	}
	box := resp.Timed[0]
	if box.Day != 1 {
		t.Errorf("day = %d, want 1 (Tuesday)", box.Day)
	}
	// 10:00 in an 8-20 window at 60px/h sits 120px down, 90 min is 90px tall.
	if box.Box.Top != 120 || box.Box.Height != 90 {
		t.Errorf("box = %+v, want top 120 height 90", box.Box)
	}

	if len(resp.AllDay) != 1 {
		t.Fatalf("all_day = %+v, want 1 banner", resp.AllDay)
	}
	banner := resp.AllDay[0]
	if banner.StartCol != 2 || banner.Span != 2 {
		t.Errorf("banner = %+v, want start_col 2 span 2", banner)
	}
	if resp.LaneCount != 1 {
		t.Errorf("lane_count = %d, want 1", resp.LaneCount)
	}
}

func TestViewWeekBadStart(t *testing.T) {
	h, _ := setupViewHandler(t)

	rec := httptest.NewRecorder()
	h.Week(rec, httptest.NewRequest(http.MethodGet, "/api/calendar/week?start=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestViewWeekInvalidHourWindow(t *testing.T) {
	h, _ := setupViewHandler(t)

	rec := httptest.NewRecorder()
	h.Week(rec, httptest.NewRequest(http.MethodGet, "/api/calendar/week?start=2026-03-09&start_hour=22&end_hour=8", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
