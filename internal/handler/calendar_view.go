package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hollyfield/hearth/internal/aggregate"
	"github.com/hollyfield/hearth/internal/layout"
	"github.com/hollyfield/hearth/internal/model"
)

// Default time-grid window for the week view. Clients can override per
// request; the kiosk display uses these.
const (
	defaultStartHour = 7
	defaultEndHour   = 21
	defaultPxPerHour = 60.0
)

// CalendarViewHandler serves the read side of the calendar: aggregated event
// lists and the laid-out week grid.
type CalendarViewHandler struct {
	agg    *aggregate.Service
	logger *slog.Logger
}

func NewCalendarViewHandler(agg *aggregate.Service, logger *slog.Logger) *CalendarViewHandler {
	return &CalendarViewHandler{agg: agg, logger: logger}
}

// Events returns every event from every source overlapping [start, end).
func (h *CalendarViewHandler) Events(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRangeParams(w, r)
	if !ok {
		return
	}

	events, err := h.agg.Range(r.Context(), start, end)
	if err != nil {
		h.logger.Error("aggregate events", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load events"})
		return
	}
	if events == nil {
		events = []model.CalendarEvent{}
	}

	writeJSON(w, http.StatusOK, events)
}

type timedBox struct {
	Event model.CalendarEvent `json:"event"`
	Day   int                 `json:"day"`
	Box   layout.Box          `json:"box"`
}

type weekResponse struct {
	WeekStart time.Time          `json:"week_start"`
	StartHour int                `json:"start_hour"`
	EndHour   int                `json:"end_hour"`
	Timed     []timedBox         `json:"timed"`
	AllDay    []layout.AllDayBox `json:"all_day"`
	LaneCount int                `json:"lane_count"`
}

// Week returns the laid-out week grid starting at the given date: pixel boxes
// for timed events per day column plus packed banner lanes for all-day events.
func (h *CalendarViewHandler) Week(w http.ResponseWriter, r *http.Request) {
	weekStart, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start must be YYYY-MM-DD format"})
		return
	}
	weekStart = weekStart.UTC()

	startHour := queryInt(r, "start_hour", defaultStartHour)
	endHour := queryInt(r, "end_hour", defaultEndHour)
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hour window"})
		return
	}
	pxPerHour := defaultPxPerHour
	if v := r.URL.Query().Get("px_per_hour"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			pxPerHour = f
		}
	}

	weekEnd := weekStart.AddDate(0, 0, 7)
	events, err := h.agg.Range(r.Context(), weekStart, weekEnd)
	if err != nil {
		h.logger.Error("aggregate week", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load events"})
		return
	}

	resp := weekResponse{
		WeekStart: weekStart,
		StartHour: startHour,
		EndHour:   endHour,
		Timed:     []timedBox{},
	}

	for _, ev := range events {
		if layout.IsAllDay(ev.StartTime, ev.EndTime) {
			continue
		}
		for day := 0; day < 7; day++ {
			dayStart := weekStart.AddDate(0, 0, day)
			if box, ok := layout.PositionInColumn(ev, dayStart, startHour, endHour, pxPerHour); ok {
				resp.Timed = append(resp.Timed, timedBox{Event: ev, Day: day, Box: box})
			}
		}
	}

	resp.AllDay, resp.LaneCount = layout.PackAllDayLanes(events, weekStart)
	if resp.AllDay == nil {
		resp.AllDay = []layout.AllDayBox{}
	}

	writeJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
