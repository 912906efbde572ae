// Package layout computes render positions for calendar views: vertical
// boxes for timed events on the day/week time grid, and lane assignments for
// all-day banners. Everything here is pure computation over event times.
package layout

import (
	"math"
	"sort"
	"time"

	"github.com/hollyfield/hearth/internal/model"
)

// MinEventHeight keeps very short events tall enough to read and tap.
const MinEventHeight = 22.0

// Box is the vertical placement of a timed event within a day column, in
// pixels from the top of the visible window.
type Box struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// AllDayBox places one all-day event on the week's banner grid. Columns are
// day offsets from the week start; Span is the number of columns covered.
type AllDayBox struct {
	Event    model.CalendarEvent `json:"event"`
	Lane     int                 `json:"lane"`
	StartCol int                 `json:"start_col"`
	Span     int                 `json:"span"`
}

// IsAllDay reports whether an event is an all-day event: both endpoints on a
// UTC midnight boundary and at least 24 hours apart. The end is exclusive.
func IsAllDay(start, end time.Time) bool {
	return onUTCMidnight(start) && onUTCMidnight(end) && end.Sub(start) >= 24*time.Hour
}

func onUTCMidnight(t time.Time) bool {
	u := t.UTC()
	return u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0
}

// PositionInColumn computes the vertical box for a timed event within the day
// column starting at day, showing [startHour, endHour). It returns false when
// the event does not intersect the visible window at all. Events spilling
// past either edge are clamped to the window.
func PositionInColumn(ev model.CalendarEvent, day time.Time, startHour, endHour int, pxPerHour float64) (Box, bool) {
	windowStart := day.Add(time.Duration(startHour) * time.Hour)
	windowEnd := day.Add(time.Duration(endHour) * time.Hour)

	start := ev.StartTime
	end := ev.EndTime
	if !end.After(start) {
		// Zero-length and inverted events are treated as instants, shown
		// at minimum height when the instant is visible.
		end = start
		if start.Before(windowStart) || !start.Before(windowEnd) {
			return Box{}, false
		}
	} else if !start.Before(windowEnd) || !end.After(windowStart) {
		return Box{}, false
	}

	if start.Before(windowStart) {
		start = windowStart
	}
	if end.After(windowEnd) {
		end = windowEnd
	}

	top := start.Sub(windowStart).Minutes() / 60 * pxPerHour
	height := end.Sub(start).Minutes() / 60 * pxPerHour
	if height < MinEventHeight {
		height = MinEventHeight
	}

	return Box{Top: top, Height: height}, true
}

// PackAllDayLanes assigns lanes to the all-day events of the week beginning
// at weekStart so that no two events in a lane overlap. Greedy interval
// coloring: events are laid longest-first within each start column, and each
// takes the lowest lane whose previous occupant ends at or before the event's
// start column. The returned lane count sizes the banner row.
func PackAllDayLanes(events []model.CalendarEvent, weekStart time.Time) ([]AllDayBox, int) {
	type span struct {
		ev       model.CalendarEvent
		startCol int
		endCol   int
	}

	var spans []span
	for _, ev := range events {
		if !IsAllDay(ev.StartTime, ev.EndTime) {
			continue
		}
		startCol := clampCol(roundDays(ev.StartTime.Sub(weekStart)))
		endCol := clampCol(roundDays(ev.EndTime.Sub(weekStart)))
		if endCol-startCol <= 0 {
			continue
		}
		spans = append(spans, span{ev: ev, startCol: startCol, endCol: endCol})
	}

	// Longer events at the same start go first so shorter ones tuck into
	// freed lanes.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].startCol != spans[j].startCol {
			return spans[i].startCol < spans[j].startCol
		}
		return spans[i].endCol-spans[i].startCol > spans[j].endCol-spans[j].startCol
	})

	var laneEnds []int
	boxes := make([]AllDayBox, 0, len(spans))
	for _, sp := range spans {
		lane := -1
		for i, end := range laneEnds {
			if end <= sp.startCol {
				lane = i
				break
			}
		}
		if lane == -1 {
			laneEnds = append(laneEnds, 0)
			lane = len(laneEnds) - 1
		}
		laneEnds[lane] = sp.endCol

		boxes = append(boxes, AllDayBox{
			Event:    sp.ev,
			Lane:     lane,
			StartCol: sp.startCol,
			Span:     sp.endCol - sp.startCol,
		})
	}

	return boxes, len(laneEnds)
}

func roundDays(d time.Duration) int {
	return int(math.Round(d.Hours() / 24))
}

func clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col > 7 {
		return 7
	}
	return col
}
