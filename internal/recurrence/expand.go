package recurrence

import (
	"sort"
	"time"
)

// Occurrence represents a single generated occurrence of a recurring event.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// maxIterations bounds every iterator loop. A rule that produces no valid
// occurrence within this many steps is treated as exhausted.
const maxIterations = 10000

// Expand generates all occurrences of a recurring local event within
// [rangeStart, rangeEnd). eventStart and eventEnd define the first
// occurrence's time span; each generated occurrence keeps that duration.
// Remote feed events are never expanded, only locally stored rules.
func Expand(spec Spec, eventStart, eventEnd time.Time, rangeStart, rangeEnd time.Time) []Occurrence {
	if spec.Mode == ModeNone {
		return nil
	}

	duration := eventEnd.Sub(eventStart)
	until := untilTime(spec)
	var results []Occurrence
	count := 0

	iter := newIterator(spec, eventStart)
	for {
		occStart := iter.next()
		if occStart.IsZero() {
			break
		}

		if until != nil && occStart.After(*until) {
			break
		}
		if !occStart.Before(rangeEnd) {
			break
		}

		count++
		if spec.End.Type == EndAfterCount && spec.End.Count > 0 && count > spec.End.Count {
			break
		}

		occEnd := occStart.Add(duration)
		if occStart.Before(rangeEnd) && occEnd.After(rangeStart) {
			results = append(results, Occurrence{Start: occStart, End: occEnd})
		}
	}

	return results
}

// untilTime parses the spec's UNTIL date, if any. The stored form is a bare
// date, interpreted as midnight UTC: occurrences later that day are past the
// limit, matching the UNTIL=<date>T000000Z wire form.
func untilTime(spec Spec) *time.Time {
	if spec.End.Type != EndUntil || spec.End.Until == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", spec.End.Until)
	if err != nil {
		return nil
	}
	return &t
}

// byDays maps the spec's weekday codes to time.Weekday values, ordered
// Monday-first so occurrences within a week come out chronologically.
func byDays(spec Spec) []time.Weekday {
	if spec.Mode != ModeWeekly {
		return nil
	}
	var days []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, code := range spec.Weekdays {
		if wd, ok := weekdayFromCode[code]; ok && !seen[wd] {
			days = append(days, wd)
			seen[wd] = true
		}
	}
	sort.Slice(days, func(i, j int) bool {
		return mondayIndex(days[i]) < mondayIndex(days[j])
	})
	return days
}

func mondayIndex(d time.Weekday) int {
	idx := int(d) - int(time.Monday)
	if idx < 0 {
		idx += 7
	}
	return idx
}

type iterator struct {
	spec       Spec
	interval   int
	byDay      []time.Weekday
	baseStart  time.Time
	current    time.Time
	weekDayIdx int
	started    bool
	steps      int
}

func newIterator(spec Spec, start time.Time) *iterator {
	interval := spec.Interval
	if interval < 1 {
		interval = 1
	}
	return &iterator{
		spec:      spec,
		interval:  interval,
		byDay:     byDays(spec),
		baseStart: start,
		current:   start,
	}
}

func (it *iterator) next() time.Time {
	if it.steps >= maxIterations {
		return time.Time{}
	}
	it.steps++
	return it.advance()
}

func (it *iterator) advance() time.Time {
	switch it.spec.Mode {
	case ModeDaily:
		return it.advanceDaily()
	case ModeWeekly:
		if len(it.byDay) > 0 {
			return it.advanceWeeklyByDay()
		}
		return it.advanceWeeklySimple()
	case ModeMonthly:
		return it.advanceMonthly()
	case ModeYearly:
		return it.advanceYearly()
	}
	return time.Time{}
}

func (it *iterator) advanceDaily() time.Time {
	if !it.started {
		it.started = true
		return it.current
	}
	it.current = it.current.AddDate(0, 0, it.interval)
	return it.current
}

func (it *iterator) advanceWeeklySimple() time.Time {
	if !it.started {
		it.started = true
		return it.current
	}
	it.current = it.current.AddDate(0, 0, 7*it.interval)
	return it.current
}

func (it *iterator) advanceWeeklyByDay() time.Time {
	if !it.started {
		it.started = true
		it.current = weekStart(it.baseStart)
		it.weekDayIdx = 0
		return it.findNextByDay()
	}

	it.weekDayIdx++
	if it.weekDayIdx >= len(it.byDay) {
		it.current = weekStart(it.current.AddDate(0, 0, 7*it.interval))
		it.weekDayIdx = 0
	}
	return it.findNextByDay()
}

func (it *iterator) findNextByDay() time.Time {
	for it.weekDayIdx < len(it.byDay) {
		day := it.byDay[it.weekDayIdx]
		candidate := time.Date(
			it.current.Year(), it.current.Month(), it.current.Day()+mondayIndex(day),
			it.baseStart.Hour(), it.baseStart.Minute(), it.baseStart.Second(), 0,
			it.baseStart.Location(),
		)

		// Skip dates before the event start
		if !candidate.Before(it.baseStart) {
			return candidate
		}
		it.weekDayIdx++
	}

	// All days in this week are before start; advance to next week
	it.current = weekStart(it.current.AddDate(0, 0, 7*it.interval))
	it.weekDayIdx = 0
	return it.findNextByDay()
}

// weekStart returns the Monday midnight opening t's week.
func weekStart(t time.Time) time.Time {
	monday := t.AddDate(0, 0, -mondayIndex(t.Weekday()))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

func (it *iterator) advanceMonthly() time.Time {
	if !it.started {
		it.started = true
		return it.current
	}

	day := it.baseStart.Day()
	next := it.current.AddDate(0, it.interval, 0)
	year, month, _ := next.Date()

	// Skip months too short for the anchor day (e.g. the 31st).
	for day > daysInMonth(year, month) {
		next = next.AddDate(0, it.interval, 0)
		year, month, _ = next.Date()
	}

	it.current = time.Date(
		year, month, day,
		it.baseStart.Hour(), it.baseStart.Minute(), it.baseStart.Second(), 0,
		it.baseStart.Location(),
	)
	return it.current
}

func (it *iterator) advanceYearly() time.Time {
	if !it.started {
		it.started = true
		return it.current
	}

	// Build each candidate from the anchor's month and day rather than
	// adding years to the previous occurrence: AddDate normalizes Feb 29
	// to Mar 1 in common years, which would silently shift the anchor.
	// Candidates that land outside the anchor month (Feb 29 in a common
	// year) are skipped, so a Feb 29 anchor fires only on leap years.
	year := it.current.Year()
	for i := 0; i < maxIterations; i++ {
		year += it.interval
		next := time.Date(
			year, it.baseStart.Month(), it.baseStart.Day(),
			it.baseStart.Hour(), it.baseStart.Minute(), it.baseStart.Second(), 0,
			it.baseStart.Location(),
		)
		if next.Month() != it.baseStart.Month() {
			continue
		}
		it.current = next
		return it.current
	}
	return time.Time{}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
