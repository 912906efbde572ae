// Package aggregate merges calendar events from every configured source into
// a single sorted list: locally stored events (recurring ones expanded),
// per-member iCal feeds, shared family calendar feeds, and meal plan entries.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hollyfield/hearth/internal/ical"
	"github.com/hollyfield/hearth/internal/model"
	"github.com/hollyfield/hearth/internal/recurrence"
	"github.com/hollyfield/hearth/internal/store"
)

// FeedFetcher fetches an iCal feed body, typically through a caching layer.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// mealClock fixes the display slot for each meal type. Meal entries carry only
// a date, so the aggregator pins them to conventional times of day.
var mealClock = map[model.MealType]struct {
	hour, minute int
}{
	model.MealBreakfast: {8, 0},
	model.MealLunch:     {12, 30},
	model.MealDinner:    {18, 15},
	model.MealSnack:     {15, 0},
}

const mealDuration = time.Hour

// Service aggregates events across all sources for a time range.
type Service struct {
	events    *store.EventStore
	members   *store.FamilyMemberStore
	calendars *store.FamilyCalendarStore
	meals     *store.MealPlanStore
	fetcher   FeedFetcher
	logger    *slog.Logger
}

func New(events *store.EventStore, members *store.FamilyMemberStore, calendars *store.FamilyCalendarStore, meals *store.MealPlanStore, fetcher FeedFetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		events:    events,
		members:   members,
		calendars: calendars,
		meals:     meals,
		fetcher:   fetcher,
		logger:    logger,
	}
}

// Range returns every event overlapping [start, end), sorted by start time.
// Sources are fetched concurrently and independently: a feed that is down or
// unparseable contributes nothing, it never fails the whole request. Ties on
// start time keep source order: local events, then member feeds, then family
// calendars, then meals.
func (s *Service) Range(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	members, err := s.members.ListVisible()
	if err != nil {
		s.logger.Error("list family members", "error", err)
	}
	calendars, err := s.calendars.ListVisible()
	if err != nil {
		s.logger.Error("list family calendars", "error", err)
	}

	// One slot per source keeps merge order deterministic regardless of
	// which goroutine finishes first.
	slots := make([][]model.CalendarEvent, 1+len(members)+len(calendars)+1)
	mealSlot := len(slots) - 1

	var g errgroup.Group

	g.Go(func() error {
		events, err := s.localEvents(start, end)
		if err != nil {
			s.logger.Error("load local events", "error", err)
			return nil
		}
		slots[0] = events
		return nil
	})

	for i, member := range members {
		g.Go(func() error {
			slots[1+i] = s.memberFeedEvents(ctx, member, start, end)
			return nil
		})
	}

	for i, cal := range calendars {
		g.Go(func() error {
			slots[1+len(members)+i] = s.calendarFeedEvents(ctx, cal, start, end)
			return nil
		})
	}

	g.Go(func() error {
		entries, err := s.meals.ListByDateRange(start, end)
		if err != nil {
			s.logger.Error("load meal plan", "error", err)
			return nil
		}
		slots[mealSlot] = mealEvents(entries)
		return nil
	})

	// Source errors are already swallowed above; Wait only synchronizes.
	g.Wait()

	var merged []model.CalendarEvent
	for _, slot := range slots {
		merged = append(merged, slot...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].StartTime.Before(merged[j].StartTime)
	})

	return merged, nil
}

// localEvents returns stored one-off events in range plus in-range occurrences
// of stored recurring events.
func (s *Service) localEvents(start, end time.Time) ([]model.CalendarEvent, error) {
	stored, err := s.events.ListByDateRange(start, end)
	if err != nil {
		return nil, err
	}

	var result []model.CalendarEvent
	for _, ev := range stored {
		result = append(result, model.CalendarEvent{
			ID:          fmt.Sprintf("local-%d", ev.ID),
			Title:       ev.Title,
			StartTime:   ev.StartTime,
			EndTime:     ev.EndTime,
			Location:    ev.Location,
			Notes:       ev.Notes,
			AssigneeIDs: ev.AssigneeIDs,
			Source:      model.SourceLocal,
		})
	}

	recurring, err := s.events.ListRecurring()
	if err != nil {
		return nil, err
	}

	for _, ev := range recurring {
		spec := recurrence.Decode(ev.Recurrence)
		for _, occ := range recurrence.Expand(spec, ev.StartTime, ev.EndTime, start, end) {
			result = append(result, model.CalendarEvent{
				ID:          fmt.Sprintf("local-%d-%s", ev.ID, occ.Start.Format("2006-01-02")),
				Title:       ev.Title,
				StartTime:   occ.Start,
				EndTime:     occ.End,
				Location:    ev.Location,
				Notes:       ev.Notes,
				AssigneeIDs: ev.AssigneeIDs,
				Recurrence:  ev.Recurrence,
				Source:      model.SourceLocal,
			})
		}
	}

	return result, nil
}

func (s *Service) memberFeedEvents(ctx context.Context, member model.FamilyMember, start, end time.Time) []model.CalendarEvent {
	if member.FeedURL == "" {
		return nil
	}

	body, err := s.fetcher.Fetch(ctx, member.FeedURL)
	if err != nil {
		s.logger.Warn("fetch member feed", "member_id", member.ID, "error", err)
		return nil
	}

	var result []model.CalendarEvent
	for _, ve := range ical.Parse(body) {
		if !overlaps(ve.Start, ve.End, start, end) {
			continue
		}
		result = append(result, model.CalendarEvent{
			ID:          fmt.Sprintf("ical-%d-%s", member.ID, ve.UID),
			Title:       ve.Summary,
			StartTime:   ve.Start,
			EndTime:     ve.End,
			Location:    ve.Location,
			Notes:       ve.Description,
			AssigneeIDs: []int64{member.ID},
			Source:      model.SourceICal,
		})
	}
	return result
}

func (s *Service) calendarFeedEvents(ctx context.Context, cal model.FamilyCalendar, start, end time.Time) []model.CalendarEvent {
	body, err := s.fetcher.Fetch(ctx, cal.FeedURL)
	if err != nil {
		s.logger.Warn("fetch family calendar feed", "calendar_id", cal.ID, "error", err)
		return nil
	}

	var result []model.CalendarEvent
	for _, ve := range ical.Parse(body) {
		if !overlaps(ve.Start, ve.End, start, end) {
			continue
		}
		result = append(result, model.CalendarEvent{
			ID:        fmt.Sprintf("family-ical-%d-%s", cal.ID, ve.UID),
			Title:     ve.Summary,
			StartTime: ve.Start,
			EndTime:   ve.End,
			Location:  ve.Location,
			Notes:     ve.Description,
			Source:    model.SourceFamilyICal,
			Color:     cal.Color,
		})
	}
	return result
}

func mealEvents(entries []model.MealPlanEntry) []model.CalendarEvent {
	var result []model.CalendarEvent
	for _, entry := range entries {
		clock, ok := mealClock[entry.MealType]
		if !ok {
			clock = mealClock[model.MealDinner]
		}
		start := time.Date(entry.Date.Year(), entry.Date.Month(), entry.Date.Day(), clock.hour, clock.minute, 0, 0, time.UTC)
		result = append(result, model.CalendarEvent{
			ID:        fmt.Sprintf("meal-%d", entry.ID),
			Title:     entry.Title,
			StartTime: start,
			EndTime:   start.Add(mealDuration),
			Notes:     entry.Notes,
			Source:    model.SourceMeal,
		})
	}
	return result
}

// overlaps reports whether [evStart, evEnd) intersects [rangeStart, rangeEnd).
func overlaps(evStart, evEnd, rangeStart, rangeEnd time.Time) bool {
	return evStart.Before(rangeEnd) && evEnd.After(rangeStart)
}
