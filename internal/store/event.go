package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hollyfield/hearth/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, title, notes, start_time, end_time, location, assignee_ids, recurrence, external_ref, created_at, updated_at`

func (s *EventStore) Create(title, notes string, startTime, endTime time.Time, location string, assigneeIDs []int64, recurrence string) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO calendar_events (title, notes, start_time, end_time, location, assignee_ids, recurrence)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, notes, startTime.UTC(), endTime.UTC(), location, joinIDs(assigneeIDs), recurrence,
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, id,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query calendar event: %w", err)
	}
	return e, nil
}

// ListByDateRange returns non-recurring events overlapping [start, end).
// Recurring events are listed separately and expanded by the aggregator.
func (s *EventStore) ListByDateRange(start, end time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventColumns+` FROM calendar_events
		 WHERE recurrence = '' AND start_time < ? AND end_time > ?
		 ORDER BY start_time ASC`,
		end.UTC(), start.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecurring returns every event with a recurrence rule, regardless of its
// anchor occurrence's dates.
func (s *EventStore) ListRecurring() ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT ` + eventColumns + ` FROM calendar_events
		 WHERE recurrence != ''
		 ORDER BY start_time ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query recurring events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *EventStore) Update(id int64, title, notes string, startTime, endTime time.Time, location string, assigneeIDs []int64, recurrence string) (*model.Event, error) {
	_, err := s.db.Exec(
		`UPDATE calendar_events
		 SET title = ?, notes = ?, start_time = ?, end_time = ?, location = ?, assignee_ids = ?, recurrence = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, notes, startTime.UTC(), endTime.UTC(), location, joinIDs(assigneeIDs), recurrence, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update calendar event: %w", err)
	}

	return s.GetByID(id)
}

// SetExternalRef records the provider-assigned id after a successful mirror
// to the external calendar.
func (s *EventStore) SetExternalRef(id int64, ref string) error {
	_, err := s.db.Exec(
		`UPDATE calendar_events SET external_ref = ? WHERE id = ?`, ref, id,
	)
	if err != nil {
		return fmt.Errorf("set external ref: %w", err)
	}
	return nil
}

func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	var assignees string

	err := row.Scan(&e.ID, &e.Title, &e.Notes, &e.StartTime, &e.EndTime, &e.Location, &assignees, &e.Recurrence, &e.ExternalRef, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	e.AssigneeIDs = splitIDs(assignees)
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// joinIDs stores an assignee set as a comma-separated column value. Ordering
// is irrelevant; an empty set means the event applies to the whole family.
func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func splitIDs(s string) []int64 {
	if s == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
