package model

import "time"

// EventSource identifies where a calendar event came from. Events from iCal
// feeds and meal plans are read-only; only local events can be edited.
type EventSource string

const (
	SourceLocal      EventSource = "local"
	SourceICal       EventSource = "ical"
	SourceFamilyICal EventSource = "family-ical"
	SourceMeal       EventSource = "meal"
)

// CalendarEvent is the unified event shape returned by the aggregator. The ID
// is source-namespaced (e.g. "ical-3-<uid>") so events from different feeds
// never collide with local event ids.
type CalendarEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Location    string      `json:"location"`
	Notes       string      `json:"notes"`
	AssigneeIDs []int64     `json:"assignee_ids"`
	Recurrence  string      `json:"recurrence,omitempty"`
	Source      EventSource `json:"source"`
	Color       string      `json:"color,omitempty"`
}

// Event is a locally stored calendar event. Empty AssigneeIDs means the event
// applies to the whole family. ExternalRef holds the provider-assigned id when
// the event has been mirrored to a connected external calendar.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Notes       string    `json:"notes"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location"`
	AssigneeIDs []int64   `json:"assignee_ids"`
	Recurrence  string    `json:"recurrence"`
	ExternalRef string    `json:"external_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
