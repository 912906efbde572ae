package model

import "time"

// FamilyCalendar is a shared iCal subscription that applies to the whole
// family rather than a single member (school calendar, sports team, etc).
type FamilyCalendar struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	FeedURL   string    `json:"feed_url"`
	Hidden    bool      `json:"hidden"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
