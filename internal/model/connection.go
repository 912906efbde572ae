package model

import "time"

// PendingCalendarID marks a connection where the user has completed OAuth but
// has not yet picked a target calendar. Sync operations are no-ops until a
// real calendar id is chosen.
const PendingCalendarID = "pending"

// CalendarConnection holds the OAuth state for the household's external
// calendar provider link.
type CalendarConnection struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`
	CalendarID   string    `json:"calendar_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Pending reports whether the connection is authorized but not yet bound to a
// target calendar.
func (c *CalendarConnection) Pending() bool {
	return c.CalendarID == PendingCalendarID
}
