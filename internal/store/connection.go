package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyfield/hearth/internal/model"
)

// ConnectionStore persists the household's single external calendar
// connection. The row is keyed to id 1; Get returns nil when the household
// has never linked a provider.
type ConnectionStore struct {
	db *sql.DB
}

func NewConnectionStore(db *sql.DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

func (s *ConnectionStore) Get() (*model.CalendarConnection, error) {
	var c model.CalendarConnection

	err := s.db.QueryRow(
		`SELECT access_token, refresh_token, token_expiry, calendar_id, updated_at
		 FROM calendar_connection WHERE id = 1`,
	).Scan(&c.AccessToken, &c.RefreshToken, &c.TokenExpiry, &c.CalendarID, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query calendar connection: %w", err)
	}

	return &c, nil
}

func (s *ConnectionStore) Save(accessToken, refreshToken string, tokenExpiry time.Time, calendarID string) error {
	_, err := s.db.Exec(
		`INSERT INTO calendar_connection (id, access_token, refresh_token, token_expiry, calendar_id)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   token_expiry = excluded.token_expiry,
		   calendar_id = excluded.calendar_id,
		   updated_at = CURRENT_TIMESTAMP`,
		accessToken, refreshToken, tokenExpiry.UTC(), calendarID,
	)
	if err != nil {
		return fmt.Errorf("save calendar connection: %w", err)
	}
	return nil
}

// UpdateToken persists a refreshed access token without touching the refresh
// token or target calendar.
func (s *ConnectionStore) UpdateToken(accessToken string, tokenExpiry time.Time) error {
	_, err := s.db.Exec(
		`UPDATE calendar_connection
		 SET access_token = ?, token_expiry = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = 1`,
		accessToken, tokenExpiry.UTC(),
	)
	if err != nil {
		return fmt.Errorf("update calendar token: %w", err)
	}
	return nil
}

// SetCalendarID binds the connection to a chosen target calendar, moving it
// out of the pending state.
func (s *ConnectionStore) SetCalendarID(calendarID string) error {
	_, err := s.db.Exec(
		`UPDATE calendar_connection
		 SET calendar_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = 1`,
		calendarID,
	)
	if err != nil {
		return fmt.Errorf("set calendar id: %w", err)
	}
	return nil
}

func (s *ConnectionStore) Delete() error {
	_, err := s.db.Exec(`DELETE FROM calendar_connection WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("delete calendar connection: %w", err)
	}
	return nil
}
