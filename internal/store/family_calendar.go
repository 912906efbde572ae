package store

import (
	"database/sql"
	"fmt"

	"github.com/hollyfield/hearth/internal/model"
)

type FamilyCalendarStore struct {
	db *sql.DB
}

func NewFamilyCalendarStore(db *sql.DB) *FamilyCalendarStore {
	return &FamilyCalendarStore{db: db}
}

const calendarColumns = `id, name, color, feed_url, hidden, created_at, updated_at`

func (s *FamilyCalendarStore) Create(name, color, feedURL string) (*model.FamilyCalendar, error) {
	result, err := s.db.Exec(
		`INSERT INTO family_calendars (name, color, feed_url) VALUES (?, ?, ?)`,
		name, color, feedURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family calendar: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(id)
}

func (s *FamilyCalendarStore) GetByID(id int64) (*model.FamilyCalendar, error) {
	var c model.FamilyCalendar
	var hidden int

	err := s.db.QueryRow(
		`SELECT `+calendarColumns+` FROM family_calendars WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Color, &c.FeedURL, &hidden, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query family calendar: %w", err)
	}

	c.Hidden = hidden != 0
	return &c, nil
}

func (s *FamilyCalendarStore) List() ([]model.FamilyCalendar, error) {
	return s.list(`SELECT ` + calendarColumns + ` FROM family_calendars ORDER BY id ASC`)
}

// ListVisible returns calendars with a configured feed URL that are not
// hidden; only these contribute events to the aggregated view.
func (s *FamilyCalendarStore) ListVisible() ([]model.FamilyCalendar, error) {
	return s.list(`SELECT ` + calendarColumns + ` FROM family_calendars WHERE hidden = 0 AND feed_url != '' ORDER BY id ASC`)
}

func (s *FamilyCalendarStore) list(query string) ([]model.FamilyCalendar, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query family calendars: %w", err)
	}
	defer rows.Close()

	var calendars []model.FamilyCalendar
	for rows.Next() {
		var c model.FamilyCalendar
		var hidden int
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.FeedURL, &hidden, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan family calendar: %w", err)
		}
		c.Hidden = hidden != 0
		calendars = append(calendars, c)
	}
	return calendars, rows.Err()
}

func (s *FamilyCalendarStore) Update(id int64, name, color, feedURL string, hidden bool) (*model.FamilyCalendar, error) {
	var hiddenInt int
	if hidden {
		hiddenInt = 1
	}

	_, err := s.db.Exec(
		`UPDATE family_calendars
		 SET name = ?, color = ?, feed_url = ?, hidden = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, color, feedURL, hiddenInt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update family calendar: %w", err)
	}

	return s.GetByID(id)
}

func (s *FamilyCalendarStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM family_calendars WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family calendar: %w", err)
	}
	return nil
}
