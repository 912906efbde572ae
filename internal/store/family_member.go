package store

import (
	"database/sql"
	"fmt"

	"github.com/hollyfield/hearth/internal/model"
)

type FamilyMemberStore struct {
	db *sql.DB
}

func NewFamilyMemberStore(db *sql.DB) *FamilyMemberStore {
	return &FamilyMemberStore{db: db}
}

const memberColumns = `id, name, color, avatar_emoji, feed_url, hidden, sort_order, created_at, updated_at`

func (s *FamilyMemberStore) Create(name, color, avatarEmoji, feedURL string) (*model.FamilyMember, error) {
	var maxSort sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(sort_order) FROM family_members`).Scan(&maxSort); err != nil {
		return nil, fmt.Errorf("query max sort order: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO family_members (name, color, avatar_emoji, feed_url, sort_order) VALUES (?, ?, ?, ?, ?)`,
		name, color, avatarEmoji, feedURL, maxSort.Int64+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family member: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(id)
}

func (s *FamilyMemberStore) GetByID(id int64) (*model.FamilyMember, error) {
	var m model.FamilyMember
	var hidden int

	err := s.db.QueryRow(
		`SELECT `+memberColumns+` FROM family_members WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Color, &m.AvatarEmoji, &m.FeedURL, &hidden, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query family member: %w", err)
	}

	m.Hidden = hidden != 0
	return &m, nil
}

func (s *FamilyMemberStore) List() ([]model.FamilyMember, error) {
	return s.list(`SELECT ` + memberColumns + ` FROM family_members ORDER BY sort_order ASC, id ASC`)
}

// ListVisible returns members not hidden from the calendar, in display order.
func (s *FamilyMemberStore) ListVisible() ([]model.FamilyMember, error) {
	return s.list(`SELECT ` + memberColumns + ` FROM family_members WHERE hidden = 0 ORDER BY sort_order ASC, id ASC`)
}

func (s *FamilyMemberStore) list(query string) ([]model.FamilyMember, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query family members: %w", err)
	}
	defer rows.Close()

	var members []model.FamilyMember
	for rows.Next() {
		var m model.FamilyMember
		var hidden int
		if err := rows.Scan(&m.ID, &m.Name, &m.Color, &m.AvatarEmoji, &m.FeedURL, &hidden, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		m.Hidden = hidden != 0
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *FamilyMemberStore) Update(id int64, name, color, avatarEmoji, feedURL string, hidden bool) (*model.FamilyMember, error) {
	var hiddenInt int
	if hidden {
		hiddenInt = 1
	}

	_, err := s.db.Exec(
		`UPDATE family_members
		 SET name = ?, color = ?, avatar_emoji = ?, feed_url = ?, hidden = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		name, color, avatarEmoji, feedURL, hiddenInt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}

	return s.GetByID(id)
}

func (s *FamilyMemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM family_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family member: %w", err)
	}
	return nil
}
