package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hollyfield/hearth/internal/model"
)

const dateLayout = "2006-01-02"

type MealPlanStore struct {
	db *sql.DB
}

func NewMealPlanStore(db *sql.DB) *MealPlanStore {
	return &MealPlanStore{db: db}
}

const mealColumns = `id, date, meal_type, title, notes, created_at, updated_at`

func (s *MealPlanStore) Create(date time.Time, mealType model.MealType, title, notes string) (*model.MealPlanEntry, error) {
	result, err := s.db.Exec(
		`INSERT INTO meal_plan (date, meal_type, title, notes) VALUES (?, ?, ?, ?)`,
		date.Format(dateLayout), string(mealType), title, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert meal plan entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(id)
}

func (s *MealPlanStore) GetByID(id int64) (*model.MealPlanEntry, error) {
	row := s.db.QueryRow(`SELECT `+mealColumns+` FROM meal_plan WHERE id = ?`, id)
	e, err := scanMeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query meal plan entry: %w", err)
	}
	return e, nil
}

// ListByDateRange returns entries whose date falls within [start, end),
// comparing at day granularity.
func (s *MealPlanStore) ListByDateRange(start, end time.Time) ([]model.MealPlanEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+mealColumns+` FROM meal_plan
		 WHERE date >= ? AND date < ?
		 ORDER BY date ASC, id ASC`,
		start.Format(dateLayout), end.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query meal plan: %w", err)
	}
	defer rows.Close()

	var entries []model.MealPlanEntry
	for rows.Next() {
		e, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal plan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *MealPlanStore) Update(id int64, date time.Time, mealType model.MealType, title, notes string) (*model.MealPlanEntry, error) {
	_, err := s.db.Exec(
		`UPDATE meal_plan
		 SET date = ?, meal_type = ?, title = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		date.Format(dateLayout), string(mealType), title, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update meal plan entry: %w", err)
	}

	return s.GetByID(id)
}

func (s *MealPlanStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM meal_plan WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete meal plan entry: %w", err)
	}
	return nil
}

func scanMeal(row rowScanner) (*model.MealPlanEntry, error) {
	var e model.MealPlanEntry
	var date, mealType string

	err := row.Scan(&e.ID, &date, &mealType, &e.Title, &e.Notes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse meal date %q: %w", date, err)
	}
	e.Date = d
	e.MealType = model.MealType(mealType)
	return &e, nil
}
