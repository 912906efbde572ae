package model

import "time"

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealPlanEntry is one planned meal on a calendar date. Entries are turned
// into pseudo calendar events with synthesized times when the calendar view
// is assembled.
type MealPlanEntry struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	MealType  MealType  `json:"meal_type"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
