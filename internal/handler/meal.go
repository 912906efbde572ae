package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hollyfield/hearth/internal/model"
	"github.com/hollyfield/hearth/internal/store"
	ws "github.com/hollyfield/hearth/internal/websocket"
)

var validMealTypes = map[model.MealType]bool{
	model.MealBreakfast: true,
	model.MealLunch:     true,
	model.MealDinner:    true,
	model.MealSnack:     true,
}

type MealPlanHandler struct {
	store  *store.MealPlanStore
	hub    *ws.Hub
	logger *slog.Logger
}

func NewMealPlanHandler(s *store.MealPlanStore, hub *ws.Hub, logger *slog.Logger) *MealPlanHandler {
	return &MealPlanHandler{store: s, hub: hub, logger: logger}
}

func (h *MealPlanHandler) List(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRangeParams(w, r)
	if !ok {
		return
	}

	entries, err := h.store.ListByDateRange(start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list meal plan"})
		return
	}
	if entries == nil {
		entries = []model.MealPlanEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type mealRequest struct {
	Date     string `json:"date"`
	MealType string `json:"meal_type"`
	Title    string `json:"title"`
	Notes    string `json:"notes"`
}

func parseMealRequest(w http.ResponseWriter, r *http.Request) (*mealRequest, time.Time, model.MealType, bool) {
	var req mealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, time.Time{}, "", false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return nil, time.Time{}, "", false
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD format"})
		return nil, time.Time{}, "", false
	}

	mealType := model.MealType(req.MealType)
	if !validMealTypes[mealType] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "meal_type must be breakfast, lunch, dinner, or snack"})
		return nil, time.Time{}, "", false
	}

	return &req, date, mealType, true
}

func (h *MealPlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, date, mealType, ok := parseMealRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.store.Create(date, mealType, req.Title, req.Notes)
	if err != nil {
		h.logger.Error("create meal plan entry", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create meal plan entry"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityMeal, "created", entry.ID, nil))
	writeJSON(w, http.StatusCreated, entry)
}

func (h *MealPlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get meal plan entry"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "meal plan entry not found"})
		return
	}

	req, date, mealType, ok := parseMealRequest(w, r)
	if !ok {
		return
	}

	entry, err := h.store.Update(id, date, mealType, req.Title, req.Notes)
	if err != nil {
		h.logger.Error("update meal plan entry", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update meal plan entry"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityMeal, "updated", entry.ID, nil))
	writeJSON(w, http.StatusOK, entry)
}

func (h *MealPlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get meal plan entry"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "meal plan entry not found"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete meal plan entry", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete meal plan entry"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityMeal, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
