package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hollyfield/hearth/internal/model"
	"github.com/hollyfield/hearth/internal/store"
	ws "github.com/hollyfield/hearth/internal/websocket"
)

type FamilyCalendarHandler struct {
	store  *store.FamilyCalendarStore
	hub    *ws.Hub
	logger *slog.Logger
}

func NewFamilyCalendarHandler(s *store.FamilyCalendarStore, hub *ws.Hub, logger *slog.Logger) *FamilyCalendarHandler {
	return &FamilyCalendarHandler{store: s, hub: hub, logger: logger}
}

func (h *FamilyCalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.store.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list family calendars"})
		return
	}
	if calendars == nil {
		calendars = []model.FamilyCalendar{}
	}
	writeJSON(w, http.StatusOK, calendars)
}

type familyCalendarRequest struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	FeedURL string `json:"feed_url"`
	Hidden  bool   `json:"hidden"`
}

func (h *FamilyCalendarHandler) validate(w http.ResponseWriter, req *familyCalendarRequest, fallbackColor string) bool {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return false
	}

	if req.Color == "" {
		req.Color = fallbackColor
	}
	if !hexColorRegexp.MatchString(req.Color) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "color must be a hex color (e.g. #FF0000)"})
		return false
	}

	if !validFeedURL(req.FeedURL) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "feed_url must be an http(s) URL"})
		return false
	}

	return true
}

func (h *FamilyCalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req familyCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if !h.validate(w, &req, "#64748B") {
		return
	}

	cal, err := h.store.Create(req.Name, req.Color, req.FeedURL)
	if err != nil {
		h.logger.Error("create family calendar", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create family calendar"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityFamilyCalendar, "created", cal.ID, nil))
	writeJSON(w, http.StatusCreated, cal)
}

func (h *FamilyCalendarHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get family calendar"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "family calendar not found"})
		return
	}

	var req familyCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if !h.validate(w, &req, existing.Color) {
		return
	}

	cal, err := h.store.Update(id, req.Name, req.Color, req.FeedURL, req.Hidden)
	if err != nil {
		h.logger.Error("update family calendar", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update family calendar"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityFamilyCalendar, "updated", cal.ID, nil))
	writeJSON(w, http.StatusOK, cal)
}

func (h *FamilyCalendarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.store.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get family calendar"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "family calendar not found"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("delete family calendar", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete family calendar"})
		return
	}

	h.hub.Broadcast(ws.NewMessage(ws.EntityFamilyCalendar, "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
