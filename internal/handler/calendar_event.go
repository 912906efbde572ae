package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hollyfield/hearth/internal/calsync"
	"github.com/hollyfield/hearth/internal/model"
	"github.com/hollyfield/hearth/internal/recurrence"
	"github.com/hollyfield/hearth/internal/store"
	ws "github.com/hollyfield/hearth/internal/websocket"
)

const mirrorTimeout = 30 * time.Second

type CalendarEventHandler struct {
	eventStore  *store.EventStore
	memberStore *store.FamilyMemberStore
	sync        *calsync.Client
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewCalendarEventHandler(es *store.EventStore, ms *store.FamilyMemberStore, sync *calsync.Client, hub *ws.Hub, logger *slog.Logger) *CalendarEventHandler {
	return &CalendarEventHandler{eventStore: es, memberStore: ms, sync: sync, hub: hub, logger: logger}
}

type eventRequest struct {
	Title       string  `json:"title"`
	Notes       string  `json:"notes"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Location    string  `json:"location"`
	AssigneeIDs []int64 `json:"assignee_ids"`
	Recurrence  string  `json:"recurrence"`
}

func (h *CalendarEventHandler) parseAndValidate(r *http.Request, w http.ResponseWriter) (*eventRequest, time.Time, time.Time, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, time.Time{}, time.Time{}, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return nil, time.Time{}, time.Time{}, false
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be RFC3339 format"})
		return nil, time.Time{}, time.Time{}, false
	}

	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_time must be RFC3339 format"})
		return nil, time.Time{}, time.Time{}, false
	}

	if !startTime.Before(endTime) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be before end_time"})
		return nil, time.Time{}, time.Time{}, false
	}

	for _, id := range req.AssigneeIDs {
		member, err := h.memberStore.GetByID(id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check family member"})
			return nil, time.Time{}, time.Time{}, false
		}
		if member == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "family member not found"})
			return nil, time.Time{}, time.Time{}, false
		}
	}

	// Round-trip the rule through the codec so only the normalized form is
	// ever stored. Unknown parts are dropped rather than rejected.
	req.Recurrence = recurrence.Decode(req.Recurrence).Encode()

	return &req, startTime, endTime, true
}

func (h *CalendarEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, startTime, endTime, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	event, err := h.eventStore.Create(req.Title, req.Notes, startTime, endTime, req.Location, req.AssigneeIDs, req.Recurrence)
	if err != nil {
		h.logger.Error("create calendar event", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create event"})
		return
	}

	go h.mirrorCreate(*event)
	h.hub.Broadcast(ws.NewMessage(ws.EntityEvent, "created", event.ID, nil))

	writeJSON(w, http.StatusCreated, event)
}

func (h *CalendarEventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	event, err := h.eventStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if event == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.eventStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	req, startTime, endTime, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	event, err := h.eventStore.Update(id, req.Title, req.Notes, startTime, endTime, req.Location, req.AssigneeIDs, req.Recurrence)
	if err != nil {
		h.logger.Error("update calendar event", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update event"})
		return
	}

	if existing.ExternalRef != "" {
		go h.mirrorUpdate(existing.ExternalRef, *event)
	} else {
		go h.mirrorCreate(*event)
	}
	h.hub.Broadcast(ws.NewMessage(ws.EntityEvent, "updated", event.ID, nil))

	writeJSON(w, http.StatusOK, event)
}

func (h *CalendarEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.eventStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	if err := h.eventStore.Delete(id); err != nil {
		h.logger.Error("delete calendar event", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete event"})
		return
	}

	if existing.ExternalRef != "" {
		ref := existing.ExternalRef
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
			defer cancel()
			h.sync.DeleteEvent(ctx, ref)
		}()
	}
	h.hub.Broadcast(ws.NewMessage(ws.EntityEvent, "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

// mirrorCreate pushes a new event to the external calendar off the request
// path and records the provider id on success. The request has already
// returned 201 by the time this runs; mirror failures only log.
func (h *CalendarEventHandler) mirrorCreate(event model.Event) {
	if !h.sync.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	externalID, ok := h.sync.CreateEvent(ctx, &event)
	if !ok {
		return
	}
	if err := h.eventStore.SetExternalRef(event.ID, externalID); err != nil {
		h.logger.Error("record external ref", "event_id", event.ID, "error", err)
	}
}

func (h *CalendarEventHandler) mirrorUpdate(externalID string, event model.Event) {
	if !h.sync.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	h.sync.UpdateEvent(ctx, externalID, &event)
}
