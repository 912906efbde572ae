package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hollyfield/hearth/internal/model"
	"github.com/hollyfield/hearth/internal/store"
)

// ConnectionHandler manages the household's single external calendar link.
type ConnectionHandler struct {
	store  *store.ConnectionStore
	logger *slog.Logger
}

func NewConnectionHandler(s *store.ConnectionStore, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{store: s, logger: logger}
}

type connectionStatus struct {
	Linked     bool   `json:"linked"`
	Pending    bool   `json:"pending"`
	CalendarID string `json:"calendar_id,omitempty"`
}

// Status reports whether an external calendar is linked and, once linked,
// which provider calendar events mirror to. Tokens never leave the server.
func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	conn, err := h.store.Get()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get connection"})
		return
	}
	if conn == nil {
		writeJSON(w, http.StatusOK, connectionStatus{})
		return
	}

	status := connectionStatus{Linked: true, Pending: conn.Pending()}
	if !conn.Pending() {
		status.CalendarID = conn.CalendarID
	}
	writeJSON(w, http.StatusOK, status)
}

type linkRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Link stores the token set obtained from the provider's OAuth flow. The
// admin UI runs the consent and code exchange in the browser and posts the
// resulting tokens here; the connection stays pending until SetCalendar
// picks a target. Relinking overwrites the previous tokens.
func (h *ConnectionHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if req.AccessToken == "" || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "access_token and refresh_token are required"})
		return
	}
	if req.ExpiresIn <= 0 {
		req.ExpiresIn = 3600
	}

	expiry := time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
	if err := h.store.Save(req.AccessToken, req.RefreshToken, expiry, model.PendingCalendarID); err != nil {
		h.logger.Error("save connection", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to link calendar"})
		return
	}

	h.logger.Info("external calendar linked", "token_expiry", expiry)
	writeJSON(w, http.StatusCreated, connectionStatus{Linked: true, Pending: true})
}

// SetCalendar finishes a pending link by choosing the target calendar.
func (h *ConnectionHandler) SetCalendar(w http.ResponseWriter, r *http.Request) {
	conn, err := h.store.Get()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get connection"})
		return
	}
	if conn == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no calendar connection"})
		return
	}

	var req struct {
		CalendarID string `json:"calendar_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.CalendarID = strings.TrimSpace(req.CalendarID)
	if req.CalendarID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "calendar_id is required"})
		return
	}

	if err := h.store.SetCalendarID(req.CalendarID); err != nil {
		h.logger.Error("set calendar id", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to set calendar"})
		return
	}

	writeJSON(w, http.StatusOK, connectionStatus{Linked: true, CalendarID: req.CalendarID})
}

// Unlink removes the external calendar connection. Already-mirrored events
// stay on the provider side; only the link and its tokens are dropped.
func (h *ConnectionHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(); err != nil {
		h.logger.Error("delete connection", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to unlink calendar"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
