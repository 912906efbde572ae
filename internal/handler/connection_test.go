package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hollyfield/hearth/internal/database"
	"github.com/hollyfield/hearth/internal/store"
)

func setupConnectionHandler(t *testing.T) (*ConnectionHandler, *store.ConnectionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	conns := store.NewConnectionStore(db)
	return NewConnectionHandler(conns, slog.Default()), conns
}

func TestConnectionStatusUnlinked(t *testing.T) {
	h, _ := setupConnectionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calendar-connection", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got connectionStatus
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Linked || got.Pending {
		t.Errorf("status = %+v, want unlinked", got)
	}
}

func TestConnectionLinkFlow(t *testing.T) {
	h, conns := setupConnectionHandler(t)

	rec := postJSON(t, h.Link, "/api/calendar-connection", `{
		"access_token": "at-1",
		"refresh_token": "rt-1",
		"expires_in": 3600
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("link status = %d, body = %s", rec.Code, rec.Body.String())
	}

	conn, err := conns.Get()
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if conn == nil {
		t.Fatal("expected connection row after link")
	}
	if conn.AccessToken != "at-1" || conn.RefreshToken != "rt-1" {
		t.Errorf("stored tokens = %q/%q", conn.AccessToken, conn.RefreshToken)
	}
	if !conn.Pending() {
		t.Errorf("calendar id = %q, want pending", conn.CalendarID)
	}
	if until := time.Until(conn.TokenExpiry); until < 55*time.Minute || until > 65*time.Minute {
		t.Errorf("token expiry %v from now, want about an hour", until)
	}

	// Pick the target calendar to finish the link.
	req := httptest.NewRequest(http.MethodPut, "/api/calendar-connection/calendar",
		strings.NewReader(`{"calendar_id": "family@group.calendar.google.com"}`))
	rec = httptest.NewRecorder()
	h.SetCalendar(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("set calendar status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/calendar-connection", nil)
	rec = httptest.NewRecorder()
	h.Status(rec, req)

	var got connectionStatus
	json.NewDecoder(rec.Body).Decode(&got)
	if !got.Linked || got.Pending || got.CalendarID != "family@group.calendar.google.com" {
		t.Errorf("status = %+v, want linked to chosen calendar", got)
	}
}

func TestConnectionLinkValidation(t *testing.T) {
	h, _ := setupConnectionHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing access token", `{"refresh_token": "rt-1"}`},
		{"missing refresh token", `{"access_token": "at-1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Link, "/api/calendar-connection", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestConnectionSetCalendarWithoutLink(t *testing.T) {
	h, _ := setupConnectionHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/api/calendar-connection/calendar",
		strings.NewReader(`{"calendar_id": "primary"}`))
	rec := httptest.NewRecorder()
	h.SetCalendar(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestConnectionUnlink(t *testing.T) {
	h, conns := setupConnectionHandler(t)

	postJSON(t, h.Link, "/api/calendar-connection", `{
		"access_token": "at-1",
		"refresh_token": "rt-1"
	}`)

	req := httptest.NewRequest(http.MethodDelete, "/api/calendar-connection", nil)
	rec := httptest.NewRecorder()
	h.Unlink(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unlink status = %d", rec.Code)
	}

	conn, err := conns.Get()
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if conn != nil {
		t.Error("expected connection gone after unlink")
	}
}
