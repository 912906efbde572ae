package store

import (
	"testing"
	"time"

	"github.com/hollyfield/hearth/internal/model"
)

func TestConnectionGetEmpty(t *testing.T) {
	s := NewConnectionStore(setupTestDB(t))

	conn, err := s.Get()
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if conn != nil {
		t.Error("expected nil when never linked")
	}
}

func TestConnectionSaveAndGet(t *testing.T) {
	s := NewConnectionStore(setupTestDB(t))

	expiry := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Save("access-1", "refresh-1", expiry, model.PendingCalendarID); err != nil {
		t.Fatalf("save connection: %v", err)
	}

	conn, err := s.Get()
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if conn == nil {
		t.Fatal("expected connection")
	}
	if conn.AccessToken != "access-1" || conn.RefreshToken != "refresh-1" {
		t.Errorf("tokens = %q, %q", conn.AccessToken, conn.RefreshToken)
	}
	if !conn.Pending() {
		t.Error("expected pending connection")
	}

	// Saving again overwrites the single row.
	if err := s.Save("access-2", "refresh-2", expiry, "primary"); err != nil {
		t.Fatalf("second save: %v", err)
	}
	conn, err = s.Get()
	if err != nil {
		t.Fatalf("get connection: %v", err)
	}
	if conn.AccessToken != "access-2" || conn.CalendarID != "primary" {
		t.Errorf("conn = %+v", conn)
	}
}

func TestConnectionUpdateToken(t *testing.T) {
	s := NewConnectionStore(setupTestDB(t))

	expiry := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Save("old", "refresh", expiry, "primary"); err != nil {
		t.Fatalf("save: %v", err)
	}

	newExpiry := expiry.Add(time.Hour)
	if err := s.UpdateToken("new", newExpiry); err != nil {
		t.Fatalf("update token: %v", err)
	}

	conn, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conn.AccessToken != "new" {
		t.Errorf("access token = %q, want new", conn.AccessToken)
	}
	if conn.RefreshToken != "refresh" {
		t.Errorf("refresh token = %q, want unchanged", conn.RefreshToken)
	}
	if !conn.TokenExpiry.Equal(newExpiry) {
		t.Errorf("expiry = %v, want %v", conn.TokenExpiry, newExpiry)
	}
}

func TestConnectionSetCalendarIDAndDelete(t *testing.T) {
	s := NewConnectionStore(setupTestDB(t))

	if err := s.Save("a", "r", time.Now().UTC(), model.PendingCalendarID); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SetCalendarID("family@example.com"); err != nil {
		t.Fatalf("set calendar id: %v", err)
	}

	conn, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conn.CalendarID != "family@example.com" {
		t.Errorf("calendar id = %q", conn.CalendarID)
	}

	if err := s.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	conn, err = s.Get()
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if conn != nil {
		t.Error("expected nil after delete")
	}
}
