package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hollyfield/hearth/internal/aggregate"
	"github.com/hollyfield/hearth/internal/calsync"
	"github.com/hollyfield/hearth/internal/handler"
	"github.com/hollyfield/hearth/internal/ical"
	"github.com/hollyfield/hearth/internal/middleware"
	"github.com/hollyfield/hearth/internal/store"
	ws "github.com/hollyfield/hearth/internal/websocket"
)

// writeLimit caps mutating API requests per client IP per window. Generous
// for a household, but keeps a misbehaving kiosk script from hammering sqlite.
const (
	writeLimit       = 60
	writeLimitWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	eventH      *handler.CalendarEventHandler
	memberH     *handler.FamilyMemberHandler
	calendarH   *handler.FamilyCalendarHandler
	mealH       *handler.MealPlanHandler
	viewH       *handler.CalendarViewHandler
	connH       *handler.ConnectionHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, syncCfg calsync.Config, feedTTL time.Duration, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	eventStore := store.NewEventStore(db)
	memberStore := store.NewFamilyMemberStore(db)
	calendarStore := store.NewFamilyCalendarStore(db)
	mealStore := store.NewMealPlanStore(db)
	connStore := store.NewConnectionStore(db)

	fetcher := ical.NewFetcher(feedTTL)
	agg := aggregate.New(eventStore, memberStore, calendarStore, mealStore, fetcher, logger.With("component", "aggregate"))
	sync := calsync.New(syncCfg, connStore, logger.With("component", "calsync"))

	return &Server{
		db:          db,
		hub:         hub,
		eventH:      handler.NewCalendarEventHandler(eventStore, memberStore, sync, hub, logger.With("component", "calendar")),
		memberH:     handler.NewFamilyMemberHandler(memberStore, hub, logger.With("component", "family_member")),
		calendarH:   handler.NewFamilyCalendarHandler(calendarStore, hub, logger.With("component", "family_calendar")),
		mealH:       handler.NewMealPlanHandler(mealStore, hub, logger.With("component", "meal")),
		viewH:       handler.NewCalendarViewHandler(agg, logger.With("component", "calendar_view")),
		connH:       handler.NewConnectionHandler(connStore, logger.With("component", "connection")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Aggregated calendar views
	mux.HandleFunc("GET /api/calendar", s.viewH.Events)
	mux.HandleFunc("GET /api/calendar/week", s.viewH.Week)

	// Local calendar event API routes
	mux.HandleFunc("POST /api/events", s.writeLimited(s.eventH.Create))
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.writeLimited(s.eventH.Update))
	mux.HandleFunc("DELETE /api/events/{id}", s.writeLimited(s.eventH.Delete))

	// Family member API routes
	mux.HandleFunc("GET /api/family-members", s.memberH.List)
	mux.HandleFunc("POST /api/family-members", s.writeLimited(s.memberH.Create))
	mux.HandleFunc("PUT /api/family-members/{id}", s.writeLimited(s.memberH.Update))
	mux.HandleFunc("DELETE /api/family-members/{id}", s.writeLimited(s.memberH.Delete))

	// Family calendar API routes
	mux.HandleFunc("GET /api/family-calendars", s.calendarH.List)
	mux.HandleFunc("POST /api/family-calendars", s.writeLimited(s.calendarH.Create))
	mux.HandleFunc("PUT /api/family-calendars/{id}", s.writeLimited(s.calendarH.Update))
	mux.HandleFunc("DELETE /api/family-calendars/{id}", s.writeLimited(s.calendarH.Delete))

	// Meal plan API routes
	mux.HandleFunc("GET /api/meals", s.mealH.List)
	mux.HandleFunc("POST /api/meals", s.writeLimited(s.mealH.Create))
	mux.HandleFunc("PUT /api/meals/{id}", s.writeLimited(s.mealH.Update))
	mux.HandleFunc("DELETE /api/meals/{id}", s.writeLimited(s.mealH.Delete))

	// External calendar connection
	mux.HandleFunc("GET /api/calendar-connection", s.connH.Status)
	mux.HandleFunc("POST /api/calendar-connection", s.writeLimited(s.connH.Link))
	mux.HandleFunc("PUT /api/calendar-connection/calendar", s.writeLimited(s.connH.SetCalendar))
	mux.HandleFunc("DELETE /api/calendar-connection", s.writeLimited(s.connH.Unlink))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) writeLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, writeLimit, writeLimitWindow)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
