// Package calsync mirrors local calendar event mutations to an external
// calendar provider. Every operation is best-effort: failures are logged and
// swallowed so the local write is never blocked or rolled back by a flaky
// integration. The local database remains the source of truth.
package calsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/hollyfield/hearth/internal/layout"
	"github.com/hollyfield/hearth/internal/model"
	"github.com/hollyfield/hearth/internal/store"
)

const (
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	defaultAPIBase  = "https://www.googleapis.com/calendar/v3"

	// tokenSkew forces a refresh when the cached access token expires
	// within the next minute, so in-flight requests don't race expiry.
	tokenSkew = 60 * time.Second

	requestTimeout = 10 * time.Second
)

// Config holds the OAuth client credentials for the calendar provider.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBase      string
}

// Client pushes local event mutations to the provider's events API.
type Client struct {
	cfg        Config
	conns      *store.ConnectionStore
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config, conns *store.ConnectionStore, logger *slog.Logger) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		conns:      conns,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Enabled reports whether provider credentials are configured at all.
func (c *Client) Enabled() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// CreateEvent mirrors a newly created local event. It returns the
// provider-assigned event id and true on success, and ("", false) on any
// failure or when no usable connection exists.
func (c *Client) CreateEvent(ctx context.Context, ev *model.Event) (string, bool) {
	token, calendarID, ok := c.token(ctx)
	if !ok {
		return "", false
	}

	payload := buildPayload(ev)
	payload.ICalUID = uuid.NewString()

	endpoint := fmt.Sprintf("%s/calendars/%s/events", c.cfg.APIBase, url.PathEscape(calendarID))
	body, err := c.doJSON(ctx, http.MethodPost, endpoint, token, payload)
	if err != nil {
		c.logger.Warn("external create failed", "event_id", ev.ID, "error", err)
		return "", false
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		c.logger.Warn("external create: bad response", "event_id", ev.ID, "error", err)
		return "", false
	}

	return created.ID, true
}

// UpdateEvent mirrors an edit to an already-mirrored event.
func (c *Client) UpdateEvent(ctx context.Context, externalID string, ev *model.Event) {
	token, calendarID, ok := c.token(ctx)
	if !ok {
		return
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.cfg.APIBase, url.PathEscape(calendarID), url.PathEscape(externalID))
	if _, err := c.doJSON(ctx, http.MethodPut, endpoint, token, buildPayload(ev)); err != nil {
		c.logger.Warn("external update failed", "event_id", ev.ID, "external_id", externalID, "error", err)
	}
}

// DeleteEvent removes the mirrored copy of a deleted local event. An
// already-gone event (404/410) counts as success.
func (c *Client) DeleteEvent(ctx context.Context, externalID string) {
	token, calendarID, ok := c.token(ctx)
	if !ok {
		return
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s", c.cfg.APIBase, url.PathEscape(calendarID), url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		c.logger.Warn("external delete: create request", "external_id", externalID, "error", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("external delete failed", "external_id", externalID, "error", err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// Already gone; nothing to clean up.
	default:
		c.logger.Warn("external delete failed", "external_id", externalID, "status", resp.StatusCode)
	}
}

// token returns a valid access token and the target calendar id. It refreshes
// via the stored refresh token when the cached token is expired or about to
// expire, and persists the new token before returning. A missing connection
// or one still pending calendar selection yields ok=false.
func (c *Client) token(ctx context.Context) (token, calendarID string, ok bool) {
	if !c.Enabled() {
		return "", "", false
	}

	conn, err := c.conns.Get()
	if err != nil {
		c.logger.Warn("load calendar connection", "error", err)
		return "", "", false
	}
	if conn == nil || conn.Pending() {
		return "", "", false
	}

	if time.Until(conn.TokenExpiry) > tokenSkew {
		return conn.AccessToken, conn.CalendarID, true
	}

	form := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"refresh_token": {conn.RefreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Warn("token refresh: create request", "error", err)
		return "", "", false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		return "", "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("token refresh failed", "status", resp.StatusCode)
		return "", "", false
	}

	var tr struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil || tr.AccessToken == "" {
		c.logger.Warn("token refresh: bad response", "error", err)
		return "", "", false
	}

	expiry := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if err := c.conns.UpdateToken(tr.AccessToken, expiry); err != nil {
		c.logger.Warn("persist refreshed token", "error", err)
	}

	return tr.AccessToken, conn.CalendarID, true
}

// doJSON sends an authorized JSON request, retrying transient (5xx) failures
// a couple of times before giving up. It returns the response body on 2xx.
func (c *Client) doJSON(ctx context.Context, method, endpoint, token string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var body []byte
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("provider status %d", resp.StatusCode))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("provider status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

type apiDateTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
}

type apiEvent struct {
	Summary     string      `json:"summary"`
	Description string      `json:"description,omitempty"`
	Location    string      `json:"location,omitempty"`
	Start       apiDateTime `json:"start"`
	End         apiDateTime `json:"end"`
	Recurrence  []string    `json:"recurrence,omitempty"`
	ICalUID     string      `json:"iCalUID,omitempty"`
}

// buildPayload maps a local event to the provider's event shape. All-day
// events use date-only fields (end exclusive); timed events use instants.
// A stored recurrence rule rides along as a single RRULE line.
func buildPayload(ev *model.Event) *apiEvent {
	payload := &apiEvent{
		Summary:     ev.Title,
		Description: ev.Notes,
		Location:    ev.Location,
	}

	if layout.IsAllDay(ev.StartTime, ev.EndTime) {
		payload.Start = apiDateTime{Date: ev.StartTime.UTC().Format("2006-01-02")}
		payload.End = apiDateTime{Date: ev.EndTime.UTC().Format("2006-01-02")}
	} else {
		payload.Start = apiDateTime{DateTime: ev.StartTime.UTC().Format(time.RFC3339)}
		payload.End = apiDateTime{DateTime: ev.EndTime.UTC().Format(time.RFC3339)}
	}

	if ev.Recurrence != "" {
		payload.Recurrence = []string{"RRULE:" + ev.Recurrence}
	}

	return payload
}
