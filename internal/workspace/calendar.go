// Package workspace bridges planner sessions to an external Google Workspace
// calendar through a configured webhook. When no calendar is configured the
// client reports success without calling out, so the planner stays usable in
// standalone deployments.
package workspace

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/example/session-planner/internal/application"
)

// SettingsSource exposes the workspace configuration the client acts on.
type SettingsSource interface {
	GetSettings(ctx context.Context) (application.AppSettings, error)
}

// Client implements the calendar bridge used by the session service.
type Client struct {
	settings   SettingsSource
	httpClient *http.Client
	logger     *slog.Logger
	linkToken  func() string
}

// NewClient wires a calendar client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(settings SettingsSource, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		settings:   settings,
		httpClient: httpClient,
		logger:     logger,
		linkToken:  randomMeetToken,
	}
}

// CreateMeetingLink produces a meeting URL for a session. Without a real
// Workspace integration the link follows the Meet format but is generated
// locally.
func (c *Client) CreateMeetingLink(ctx context.Context, session application.Session) (string, error) {
	if c == nil {
		return "", fmt.Errorf("workspace client is nil")
	}
	link := "https://meet.google.com/" + c.linkToken()
	c.logger.DebugContext(ctx, "meeting link created", "session_id", session.ID)
	return link, nil
}

// SyncSession pushes a session to the configured calendar. A missing
// calendar ID or webhook URL is treated as success.
func (c *Client) SyncSession(ctx context.Context, session application.Session) error {
	return c.post(ctx, "SYNC_CALENDAR_EVENT", session, nil)
}

// AddAttendee registers an email address on the session's calendar event.
func (c *Client) AddAttendee(ctx context.Context, session application.Session, email string) error {
	return c.post(ctx, "ADD_CALENDAR_ATTENDEE", session, map[string]any{"attendee": email})
}

func (c *Client) post(ctx context.Context, eventType string, session application.Session, extra map[string]any) error {
	if c == nil {
		return fmt.Errorf("workspace client is nil")
	}
	if c.settings == nil {
		return fmt.Errorf("settings source not configured")
	}

	settings, err := c.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if settings.GoogleCalendarID == "" || settings.EmailWebhookURL == "" {
		c.logger.DebugContext(ctx, "calendar not configured, skipping", "type", eventType, "session_id", session.ID)
		return nil
	}

	payload := map[string]any{
		"type":       eventType,
		"calendarId": settings.GoogleCalendarID,
		"sessionId":  session.ID,
		"title":      session.Title,
		"date":       session.Date,
		"startTime":  session.StartTime,
		"endTime":    session.EndTime,
		"location":   session.Location,
		"meetLink":   session.MeetingLink,
	}
	for key, value := range extra {
		payload[key] = value
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode calendar payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.EmailWebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar webhook returned status %d", resp.StatusCode)
	}

	c.logger.InfoContext(ctx, "calendar event delivered", "type", eventType, "session_id", session.ID)
	return nil
}

// randomMeetToken builds an xxx-yyyy-zzz identifier in the Meet link style.
func randomMeetToken() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	segment := func(n int) string {
		buf := make([]byte, n)
		if _, err := rand.Read(buf); err != nil {
			for i := range buf {
				buf[i] = letters[0]
			}
			return string(buf)
		}
		for i := range buf {
			buf[i] = letters[int(buf[i])%len(letters)]
		}
		return string(buf)
	}
	return segment(3) + "-" + segment(4) + "-" + segment(3)
}
