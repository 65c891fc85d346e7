// Package notify delivers outbound email through a configured webhook.
// Deployments without a webhook run in mock mode: sends succeed without
// leaving the process so the rest of the planner keeps working.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/example/session-planner/internal/application"
)

// SettingsSource exposes the workspace configuration the sender acts on.
type SettingsSource interface {
	GetSettings(ctx context.Context) (application.AppSettings, error)
}

// Sender posts email payloads to the configured webhook.
type Sender struct {
	settings   SettingsSource
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSender wires a webhook sender. A nil httpClient falls back to
// http.DefaultClient.
func NewSender(settings SettingsSource, httpClient *http.Client, logger *slog.Logger) *Sender {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{settings: settings, httpClient: httpClient, logger: logger}
}

// SendSpeakerInvite emails an invitation to a session speaker.
func (s *Sender) SendSpeakerInvite(ctx context.Context, speaker application.Speaker, session application.Session, isCoHost bool) error {
	return s.post(ctx, map[string]any{
		"type":         "SPEAKER_INVITE",
		"to":           speaker.Email,
		"name":         speaker.Name,
		"sessionTitle": session.Title,
		"date":         session.Date,
		"time":         session.StartTime,
		"location":     session.Location,
		"meetLink":     session.MeetingLink,
		"isCoHost":     isCoHost,
	})
}

// SendConfirmation emails a sign-up confirmation to a subscriber.
func (s *Sender) SendConfirmation(ctx context.Context, subscriber application.Subscriber, session application.Session) error {
	return s.post(ctx, map[string]any{
		"type":         "SIGNUP_CONFIRMATION",
		"to":           subscriber.Email,
		"name":         subscriber.Name,
		"sessionTitle": session.Title,
		"date":         session.Date,
		"time":         session.StartTime,
		"location":     session.Location,
		"meetLink":     session.MeetingLink,
	})
}

// SendReminder emails an upcoming-session reminder to one subscriber. The
// window names the reminder lead time, for example "24h" or "1h".
func (s *Sender) SendReminder(ctx context.Context, subscriber application.Subscriber, session application.Session, window string) error {
	return s.post(ctx, map[string]any{
		"type":         "SESSION_REMINDER",
		"window":       window,
		"to":           subscriber.Email,
		"name":         subscriber.Name,
		"sessionTitle": session.Title,
		"date":         session.Date,
		"time":         session.StartTime,
		"location":     session.Location,
		"meetLink":     session.MeetingLink,
	})
}

func (s *Sender) post(ctx context.Context, payload map[string]any) error {
	if s == nil {
		return fmt.Errorf("notify sender is nil")
	}
	if s.settings == nil {
		return fmt.Errorf("settings source not configured")
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if !settings.EnableEmailNotifications || settings.EmailWebhookURL == "" {
		s.logger.DebugContext(ctx, "email delivery not configured, skipping", "type", payload["type"])
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.EmailWebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email webhook returned status %d", resp.StatusCode)
	}

	s.logger.InfoContext(ctx, "email delivered", "type", payload["type"], "to", payload["to"])
	return nil
}
