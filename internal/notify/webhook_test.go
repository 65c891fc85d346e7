package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/session-planner/internal/application"
)

type staticSettings struct {
	settings application.AppSettings
}

func (s staticSettings) GetSettings(_ context.Context) (application.AppSettings, error) {
	return s.settings, nil
}

func testSession() application.Session {
	return application.Session{
		ID:          "s1",
		Title:       "Intro to Prompt Design",
		Date:        "2026-03-10",
		StartTime:   "10:00",
		Location:    "Room 2",
		MeetingLink: "https://meet.google.com/abc-defg-hij",
	}
}

func TestSendSkipsWhenNotificationsDisabled(t *testing.T) {
	t.Parallel()

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	sender := NewSender(staticSettings{settings: application.AppSettings{
		EmailWebhookURL:          server.URL,
		EnableEmailNotifications: false,
	}}, server.Client(), nil)

	err := sender.SendConfirmation(context.Background(), application.Subscriber{Email: "ada@example.com"}, testSession())
	if err != nil {
		t.Fatalf("expected mock success with notifications disabled, got %v", err)
	}
	if called {
		t.Error("expected no webhook call with notifications disabled")
	}
}

func TestSendSkipsWithoutWebhookURL(t *testing.T) {
	t.Parallel()

	sender := NewSender(staticSettings{settings: application.AppSettings{EnableEmailNotifications: true}}, nil, nil)
	err := sender.SendSpeakerInvite(context.Background(), application.Speaker{Email: "sarah@example.com"}, testSession(), false)
	if err != nil {
		t.Fatalf("expected mock success without a webhook url, got %v", err)
	}
}

func TestSendSpeakerInvitePayload(t *testing.T) {
	t.Parallel()

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer server.Close()

	sender := NewSender(staticSettings{settings: application.AppSettings{
		EmailWebhookURL:          server.URL,
		EnableEmailNotifications: true,
	}}, server.Client(), nil)

	speaker := application.Speaker{ID: "sp1", Name: "Dr. Sarah Jansen", Email: "sarah@example.com"}
	if err := sender.SendSpeakerInvite(context.Background(), speaker, testSession(), true); err != nil {
		t.Fatalf("send speaker invite: %v", err)
	}

	if received["type"] != "SPEAKER_INVITE" {
		t.Errorf("expected SPEAKER_INVITE, got %v", received["type"])
	}
	if received["to"] != "sarah@example.com" || received["sessionTitle"] != "Intro to Prompt Design" {
		t.Errorf("unexpected payload: %v", received)
	}
	if received["isCoHost"] != true {
		t.Errorf("expected co-host flag set, got %v", received["isCoHost"])
	}
}

func TestSendReminderPayload(t *testing.T) {
	t.Parallel()

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer server.Close()

	sender := NewSender(staticSettings{settings: application.AppSettings{
		EmailWebhookURL:          server.URL,
		EnableEmailNotifications: true,
	}}, server.Client(), nil)

	subscriber := application.Subscriber{Name: "Ada", Email: "ada@example.com", SubscribedAt: time.Now()}
	if err := sender.SendReminder(context.Background(), subscriber, testSession(), "24h"); err != nil {
		t.Fatalf("send reminder: %v", err)
	}
	if received["type"] != "SESSION_REMINDER" || received["window"] != "24h" {
		t.Errorf("unexpected payload: %v", received)
	}
}

func TestSendReportsServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewSender(staticSettings{settings: application.AppSettings{
		EmailWebhookURL:          server.URL,
		EnableEmailNotifications: true,
	}}, server.Client(), nil)

	err := sender.SendConfirmation(context.Background(), application.Subscriber{Email: "ada@example.com"}, testSession())
	if err == nil {
		t.Fatal("expected an error for a failing webhook")
	}
}
