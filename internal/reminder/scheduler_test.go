package reminder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/session-planner/internal/application"
)

type fakeSessionSource struct {
	sessions []application.Session
}

func (s *fakeSessionSource) ListSessions(_ context.Context) ([]application.Session, error) {
	return s.sessions, nil
}

type recordingSender struct {
	sent []string
	err  error
}

func (r *recordingSender) SendReminder(_ context.Context, subscriber application.Subscriber, session application.Session, window string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, session.ID+"|"+window+"|"+subscriber.Email)
	return nil
}

func reminderSession(id, date, startTime string) application.Session {
	return application.Session{
		ID:        id,
		Title:     "Intro to Prompt Design",
		Date:      date,
		StartTime: startTime,
		Subscribers: []application.Subscriber{
			{Name: "Ada", Email: "ada@example.com"},
		},
		Reminders: application.ReminderSettings{Remind24h: true, Remind1h: true},
	}
}

func TestDueWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	cases := map[string]struct {
		date      string
		startTime string
		reminders application.ReminderSettings
		want      []Window
	}{
		"inside 24h window": {
			date: "2026-03-10", startTime: "20:00",
			reminders: application.ReminderSettings{Remind24h: true, Remind1h: true},
			want:      []Window{Window24h},
		},
		"inside 1h window": {
			date: "2026-03-10", startTime: "09:30",
			reminders: application.ReminderSettings{Remind24h: true, Remind1h: true},
			want:      []Window{Window1h},
		},
		"more than a day out": {
			date: "2026-03-12", startTime: "09:00",
			reminders: application.ReminderSettings{Remind24h: true, Remind1h: true},
			want:      nil,
		},
		"already started": {
			date: "2026-03-10", startTime: "08:00",
			reminders: application.ReminderSettings{Remind24h: true, Remind1h: true},
			want:      nil,
		},
		"window disabled": {
			date: "2026-03-10", startTime: "20:00",
			reminders: application.ReminderSettings{Remind1h: true},
			want:      nil,
		},
		"exactly one hour before": {
			date: "2026-03-10", startTime: "10:00",
			reminders: application.ReminderSettings{Remind24h: true, Remind1h: true},
			want:      []Window{Window1h},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			session := application.Session{
				Date:      tc.date,
				StartTime: tc.startTime,
				Reminders: tc.reminders,
			}
			got := DueWindows(session, now)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestDueWindowsMalformedDate(t *testing.T) {
	t.Parallel()

	session := application.Session{Date: "soon", StartTime: "10:00", Reminders: application.ReminderSettings{Remind24h: true}}
	if got := DueWindows(session, time.Now()); got != nil {
		t.Fatalf("expected no windows for malformed date, got %v", got)
	}
}

func TestSweepSendsEachWindowOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	source := &fakeSessionSource{sessions: []application.Session{reminderSession("s1", "2026-03-10", "10:00")}}
	sender := &recordingSender{}
	dispatcher := NewDispatcher(source, sender, func() time.Time { return now }, nil)
	ctx := context.Background()

	dispatcher.Sweep(ctx)
	dispatcher.Sweep(ctx)

	if len(sender.sent) != 1 {
		t.Fatalf("expected one reminder across repeated sweeps, got %v", sender.sent)
	}
	if sender.sent[0] != "s1|1h|ada@example.com" {
		t.Errorf("unexpected delivery: %s", sender.sent[0])
	}
}

func TestSweepRetriesAfterFailure(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	source := &fakeSessionSource{sessions: []application.Session{reminderSession("s1", "2026-03-10", "10:00")}}
	sender := &recordingSender{err: fmt.Errorf("webhook down")}
	dispatcher := NewDispatcher(source, sender, func() time.Time { return now }, nil)
	ctx := context.Background()

	dispatcher.Sweep(ctx)
	if len(sender.sent) != 0 {
		t.Fatalf("expected no recorded deliveries while failing, got %v", sender.sent)
	}

	// Once the sender recovers the next sweep delivers.
	sender.err = nil
	dispatcher.Sweep(ctx)
	if len(sender.sent) != 1 {
		t.Fatalf("expected delivery after recovery, got %v", sender.sent)
	}
}

func TestSweepCoversAllSubscribers(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	session := reminderSession("s1", "2026-03-10", "10:00")
	session.Subscribers = append(session.Subscribers, application.Subscriber{Name: "Grace", Email: "grace@example.com"})
	source := &fakeSessionSource{sessions: []application.Session{session}}
	sender := &recordingSender{}
	dispatcher := NewDispatcher(source, sender, func() time.Time { return now }, nil)

	dispatcher.Sweep(context.Background())
	if len(sender.sent) != 2 {
		t.Fatalf("expected reminders for both subscribers, got %v", sender.sent)
	}
}
