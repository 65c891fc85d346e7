// Package reminder sweeps the schedule on a fixed interval and emails
// subscribers of sessions that are about to start.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/example/session-planner/internal/application"
)

// Window identifies a reminder lead time.
type Window string

const (
	Window24h Window = "24h"
	Window1h  Window = "1h"
)

// SessionSource lists the sessions the dispatcher inspects each sweep.
type SessionSource interface {
	ListSessions(ctx context.Context) ([]application.Session, error)
}

// Sender delivers one reminder email.
type Sender interface {
	SendReminder(ctx context.Context, subscriber application.Subscriber, session application.Session, window string) error
}

// Dispatcher runs the reminder sweep on a cron schedule. Each session and
// window pair is delivered at most once per process lifetime.
type Dispatcher struct {
	sessions SessionSource
	sender   Sender
	now      func() time.Time
	logger   *slog.Logger

	cron *cron.Cron

	mu   sync.Mutex
	sent map[string]struct{}
}

// NewDispatcher wires a reminder dispatcher.
func NewDispatcher(sessions SessionSource, sender Sender, now func() time.Time, logger *slog.Logger) *Dispatcher {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sessions: sessions,
		sender:   sender,
		now:      now,
		logger:   logger,
		sent:     make(map[string]struct{}),
	}
}

// Start schedules the sweep to run every minute until Stop is called.
func (d *Dispatcher) Start() error {
	if d == nil {
		return fmt.Errorf("reminder dispatcher is nil")
	}
	if d.cron != nil {
		return fmt.Errorf("reminder dispatcher already started")
	}

	d.cron = cron.New()
	if _, err := d.cron.AddFunc("@every 1m", func() {
		d.Sweep(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule reminder sweep: %w", err)
	}
	d.cron.Start()
	d.logger.Info("reminder dispatcher started")
	return nil
}

// Stop halts the sweep schedule and waits for a running sweep to finish.
func (d *Dispatcher) Stop() {
	if d == nil || d.cron == nil {
		return
	}
	<-d.cron.Stop().Done()
	d.cron = nil
	d.logger.Info("reminder dispatcher stopped")
}

// Sweep inspects every session and sends the reminders that are due. Send
// failures are logged and retried on the next sweep.
func (d *Dispatcher) Sweep(ctx context.Context) {
	if d == nil || d.sessions == nil || d.sender == nil {
		return
	}

	sessions, err := d.sessions.ListSessions(ctx)
	if err != nil {
		d.logger.ErrorContext(ctx, "reminder sweep failed to list sessions", "error", err)
		return
	}

	now := d.now()
	for _, session := range sessions {
		for _, window := range DueWindows(session, now) {
			d.deliver(ctx, session, window)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, session application.Session, window Window) {
	key := session.ID + "|" + string(window)

	d.mu.Lock()
	if _, done := d.sent[key]; done {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	failures := 0
	for _, subscriber := range session.Subscribers {
		if err := d.sender.SendReminder(ctx, subscriber, session, string(window)); err != nil {
			failures++
			d.logger.WarnContext(ctx, "reminder delivery failed",
				"session_id", session.ID, "window", string(window), "to", subscriber.Email, "error", err)
		}
	}

	if failures == 0 {
		d.mu.Lock()
		d.sent[key] = struct{}{}
		d.mu.Unlock()
		d.logger.InfoContext(ctx, "reminders sent",
			"session_id", session.ID, "window", string(window), "recipients", len(session.Subscribers))
	}
}

// DueWindows reports which reminder windows a session has entered at the
// reference time. A window applies while the session start lies within it
// but not within a shorter one.
func DueWindows(session application.Session, now time.Time) []Window {
	start, err := sessionStart(session)
	if err != nil {
		return nil
	}

	lead := start.Sub(now)
	var due []Window
	if session.Reminders.Remind24h && lead > time.Hour && lead <= 24*time.Hour {
		due = append(due, Window24h)
	}
	if session.Reminders.Remind1h && lead > 0 && lead <= time.Hour {
		due = append(due, Window1h)
	}
	return due
}

func sessionStart(session application.Session) (time.Time, error) {
	return time.Parse("2006-01-02 15:04", session.Date+" "+session.StartTime)
}
