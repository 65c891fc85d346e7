package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/session-planner/internal/recurrence"
)

type fakeSessionRepo struct {
	sessions map[string]Session
	order    []string
	failOn   string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]Session)}
}

func (r *fakeSessionRepo) GetSession(_ context.Context, id string) (Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (r *fakeSessionRepo) ListSessions(_ context.Context) ([]Session, error) {
	out := make([]Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out, nil
}

func (r *fakeSessionRepo) UpsertSession(_ context.Context, session Session) error {
	if r.failOn != "" && session.ID == r.failOn {
		return fmt.Errorf("write rejected")
	}
	if _, exists := r.sessions[session.ID]; !exists {
		r.order = append(r.order, session.ID)
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) DeleteSession(_ context.Context, id string) error {
	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *fakeSessionRepo) AppendSubscriber(_ context.Context, sessionID string, subscriber Subscriber) (Session, error) {
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	session.Subscribers = append(session.Subscribers, subscriber)
	r.sessions[sessionID] = session
	return session, nil
}

type fakeSpeakerDirectory struct {
	speakers map[string]Speaker
}

func (d *fakeSpeakerDirectory) GetSpeaker(_ context.Context, id string) (Speaker, error) {
	speaker, ok := d.speakers[id]
	if !ok {
		return Speaker{}, ErrNotFound
	}
	return speaker, nil
}

type fakeCalendar struct {
	syncErr     error
	syncCalls   int
	attendees   []string
	createCalls int
}

func (c *fakeCalendar) CreateMeetingLink(_ context.Context, _ Session) (string, error) {
	c.createCalls++
	return "https://meet.google.com/abc-defg-hij", nil
}

func (c *fakeCalendar) SyncSession(_ context.Context, _ Session) error {
	c.syncCalls++
	return c.syncErr
}

func (c *fakeCalendar) AddAttendee(_ context.Context, _ Session, email string) error {
	c.attendees = append(c.attendees, email)
	return nil
}

type fakeNotifier struct {
	invites       []string
	confirmations []string
	inviteErr     error
	confirmErr    error
}

func (n *fakeNotifier) SendSpeakerInvite(_ context.Context, speaker Speaker, _ Session, _ bool) error {
	if n.inviteErr != nil {
		return n.inviteErr
	}
	n.invites = append(n.invites, speaker.ID)
	return nil
}

func (n *fakeNotifier) SendConfirmation(_ context.Context, subscriber Subscriber, _ Session) error {
	if n.confirmErr != nil {
		return n.confirmErr
	}
	n.confirmations = append(n.confirmations, subscriber.Email)
	return nil
}

// blockingNotifier parks the first invite inside SendSpeakerInvite until
// release is closed, so tests can observe the in-flight guard.
type blockingNotifier struct {
	entered   chan struct{}
	release   chan struct{}
	enterOnce sync.Once
}

func (n *blockingNotifier) SendSpeakerInvite(_ context.Context, _ Speaker, _ Session, _ bool) error {
	n.enterOnce.Do(func() { close(n.entered) })
	<-n.release
	return nil
}

func (n *blockingNotifier) SendConfirmation(_ context.Context, _ Subscriber, _ Session) error {
	return nil
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedNow() time.Time {
	return time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
}

func validInput() SessionInput {
	return SessionInput{
		Title:     "Intro to Prompt Design",
		Program:   ProgramAIReady,
		Date:      "2026-03-10",
		StartTime: "10:00",
		EndTime:   "11:00",
		Location:  "Room 2",
	}
}

func adminPrincipal() Principal {
	return Principal{UserID: "u-admin", IsAdmin: true}
}

func TestSaveSessionCreatesSingleSession(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, nil, nil, nil, sequentialIDs("s"), fixedNow)

	result, err := svc.SaveSession(context.Background(), SaveSessionParams{
		Principal: adminPrincipal(),
		Input:     validInput(),
		IsNew:     true,
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if len(result.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(result.Sessions))
	}
	saved := result.Sessions[0]
	if saved.ID != "s-1" {
		t.Errorf("expected generated id s-1, got %q", saved.ID)
	}
	if saved.Subscribers == nil || len(saved.Subscribers) != 0 {
		t.Errorf("expected empty subscriber list, got %#v", saved.Subscribers)
	}
	if len(repo.sessions) != 1 {
		t.Errorf("expected 1 persisted session, got %d", len(repo.sessions))
	}
}

func TestSaveSessionExpandsRecurrence(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	svc := NewSessionService(repo, nil, nil, nil, sequentialIDs("s"), fixedNow)

	input := validInput()
	input.Date = "2024-01-31"
	result, err := svc.SaveSession(context.Background(), SaveSessionParams{
		Principal:  adminPrincipal(),
		Input:      input,
		IsNew:      true,
		Recurrence: recurrence.Rule{Frequency: recurrence.FrequencyMonthly, Count: 3},
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if len(result.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(result.Sessions))
	}

	wantDates := []string{"2024-01-31", "2024-02-29", "2024-03-31"}
	seenIDs := make(map[string]struct{})
	for i, session := range result.Sessions {
		if session.Date != wantDates[i] {
			t.Errorf("occurrence %d: expected date %s, got %s", i, wantDates[i], session.Date)
		}
		if session.Title != input.Title {
			t.Errorf("occurrence %d: expected shared title, got %q", i, session.Title)
		}
		if _, dup := seenIDs[session.ID]; dup {
			t.Errorf("occurrence %d: duplicate id %s", i, session.ID)
		}
		seenIDs[session.ID] = struct{}{}
	}
}

func TestSaveSessionUpdatePreservesSubscribers(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	existing := sessionFromInput("s-1", validInput())
	existing.Subscribers = []Subscriber{{Name: "Ada", Email: "ada@example.com", SubscribedAt: fixedNow()}}
	repo.sessions["s-1"] = existing
	repo.order = []string{"s-1"}

	svc := NewSessionService(repo, nil, nil, nil, sequentialIDs("s"), fixedNow)

	input := validInput()
	input.Title = "Renamed"
	result, err := svc.SaveSession(context.Background(), SaveSessionParams{
		Principal: adminPrincipal(),
		SessionID: "s-1",
		Input:     input,
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	saved := result.Sessions[0]
	if saved.Title != "Renamed" {
		t.Errorf("expected updated title, got %q", saved.Title)
	}
	if len(saved.Subscribers) != 1 || saved.Subscribers[0].Email != "ada@example.com" {
		t.Errorf("expected subscribers preserved, got %#v", saved.Subscribers)
	}
}

func TestSaveSessionUpdateIgnoresRecurrence(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	repo.sessions["s-1"] = sessionFromInput("s-1", validInput())
	repo.order = []string{"s-1"}

	svc := NewSessionService(repo, nil, nil, nil, sequentialIDs("s"), fixedNow)

	result, err := svc.SaveSession(context.Background(), SaveSessionParams{
		Principal:  adminPrincipal(),
		SessionID:  "s-1",
		Input:      validInput(),
		Recurrence: recurrence.Rule{Frequency: recurrence.FrequencyWeekly, Count: 3},
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if len(result.Sessions) != 1 {
		t.Fatalf("expected a single updated session, got %d", len(result.Sessions))
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("expected no extra sessions in the store, got %d", len(repo.sessions))
	}
}

func TestSaveSessionValidation(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(newFakeSessionRepo(), nil, nil, nil, sequentialIDs("s"), fixedNow)

	cases := map[string]struct {
		mutate func(*SessionInput)
		field  string
	}{
		"missing title":   {func(in *SessionInput) { in.Title = " " }, "title"},
		"missing date":    {func(in *SessionInput) { in.Date = "" }, "date"},
		"bad date":        {func(in *SessionInput) { in.Date = "10-03-2026" }, "date"},
		"bad program":     {func(in *SessionInput) { in.Program = "UNKNOWN" }, "program"},
		"bad start":       {func(in *SessionInput) { in.StartTime = "25:00" }, "start_time"},
		"end before":      {func(in *SessionInput) { in.EndTime = "09:00" }, "end_time"},
		"negative limit":  {func(in *SessionInput) { in.MaxParticipants = -1 }, "max_participants"},
		"duplicate speaker": {func(in *SessionInput) {
			in.Speakers = []SessionSpeaker{
				{SpeakerID: "sp1"},
				{SpeakerID: "sp1", IsCoHost: true},
			}
		}, "speakers"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			tc.mutate(&input)
			_, err := svc.SaveSession(context.Background(), SaveSessionParams{
				Principal: adminPrincipal(),
				Input:     input,
				IsNew:     true,
			})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Fatalf("expected field %q flagged, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestSaveSessionRequiresPrincipal(t *testing.T) {
	t.Parallel()

	svc := NewSessionService(newFakeSessionRepo(), nil, nil, nil, sequentialIDs("s"), fixedNow)

	_, err := svc.SaveSession(context.Background(), SaveSessionParams{Input: validInput(), IsNew: true})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSaveSessionReportsConflictWarnings(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	existing := sessionFromInput("s-1", validInput())
	existing.Speakers = []SessionSpeaker{{SpeakerID: "sp1", InviteStatus: InviteNotSent}}
	repo.sessions["s-1"] = existing
	repo.order = []string{"s-1"}

	svc := NewSessionService(repo, nil, nil, nil, sequentialIDs("new"), fixedNow)

	input := validInput()
	input.Location = "Elsewhere"
	input.Speakers = []SessionSpeaker{{SpeakerID: "sp1"}}
	result, err := svc.SaveSession(context.Background(), SaveSessionParams{
		Principal: adminPrincipal(),
		Input:     input,
		IsNew:     true,
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %#v", len(result.Warnings), result.Warnings)
	}
	warning := result.Warnings[0]
	if warning.Type != "speaker" || warning.SpeakerID != "sp1" || warning.SessionID != "s-1" {
		t.Errorf("unexpected warning: %#v", warning)
	}
	// Warnings do not block the save.
	if len(repo.sessions) != 2 {
		t.Errorf("expected both sessions persisted, got %d", len(repo.sessions))
	}
}

func TestSaveSessionCalendarFailurePolicies(t *testing.T) {
	t.Parallel()

	t.Run("continue persists despite sync failure", func(t *testing.T) {
		repo := newFakeSessionRepo()
		calendar := &fakeCalendar{syncErr: fmt.Errorf("bridge down")}
		svc := NewSessionService(repo, nil, calendar, nil, sequentialIDs("s"), fixedNow)

		result, err := svc.SaveSession(context.Background(), SaveSessionParams{
			Principal: adminPrincipal(),
			Input:     validInput(),
			IsNew:     true,
			Policy:    PolicyContinue,
		})
		if err != nil {
			t.Fatalf("save session: %v", err)
		}
		if len(result.Sessions) != 1 || len(repo.sessions) != 1 {
			t.Fatalf("expected session persisted under continue policy")
		}
	})

	t.Run("abort leaves store untouched", func(t *testing.T) {
		repo := newFakeSessionRepo()
		calendar := &fakeCalendar{syncErr: fmt.Errorf("bridge down")}
		svc := NewSessionService(repo, nil, calendar, nil, sequentialIDs("s"), fixedNow)

		_, err := svc.SaveSession(context.Background(), SaveSessionParams{
			Principal: adminPrincipal(),
			Input:     validInput(),
			IsNew:     true,
			Policy:    PolicyAbort,
		})
		var extErr *ExternalServiceError
		if !errors.As(err, &extErr) {
			t.Fatalf("expected ExternalServiceError, got %v", err)
		}
		if extErr.Service != "calendar" {
			t.Errorf("expected calendar failure, got %q", extErr.Service)
		}
		if len(repo.sessions) != 0 {
			t.Errorf("expected nothing persisted under abort policy, got %d", len(repo.sessions))
		}
	})
}

func TestDeleteSession(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	repo.sessions["s-1"] = sessionFromInput("s-1", validInput())
	repo.order = []string{"s-1"}
	svc := NewSessionService(repo, nil, nil, nil, sequentialIDs("s"), fixedNow)
	ctx := context.Background()

	deleted, err := svc.DeleteSession(ctx, adminPrincipal(), "s-1")
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, deleted=%v err=%v", deleted, err)
	}

	deleted, err = svc.DeleteSession(ctx, adminPrincipal(), "s-1")
	if err != nil {
		t.Fatalf("expected absent delete to succeed quietly, got %v", err)
	}
	if deleted {
		t.Error("expected deleted=false for absent session")
	}
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("appends subscriber and confirms", func(t *testing.T) {
		repo := newFakeSessionRepo()
		session := sessionFromInput("s-1", validInput())
		session.EnableNativeSignup = true
		repo.sessions["s-1"] = session
		repo.order = []string{"s-1"}
		notifier := &fakeNotifier{}
		svc := NewSessionService(repo, nil, nil, notifier, sequentialIDs("s"), fixedNow)

		updated, err := svc.Subscribe(context.Background(), SubscribeParams{
			SessionID: "s-1",
			Name:      "Ada",
			Email:     "Ada@Example.com",
		})
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		if len(updated.Subscribers) != 1 {
			t.Fatalf("expected 1 subscriber, got %d", len(updated.Subscribers))
		}
		sub := updated.Subscribers[0]
		if sub.Email != "ada@example.com" {
			t.Errorf("expected lowercased email, got %q", sub.Email)
		}
		if !sub.SubscribedAt.Equal(fixedNow()) {
			t.Errorf("expected subscription timestamp %v, got %v", fixedNow(), sub.SubscribedAt)
		}
		if len(notifier.confirmations) != 1 {
			t.Errorf("expected confirmation sent, got %v", notifier.confirmations)
		}
	})

	t.Run("confirmation failure does not fail the sign-up", func(t *testing.T) {
		repo := newFakeSessionRepo()
		session := sessionFromInput("s-1", validInput())
		session.EnableNativeSignup = true
		repo.sessions["s-1"] = session
		repo.order = []string{"s-1"}
		notifier := &fakeNotifier{confirmErr: fmt.Errorf("smtp down")}
		svc := NewSessionService(repo, nil, nil, notifier, sequentialIDs("s"), fixedNow)

		updated, err := svc.Subscribe(context.Background(), SubscribeParams{SessionID: "s-1", Name: "Ada", Email: "ada@example.com"})
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		if len(updated.Subscribers) != 1 {
			t.Errorf("expected subscriber recorded despite email failure")
		}
	})

	t.Run("rejects sessions without native sign-up", func(t *testing.T) {
		repo := newFakeSessionRepo()
		repo.sessions["s-1"] = sessionFromInput("s-1", validInput())
		repo.order = []string{"s-1"}
		svc := NewSessionService(repo, nil, nil, nil, sequentialIDs("s"), fixedNow)

		_, err := svc.Subscribe(context.Background(), SubscribeParams{SessionID: "s-1", Name: "Ada", Email: "ada@example.com"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		svc := NewSessionService(newFakeSessionRepo(), nil, nil, nil, sequentialIDs("s"), fixedNow)
		_, err := svc.Subscribe(context.Background(), SubscribeParams{SessionID: "absent", Name: "Ada", Email: "ada@example.com"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestInviteSpeaker(t *testing.T) {
	t.Parallel()

	newService := func(notifier *fakeNotifier, calendar *fakeCalendar) (*SessionService, Session) {
		directory := &fakeSpeakerDirectory{speakers: map[string]Speaker{
			"sp1": {ID: "sp1", Name: "Dr. Sarah Jansen", Email: "sarah@example.com"},
		}}
		session := sessionFromInput("s-1", validInput())
		session.Location = ""
		session.Speakers = []SessionSpeaker{{SpeakerID: "sp1", InviteStatus: InviteNotSent}}
		svc := NewSessionService(newFakeSessionRepo(), directory, calendar, notifier, sequentialIDs("s"), fixedNow)
		return svc, session
	}

	t.Run("marks speaker as invited", func(t *testing.T) {
		notifier := &fakeNotifier{}
		calendar := &fakeCalendar{}
		svc, session := newService(notifier, calendar)

		updated, err := svc.InviteSpeaker(context.Background(), InviteSpeakerParams{
			Principal: adminPrincipal(),
			Session:   session,
			SpeakerID: "sp1",
		})
		if err != nil {
			t.Fatalf("invite speaker: %v", err)
		}
		if updated.Speakers[0].InviteStatus != InviteSent {
			t.Errorf("expected invite status SENT, got %s", updated.Speakers[0].InviteStatus)
		}
		if updated.MeetingLink == "" {
			t.Error("expected a meeting link to be created")
		}
		if updated.Location != "Online (Google Meet)" {
			t.Errorf("expected default online location, got %q", updated.Location)
		}
		if len(calendar.attendees) != 1 || calendar.attendees[0] != "sarah@example.com" {
			t.Errorf("expected speaker added as attendee, got %v", calendar.attendees)
		}
		if len(notifier.invites) != 1 {
			t.Errorf("expected invite email sent, got %v", notifier.invites)
		}
	})

	t.Run("abort policy surfaces email failure", func(t *testing.T) {
		notifier := &fakeNotifier{inviteErr: fmt.Errorf("webhook 500")}
		svc, session := newService(notifier, &fakeCalendar{})

		_, err := svc.InviteSpeaker(context.Background(), InviteSpeakerParams{
			Principal: adminPrincipal(),
			Session:   session,
			SpeakerID: "sp1",
		})
		var extErr *ExternalServiceError
		if !errors.As(err, &extErr) {
			t.Fatalf("expected ExternalServiceError, got %v", err)
		}
		if extErr.Service != "email" {
			t.Errorf("expected email failure, got %q", extErr.Service)
		}
	})

	t.Run("unknown speaker", func(t *testing.T) {
		svc, session := newService(&fakeNotifier{}, &fakeCalendar{})
		_, err := svc.InviteSpeaker(context.Background(), InviteSpeakerParams{
			Principal: adminPrincipal(),
			Session:   session,
			SpeakerID: "sp-missing",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("speaker not assigned", func(t *testing.T) {
		svc, session := newService(&fakeNotifier{}, &fakeCalendar{})
		session.Speakers = nil
		_, err := svc.InviteSpeaker(context.Background(), InviteSpeakerParams{
			Principal: adminPrincipal(),
			Session:   session,
			SpeakerID: "sp1",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects a second invite while one is in flight", func(t *testing.T) {
		notifier := &blockingNotifier{
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		directory := &fakeSpeakerDirectory{speakers: map[string]Speaker{
			"sp1": {ID: "sp1", Name: "Dr. Sarah Jansen", Email: "sarah@example.com"},
		}}
		session := sessionFromInput("s-1", validInput())
		session.Speakers = []SessionSpeaker{{SpeakerID: "sp1", InviteStatus: InviteNotSent}}
		svc := NewSessionService(newFakeSessionRepo(), directory, &fakeCalendar{}, notifier, sequentialIDs("s"), fixedNow)

		params := InviteSpeakerParams{
			Principal: adminPrincipal(),
			Session:   session,
			SpeakerID: "sp1",
		}

		done := make(chan error, 1)
		go func() {
			_, err := svc.InviteSpeaker(context.Background(), params)
			done <- err
		}()

		<-notifier.entered
		if _, err := svc.InviteSpeaker(context.Background(), params); !errors.Is(err, ErrInviteInFlight) {
			t.Errorf("expected ErrInviteInFlight, got %v", err)
		}

		close(notifier.release)
		if err := <-done; err != nil {
			t.Fatalf("first invite: %v", err)
		}

		// The guard clears once the first invite completes.
		if _, err := svc.InviteSpeaker(context.Background(), params); err != nil {
			t.Errorf("expected invite to succeed after the first finished, got %v", err)
		}
	})
}

func TestListSessionsAppliesFilter(t *testing.T) {
	t.Parallel()

	repo := newFakeSessionRepo()
	for i, date := range []string{"2026-03-20", "2026-03-10", "2026-03-15"} {
		input := validInput()
		input.Date = date
		id := fmt.Sprintf("s-%d", i+1)
		repo.sessions[id] = sessionFromInput(id, input)
		repo.order = append(repo.order, id)
	}
	svc := NewSessionService(repo, nil, nil, nil, sequentialIDs("s"), fixedNow)

	sessions, err := svc.ListSessions(context.Background(), SessionFilter{DateFrom: "2026-03-10", DateTo: "2026-03-15"})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions in range, got %d", len(sessions))
	}
	if sessions[0].Date != "2026-03-10" || sessions[1].Date != "2026-03-15" {
		t.Errorf("expected ascending date order, got %s then %s", sessions[0].Date, sessions[1].Date)
	}
}
