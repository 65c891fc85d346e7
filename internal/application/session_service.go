package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/session-planner/internal/overlap"
	"github.com/example/session-planner/internal/recurrence"
)

// SessionRepository captures the persistence operations needed by the session service.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	UpsertSession(ctx context.Context, session Session) error
	DeleteSession(ctx context.Context, id string) error
	AppendSubscriber(ctx context.Context, sessionID string, subscriber Subscriber) (Session, error)
}

// SpeakerDirectory exposes speaker lookup for invitation flows.
type SpeakerDirectory interface {
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
}

// CalendarSync bridges sessions to an external calendar.
type CalendarSync interface {
	CreateMeetingLink(ctx context.Context, session Session) (string, error)
	SyncSession(ctx context.Context, session Session) error
	AddAttendee(ctx context.Context, session Session, email string) error
}

// Notifier delivers outbound mail for invitations and sign-up confirmations.
type Notifier interface {
	SendSpeakerInvite(ctx context.Context, speaker Speaker, session Session, isCoHost bool) error
	SendConfirmation(ctx context.Context, subscriber Subscriber, session Session) error
}

// SessionService orchestrates validation, recurrence expansion, conflict
// detection, and collaborator calls for session lifecycle operations.
type SessionService struct {
	sessions    SessionRepository
	speakers    SpeakerDirectory
	calendar    CalendarSync
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	inviteMu        sync.Mutex
	invitesInFlight map[string]struct{}
}

// NewSessionService wires dependencies for the session service.
func NewSessionService(sessions SessionRepository, speakers SpeakerDirectory, calendar CalendarSync, notifier Notifier, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, speakers, calendar, notifier, idGenerator, now, nil)
}

// NewSessionServiceWithLogger constructs a SessionService with a specified logger.
func NewSessionServiceWithLogger(sessions SessionRepository, speakers SpeakerDirectory, calendar CalendarSync, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		sessions:        sessions,
		speakers:        speakers,
		calendar:        calendar,
		notifier:        notifier,
		idGenerator:     idGenerator,
		now:             now,
		logger:          defaultLogger(logger),
		invitesInFlight: make(map[string]struct{}),
	}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// SaveSession validates the input, expands a recurrence rule into a series
// for new sessions, detects scheduling conflicts as warnings, syncs the
// calendar according to the partial failure policy, and persists the result.
func (s *SessionService) SaveSession(ctx context.Context, params SaveSessionParams) (result SaveSessionResult, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	policy := params.Policy
	if policy == "" {
		policy = PolicyContinue
	}

	logger := s.loggerWith(ctx, "SaveSession",
		"session_id", params.SessionID,
		"is_new", params.IsNew,
		"policy", string(policy),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "session save failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("saved", len(result.Sessions), "warnings", len(result.Warnings)).InfoContext(ctx, "session saved")
	}()

	normalized := normalizeSessionInput(params.Input)
	vErr := validateSessionInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	candidates, err := s.buildCandidates(ctx, params, normalized)
	if err != nil {
		return
	}

	existing, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return
	}
	result.Warnings = detectWarnings(existing, candidates)

	// Collaborator calls run before any write so PolicyAbort leaves the
	// store untouched.
	for _, candidate := range candidates {
		if s.calendar == nil {
			break
		}
		if syncErr := s.calendar.SyncSession(ctx, candidate); syncErr != nil {
			extErr := &ExternalServiceError{Service: "calendar", Err: syncErr}
			if policy == PolicyAbort {
				err = extErr
				result = SaveSessionResult{}
				return
			}
			logger.WarnContext(ctx, "calendar sync failed, continuing", "error", extErr, "session_id", candidate.ID)
		}
	}

	for _, candidate := range candidates {
		if err = s.sessions.UpsertSession(ctx, candidate); err != nil {
			result = SaveSessionResult{}
			return
		}
	}

	result.Sessions = candidates
	return
}

// buildCandidates resolves the set of sessions a save will write: a single
// updated session, a single new session, or an expanded recurrence series.
func (s *SessionService) buildCandidates(ctx context.Context, params SaveSessionParams, input SessionInput) ([]Session, error) {
	if !params.IsNew {
		existing, err := s.sessions.GetSession(ctx, params.SessionID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		updated := sessionFromInput(existing.ID, input)
		updated.Subscribers = existing.Subscribers
		return []Session{updated}, nil
	}

	if !params.Recurrence.Applies() {
		return []Session{sessionFromInput(s.idGenerator(), input)}, nil
	}

	dates, err := recurrence.ExpandDates(input.Date, params.Recurrence)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("recurrence", err.Error())
		return nil, vErr
	}

	candidates := make([]Session, 0, len(dates))
	for _, date := range dates {
		occurrence := input
		occurrence.Date = date
		candidates = append(candidates, sessionFromInput(s.idGenerator(), occurrence))
	}
	return candidates, nil
}

// DeleteSession removes a session. Deleting an absent session is not an
// error; the boolean reports whether anything was removed.
func (s *SessionService) DeleteSession(ctx context.Context, principal Principal, sessionID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("SessionService is nil")
	}
	if principal.UserID == "" {
		return false, ErrUnauthorized
	}
	if s.sessions == nil {
		return false, fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSession", "session_id", sessionID)

	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.InfoContext(ctx, "session already absent")
			return false, nil
		}
		logger.ErrorContext(ctx, "session delete failed", "error", err, "error_kind", ErrorKind(err))
		return false, err
	}

	logger.InfoContext(ctx, "session deleted")
	return true, nil
}

// GetSession returns one session by ID.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return Session{}, fmt.Errorf("session repository not configured")
	}
	return s.sessions.GetSession(ctx, sessionID)
}

// ListSessions returns sessions matching the filter, sorted by date.
func (s *SessionService) ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error) {
	if s == nil {
		return nil, fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return nil, nil
	}

	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	return VisibleSessions(sessions, filter), nil
}

// Subscribe appends a sign-up to a session and sends a confirmation on a
// best effort basis. Repeat sign-ups from the same address are accepted.
func (s *SessionService) Subscribe(ctx context.Context, params SubscribeParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "Subscribe", "session_id", params.SessionID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "subscription failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("subscribers", len(session.Subscribers)).InfoContext(ctx, "subscription recorded")
	}()

	name := strings.TrimSpace(params.Name)
	email := strings.TrimSpace(strings.ToLower(params.Email))
	vErr := &ValidationError{}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if email == "" {
		vErr.add("email", "email is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	target, err := s.sessions.GetSession(ctx, params.SessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrNotFound
		}
		return
	}
	if !target.EnableNativeSignup {
		vErr.add("session", "sign-up is not enabled for this session")
		err = vErr
		return
	}

	subscriber := Subscriber{Name: name, Email: email, SubscribedAt: s.now()}
	session, err = s.sessions.AppendSubscriber(ctx, params.SessionID, subscriber)
	if err != nil {
		return
	}

	if s.notifier != nil {
		if sendErr := s.notifier.SendConfirmation(ctx, subscriber, session); sendErr != nil {
			logger.WarnContext(ctx, "confirmation email failed", "error", sendErr)
		}
	}

	return session, nil
}

// InviteSpeaker ensures the session has a meeting link, registers the
// speaker as a calendar attendee, sends the invitation email, and marks the
// speaker as invited on the returned session. The caller persists the
// updated session through SaveSession. Concurrent invitations for the same
// speaker on the same session are rejected.
func (s *SessionService) InviteSpeaker(ctx context.Context, params InviteSpeakerParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}
	if s.speakers == nil {
		err = fmt.Errorf("speaker directory not configured")
		return
	}

	policy := params.Policy
	if policy == "" {
		policy = PolicyAbort
	}

	key := params.Session.ID + "|" + params.SpeakerID
	s.inviteMu.Lock()
	if _, inFlight := s.invitesInFlight[key]; inFlight {
		s.inviteMu.Unlock()
		err = ErrInviteInFlight
		return
	}
	s.invitesInFlight[key] = struct{}{}
	s.inviteMu.Unlock()
	defer func() {
		s.inviteMu.Lock()
		delete(s.invitesInFlight, key)
		s.inviteMu.Unlock()
	}()

	logger := s.loggerWith(ctx, "InviteSpeaker",
		"session_id", params.Session.ID,
		"speaker_id", params.SpeakerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "speaker invitation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "speaker invited")
	}()

	speaker, err := s.speakers.GetSpeaker(ctx, params.SpeakerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrNotFound
		}
		return
	}

	session = params.Session
	isCoHost := false
	found := false
	for _, cfg := range session.Speakers {
		if cfg.SpeakerID == params.SpeakerID {
			isCoHost = cfg.IsCoHost
			found = true
			break
		}
	}
	if !found {
		vErr := &ValidationError{}
		vErr.add("speaker", "speaker is not assigned to this session")
		err = vErr
		return
	}

	if session.MeetingLink == "" && s.calendar != nil {
		var link string
		link, err = s.calendar.CreateMeetingLink(ctx, session)
		if err != nil {
			err = s.collaboratorFailure(ctx, logger, policy, "calendar", err)
			if err != nil {
				return
			}
		} else {
			session.MeetingLink = link
			if session.Location == "" {
				session.Location = "Online (Google Meet)"
			}
		}
	}

	if s.calendar != nil && speaker.Email != "" {
		if attErr := s.calendar.AddAttendee(ctx, session, speaker.Email); attErr != nil {
			err = s.collaboratorFailure(ctx, logger, policy, "calendar", attErr)
			if err != nil {
				return
			}
		}
	}

	if s.notifier != nil {
		if sendErr := s.notifier.SendSpeakerInvite(ctx, speaker, session, isCoHost); sendErr != nil {
			err = s.collaboratorFailure(ctx, logger, policy, "email", sendErr)
			if err != nil {
				return
			}
		}
	}

	speakers := make([]SessionSpeaker, len(session.Speakers))
	copy(speakers, session.Speakers)
	for i := range speakers {
		if speakers[i].SpeakerID == params.SpeakerID {
			speakers[i].InviteStatus = InviteSent
		}
	}
	session.Speakers = speakers

	return session, nil
}

// collaboratorFailure applies the partial failure policy to one failed
// external call. Under PolicyAbort the wrapped error is returned; under
// PolicyContinue it is logged and nil is returned.
func (s *SessionService) collaboratorFailure(ctx context.Context, logger *slog.Logger, policy PartialFailurePolicy, service string, cause error) error {
	extErr := &ExternalServiceError{Service: service, Err: cause}
	if policy == PolicyAbort {
		return extErr
	}
	logger.WarnContext(ctx, "collaborator call failed, continuing", "error", extErr)
	return nil
}

func sessionFromInput(id string, input SessionInput) Session {
	speakers := make([]SessionSpeaker, len(input.Speakers))
	copy(speakers, input.Speakers)
	for i := range speakers {
		if speakers[i].InviteStatus == "" {
			speakers[i].InviteStatus = InviteNotSent
		}
	}
	return Session{
		ID:                 id,
		Title:              input.Title,
		Program:            input.Program,
		Description:        input.Description,
		InternalNotes:      input.InternalNotes,
		Date:               input.Date,
		StartTime:          input.StartTime,
		EndTime:            input.EndTime,
		Location:           input.Location,
		MeetingLink:        input.MeetingLink,
		ApplicationLink:    input.ApplicationLink,
		RecordingLink:      input.RecordingLink,
		ImageURL:           input.ImageURL,
		MaxParticipants:    input.MaxParticipants,
		Speakers:           speakers,
		Subscribers:        []Subscriber{},
		EnableNativeSignup: input.EnableNativeSignup,
		Reminders:          input.Reminders,
	}
}

func normalizeSessionInput(input SessionInput) SessionInput {
	out := input
	out.Title = strings.TrimSpace(input.Title)
	out.Program = Program(strings.TrimSpace(string(input.Program)))
	out.Date = strings.TrimSpace(input.Date)
	out.StartTime = strings.TrimSpace(input.StartTime)
	out.EndTime = strings.TrimSpace(input.EndTime)
	out.Location = strings.TrimSpace(input.Location)
	return out
}

func validateSessionInput(input SessionInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Title == "" {
		vErr.add("title", "title is required")
	}

	if input.Date == "" {
		vErr.add("date", "date is required")
	} else if _, err := time.Parse(recurrence.DateLayout, input.Date); err != nil {
		vErr.add("date", "date must use the YYYY-MM-DD format")
	}

	if _, known := knownPrograms[input.Program]; !known {
		vErr.add("program", "program is invalid")
	}

	if input.StartTime == "" {
		vErr.add("start_time", "start time is required")
	} else if _, err := time.Parse("15:04", input.StartTime); err != nil {
		vErr.add("start_time", "start time must use the HH:MM format")
	}

	if input.EndTime == "" {
		vErr.add("end_time", "end time is required")
	} else if _, err := time.Parse("15:04", input.EndTime); err != nil {
		vErr.add("end_time", "end time must use the HH:MM format")
	}

	if !vErr.HasErrors() && input.EndTime <= input.StartTime {
		vErr.add("end_time", "end time must be after start time")
	}

	if input.MaxParticipants < 0 {
		vErr.add("max_participants", "maximum participants cannot be negative")
	}

	seen := make(map[string]struct{}, len(input.Speakers))
	for _, cfg := range input.Speakers {
		if _, dup := seen[cfg.SpeakerID]; dup {
			vErr.add("speakers", "each speaker may be assigned at most once")
			break
		}
		seen[cfg.SpeakerID] = struct{}{}
	}

	return vErr
}

// detectWarnings compares candidate sessions against the existing schedule
// and reports speaker and location clashes. Sessions being replaced by the
// save are excluded from the comparison.
func detectWarnings(existing []Session, candidates []Session) []ConflictWarning {
	replaced := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		replaced[candidate.ID] = struct{}{}
	}

	others := make([]overlap.Session, 0, len(existing))
	for _, session := range existing {
		if _, skip := replaced[session.ID]; skip {
			continue
		}
		others = append(others, toOverlapSession(session))
	}

	var warnings []ConflictWarning
	for _, candidate := range candidates {
		for _, conflict := range overlap.DetectConflicts(others, toOverlapSession(candidate)) {
			warnings = append(warnings, ConflictWarning{
				SessionID: conflict.WithSessionID,
				Type:      string(conflict.Type),
				SpeakerID: conflict.SpeakerID,
				Location:  conflict.Location,
			})
		}
	}
	return warnings
}

func toOverlapSession(session Session) overlap.Session {
	speakerIDs := make([]string, 0, len(session.Speakers))
	for _, cfg := range session.Speakers {
		speakerIDs = append(speakerIDs, cfg.SpeakerID)
	}
	return overlap.Session{
		ID:         session.ID,
		Date:       session.Date,
		StartTime:  session.StartTime,
		EndTime:    session.EndTime,
		Location:   session.Location,
		SpeakerIDs: speakerIDs,
	}
}
