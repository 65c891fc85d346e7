package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/session-planner/internal/application"
	"github.com/example/session-planner/internal/recurrence"
)

type sessionService interface {
	SaveSession(ctx context.Context, params application.SaveSessionParams) (application.SaveSessionResult, error)
	DeleteSession(ctx context.Context, principal application.Principal, sessionID string) (bool, error)
	GetSession(ctx context.Context, sessionID string) (application.Session, error)
	ListSessions(ctx context.Context, filter application.SessionFilter) ([]application.Session, error)
	Subscribe(ctx context.Context, params application.SubscribeParams) (application.Session, error)
	InviteSpeaker(ctx context.Context, params application.InviteSpeakerParams) (application.Session, error)
}

type SessionHandler struct {
	service   sessionService
	responder responder
	logger    *slog.Logger
}

func NewSessionHandler(service sessionService, logger *slog.Logger) *SessionHandler {
	base := defaultLogger(logger)
	return &SessionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SessionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SessionHandler", operation, attrs...)
}

// List returns sessions filtered by the program, q, from, and to query
// parameters. The endpoint is public so embedded calendars can read it.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := application.SessionFilter{
		Program:  application.Program(query.Get("program")),
		Query:    query.Get("q"),
		DateFrom: query.Get("from"),
		DateTo:   query.Get("to"),
	}

	sessions, err := h.service.ListSessions(r.Context(), filter)
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list sessions", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionDTO(session))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Get returns a single session by the identifier in the request path.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := SessionIDFromContext(r.Context())
	if !ok || id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	session, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		h.log(r.Context(), "Get", "session_id", id).ErrorContext(r.Context(), "failed to load session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

// Create saves a new session, expanding a recurrence rule into a series.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", true)
}

// Update saves changes to the session identified by the request path.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := SessionIDFromContext(r.Context())
	if !ok || id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}
	h.save(w, r, id, false)
}

func (h *SessionHandler) save(w http.ResponseWriter, r *http.Request, sessionID string, isNew bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req saveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Save", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode session request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	params := application.SaveSessionParams{
		Principal: principal,
		SessionID: sessionID,
		Input:     req.Session.toInput(),
		IsNew:     isNew,
		Policy:    application.PartialFailurePolicy(req.Policy),
	}
	if req.Recurrence != nil {
		params.Recurrence = recurrence.Rule{
			Frequency: recurrence.Frequency(req.Recurrence.Frequency),
			Count:     req.Recurrence.Count,
		}
	}

	logger := h.log(r.Context(), "Save", "session_id", sessionID, "is_new", isNew)

	result, err := h.service.SaveSession(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to save session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}

	logger.With("saved", len(result.Sessions)).InfoContext(r.Context(), "session saved")
	h.responder.writeJSON(r.Context(), w, status, toSaveResponse(result))
}

// Delete removes the session identified by the request path. Deleting an
// absent session also returns 204.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := SessionIDFromContext(r.Context())
	if !ok || id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "session_id", id)

	removed, err := h.service.DeleteSession(r.Context(), principal, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to delete session", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("removed", removed).InfoContext(r.Context(), "session delete handled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Subscribe records a public sign-up for the session identified by the
// request path.
func (h *SessionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := SessionIDFromContext(r.Context())
	if !ok || id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Subscribe", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode subscribe request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Subscribe", "session_id", id)

	session, err := h.service.Subscribe(r.Context(), application.SubscribeParams{
		SessionID: id,
		Name:      req.Name,
		Email:     req.Email,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to record subscription", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "subscription recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

// Invite delivers an invitation for one speaker of a session draft and
// returns the draft with the speaker marked as invited. The caller persists
// the updated draft through a regular save.
func (h *SessionHandler) Invite(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Invite", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode invite request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Invite", "session_id", req.Session.ID, "speaker_id", req.SpeakerID)

	session, err := h.service.InviteSpeaker(r.Context(), application.InviteSpeakerParams{
		Principal: principal,
		Session:   req.Session.toSession(),
		SpeakerID: req.SpeakerID,
		Policy:    application.PartialFailurePolicy(req.Policy),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to invite speaker", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "speaker invited")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSessionDTO(session))
}

type sessionSpeakerDTO struct {
	SpeakerID    string `json:"speakerId"`
	IsCoHost     bool   `json:"isCoHost"`
	InviteStatus string `json:"inviteStatus"`
}

type subscriberDTO struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	SubscribedAt string `json:"subscribedAt"`
}

type remindersDTO struct {
	Remind24h bool `json:"remind24h"`
	Remind1h  bool `json:"remind1h"`
}

type sessionDTO struct {
	ID                 string              `json:"id"`
	Title              string              `json:"title"`
	Program            string              `json:"program"`
	Description        string              `json:"description,omitempty"`
	InternalNotes      string              `json:"internalNotes,omitempty"`
	Date               string              `json:"date"`
	StartTime          string              `json:"startTime"`
	EndTime            string              `json:"endTime"`
	Location           string              `json:"location,omitempty"`
	MeetingLink        string              `json:"meetingLink,omitempty"`
	ApplicationLink    string              `json:"applicationLink,omitempty"`
	RecordingLink      string              `json:"recordingLink,omitempty"`
	ImageURL           string              `json:"imageUrl,omitempty"`
	MaxParticipants    int                 `json:"maxParticipants,omitempty"`
	Speakers           []sessionSpeakerDTO `json:"speakers"`
	Subscribers        []subscriberDTO     `json:"subscribers"`
	EnableNativeSignup bool                `json:"enableNativeSignup"`
	Reminders          remindersDTO        `json:"reminders"`
}

type recurrenceDTO struct {
	Frequency string `json:"frequency"`
	Count     int    `json:"count"`
}

type saveSessionRequest struct {
	Session    sessionDTO     `json:"session"`
	Recurrence *recurrenceDTO `json:"recurrence,omitempty"`
	Policy     string         `json:"policy,omitempty"`
}

type conflictWarningDTO struct {
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
	SpeakerID string `json:"speakerId,omitempty"`
	Location  string `json:"location,omitempty"`
}

type saveSessionResponse struct {
	Sessions []sessionDTO         `json:"sessions"`
	Warnings []conflictWarningDTO `json:"warnings"`
}

type subscribeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type inviteRequest struct {
	Session   sessionDTO `json:"session"`
	SpeakerID string     `json:"speakerId"`
	Policy    string     `json:"policy,omitempty"`
}

func (dto sessionDTO) toInput() application.SessionInput {
	speakers := make([]application.SessionSpeaker, 0, len(dto.Speakers))
	for _, speaker := range dto.Speakers {
		speakers = append(speakers, application.SessionSpeaker{
			SpeakerID:    speaker.SpeakerID,
			IsCoHost:     speaker.IsCoHost,
			InviteStatus: application.InviteStatus(speaker.InviteStatus),
		})
	}
	return application.SessionInput{
		Title:              dto.Title,
		Program:            application.Program(dto.Program),
		Description:        dto.Description,
		InternalNotes:      dto.InternalNotes,
		Date:               dto.Date,
		StartTime:          dto.StartTime,
		EndTime:            dto.EndTime,
		Location:           dto.Location,
		MeetingLink:        dto.MeetingLink,
		ApplicationLink:    dto.ApplicationLink,
		RecordingLink:      dto.RecordingLink,
		ImageURL:           dto.ImageURL,
		MaxParticipants:    dto.MaxParticipants,
		Speakers:           speakers,
		EnableNativeSignup: dto.EnableNativeSignup,
		Reminders:          application.ReminderSettings{Remind24h: dto.Reminders.Remind24h, Remind1h: dto.Reminders.Remind1h},
	}
}

func (dto sessionDTO) toSession() application.Session {
	session := application.Session{
		ID:                 dto.ID,
		Title:              dto.Title,
		Program:            application.Program(dto.Program),
		Description:        dto.Description,
		InternalNotes:      dto.InternalNotes,
		Date:               dto.Date,
		StartTime:          dto.StartTime,
		EndTime:            dto.EndTime,
		Location:           dto.Location,
		MeetingLink:        dto.MeetingLink,
		ApplicationLink:    dto.ApplicationLink,
		RecordingLink:      dto.RecordingLink,
		ImageURL:           dto.ImageURL,
		MaxParticipants:    dto.MaxParticipants,
		EnableNativeSignup: dto.EnableNativeSignup,
		Reminders:          application.ReminderSettings{Remind24h: dto.Reminders.Remind24h, Remind1h: dto.Reminders.Remind1h},
	}
	session.Speakers = make([]application.SessionSpeaker, 0, len(dto.Speakers))
	for _, speaker := range dto.Speakers {
		session.Speakers = append(session.Speakers, application.SessionSpeaker{
			SpeakerID:    speaker.SpeakerID,
			IsCoHost:     speaker.IsCoHost,
			InviteStatus: application.InviteStatus(speaker.InviteStatus),
		})
	}
	session.Subscribers = make([]application.Subscriber, 0, len(dto.Subscribers))
	for _, subscriber := range dto.Subscribers {
		subscribedAt, err := time.Parse(time.RFC3339, subscriber.SubscribedAt)
		if err != nil {
			subscribedAt = time.Time{}
		}
		session.Subscribers = append(session.Subscribers, application.Subscriber{
			Name:         subscriber.Name,
			Email:        subscriber.Email,
			SubscribedAt: subscribedAt,
		})
	}
	return session
}

func toSessionDTO(session application.Session) sessionDTO {
	speakers := make([]sessionSpeakerDTO, 0, len(session.Speakers))
	for _, speaker := range session.Speakers {
		speakers = append(speakers, sessionSpeakerDTO{
			SpeakerID:    speaker.SpeakerID,
			IsCoHost:     speaker.IsCoHost,
			InviteStatus: string(speaker.InviteStatus),
		})
	}
	subscribers := make([]subscriberDTO, 0, len(session.Subscribers))
	for _, subscriber := range session.Subscribers {
		subscribers = append(subscribers, subscriberDTO{
			Name:         subscriber.Name,
			Email:        subscriber.Email,
			SubscribedAt: subscriber.SubscribedAt.UTC().Format(time.RFC3339),
		})
	}
	return sessionDTO{
		ID:                 session.ID,
		Title:              session.Title,
		Program:            string(session.Program),
		Description:        session.Description,
		InternalNotes:      session.InternalNotes,
		Date:               session.Date,
		StartTime:          session.StartTime,
		EndTime:            session.EndTime,
		Location:           session.Location,
		MeetingLink:        session.MeetingLink,
		ApplicationLink:    session.ApplicationLink,
		RecordingLink:      session.RecordingLink,
		ImageURL:           session.ImageURL,
		MaxParticipants:    session.MaxParticipants,
		Speakers:           speakers,
		Subscribers:        subscribers,
		EnableNativeSignup: session.EnableNativeSignup,
		Reminders:          remindersDTO{Remind24h: session.Reminders.Remind24h, Remind1h: session.Reminders.Remind1h},
	}
}

func toSaveResponse(result application.SaveSessionResult) saveSessionResponse {
	response := saveSessionResponse{
		Sessions: make([]sessionDTO, 0, len(result.Sessions)),
		Warnings: make([]conflictWarningDTO, 0, len(result.Warnings)),
	}
	for _, session := range result.Sessions {
		response.Sessions = append(response.Sessions, toSessionDTO(session))
	}
	for _, warning := range result.Warnings {
		response.Warnings = append(response.Warnings, conflictWarningDTO{
			SessionID: warning.SessionID,
			Type:      warning.Type,
			SpeakerID: warning.SpeakerID,
			Location:  warning.Location,
		})
	}
	return response
}
