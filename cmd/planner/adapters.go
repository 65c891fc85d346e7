package main

import (
	"context"
	"errors"
	"time"

	"github.com/example/session-planner/internal/application"
	"github.com/example/session-planner/internal/persistence"
)

// The application services speak in application models, while the sqlite
// repositories speak in stored document shapes. The adapters below translate
// between the two and normalize persistence.ErrNotFound to the application
// sentinel so handlers can map it to 404.

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, mapNotFound(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) ListSessions(ctx context.Context) ([]application.Session, error) {
	models, err := a.repo.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]application.Session, 0, len(models))
	for _, model := range models {
		sessions = append(sessions, toApplicationSession(model))
	}
	return sessions, nil
}

func (a *sessionRepositoryAdapter) UpsertSession(ctx context.Context, session application.Session) error {
	return a.repo.UpsertSession(ctx, toStoredSession(session))
}

func (a *sessionRepositoryAdapter) DeleteSession(ctx context.Context, id string) error {
	return mapNotFound(a.repo.DeleteSession(ctx, id))
}

func (a *sessionRepositoryAdapter) AppendSubscriber(ctx context.Context, sessionID string, subscriber application.Subscriber) (application.Session, error) {
	stored, err := a.repo.AppendSubscriber(ctx, sessionID, toStoredSubscriber(subscriber))
	if err != nil {
		return application.Session{}, mapNotFound(err)
	}
	return toApplicationSession(stored), nil
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapNotFound(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *userRepositoryAdapter) UpsertUser(ctx context.Context, user application.User) error {
	return a.repo.UpsertUser(ctx, toStoredUser(user))
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return mapNotFound(a.repo.DeleteUser(ctx, id))
}

type speakerRepositoryAdapter struct {
	repo persistence.SpeakerRepository
}

func newSpeakerRepositoryAdapter(repo persistence.SpeakerRepository) *speakerRepositoryAdapter {
	return &speakerRepositoryAdapter{repo: repo}
}

func (a *speakerRepositoryAdapter) GetSpeaker(ctx context.Context, id string) (application.Speaker, error) {
	stored, err := a.repo.GetSpeaker(ctx, id)
	if err != nil {
		return application.Speaker{}, mapNotFound(err)
	}
	return toApplicationSpeaker(stored), nil
}

func (a *speakerRepositoryAdapter) ListSpeakers(ctx context.Context) ([]application.Speaker, error) {
	models, err := a.repo.ListSpeakers(ctx)
	if err != nil {
		return nil, err
	}
	speakers := make([]application.Speaker, 0, len(models))
	for _, model := range models {
		speakers = append(speakers, toApplicationSpeaker(model))
	}
	return speakers, nil
}

func (a *speakerRepositoryAdapter) UpsertSpeaker(ctx context.Context, speaker application.Speaker) error {
	return a.repo.UpsertSpeaker(ctx, toStoredSpeaker(speaker))
}

func (a *speakerRepositoryAdapter) DeleteSpeaker(ctx context.Context, id string) error {
	return mapNotFound(a.repo.DeleteSpeaker(ctx, id))
}

// settingsRepositoryAdapter backs both the settings service and the webhook
// collaborators. A store that has never been written reads as the zero
// settings value, which the collaborators treat as "not configured".
type settingsRepositoryAdapter struct {
	repo persistence.SettingsRepository
}

func newSettingsRepositoryAdapter(repo persistence.SettingsRepository) *settingsRepositoryAdapter {
	return &settingsRepositoryAdapter{repo: repo}
}

func (a *settingsRepositoryAdapter) GetSettings(ctx context.Context) (application.AppSettings, error) {
	stored, err := a.repo.GetSettings(ctx)
	if errors.Is(err, persistence.ErrNotFound) {
		return application.AppSettings{}, nil
	}
	if err != nil {
		return application.AppSettings{}, err
	}
	return toApplicationSettings(stored), nil
}

func (a *settingsRepositoryAdapter) SaveSettings(ctx context.Context, settings application.AppSettings) error {
	return a.repo.SaveSettings(ctx, toStoredSettings(settings))
}

func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return application.ErrNotFound
	}
	return err
}

func toApplicationSession(model persistence.Session) application.Session {
	speakers := make([]application.SessionSpeaker, 0, len(model.Speakers))
	for _, speaker := range model.Speakers {
		speakers = append(speakers, application.SessionSpeaker{
			SpeakerID:    speaker.SpeakerID,
			IsCoHost:     speaker.IsCoHost,
			InviteStatus: application.InviteStatus(speaker.InviteStatus),
		})
	}
	subscribers := make([]application.Subscriber, 0, len(model.Subscribers))
	for _, subscriber := range model.Subscribers {
		subscribers = append(subscribers, toApplicationSubscriber(subscriber))
	}
	return application.Session{
		ID:                 model.ID,
		Title:              model.Title,
		Program:            application.Program(model.Program),
		Description:        model.Description,
		InternalNotes:      model.InternalNotes,
		Date:               model.Date,
		StartTime:          model.StartTime,
		EndTime:            model.EndTime,
		Location:           model.Location,
		MeetingLink:        model.MeetingLink,
		ApplicationLink:    model.ApplicationLink,
		RecordingLink:      model.RecordingLink,
		ImageURL:           model.ImageURL,
		MaxParticipants:    model.MaxParticipants,
		Speakers:           speakers,
		Subscribers:        subscribers,
		EnableNativeSignup: model.EnableNativeSignup,
		Reminders: application.ReminderSettings{
			Remind24h: model.Reminders.Remind24h,
			Remind1h:  model.Reminders.Remind1h,
		},
	}
}

func toStoredSession(session application.Session) persistence.Session {
	speakers := make([]persistence.SessionSpeakerConfig, 0, len(session.Speakers))
	for _, speaker := range session.Speakers {
		speakers = append(speakers, persistence.SessionSpeakerConfig{
			SpeakerID:    speaker.SpeakerID,
			IsCoHost:     speaker.IsCoHost,
			InviteStatus: string(speaker.InviteStatus),
		})
	}
	subscribers := make([]persistence.Subscriber, 0, len(session.Subscribers))
	for _, subscriber := range session.Subscribers {
		subscribers = append(subscribers, toStoredSubscriber(subscriber))
	}
	return persistence.Session{
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
		Reminders: persistence.ReminderSettings{
			Remind24h: session.Reminders.Remind24h,
			Remind1h:  session.Reminders.Remind1h,
		},
	}
}

func toApplicationSubscriber(model persistence.Subscriber) application.Subscriber {
	subscribedAt, err := time.Parse(time.RFC3339, model.SubscribedAt)
	if err != nil {
		subscribedAt = time.Time{}
	}
	return application.Subscriber{
		Name:         model.Name,
		Email:        model.Email,
		SubscribedAt: subscribedAt,
	}
}

func toStoredSubscriber(subscriber application.Subscriber) persistence.Subscriber {
	return persistence.Subscriber{
		Name:         subscriber.Name,
		Email:        subscriber.Email,
		SubscribedAt: subscriber.SubscribedAt.UTC().Format(time.RFC3339),
	}
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:      model.ID,
		Name:    model.Name,
		PINHash: model.PINHash,
		Role:    application.Role(model.Role),
		Email:   model.Email,
		Picture: model.Picture,
	}
}

func toStoredUser(user application.User) persistence.User {
	return persistence.User{
		ID:      user.ID,
		Name:    user.Name,
		PINHash: user.PINHash,
		Role:    string(user.Role),
		Email:   user.Email,
		Picture: user.Picture,
	}
}

func toApplicationSpeaker(model persistence.Speaker) application.Speaker {
	return application.Speaker{
		ID:          model.ID,
		Name:        model.Name,
		Email:       model.Email,
		RoleOrTitle: model.RoleOrTitle,
		Bio:         model.Bio,
		PhotoURL:    model.PhotoURL,
	}
}

func toStoredSpeaker(speaker application.Speaker) persistence.Speaker {
	return persistence.Speaker{
		ID:          speaker.ID,
		Name:        speaker.Name,
		Email:       speaker.Email,
		RoleOrTitle: speaker.RoleOrTitle,
		Bio:         speaker.Bio,
		PhotoURL:    speaker.PhotoURL,
	}
}

func toApplicationSettings(model persistence.AppSettings) application.AppSettings {
	return application.AppSettings{
		OrganizationName:         model.OrganizationName,
		GoogleCalendarID:         model.GoogleCalendarID,
		GoogleClientID:           model.GoogleClientID,
		EmailWebhookURL:          model.EmailWebhookURL,
		EnableEmailNotifications: model.EnableEmailNotifications,
	}
}

func toStoredSettings(settings application.AppSettings) persistence.AppSettings {
	return persistence.AppSettings{
		OrganizationName:         settings.OrganizationName,
		GoogleCalendarID:         settings.GoogleCalendarID,
		GoogleClientID:           settings.GoogleClientID,
		EmailWebhookURL:          settings.EmailWebhookURL,
		EnableEmailNotifications: settings.EnableEmailNotifications,
	}
}
