package persistence

import "context"

// SessionRepository stores the sessions collection.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	UpsertSession(ctx context.Context, session Session) error
	DeleteSession(ctx context.Context, id string) error
	AppendSubscriber(ctx context.Context, sessionID string, subscriber Subscriber) (Session, error)
}

// UserRepository stores the users collection.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpsertUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
}

// SpeakerRepository stores the speakers collection.
type SpeakerRepository interface {
	GetSpeaker(ctx context.Context, id string) (Speaker, error)
	ListSpeakers(ctx context.Context) ([]Speaker, error)
	UpsertSpeaker(ctx context.Context, speaker Speaker) error
	DeleteSpeaker(ctx context.Context, id string) error
}

// SettingsRepository stores the singleton settings record.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (AppSettings, error)
	SaveSettings(ctx context.Context, settings AppSettings) error
}

// BackupRepository exports and imports the whole store as one JSON document.
// Import applies each collection key independently: keys missing from the
// document leave the existing collection untouched, and a malformed document
// is rejected without changing anything.
type BackupRepository interface {
	ExportData(ctx context.Context) ([]byte, error)
	ImportData(ctx context.Context, document []byte) error
}
