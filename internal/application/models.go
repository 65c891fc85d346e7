package application

import (
	"time"

	"github.com/example/session-planner/internal/recurrence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Program identifies the curriculum track a session belongs to.
type Program string

const (
	ProgramPathways  Program = "PATHWAYS"
	ProgramAIReady   Program = "AI_READY"
	ProgramWorkReady Program = "WORK_READY"
	ProgramGeneral   Program = "GENERAL"
)

// knownPrograms enumerates the accepted program values for validation.
var knownPrograms = map[Program]struct{}{
	ProgramPathways:  {},
	ProgramAIReady:   {},
	ProgramWorkReady: {},
	ProgramGeneral:   {},
}

// Role distinguishes administrator accounts from teaching staff.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
)

// InviteStatus tracks the lifecycle of a speaker invitation.
type InviteStatus string

const (
	InviteNotSent  InviteStatus = "NOT_SENT"
	InviteSent     InviteStatus = "SENT"
	InviteAccepted InviteStatus = "ACCEPTED"
	InviteDeclined InviteStatus = "DECLINED"
)

// SessionSpeaker links a speaker to a session together with invite state.
type SessionSpeaker struct {
	SpeakerID    string
	IsCoHost     bool
	InviteStatus InviteStatus
}

// Subscriber records one sign-up for a session.
type Subscriber struct {
	Name         string
	Email        string
	SubscribedAt time.Time
}

// ReminderSettings selects which reminder windows apply to a session.
type ReminderSettings struct {
	Remind24h bool
	Remind1h  bool
}

// Session represents a planned educational session.
type Session struct {
	ID                 string
	Title              string
	Program            Program
	Description        string
	InternalNotes      string
	Date               string
	StartTime          string
	EndTime            string
	Location           string
	MeetingLink        string
	ApplicationLink    string
	RecordingLink      string
	ImageURL           string
	MaxParticipants    int
	Speakers           []SessionSpeaker
	Subscribers        []Subscriber
	EnableNativeSignup bool
	Reminders          ReminderSettings
}

// SessionInput captures caller provided session fields.
type SessionInput struct {
	Title              string
	Program            Program
	Description        string
	InternalNotes      string
	Date               string
	StartTime          string
	EndTime            string
	Location           string
	MeetingLink        string
	ApplicationLink    string
	RecordingLink      string
	ImageURL           string
	MaxParticipants    int
	Speakers           []SessionSpeaker
	EnableNativeSignup bool
	Reminders          ReminderSettings
}

// PartialFailurePolicy controls how a save reacts when a collaborator call
// fails midway through a recurrence series.
type PartialFailurePolicy string

const (
	// PolicyContinue logs the failure and keeps persisting remaining sessions.
	PolicyContinue PartialFailurePolicy = "continue"
	// PolicyAbort stops before anything is persisted and surfaces the failure.
	PolicyAbort PartialFailurePolicy = "abort"
)

// SaveSessionParams wraps the data required to create or update a session.
type SaveSessionParams struct {
	Principal  Principal
	SessionID  string
	Input      SessionInput
	IsNew      bool
	Recurrence recurrence.Rule
	Policy     PartialFailurePolicy
}

// SaveSessionResult carries the persisted sessions plus any non-blocking
// conflict warnings detected during the save.
type SaveSessionResult struct {
	Sessions []Session
	Warnings []ConflictWarning
}

// ConflictWarning describes a scheduling clash that should be surfaced to
// callers without blocking the save.
type ConflictWarning struct {
	SessionID string
	Type      string
	SpeakerID string
	Location  string
}

// SubscribeParams captures a public sign-up request for a session.
type SubscribeParams struct {
	SessionID string
	Name      string
	Email     string
}

// InviteSpeakerParams wraps the data required to invite one speaker.
type InviteSpeakerParams struct {
	Principal Principal
	Session   Session
	SpeakerID string
	Policy    PartialFailurePolicy
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	Program  Program
	Query    string
	DateFrom string
	DateTo   string
}

// UserInput captures caller provided user attributes. A blank PIN on update
// keeps the stored hash.
type UserInput struct {
	Name    string
	PIN     string
	Role    Role
	Email   string
	Picture string
}

// User represents a staff account exposed by the application services.
type User struct {
	ID      string
	Name    string
	PINHash string
	Role    Role
	Email   string
	Picture string
}

// SaveUserParams wraps the data required to create or update a user.
type SaveUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// SpeakerInput captures caller provided speaker attributes.
type SpeakerInput struct {
	Name        string
	Email       string
	RoleOrTitle string
	Bio         string
	PhotoURL    string
}

// Speaker represents a directory entry for a session presenter.
type Speaker struct {
	ID          string
	Name        string
	Email       string
	RoleOrTitle string
	Bio         string
	PhotoURL    string
}

// SaveSpeakerParams wraps the data required to create or update a speaker.
type SaveSpeakerParams struct {
	Principal Principal
	SpeakerID string
	Input     SpeakerInput
}

// AppSettings holds workspace wide configuration edited by administrators.
type AppSettings struct {
	OrganizationName         string
	GoogleCalendarID         string
	GoogleClientID           string
	EmailWebhookURL          string
	EnableEmailNotifications bool
}

// AuthenticateResult captures the outcome of a successful PIN login.
type AuthenticateResult struct {
	User  User
	Token string
}
