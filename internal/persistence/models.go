package persistence

// The structs below are the stored document shapes. Each collection is
// persisted wholesale as a single JSON array (or object, for settings), so
// the JSON tags define the on-disk format and the export/import format.

// Subscriber records one self-registration to a session.
type Subscriber struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	SubscribedAt string `json:"subscribedAt"`
}

// SessionSpeakerConfig attaches a speaker to a session by weak reference.
type SessionSpeakerConfig struct {
	SpeakerID    string `json:"speakerId"`
	IsCoHost     bool   `json:"isCoHost"`
	InviteStatus string `json:"inviteStatus"`
}

// ReminderSettings captures reminder intent flags for a session.
type ReminderSettings struct {
	Remind24h bool `json:"remind24h"`
	Remind1h  bool `json:"remind1h"`
}

// Session is the stored representation of a scheduled activity.
type Session struct {
	ID                 string                 `json:"id"`
	Title              string                 `json:"title"`
	Program            string                 `json:"program"`
	Description        string                 `json:"description"`
	InternalNotes      string                 `json:"internalNotes,omitempty"`
	Date               string                 `json:"date"`
	StartTime          string                 `json:"startTime"`
	EndTime            string                 `json:"endTime"`
	Location           string                 `json:"location"`
	MeetingLink        string                 `json:"meetingLink,omitempty"`
	ApplicationLink    string                 `json:"applicationLink,omitempty"`
	RecordingLink      string                 `json:"recordingLink,omitempty"`
	ImageURL           string                 `json:"imageUrl,omitempty"`
	MaxParticipants    int                    `json:"maxParticipants,omitempty"`
	Speakers           []SessionSpeakerConfig `json:"speakers"`
	Subscribers        []Subscriber           `json:"subscribers"`
	EnableNativeSignup bool                   `json:"enableNativeSignup"`
	Reminders          ReminderSettings       `json:"reminders"`
}

// Speaker is the stored representation of a person who can present sessions.
type Speaker struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	RoleOrTitle string `json:"roleOrTitle"`
	Bio         string `json:"bio,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

// User is the stored representation of an operator account. The PIN is kept
// as an argon2id hash; plaintext never reaches the store.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	PINHash string `json:"pinHash"`
	Role    string `json:"role"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// AppSettings is the singleton configuration record, replaced wholesale.
type AppSettings struct {
	OrganizationName         string `json:"organizationName"`
	GoogleCalendarID         string `json:"googleCalendarId"`
	GoogleClientID           string `json:"googleClientId,omitempty"`
	EmailWebhookURL          string `json:"emailWebhookUrl,omitempty"`
	EnableEmailNotifications bool   `json:"enableEmailNotifications"`
}
