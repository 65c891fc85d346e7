package persistence

import (
	"fmt"
	"time"
)

// Seed bundles the default content written to an empty store.
type Seed struct {
	Sessions []Session
	Users    []User
	Speakers []Speaker
	Settings AppSettings
}

// DefaultSeed builds the initial collections for a fresh installation: one
// administrator and one teacher account, two speakers, a handful of upcoming
// sample sessions, and baseline settings. PIN hashing is injected so this
// package stays free of crypto concerns.
func DefaultSeed(hashPIN func(string) (string, error), now func() time.Time) (Seed, error) {
	if now == nil {
		now = time.Now
	}

	adminHash, err := hashPIN("1102")
	if err != nil {
		return Seed{}, fmt.Errorf("seed admin pin: %w", err)
	}
	teacherHash, err := hashPIN("0000")
	if err != nil {
		return Seed{}, fmt.Errorf("seed teacher pin: %w", err)
	}

	futureDate := func(days int) string {
		return now().AddDate(0, 0, days).Format("2006-01-02")
	}

	seed := Seed{
		Users: []User{
			{ID: "1", Name: "Head Administrator", PINHash: adminHash, Role: "ADMIN", Email: "admin@organisation.example"},
			{ID: "2", Name: "Teacher", PINHash: teacherHash, Role: "TEACHER", Email: "teacher@organisation.example"},
		},
		Speakers: []Speaker{
			{
				ID:          "sp1",
				Name:        "Dr. Sarah Jansen",
				Email:       "sarah.jansen@example.com",
				RoleOrTitle: "AI Ethics Researcher",
				Bio:         "Expert on ethical questions around generative AI.",
			},
			{
				ID:          "sp2",
				Name:        "Mark de Vries",
				Email:       "mark.vries@example.com",
				RoleOrTitle: "Senior Recruiter",
				Bio:         "More than ten years of experience in tech recruitment.",
			},
		},
		Sessions: []Session{
			{
				ID:              "1",
				Title:           "Introduction AI Ready",
				Program:         "AI_READY",
				Description:     "An introduction to the basics of artificial intelligence and what to expect from the programme.",
				Date:            futureDate(7),
				StartTime:       "10:00",
				EndTime:         "11:30",
				Location:        "Online",
				MeetingLink:     "https://meet.google.com/abc-defg-hij",
				ApplicationLink: "https://forms.google.com/example",
				MaxParticipants: 30,
				Speakers: []SessionSpeakerConfig{
					{SpeakerID: "sp1", IsCoHost: true, InviteStatus: "ACCEPTED"},
				},
				Subscribers: []Subscriber{},
				Reminders:   ReminderSettings{Remind24h: true, Remind1h: true},
			},
			{
				ID:              "2",
				Title:           "Job Interview Training",
				Program:         "WORK_READY",
				Description:     "Learn effective techniques for your next job interview. We practise with frequently asked questions.",
				Date:            futureDate(14),
				StartTime:       "14:00",
				EndTime:         "16:00",
				Location:        "Room 3.02",
				MaxParticipants: 15,
				Speakers: []SessionSpeakerConfig{
					{SpeakerID: "sp2", IsCoHost: false, InviteStatus: "SENT"},
				},
				Subscribers:        []Subscriber{},
				EnableNativeSignup: true,
				Reminders:          ReminderSettings{Remind24h: true},
			},
			{
				ID:                 "3",
				Title:              "Pathways Kick-off",
				Program:            "PATHWAYS",
				Description:        "The start of your journey. Meet your mentors and fellow students.",
				Date:               futureDate(30),
				StartTime:          "09:00",
				EndTime:            "12:00",
				Location:           "Main Auditorium",
				MaxParticipants:    100,
				Speakers:           []SessionSpeakerConfig{},
				Subscribers:        []Subscriber{},
				EnableNativeSignup: true,
				Reminders:          ReminderSettings{Remind24h: true, Remind1h: true},
			},
		},
		Settings: AppSettings{
			OrganizationName:         "My Organisation",
			EnableEmailNotifications: true,
		},
	}

	return seed, nil
}
