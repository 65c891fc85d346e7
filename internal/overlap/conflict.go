package overlap

import "strings"

// Session carries the fields needed to detect double bookings.
type Session struct {
	ID         string
	Date       string
	StartTime  string
	EndTime    string
	Location   string
	SpeakerIDs []string
}

// ConflictType describes the kind of conflict detected between sessions.
type ConflictType string

const (
	// ConflictTypeSpeaker indicates a speaker is booked into two overlapping sessions.
	ConflictTypeSpeaker ConflictType = "speaker"
	// ConflictTypeLocation indicates a physical location is double-booked.
	ConflictTypeLocation ConflictType = "location"
)

// Conflict details an overlapping session relation that callers can surface
// as an advisory warning.
type Conflict struct {
	WithSessionID string
	Type          ConflictType
	SpeakerID     string
	Location      string
}

// DetectConflicts identifies conflicts for the candidate session against the
// existing ones. Conflicts are advisory; callers never block a save on them.
func DetectConflicts(existing []Session, candidate Session) []Conflict {
	var conflicts []Conflict

	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		if !sameDay(candidate, other) || !timesOverlap(candidate, other) {
			continue
		}

		for _, id := range sharedSpeakers(candidate.SpeakerIDs, other.SpeakerIDs) {
			conflicts = append(conflicts, Conflict{
				WithSessionID: other.ID,
				Type:          ConflictTypeSpeaker,
				SpeakerID:     id,
			})
		}

		if loc := sharedLocation(candidate.Location, other.Location); loc != "" {
			conflicts = append(conflicts, Conflict{
				WithSessionID: other.ID,
				Type:          ConflictTypeLocation,
				Location:      loc,
			})
		}
	}

	return conflicts
}

func sameDay(a, b Session) bool {
	return a.Date != "" && a.Date == b.Date
}

// timesOverlap treats the time window as half-open so back-to-back sessions
// do not conflict. The HH:MM strings compare correctly lexicographically.
func timesOverlap(a, b Session) bool {
	if a.StartTime == "" || a.EndTime == "" || b.StartTime == "" || b.EndTime == "" {
		return false
	}
	return a.StartTime < b.EndTime && b.StartTime < a.EndTime
}

func sharedSpeakers(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	var shared []string
	for _, id := range b {
		if _, ok := set[id]; ok {
			shared = append(shared, id)
			delete(set, id)
		}
	}
	return shared
}

// sharedLocation returns the location both sessions occupy, if any. Virtual
// locations are not exclusive resources and never conflict.
func sharedLocation(a, b string) string {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return ""
	}
	if !strings.EqualFold(a, b) {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(a), "online") {
		return ""
	}
	return a
}
