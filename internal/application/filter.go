package application

import (
	"sort"
	"strings"
)

// VisibleSessions applies a listing filter to sessions and returns the
// survivors sorted by date ascending; sessions sharing a date keep their
// input order. An empty or "ALL" program matches every session; the query
// matches title or description case-insensitively; date bounds are
// inclusive.
func VisibleSessions(sessions []Session, filter SessionFilter) []Session {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	program := strings.TrimSpace(string(filter.Program))

	out := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		if program != "" && program != "ALL" && string(session.Program) != program {
			continue
		}
		if query != "" {
			title := strings.ToLower(session.Title)
			description := strings.ToLower(session.Description)
			if !strings.Contains(title, query) && !strings.Contains(description, query) {
				continue
			}
		}
		if filter.DateFrom != "" && session.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && session.Date > filter.DateTo {
			continue
		}
		out = append(out, session)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})

	return out
}
