package recurrence

import (
	"errors"
	"time"
)

// DateLayout is the civil date format used throughout the planner.
const DateLayout = "2006-01-02"

// Frequency represents supported recurrence intervals.
type Frequency string

const (
	// FrequencyNone indicates no repetition is requested.
	FrequencyNone Frequency = "NONE"
	// FrequencyDaily repeats on consecutive days.
	FrequencyDaily Frequency = "DAILY"
	// FrequencyWeekly repeats every seven days.
	FrequencyWeekly Frequency = "WEEKLY"
	// FrequencyMonthly repeats on the same day of each following month,
	// clamped to the last valid day when the month is shorter.
	FrequencyMonthly Frequency = "MONTHLY"
)

// Rule describes how many repeated instances to derive from one base date.
type Rule struct {
	Frequency Frequency
	Count     int
}

// Applies reports whether the rule requests any expansion at all.
func (r Rule) Applies() bool {
	return r.Frequency != "" && r.Frequency != FrequencyNone && r.Count > 1
}

// ErrInvalidFrequency indicates the recurrence frequency is not supported.
var ErrInvalidFrequency = errors.New("recurrence: invalid frequency")

// ErrInvalidCount indicates the occurrence count is below the minimum of two.
var ErrInvalidCount = errors.New("recurrence: occurrence count must be at least 2")

// ErrInvalidDate indicates the base date is not a valid civil date.
var ErrInvalidDate = errors.New("recurrence: invalid base date")

// ExpandDates produces rule.Count civil dates: the base date first, followed
// by the derived dates in increasing order. Derived date i is always computed
// from the base date (base + i periods), never chained from the previous
// instance, so monthly expansion of a month-end date recovers the original
// day whenever the target month allows it (2024-01-31 +1 month is 2024-02-29,
// +2 months is 2024-03-31).
func ExpandDates(baseDate string, rule Rule) ([]string, error) {
	switch rule.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return nil, ErrInvalidFrequency
	}
	if rule.Count < 2 {
		return nil, ErrInvalidCount
	}

	base, err := time.Parse(DateLayout, baseDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	dates := make([]string, 0, rule.Count)
	dates = append(dates, base.Format(DateLayout))

	for i := 1; i < rule.Count; i++ {
		var next time.Time
		switch rule.Frequency {
		case FrequencyDaily:
			next = base.AddDate(0, 0, i)
		case FrequencyWeekly:
			next = base.AddDate(0, 0, 7*i)
		case FrequencyMonthly:
			next = addMonthsClamped(base, i)
		}
		dates = append(dates, next.Format(DateLayout))
	}

	return dates, nil
}

// addMonthsClamped shifts t forward by the given number of calendar months.
// Unlike time.AddDate it never rolls over into the following month: when the
// target month has fewer days, the result is the last day of that month.
func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	day := t.Day()
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
