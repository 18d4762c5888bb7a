package schedule

import (
	"fmt"
	"time"
)

const (
	minWeek = 1
	maxWeek = 53
)

// Week is an ISO-8601 year/week pair.
type Week struct {
	Year int `json:"year" yaml:"year"`
	Week int `json:"week" yaml:"week"`
}

// String renders the week the way planners write it, e.g. "V15 2024".
func (w Week) String() string {
	return fmt.Sprintf("V%d %d", w.Week, w.Year)
}

// Start returns the Monday of the week.
func (w Week) Start() time.Time {
	return WeekStart(w.Year, w.Week)
}

// Normalize returns the ISO week that w.Start() actually falls in, so week 53
// of a 52-week year becomes week 1 of the next year.
func (w Week) Normalize() Week {
	return ISOWeekOf(w.Start())
}

// IsZero reports whether neither year nor week is set.
func (w Week) IsZero() bool {
	return w.Year == 0 && w.Week == 0
}

// ValidWeek reports whether n is a usable ISO week number.
func ValidWeek(n int) bool {
	return n >= minWeek && n <= maxWeek
}

// WeekStart returns Monday 00:00 UTC of ISO week `week` in ISO year `year`.
//
// Weeks below 1 are clamped to 1 and weeks above 53 to 53. Week 53 of a year
// that only has 52 ISO weeks is resolved arithmetically and lands on the
// Monday of week 1 of the following year.
func WeekStart(year, week int) time.Time {
	if week < minWeek {
		week = minWeek
	}
	if week > maxWeek {
		week = maxWeek
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, (week-1)*7)
}

// DeadlineFromOffset shifts ref earlier by |weeksBeforeLaunch| whole weeks.
// The sign is ignored, so the result is never after ref.
func DeadlineFromOffset(ref time.Time, weeksBeforeLaunch int) time.Time {
	if weeksBeforeLaunch < 0 {
		weeksBeforeLaunch = -weeksBeforeLaunch
	}
	if weeksBeforeLaunch == 0 {
		return ref
	}
	return ref.AddDate(0, 0, -7*weeksBeforeLaunch)
}

// ISOWeekOf returns the ISO year and week that t falls in.
func ISOWeekOf(t time.Time) Week {
	y, w := t.ISOWeek()
	return Week{Year: y, Week: w}
}

// WeeksInYear returns 52 or 53 depending on the ISO calendar of year.
func WeeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}
