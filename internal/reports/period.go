package reports

import (
	"fmt"
	"strings"
	"time"
)

// Period selects the window a report or transaction listing covers.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Periods lists every supported period.
var Periods = []Period{PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}

// ParsePeriod accepts a period name. Empty and "overall" mean all time.
func ParsePeriod(value string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(value))); p {
	case "", "overall":
		return PeriodAll, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported period %q", value)
	}
}

// Start returns the inclusive lower bound of p relative to now, in now's location.
// A nil result means no lower bound.
func (p Period) Start(now time.Time) *time.Time {
	var start time.Time
	switch p {
	case PeriodToday:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		start = now.AddDate(0, 0, -7)
	case PeriodMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PeriodYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return nil
	}
	return &start
}
