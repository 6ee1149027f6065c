package temporal

import (
	"fmt"
	"strings"
	"time"
)

// Buckets holds the three period keys of one date. All keys sort
// chronologically as plain strings.
type Buckets struct {
	Day   string
	Week  string
	Month string
}

func BucketsFor(t time.Time) Buckets {
	return Buckets{Day: DayKey(t), Week: WeekKey(t), Month: MonthKey(t)}
}

func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekKey uses ISO 8601 week numbering, e.g. 2024-W01. This is the only
// week convention in the system.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

var periodAliases = map[string]Period{
	"daily":   Daily,
	"diario":  Daily,
	"weekly":  Weekly,
	"semanal": Weekly,
	"monthly": Monthly,
	"mensual": Monthly,
}

// ParsePeriod accepts the English names and their Spanish aliases.
func ParsePeriod(s string) (Period, error) {
	p, ok := periodAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown period %q, use daily, weekly or monthly", s)
	}
	return p, nil
}

// Key returns the bucket of t for this period.
func (p Period) Key(t time.Time) string {
	switch p {
	case Daily:
		return DayKey(t)
	case Weekly:
		return WeekKey(t)
	default:
		return MonthKey(t)
	}
}
