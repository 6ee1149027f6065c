package temporal

import "time"

// Weekdays is the canonical weekday table, Monday first.
var Weekdays = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayIndex maps a date onto its position in Weekdays.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func WeekdayName(t time.Time) string {
	return Weekdays[WeekdayIndex(t)]
}

// WeekdayOrder returns the position of a canonical name, or -1.
func WeekdayOrder(name string) int {
	for i, d := range Weekdays {
		if d == name {
			return i
		}
	}
	return -1
}
