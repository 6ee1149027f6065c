package temporal

import (
	"strings"
	"time"
)

var hourLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3:04:05PM",
	"3 PM",
	"3PM",
	"15:04",
	"15:04:05",
}

// ParseHour extracts the hour of day from a clock string such as
// "9:30 AM" or "09:30 pm". Twenty-four hour clocks are accepted too.
func ParseHour(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return 0, false
	}
	for _, layout := range hourLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), true
		}
	}
	return 0, false
}
