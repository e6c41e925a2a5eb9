package format

import (
	"fmt"
	"time"
)

const (
	cardLayout = "Jan 2, 2006"
	fullLayout = "Jan 2, 2006, 03:04 PM"
)

const invalidDate = "Invalid Date"

// Date renders t with its time of day, in local time.
func Date(t time.Time) string {
	if t.IsZero() {
		return invalidDate
	}
	return t.Local().Format(fullLayout)
}

// CardDate renders only the calendar date.
func CardDate(t time.Time) string {
	if t.IsZero() {
		return invalidDate
	}
	return t.Local().Format(cardLayout)
}

// RelativeTime describes t relative to now ("Just now", "5 minutes ago",
// "1 day ago"). Anything a week or older falls back to CardDate.
func RelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return invalidDate
	}

	diff := now.Sub(t)
	mins := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case mins < 1:
		return "Just now"
	case mins < 60:
		return ago(mins, "minute")
	case hours < 24:
		return ago(hours, "hour")
	case days < 7:
		return ago(days, "day")
	}
	return CardDate(t)
}

func ago(n int, unit string) string {
	if n > 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s ago", n, unit)
}
