package purchases

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultClock is the arrival time used when a receipt has no usable time.
const DefaultClock = "12:00:00"

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "01/02/06", "2006/01/02"}

// NormalizeClock accepts "H:MM", "HH:MM", "HH:MM:SS" and single-digit parts
// ("14:5"), with an optional AM/PM suffix, and returns "HH:MM:SS". Blank
// input yields DefaultClock without error.
func NormalizeClock(value string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return DefaultClock, nil
	}

	meridiem := ""
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(s, suffix) {
			meridiem = suffix
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
		}
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return DefaultClock, fmt.Errorf("unrecognized time %q", value)
	}

	limits := []int{24, 60, 60}
	values := []int{0, 0, 0}
	for i, part := range parts {
		if len(part) == 0 || len(part) > 2 {
			return DefaultClock, fmt.Errorf("unrecognized time %q", value)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n >= limits[i] {
			return DefaultClock, fmt.Errorf("unrecognized time %q", value)
		}
		values[i] = n
	}

	switch meridiem {
	case "AM", "PM":
		if values[0] < 1 || values[0] > 12 {
			return DefaultClock, fmt.Errorf("unrecognized time %q", value)
		}
		values[0] %= 12
		if meridiem == "PM" {
			values[0] += 12
		}
	}

	return fmt.Sprintf("%02d:%02d:%02d", values[0], values[1], values[2]), nil
}

// ParseDate reads a receipt date. Times of day in the input are dropped.
func ParseDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if len(s) > 10 {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return dateOnly(t), nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// At combines a calendar date with a normalized clock string in UTC.
func At(date time.Time, clock string) time.Time {
	c, err := time.Parse("15:04:05", clock)
	if err != nil {
		c, _ = time.Parse("15:04:05", DefaultClock)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
