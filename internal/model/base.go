package model

import (
	"fmt"
	"strings"
	"time"
)

// Stored date and clock formats. Dates are fixed-width so that string order
// equals calendar order, but comparisons go through ParseDate.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ParseDate parses a stored yyyy-MM-dd date as a calendar day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as a stored date in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// Pagination represents common pagination parameters
type Pagination struct {
	Limit  int `json:"limit" form:"limit"`
	Offset int `json:"offset" form:"offset"`
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}

var clockLayouts = []string{ClockLayout, "3:04 PM", "03:04 PM", "3:04PM", "03:04PM", "15:04:05"}

// MinuteOfDay parses a slot display time such as "14:30" or "2:30 PM".
func MinuteOfDay(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

// TimeLess orders display times by clock value. Unparsable values sort last,
// among themselves by text.
func TimeLess(a, b string) bool {
	ma, okA := MinuteOfDay(a)
	mb, okB := MinuteOfDay(b)
	switch {
	case okA && okB:
		return ma < mb
	case okA != okB:
		return okA
	default:
		return a < b
	}
}
