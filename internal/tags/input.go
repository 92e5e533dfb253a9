package tags

import (
	"strings"
	"time"
)

const (
	// DateLayout is the accepted form of a date filter.
	DateLayout = "2006-01-02"

	// DateTimeLayout is the stored form of a capture time.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// IsDateString reports whether s is a valid YYYY-MM-DD calendar date.
func IsDateString(s string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(s))
	return err == nil
}

// ParseCaptureTime validates a user-entered capture time. Both
// "YYYY-MM-DD HH:MM:SS" and "YYYY-MM-DD" are accepted and returned trimmed;
// anything else reports false.
func ParseCaptureTime(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateTimeLayout, DateLayout} {
		if _, err := time.Parse(layout, s); err == nil {
			return s, true
		}
	}
	return "", false
}

// Replacements holds metadata edits parsed from user input. A nil field
// means "leave unchanged".
type Replacements struct {
	CaptureTime *string
	Make        *string
	Model       *string
}

// IsEmpty reports whether no field would change.
func (r Replacements) IsEmpty() bool {
	return r.CaptureTime == nil && r.Make == nil && r.Model == nil
}

// ParseReplacements parses "datetime,make,model" edit text. Missing, empty
// or invalid slots are nil and anything after the third slot is ignored.
func ParseReplacements(text string) Replacements {
	parts := strings.SplitN(text, ",", 4)
	for len(parts) < 3 {
		parts = append(parts, "")
	}

	var r Replacements
	if dt, ok := ParseCaptureTime(parts[0]); ok {
		r.CaptureTime = &dt
	}
	r.Make = NonEmpty(parts[1])
	r.Model = NonEmpty(parts[2])
	return r
}

// NonEmpty returns a pointer to the trimmed string, or nil when it is blank.
func NonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
