package calendar

import (
	"errors"
	"fmt"
	"strings"

	ical "github.com/arran4/golang-ical"
)

// ErrInvalidDocument is wrapped by every error Inspect returns for a document
// that parses but breaks a structural rule.
var ErrInvalidDocument = errors.New("invalid calendar document")

// Inspection describes a parsed calendar document.
type Inspection struct {
	Events int `json:"events"`
	AllDay int `json:"all_day"`
	Alarms int `json:"alarms"`
}

// Inspect parses doc and checks that every event has a unique UID, a summary,
// a start and exactly one display alarm.
func Inspect(doc string) (Inspection, error) {
	var in Inspection

	cal, err := ical.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		return in, fmt.Errorf("parsing calendar: %w", err)
	}

	seen := make(map[string]bool)
	for i, ve := range cal.Events() {
		uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
		if uid == nil || uid.Value == "" {
			return in, fmt.Errorf("%w: event %d has no UID", ErrInvalidDocument, i)
		}
		if seen[uid.Value] {
			return in, fmt.Errorf("%w: duplicate UID %q", ErrInvalidDocument, uid.Value)
		}
		seen[uid.Value] = true

		if p := ve.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value == "" {
			return in, fmt.Errorf("%w: event %s has no SUMMARY", ErrInvalidDocument, uid.Value)
		}

		start := ve.GetProperty(ical.ComponentPropertyDtStart)
		if start == nil {
			return in, fmt.Errorf("%w: event %s has no DTSTART", ErrInvalidDocument, uid.Value)
		}
		if vs := start.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			in.AllDay++
		}

		alarms := ve.Alarms()
		if len(alarms) != 1 {
			return in, fmt.Errorf("%w: event %s has %d alarms", ErrInvalidDocument, uid.Value, len(alarms))
		}
		if p := alarms[0].GetProperty(ical.ComponentPropertyAction); p == nil || p.Value != "DISPLAY" {
			return in, fmt.Errorf("%w: event %s alarm is not a display alarm", ErrInvalidDocument, uid.Value)
		}

		in.Events++
		in.Alarms += len(alarms)
	}

	return in, nil
}
