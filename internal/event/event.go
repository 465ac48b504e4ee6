package event

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Record is one calendar-worthy occurrence, independent of where it came from.
//
// Records are values: constructors return copies and nothing in this module
// modifies a Record after construction. For all-day records Start and End are
// midnight UTC of the first and last (inclusive) day; for timed records they
// are instants carrying the source timezone.
type Record struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Venue       string    `json:"venue,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	AllDay      bool      `json:"all_day"`
}

// NewTimed creates a timed record ending d after start.
func NewTimed(title string, start time.Time, d time.Duration, venue, category string) Record {
	return Record{
		Title:    strings.TrimSpace(title),
		Start:    start,
		End:      start.Add(d),
		Venue:    strings.TrimSpace(venue),
		Category: category,
	}
}

// NewAllDay creates an all-day record covering first through last, both inclusive.
// Only the calendar dates of first and last are used. A last before first is
// clamped to a single-day record.
func NewAllDay(title string, first, last time.Time, venue, category string) Record {
	start := dateOf(first)
	end := dateOf(last)
	if end.Before(start) {
		end = start
	}
	return Record{
		Title:    strings.TrimSpace(title),
		Start:    start,
		End:      end,
		Venue:    strings.TrimSpace(venue),
		Category: category,
		AllDay:   true,
	}
}

// WithDescription returns a copy of r carrying desc.
func (r Record) WithDescription(desc string) Record {
	r.Description = desc
	return r
}

// Duration is the length of a timed record; zero for all-day records.
func (r Record) Duration() time.Duration {
	if r.AllDay {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Key identifies the real-world occurrence a record refers to.
type Key struct {
	Title string
	Start int64 // unix nanoseconds; independent of the instant's location
}

// Key returns the identity key of r.
func (r Record) Key() Key {
	return Key{Title: NormalizeTitle(r.Title), Start: r.Start.UnixNano()}
}

// NormalizeTitle returns the form of a title used for identity comparison:
// NFC normalised, whitespace runs collapsed to one space, trimmed.
func NormalizeTitle(title string) string {
	return strings.Join(strings.FieldsFunc(norm.NFC.String(title), unicode.IsSpace), " ")
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
