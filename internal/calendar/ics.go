package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pfrederiksen/sports-calendar/internal/event"
)

const (
	ProductID       = "-//Sports Calendar//EN"
	DefaultName     = "Sports Calendar"
	DefaultTimezone = "America/New_York"

	// AlarmTrigger fires every reminder one hour before the start.
	AlarmTrigger = "-PT1H"

	uidDomain = "sports-calendar"

	// maxLineOctets is the longest content line allowed before folding.
	maxLineOctets = 75
)

// Emitter turns records into iCalendar text. It performs no I/O.
type Emitter struct {
	name     string
	timezone string
	now      func() time.Time
	newUID   func() string
}

// EmitterOption customises an Emitter
type EmitterOption func(*Emitter)

// WithName sets the calendar display name.
func WithName(name string) EmitterOption {
	return func(e *Emitter) {
		if name != "" {
			e.name = name
		}
	}
}

// WithTimezone sets the calendar's default display timezone.
func WithTimezone(tz string) EmitterOption {
	return func(e *Emitter) {
		if tz != "" {
			e.timezone = tz
		}
	}
}

// WithClock replaces the source of DTSTAMP values.
func WithClock(now func() time.Time) EmitterOption {
	return func(e *Emitter) { e.now = now }
}

// WithUIDs replaces the UID generator.
func WithUIDs(newUID func() string) EmitterOption {
	return func(e *Emitter) { e.newUID = newUID }
}

// NewEmitter creates an Emitter with the default name and timezone, the wall
// clock and random UIDs.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		name:     DefaultName,
		timezone: DefaultTimezone,
		now:      time.Now,
		newUID:   func() string { return uuid.NewString() + "@" + uidDomain },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the calendar display name.
func (e *Emitter) Name() string {
	return e.name
}

// Header returns the VCALENDAR opening block.
func (e *Emitter) Header() string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	writeLine(&ics, "VERSION", "2.0")
	writeLine(&ics, "PRODID", ProductID)
	writeLine(&ics, "CALSCALE", "GREGORIAN")
	writeLine(&ics, "METHOD", "PUBLISH")
	writeLine(&ics, "X-WR-CALNAME", EscapeText(e.name))
	writeLine(&ics, "X-WR-TIMEZONE", e.timezone)

	return ics.String()
}

// Document wraps event blocks, in the order given, into a complete calendar.
func (e *Emitter) Document(events ...string) string {
	var ics strings.Builder

	ics.WriteString(e.Header())
	for _, block := range events {
		ics.WriteString(block)
	}
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

// Event generates the VEVENT block for rec.
//
// All-day records are written as VALUE=DATE pairs whose end is the day after
// the record's inclusive last day. Timed records are written in UTC, ending d
// after the start; with d unset the record's own end is used, and failing that
// event.DefaultDuration.
func (e *Emitter) Event(rec event.Record, d time.Duration) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VEVENT\r\n")
	writeLine(&ics, "UID", e.newUID())
	writeLine(&ics, "DTSTAMP", formatICSTime(e.now()))
	writeLine(&ics, "SUMMARY", EscapeText(rec.Title))

	if rec.AllDay {
		last := rec.End
		if last.Before(rec.Start) {
			last = rec.Start
		}
		writeLine(&ics, "DTSTART;VALUE=DATE", formatICSDate(rec.Start))
		writeLine(&ics, "DTEND;VALUE=DATE", formatICSDate(last.AddDate(0, 0, 1)))
		writeLine(&ics, "TRANSP", "TRANSPARENT")
	} else {
		end := rec.Start.Add(d)
		if d <= 0 {
			end = rec.End
			if !end.After(rec.Start) {
				end = rec.Start.Add(event.DefaultDuration)
			}
		}
		writeLine(&ics, "DTSTART", formatICSTime(rec.Start))
		writeLine(&ics, "DTEND", formatICSTime(end))
		writeLine(&ics, "TRANSP", "OPAQUE")
	}

	if rec.Venue != "" {
		writeLine(&ics, "LOCATION", EscapeText(rec.Venue))
	}
	if rec.Category != "" {
		writeLine(&ics, "CATEGORIES", EscapeText(rec.Category))
	}
	if rec.Description != "" {
		writeLine(&ics, "DESCRIPTION", EscapeText(rec.Description))
	}
	writeLine(&ics, "STATUS", "CONFIRMED")
	writeLine(&ics, "SEQUENCE", "0")

	ics.WriteString("BEGIN:VALARM\r\n")
	writeLine(&ics, "ACTION", "DISPLAY")
	writeLine(&ics, "DESCRIPTION", EscapeText(rec.Title))
	writeLine(&ics, "TRIGGER", AlarmTrigger)
	ics.WriteString("END:VALARM\r\n")

	ics.WriteString("END:VEVENT\r\n")

	return ics.String()
}

// Calendar emits a complete document holding one event per record, in order.
func (e *Emitter) Calendar(records []event.Record, d time.Duration) string {
	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		blocks = append(blocks, e.Event(rec, d))
	}
	return e.Document(blocks...)
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatICSDate formats the calendar date of t, in t's own location.
func formatICSDate(t time.Time) string {
	return t.Format("20060102")
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
	",", `\,`,
	";", `\;`,
)

// EscapeText escapes a free-text value per RFC 5545 section 3.3.11.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// UnescapeText reverses EscapeText. Unknown escapes are kept verbatim.
func UnescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case '\\', ',', ';':
			b.WriteByte(s[i])
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func writeLine(b *strings.Builder, name, value string) {
	b.WriteString(foldLine(fmt.Sprintf("%s:%s", name, value)))
	b.WriteString("\r\n")
}

// foldLine splits a content line into chunks of at most 75 octets, each
// continuation starting with a single space. UTF-8 sequences are never split.
func foldLine(line string) string {
	if len(line) <= maxLineOctets {
		return line
	}

	var b strings.Builder
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// the leading space counts towards the next line's octets
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	return b.String()
}
