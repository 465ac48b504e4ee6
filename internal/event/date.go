package event

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // source and series timezones must resolve without system zoneinfo
)

// DefaultRolloverMonths is how far a candidate's month may trail the reference
// month before it is read as belonging to the next year. Schedule pages in late
// autumn already list events for the first months of the following year.
const DefaultRolloverMonths = 6

var (
	monthDayPattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})\b`)
	numericPattern  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
	clockPattern    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s*m\b\.?`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// ParseError describes a candidate field that could not be interpreted.
type ParseError struct {
	Field string // "date" or "time"
	Text  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable %s %q", e.Field, e.Text)
}

// ParseMonthDay extracts a month and day from text such as "Nov 15",
// "Sat, November 15" or "11/15". The day is range-checked against the month
// only loosely (1-31); ResolveStart rejects days the month does not have.
func ParseMonthDay(text string) (time.Month, int, error) {
	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		month := monthsByPrefix[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 {
			return month, day, nil
		}
	}
	if m := numericPattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Month(month), day, nil
		}
	}
	return 0, 0, &ParseError{Field: "date", Text: text}
}

// ParseClock reads a 12-hour clock time such as "10:00 PM", "7 pm" or
// "7:30p.m." and returns it on the 24-hour clock.
func ParseClock(text string) (hour, minute int, err error) {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, &ParseError{Field: "time", Text: text}
	}
	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, 0, &ParseError{Field: "time", Text: text}
	}
	hour %= 12
	if strings.EqualFold(m[3], "p") {
		hour += 12
	}
	return hour, minute, nil
}

// InferYear picks the year for a month/day that came without one. The
// reference year is used unless month trails the reference month by more than
// rolloverMonths, in which case the following year is used.
func InferYear(month time.Month, ref time.Time, rolloverMonths int) int {
	year := ref.Year()
	if int(ref.Month())-int(month) > rolloverMonths {
		year++
	}
	return year
}

// ResolveStart turns a candidate's date and time text into an instant in loc.
// The reference instant is interpreted in loc for year inference.
func ResolveStart(c Candidate, ref time.Time, loc *time.Location, rolloverMonths int) (time.Time, error) {
	month, day, err := ParseMonthDay(c.DateText)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseClock(c.TimeText)
	if err != nil {
		return time.Time{}, err
	}

	year := InferYear(month, ref.In(loc), rolloverMonths)
	start := time.Date(year, month, day, hour, minute, 0, 0, loc)
	// time.Date normalises Feb 30 into March; treat that as a bad date
	if start.Month() != month || start.Day() != day {
		return time.Time{}, &ParseError{Field: "date", Text: c.DateText}
	}
	return start, nil
}
