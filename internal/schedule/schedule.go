package schedule

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/sports-calendar/internal/event"
)

//go:embed series/*.yaml
var embedded embed.FS

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Series is one season table.
type Series struct {
	Name   string  `yaml:"series" validate:"required"`
	Label  string  `yaml:"label" validate:"required"`
	Events []Entry `yaml:"events" validate:"required,min=1,dive"`
}

// Entry is one row of a season table. Rows without a time are all-day
// occurrences from Start through End; rows with a time start at that wall
// clock time in Timezone.
type Entry struct {
	Title    string        `yaml:"title" validate:"required"`
	Venue    string        `yaml:"venue"`
	Start    string        `yaml:"start" validate:"required,datetime=2006-01-02"`
	End      string        `yaml:"end" validate:"omitempty,datetime=2006-01-02"`
	Time     string        `yaml:"time" validate:"omitempty,datetime=15:04"`
	Timezone string        `yaml:"timezone" validate:"omitempty,timezone"`
	Duration time.Duration `yaml:"duration" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load decodes every embedded season table and returns their records ordered
// by start.
func Load() ([]event.Record, error) {
	return LoadFS(embedded, "series")
}

// LoadFS decodes every *.yaml table under dir in fsys.
func LoadFS(fsys fs.FS, dir string) ([]event.Record, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("listing series tables: %w", err)
	}
	sort.Strings(names)

	var records []event.Record
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		recs, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("series table %s: %w", name, err)
		}
		records = append(records, recs...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Start.Before(records[j].Start)
	})
	return records, nil
}

// Decode parses one season table into records. Titles are prefixed with the
// series label and every record is tagged with the series name.
func Decode(data []byte) ([]event.Record, error) {
	var s Series
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	if err := validate.Struct(s); err != nil {
		return nil, fmt.Errorf("validating: %w", err)
	}

	records := make([]event.Record, 0, len(s.Events))
	for i, e := range s.Events {
		rec, err := e.record(s)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, e.Title, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (e Entry) record(s Series) (event.Record, error) {
	title := fmt.Sprintf("%s: %s", s.Label, strings.TrimSpace(e.Title))

	if e.Time != "" {
		if e.End != "" {
			return event.Record{}, fmt.Errorf("timed entry cannot have an end date")
		}
		if e.Timezone == "" {
			return event.Record{}, fmt.Errorf("timed entry needs a timezone")
		}
		loc, err := time.LoadLocation(e.Timezone)
		if err != nil {
			return event.Record{}, fmt.Errorf("loading timezone: %w", err)
		}
		start, err := time.ParseInLocation(dateLayout+" "+clockLayout, e.Start+" "+e.Time, loc)
		if err != nil {
			return event.Record{}, fmt.Errorf("parsing start: %w", err)
		}
		d := e.Duration
		if d == 0 {
			d = event.DefaultDuration
		}
		return event.NewTimed(title, start, d, e.Venue, s.Name), nil
	}

	first, err := time.Parse(dateLayout, e.Start)
	if err != nil {
		return event.Record{}, fmt.Errorf("parsing start: %w", err)
	}
	last := first
	if e.End != "" {
		if last, err = time.Parse(dateLayout, e.End); err != nil {
			return event.Record{}, fmt.Errorf("parsing end: %w", err)
		}
		if last.Before(first) {
			return event.Record{}, fmt.Errorf("end %s is before start %s", e.End, e.Start)
		}
	}
	return event.NewAllDay(title, first, last, e.Venue, s.Name), nil
}
