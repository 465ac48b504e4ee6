package event

import (
	"errors"
	"iter"
	"sort"
	"time"
)

// DefaultStaleAfter is the look-back window: records starting longer than this
// before the reference instant are dropped.
const DefaultStaleAfter = 7 * 24 * time.Hour

// DefaultDuration is the length given to timed records when none is configured.
const DefaultDuration = 5 * time.Hour

// Drop reasons reported in Stats.
const (
	DropBadDate   = "bad_date"
	DropBadTime   = "bad_time"
	DropStale     = "stale"
	DropDuplicate = "duplicate"
)

// Candidate is the raw text found for one event on a schedule page.
type Candidate struct {
	DateText string `json:"date_text"`
	TimeText string `json:"time_text"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Options controls Normalize. Zero values fall back to the package defaults,
// except Location which defaults to UTC.
type Options struct {
	Location       *time.Location
	Category       string
	RolloverMonths int
	StaleAfter     time.Duration
	Duration       time.Duration
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.RolloverMonths <= 0 {
		o.RolloverMonths = DefaultRolloverMonths
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	if o.Duration <= 0 {
		o.Duration = DefaultDuration
	}
	return o
}

// Stats summarises one Normalize pass.
type Stats struct {
	Seen    int            `json:"seen"`
	Kept    int            `json:"kept"`
	Dropped map[string]int `json:"dropped,omitempty"`
}

func (s *Stats) drop(reason string) {
	if s.Dropped == nil {
		s.Dropped = make(map[string]int)
	}
	s.Dropped[reason]++
}

// Normalize converts candidates into timed records in opts.Location, relative
// to the reference instant now. Candidates whose date or time cannot be parsed
// and records older than the staleness window are dropped. Records sharing an
// identity key collapse into the last one seen. The result is sorted by start.
func Normalize(candidates iter.Seq[Candidate], now time.Time, opts Options) ([]Record, Stats) {
	opts = opts.withDefaults()
	cutoff := now.Add(-opts.StaleAfter)

	var stats Stats
	records := make([]Record, 0)
	index := make(map[Key]int)

	for c := range candidates {
		stats.Seen++

		start, err := ResolveStart(c, now, opts.Location, opts.RolloverMonths)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) && perr.Field == "time" {
				stats.drop(DropBadTime)
			} else {
				stats.drop(DropBadDate)
			}
			continue
		}
		if start.Before(cutoff) {
			stats.drop(DropStale)
			continue
		}

		rec := NewTimed(c.Name, start, opts.Duration, c.Location, opts.Category)
		key := rec.Key()
		if i, ok := index[key]; ok {
			records[i] = rec
			stats.drop(DropDuplicate)
			continue
		}
		index[key] = len(records)
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Start.Before(records[j].Start)
	})
	stats.Kept = len(records)

	return records, stats
}
