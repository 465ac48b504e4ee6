package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/sports-calendar/internal/calendar"
	"github.com/pfrederiksen/sports-calendar/internal/event"
	"github.com/pfrederiksen/sports-calendar/internal/logger"
	"github.com/pfrederiksen/sports-calendar/internal/metrics"
	"github.com/pfrederiksen/sports-calendar/internal/scraper"
)

// Fetcher retrieves the raw schedule page.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Outcome is the result of the scraped source. Either Err is nil and Records
// holds the normalized events, or Err names the failure and Records holds
// exactly one placeholder.
type Outcome struct {
	Records []event.Record
	Blocks  []string
	Stats   event.Stats
	Err     error
}

// Failed reports whether the placeholder stands in for the scraped events.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Document is one generated calendar.
type Document struct {
	Text        string         `json:"-"`
	GeneratedAt time.Time      `json:"generated_at"`
	Events      int            `json:"events"`
	Static      int            `json:"static"`
	Dynamic     int            `json:"dynamic"`
	Placeholder bool           `json:"placeholder"`
	Failure     string         `json:"failure,omitempty"`
	Stats       event.Stats    `json:"stats"`
	ByCategory  map[string]int `json:"by_category"`
}

// Pipeline merges the static season tables with the scraped schedule.
type Pipeline struct {
	Fetcher Fetcher
	// Token admits a scraped event by its name.
	Token string
	// Options drive normalization; Options.Category also names the placeholder.
	Options event.Options
	Static  []event.Record
	Emitter *calendar.Emitter
	Metrics *metrics.Metrics
}

// RunDynamic fetches, extracts, normalizes and emits the scraped schedule.
// It never fails: any error or panic along the way yields a failed Outcome
// carrying a placeholder record.
func (p *Pipeline) RunDynamic(ctx context.Context, now time.Time) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = p.failed(now, fmt.Errorf("internal error: %v", r))
		}
	}()

	if p.Fetcher == nil {
		return p.failed(now, errors.New("no schedule source configured"))
	}

	page, err := p.Fetcher.Fetch(ctx)
	if err != nil {
		return p.failed(now, err)
	}

	records, stats := event.Normalize(scraper.Extract(page, p.Token), now, p.Options)
	p.Metrics.ObserveNormalize(stats)

	logger.Info("Normalized scraped schedule", logger.Fields{
		"category":   p.Options.Category,
		"candidates": stats.Seen,
		"kept":       stats.Kept,
		"dropped":    stats.Dropped,
	})
	if stats.Seen == 0 {
		logger.Warn("No events found on schedule page", logger.Fields{"category": p.Options.Category})
	}

	return Outcome{
		Records: records,
		Blocks:  p.emit(records),
		Stats:   stats,
	}
}

func (p *Pipeline) failed(now time.Time, err error) Outcome {
	logger.Error("Scraped schedule unavailable, using placeholder", logger.Fields{
		"category": p.Options.Category,
	}, err)
	p.Metrics.DynamicFailure()

	rec := Placeholder(p.Options.Category, now, p.location(), err)
	return Outcome{
		Records: []event.Record{rec},
		Blocks:  []string{p.emitter().Event(rec, 0)},
		Err:     err,
	}
}

// Placeholder is the all-day record shown on the reference day when the
// scraped schedule cannot be produced.
func Placeholder(category string, now time.Time, loc *time.Location, cause error) event.Record {
	if loc == nil {
		loc = time.UTC
	}
	day := now.In(loc)
	title := fmt.Sprintf("%s schedule temporarily unavailable", category)
	desc := "The schedule could not be updated."
	if cause != nil {
		desc = fmt.Sprintf("The schedule could not be updated: %v", cause)
	}
	return event.NewAllDay(title, day, day, "", category).WithDescription(desc)
}

// Build assembles the full calendar: static records first, then the scraped
// schedule or its placeholder. The result is checked before it is returned.
func (p *Pipeline) Build(ctx context.Context, now time.Time) (*Document, error) {
	started := time.Now()

	outcome := p.RunDynamic(ctx, now)

	blocks := make([]string, 0, len(p.Static)+len(outcome.Blocks))
	blocks = append(blocks, p.emit(p.Static)...)
	blocks = append(blocks, outcome.Blocks...)
	text := p.emitter().Document(blocks...)

	inspection, err := calendar.Inspect(text)
	if err != nil {
		return nil, fmt.Errorf("checking generated calendar: %w", err)
	}

	doc := &Document{
		Text:        text,
		GeneratedAt: now,
		Events:      inspection.Events,
		Static:      len(p.Static),
		Stats:       outcome.Stats,
		ByCategory:  make(map[string]int),
	}
	if outcome.Failed() {
		doc.Placeholder = true
		doc.Failure = outcome.Err.Error()
	} else {
		doc.Dynamic = len(outcome.Records)
	}
	for _, rec := range p.Static {
		doc.ByCategory[rec.Category]++
	}
	for _, rec := range outcome.Records {
		doc.ByCategory[rec.Category]++
	}

	p.Metrics.RunCompleted(now, time.Since(started), doc.ByCategory)
	return doc, nil
}

// Generate builds the calendar and writes it to path. Only a failure to write
// (a *calendar.WriteError) or an internally inconsistent document is returned.
func (p *Pipeline) Generate(ctx context.Context, now time.Time, path string) (*Document, error) {
	doc, err := p.Build(ctx, now)
	if err != nil {
		return nil, err
	}
	if err := calendar.WriteFile(path, doc.Text); err != nil {
		return nil, err
	}

	logger.Info("Calendar written", logger.Fields{
		"path":        path,
		"events":      doc.Events,
		"placeholder": doc.Placeholder,
	})
	return doc, nil
}

func (p *Pipeline) emit(records []event.Record) []string {
	e := p.emitter()
	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		blocks = append(blocks, e.Event(rec, 0))
	}
	return blocks
}

func (p *Pipeline) emitter() *calendar.Emitter {
	if p.Emitter == nil {
		p.Emitter = calendar.NewEmitter()
	}
	return p.Emitter
}

func (p *Pipeline) location() *time.Location {
	if p.Options.Location == nil {
		return time.UTC
	}
	return p.Options.Location
}
