// Package pipeline assembles the calendar from the static season tables and
// the scraped schedule.
//
// The scraped part runs inside a failure boundary: a fetch error, an
// unparseable page or even a panic turns into a single placeholder entry,
// so a calendar is always produced. Only writing the file can fail a run.
package pipeline
