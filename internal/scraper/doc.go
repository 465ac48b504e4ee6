// Package scraper fetches a public MMA schedule page and extracts candidate events from it.
//
// The page is meant for people, not programs, so extraction is a tolerant scan over the
// page's visible text: a candidate is a date, a start time and an event name found close
// together, optionally followed by a venue line. Only the event name is required to carry
// the series token (for example "UFC"). A page that no longer looks like a schedule simply
// yields no candidates.
package scraper
