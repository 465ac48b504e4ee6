// Package event provides the schedule record model and the normalization pass
// that turns scraped candidates into records.
//
// A Candidate is the raw text the scraper found for one event. Normalize resolves
// its month/day text to a year relative to a reference instant, attaches the
// source timezone, drops stale and malformed candidates, deduplicates on the
// (title, start) identity key and sorts the result by start.
package event
