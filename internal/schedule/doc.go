// Package schedule holds the fixed 2026 season tables for the motorsport
// series in the calendar. The tables are embedded YAML and decode into
// event records.
package schedule
