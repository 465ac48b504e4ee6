// Package calendar renders schedule records as an iCalendar (RFC 5545) document,
// checks the result and writes it to disk.
package calendar
