// Package cli implements the command-line interface for sports-calendar.
//
// The root command generates the calendar once and prints a confirmation line
// (or a JSON summary). The serve subcommand keeps regenerating it on a cron
// schedule and publishes the latest copy over HTTP.
package cli
