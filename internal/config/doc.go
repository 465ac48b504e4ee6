// Package config loads the optional YAML configuration file.
//
// Every setting has a default, so running without a file reproduces the
// standard behaviour: scrape the UFC schedule, interpret its times in
// America/New_York and write master.ics.
package config
