package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/sports-calendar/internal/calendar"
	"github.com/pfrederiksen/sports-calendar/internal/event"
	"github.com/pfrederiksen/sports-calendar/internal/scraper"
)

const (
	DefaultOutput   = "master.ics"
	DefaultToken    = "UFC"
	DefaultCategory = "UFC"
	DefaultListen   = "127.0.0.1:8080"
	DefaultRefresh  = "0 */6 * * *"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// SourceConfig describes the scraped schedule page.
type SourceConfig struct {
	// URL is the schedule page fetched once per run.
	URL string `yaml:"url" validate:"required,http_url"`
	// Token must appear in an event name for it to be kept (e.g. "UFC").
	Token string `yaml:"token" validate:"required"`
	// Category tags every record from this source.
	Category string `yaml:"category" validate:"required"`
	// Timezone is the zone the page's times are written in.
	Timezone  string        `yaml:"timezone" validate:"required,timezone"`
	UserAgent string        `yaml:"user_agent" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
}

// PolicyConfig holds the normalizer's tunables.
type PolicyConfig struct {
	// RolloverMonths is how far a month may precede the current one before
	// it is read as next year's.
	RolloverMonths int           `yaml:"rollover_months" validate:"gte=1,lte=11"`
	StaleAfter     time.Duration `yaml:"stale_after" validate:"gt=0"`
	EventDuration  time.Duration `yaml:"event_duration" validate:"gt=0"`
}

// CalendarConfig controls the document header.
type CalendarConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Timezone string `yaml:"timezone" validate:"required,timezone"`
}

// ServeConfig is only used by the serve command.
type ServeConfig struct {
	Listen string `yaml:"listen" validate:"required,hostname_port"`
	// Refresh is a standard five-field cron expression.
	Refresh string `yaml:"refresh" validate:"required"`
}

// Config is the top-level application configuration.
type Config struct {
	Output   string         `yaml:"output" validate:"required"`
	Source   SourceConfig   `yaml:"source"`
	Policy   PolicyConfig   `yaml:"policy"`
	Calendar CalendarConfig `yaml:"calendar"`
	Serve    ServeConfig    `yaml:"serve"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: DefaultOutput,
		Source: SourceConfig{
			URL:       scraper.ScheduleURL,
			Token:     DefaultToken,
			Category:  DefaultCategory,
			Timezone:  calendar.DefaultTimezone,
			UserAgent: scraper.UserAgent,
			Timeout:   scraper.Timeout,
		},
		Policy: PolicyConfig{
			RolloverMonths: event.DefaultRolloverMonths,
			StaleAfter:     event.DefaultStaleAfter,
			EventDuration:  event.DefaultDuration,
		},
		Calendar: CalendarConfig{
			Name:     calendar.DefaultName,
			Timezone: calendar.DefaultTimezone,
		},
		Serve: ServeConfig{
			Listen:  DefaultListen,
			Refresh: DefaultRefresh,
		},
	}
}

// Normalize fills in zero values with defaults so that partially-filled
// files still behave correctly.
func (c *Config) Normalize() {
	d := Default()

	c.Output = strings.TrimSpace(c.Output)
	if c.Output == "" {
		c.Output = d.Output
	}

	setString(&c.Source.URL, d.Source.URL)
	setString(&c.Source.Token, d.Source.Token)
	setString(&c.Source.Category, d.Source.Category)
	setString(&c.Source.Timezone, d.Source.Timezone)
	setString(&c.Source.UserAgent, d.Source.UserAgent)
	if c.Source.Timeout == 0 {
		c.Source.Timeout = d.Source.Timeout
	}

	if c.Policy.RolloverMonths == 0 {
		c.Policy.RolloverMonths = d.Policy.RolloverMonths
	}
	if c.Policy.StaleAfter == 0 {
		c.Policy.StaleAfter = d.Policy.StaleAfter
	}
	if c.Policy.EventDuration == 0 {
		c.Policy.EventDuration = d.Policy.EventDuration
	}

	setString(&c.Calendar.Name, d.Calendar.Name)
	setString(&c.Calendar.Timezone, d.Calendar.Timezone)
	setString(&c.Serve.Listen, d.Serve.Listen)
	setString(&c.Serve.Refresh, d.Serve.Refresh)
}

func setString(dst *string, def string) {
	*dst = strings.TrimSpace(*dst)
	if *dst == "" {
		*dst = def
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the refresh schedule.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := cron.ParseStandard(c.Serve.Refresh); err != nil {
		return fmt.Errorf("%w: serve.refresh: %v", ErrInvalid, err)
	}
	return nil
}

// Load reads the YAML file at path over the defaults, then normalizes and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SourceLocation returns the timezone the source page is written in.
func (c *Config) SourceLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Source.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading source timezone: %w", err)
	}
	return loc, nil
}
