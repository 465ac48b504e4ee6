package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/sports-calendar/internal/calendar"
	"github.com/pfrederiksen/sports-calendar/internal/config"
	"github.com/pfrederiksen/sports-calendar/internal/event"
	"github.com/pfrederiksen/sports-calendar/internal/logger"
	"github.com/pfrederiksen/sports-calendar/internal/metrics"
	"github.com/pfrederiksen/sports-calendar/internal/pipeline"
	"github.com/pfrederiksen/sports-calendar/internal/schedule"
	"github.com/pfrederiksen/sports-calendar/internal/scraper"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagOutput  string
	flagFormat  string
	flagVerbose bool
)

// now is the reference instant for a run.
var now = time.Now

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sports-calendar",
		Short: "Generate an iCalendar file of motorsport and UFC events",
		Long: `Generates master.ics from the 2026 Formula 1, MotoGP and IndyCar seasons plus the
upcoming UFC events scraped from a public schedule page.

If the schedule page cannot be fetched, the calendar is still written with a single
"temporarily unavailable" entry in place of the UFC events.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGenerate,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&flagOutput, "output", "", "Calendar file to write (default \"master.ics\")")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Output format: text or json")

	cmd.AddCommand(newServeCmd())

	return cmd
}

// runGenerate performs one run and prints a summary
func runGenerate(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, nil)
	if err != nil {
		return err
	}

	doc, err := p.Generate(cmd.Context(), now(), cfg.Output)
	if err != nil {
		return err
	}

	result := &OutputResult{Path: cfg.Output, Document: doc}
	if err := WriteOutput(cmd.OutOrStdout(), result, format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// loadConfig applies logging flags, then loads the config file and command
// line overrides.
func loadConfig() (*config.Config, error) {
	level := logger.LevelInfo
	if flagVerbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, os.Stderr))

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if out := strings.TrimSpace(flagOutput); out != "" {
		cfg.Output = out
	}

	logger.Debug("Configuration loaded", logger.Fields{
		"config": flagConfig,
		"output": cfg.Output,
		"source": cfg.Source.URL,
	})
	return cfg, nil
}

// newPipeline wires the scraper, the season tables and the emitter.
func newPipeline(cfg *config.Config, m *metrics.Metrics) (*pipeline.Pipeline, error) {
	loc, err := cfg.SourceLocation()
	if err != nil {
		return nil, err
	}

	static, err := schedule.Load()
	if err != nil {
		return nil, fmt.Errorf("loading season tables: %w", err)
	}

	return &pipeline.Pipeline{
		Fetcher: scraper.New(
			scraper.WithURL(cfg.Source.URL),
			scraper.WithTimeout(cfg.Source.Timeout),
			scraper.WithUserAgent(cfg.Source.UserAgent),
		),
		Token: cfg.Source.Token,
		Options: event.Options{
			Location:       loc,
			Category:       cfg.Source.Category,
			RolloverMonths: cfg.Policy.RolloverMonths,
			StaleAfter:     cfg.Policy.StaleAfter,
			Duration:       cfg.Policy.EventDuration,
		},
		Static: static,
		Emitter: calendar.NewEmitter(
			calendar.WithName(cfg.Calendar.Name),
			calendar.WithTimezone(cfg.Calendar.Timezone),
		),
		Metrics: m,
	}, nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}
