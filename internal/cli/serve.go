package cli

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/sports-calendar/internal/config"
	"github.com/pfrederiksen/sports-calendar/internal/logger"
	"github.com/pfrederiksen/sports-calendar/internal/metrics"
	"github.com/pfrederiksen/sports-calendar/internal/pipeline"
	"github.com/pfrederiksen/sports-calendar/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Regenerate the calendar on a schedule and serve it over HTTP",
		Long: `Generates the calendar once, then again on the configured cron schedule
(serve.refresh, default every six hours). The latest calendar is served at
/calendar.ics, with /healthz and /metrics alongside.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := metrics.New()
	p, err := newPipeline(cfg, m)
	if err != nil {
		return err
	}
	srv := server.New(m)

	ctx := cmd.Context()
	refresh := newRefresher(ctx, cfg, p, srv)

	// the first calendar is generated before the server starts listening
	refresh()

	cronLog := cron.PrintfLogger(logger.Default())
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc(cfg.Serve.Refresh, refresh); err != nil {
		return fmt.Errorf("scheduling refresh: %w", err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	logger.Info("Serving calendar", logger.Fields{
		"listen":  cfg.Serve.Listen,
		"refresh": cfg.Serve.Refresh,
		"output":  cfg.Output,
	})
	return srv.Run(ctx, cfg.Serve.Listen)
}

// newRefresher returns the job run on every tick: one synchronous generation
// whose result, when written, replaces the served calendar.
func newRefresher(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, srv *server.Server) func() {
	return func() {
		doc, err := p.Generate(ctx, now(), cfg.Output)
		if err != nil {
			logger.Error("Calendar generation failed", logger.Fields{"output": cfg.Output}, err)
			return
		}
		srv.Publish(doc)
	}
}
