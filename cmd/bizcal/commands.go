package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/username/bizcal/internal/agenda"
	"github.com/username/bizcal/internal/calendar"
	"github.com/username/bizcal/internal/config"
	"github.com/username/bizcal/internal/daemon"
	"github.com/username/bizcal/internal/export"
	"github.com/username/bizcal/internal/server"
	"github.com/username/bizcal/pkg/dateutil"
)

// resolveAnchor parses --date, defaulting to today in the configured zone
func resolveAnchor(cfg *config.Config, date string) (anchor, today dateutil.Date, err error) {
	today = dateutil.Today(cfg.Calendar.GetLocation())
	if date == "" {
		return today, today, nil
	}
	anchor, err = dateutil.Parse(date)
	if err != nil {
		return dateutil.Date{}, dateutil.Date{}, err
	}
	return anchor, today, nil
}

func windowCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "window <month|week|day>",
		Short: "Print the date window and fetch range for a view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := calendar.ParseGranularity(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			anchor, _, err := resolveAnchor(cfg, date)
			if err != nil {
				return err
			}

			closeOut, err := openOutput()
			if err != nil {
				return err
			}
			defer closeOut()

			weekStart := cfg.Calendar.GetWeekStart()
			w := calendar.ComputeWindow(anchor, g, weekStart)
			r := w.FetchRange()

			outPrintf("%s window for %s (week starts %s)\n", g, anchor, weekStart)
			outPrintf("   • Dates: %s (%d days)\n", w, w.Days())
			outPrintf("   • Fetch: from=%d to=%d\n", r.FromMs, r.ToMs)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Anchor date YYYY-MM-DD (default today)")

	return cmd
}

func showCmd() *cobra.Command {
	var (
		date    string
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "show <month|week|day>",
		Short: "Show tasks and projects for a month, week or day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := calendar.ParseGranularity(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			anchor, today, err := resolveAnchor(cfg, date)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, cleanup, err := initializeService(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			view, err := svc.Build(ctx, g, anchor, today)
			if err != nil {
				return fmt.Errorf("failed to build %s view: %w", g, err)
			}

			closeOut, err := openOutput()
			if err != nil {
				return err
			}
			defer closeOut()

			if asJSON {
				enc := json.NewEncoder(outWriter)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			renderView(outWriter, view, svc.WeekStart(), verbose)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Anchor date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include descriptions and assignees")

	return cmd
}

func exportCmd() *cobra.Command {
	var (
		date        string
		granularity string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the events of one window as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			g := cfg.Export.GetGranularity()
			if granularity != "" {
				if g, err = calendar.ParseGranularity(granularity); err != nil {
					return err
				}
			}
			if output == "" {
				output = cfg.Export.Output
			}

			anchor, _, err := resolveAnchor(cfg, date)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			svc, cleanup, err := initializeService(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			w := svc.Window(g, anchor)
			events, skipped, err := windowEvents(ctx, svc, w)
			if err != nil {
				return err
			}

			opts := export.Options{Name: cfg.Export.Name}
			if output == "-" {
				return export.Write(os.Stdout, events, opts)
			}
			if err := export.WriteFile(output, events, opts); err != nil {
				return err
			}

			closeOut, err := openOutput()
			if err != nil {
				return err
			}
			defer closeOut()

			logger.Info("Exported calendar",
				zap.String("window", w.String()),
				zap.Int("events", len(events)),
				zap.Int("skipped", len(skipped)),
				zap.String("output", output))
			outPrintf("✅ Exported %d event(s) for %s to %s\n", len(events), w, output)
			if len(skipped) > 0 {
				outPrintf("⚠️  Skipped %d malformed record(s)\n", len(skipped))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Anchor date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "month, week or day (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output .ics path, - for stdout (default from config)")

	return cmd
}

// windowEvents fetches the events of w, dropping anything the source
// returned from outside it
func windowEvents(ctx context.Context, svc *agenda.Service, w calendar.Window) ([]calendar.Event, []error, error) {
	events, skipped, err := svc.Events(ctx, w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return calendar.Filter(events, w), skipped, nil
}

func serveCmd() *cobra.Command {
	var (
		listen     string
		withExport bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve calendar views as JSON and iCalendar over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, cleanup, err := initializeService(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(svc, cfg.Calendar.GetLocation(), cfg.Export.Name, logger)

			if withExport {
				d := newDaemon(cfg, svc)
				srv.SetStatusProvider(d.GetStatus)

				done := make(chan struct{})
				go func() {
					defer close(done)
					if err := d.Start(); err != nil {
						logger.Error("Scheduled export stopped", zap.Error(err))
					}
				}()
				defer func() {
					d.Stop()
					<-done
				}()
			}

			return srv.Run(ctx, listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&withExport, "export", false, "Also run the scheduled .ics export and report it on /api/status")

	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run in daemon mode, re-exporting the calendar on a cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			svc, cleanup, err := initializeService(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			return newDaemon(cfg, svc).Start()
		},
	}
}

func newDaemon(cfg *config.Config, svc *agenda.Service) *daemon.Daemon {
	state := daemon.NewStateManager(cfg.Export.StateFile, logger)
	return daemon.NewDaemon(svc, state, daemon.Options{
		Schedule:    cfg.Export.Schedule,
		Granularity: cfg.Export.GetGranularity(),
		Output:      cfg.Export.Output,
		CalName:     cfg.Export.Name,
		Location:    cfg.Calendar.GetLocation(),
	}, logger)
}
