// Package daemon re-exports the current calendar view to an .ics file on a
// cron schedule.
package daemon

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/username/bizcal/internal/agenda"
	"github.com/username/bizcal/internal/calendar"
	"github.com/username/bizcal/internal/export"
	"github.com/username/bizcal/pkg/dateutil"
)

const defaultExportTimeout = 2 * time.Minute

// Options configures a Daemon
type Options struct {
	Schedule    string // standard 5-field cron spec or @descriptor
	Granularity calendar.Granularity
	Output      string
	CalName     string
	Location    *time.Location
}

// Daemon represents the daemon process
type Daemon struct {
	agenda        *agenda.Service
	state         *StateManager
	opts          Options
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	cron          *cron.Cron
	now           func() time.Time
	lastRunTime   time.Time
	mu            sync.Mutex // guards exportRunning and lastRunTime
	exportRunning bool
	wg            sync.WaitGroup
}

// NewDaemon creates a new daemon instance
func NewDaemon(svc *agenda.Service, state *StateManager, opts Options, logger *zap.Logger) *Daemon {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		agenda: svc,
		state:  state,
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		cron:   cron.New(cron.WithLocation(opts.Location)),
		now:    time.Now,
	}
}

// Start runs one export immediately, then on schedule until Stop or
// SIGINT/SIGTERM. It blocks.
func (d *Daemon) Start() error {
	if _, err := d.cron.AddFunc(d.opts.Schedule, d.runScheduled); err != nil {
		return fmt.Errorf("invalid export schedule %q: %w", d.opts.Schedule, err)
	}
	if err := d.state.Load(); err != nil {
		return err
	}

	d.logger.Info("Daemon started",
		zap.String("schedule", d.opts.Schedule),
		zap.String("granularity", string(d.opts.Granularity)),
		zap.String("output", d.opts.Output),
		zap.String("timezone", d.opts.Location.String()))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.runScheduled()
	}()
	d.cron.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-d.ctx.Done():
	case sig := <-sigChan:
		d.logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		d.cancel()
	}

	// Wait for running exports to finish
	<-d.cron.Stop().Done()
	d.wg.Wait()
	d.logger.Info("Daemon stopped")
	return nil
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) runScheduled() {
	if err := d.ExportNow(); err != nil {
		d.logger.Error("Scheduled export failed", zap.Error(err))
	}
}

// ExportNow exports the view anchored at today. Concurrent calls are
// rejected, and an export identical to the last one is skipped.
func (d *Daemon) ExportNow() error {
	d.mu.Lock()
	if d.exportRunning {
		d.mu.Unlock()
		d.logger.Warn("Export already running, skipping concurrent execution")
		return fmt.Errorf("export already in progress")
	}
	d.exportRunning = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.exportRunning = false
		d.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(d.ctx, defaultExportTimeout)
	defer cancel()

	now := d.now()
	today := dateutil.FromTime(now.In(d.opts.Location))

	view, err := d.agenda.Build(ctx, d.opts.Granularity, today, today)
	if err != nil {
		return fmt.Errorf("failed to build view: %w", err)
	}

	digest, err := digestEvents(view.Events)
	if err != nil {
		return err
	}

	if d.state.IsUnchanged(view.Window, digest, d.opts.Output) {
		d.logger.Info("Calendar unchanged, skipping export",
			zap.Stringer("window", view.Window),
			zap.Int("events", len(view.Events)))
		d.markRun(now)
		return nil
	}

	if err := export.WriteFile(d.opts.Output, view.Events, export.Options{Name: d.opts.CalName, Now: now}); err != nil {
		return err
	}
	if err := d.state.Record(view.Window, digest, d.opts.Output, len(view.Events), now); err != nil {
		return err
	}
	d.markRun(now)

	d.logger.Info("Export completed",
		zap.String("output", d.opts.Output),
		zap.Stringer("window", view.Window),
		zap.Int("events", len(view.Events)),
		zap.Int("skipped", len(view.Skipped)))

	return nil
}

func (d *Daemon) markRun(at time.Time) {
	d.mu.Lock()
	d.lastRunTime = at
	d.mu.Unlock()
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := map[string]interface{}{
		"schedule":  d.opts.Schedule,
		"output":    d.opts.Output,
		"exporting": d.exportRunning,
	}
	if !d.lastRunTime.IsZero() {
		status["last_run"] = d.lastRunTime.Format(time.RFC3339)
	}
	if entries := d.cron.Entries(); len(entries) > 0 && !entries[0].Next.IsZero() {
		status["next_run"] = entries[0].Next.Format(time.RFC3339)
	}
	if st := d.state.GetCurrentState(); st.ExportedAt != "" {
		status["last_export"] = st
	}
	return status
}

// digestEvents fingerprints the exported content, ignoring DTSTAMP
func digestEvents(events []calendar.Event) (string, error) {
	data, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("failed to hash events: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
