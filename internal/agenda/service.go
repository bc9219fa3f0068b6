// Package agenda assembles calendar views: it computes the window, fetches
// raw records for it, normalizes them and lays them out.
package agenda

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/username/bizcal/internal/calendar"
	"github.com/username/bizcal/internal/records"
	"github.com/username/bizcal/pkg/dateutil"
)

// Service builds views from a record source
type Service struct {
	source    records.Source
	weekStart time.Weekday
	logger    *zap.Logger
}

// NewService creates a new agenda service
func NewService(source records.Source, weekStart time.Weekday, logger *zap.Logger) *Service {
	return &Service{
		source:    source,
		weekStart: weekStart,
		logger:    logger,
	}
}

// WeekStart returns the configured first day of the week
func (s *Service) WeekStart() time.Weekday {
	return s.weekStart
}

// Window computes the visible window for anchor at granularity g
func (s *Service) Window(g calendar.Granularity, anchor dateutil.Date) calendar.Window {
	return calendar.ComputeWindow(anchor, g, s.weekStart)
}

// Build fetches and lays out the view of granularity g around anchor.
// today only drives highlighting.
func (s *Service) Build(ctx context.Context, g calendar.Granularity, anchor, today dateutil.Date) (*View, error) {
	w := s.Window(g, anchor)

	events, skipped, err := s.Events(ctx, w)
	if err != nil {
		return nil, err
	}

	view := &View{
		Granularity: g,
		Anchor:      anchor,
		Today:       today,
		Window:      w,
		Events:      calendar.Filter(events, w),
	}

	groups := calendar.GroupByDay(events, w)
	for _, d := range w.Dates() {
		view.Days = append(view.Days, Day{
			Date:      d,
			IsToday:   calendar.IsToday(d, today),
			InMonth:   g != calendar.GranularityMonth || (d.Year == anchor.Year && d.Month == anchor.Month),
			IsWeekend: d.IsWeekend(),
			Events:    groups[d],
		})
	}

	if g != calendar.GranularityMonth {
		view.Bars = calendar.LayoutBars(events, w)
	}

	for _, err := range skipped {
		view.Skipped = append(view.Skipped, err.Error())
	}

	s.logger.Info("View built",
		zap.String("granularity", string(g)),
		zap.Stringer("window", w),
		zap.Int("events", len(view.Events)),
		zap.Int("skipped", len(skipped)))

	return view, nil
}

// Events fetches tasks and projects for w concurrently and normalizes them,
// tasks first. Malformed records are logged and returned separately.
func (s *Service) Events(ctx context.Context, w calendar.Window) ([]calendar.Event, []error, error) {
	r := w.FetchRange()

	var (
		tasks    []calendar.TaskRecord
		projects []calendar.ProjectRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.source.FetchTasks(gctx, r)
		return err
	})
	g.Go(func() error {
		var err error
		projects, err = s.source.FetchProjects(gctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch records for %s: %w", w, err)
	}

	raw := append(calendar.Tasks(tasks), calendar.Projects(projects)...)
	events, skipped := calendar.NormalizeAll(raw)

	for _, err := range skipped {
		s.logger.Warn("Skipping malformed record", zap.Error(err))
	}

	return events, skipped, nil
}
