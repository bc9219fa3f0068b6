package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/username/bizcal/internal/calendar"
)

// CompositeSource implements Source with fallback strategy
// Primary: the data service (HTTP or MySQL)
// Fallback: FileSource (local file)
type CompositeSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback Source, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// FetchTasks tries the primary source, then the fallback
func (cs *CompositeSource) FetchTasks(ctx context.Context, r calendar.FetchRange) ([]calendar.TaskRecord, error) {
	tasks, err := cs.primary.FetchTasks(ctx, r)
	if err == nil {
		return tasks, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	cs.logger.Warn("Primary source failed, falling back to file",
		zap.String("records", "tasks"),
		zap.Error(err))

	return cs.fallback.FetchTasks(ctx, r)
}

// FetchProjects tries the primary source, then the fallback
func (cs *CompositeSource) FetchProjects(ctx context.Context, r calendar.FetchRange) ([]calendar.ProjectRecord, error) {
	projects, err := cs.primary.FetchProjects(ctx, r)
	if err == nil {
		return projects, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	cs.logger.Warn("Primary source failed, falling back to file",
		zap.String("records", "projects"),
		zap.Error(err))

	return cs.fallback.FetchProjects(ctx, r)
}

// LoadFallback loads the fallback source (if FileSource)
func (cs *CompositeSource) LoadFallback() error {
	if fs, ok := cs.fallback.(*FileSource); ok {
		if err := fs.Load(); err != nil {
			return fmt.Errorf("failed to load fallback records: %w", err)
		}
	}
	return nil
}
