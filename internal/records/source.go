// Package records fetches raw tasks and projects from the upstream data
// service, a local fixture file, or a MySQL database.
package records

import (
	"context"

	"github.com/username/bizcal/internal/calendar"
)

// Source supplies raw records for a fetch range
type Source interface {
	FetchTasks(ctx context.Context, r calendar.FetchRange) ([]calendar.TaskRecord, error)
	FetchProjects(ctx context.Context, r calendar.FetchRange) ([]calendar.ProjectRecord, error)
}
