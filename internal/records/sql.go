package records

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// MySQL/MariaDB driver, registered for database/sql
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/username/bizcal/internal/calendar"
)

const (
	maxPingRetries = 10
	maxPingBackoff = 30 * time.Second
)

const tasksQuery = `
SELECT id, title, description, start_date, start_time, end_time,
       status, priority, client_ref, assignee_ref, project_ref
FROM tasks
WHERE start_date IS NULL OR (start_date >= ? AND start_date < ?)
ORDER BY start_date, id`

const projectsQuery = `
SELECT id, name, description, start_date, end_date, status, client_ref, assignee_refs
FROM projects
WHERE start_date IS NULL OR end_date < start_date
   OR (start_date < ? AND COALESCE(end_date, start_date) >= ?)
ORDER BY start_date, id`

// SQLSource reads records from MySQL or MariaDB tables. Dates are stored
// as BIGINT epoch milliseconds; project assignees as a comma-separated list.
type SQLSource struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLSource wraps an open database handle
func NewSQLSource(db *sql.DB, logger *zap.Logger) *SQLSource {
	return &SQLSource{db: db, logger: logger}
}

// OpenMySQL opens a connection pool for dsn and pings it, retrying with
// exponential backoff while the server starts up.
func OpenMySQL(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening mysql connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	backoff := time.Second
	var pingErr error

	for attempt := 1; attempt <= maxPingRetries; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pingErr = db.PingContext(pingCtx)
		cancel()

		if pingErr == nil {
			return db, nil
		}
		if attempt == maxPingRetries {
			break
		}

		logger.Warn("Database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxPingRetries),
			zap.Duration("backoff", backoff),
			zap.Error(pingErr))

		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxPingBackoff)
	}

	db.Close()
	return nil, fmt.Errorf("pinging database after %d attempts: %w", maxPingRetries, pingErr)
}

// Close closes the underlying pool
func (s *SQLSource) Close() error {
	return s.db.Close()
}

// FetchTasks returns tasks starting inside r
func (s *SQLSource) FetchTasks(ctx context.Context, r calendar.FetchRange) ([]calendar.TaskRecord, error) {
	rows, err := s.db.QueryContext(ctx, tasksQuery, r.FromMs, r.ToMs)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var out []calendar.TaskRecord
	for rows.Next() {
		var (
			rec                                calendar.TaskRecord
			start                              sql.NullInt64
			description, startTime, endTime    sql.NullString
			status, priority                   sql.NullString
			clientRef, assigneeRef, projectRef sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &description, &start, &startTime, &endTime,
			&status, &priority, &clientRef, &assigneeRef, &projectRef); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		rec.StartDate = nullMillis(start)
		rec.Description = description.String
		rec.StartTime = startTime.String
		rec.EndTime = endTime.String
		rec.Status = status.String
		rec.Priority = priority.String
		rec.ClientRef = clientRef.String
		rec.AssigneeRef = assigneeRef.String
		rec.ProjectRef = projectRef.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}

	s.logger.Debug("Tasks loaded from database", zap.Int("count", len(out)))
	return out, nil
}

// FetchProjects returns projects overlapping r
func (s *SQLSource) FetchProjects(ctx context.Context, r calendar.FetchRange) ([]calendar.ProjectRecord, error) {
	rows, err := s.db.QueryContext(ctx, projectsQuery, r.ToMs, r.FromMs)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []calendar.ProjectRecord
	for rows.Next() {
		var (
			rec                     calendar.ProjectRecord
			start, end              sql.NullInt64
			description, status     sql.NullString
			clientRef, assigneeRefs sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Title, &description, &start, &end,
			&status, &clientRef, &assigneeRefs); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		rec.StartDate = nullMillis(start)
		rec.EndDate = nullMillis(end)
		rec.Description = description.String
		rec.Status = status.String
		rec.ClientRef = clientRef.String
		rec.AssigneeRefs = splitRefs(assigneeRefs.String)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	s.logger.Debug("Projects loaded from database", zap.Int("count", len(out)))
	return out, nil
}

func nullMillis(v sql.NullInt64) *float64 {
	if !v.Valid {
		return nil
	}
	ms := float64(v.Int64)
	return &ms
}

// splitRefs parses "u-1, u-2" into its non-empty parts
func splitRefs(s string) []string {
	var refs []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			refs = append(refs, part)
		}
	}
	return refs
}
