package records

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/username/bizcal/internal/calendar"
)

// fixture is the on-disk layout of a FileSource. JSON files parse too,
// since JSON is valid YAML.
type fixture struct {
	Tasks    []Task    `yaml:"tasks"`
	Projects []Project `yaml:"projects"`
}

// FileSource serves records from a local YAML or JSON file
type FileSource struct {
	filePath string
	logger   *zap.Logger

	mu     sync.RWMutex
	data   *fixture
	loaded bool
}

// NewFileSource creates a new FileSource; call Load before fetching
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
	}
}

// Load reads and parses the file, replacing anything loaded before
func (fs *FileSource) Load() error {
	raw, err := os.ReadFile(fs.filePath)
	if err != nil {
		return fmt.Errorf("failed to read records file: %w", err)
	}

	var data fixture
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse records file %s: %w", fs.filePath, err)
	}

	fs.mu.Lock()
	fs.data = &data
	fs.loaded = true
	fs.mu.Unlock()

	fs.logger.Info("Records file loaded",
		zap.String("file", fs.filePath),
		zap.Int("tasks", len(data.Tasks)),
		zap.Int("projects", len(data.Projects)))

	return nil
}

func (fs *FileSource) snapshot() (*fixture, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if !fs.loaded {
		return nil, fmt.Errorf("records file %s not loaded", fs.filePath)
	}
	return fs.data, nil
}

// FetchTasks returns tasks from the file starting inside r
func (fs *FileSource) FetchTasks(ctx context.Context, r calendar.FetchRange) ([]calendar.TaskRecord, error) {
	data, err := fs.snapshot()
	if err != nil {
		return nil, err
	}

	var out []calendar.TaskRecord
	for _, t := range data.Tasks {
		if taskInRange(t.StartDate.Millis(), r) {
			out = append(out, t.Record())
		}
	}
	return out, nil
}

// FetchProjects returns projects from the file overlapping r
func (fs *FileSource) FetchProjects(ctx context.Context, r calendar.FetchRange) ([]calendar.ProjectRecord, error) {
	data, err := fs.snapshot()
	if err != nil {
		return nil, err
	}

	var out []calendar.ProjectRecord
	for _, p := range data.Projects {
		if projectInRange(p.StartDate.Millis(), p.EndDate.Millis(), r) {
			out = append(out, p.Record())
		}
	}
	return out, nil
}
