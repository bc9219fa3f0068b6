package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/username/bizcal/internal/calendar"
)

// ExportState remembers what the last export wrote
type ExportState struct {
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	Digest      string `json:"digest"`
	Events      int    `json:"events"`
	Output      string `json:"output"`
	ExportedAt  string `json:"exported_at"`
}

// StateManager persists ExportState as JSON. An empty path keeps state in
// memory only.
type StateManager struct {
	stateFile string
	logger    *zap.Logger

	mu    sync.RWMutex
	state *ExportState
}

// NewStateManager creates a new state manager
func NewStateManager(stateFile string, logger *zap.Logger) *StateManager {
	return &StateManager{
		stateFile: stateFile,
		state:     &ExportState{},
		logger:    logger,
	}
}

// Load loads the export state from file
func (sm *StateManager) Load() error {
	if sm.stateFile == "" {
		return nil
	}

	data, err := os.ReadFile(sm.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Created on first save
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state ExportState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	sm.mu.Lock()
	sm.state = &state
	sm.mu.Unlock()
	sm.logger.Info("Export state loaded",
		zap.String("window_start", state.WindowStart),
		zap.String("window_end", state.WindowEnd),
		zap.String("exported_at", state.ExportedAt))

	return nil
}

// Save saves the export state to file
func (sm *StateManager) Save() error {
	if sm.stateFile == "" {
		return nil
	}

	sm.mu.RLock()
	data, err := json.MarshalIndent(sm.state, "", "  ")
	sm.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(sm.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// IsUnchanged reports whether output already holds this window and digest
func (sm *StateManager) IsUnchanged(w calendar.Window, digest, output string) bool {
	s := sm.GetCurrentState()
	if s.Digest != digest || s.Output != output {
		return false
	}
	if s.WindowStart != w.Start.String() || s.WindowEnd != w.End.String() {
		return false
	}
	_, err := os.Stat(output)
	return err == nil
}

// Record stores a finished export and saves it
func (sm *StateManager) Record(w calendar.Window, digest, output string, events int, at time.Time) error {
	sm.mu.Lock()
	sm.state = &ExportState{
		WindowStart: w.Start.String(),
		WindowEnd:   w.End.String(),
		Digest:      digest,
		Events:      events,
		Output:      output,
		ExportedAt:  at.Format(time.RFC3339),
	}
	sm.mu.Unlock()
	return sm.Save()
}

// GetCurrentState returns a copy of the current state
func (sm *StateManager) GetCurrentState() ExportState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return *sm.state
}
