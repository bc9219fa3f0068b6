package records

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TokenProvider hands out the bearer token for the upstream service.
// The token is either static or printed to stdout by an external command,
// which is re-run on an interval.
type TokenProvider struct {
	mu              sync.RWMutex
	token           string
	lastRefresh     time.Time
	refreshInterval time.Duration
	command         string
	logger          *zap.Logger
	ctx             context.Context
	cancel          context.CancelFunc
}

// NewStaticToken returns a provider that always yields token
func NewStaticToken(token string) *TokenProvider {
	ctx, cancel := context.WithCancel(context.Background())
	return &TokenProvider{
		token:  token,
		logger: zap.NewNop(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// NewCommandToken returns a provider that runs command to obtain a token
func NewCommandToken(command string, refreshInterval time.Duration, logger *zap.Logger) *TokenProvider {
	ctx, cancel := context.WithCancel(context.Background())
	return &TokenProvider{
		refreshInterval: refreshInterval,
		command:         command,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start fetches the initial token and begins background refresh.
// Static providers return immediately.
func (tp *TokenProvider) Start() error {
	if tp.command == "" {
		return nil
	}

	if err := tp.Refresh(); err != nil {
		return fmt.Errorf("failed to get initial token: %w", err)
	}

	if tp.refreshInterval > 0 {
		go tp.refreshLoop()
	}

	tp.logger.Info("Token provider started",
		zap.Duration("refresh_interval", tp.refreshInterval))

	return nil
}

// Stop stops background refresh
func (tp *TokenProvider) Stop() {
	tp.cancel()
}

// GetToken returns the current token
func (tp *TokenProvider) GetToken() (string, error) {
	tp.mu.RLock()
	defer tp.mu.RUnlock()

	if tp.token == "" {
		return "", fmt.Errorf("token not available")
	}

	return tp.token, nil
}

// GetLastRefreshTime returns the last time the token was refreshed
func (tp *TokenProvider) GetLastRefreshTime() time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.lastRefresh
}

// Refresh re-runs the token command. On failure an existing token is kept.
// Static providers have nothing to refresh.
func (tp *TokenProvider) Refresh() error {
	if tp.command == "" {
		return nil
	}

	token, err := tp.runCommand()
	if err != nil {
		tp.mu.RLock()
		hasExistingToken := tp.token != ""
		tp.mu.RUnlock()

		if hasExistingToken {
			tp.logger.Warn("Token refresh failed, continuing with existing token", zap.Error(err))
			return nil
		}

		return err
	}

	now := time.Now()

	tp.mu.Lock()
	tp.token = token
	tp.lastRefresh = now
	tp.mu.Unlock()

	tp.logger.Debug("Token refreshed", zap.Time("last_refresh", now))

	return nil
}

func (tp *TokenProvider) refreshLoop() {
	ticker := time.NewTicker(tp.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-tp.ctx.Done():
			return
		case <-ticker.C:
			if err := tp.Refresh(); err != nil {
				tp.logger.Error("Failed to refresh token in background", zap.Error(err))
			}
		}
	}
}

func (tp *TokenProvider) runCommand() (string, error) {
	parts := strings.Fields(tp.command)
	if len(parts) == 0 {
		return "", fmt.Errorf("empty token command")
	}

	ctx, cancel := context.WithTimeout(tp.ctx, 30*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, parts[0], parts[1:]...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("token command failed: %s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to execute token command: %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", fmt.Errorf("empty token received from %s", parts[0])
	}

	return token, nil
}
