package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/bizcal/internal/calendar"
	"github.com/username/bizcal/pkg/random"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetries    = 3
	defaultRetryDelay = time.Second
	retryJitter       = 20.0 // percent
)

// errBadResponse marks a response body that will not parse on retry either
var errBadResponse = errors.New("malformed response")

// Client is the HTTP client for the upstream data service
type Client struct {
	baseURL    string
	tokens     *TokenProvider
	httpClient *http.Client
	logger     *zap.Logger
	retryDelay time.Duration
}

// NewClient creates a new data service client. tokens may be nil for
// services without authentication.
func NewClient(baseURL string, tokens *TokenProvider, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:     logger,
		retryDelay: defaultRetryDelay,
	}
}

// FetchTasks returns the tasks starting inside r
func (c *Client) FetchTasks(ctx context.Context, r calendar.FetchRange) ([]calendar.TaskRecord, error) {
	var tasks []Task
	if err := c.doRequest(ctx, "/v1/tasks", rangeQuery(r), &tasks); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}

	c.logger.Debug("Tasks fetched",
		zap.Int64("from", r.FromMs),
		zap.Int64("to", r.ToMs),
		zap.Int("count", len(tasks)))

	return taskRecords(tasks), nil
}

// FetchProjects returns the projects overlapping r
func (c *Client) FetchProjects(ctx context.Context, r calendar.FetchRange) ([]calendar.ProjectRecord, error) {
	var projects []Project
	if err := c.doRequest(ctx, "/v1/projects", rangeQuery(r), &projects); err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	c.logger.Debug("Projects fetched",
		zap.Int64("from", r.FromMs),
		zap.Int64("to", r.ToMs),
		zap.Int("count", len(projects)))

	return projectRecords(projects), nil
}

func rangeQuery(r calendar.FetchRange) url.Values {
	q := url.Values{}
	q.Set("from", strconv.FormatInt(r.FromMs, 10))
	q.Set("to", strconv.FormatInt(r.ToMs, 10))
	return q
}

// doRequest performs a GET with retries
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= defaultRetries; attempt++ {
		err := c.doRequestOnce(ctx, u, result)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, errBadResponse) {
			return err
		}

		lastErr = err
		c.logger.Warn("Request failed, retrying",
			zap.String("url", u),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", defaultRetries),
			zap.Error(err))

		if attempt < defaultRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(random.Backoff(c.retryDelay, attempt, retryJitter)):
			}
		}
	}

	return fmt.Errorf("request failed after %d attempts: %w", defaultRetries, lastErr)
}

// doRequestOnce performs a single HTTP request
func (c *Client) doRequestOnce(ctx context.Context, reqURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.tokens != nil {
		token, err := c.tokens.GetToken()
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		c.logger.Warn("Unauthorized, refreshing token",
			zap.Time("last_refresh", c.tokens.GetLastRefreshTime()))
		if err := c.tokens.Refresh(); err != nil {
			c.logger.Error("Token refresh failed", zap.Error(err))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w: %v", errBadResponse, err)
		}
	}

	return nil
}
