// Package server exposes calendar views over HTTP as JSON and iCalendar.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/username/bizcal/internal/agenda"
	"github.com/username/bizcal/internal/calendar"
	"github.com/username/bizcal/internal/export"
	"github.com/username/bizcal/pkg/dateutil"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP surface for downstream renderers
type Server struct {
	echo     *echo.Echo
	agenda   *agenda.Service
	location *time.Location
	calName  string
	logger   *zap.Logger
	now      func() time.Time
	status   func() map[string]interface{}
}

// New creates the server and registers its routes. loc decides what
// "today" is when a request does not say.
func New(svc *agenda.Service, loc *time.Location, calName string, logger *zap.Logger) *Server {
	if loc == nil {
		loc = time.Local
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		agenda:   svc,
		location: loc,
		calName:  calName,
		logger:   logger,
		now:      time.Now,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("Request handled",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/healthz", s.handleHealth)
	e.GET("/api/status", s.handleStatus)
	api := e.Group("/api/calendar")
	api.GET("/:granularity", s.handleView)
	api.GET("/:granularity/ics", s.handleICS)

	return s
}

// SetStatusProvider publishes fn's result under "export" on /api/status
func (s *Server) SetStatusProvider(fn func() map[string]interface{}) {
	s.status = fn
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(c echo.Context) error {
	body := map[string]interface{}{
		"status":     "ok",
		"week_start": s.agenda.WeekStart().String(),
		"export":     "disabled",
	}
	if s.status != nil {
		body["export"] = s.status()
	}
	return c.JSON(http.StatusOK, body)
}

func (s *Server) handleView(c echo.Context) error {
	view, err := s.buildView(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleICS(c echo.Context) error {
	view, err := s.buildView(c)
	if err != nil {
		return err
	}

	body := export.Calendar(view.Events, export.Options{Name: s.calName, Now: s.now()}).Serialize()
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`inline; filename="%s-%s.ics"`, view.Granularity, view.Anchor))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// buildView reads granularity, date and today from the request
func (s *Server) buildView(c echo.Context) (*agenda.View, error) {
	g, err := calendar.ParseGranularity(c.Param("granularity"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	today := dateutil.FromTime(s.now().In(s.location))
	if raw := c.QueryParam("today"); raw != "" {
		if today, err = dateutil.Parse(raw); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "today: "+err.Error())
		}
	}

	anchor := today
	if raw := c.QueryParam("date"); raw != "" {
		if anchor, err = dateutil.Parse(raw); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "date: "+err.Error())
		}
	}

	view, err := s.agenda.Build(c.Request().Context(), g, anchor, today)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadGateway, "failed to load calendar").SetInternal(err)
	}
	return view, nil
}

// errorHandler renders every error as {"error": message}
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
		if echoErr.Internal != nil {
			err = echoErr.Internal
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", code),
			zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": message})
	}
	if err != nil {
		s.logger.Error("Failed to write error response", zap.Error(err))
	}
}
