package planner

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/fentz26/cadence/internal/logging"
	"github.com/fentz26/cadence/internal/metrics"
	"github.com/fentz26/cadence/internal/models"
	"github.com/fentz26/cadence/internal/store"
)

// ServerOptions configures the HTTP API.
type ServerOptions struct {
	Addr      string
	RateLimit float64 // requests per second per client; 0 disables
	Metrics   *metrics.Metrics
	Logger    *logging.Logger
}

// Server provides the HTTP API for Cadence.
type Server struct {
	service *Service
	addr    string
	echo    *echo.Echo
	metrics *metrics.Metrics
	log     *logging.Logger
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, opts ServerOptions) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	s := &Server{
		service: service,
		addr:    opts.Addr,
		echo:    e,
		metrics: opts.Metrics,
		log:     logging.OrNop(opts.Logger).WithComponent("http"),
	}
	e.HTTPErrorHandler = s.errorHandler

	s.setupMiddleware(opts.RateLimit)
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// graceful shutdown.
func (s *Server) Start() error {
	s.log.Infow("Starting Cadence API", "address", s.addr)
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down API")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware(rps float64) {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogMethod:  true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.LogHTTPRequest(v.Method, v.URI, v.Status, float64(v.Latency.Nanoseconds())/1e6, v.Error)
			return nil
		},
	}))

	if s.metrics != nil {
		s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				start := time.Now()
				err := next(c)
				if err != nil {
					c.Error(err)
				}
				s.metrics.Request(c.Request().Method, c.Path(), strconv.Itoa(c.Response().Status), time.Since(start).Seconds())
				return nil
			}
		})
	}

	if rps > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(rps),
				Burst:     int(math.Ceil(rps)),
				ExpiresIn: 3 * time.Minute,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			},
		}))
	}
}

func (s *Server) setupRoutes() {
	e := s.echo

	e.GET("/health", s.health)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	// Task endpoints
	e.POST("/tasks", s.createTask)
	e.GET("/tasks", s.listTasks)
	e.POST("/tasks/batch", s.batch)
	e.GET("/tasks/:id", s.getTask)
	e.PATCH("/tasks/:id", s.updateTask)
	e.DELETE("/tasks/:id", s.deleteTask)
	e.POST("/tasks/:id/complete", s.completeTask)
	e.POST("/tasks/:id/reopen", s.reopenTask)
	e.GET("/tasks/:id/subtasks", s.subtasks)
	e.GET("/tasks/:id/history", s.history)

	// Views
	e.GET("/views/board", s.board)
	e.GET("/views/:bucket", s.bucket)
	e.GET("/calendar", s.calendar)
	e.GET("/calendar/week", s.week)
	e.GET("/calendar/month", s.month)
	e.GET("/calendar/day/:date", s.day)
	e.GET("/timeline", s.timeline)
	e.GET("/conflicts", s.conflicts)

	// Queries
	e.POST("/query", s.query)
	e.GET("/filters", s.listFilters)
	e.POST("/filters", s.saveFilter)
	e.DELETE("/filters/:id", s.deleteFilter)
	e.GET("/filters/:id/tasks", s.runFilter)
	e.POST("/recurrence/next", s.nextOccurrences)
}

// errorHandler maps service errors onto status codes.
func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	case errors.Is(err, ErrInvalidInput), errors.Is(err, models.ErrInvalidRule):
		code = http.StatusBadRequest
	case errors.Is(err, store.ErrTaskNotFound), errors.Is(err, store.ErrFilterNotFound), errors.Is(err, ErrUnknownBucket):
		code = http.StatusNotFound
	case errors.Is(err, store.ErrFilterNameTaken):
		code = http.StatusConflict
	}

	if code == http.StatusInternalServerError {
		s.log.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		msg = http.StatusText(code)
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": msg})
	}
	if err != nil {
		s.log.Errorw("Error sending response", "error", err)
	}
}

func (s *Server) health(c echo.Context) error {
	status, code := "ok", http.StatusOK
	if err := s.service.Health(c.Request().Context()); err != nil {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]string{
		"status": status,
		"today":  s.service.Today(),
	})
}

// --- Task Handlers ---

func (s *Server) createTask(c echo.Context) error {
	var in CreateTaskInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	task, err := s.service.CreateTask(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// listTasks filters with query parameters: status, priority, tag (comma
// separated), project, area, from, to, hasDate, evening and q.
func (s *Server) listTasks(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	tasks, err := s.service.Query(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c echo.Context) error {
	task, err := s.service.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) updateTask(c echo.Context) error {
	var patch models.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return err
	}
	task, err := s.service.UpdateTask(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c echo.Context) error {
	if err := s.service.DeleteTask(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) completeTask(c echo.Context) error {
	res, err := s.service.CompleteTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) reopenTask(c echo.Context) error {
	task, err := s.service.ReopenTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) subtasks(c echo.Context) error {
	tasks, err := s.service.Subtasks(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) history(c echo.Context) error {
	limit, err := intParam(c, "limit", 50)
	if err != nil {
		return err
	}
	records, err := s.service.History(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) batch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	res, err := s.service.Batch(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// --- View Handlers ---

func (s *Server) board(c echo.Context) error {
	b, err := s.service.Board(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) bucket(c echo.Context) error {
	view, err := s.service.Bucket(c.Request().Context(), c.Param("bucket"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) calendar(c echo.Context) error {
	start, end := c.QueryParam("start"), c.QueryParam("end")
	if start == "" || end == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "start and end are required")
	}
	days, err := s.service.Calendar(c.Request().Context(), start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, days)
}

func (s *Server) week(c echo.Context) error {
	days, err := s.service.Week(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, days)
}

func (s *Server) month(c echo.Context) error {
	weeks, err := s.service.Month(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, weeks)
}

func (s *Server) day(c echo.Context) error {
	view, err := s.service.Day(c.Request().Context(), c.Param("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (s *Server) timeline(c echo.Context) error {
	days, err := intParam(c, "days", 0)
	if err != nil {
		return err
	}
	out, err := s.service.Timeline(c.Request().Context(), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) conflicts(c echo.Context) error {
	pairs, err := s.service.Conflicts(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pairs)
}

// --- Query Handlers ---

func (s *Server) query(c echo.Context) error {
	var f models.Filter
	if err := c.Bind(&f); err != nil {
		return err
	}
	tasks, err := s.service.Query(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) listFilters(c echo.Context) error {
	filters, err := s.service.ListFilters(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, filters)
}

func (s *Server) saveFilter(c echo.Context) error {
	var in SaveFilterInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	sf, err := s.service.SaveFilter(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sf)
}

func (s *Server) deleteFilter(c echo.Context) error {
	if err := s.service.DeleteFilter(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) runFilter(c echo.Context) error {
	tasks, err := s.service.RunFilter(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// NextRequest asks for a preview of upcoming occurrences.
type NextRequest struct {
	Rule  models.RecurringRule `json:"rule"`
	From  string               `json:"from"`
	Count int                  `json:"count"`
}

func (s *Server) nextOccurrences(c echo.Context) error {
	var req NextRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	dates, err := s.service.NextOccurrences(req.Rule, req.From, req.Count)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]string{"dates": dates})
}

// --- Helpers ---

func filterFromQuery(c echo.Context) (models.Filter, error) {
	var f models.Filter
	for _, st := range splitList(c.QueryParam("status")) {
		f.Status = append(f.Status, models.TaskStatus(st))
	}
	for _, p := range splitList(c.QueryParam("priority")) {
		n, err := strconv.Atoi(p)
		if err != nil {
			return f, invalidf("priority: %v", err)
		}
		f.Priority = append(f.Priority, models.Priority(n))
	}
	f.Tags = splitList(c.QueryParam("tag"))
	if c.QueryParams().Has("project") {
		f.ProjectID = models.Some(optionalRef(c.QueryParam("project")))
	}
	if c.QueryParams().Has("area") {
		f.AreaID = models.Some(optionalRef(c.QueryParam("area")))
	}
	if v := c.QueryParam("from"); v != "" {
		f.DueDateFrom = &v
	}
	if v := c.QueryParam("to"); v != "" {
		f.DueDateTo = &v
	}
	for key, dst := range map[string]**bool{"hasDate": &f.HasDate, "evening": &f.IsEvening} {
		v := c.QueryParam(key)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, invalidf("%s: %v", key, err)
		}
		*dst = &b
	}
	f.SearchQuery = c.QueryParam("q")
	return f, nil
}

// optionalRef maps an empty or "none" value to an explicit null.
func optionalRef(v string) *string {
	if v == "" || v == "none" {
		return nil
	}
	return &v
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intParam(c echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidf("%s: %v", name, err)
	}
	return n, nil
}
