// =============================================================================
// Tariff Reconciler - HTTP Server
// =============================================================================
//
// This module exposes the application service over HTTP.
//
// ROUTES:
//   GET    /healthz                         liveness and session state
//   GET    /metrics                         Prometheus metrics
//   POST   /api/v1/reconcile                multipart: reference, governing, mode
//   GET    /api/v1/status                   busy flag and progress
//   GET    /api/v1/result                   current result (?filter=&format=)
//   GET    /api/v1/history                  history entries (?mode=)
//   GET    /api/v1/history/:id              one entry with its result
//   POST   /api/v1/history/:id/restore      make an entry the current result
//   DELETE /api/v1/history?confirm=true     clear history
//   GET    /api/v1/templates/:mode/:side    example input file
//
// STATUS CODES:
//   409 a run is in progress, 422 the input files cannot be reconciled,
//   404 unknown entry or no current result, 400 bad parameters.
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/tariff-reconciler/internal/app"
	"github.com/ginjaninja78/tariff-reconciler/internal/engine"
	"github.com/ginjaninja78/tariff-reconciler/internal/export"
	"github.com/ginjaninja78/tariff-reconciler/internal/history"
	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// Server implements the HTTP API.
type Server struct {
	router *gin.Engine
	svc    *app.Service
	logger zerolog.Logger
	addr   string
}

// New creates a Server for svc listening on addr.
func New(svc *app.Service, logger zerolog.Logger, addr string) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
		addr:   addr,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.GET("/healthz", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(s.svc.Metrics().Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/reconcile", s.reconcile)
		v1.GET("/status", s.status)
		v1.GET("/result", s.result)

		hist := v1.Group("/history")
		{
			hist.GET("", s.listHistory)
			hist.DELETE("", s.clearHistory)
			hist.GET("/:id", s.getHistory)
			hist.POST("/:id/restore", s.restoreHistory)
		}

		v1.GET("/templates/:mode/:side", s.template)
	}
}

// loggingMiddleware logs every request and counts it by route and status.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.svc.Metrics().HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()

		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"busy":      s.svc.Session().Busy(),
	})
}

func (s *Server) status(c *gin.Context) {
	sess := s.svc.Session()
	c.JSON(http.StatusOK, gin.H{
		"busy":      sess.Busy(),
		"progress":  sess.Progress(),
		"hasResult": sess.Current() != nil,
	})
}

// reconcile runs a reconciliation on two uploaded files and returns the
// summary. The run completes before the response is sent.
func (s *Server) reconcile(c *gin.Context) {
	maxBytes := s.svc.Config().Server.MaxUploadMB << 20
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	mode, err := types.ParseMode(c.PostForm("mode"))
	if err != nil {
		s.fail(c, err)
		return
	}

	reference, closeRef, err := formInput(c, "reference")
	if err != nil {
		s.badRequest(c, err)
		return
	}
	defer closeRef()

	governing, closeGov, err := formInput(c, "governing")
	if err != nil {
		s.badRequest(c, err)
		return
	}
	defer closeGov()

	skipHistory, _ := strconv.ParseBool(c.PostForm("no_history"))

	run, err := s.svc.Reconcile(c.Request.Context(), app.RunRequest{
		Mode:        mode,
		Reference:   reference,
		Governing:   governing,
		SkipHistory: skipHistory,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := gin.H{
		"mode":      run.Result.Mode,
		"summary":   run.Result.Summary,
		"stats":     run.Result.Stats,
		"elapsedMs": run.Elapsed.Milliseconds(),
	}
	if run.Entry != nil {
		resp["historyId"] = run.Entry.ID
	}
	if run.HistoryError != nil {
		resp["historyError"] = run.HistoryError.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// result serves the current result. Without format it returns JSON; csv and
// xlsx are sent as attachments.
func (s *Server) result(c *gin.Context) {
	current, err := s.svc.Current()
	if err != nil {
		s.fail(c, err)
		return
	}
	s.writeResult(c, current)
}

func (s *Server) writeResult(c *gin.Context, result *report.Result) {
	category, err := types.ParseCategory(c.Query("filter"))
	if err != nil {
		s.badRequest(c, err)
		return
	}

	format := export.FormatJSON
	if q := c.Query("format"); q != "" {
		if format, err = export.ParseFormat(q); err != nil {
			s.badRequest(c, err)
			return
		}
	}

	if format != export.FormatJSON {
		name := export.ReportName(s.svc.Config().ReportNameFormat, result.Mode, category, format)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)

	if err := export.Write(c.Writer, format, result, category); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write result")
	}
}

// entryDTO is a history entry without its result body.
type entryDTO struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	ReferenceFile string         `json:"referenceFile"`
	GoverningFile string         `json:"governingFile"`
	Mode          types.Mode     `json:"mode"`
	Summary       report.Summary `json:"summary"`
}

func toEntryDTO(e history.Entry) entryDTO {
	dto := entryDTO{
		ID:            e.ID,
		Timestamp:     e.Timestamp,
		ReferenceFile: e.ReferenceFile,
		GoverningFile: e.GoverningFile,
		Mode:          e.EffectiveMode(),
	}
	if e.Result != nil {
		dto.Summary = e.Result.Summary
	}
	return dto
}

func (s *Server) listHistory(c *gin.Context) {
	var mode types.Mode
	if q := c.Query("mode"); q != "" {
		m, err := types.ParseMode(q)
		if err != nil {
			s.badRequest(c, err)
			return
		}
		mode = m
	}

	entries, err := s.svc.History().List(c.Request.Context(), mode)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	c.JSON(http.StatusOK, gin.H{"entries": out, "count": len(out)})
}

func (s *Server) getHistory(c *gin.Context) {
	entry, err := s.svc.History().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if entry.Result == nil {
		s.fail(c, fmt.Errorf("history entry %s has no result: %w", entry.ID, types.ErrNotFound))
		return
	}
	s.writeResult(c, entry.Result)
}

func (s *Server) restoreHistory(c *gin.Context) {
	entry, err := s.svc.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toEntryDTO(entry))
}

func (s *Server) clearHistory(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := s.svc.History().Clear(c.Request.Context(), confirmed); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "History cleared"})
}

func (s *Server) template(c *gin.Context) {
	mode, err := types.ParseMode(c.Param("mode"))
	if err != nil {
		s.fail(c, err)
		return
	}
	side, err := types.ParseSide(c.Param("side"))
	if err != nil {
		s.badRequest(c, err)
		return
	}

	tmpl, err := export.TemplateFor(mode, side)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tmpl.Name))
	c.Data(http.StatusOK, export.FormatCSV.ContentType(), []byte(tmpl.Content))
}

// =============================================================================
// HELPERS
// =============================================================================

// formInput opens an uploaded file as an engine input.
func formInput(c *gin.Context, field string) (engine.Input, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return engine.Input{}, nil, fmt.Errorf("missing %s file: %w", field, err)
	}

	var f multipart.File
	if f, err = header.Open(); err != nil {
		return engine.Input{}, nil, fmt.Errorf("failed to open %s file: %w", field, err)
	}

	return engine.Input{Name: header.Filename, Reader: f, Size: header.Size}, func() { f.Close() }, nil
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, types.ErrUnknownMode):
		return http.StatusBadRequest
	case app.IsInputError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNotConfirmed):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
