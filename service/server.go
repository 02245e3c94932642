package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thecodereport/tcdr/domain"
)

// Messages returned when no dashboard can be served
const (
	dashboardNotFoundMessage = "dashboard artifact not found. Run `tcdr run` to collect coverage."
	dashboardInvalidMessage  = "dashboard artifact is invalid JSON."
	runInProgressMessage     = "a test run is already in progress"
	runDisabledMessage       = "run-all is disabled for this dashboard"
)

const defaultPageSize = 50

// DashboardSource builds the dashboard from the current coverage report
type DashboardSource func(ctx context.Context) (*domain.DashboardContent, error)

// DashboardServer serves the dashboard page, its JSON content, CSV export and
// the run-all trigger. The content is rebuilt after every run.
type DashboardServer struct {
	source  DashboardSource
	runner  domain.TestRunner
	logger  *slog.Logger
	metrics *ServerMetrics

	mu       sync.RWMutex
	content  *domain.DashboardContent
	loadErr  error
	loadedAt time.Time

	running  atomic.Bool
	pageSize int
	now      func() time.Time
}

// RowsPage is one page of the flattened explorer served by GET /rows
type RowsPage struct {
	Rows       []PageRow `json:"rows"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
	TotalRows  int       `json:"totalRows"`
}

// PageRow is an explorer row with its depth; children are not included
type PageRow struct {
	Depth int `json:"depth"`
	domain.CoverageRow
}

// NewDashboardServer creates a server. A nil runner disables run-all; a nil
// logger discards logs.
func NewDashboardServer(source DashboardSource, runner domain.TestRunner, logger *slog.Logger) *DashboardServer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DashboardServer{
		source:   source,
		runner:   runner,
		logger:   logger,
		metrics:  NewServerMetrics(),
		pageSize: defaultPageSize,
		now:      time.Now,
	}
}

// SetPageSize sets the default page size of GET /rows; n <= 0 is ignored
func (s *DashboardServer) SetPageSize(n int) {
	if n > 0 {
		s.pageSize = n
	}
}

// Metrics returns the server's Prometheus collectors
func (s *DashboardServer) Metrics() *ServerMetrics {
	return s.metrics
}

// Reload rebuilds the dashboard from the source. On failure the previous
// content is dropped so that clients see the error.
func (s *DashboardServer) Reload(ctx context.Context) error {
	content, err := s.source(ctx)
	if err == nil && content == nil {
		err = domain.NewFileNotFoundError("coverage report", nil)
	}
	if err == nil {
		content.AllowRunAll = content.AllowRunAll && s.runner != nil
	}

	s.mu.Lock()
	if err != nil {
		s.content = nil
		s.loadErr = err
	} else {
		s.content = content
		s.loadErr = nil
		s.loadedAt = s.now()
	}
	s.mu.Unlock()

	s.metrics.observeReload(content, err)
	if err != nil {
		s.logger.Warn("dashboard reload failed", "error", err)
	} else {
		s.logger.Info("dashboard reloaded", "repo", content.RepoName, "rows", len(content.CoverageRows))
	}
	return err
}

// Current returns the content being served and the last load error
func (s *DashboardServer) Current() (*domain.DashboardContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.content, s.loadErr
}

// Handler returns the HTTP handler with logging and metrics middleware
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /rows", s.handleRows)
	mux.HandleFunc("GET /coverage.csv", s.handleCSV)
	mux.Handle("GET /healthz", HealthHandler())
	mux.Handle("GET /readyz", ReadyHandler(s.ready))
	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.middleware(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *DashboardServer) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, readTimeout, writeTimeout)
}

// Serve serves on ln until ctx is cancelled
func (s *DashboardServer) Serve(ctx context.Context, ln net.Listener, readTimeout, writeTimeout time.Duration) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard server starting", "addr", "http://"+ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("dashboard server shutting down")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *DashboardServer) ready(_ context.Context) error {
	content, err := s.Current()
	if err != nil {
		return err
	}
	if content == nil {
		return errors.New("dashboard not loaded")
	}
	return nil
}

func (s *DashboardServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	content, err := s.Current()
	if content == nil {
		status, msg := loadFailure(err)
		http.Error(w, msg, status)
		return
	}

	s.mu.RLock()
	loadedAt := s.loadedAt
	s.mu.RUnlock()

	formatter := NewOutputFormatter(WithHTMLOptions(HTMLOptions{Live: true, GeneratedAt: loadedAt}))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formatter.WriteHTML(content, w); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render dashboard", "error", err)
	}
}

func (s *DashboardServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	content, err := s.Current()
	if content == nil {
		status, msg := loadFailure(err)
		s.writeJSON(r.Context(), w, status, map[string]string{"error": msg})
		return
	}
	s.writeJSON(r.Context(), w, http.StatusOK, content)
}

func (s *DashboardServer) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeJSON(r.Context(), w, http.StatusForbidden, &domain.RunAllResponse{Error: runDisabledMessage})
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.writeJSON(r.Context(), w, http.StatusConflict, &domain.RunAllResponse{Error: runInProgressMessage})
		return
	}
	defer s.running.Store(false)

	s.logger.InfoContext(r.Context(), "test run started")
	resp := s.runner.Run(r.Context())
	s.metrics.observeRun(resp)
	s.logger.InfoContext(r.Context(), "test run finished", "ok", resp.OK, "timeout", resp.Timeout, "error", resp.Error)

	// A failing run can still leave a fresh report behind
	_ = s.Reload(r.Context())

	s.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (s *DashboardServer) handleCSV(w http.ResponseWriter, r *http.Request) {
	content, err := s.Current()
	if content == nil {
		status, msg := loadFailure(err)
		http.Error(w, msg, status)
		return
	}

	rows := FilterRows(content.CoverageRows, r.URL.Query().Get("q"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="coverage.csv"`)
	if err := WriteCSV(w, rows); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to write CSV", "error", err)
	}
}

// handleRows serves the explorer filtered by q, ordered by sort (desc=true
// reverses) and sliced into pages
func (s *DashboardServer) handleRows(w http.ResponseWriter, r *http.Request) {
	content, err := s.Current()
	if content == nil {
		status, msg := loadFailure(err)
		s.writeJSON(r.Context(), w, status, map[string]string{"error": msg})
		return
	}

	query := r.URL.Query()
	key, err := ParseSortKey(query.Get("sort"))
	if err != nil {
		s.writeJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	page, err := intParam(query.Get("page"), 1)
	if err != nil {
		s.writeJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "invalid page"})
		return
	}
	pageSize, err := intParam(query.Get("page_size"), s.pageSize)
	if err != nil {
		s.writeJSON(r.Context(), w, http.StatusBadRequest, map[string]string{"error": "invalid page_size"})
		return
	}

	flat := Flatten(FilterRows(content.CoverageRows, query.Get("q")))
	if key != "" {
		flat = SortFlat(flat, key, query.Get("desc") == "true")
	}
	p := Paginate(flat, page, pageSize)

	out := RowsPage{
		Rows:       make([]PageRow, len(p.Rows)),
		Page:       p.Page,
		TotalPages: p.TotalPages,
		TotalRows:  p.TotalRows,
	}
	for i, fr := range p.Rows {
		row := fr.Row
		row.Children = nil
		out.Rows[i] = PageRow{Depth: fr.Depth, CoverageRow: row}
	}
	s.writeJSON(r.Context(), w, http.StatusOK, out)
}

func intParam(text string, def int) (int, error) {
	if text == "" {
		return def, nil
	}
	return strconv.Atoi(text)
}

// loadFailure maps a load error to a status code and message
func loadFailure(err error) (int, string) {
	var de domain.DomainError
	switch {
	case err == nil:
		return http.StatusServiceUnavailable, dashboardNotFoundMessage
	case errors.As(err, &de) && de.Code == domain.ErrCodeFileNotFound:
		return http.StatusServiceUnavailable, dashboardNotFoundMessage
	case errors.As(err, &de) && de.Code == domain.ErrCodeParseError:
		return http.StatusInternalServerError, dashboardInvalidMessage
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func (s *DashboardServer) writeJSON(ctx context.Context, w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := WriteJSON(w, value); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// statusWriter records the status code written by a handler
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.statusCode = code
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.statusCode == 0 {
		sw.statusCode = http.StatusOK
	}
	return sw.ResponseWriter.Write(b)
}

func (s *DashboardServer) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		if sw.statusCode == 0 {
			sw.statusCode = http.StatusOK
		}

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.observeRequest(route, r.Method, sw.statusCode, elapsed)
		s.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.statusCode,
			"duration", elapsed,
		)
	})
}
