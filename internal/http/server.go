package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	appweb "fintrack/web"
)

// Dependencies are the collaborators the HTTP surface needs. Sheets is
// optional; the export route answers 404 without it.
type Dependencies struct {
	Controller         *services.Controller
	Store              services.Store
	Sheets             sheets.RecordsWriter
	Logger             *log.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	templates   *template.Template
	controller  *services.Controller
	store       services.Store
	sheets      sheets.RecordsWriter
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Dependencies) (*Server, error) {
	if deps.Controller == nil || deps.Store == nil {
		return nil, errors.New("controller and store are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	resolver := security.NewClientIPResolver()
	s := &Server{
		templates:   t,
		controller:  deps.Controller,
		store:       deps.Store,
		sheets:      deps.Sheets,
		logger:      logger,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		tracer:      trace.NewMiddleware(logger, resolver.ExtractClientIP),
		started:     time.Now(),
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /update", s.handleUpdate)
	mux.HandleFunc("GET /export.csv", s.handleExportCSV)
	mux.HandleFunc("POST /export/sheets", s.handleExportSheets)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(resolver.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(limit(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
