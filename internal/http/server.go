package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"ledger/internal/cache"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
	appweb "ledger/web"
)

const (
	reportCacheSize = 64
	reportCacheTTL  = 5 * time.Minute
)

// Options tunes a Server. Zero values fall back to defaults.
type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	// ReadyCheck reports backend readiness for /readyz; nil means always ready.
	ReadyCheck func(context.Context) error
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated int64
	validationFailures  int64
	saveFailures        int64
	exports             int64
}

// Server serves the dashboard, the transaction form, the JSON and CSV
// endpoints, and the health probes.
type Server struct {
	http.Server
	templates  *template.Template
	ledger     *services.Ledger
	logger     *applog.Logger
	readyCheck func(context.Context) error

	traceMiddleware *trace.Middleware
	detector        *security.Detector
	rateLimiter     *ratelimit.Limiter
	reports         *cache.LRUCache[monthReport]
	cacheManager    *cache.Manager
	appMetrics      *appMetrics

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"money":      core.FormatAmount,
	"monthQuery": monthQuery,
}

// parseTemplates loads the embedded page and partial templates.
func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, ledger *services.Ledger, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	s := &Server{
		templates:       t,
		ledger:          ledger,
		logger:          logger.WithComponent(applog.ComponentHTTP),
		readyCheck:      opts.ReadyCheck,
		traceMiddleware: trace.NewMiddleware(logger, detector.ExtractClientIP),
		detector:        detector,
		rateLimiter:     limiter,
		reports:         cache.NewLRUCache[monthReport](reportCacheSize, reportCacheTTL),
		cacheManager:    cache.NewManager(),
		appMetrics:      &appMetrics{uptime: time.Now()},
	}
	s.cacheManager.Register(s.reports)
	s.cacheManager.StartCleanup(reportCacheTTL)

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.WarnContext(context.Background(), "Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/charts", s.handleCharts)
	mux.HandleFunc("GET /export.csv", s.handleExportCSV)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited, http.MethodPost)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.traceMiddleware.Middleware(s.flagSuspicious(headers.Middleware(limited(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// flagSuspicious logs requests that look like probes. They are still served.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request detected",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Rate limit exceeded. Please try again later.").Write(w)
}

// report returns the aggregated view for label. Entries are keyed by ledger
// size so an append never serves a stale report.
func (s *Server) report(all []core.Transaction, label string) monthReport {
	key := fmt.Sprintf("%d|%s", len(all), label)
	if rep, ok := s.reports.Get(key); ok {
		return rep
	}
	rep := buildReport(all, label)
	s.reports.Set(key, rep)
	return rep
}

// Shutdown stops background loops and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
