package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"secondbrain/internal/backend"
	"secondbrain/internal/cache"
	applog "secondbrain/internal/log"
	"secondbrain/internal/middleware/ratelimit"
	"secondbrain/internal/middleware/security"
	"secondbrain/internal/middleware/trace"
)

const (
	readyTimeout         = 2 * time.Second
	cacheCleanupInterval = 10 * time.Minute
	idempotencyEntries   = 1000
	idempotencyTTL       = 24 * time.Hour
)

// Options tunes the server. Zero values select defaults.
type Options struct {
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	svc    *backend.Services
	logger *applog.Logger

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	headers  *security.HeadersMiddleware

	idempotency *idempotencyStore
	cacheMgr    *cache.Manager

	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *backend.Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s := &Server{
		svc:         svc,
		logger:      logger,
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:      trace.NewMiddleware(detector.ExtractClientIP),
		detector:    detector,
		headers:     security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		idempotency: newIdempotencyStore(idempotencyEntries, idempotencyTTL),
		cacheMgr:    cache.NewManager(),
		now:         time.Now,
	}
	s.cacheMgr.Register(s.idempotency.responses)
	s.cacheMgr.StartCleanup(cacheCleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// middleware wraps h with the request pipeline, outermost first: request
// logger, tracing, attack detection, security headers, rate limiting and
// idempotent replay of writes.
func (s *Server) middleware(h http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited,
		http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)

	h = s.idempotency.Middleware(h)
	h = limited(h)
	h = s.headers.Middleware(h)
	h = s.detector.Middleware(s.onSuspicious)(h)
	h = s.tracer.Middleware(h)
	return applog.Middleware(s.logger)(h)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

func (s *Server) onSuspicious(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusBadRequest, "suspicious_request", "request rejected").Write(w)
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Wallet
	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("PUT /api/accounts/{id}", s.handleUpdateAccount)
	mux.HandleFunc("POST /api/accounts/{id}/toggle-budget", s.handleToggleIncludeInBudget)
	mux.HandleFunc("DELETE /api/accounts/{id}", s.handleDeleteAccount)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleEditTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("POST /api/budgets/{id}/allocate", s.handleAllocate)
	mux.HandleFunc("POST /api/budgets/{id}/withdraw", s.handleWithdraw)

	mux.HandleFunc("GET /api/totals", s.handleTotals)
	mux.HandleFunc("GET /api/overview", s.handleMonthOverview)
	mux.HandleFunc("POST /api/import/ofx", s.handleImportOFX)

	// CRM
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	mux.HandleFunc("POST /api/projects/{id}/archive", s.handleToggleArchive)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.handleCompleteTask)
	mux.HandleFunc("POST /api/tasks/{id}/subtasks", s.handleAddSubtask)
	mux.HandleFunc("PUT /api/tasks/{id}/subtasks/{subtaskID}", s.handleUpdateSubtask)
	mux.HandleFunc("DELETE /api/tasks/{id}/subtasks/{subtaskID}", s.handleDeleteSubtask)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/report", s.handleReport)

	// Settings
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.svc.Ready(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		ErrorResponse(http.StatusServiceUnavailable, "not_ready", "store unavailable").Write(w)
		return
	}
	NewJSONResponse().Data(map[string]string{"status": "ready"}).Write(w)
}

// MetricsSnapshot is served on /metrics.
type MetricsSnapshot struct {
	Requests  trace.Metrics             `json:"requests"`
	RateLimit ratelimit.Metrics         `json:"rateLimit"`
	Security  security.DetectionMetrics `json:"security"`
	Cache     CacheMetrics              `json:"cache"`
}

type CacheMetrics struct {
	Idempotency cache.Stats `json:"idempotency"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(MetricsSnapshot{
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
		Cache: CacheMetrics{
			Idempotency: s.idempotency.responses.Stats(),
		},
	}).Write(w)
}
