package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"grledger/internal/auth"
	"grledger/internal/forms"
	"grledger/internal/insight"
	"grledger/internal/ledger"
	"grledger/internal/log"
	"grledger/internal/middleware/ratelimit"
	"grledger/internal/middleware/security"
	"grledger/internal/middleware/trace"
	"grledger/internal/payment"
	"grledger/internal/render"
)

// Deps are the collaborators of the HTTP surface. Auditor, Payments and
// Renderer may be nil; the matching routes then answer 503.
type Deps struct {
	App      *ledger.App
	Auth     *auth.Authenticator
	Tokens   *auth.Tokens
	Auditor  *insight.Auditor
	Payments *payment.Links
	Renderer *render.Renderer
	Bank     forms.BankDefaults
	Location *time.Location
	Logger   *log.Logger

	RateLimit     ratelimit.Config
	BodyLimit     int64
	SecureCookies bool
	TrustedProxy  []string

	// Ready reports whether the backing store is reachable.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server

	deps     Deps
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.BodyLimit <= 0 {
		deps.BodyLimit = DefaultBodyLimit
	}
	if deps.RateLimit.RequestsPerSecond <= 0 {
		deps.RateLimit = ratelimit.DefaultConfig()
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		deps:     deps,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
		detector: security.NewDetector(deps.Logger),
		tracer:   trace.NewMiddleware(),
	}
	for _, cidr := range deps.TrustedProxy {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, ErrorBody{Error: "Terlalu banyak permintaan, coba lagi nanti."})
	})

	var h http.Handler = mux
	h = limited(h)
	h = s.detector.Middleware(h)
	h = headers.Middleware(h)
	h = log.Middleware(deps.Logger.WithComponent(log.ComponentHTTP), trace.RequestID)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /api/login", security.NoStore(http.HandlerFunc(s.handleLogin)))
	mux.Handle("POST /api/logout", s.protect(s.handleLogout))
	mux.Handle("GET /api/session", s.protect(s.handleSession))

	mux.Handle("GET /api/transactions", s.protect(s.handleListTransactions))
	mux.Handle("GET /api/transactions/new", s.protect(s.handleNewTransaction))
	mux.Handle("POST /api/transactions", s.protect(s.handleCreateTransaction))
	mux.Handle("PUT /api/transactions/{id}", s.protect(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", s.protect(s.handleDeleteTransaction))

	mux.Handle("GET /api/categories", s.protect(s.handleListCategories))
	mux.Handle("POST /api/categories", s.protect(s.handleCreateCategory))
	mux.Handle("DELETE /api/categories/{id}", s.protect(s.handleDeleteCategory))

	mux.Handle("GET /api/invoices", s.protect(s.handleListInvoices))
	mux.Handle("GET /api/invoices/new", s.protect(s.handleNewInvoice))
	mux.Handle("POST /api/invoices", s.protect(s.handleCreateInvoice))
	mux.Handle("PUT /api/invoices/{id}", s.protect(s.handleUpdateInvoice))
	mux.Handle("DELETE /api/invoices/{id}", s.protect(s.handleDeleteInvoice))
	mux.Handle("POST /api/invoices/{id}/payment-link", s.protect(s.handlePaymentLink))

	mux.Handle("GET /api/briefs", s.protect(s.handleListBriefs))
	mux.Handle("GET /api/briefs/new", s.protect(s.handleNewBrief))
	mux.Handle("POST /api/briefs", s.protect(s.handleCreateBrief))
	mux.Handle("PUT /api/briefs/{id}", s.protect(s.handleUpdateBrief))
	mux.Handle("DELETE /api/briefs/{id}", s.protect(s.handleDeleteBrief))

	mux.Handle("GET /api/users", s.protect(s.handleListUsers))
	mux.Handle("POST /api/users", s.protect(s.handleCreateUser))
	mux.Handle("DELETE /api/users/{id}", s.protect(s.handleDeleteUser))

	mux.Handle("GET /api/dashboard", s.protect(s.handleDashboard))
	mux.Handle("GET /api/reports", s.protect(s.handleReport))
	mux.Handle("GET /api/years", s.protect(s.handleYears))

	mux.Handle("GET /api/insight", s.protect(s.handleLatestInsight))
	mux.Handle("POST /api/insight", s.protect(s.handleRunInsight))

	mux.Handle("GET /print/invoices/{id}", s.protect(s.handlePrintInvoice))
	mux.Handle("GET /print/briefs/{id}", s.protect(s.handlePrintBrief))
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports middleware counters for the status log.
type Metrics struct {
	Trace      trace.Metrics             `json:"trace"`
	RateLimit  ratelimit.Metrics         `json:"rateLimit"`
	Suspicious security.DetectionMetrics `json:"suspicious"`
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		Trace:      s.tracer.GetMetrics(),
		RateLimit:  s.limiter.GetMetrics(),
		Suspicious: s.detector.GetMetrics(),
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			s.logger.Warn("Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) formOptions() []forms.Option {
	return []forms.Option{forms.WithClock(s.deps.Now), forms.WithLocation(s.deps.Location)}
}

func (s *Server) parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r, s.deps.BodyLimit)
	return p, p.Parse()
}
