package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/service"
	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
	"github.com/zhank48/ultfpeb-sub004/internal/logging"
	"github.com/zhank48/ultfpeb-sub004/internal/metrics"
)

type Dependencies struct {
	Logger logrus.FieldLogger
	Addr   string

	// Env "dev" additionally accepts X-Actor-ID / X-Actor-Role headers.
	Env        string
	JWTSecret  string
	AdminRoles []string

	// Policy is passed into every check-in.
	Policy types.CheckInPolicy

	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	Visitors  *service.VisitorService
	Requests  *service.ChangeRequestService
	Approvals *service.ApprovalService
	Audit     *service.AuditLog
	Checker   *service.ConsistencyChecker
}

type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
	metrics    *metrics.Metrics
	auth       *authenticator
	policy     types.CheckInPolicy

	visitors  *service.VisitorService
	requests  *service.ChangeRequestService
	approvals *service.ApprovalService
	audit     *service.AuditLog
	checker   *service.ConsistencyChecker
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:    logging.OrDiscard(d.Logger),
		metrics:   d.Metrics,
		auth:      newAuthenticator(d.JWTSecret, d.Env, d.AdminRoles),
		policy:    d.Policy,
		visitors:  d.Visitors,
		requests:  d.Requests,
		approvals: d.Approvals,
		audit:     d.Audit,
		checker:   d.Checker,
	}

	r := chi.NewRouter()
	r.Use(requestID, s.recoverer, s.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept", headerActorID, headerActorRole},
		ExposedHeaders: []string{headerRequestID},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.auth.identify)

		r.Route("/visitors", func(r chi.Router) {
			r.Post("/", s.handleCheckIn)
			r.Get("/", s.handleListActive)
			r.Get("/{id}", s.handleGetVisitor)
			r.Post("/{id}/checkout", s.handleCheckOut)
			r.Get("/{id}/audit", s.handleVisitorAudit)
			r.Post("/{id}/edit-requests", s.handleCreateEditRequest)
			r.Post("/{id}/delete-requests", s.handleCreateDeleteRequest)
		})

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", s.handleListPending)
			r.Get("/{id}", s.handleGetRequest)
			r.Get("/{id}/audit", s.handleRequestAudit)
			r.With(s.auth.requireAdmin).Post("/{id}/approve", s.handleApprove)
			r.With(s.auth.requireAdmin).Post("/{id}/reject", s.handleReject)
		})

		r.With(s.auth.requireAdmin).Get("/admin/consistency", s.handleConsistency)
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
