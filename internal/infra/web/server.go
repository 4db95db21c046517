package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ai-creative-suite/internal/infra/redis"
	"ai-creative-suite/internal/usecase"
)

// Server carries the HTTP surface: user billing API, payment webhook,
// service-to-service grant endpoint, and admin stats.
type Server struct {
	paymentUC usecase.PaymentUseCase
	creditUC  usecase.CreditUseCase
	planUC    usecase.PlanUseCase
	subUC     usecase.SubscriptionUseCase
	genUC     usecase.GenerationUseCase
	statsUC   usecase.StatsUseCase

	auth        *AuthManager
	apiKey      string
	rateLimiter *redis.RateLimiter
	webhookRate int
	log         *zerolog.Logger
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	creditUC usecase.CreditUseCase,
	planUC usecase.PlanUseCase,
	subUC usecase.SubscriptionUseCase,
	genUC usecase.GenerationUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	apiKey string,
	rateLimiter *redis.RateLimiter,
	webhookRate int,
	logger *zerolog.Logger,
) *Server {
	if webhookRate <= 0 {
		webhookRate = 60
	}
	compLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		paymentUC:   paymentUC,
		creditUC:    creditUC,
		planUC:      planUC,
		subUC:       subUC,
		genUC:       genUC,
		statsUC:     statsUC,
		auth:        auth,
		apiKey:      apiKey,
		rateLimiter: rateLimiter,
		webhookRate: webhookRate,
		log:         &compLog,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Gateway callbacks: unauthenticated, signature-verified, rate-limited.
	r.Post("/webhooks/payment", s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog
		r.Get("/plans", s.handleListPlans)
		r.Get("/packages", s.handleListPackages)

		// User-facing, JWT-authenticated
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware)

			r.Post("/payments/initiate", s.handleInitiate)
			r.Get("/payments", s.handleListPayments)
			r.Get("/payments/status/{merchantTxID}", s.handlePaymentStatus)
			r.Post("/payments/status/{merchantTxID}", s.handlePaymentAction)

			r.Get("/credits", s.handleGetBalance)
			r.Get("/credits/history", s.handleCreditHistory)

			r.Get("/subscription", s.handleGetSubscription)

			r.Post("/generations", s.handleRequestGeneration)
			r.Get("/generations", s.handleListGenerations)
			r.Get("/generations/{id}", s.handleGetGeneration)
		})

		// Service-to-service and admin, static API key
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return apiKeyMiddleware(s.apiKey, next)
			})

			r.Post("/credits", s.handleGrantCredits)
			r.Get("/admin/stats", s.handleAdminStats)
		})
	})

	return r
}
