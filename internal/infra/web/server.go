package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-subscription-payments/internal/infra/redis"
	"telegram-subscription-payments/internal/infra/security"
	"telegram-subscription-payments/internal/usecase"
)

// webhookRateLimit caps callbacks per remote address per minute. Both
// gateways retry aggressively; anything past this is abuse.
const webhookRateLimit = 120

type Server struct {
	paymeUC usecase.PaymeUseCase
	clickUC usecase.ClickUseCase
	planUC  *usecase.PlanUseCase
	creds   *security.BasicCredentials
	auth    *AuthManager
	apiKey  string
	limiter *redis.RateLimiter
	log     *zerolog.Logger
}

func NewServer(
	paymeUC usecase.PaymeUseCase,
	clickUC usecase.ClickUseCase,
	planUC *usecase.PlanUseCase,
	creds *security.BasicCredentials,
	auth *AuthManager,
	apiKey string,
	limiter *redis.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		paymeUC: paymeUC,
		clickUC: clickUC,
		planUC:  planUC,
		creds:   creds,
		auth:    auth,
		apiKey:  apiKey,
		limiter: limiter,
		log:     &l,
	}
}

// Router assembles all routes: gateway webhooks, the admin API and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/payments", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Post("/payme", s.handlePayme)
		r.Post("/click", s.handleClick)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/logout", s.handleLogout)
			r.Get("/plans", s.handlePlansList)
			r.Post("/plans", s.handlePlanCreate)
			r.Get("/plans/{id}", s.handlePlanGet)
			r.Put("/plans/{id}", s.handlePlanUpdate)
			r.Delete("/plans/{id}", s.handlePlanDelete)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

// rateLimitMiddleware throttles webhook sources per remote address. A Redis
// outage fails open: dropping legitimate payment callbacks costs more than
// letting a burst through.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provider := strings.TrimPrefix(r.URL.Path, "/payments/")
		key := redis.WebhookKey(provider, r.RemoteAddr)
		allowed, err := s.limiter.Allow(r.Context(), key, webhookRateLimit, time.Minute)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleLogin exchanges the static admin API key for a short-lived JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" {
		s.log.Error().Msg("admin API key is not configured")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	hdr := r.Header.Get("Authorization")
	parts := strings.Split(hdr, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	token, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// adminMiddleware requires a valid admin JWT on every /api/v1 route.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
