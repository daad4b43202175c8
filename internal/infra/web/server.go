package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Kamigear/teens-points/internal/infra/logging"
	"github.com/Kamigear/teens-points/internal/usecase"
)

// MinterControl is the slice of the token scheduler the admin API drives.
type MinterControl interface {
	Start(ctx context.Context)
	Stop()
	Running() bool
}

// Pinger reports backend liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	claimUC    *usecase.ClaimUseCase
	memberUC   *usecase.MemberUseCase
	ledgerUC   *usecase.LedgerUseCase
	codeUC     *usecase.CodeUseCase
	tokenUC    *usecase.TokenUseCase
	settingsUC *usecase.SettingsUseCase

	minter MinterControl
	db     Pinger

	auth     *AuthManager
	adminKey string

	// baseCtx parents the minting loop so an admin start outlives the
	// request that triggered it.
	baseCtx context.Context
	log     *zerolog.Logger
}

func NewServer(
	claimUC *usecase.ClaimUseCase,
	memberUC *usecase.MemberUseCase,
	ledgerUC *usecase.LedgerUseCase,
	codeUC *usecase.CodeUseCase,
	tokenUC *usecase.TokenUseCase,
	settingsUC *usecase.SettingsUseCase,
	minter MinterControl,
	db Pinger,
	auth *AuthManager,
	adminKey string,
	baseCtx context.Context,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "Web").Logger()
	return &Server{
		claimUC:    claimUC,
		memberUC:   memberUC,
		ledgerUC:   ledgerUC,
		codeUC:     codeUC,
		tokenUC:    tokenUC,
		settingsUC: settingsUC,
		minter:     minter,
		db:         db,
		auth:       auth,
		adminKey:   adminKey,
		baseCtx:    baseCtx,
		log:        &l,
	}
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware)
	r.Use(s.requestLogger)

	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.memberAuth)
			r.Post("/claims", s.claimHandler)
			r.Get("/members/me", s.meHandler)
			r.Get("/members/me/history", s.myHistoryHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth)

			r.Post("/codes", s.codeCreateHandler)
			r.Get("/codes", s.codeListHandler)
			r.Delete("/codes/{id}", s.codeDeleteHandler)

			r.Get("/token-generator", s.minterStatusHandler)
			r.Post("/token-generator/start", s.minterStartHandler)
			r.Post("/token-generator/stop", s.minterStopHandler)

			r.Get("/members", s.memberListHandler)
			r.Get("/members/{id}", s.memberGetHandler)
			r.Patch("/members/{id}", s.memberPatchHandler)
			r.Post("/members/{id}/adjustments", s.adjustmentHandler)
			r.Delete("/ledger/{id}", s.ledgerDeleteHandler)

			r.Get("/settings", s.settingsGetHandler)
			r.Put("/settings", s.settingsPutHandler)
		})
	})

	return r
}

// traceMiddleware tags every request with a trace id, honoring an inbound
// X-Request-Id when the caller supplies one.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Request-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", traceID)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), traceID)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.With(r.Context(), s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
