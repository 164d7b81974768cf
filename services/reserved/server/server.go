package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"weusd/core"
	"weusd/native/crosschain"
	"weusd/native/reserve"
	"weusd/services/reserved/config"
	"weusd/services/reserved/storage"
)

// Server exposes the engine's operations and queries over HTTP.
type Server struct {
	cfg     config.Config
	engine  *core.Engine
	archive *storage.Storage
	logger  *slog.Logger

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter

	http *http.Server
}

// New assembles the HTTP surface. The archive store may be nil; the archive
// listing endpoints then report 404.
func New(cfg config.Config, engine *core.Engine, archive *storage.Storage, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		archive:  archive,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}
	s.http = &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           otelhttp.NewHandler(s.router(), "reserved.http"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving HTTP until the context is cancelled or the
// listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.rateLimit)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/reserves", s.handleReserves)
		r.Get("/fees/quote", s.handleFeeQuote)
		r.Get("/chains", s.handleSupportedChains)
		r.Get("/requests/{id}", s.handleRequestByID)
		r.Get("/requests/count/{count}", s.handleRequestByCount)
		r.Get("/users/{address}/source-requests", s.handleUserRequests(true))
		r.Get("/users/{address}/target-requests", s.handleUserRequests(false))

		r.Group(func(r chi.Router) {
			r.Use(s.requireBearer)
			r.Post("/mint", s.handleMint)
			r.Post("/redeem", s.handleRedeem)
			r.Post("/burn", s.handleBurn)
			r.Route("/admin", func(r chi.Router) {
				r.Post("/crosschain/mint", s.handleCrossChainMint)
				r.Post("/crosschain/mint-batch", s.handleCrossChainMintBatch)
				r.Post("/crosschain/withdraw", s.handleWithdrawReserves)
				r.Post("/params", s.handleSetParam)
				r.Post("/pause", s.handlePause(true))
				r.Post("/unpause", s.handlePause(false))
				r.Post("/archive", s.handleArchive)
				r.Get("/archived", s.handleArchivedList)
			})
		})
	})
	return r
}

// requireBearer enforces the static admin bearer token, constant-time.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.cfg.AdminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, errors.New("invalid bearer token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiterFor(host).Allow() {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limiterFor(host string) *rate.Limiter {
	s.limiterMu.Lock()
	defer s.limiterMu.Unlock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit.PerSecond), s.cfg.RateLimit.Burst)
		s.limiters[host] = limiter
	}
	return limiter
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps engine sentinels onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, crosschain.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, crosschain.ErrDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, reserve.ErrInsufficientReserves),
		errors.Is(err, core.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, reserve.ErrPaused),
		errors.Is(err, reserve.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, reserve.ErrBelowMinimum),
		errors.Is(err, reserve.ErrZeroAfterFee),
		errors.Is(err, reserve.ErrAmountOverflow),
		errors.Is(err, reserve.ErrInvalidAddress),
		errors.Is(err, reserve.ErrFeeOutOfBounds),
		errors.Is(err, reserve.ErrMinAmountOutOfBounds),
		errors.Is(err, crosschain.ErrUnsupportedChain),
		errors.Is(err, crosschain.ErrAmountTooLow),
		errors.Is(err, crosschain.ErrInvalidRequestID),
		errors.Is(err, crosschain.ErrInvalidPagination),
		errors.Is(err, core.ErrZeroAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
