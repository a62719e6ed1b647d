// Package server expõe a API HTTP: /api/proof atrás do rate limit, mais
// rotas auxiliares sem cota.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"proof-gateway/internal/proof"
	"proof-gateway/middleware/ratelimit/domain"
)

type Middleware = func(http.Handler) http.Handler

// Options reúne as dependências já construídas pelo processo.
type Options struct {
	Logger *zap.Logger
	Proof  *proof.Service

	// AxiomSets lista os conjuntos conhecidos para /api/axiom-sets.
	AxiomSets func() []string

	// RateLimit e Concurrency protegem só /api/proof. nil = sem proteção.
	RateLimit   Middleware
	Concurrency Middleware

	// Stats é exposto em /api/ratelimit/stats quando não nil.
	Stats domain.StatsReader

	MaxBodyBytes int64

	// Addr do listener; padrão :8000.
	Addr string
}

type Server struct {
	router *chi.Mux
	server *http.Server
	logger *zap.Logger
	opts   Options
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}

	s := &Server{
		router: chi.NewRouter(),
		logger: opts.Logger,
		opts:   opts,
	}

	// ordem: RequestID -> AccessLog -> Recovery -> CORS
	s.router.Use(RequestID)
	s.router.Use(AccessLog(s.logger))
	s.router.Use(Recovery(s.logger))
	s.router.Use(CORS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	s.registerRoutes()

	// construído aqui para Shutdown valer mesmo antes do ListenAndServe
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// a chamada ao provedor não tem timeout próprio por padrão
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  90 * time.Second,
	}
	return s
}

// Handler expõe o router para testes e para o http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe bloqueia até o servidor parar. Depois de um Shutdown,
// devolve http.ErrServerClosed sem abrir o listener.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
