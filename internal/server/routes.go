package server

import "github.com/go-chi/chi/v5"

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/axiom-sets", s.handleAxiomSets)
		if s.opts.Stats != nil {
			r.Get("/ratelimit/stats", s.handleStats)
		}

		r.Group(func(r chi.Router) {
			if s.opts.RateLimit != nil {
				r.Use(s.opts.RateLimit)
			}
			if s.opts.Concurrency != nil {
				r.Use(s.opts.Concurrency)
			}
			r.Post("/proof", s.handleProof)
		})
	})
}
