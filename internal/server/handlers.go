package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"proof-gateway/internal/axiom"
	"proof-gateway/internal/proof"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAxiomSets(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if s.opts.AxiomSets != nil {
		names = s.opts.AxiomSets()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"axiomSets": names})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.opts.Stats.Snapshot(r.Context())
	if err != nil {
		s.logger.Warn("stats unavailable", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeDetail(w, http.StatusServiceUnavailable, "Stats unavailable.")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", GetRequestID(r.Context())))

	var req proof.Request
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	res, err := s.opts.Proof.Prove(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)

	case errors.Is(err, axiom.ErrUnknownAxiomSet):
		log.Info("unknown axiom set", zap.String("axiom_set", req.AxiomSet))
		writeDetail(w, http.StatusBadRequest, "Invalid axiom set.")

	case errors.Is(err, axiom.ErrAxiomSetUnavailable):
		log.Warn("axiom set unavailable", zap.String("axiom_set", req.AxiomSet), zap.Error(err))
		writeDetail(w, http.StatusBadRequest, "Invalid axiom set.")

	case errors.Is(err, proof.ErrCompletionFailed):
		log.Error("completion failed", zap.Error(err))
		writeDetail(w, http.StatusBadGateway, "Completion service error.")

	default:
		log.Error("proof failed", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
