// Package proof é o caso de uso de /api/proof: resolve os axiomas, monta o
// prompt e repassa ao provedor de completions.
package proof

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"proof-gateway/internal/completion"
	"proof-gateway/internal/prompt"
)

// ErrCompletionFailed embrulha qualquer falha do provedor.
var ErrCompletionFailed = errors.New("completion failed")

// AxiomResolver devolve os enunciados de um conjunto.
type AxiomResolver interface {
	Resolve(ctx context.Context, name string) ([]string, error)
}

type Request struct {
	Problem  string `json:"problem"`
	AxiomSet string `json:"axiomSet"`
}

type Result struct {
	Result string `json:"result"`
}

type Service struct {
	Axioms    AxiomResolver
	Completer completion.Completer
}

func NewService(axioms AxiomResolver, completer completion.Completer) *Service {
	return &Service{Axioms: axioms, Completer: completer}
}

// Prove executa o fluxo linear. Erros de axioma chegam como vieram do resolver
// (ErrUnknownAxiomSet / ErrAxiomSetUnavailable); erros do provedor chegam
// embrulhados em ErrCompletionFailed.
func (s *Service) Prove(ctx context.Context, req Request) (Result, error) {
	problem := strings.TrimSpace(req.Problem)

	axioms, err := s.Axioms.Resolve(ctx, req.AxiomSet)
	if err != nil {
		return Result{}, err
	}

	text, err := s.Completer.Complete(ctx, prompt.Build(problem, axioms))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	return Result{Result: text}, nil
}
