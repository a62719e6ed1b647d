// Package axiom resolve o nome de um conjunto de axiomas para a lista de
// enunciados, buscando o documento remoto a cada chamada.
package axiom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxDocumentBytes = 1 << 20

// Resolver busca documentos do Registry. Não há cache: cada Resolve faz um GET.
type Resolver struct {
	Registry   *Registry
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewResolver(reg *Registry, timeout time.Duration) *Resolver {
	return &Resolver{Registry: reg, Timeout: timeout}
}

// Resolve devolve os enunciados do conjunto name.
//
// Nome desconhecido gera ErrUnknownAxiomSet; qualquer falha de busca ou de
// formato gera ErrAxiomSetUnavailable com a causa embrulhada.
func (r *Resolver) Resolve(ctx context.Context, name string) ([]string, error) {
	if r == nil || r.Registry == nil {
		return nil, fmt.Errorf("axiom resolver not configured")
	}

	u, err := r.Registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrAxiomSetUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrAxiomSetUnavailable, u, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: fetch %s: status %d", ErrAxiomSetUnavailable, u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrAxiomSetUnavailable, u, err)
	}
	if len(body) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrAxiomSetUnavailable, u, maxDocumentBytes)
	}

	axioms, err := ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAxiomSetUnavailable, strings.TrimSpace(u), err)
	}
	return axioms, nil
}
