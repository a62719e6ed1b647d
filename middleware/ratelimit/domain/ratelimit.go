package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

// Key identifica o cliente (normalmente o IP de origem).
type Key string

const (
	DefaultLimit  = 10
	DefaultWindow = 24 * time.Hour
)

// Policy é a regra da janela deslizante: no máximo Limit chamadas aceitas
// nos últimos Window, contando apenas registros com now - t < Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Limit: DefaultLimit, Window: DefaultWindow}
}

// WindowStore decide e registra atomicamente uma chamada para a chave.
//
// Uma chamada rejeitada não gera registro. Implementações podem ser em memória
// (um processo) ou Redis (várias instâncias).
type WindowStore interface {
	Allow(ctx context.Context, key Key, now time.Time) (Decision, error)
}

type Decision struct {
	Allowed bool

	// Limit e Remaining descrevem a janela após a decisão.
	Limit     int
	Remaining int

	// RetryAfter é o tempo até o registro mais antigo sair da janela.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// Live conta os registros ainda dentro da janela em now.
func (p Policy) Live(records []time.Time, now time.Time) int {
	n := 0
	for _, t := range records {
		if now.Sub(t) < p.Window {
			n++
		}
	}
	return n
}

// Admit poda records (in-place) para a janela em now e aplica o limite.
// Devolve o slice resultante, que já inclui now quando a chamada é aceita.
func (p Policy) Admit(records []time.Time, now time.Time) ([]time.Time, Decision) {
	kept := records[:0]
	for _, t := range records {
		if now.Sub(t) < p.Window {
			kept = append(kept, t)
		}
	}
	// zera a cauda para não segurar timestamps antigos no array subjacente
	clear(records[len(kept):])

	if len(kept) >= p.Limit {
		oldest := kept[0]
		for _, t := range kept[1:] {
			if t.Before(oldest) {
				oldest = t
			}
		}
		return kept, Decision{
			Allowed:    false,
			Limit:      p.Limit,
			Remaining:  0,
			RetryAfter: oldest.Add(p.Window).Sub(now),
		}
	}

	kept = append(kept, now)
	return kept, Decision{
		Allowed:   true,
		Limit:     p.Limit,
		Remaining: p.Limit - len(kept),
	}
}
