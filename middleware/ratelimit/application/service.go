package application

import (
	"context"
	"time"

	"proof-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.WindowStore
	Clock func() time.Time

	// FailOpen libera o request quando o store falha (ex: Redis fora do ar).
	FailOpen bool
}

// Decide consulta o store com o horário atual.
//
// Em caso de erro do store a decisão segue FailOpen e o erro é devolvido
// junto para quem chamou registrar.
func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	return s.DecideAt(ctx, key, s.Now())
}

// Now lê o Clock injetado, ou time.Now.
func (s Service) Now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// DecideAt decide para um instante já lido, para quem precisa usar o mesmo
// horário em outro lugar (ex: stats).
func (s Service) DecideAt(ctx context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	if s.Store == nil {
		return domain.Decision{Allowed: true}, nil
	}

	dec, err := s.Store.Allow(ctx, key, now)
	if err != nil {
		return domain.Decision{Allowed: s.FailOpen}, err
	}
	if !dec.Allowed && dec.RetryAfter <= 0 {
		dec.RetryAfter = 1 * time.Second
	}
	return dec, nil
}
