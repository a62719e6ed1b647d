package domain

import "context"

// CompletionSlots limita quantas chamadas ao provedor de completions
// ficam abertas ao mesmo tempo.
type CompletionSlots interface {
	// Acquire bloqueia até haver vaga ou ctx encerrar. O release devolvido
	// pode ser chamado mais de uma vez; só a primeira conta.
	Acquire(ctx context.Context) (release func(), ok bool)
	InFlight() int
	Capacity() int
}
