package application

import (
	"context"
	"errors"
	"time"

	"proof-gateway/middleware/ratelimit/domain"
)

// ErrBusy indica que nenhuma vaga abriu dentro do AcquireTimeout.
var ErrBusy = errors.New("no completion slot available")

// SlotService aplica o timeout de espera por vaga, sem saber nada de HTTP.
type SlotService struct {
	Slots domain.CompletionSlots

	// <= 0 espera até o ctx do request encerrar.
	AcquireTimeout time.Duration
}

// Acquire devolve um release nunca nil. Erros:
//   - ErrBusy quando o AcquireTimeout estourou;
//   - ctx.Err() quando o próprio request foi cancelado (cliente saiu).
func (s SlotService) Acquire(ctx context.Context) (func(), error) {
	noop := func() {}
	if s.Slots == nil {
		return noop, nil
	}

	waitCtx := ctx
	if s.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
		defer cancel()
	}

	release, ok := s.Slots.Acquire(waitCtx)
	if ok && release != nil {
		return release, nil
	}
	if err := ctx.Err(); err != nil {
		return noop, err
	}
	return noop, ErrBusy
}
