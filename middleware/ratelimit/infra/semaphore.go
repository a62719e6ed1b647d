package infra

import (
	"context"
	"sync"
)

// Semaphore implementa domain.CompletionSlots sobre um channel bufferizado.
type Semaphore struct {
	slots chan struct{}
}

func NewSemaphore(capacity int) *Semaphore {
	if capacity < 1 {
		capacity = 1
	}
	return &Semaphore{slots: make(chan struct{}, capacity)}
}

func (s *Semaphore) Acquire(ctx context.Context) (func(), bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { <-s.slots }) }, true
}

func (s *Semaphore) InFlight() int { return len(s.slots) }
func (s *Semaphore) Capacity() int { return cap(s.slots) }
