package infra

import (
	"context"
	"sync"
	"time"

	"proof-gateway/middleware/ratelimit/domain"
)

// WindowStore é a implementação em memória da janela deslizante, com um
// registro de timestamps por chave.
//
// O mapa só é travado para achar/criar a entrada; a poda + checagem + append
// acontecem sob o lock da própria entrada. Assim dois requests da mesma chave
// nunca pegam juntos a última vaga, e chaves diferentes não disputam lock.
type WindowStore struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	policy  domain.Policy

	cleanupEvery time.Duration
	clock        func() time.Time
}

type windowEntry struct {
	mu      sync.Mutex
	records []time.Time
	// dead marca uma entrada removida pelo janitor; quem a segurava refaz o lookup.
	dead bool
}

type WindowOption func(*WindowStore)

// WithWindowCleanupEvery define o intervalo do janitor. 0 desliga a limpeza
// periódica e a poda fica só no acesso.
func WithWindowCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

func WithWindowClock(clock func() time.Time) WindowOption {
	return func(s *WindowStore) { s.clock = clock }
}

func NewWindowStore(policy domain.Policy, opts ...WindowOption) *WindowStore {
	if policy.Limit <= 0 {
		policy.Limit = domain.DefaultLimit
	}
	if policy.Window <= 0 {
		policy.Window = domain.DefaultWindow
	}
	s := &WindowStore{
		entries:      make(map[string]*windowEntry),
		policy:       policy,
		cleanupEvery: 10 * time.Minute,
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) Policy() domain.Policy        { return s.policy }
func (s *WindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// Allow implementa domain.WindowStore.
func (s *WindowStore) Allow(_ context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	for {
		ent := s.entry(string(key))

		ent.mu.Lock()
		if ent.dead {
			ent.mu.Unlock()
			continue
		}
		var dec domain.Decision
		ent.records, dec = s.policy.Admit(ent.records, now)
		ent.mu.Unlock()

		return dec, nil
	}
}

func (s *WindowStore) entry(key string) *windowEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		return ent
	}
	ent := &windowEntry{}
	s.entries[key] = ent
	return ent
}

// Len retorna quantas chaves estão em memória.
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup remove as chaves cujos registros já saíram todos da janela.
// Para o cliente é indistinguível da poda no acesso; só libera memória.
func (s *WindowStore) Cleanup() int {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, ent := range s.entries {
		// entrada ocupada está em uso agora, fica para a próxima volta
		if !ent.mu.TryLock() {
			continue
		}
		if s.policy.Live(ent.records, now) == 0 {
			ent.dead = true
			ent.records = nil
			delete(s.entries, k)
			removed++
		}
		ent.mu.Unlock()
	}
	return removed
}

// StartJanitor inicia uma goroutine que limpa chaves expiradas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx DoneContext) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}

// DoneContext é o mínimo necessário para aceitar context.Context no janitor.
type DoneContext interface {
	Done() <-chan struct{}
}
