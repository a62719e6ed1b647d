package infra

import (
	"context"
	"sync"

	"proof-gateway/middleware/ratelimit/domain"
)

// MemoryStatsStore guarda os contadores do processo.
//
// Sem expiração: byKey (com WithTrackKeys) e exhausted crescem com o número
// de clientes distintos. Para deploys longos use RedisStatsStore.
type MemoryStatsStore struct {
	mu        sync.Mutex
	total     domain.Counters
	byRoute   map[string]domain.Counters
	byKey     map[string]domain.Counters
	exhausted map[domain.Key]struct{}

	trackKeys bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byRoute:   make(map[string]domain.Counters),
		byKey:     make(map[string]domain.Counters),
		exhausted: make(map[domain.Key]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := routeName(ev)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.Add(ev.Allowed)

	c := s.byRoute[route]
	c.Add(ev.Allowed)
	s.byRoute[route] = c

	if !ev.Allowed {
		s.exhausted[ev.Key] = struct{}{}
	}

	if s.trackKeys {
		k := s.byKey[string(ev.Key)]
		k.Add(ev.Allowed)
		s.byKey[string(ev.Key)] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() domain.Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) Snapshot(context.Context) (domain.StatsSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := domain.StatsSnapshot{
		Total:            s.total,
		ByRoute:          make(map[string]domain.Counters, len(s.byRoute)),
		ExhaustedClients: int64(len(s.exhausted)),
	}
	for k, v := range s.byRoute {
		out.ByRoute[k] = v
	}
	if s.trackKeys {
		out.ByKey = make(map[string]domain.Counters, len(s.byKey))
		for k, v := range s.byKey {
			out.ByKey[k] = v
		}
	}
	return out, nil
}

// routeName devolve "METHOD /path", ou "" quando o evento não tem rota.
func routeName(ev domain.StatsEvent) string {
	m, p := ev.Method, ev.Path
	switch {
	case m == "" && p == "":
		return ""
	case m == "":
		return p
	case p == "":
		return m
	}
	return m + " " + p
}
