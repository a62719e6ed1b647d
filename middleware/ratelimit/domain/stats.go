package domain

import (
	"context"
	"time"
)

// StatsEvent é uma decisão do rate limit, gravada depois de Decide.
//
// Cuidado com cardinalidade: gravar Key por cliente num backend sem TTL
// cresce com o número de IPs distintos.
type StatsEvent struct {
	Key       Key
	Allowed   bool
	Remaining int

	Method string
	Path   string

	At time.Time
}

// StatsStore persiste eventos. O middleware trata erro como best-effort.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

func (c *Counters) Add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// StatsSnapshot é o que /api/ratelimit/stats devolve.
type StatsSnapshot struct {
	Total   Counters            `json:"total"`
	ByRoute map[string]Counters `json:"by_route"`
	ByKey   map[string]Counters `json:"by_key,omitempty"`

	// ExhaustedClients conta identidades distintas que já levaram 429.
	// No Redis é uma estimativa (HyperLogLog).
	ExhaustedClients int64 `json:"exhausted_clients"`
}

type StatsReader interface {
	Snapshot(ctx context.Context) (StatsSnapshot, error)
}
