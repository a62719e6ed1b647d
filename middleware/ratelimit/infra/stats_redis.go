package infra

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"proof-gateway/middleware/ratelimit/domain"
)

// RedisStatsStore grava os contadores em hashes do Redis, compartilhados
// entre instâncias.
//
// Chaves (prefixo padrão proof:ratelimit:stats):
//
//	<prefix>:total              hash allowed/denied, cumulativo
//	<prefix>:route              hash "<METHOD /path>|allowed" -> n
//	<prefix>:<bucket>:<stamp>   hash allowed/denied por hora/minuto, com TTL
//	<prefix>:key:<id>           hash por cliente (WithStatsTrackKeys), com TTL
//	<prefix>:exhausted          HyperLogLog de clientes que levaram 429
type RedisStatsStore struct {
	rdb redis.UniversalClient

	prefix string
	ttl    time.Duration
	bucket string // hour|minute|none

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		if p := strings.Trim(prefix, ":"); p != "" {
			s.prefix = p
		}
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "proof:ratelimit:stats",
		ttl:    7 * 24 * time.Hour,
		bucket: "hour",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	outcome := outcomeField(ev.Allowed)
	id := strings.TrimSpace(string(ev.Key))

	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, s.key("total"), outcome, 1)

		if route := routeName(ev); route != "" {
			pipe.HIncrBy(ctx, s.key("route"), route+"|"+outcome, 1)
		}

		if layout := bucketLayout(s.bucket); layout != "" {
			k := s.key(s.bucket, at.UTC().Format(layout))
			pipe.HIncrBy(ctx, k, outcome, 1)
			s.expire(ctx, pipe, k)
		}

		if !ev.Allowed && id != "" {
			pipe.PFAdd(ctx, s.key("exhausted"), id)
		}

		if s.trackKeys && id != "" {
			k := s.key("key", id)
			pipe.HIncrBy(ctx, k, outcome, 1)
			s.expire(ctx, pipe, k)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record stats: %w", err)
	}
	return nil
}

func (s *RedisStatsStore) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
}

// Total lê só os contadores cumulativos.
func (s *RedisStatsStore) Total(ctx context.Context) (domain.Counters, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key("total")).Result()
	if err != nil {
		return domain.Counters{}, fmt.Errorf("read stats total: %w", err)
	}
	return parseCounters(vals), nil
}

// Snapshot lê total, rotas e a estimativa de clientes esgotados num
// único round-trip. ByKey não é montado (exigiria SCAN).
func (s *RedisStatsStore) Snapshot(ctx context.Context) (domain.StatsSnapshot, error) {
	var (
		total     *redis.MapStringStringCmd
		routes    *redis.MapStringStringCmd
		exhausted *redis.IntCmd
	)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		total = pipe.HGetAll(ctx, s.key("total"))
		routes = pipe.HGetAll(ctx, s.key("route"))
		exhausted = pipe.PFCount(ctx, s.key("exhausted"))
		return nil
	})
	if err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("read stats: %w", err)
	}

	snap := domain.StatsSnapshot{
		Total:            parseCounters(total.Val()),
		ByRoute:          make(map[string]domain.Counters),
		ExhaustedClients: exhausted.Val(),
	}
	for field, raw := range routes.Val() {
		i := strings.LastIndexByte(field, '|')
		if i <= 0 {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		c := snap.ByRoute[field[:i]]
		switch field[i+1:] {
		case "allowed":
			c.Allowed += n
		case "denied":
			c.Denied += n
		}
		snap.ByRoute[field[:i]] = c
	}
	return snap, nil
}

func outcomeField(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}

func parseCounters(vals map[string]string) domain.Counters {
	var c domain.Counters
	c.Allowed, _ = strconv.ParseInt(vals["allowed"], 10, 64)
	c.Denied, _ = strconv.ParseInt(vals["denied"], 10, 64)
	return c
}

func bucketLayout(bucket string) string {
	switch bucket {
	case "minute":
		return "200601021504"
	case "hour":
		return "2006010215"
	default:
		return ""
	}
}
