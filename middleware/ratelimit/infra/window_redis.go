package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"proof-gateway/middleware/ratelimit/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript faz poda + contagem + inserção num único passo atômico.
// Scores em microssegundos. Rejeição não insere nada.
//
// Retorno: {allowed(0|1), count, retryAfterMicros}
var slidingWindowScript = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry = 0
	if oldest[2] then
		retry = tonumber(oldest[2]) + window - now
	end
	return {0, count, retry}
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, math.ceil(window / 1000))
return {1, count + 1, 0}
`)

// RedisWindowStore é a janela deslizante compartilhada entre instâncias,
// um sorted set por chave.
type RedisWindowStore struct {
	rdb    redis.UniversalClient
	policy domain.Policy
	prefix string
}

type RedisWindowOption func(*RedisWindowStore)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(s *RedisWindowStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func NewRedisWindowStore(rdb redis.UniversalClient, policy domain.Policy, opts ...RedisWindowOption) *RedisWindowStore {
	if policy.Limit <= 0 {
		policy.Limit = domain.DefaultLimit
	}
	if policy.Window <= 0 {
		policy.Window = domain.DefaultWindow
	}
	s := &RedisWindowStore{
		rdb:    rdb,
		policy: policy,
		prefix: "proof:ratelimit:window",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisWindowStore) Policy() domain.Policy { return s.policy }

// Allow implementa domain.WindowStore.
func (s *RedisWindowStore) Allow(ctx context.Context, key domain.Key, now time.Time) (domain.Decision, error) {
	nowMicros := now.UnixMicro()
	member := fmt.Sprintf("%d-%s", nowMicros, uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, s.rdb,
		[]string{s.redisKey(key)},
		nowMicros, s.policy.Window.Microseconds(), s.policy.Limit, member,
	).Int64Slice()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("sliding window script: %w", err)
	}
	if len(res) != 3 {
		return domain.Decision{}, fmt.Errorf("sliding window script: unexpected reply %v", res)
	}

	count := int(res[1])
	if res[0] == 1 {
		return domain.Decision{
			Allowed:   true,
			Limit:     s.policy.Limit,
			Remaining: s.policy.Limit - count,
		}, nil
	}
	return domain.Decision{
		Allowed:    false,
		Limit:      s.policy.Limit,
		RetryAfter: time.Duration(res[2]) * time.Microsecond,
	}, nil
}

// Reset apaga o histórico de uma chave.
func (s *RedisWindowStore) Reset(ctx context.Context, key domain.Key) error {
	return s.rdb.Del(ctx, s.redisKey(key)).Err()
}

func (s *RedisWindowStore) redisKey(key domain.Key) string {
	return s.prefix + ":" + string(key)
}
