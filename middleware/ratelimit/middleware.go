package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"proof-gateway/middleware/ratelimit/application"
	"proof-gateway/middleware/ratelimit/domain"
)

// DefaultDetail é a mensagem devolvida no corpo do 429.
const DefaultDetail = "Rate limit exceeded. Try again tomorrow."

type KeyFunc func(r *http.Request) string

type Options struct {
	Store               domain.WindowStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RejectStatus        int
	Detail              string
	AddRateLimitHeaders bool
	FailOpen            bool
	Clock               func() time.Time

	// OnError recebe falhas do store/stats (o pacote não loga sozinho).
	OnError func(r *http.Request, err error)
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if ip := strings.TrimSpace(parts[0]); ip != "" {
					return ip
				}
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.Detail == "" {
		opts.Detail = DefaultDetail
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	onError := opts.OnError
	if onError == nil {
		onError = func(*http.Request, error) {}
	}

	svc := application.Service{
		Store:    opts.Store,
		Clock:    opts.Clock,
		FailOpen: opts.FailOpen,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// preflight CORS não consome cota
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := opts.KeyFn(r)
			now := svc.Now()

			dec, err := svc.DecideAt(r.Context(), domain.Key(key), now)
			if err != nil {
				onError(r, err)
				if !dec.Allowed {
					writeDetail(w, http.StatusServiceUnavailable, "Rate limiter unavailable.")
					return
				}
			}

			if opts.Stats != nil {
				if err := opts.Stats.Record(r.Context(), domain.StatsEvent{
					Key:       domain.Key(key),
					Allowed:   dec.Allowed,
					Remaining: dec.Remaining,
					Method:    r.Method,
					Path:      r.URL.Path,
					At:        now,
				}); err != nil {
					onError(r, err)
				}
			}

			if opts.AddRateLimitHeaders && dec.Limit > 0 {
				w.Header().Set("X-RateLimit-Key", key)
				w.Header().Set("X-RateLimit-Limit", formatInt(dec.Limit))
				w.Header().Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
			}

			if !dec.Allowed {
				w.Header().Set("Retry-After", formatSeconds(dec.RetryAfter))
				writeDetail(w, opts.RejectStatus, opts.Detail)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
