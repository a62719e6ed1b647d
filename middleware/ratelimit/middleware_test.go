package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"proof-gateway/middleware/ratelimit/domain"
	"proof-gateway/middleware/ratelimit/infra"
)

type errStore struct{ err error }

func (s errStore) Allow(context.Context, domain.Key, time.Time) (domain.Decision, error) {
	return domain.Decision{}, s.err
}

func postFrom(addr string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "http://example/api/proof", nil)
	r.RemoteAddr = addr
	return r
}

func TestMiddleware_TenPassEleventhRejected(t *testing.T) {
	store := infra.NewWindowStore(domain.DefaultPolicy(), infra.WithWindowCleanupEvery(0))

	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})

	h := Middleware(Options{Store: store, AddRateLimitHeaders: true})(next)

	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, postFrom("10.0.0.1:1234"))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != formatInt(9-i) {
			t.Fatalf("request %d: expected remaining %d, got %q", i+1, 9-i, got)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postFrom("10.0.0.1:5678"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "86400" {
		t.Fatalf("expected Retry-After=86400, got %q", got)
	}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Detail != DefaultDetail {
		t.Fatalf("unexpected detail %q", body.Detail)
	}

	if calls != 10 {
		t.Fatalf("expected next handler to be called 10 times, got %d", calls)
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	store := infra.NewWindowStore(domain.Policy{Limit: 1, Window: time.Hour}, infra.WithWindowCleanupEvery(0))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(Options{Store: store, KeyHeader: "X-Api-Key"})(next)

	// duas chaves diferentes no mesmo IP => ambas passam (cada chave tem sua janela)
	for _, k := range []string{"k1", "k2"} {
		r := postFrom("10.0.0.1:1234")
		r.Header.Set("X-Api-Key", k)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", k, w.Code)
		}
	}
}

func TestMiddleware_WindowSlidesWithClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := infra.NewWindowStore(domain.Policy{Limit: 1, Window: 24 * time.Hour}, infra.WithWindowCleanupEvery(0))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Middleware(Options{Store: store, Clock: clock})(next)

	codes := func() int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, postFrom("10.0.0.7:1"))
		return w.Code
	}

	if c := codes(); c != http.StatusOK {
		t.Fatalf("expected 200, got %d", c)
	}
	now = now.Add(23 * time.Hour)
	if c := codes(); c != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside window, got %d", c)
	}
	now = now.Add(time.Hour)
	if c := codes(); c != http.StatusOK {
		t.Fatalf("expected 200 after window slid, got %d", c)
	}
}

func TestMiddleware_OptionsDoesNotConsumeQuota(t *testing.T) {
	store := infra.NewWindowStore(domain.Policy{Limit: 1, Window: time.Hour}, infra.WithWindowCleanupEvery(0))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Middleware(Options{Store: store})(next)

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodOptions, "http://example/api/proof", nil)
		r.RemoteAddr = "10.0.0.1:1"
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, postFrom("10.0.0.1:1"))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected request to pass after preflights, got %d", w.Code)
	}
}

func TestMiddleware_StoreErrorFailOpenAndClosed(t *testing.T) {
	boom := errors.New("redis down")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	var seen error
	open := Middleware(Options{Store: errStore{err: boom}, FailOpen: true, OnError: func(_ *http.Request, err error) { seen = err }})(next)
	w := httptest.NewRecorder()
	open.ServeHTTP(w, postFrom("10.0.0.1:1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with fail-open, got %d", w.Code)
	}
	if !errors.Is(seen, boom) {
		t.Fatalf("expected OnError to receive store error, got %v", seen)
	}

	closed := Middleware(Options{Store: errStore{err: boom}})(next)
	w = httptest.NewRecorder()
	closed.ServeHTTP(w, postFrom("10.0.0.1:1"))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with fail-closed, got %d", w.Code)
	}
}

func TestMiddleware_RecordsStats(t *testing.T) {
	store := infra.NewWindowStore(domain.Policy{Limit: 1, Window: time.Hour}, infra.WithWindowCleanupEvery(0))
	stats := infra.NewMemoryStatsStore()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Middleware(Options{Store: store, Stats: stats})(next)

	h.ServeHTTP(httptest.NewRecorder(), postFrom("10.0.0.1:1"))
	h.ServeHTTP(httptest.NewRecorder(), postFrom("10.0.0.1:1"))

	if got := stats.Total(); got != (domain.Counters{Allowed: 1, Denied: 1}) {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

type recordingStats struct {
	events []domain.StatsEvent
}

func (s *recordingStats) Record(_ context.Context, ev domain.StatsEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func TestMiddleware_StatsUseInjectedClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := infra.NewWindowStore(domain.Policy{Limit: 1, Window: time.Hour}, infra.WithWindowCleanupEvery(0))
	stats := &recordingStats{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := Middleware(Options{Store: store, Stats: stats, Clock: clock})(next)

	h.ServeHTTP(httptest.NewRecorder(), postFrom("10.0.0.1:1"))
	now = now.Add(30 * time.Minute)
	h.ServeHTTP(httptest.NewRecorder(), postFrom("10.0.0.1:1"))

	if len(stats.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(stats.events))
	}
	want := []time.Time{
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
	for i, ev := range stats.events {
		if !ev.At.Equal(want[i]) {
			t.Fatalf("event %d: expected At %s, got %s", i, want[i], ev.At)
		}
	}
	if stats.events[0].Allowed != true || stats.events[1].Allowed != false {
		t.Fatalf("unexpected decisions: %+v", stats.events)
	}
}

func TestFormatSeconds_RoundsUp(t *testing.T) {
	if got := formatSeconds(2500 * time.Millisecond); got != "3" {
		t.Fatalf("expected 3, got %q", got)
	}
	if got := formatSeconds(0); got != "0" {
		t.Fatalf("expected 0, got %q", got)
	}
}
