package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"proof-gateway/middleware/ratelimit/infra"
)

func TestConcurrencyMiddleware_BusyWhenCompletionSlotsTaken(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once

	// segura a vaga como uma chamada lenta ao provedor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedOnce.Do(func() { close(started) })
		<-release
		w.WriteHeader(http.StatusOK)
	})

	var rejected []error
	var mu sync.Mutex
	h := ConcurrencyMiddleware(ConcurrencyOptions{
		Max:            1,
		AcquireTimeout: 25 * time.Millisecond,
		OnReject: func(_ *http.Request, err error) {
			mu.Lock()
			rejected = append(rejected, err)
			mu.Unlock()
		},
	})(next)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/api/proof", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected first request 200, got %d", w.Code)
		}
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		close(release)
		wg.Wait()
		t.Fatalf("first request never started")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/api/proof", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Fatalf("expected Retry-After 1, got %q", got)
	}
	if !strings.Contains(w.Body.String(), BusyDetail) {
		t.Fatalf("expected busy detail, got %q", w.Body.String())
	}

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(rejected) != 1 {
		t.Fatalf("expected one rejection, got %d", len(rejected))
	}
}

func TestConcurrencyMiddleware_ClientGoneWritesNothing(t *testing.T) {
	sem := infra.NewSemaphore(1)
	hold, _ := sem.Acquire(context.Background())
	defer hold()

	h := ConcurrencyMiddleware(ConcurrencyOptions{Slots: sem})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "http://example/api/proof", nil).WithContext(ctx))

	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", w.Body.String())
	}
	if sem.InFlight() != 1 {
		t.Fatalf("expected only the held slot in flight, got %d", sem.InFlight())
	}
}

func TestConcurrencyMiddleware_ReleasesSlotAfterHandler(t *testing.T) {
	sem := infra.NewSemaphore(2)
	h := ConcurrencyMiddleware(ConcurrencyOptions{Slots: sem})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sem.InFlight() != 1 {
			t.Errorf("expected 1 in flight inside handler, got %d", sem.InFlight())
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "http://example/api/proof", nil))
	if sem.InFlight() != 0 {
		t.Fatalf("expected slot released, got %d in flight", sem.InFlight())
	}
}

func TestConcurrencyMiddleware_DisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := ConcurrencyMiddleware(ConcurrencyOptions{Max: 0})(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("expected pass-through, got %d", w.Code)
	}
}
