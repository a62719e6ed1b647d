package ratelimit

import (
	"errors"
	"net/http"
	"time"

	"proof-gateway/middleware/ratelimit/application"
	"proof-gateway/middleware/ratelimit/domain"
	"proof-gateway/middleware/ratelimit/infra"
)

const BusyDetail = "Server busy. Try again later."

type ConcurrencyOptions struct {
	// Max <= 0 desliga o middleware.
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration

	// Slots substitui o semáforo interno (testes, pools compartilhados).
	Slots domain.CompletionSlots

	OnReject func(r *http.Request, err error)
}

// ConcurrencyMiddleware segura o request até abrir uma vaga de completion.
// Timeout vira RejectStatus (503) com Retry-After; cliente que desistiu
// não recebe corpo.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 && opts.Slots == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	slots := opts.Slots
	if slots == nil {
		slots = infra.NewSemaphore(opts.Max)
	}
	onReject := opts.OnReject
	if onReject == nil {
		onReject = func(*http.Request, error) {}
	}

	svc := application.SlotService{Slots: slots, AcquireTimeout: opts.AcquireTimeout}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			defer release()

			if err != nil {
				onReject(r, err)
				if !errors.Is(err, application.ErrBusy) {
					return
				}
				w.Header().Set("Retry-After", "1")
				writeDetail(w, opts.RejectStatus, BusyDetail)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
