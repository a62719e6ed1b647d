package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stuckSlots struct{}

func (stuckSlots) Acquire(ctx context.Context) (func(), bool) {
	<-ctx.Done()
	return nil, false
}
func (stuckSlots) InFlight() int { return 1 }
func (stuckSlots) Capacity() int { return 1 }

type countingSlots struct {
	acquired int
	released int
}

func (c *countingSlots) Acquire(context.Context) (func(), bool) {
	c.acquired++
	return func() { c.released++ }, true
}
func (c *countingSlots) InFlight() int { return c.acquired - c.released }
func (c *countingSlots) Capacity() int { return 1 }

func TestSlotService_NoSlotsConfigured(t *testing.T) {
	release, err := SlotService{}.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	release()
}

func TestSlotService_TimeoutIsBusy(t *testing.T) {
	svc := SlotService{Slots: stuckSlots{}, AcquireTimeout: 10 * time.Millisecond}

	release, err := svc.Acquire(context.Background())
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	release()
}

func TestSlotService_ClientGoneIsContextError(t *testing.T) {
	svc := SlotService{Slots: stuckSlots{}, AcquireTimeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSlotService_DelegatesAcquireAndRelease(t *testing.T) {
	slots := &countingSlots{}
	svc := SlotService{Slots: slots}

	release, err := svc.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots.InFlight() != 1 {
		t.Fatalf("expected 1 in flight")
	}
	release()
	if slots.acquired != 1 || slots.released != 1 {
		t.Fatalf("expected one acquire/release, got %d/%d", slots.acquired, slots.released)
	}
}
