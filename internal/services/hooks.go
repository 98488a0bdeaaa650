package services

import (
	"context"
	"errors"
	"sync/atomic"

	"redenvelope/internal/models"
)

// ErrBusy is returned by BusyGuard when another open is still in flight.
var ErrBusy = errors.New("an envelope is already being opened")

// Hook wraps engine operations with cross-cutting behaviour. Any field may
// be nil. Before hooks run in registration order, after hooks in reverse.
type Hook struct {
	// BeforeOpen may veto an open attempt by returning an error; the attempt
	// is then reported as ignored. The returned context is passed to later
	// hooks and to AfterOpen, so a hook can carry per-attempt state.
	BeforeOpen func(ctx context.Context, envelopeID string) (context.Context, error)
	// AfterOpen runs for every hook whose BeforeOpen passed, whatever the outcome.
	AfterOpen   func(ctx context.Context, result models.OpenResult)
	BeforeReset func()
	AfterReset  func()
}

type hookChain []Hook

// beforeOpen runs BeforeOpen hooks until one fails. It returns the context
// built up by the hooks and the number of hooks that passed, so their
// AfterOpen can be unwound.
func (c hookChain) beforeOpen(ctx context.Context, envelopeID string) (context.Context, int, error) {
	for i, h := range c {
		if h.BeforeOpen == nil {
			continue
		}
		next, err := h.BeforeOpen(ctx, envelopeID)
		if err != nil {
			return ctx, i, err
		}
		if next != nil {
			ctx = next
		}
	}
	return ctx, len(c), nil
}

func (c hookChain) afterOpen(ctx context.Context, passed int, result models.OpenResult) {
	for i := passed - 1; i >= 0; i-- {
		if c[i].AfterOpen != nil {
			c[i].AfterOpen(ctx, result)
		}
	}
}

func (c hookChain) beforeReset() {
	for _, h := range c {
		if h.BeforeReset != nil {
			h.BeforeReset()
		}
	}
}

func (c hookChain) afterReset() {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].AfterReset != nil {
			c[i].AfterReset()
		}
	}
}

// BusyGuard is the per-session flag that keeps a second open from starting
// while one is waiting for a name or settling. Each acquisition holds its own
// token, so an open that outlived a reset cannot release a newer holder.
type BusyGuard struct {
	owner  atomic.Uint64 // token of the open in flight, 0 when free
	tokens atomic.Uint64
}

type busyTokenKey struct{ guard *BusyGuard }

// Busy reports whether an open is in flight.
func (b *BusyGuard) Busy() bool {
	return b.owner.Load() != 0
}

// Release clears the flag whoever holds it.
func (b *BusyGuard) Release() {
	b.owner.Store(0)
}

// Hook returns the engine hook enforcing the guard.
func (b *BusyGuard) Hook() Hook {
	return Hook{
		BeforeOpen: func(ctx context.Context, _ string) (context.Context, error) {
			token := b.tokens.Add(1)
			if !b.owner.CompareAndSwap(0, token) {
				return ctx, ErrBusy
			}
			return context.WithValue(ctx, busyTokenKey{b}, token), nil
		},
		AfterOpen: func(ctx context.Context, _ models.OpenResult) {
			if token, ok := ctx.Value(busyTokenKey{b}).(uint64); ok {
				b.owner.CompareAndSwap(token, 0)
			}
		},
		AfterReset: b.Release,
	}
}
