package services

import (
	"context"
	"errors"
	"sync"
)

// ErrNameCancelled reports that the opener declined to give a name.
var ErrNameCancelled = errors.New("name entry cancelled")

// NameRequester asks whoever is opening an envelope for their name.
// Implementations return ErrNameCancelled when the opener backs out.
type NameRequester interface {
	RequestName(ctx context.Context, envelopeID string) (string, error)
}

// NameRequesterFunc adapts a function to NameRequester.
type NameRequesterFunc func(ctx context.Context, envelopeID string) (string, error)

func (f NameRequesterFunc) RequestName(ctx context.Context, envelopeID string) (string, error) {
	return f(ctx, envelopeID)
}

type nameReply struct {
	name      string
	cancelled bool
}

// NamePrompt is a one-shot answer to a name request. The first Submit or
// Cancel wins; RequestName waits for it or for ctx to end.
type NamePrompt struct {
	once  sync.Once
	reply chan nameReply
}

// NewNamePrompt returns an unresolved prompt.
func NewNamePrompt() *NamePrompt {
	return &NamePrompt{reply: make(chan nameReply, 1)}
}

// Submit resolves the prompt with name. It reports false if the prompt was
// already resolved.
func (p *NamePrompt) Submit(name string) bool {
	return p.resolve(nameReply{name: name})
}

// Cancel resolves the prompt as cancelled.
func (p *NamePrompt) Cancel() bool {
	return p.resolve(nameReply{cancelled: true})
}

func (p *NamePrompt) resolve(r nameReply) bool {
	resolved := false
	p.once.Do(func() {
		p.reply <- r
		resolved = true
	})
	return resolved
}

// RequestName blocks until the prompt is resolved.
func (p *NamePrompt) RequestName(ctx context.Context, _ string) (string, error) {
	select {
	case r := <-p.reply:
		if r.cancelled {
			return "", ErrNameCancelled
		}
		return r.name, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
