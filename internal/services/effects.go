package services

import (
	"sync"

	"redenvelope/internal/models"
)

// EffectSink receives presentation cues. Emit must not block.
type EffectSink interface {
	Emit(effect models.Effect)
}

// EffectBuffer queues effects until the presentation layer drains them.
type EffectBuffer struct {
	mu      sync.Mutex
	pending []models.Effect
}

// Emit implements EffectSink.
func (b *EffectBuffer) Emit(effect models.Effect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, effect)
}

// Drain returns and clears the queued effects.
func (b *EffectBuffer) Drain() []models.Effect {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	if out == nil {
		out = []models.Effect{}
	}
	return out
}

// Clear drops queued effects without returning them.
func (b *EffectBuffer) Clear() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}
