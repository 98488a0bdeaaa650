package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"redenvelope/internal/models"
)

func TestNamePrompt(t *testing.T) {
	t.Run("submit", func(t *testing.T) {
		p := NewNamePrompt()
		if !p.Submit("Alice") {
			t.Fatal("first Submit should win")
		}
		if p.Submit("Bob") || p.Cancel() {
			t.Error("prompt resolved twice")
		}
		name, err := p.RequestName(context.Background(), "envelope-0")
		if err != nil || name != "Alice" {
			t.Errorf("RequestName() = %q, %v", name, err)
		}
	})

	t.Run("cancel", func(t *testing.T) {
		p := NewNamePrompt()
		p.Cancel()
		if _, err := p.RequestName(context.Background(), "envelope-0"); !errors.Is(err, ErrNameCancelled) {
			t.Errorf("expected ErrNameCancelled, got %v", err)
		}
	})

	t.Run("context deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := NewNamePrompt().RequestName(ctx, "envelope-0"); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}
	})

	t.Run("submit from another goroutine", func(t *testing.T) {
		p := NewNamePrompt()
		go p.Submit("Late")
		name, err := p.RequestName(context.Background(), "envelope-0")
		if err != nil || name != "Late" {
			t.Errorf("RequestName() = %q, %v", name, err)
		}
	})
}

func TestEffectBuffer(t *testing.T) {
	b := &EffectBuffer{}
	if got := b.Drain(); got == nil || len(got) != 0 {
		t.Errorf("Drain() on empty buffer = %#v, want empty slice", got)
	}

	b.Emit(models.Effect{Kind: models.EffectOpen, EnvelopeID: "envelope-0", Amount: 5})
	b.Emit(models.Effect{Kind: models.EffectCompletion, Amount: 5})
	got := b.Drain()
	if len(got) != 2 || got[0].Kind != models.EffectOpen || got[1].Kind != models.EffectCompletion {
		t.Errorf("unexpected effects %+v", got)
	}
	if len(b.Drain()) != 0 {
		t.Error("Drain should empty the buffer")
	}

	b.Emit(models.Effect{Kind: models.EffectOpen})
	b.Clear()
	if len(b.Drain()) != 0 {
		t.Error("Clear should drop pending effects")
	}
}
