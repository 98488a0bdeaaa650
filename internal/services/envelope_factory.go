package services

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"redenvelope/internal/models"
)

// Palette is the fixed set of cosmetic symbols printed on envelopes.
// An envelope's CosmeticID is an index into it.
var Palette = []string{"🐴", "🐎", "🦄", "🎠", "🐵", "🦓", "🐆", "🐅", "🦁", "🐯"}

// EnvelopeFactory creates the envelopes of a new session.
type EnvelopeFactory struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEnvelopeFactory returns a factory shuffling with src. A nil src uses the
// process-wide generator.
func NewEnvelopeFactory(src rand.Source) *EnvelopeFactory {
	f := &EnvelopeFactory{}
	if src != nil {
		f.rng = rand.New(src)
	}
	return f
}

// Generate builds count closed envelopes with ids envelope-0..envelope-(count-1).
// Cosmetics are taken from a shuffled copy of the palette, cycling through it
// again once count exceeds the palette size.
func (f *EnvelopeFactory) Generate(count int) []*models.Envelope {
	order := f.shuffledPalette()

	envelopes := make([]*models.Envelope, 0, count)
	for i := 0; i < count; i++ {
		cosmetic := order[i%len(order)]
		envelopes = append(envelopes, &models.Envelope{
			ID:         fmt.Sprintf("envelope-%d", i),
			CosmeticID: cosmetic,
			Symbol:     Palette[cosmetic],
		})
	}
	return envelopes
}

func (f *EnvelopeFactory) shuffledPalette() []int {
	order := make([]int, len(Palette))
	for i := range order {
		order[i] = i
	}
	swap := func(i, j int) { order[i], order[j] = order[j], order[i] }

	if f.rng == nil {
		rand.Shuffle(len(order), swap)
		return order
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rng.Shuffle(len(order), swap)
	return order
}

// FindByID returns the envelope with the given id, or nil.
func FindByID(envelopes []*models.Envelope, id string) *models.Envelope {
	for _, e := range envelopes {
		if e.ID == id {
			return e
		}
	}
	return nil
}
