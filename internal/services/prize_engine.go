package services

import (
	"errors"
	"math/rand/v2"
	"sync"
)

// ErrInvalidPrizeRange is returned when a prize is requested for a range that
// is not two positive integers with min <= max.
var ErrInvalidPrizeRange = errors.New("invalid prize range")

// specialPrizeShare is the top fraction of the range that counts as a special prize.
const specialPrizeShare = 0.25

// PrizeEngine draws prize amounts.
type PrizeEngine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPrizeEngine returns a PrizeEngine drawing from src. A nil src uses the
// process-wide generator.
func NewPrizeEngine(src rand.Source) *PrizeEngine {
	p := &PrizeEngine{}
	if src != nil {
		p.rng = rand.New(src)
	}
	return p
}

// RandomPrize returns a uniformly distributed amount in [minAmount, maxAmount].
func (p *PrizeEngine) RandomPrize(minAmount, maxAmount int) (int, error) {
	if !ValidPrizeRange(minAmount, maxAmount) {
		return 0, ErrInvalidPrizeRange
	}
	return minAmount + p.intN(maxAmount-minAmount+1), nil
}

func (p *PrizeEngine) intN(n int) int {
	if p.rng == nil {
		return rand.IntN(n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}

// ValidPrizeRange reports whether min and max form a usable prize range.
func ValidPrizeRange(minAmount, maxAmount int) bool {
	return minAmount > 0 && maxAmount > 0 && minAmount <= maxAmount
}

// IsSpecialPrize reports whether prize lands in the top quarter of [minAmount, maxAmount].
func IsSpecialPrize(prize, minAmount, maxAmount int) bool {
	threshold := float64(minAmount) + float64(maxAmount-minAmount)*(1-specialPrizeShare)
	return float64(prize) >= threshold
}
