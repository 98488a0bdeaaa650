package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/logger"
	"redenvelope/internal/models"
	"redenvelope/internal/storage"
)

// appendTimeout bounds a single background write to the result log.
const appendTimeout = 10 * time.Second

// ResultRecorder writes finished games to a ResultLog. Failures are logged
// and never reach the game.
type ResultRecorder struct {
	log     storage.ResultLog
	pending sync.WaitGroup
}

// NewResultRecorder returns a recorder appending to log.
func NewResultRecorder(log storage.ResultLog) *ResultRecorder {
	return &ResultRecorder{log: log}
}

// Record appends one result and reports whether it was stored.
func (r *ResultRecorder) Record(ctx context.Context, playerName string, totalPrize int, at time.Time, settings models.Settings) bool {
	if v := ValidatePlayerName(playerName); !v.IsValid {
		logger.Errorf("Not recording result, invalid player name: %s", v.Error)
		return false
	}
	if totalPrize < 0 {
		logger.Errorf("Not recording result, invalid total prize: %d", totalPrize)
		return false
	}

	err := r.log.Append(ctx, models.ResultRecord{
		PlayedAt:      at,
		PlayerName:    playerName,
		TotalPrize:    totalPrize,
		EnvelopeCount: settings.EnvelopeCount,
		MinPrize:      settings.MinPrize,
		MaxPrize:      settings.MaxPrize,
	})
	if err != nil {
		logger.Warningf("Failed to save game result: %v", err)
		return false
	}
	logger.Infof("Game result saved for %q: %d", playerName, totalPrize)
	return true
}

// Listener returns a CompletionListener that records in the background.
func (r *ResultRecorder) Listener() CompletionListener {
	return func(c models.Completion) {
		r.pending.Add(1)
		go func() {
			defer r.pending.Done()
			ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
			defer cancel()
			r.Record(ctx, c.Settings.PlayerName, c.TotalPrize, c.FinishedAt, c.Settings)
		}()
	}
}

// Wait blocks until every background write has finished.
func (r *ResultRecorder) Wait() {
	r.pending.Wait()
}

// ReadAll returns the full log text.
func (r *ResultRecorder) ReadAll(ctx context.Context) (string, error) {
	return r.log.ReadAll(ctx)
}

// Count returns the number of recorded games.
func (r *ResultRecorder) Count(ctx context.Context) (int, error) {
	return r.log.Count(ctx)
}
