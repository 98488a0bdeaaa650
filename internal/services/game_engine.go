package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/logger"
	"redenvelope/internal/models"
)

// CompletionListener is told once about every session that finishes.
type CompletionListener func(completion models.Completion)

// EngineOption configures a GameEngine at construction time.
type EngineOption func(*GameEngine)

// WithPrizeEngine sets the prize source.
func WithPrizeEngine(p *PrizeEngine) EngineOption {
	return func(g *GameEngine) { g.prizes = p }
}

// WithEnvelopeFactory sets the envelope source.
func WithEnvelopeFactory(f *EnvelopeFactory) EngineOption {
	return func(g *GameEngine) { g.factory = f }
}

// WithHooks appends hooks to the engine's chain, in order.
func WithHooks(hooks ...Hook) EngineOption {
	return func(g *GameEngine) { g.hooks = append(g.hooks, hooks...) }
}

// WithEffectSink routes presentation cues to sink.
func WithEffectSink(sink EffectSink) EngineOption {
	return func(g *GameEngine) { g.effects = sink }
}

// WithCompletionListener registers l to be called when a session completes.
func WithCompletionListener(l CompletionListener) EngineOption {
	return func(g *GameEngine) { g.listeners = append(g.listeners, l) }
}

// WithClock overrides the time source used for completion timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(g *GameEngine) { g.now = now }
}

// GameEngine owns one game session and moves it through
// idle -> active -> complete. It is safe for concurrent use, but callers are
// expected to serialize opens (see BusyGuard).
type GameEngine struct {
	mu          sync.Mutex
	phase       models.Phase
	settings    *models.Settings
	envelopes   []*models.Envelope
	totalPrize  int
	openedCount int
	// generation changes on every Initialize and Reset so that an open which
	// waited for a name can tell its session is gone.
	generation uint64

	prizes    *PrizeEngine
	factory   *EnvelopeFactory
	hooks     hookChain
	effects   EffectSink
	listeners []CompletionListener
	now       func() time.Time
}

// NewGameEngine returns an idle engine.
func NewGameEngine(opts ...EngineOption) *GameEngine {
	g := &GameEngine{
		phase: models.PhaseIdle,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.prizes == nil {
		g.prizes = NewPrizeEngine(nil)
	}
	if g.factory == nil {
		g.factory = NewEnvelopeFactory(nil)
	}
	return g
}

// Initialize starts a new session with settings. Invalid settings leave the
// engine untouched and return a *ValidationError listing every problem.
func (g *GameEngine) Initialize(settings models.Settings) error {
	if v := ValidateCompleteSettings(settings); !v.IsValid {
		return &ValidationError{Reasons: v.Errors}
	}

	envelopes := g.factory.Generate(settings.EnvelopeCount)

	g.mu.Lock()
	defer g.mu.Unlock()

	stored := settings
	g.settings = &stored
	g.envelopes = envelopes
	g.totalPrize = 0
	g.openedCount = 0
	g.phase = models.PhaseActive
	g.generation++

	logger.Infof("Game initialized: %d envelopes, prizes %d-%d, player %q",
		settings.EnvelopeCount, settings.MinPrize, settings.MaxPrize, settings.PlayerName)
	return nil
}

// OpenEnvelope opens the envelope with the given id on behalf of whoever
// names answers for. Unknown ids, opened envelopes and inactive sessions are
// ignored without error. A cancelled or invalid name leaves the session
// untouched. The only error is a prize range failure.
func (g *GameEngine) OpenEnvelope(ctx context.Context, envelopeID string, names NameRequester) (models.OpenResult, error) {
	gen, ok := g.openable(envelopeID)
	if !ok {
		return g.ignored(), nil
	}

	ctx, passed, err := g.hooks.beforeOpen(ctx, envelopeID)
	if err != nil {
		logger.Infof("Open of %s skipped: %v", envelopeID, err)
		result := g.ignored()
		g.hooks.afterOpen(ctx, passed, result)
		return result, nil
	}

	result, completion, openErr := g.open(ctx, envelopeID, gen, names)
	if result.Status == models.OpenStatusOpened {
		g.announce(result, completion)
	}
	g.hooks.afterOpen(ctx, passed, result)
	return result, openErr
}

// openable reports whether envelopeID can be opened right now, and the
// session generation the check was made against.
func (g *GameEngine) openable(envelopeID string) (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != models.PhaseActive {
		return 0, false
	}
	env := FindByID(g.envelopes, envelopeID)
	if env == nil || env.IsOpened {
		return 0, false
	}
	return g.generation, true
}

func (g *GameEngine) open(ctx context.Context, envelopeID string, gen uint64, names NameRequester) (models.OpenResult, *models.Completion, error) {
	name, err := names.RequestName(ctx, envelopeID)
	if err != nil {
		if !errors.Is(err, ErrNameCancelled) {
			logger.Infof("Name request for %s ended: %v", envelopeID, err)
		}
		return g.cancelled(), nil, nil
	}
	name = strings.TrimSpace(name)
	if v := ValidatePlayerName(name); !v.IsValid {
		logger.Infof("Rejected opener name for %s: %s", envelopeID, v.Error)
		return g.cancelled(), nil, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// The session may have been reset or replaced while we waited.
	if g.generation != gen || g.phase != models.PhaseActive {
		return models.OpenResult{Status: models.OpenStatusIgnored, TotalPrize: g.totalPrize}, nil, nil
	}
	env := FindByID(g.envelopes, envelopeID)
	if env == nil || env.IsOpened {
		return models.OpenResult{Status: models.OpenStatusIgnored, TotalPrize: g.totalPrize}, nil, nil
	}

	prize, err := g.prizes.RandomPrize(g.settings.MinPrize, g.settings.MaxPrize)
	if err != nil {
		return models.OpenResult{Status: models.OpenStatusIgnored, TotalPrize: g.totalPrize}, nil,
			fmt.Errorf("open %s: %w", envelopeID, err)
	}

	env.IsOpened = true
	env.PrizeAmount = prize
	env.OpenedBy = name
	g.openedCount++
	g.totalPrize = g.sumOpened()

	opened := *env
	result := models.OpenResult{
		Status:       models.OpenStatusOpened,
		Envelope:     &opened,
		SpecialPrize: IsSpecialPrize(prize, g.settings.MinPrize, g.settings.MaxPrize),
		TotalPrize:   g.totalPrize,
	}

	var completion *models.Completion
	if g.openedCount == len(g.envelopes) {
		g.phase = models.PhaseComplete
		result.Completed = true
		completion = &models.Completion{
			Settings:   *g.settings,
			TotalPrize: g.totalPrize,
			Envelopes:  g.copyEnvelopes(),
			FinishedAt: g.now(),
		}
		logger.Infof("Game complete: total prize %d over %d envelopes", g.totalPrize, len(g.envelopes))
	}
	return result, completion, nil
}

// announce emits effects and completion notifications outside the lock.
func (g *GameEngine) announce(result models.OpenResult, completion *models.Completion) {
	kind := models.EffectOpen
	if result.SpecialPrize {
		kind = models.EffectSpecialPrize
	}
	g.emit(models.Effect{Kind: kind, EnvelopeID: result.Envelope.ID, Amount: result.Envelope.PrizeAmount})

	if completion == nil {
		return
	}
	g.emit(models.Effect{Kind: models.EffectCompletion, Amount: completion.TotalPrize})
	for _, l := range g.listeners {
		l(*completion)
	}
}

func (g *GameEngine) emit(effect models.Effect) {
	if g.effects != nil {
		g.effects.Emit(effect)
	}
}

func (g *GameEngine) ignored() models.OpenResult {
	return models.OpenResult{Status: models.OpenStatusIgnored, TotalPrize: g.TotalPrize()}
}

func (g *GameEngine) cancelled() models.OpenResult {
	return models.OpenResult{Status: models.OpenStatusCancelled, TotalPrize: g.TotalPrize()}
}

// Reset discards the current session. It always succeeds.
func (g *GameEngine) Reset() {
	g.hooks.beforeReset()

	g.mu.Lock()
	g.phase = models.PhaseIdle
	g.settings = nil
	g.envelopes = nil
	g.totalPrize = 0
	g.openedCount = 0
	g.generation++
	g.mu.Unlock()

	g.hooks.afterReset()
}

// StartNewGameWithSameSettings restarts with the current settings, or resets
// when there are none.
func (g *GameEngine) StartNewGameWithSameSettings() error {
	g.mu.Lock()
	var settings *models.Settings
	if g.settings != nil {
		s := *g.settings
		settings = &s
	}
	g.mu.Unlock()

	if settings == nil {
		g.Reset()
		return nil
	}
	return g.Initialize(*settings)
}

// TotalPrize returns the running prize total.
func (g *GameEngine) TotalPrize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.totalPrize
}

// Phase returns the current lifecycle phase.
func (g *GameEngine) Phase() models.Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// RecomputeTotalPrize re-aggregates the total from the envelopes, stores it
// and returns it.
func (g *GameEngine) RecomputeTotalPrize() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.totalPrize = g.sumOpened()
	return g.totalPrize
}

func (g *GameEngine) sumOpened() int {
	total := 0
	for _, e := range g.envelopes {
		if e.IsOpened {
			total += e.PrizeAmount
		}
	}
	return total
}

// Statistics returns the derived counters of the current session.
func (g *GameEngine) Statistics() models.Statistics {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statistics()
}

func (g *GameEngine) statistics() models.Statistics {
	opened := 0
	for _, e := range g.envelopes {
		if e.IsOpened {
			opened++
		}
	}
	stats := models.Statistics{
		TotalEnvelopes: len(g.envelopes),
		OpenedCount:    opened,
		RemainingCount: len(g.envelopes) - opened,
		TotalPrize:     g.totalPrize,
		IsComplete:     len(g.envelopes) > 0 && opened == len(g.envelopes),
		Phase:          g.phase,
	}
	if opened > 0 {
		stats.AveragePrize = float64(g.totalPrize) / float64(opened)
	}
	return stats
}

// CanRestart reports whether there is a session to restart or abandon.
func (g *GameEngine) CanRestart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase == models.PhaseActive || g.phase == models.PhaseComplete
}

// CompletionStatus summarizes progress through the current session.
func (g *GameEngine) CompletionStatus() models.CompletionStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	stats := g.statistics()
	status := models.CompletionStatus{
		IsComplete:         stats.IsComplete,
		RemainingEnvelopes: stats.RemainingCount,
		CanRestart:         g.phase == models.PhaseActive || g.phase == models.PhaseComplete,
		Phase:              g.phase,
	}
	if stats.TotalEnvelopes > 0 {
		status.CompletionPercentage = int(math.Round(float64(stats.OpenedCount) / float64(stats.TotalEnvelopes) * 100))
	}
	return status
}

// Snapshot returns a deep copy of the session. Changing it never affects the engine.
func (g *GameEngine) Snapshot() models.Session {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := models.Session{
		Phase:       g.phase,
		Envelopes:   g.copyEnvelopes(),
		TotalPrize:  g.totalPrize,
		OpenedCount: g.openedCount,
	}
	if g.settings != nil {
		settings := *g.settings
		s.Settings = &settings
	}
	return s
}

func (g *GameEngine) copyEnvelopes() []models.Envelope {
	out := make([]models.Envelope, 0, len(g.envelopes))
	for _, e := range g.envelopes {
		out = append(out, *e)
	}
	return out
}

// Reconcile brings the counters back in line with the envelopes and reports
// every correction made, along with any malformed envelope.
func (g *GameEngine) Reconcile() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var issues []string
	if total := g.sumOpened(); total != g.totalPrize {
		issues = append(issues, fmt.Sprintf("total prize corrected from %d to %d", g.totalPrize, total))
		g.totalPrize = total
	}
	opened := 0
	for _, e := range g.envelopes {
		if e.IsOpened {
			opened++
		}
		for _, msg := range ValidateEnvelope(*e) {
			issues = append(issues, fmt.Sprintf("envelope %s: %s", e.ID, msg))
		}
	}
	if opened != g.openedCount {
		issues = append(issues, fmt.Sprintf("opened count corrected from %d to %d", g.openedCount, opened))
		g.openedCount = opened
	}

	for _, issue := range issues {
		logger.Warningf("Game state inconsistency: %s", issue)
	}
	return issues
}
