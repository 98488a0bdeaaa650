package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/logger"
	"golang.org/x/text/language"
	"redenvelope/internal/models"
)

// GameSession holds the game of a single user/tenant along with the state
// that lives at the boundary between the engine and the client.
type GameSession struct {
	Engine       *GameEngine
	Effects      *EffectBuffer
	Busy         *BusyGuard
	SoundEnabled bool
	LastActivity time.Time
}

// HealthReport is the result of GameService.HealthCheck.
type HealthReport struct {
	Overall   string    `json:"overall"`
	Timestamp time.Time `json:"timestamp"`
	Sessions  int       `json:"sessions"`
	Issues    []string  `json:"issues"`
	Warnings  []string  `json:"warnings"`
}

// largeGameEnvelopes is the envelope count above which a session is flagged
// in the health report.
const largeGameEnvelopes = 100

// DefaultMaxEnvelopeCount caps the envelopes of a single game unless
// WithMaxEnvelopeCount says otherwise.
const DefaultMaxEnvelopeCount = 1000

// ServiceOption configures a GameService.
type ServiceOption func(*GameService)

// WithDefaultSettings sets the settings offered to new players.
func WithDefaultSettings(s models.Settings) ServiceOption {
	return func(svc *GameService) { svc.defaults = s }
}

// WithReportLanguage sets the language used to format report numbers.
func WithReportLanguage(tag language.Tag) ServiceOption {
	return func(svc *GameService) { svc.lang = tag }
}

// WithEngineOptions adds options applied to every engine the service creates.
func WithEngineOptions(opts ...EngineOption) ServiceOption {
	return func(svc *GameService) { svc.engineOpts = append(svc.engineOpts, opts...) }
}

// WithMaxEnvelopeCount sets the largest game a tenant may start.
func WithMaxEnvelopeCount(n int) ServiceOption {
	return func(svc *GameService) { svc.maxEnvelopes = n }
}

// WithServiceClock overrides the time source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(svc *GameService) { svc.now = now }
}

// GameService manages one game session per tenant.
type GameService struct {
	mu         sync.RWMutex
	sessions   map[string]*GameSession // Key: tenantID
	recorder   *ResultRecorder
	defaults   models.Settings
	lang       language.Tag
	engineOpts []EngineOption
	now        func() time.Time

	// maxEnvelopes bounds what a tenant can make the server allocate.
	maxEnvelopes int
}

// DefaultSettings are offered when nothing else is configured.
var DefaultSettings = models.Settings{
	EnvelopeCount: 10,
	MinPrize:      10,
	MaxPrize:      100,
	SoundEnabled:  true,
}

// NewGameService creates a GameService recording finished games with recorder.
func NewGameService(recorder *ResultRecorder, opts ...ServiceOption) *GameService {
	svc := &GameService{
		sessions: make(map[string]*GameSession),
		recorder: recorder,
		defaults: DefaultSettings,
		lang:     language.Thai,
		now:      time.Now,

		maxEnvelopes: DefaultMaxEnvelopeCount,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// getSession returns the session for a tenant, creating one if it doesn't exist.
func (s *GameService) getSession(tenantID string) *GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[tenantID]
	if !exists {
		session = s.newSession(tenantID)
		s.sessions[tenantID] = session
	}
	session.LastActivity = s.now()
	return session
}

func (s *GameService) newSession(tenantID string) *GameSession {
	session := &GameSession{
		Effects: &EffectBuffer{},
		Busy:    &BusyGuard{},
	}

	opts := []EngineOption{
		WithEffectSink(session.Effects),
		WithHooks(session.Busy.Hook(), s.consistencyHook(tenantID, session)),
	}
	if s.recorder != nil {
		opts = append(opts, WithCompletionListener(s.recorder.Listener()))
	}
	opts = append(opts, WithClock(s.now))
	opts = append(opts, s.engineOpts...)

	session.Engine = NewGameEngine(opts...)
	return session
}

// consistencyHook re-checks the session after every successful open and
// clears stale effects on reset.
func (s *GameService) consistencyHook(tenantID string, session *GameSession) Hook {
	return Hook{
		AfterOpen: func(_ context.Context, result models.OpenResult) {
			if result.Status != models.OpenStatusOpened {
				return
			}
			if issues := session.Engine.Reconcile(); len(issues) > 0 {
				logger.Warningf("Tenant %s: corrected %d inconsistencies", tenantID, len(issues))
			}
		},
		AfterReset: session.Effects.Clear,
	}
}

// DefaultSettings returns the settings offered to new players.
func (s *GameService) DefaultSettings() models.Settings {
	return s.defaults
}

// ValidateSettings checks settings like the package-level ValidateSettings
// and also enforces the service's envelope limit.
func (s *GameService) ValidateSettings(envelopeCount, minPrize, maxPrize int, playerName *string) ValidationResult {
	result := ValidateSettings(envelopeCount, minPrize, maxPrize, playerName)
	if envelopeCount > s.maxEnvelopes {
		result.Errors = append(result.Errors, fmt.Sprintf("envelope count must be at most %d", s.maxEnvelopes))
		result.IsValid = false
	}
	return result
}

// StartGame initializes the tenant's game with settings.
func (s *GameService) StartGame(tenantID string, settings models.Settings) error {
	name := settings.PlayerName
	if v := s.ValidateSettings(settings.EnvelopeCount, settings.MinPrize, settings.MaxPrize, &name); !v.IsValid {
		return &ValidationError{Reasons: v.Errors}
	}
	session := s.getSession(tenantID)
	if err := session.Engine.Initialize(settings); err != nil {
		return err
	}
	session.Effects.Clear()
	s.mu.Lock()
	session.SoundEnabled = settings.SoundEnabled
	s.mu.Unlock()
	return nil
}

// RestartGame starts a new game with the tenant's current settings, or
// resets when there are none.
func (s *GameService) RestartGame(tenantID string) error {
	session := s.getSession(tenantID)
	session.Effects.Clear()
	return session.Engine.StartNewGameWithSameSettings()
}

// ResetGame returns the tenant's game to idle.
func (s *GameService) ResetGame(tenantID string) {
	s.getSession(tenantID).Engine.Reset()
}

// OpenEnvelope opens an envelope for the tenant and returns the outcome with
// the effects the client should play.
func (s *GameService) OpenEnvelope(ctx context.Context, tenantID, envelopeID string, names NameRequester) (models.OpenResult, []models.Effect, error) {
	session := s.getSession(tenantID)
	result, err := session.Engine.OpenEnvelope(ctx, envelopeID, names)
	return result, session.Effects.Drain(), err
}

// DrainEffects returns and clears the effects queued for the tenant.
func (s *GameService) DrainEffects(tenantID string) []models.Effect {
	return s.getSession(tenantID).Effects.Drain()
}

// Snapshot returns a copy of the tenant's game.
func (s *GameService) Snapshot(tenantID string) models.Session {
	return s.getSession(tenantID).Engine.Snapshot()
}

// Statistics returns the tenant's game statistics.
func (s *GameService) Statistics(tenantID string) models.Statistics {
	return s.getSession(tenantID).Engine.Statistics()
}

// CompletionStatus returns the tenant's progress.
func (s *GameService) CompletionStatus(tenantID string) models.CompletionStatus {
	return s.getSession(tenantID).Engine.CompletionStatus()
}

// RecomputeTotal re-aggregates the tenant's total prize.
func (s *GameService) RecomputeTotal(tenantID string) int {
	return s.getSession(tenantID).Engine.RecomputeTotalPrize()
}

// SetSound toggles whether the tenant's client should play audio.
func (s *GameService) SetSound(tenantID string, enabled bool) {
	session := s.getSession(tenantID)
	s.mu.Lock()
	session.SoundEnabled = enabled
	s.mu.Unlock()
}

// SoundEnabled reports the tenant's audio preference.
func (s *GameService) SoundEnabled(tenantID string) bool {
	session := s.getSession(tenantID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return session.SoundEnabled
}

// Report builds the detailed report of the tenant's game.
func (s *GameService) Report(tenantID string) string {
	engine := s.getSession(tenantID).Engine
	return BuildReport(engine.Snapshot(), engine.Statistics(), s.now(), s.lang)
}

// Results returns the full result log.
func (s *GameService) Results(ctx context.Context) (string, error) {
	if s.recorder == nil {
		return "", nil
	}
	return s.recorder.ReadAll(ctx)
}

// ResultCount returns the number of recorded games.
func (s *GameService) ResultCount(ctx context.Context) (int, error) {
	if s.recorder == nil {
		return 0, nil
	}
	return s.recorder.Count(ctx)
}

// HealthCheck validates every live session and the result log.
func (s *GameService) HealthCheck(ctx context.Context) HealthReport {
	report := HealthReport{
		Overall:   "healthy",
		Timestamp: s.now(),
		Issues:    []string{},
		Warnings:  []string{},
	}

	s.mu.RLock()
	engines := make(map[string]*GameEngine, len(s.sessions))
	for tenantID, session := range s.sessions {
		engines[tenantID] = session.Engine
	}
	s.mu.RUnlock()
	report.Sessions = len(engines)

	for tenantID, engine := range engines {
		snapshot := engine.Snapshot()
		for _, e := range ValidateSession(snapshot) {
			report.Warnings = append(report.Warnings, tenantID+": "+e)
		}
		if len(snapshot.Envelopes) > largeGameEnvelopes {
			report.Warnings = append(report.Warnings, tenantID+": large number of envelopes")
		}
	}

	if _, err := s.ResultCount(ctx); err != nil {
		report.Issues = append(report.Issues, "result log unavailable: "+err.Error())
	}

	switch {
	case len(report.Issues) > 0:
		report.Overall = "unhealthy"
	case len(report.Warnings) > 0:
		report.Overall = "degraded"
	}
	return report
}

// CleanUpInactiveSessions removes sessions that have been inactive for longer than ttl.
func (s *GameService) CleanUpInactiveSessions(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tenantID, session := range s.sessions {
		if s.now().Sub(session.LastActivity) > ttl {
			logger.Infof("Removing inactive session for tenant: %s", tenantID)
			delete(s.sessions, tenantID)
		}
	}
}

// ClearSession removes all data associated with a specific tenant.
func (s *GameService) ClearSession(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tenantID)
	logger.Infof("Cleared session for tenant: %s", tenantID)
}

// SessionCount returns the number of live sessions.
func (s *GameService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Wait blocks until pending result log writes have finished.
func (s *GameService) Wait() {
	if s.recorder != nil {
		s.recorder.Wait()
	}
}
