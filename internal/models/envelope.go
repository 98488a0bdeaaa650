package models

import "time"

// Phase is the lifecycle stage of a game session.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseActive   Phase = "active"
	PhaseComplete Phase = "complete"
)

// Settings holds the parameters a session is started with.
// A session never changes its settings once it is active.
type Settings struct {
	EnvelopeCount int    `json:"envelopeCount"`
	MinPrize      int    `json:"minPrize"`
	MaxPrize      int    `json:"maxPrize"`
	SoundEnabled  bool   `json:"soundEnabled"`
	PlayerName    string `json:"playerName"`
}

// Envelope is one prize-bearing unit of a session.
// OpenedBy is empty until the envelope has been opened.
type Envelope struct {
	ID          string `json:"id"`
	CosmeticID  int    `json:"cosmeticId"`
	Symbol      string `json:"symbol"`
	IsOpened    bool   `json:"isOpened"`
	PrizeAmount int    `json:"prizeAmount"`
	OpenedBy    string `json:"openedBy,omitempty"`
}

// Session is a copy of the full game state.
type Session struct {
	Phase       Phase      `json:"phase"`
	Settings    *Settings  `json:"settings"`
	Envelopes   []Envelope `json:"envelopes"`
	TotalPrize  int        `json:"totalPrize"`
	OpenedCount int        `json:"openedCount"`
}

// Statistics is the derived, read-only view of a session.
type Statistics struct {
	TotalEnvelopes int     `json:"totalEnvelopes"`
	OpenedCount    int     `json:"openedCount"`
	RemainingCount int     `json:"remainingCount"`
	TotalPrize     int     `json:"totalPrize"`
	AveragePrize   float64 `json:"averagePrize"`
	IsComplete     bool    `json:"isComplete"`
	Phase          Phase   `json:"phase"`
}

// CompletionStatus summarizes how far a session has progressed.
type CompletionStatus struct {
	IsComplete           bool  `json:"isComplete"`
	CompletionPercentage int   `json:"completionPercentage"`
	RemainingEnvelopes   int   `json:"remainingEnvelopes"`
	CanRestart           bool  `json:"canRestart"`
	Phase                Phase `json:"phase"`
}

// OpenStatus tells what an open attempt did.
type OpenStatus string

const (
	OpenStatusOpened    OpenStatus = "opened"
	OpenStatusIgnored   OpenStatus = "ignored"
	OpenStatusCancelled OpenStatus = "cancelled"
)

// OpenResult is the outcome of a single open attempt.
// Envelope is nil unless Status is OpenStatusOpened.
type OpenResult struct {
	Status       OpenStatus `json:"status"`
	Envelope     *Envelope  `json:"envelope,omitempty"`
	SpecialPrize bool       `json:"specialPrize"`
	Completed    bool       `json:"completed"`
	TotalPrize   int        `json:"totalPrize"`
}

// EffectKind identifies a sound/animation cue for the presentation layer.
type EffectKind string

const (
	EffectOpen         EffectKind = "open"
	EffectSpecialPrize EffectKind = "special-prize"
	EffectCompletion   EffectKind = "completion"
)

// Effect is a fire-and-forget presentation cue.
type Effect struct {
	Kind       EffectKind `json:"kind"`
	EnvelopeID string     `json:"envelopeId,omitempty"`
	Amount     int        `json:"amount"`
}

// Completion is delivered once when the last envelope of a session is opened.
type Completion struct {
	Settings   Settings
	TotalPrize int
	Envelopes  []Envelope
	FinishedAt time.Time
}

// ResultRecord is one line of the result log.
type ResultRecord struct {
	PlayedAt      time.Time
	PlayerName    string
	TotalPrize    int
	EnvelopeCount int
	MinPrize      int
	MaxPrize      int
}
