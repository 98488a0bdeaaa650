package services

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"redenvelope/internal/models"
)

// MaxPlayerNameLength is the longest accepted player or opener name, in characters.
const MaxPlayerNameLength = 50

const (
	msgEnvelopeCount  = "envelope count must be a positive integer"
	msgMinPrize       = "minimum prize must be a positive integer"
	msgMaxPrize       = "maximum prize must be a positive integer"
	msgPrizeOrder     = "prize range is invalid: minimum prize must be less than or equal to maximum prize"
	msgPrizeOverflow  = "maximum prize is too large for the number of envelopes"
	msgNameRequired   = "player name is required"
	msgNameTooLong    = "player name must be 50 characters or less"
	msgNameForbidden  = "player name contains invalid characters"
	forbiddenNameRune = `<>:"/\|?*,`
)

// ValidationResult collects every rule a set of settings violates.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// NameValidation is the single-error result of ValidatePlayerName.
type NameValidation struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// ValidationError is returned when settings are rejected. Reasons lists
// every violated rule, in the order they were checked.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid settings: %s", strings.Join(e.Reasons, "; "))
}

// ValidateSettings checks the numeric settings and, when playerName is not
// nil, the player name. It never stops at the first failure.
func ValidateSettings(envelopeCount, minPrize, maxPrize int, playerName *string) ValidationResult {
	errs := make([]string, 0)

	if envelopeCount <= 0 {
		errs = append(errs, msgEnvelopeCount)
	}
	if minPrize <= 0 {
		errs = append(errs, msgMinPrize)
	}
	if maxPrize <= 0 {
		errs = append(errs, msgMaxPrize)
	}
	if minPrize > maxPrize {
		errs = append(errs, msgPrizeOrder)
	}
	// The total of a finished game must fit in an int.
	if envelopeCount > 0 && maxPrize > math.MaxInt/envelopeCount {
		errs = append(errs, msgPrizeOverflow)
	}

	if playerName != nil {
		if v := ValidatePlayerName(*playerName); !v.IsValid {
			errs = append(errs, v.Error)
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateCompleteSettings validates a full settings value, player name included.
func ValidateCompleteSettings(settings models.Settings) ValidationResult {
	name := settings.PlayerName
	return ValidateSettings(settings.EnvelopeCount, settings.MinPrize, settings.MaxPrize, &name)
}

// ValidatePlayerName checks a player or opener name. Surrounding whitespace
// is ignored.
func ValidatePlayerName(name string) NameValidation {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return NameValidation{Error: msgNameRequired}
	}
	if utf8.RuneCountInString(trimmed) > MaxPlayerNameLength {
		return NameValidation{Error: msgNameTooLong}
	}
	for _, r := range trimmed {
		if r < 0x20 || strings.ContainsRune(forbiddenNameRune, r) {
			return NameValidation{Error: msgNameForbidden}
		}
	}
	return NameValidation{IsValid: true}
}

// ValidateEnvelope reports structural problems with a single envelope.
func ValidateEnvelope(e models.Envelope) []string {
	var errs []string
	if e.ID == "" {
		errs = append(errs, "id must be a non-empty string")
	}
	if e.CosmeticID < 0 || e.CosmeticID >= len(Palette) {
		errs = append(errs, "cosmeticId must index the palette")
	}
	if e.PrizeAmount < 0 {
		errs = append(errs, "prizeAmount must be a non-negative integer")
	}
	if !e.IsOpened && (e.PrizeAmount != 0 || e.OpenedBy != "") {
		errs = append(errs, "unopened envelope must not carry a prize or opener")
	}
	return errs
}

// ValidateSession reports every structural problem with a session copy,
// prefixing nested errors with their location.
func ValidateSession(s models.Session) []string {
	var errs []string

	switch s.Phase {
	case models.PhaseIdle, models.PhaseActive, models.PhaseComplete:
	default:
		errs = append(errs, fmt.Sprintf("phase %q is not one of idle, active, complete", s.Phase))
	}

	if s.Settings != nil {
		for _, e := range ValidateCompleteSettings(*s.Settings).Errors {
			errs = append(errs, "settings."+e)
		}
	}
	if s.Phase == models.PhaseIdle && (s.Settings != nil || len(s.Envelopes) > 0) {
		errs = append(errs, "idle session must not hold settings or envelopes")
	}
	if s.Phase == models.PhaseActive && s.Settings == nil {
		errs = append(errs, "active session must hold settings")
	}

	seen := make(map[string]bool, len(s.Envelopes))
	opened, total := 0, 0
	for i, env := range s.Envelopes {
		for _, e := range ValidateEnvelope(env) {
			errs = append(errs, fmt.Sprintf("envelopes[%d].%s", i, e))
		}
		if seen[env.ID] {
			errs = append(errs, fmt.Sprintf("envelopes[%d].id %q is duplicated", i, env.ID))
		}
		seen[env.ID] = true
		if env.IsOpened {
			opened++
			total += env.PrizeAmount
		}
	}

	if s.TotalPrize < 0 {
		errs = append(errs, "totalPrize must be a non-negative integer")
	}
	if s.OpenedCount < 0 || s.OpenedCount > len(s.Envelopes) {
		errs = append(errs, "openedCount is out of range")
	}
	if s.OpenedCount != opened {
		errs = append(errs, fmt.Sprintf("openedCount %d does not match %d opened envelopes", s.OpenedCount, opened))
	}
	if s.TotalPrize != total {
		errs = append(errs, fmt.Sprintf("totalPrize %d does not match envelope sum %d", s.TotalPrize, total))
	}

	return errs
}
