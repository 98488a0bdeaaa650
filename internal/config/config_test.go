package config

import (
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.ResultLogDriver != DriverFile || cfg.SessionTTL != time.Hour || cfg.MaxEnvelopeCount != 1000 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Language().String() != language.MustParse("th-TH").String() {
		t.Errorf("Language() = %v, want th-TH", cfg.Language())
	}
	s := cfg.DefaultSettings()
	if s.EnvelopeCount != 10 || s.MinPrize != 10 || s.MaxPrize != 100 || !s.SoundEnabled || s.PlayerName != "" {
		t.Errorf("unexpected default settings %+v", s)
	}
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RESULT_LOG_DRIVER", "sqlite")
	t.Setenv("RESULT_LOG_PATH", "/tmp/results.db")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("REPORT_LOCALE", "en-US")
	t.Setenv("DEFAULT_ENVELOPE_COUNT", "24")
	t.Setenv("DEFAULT_SOUND_ENABLED", "false")
	t.Setenv("MAX_ENVELOPE_COUNT", "50")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}
	if cfg.Port != "9090" || cfg.ResultLogDriver != DriverSQLite || cfg.ResultLogPath != "/tmp/results.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.MaxEnvelopeCount != 50 {
		t.Errorf("MaxEnvelopeCount = %d, want 50", cfg.MaxEnvelopeCount)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.SessionTTL)
	}
	if cfg.Language().String() != language.AmericanEnglish.String() {
		t.Errorf("Language() = %v, want en-US", cfg.Language())
	}
	if s := cfg.DefaultSettings(); s.EnvelopeCount != 24 || s.SoundEnabled {
		t.Errorf("unexpected default settings %+v", s)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown driver", "RESULT_LOG_DRIVER", "postgres"},
		{"zero ttl", "SESSION_TTL", "0s"},
		{"negative interval", "CLEANUP_INTERVAL", "-1m"},
		{"bad duration", "SESSION_TTL", "soon"},
		{"bad locale", "REPORT_LOCALE", "not a locale!"},
		{"bad number", "DEFAULT_MIN_PRIZE", "ten"},
		{"zero envelope limit", "MAX_ENVELOPE_COUNT", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Parse(); err == nil {
				t.Errorf("expected an error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
