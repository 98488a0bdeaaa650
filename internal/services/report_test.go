package services

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
	"redenvelope/internal/models"
)

func TestBuildReport(t *testing.T) {
	at := time.Date(2025, 1, 29, 9, 5, 3, 0, time.UTC)
	session := models.Session{
		Phase:    models.PhaseActive,
		Settings: &models.Settings{EnvelopeCount: 12, MinPrize: 100, MaxPrize: 5000, PlayerName: "Grandma"},
		Envelopes: []models.Envelope{
			{ID: "envelope-10", IsOpened: true, PrizeAmount: 2500, OpenedBy: "Ann"},
			{ID: "envelope-2", IsOpened: true, PrizeAmount: 1200},
			{ID: "envelope-3"},
		},
		TotalPrize:  3700,
		OpenedCount: 2,
	}
	stats := models.Statistics{TotalEnvelopes: 3, OpenedCount: 2, TotalPrize: 3700, AveragePrize: 1850}

	report := BuildReport(session, stats, at, language.English)

	for _, want := range []string{
		"=== Red Envelope Game Summary ===",
		"Date: 29/1/2568",
		"Time: 09:05:03",
		"Main player: Grandma",
		"Total prize: 3,700",
		"Envelopes opened: 2",
		"Average prize: 1,850",
		"No.,Opened by,Amount\n1,Unnamed,1,200\n2,Ann,2,500\n",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "envelope-3") {
		t.Error("unopened envelopes should not be listed")
	}
}

func TestBuildReport_NoPlayer(t *testing.T) {
	report := BuildReport(models.Session{Envelopes: []models.Envelope{}}, models.Statistics{}, time.Now(), language.English)
	if !strings.Contains(report, "Main player: Not specified") {
		t.Errorf("expected fallback player name:\n%s", report)
	}
	if !strings.HasSuffix(report, "No.,Opened by,Amount\n") {
		t.Errorf("expected an empty opener table:\n%s", report)
	}
}

func TestReportFileName(t *testing.T) {
	got := ReportFileName(time.Date(2025, 2, 3, 14, 7, 9, 0, time.UTC))
	if want := "red_envelope_detailed_20250203_140709.txt"; got != want {
		t.Errorf("ReportFileName() = %q, want %q", got, want)
	}
}
