package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"redenvelope/internal/models"
)

func TestFormatRecord(t *testing.T) {
	r := models.ResultRecord{
		PlayedAt:      time.Date(2025, 2, 5, 7, 3, 9, 0, time.UTC),
		PlayerName:    `Big "Boss"`,
		TotalPrize:    450,
		EnvelopeCount: 5,
		MinPrize:      10,
		MaxPrize:      200,
	}
	want := `5/2/2568,07:03:09,"Big ""Boss""",450,5,10,200`
	if got := FormatRecord(r); got != want {
		t.Errorf("FormatRecord() = %q, want %q", got, want)
	}
}

func TestFileName(t *testing.T) {
	got := FileName(time.Date(2025, 1, 9, 23, 0, 0, 0, time.UTC))
	if want := "red_envelope_game_results_2025-01-09.txt"; got != want {
		t.Errorf("FileName() = %q, want %q", got, want)
	}
}

func TestCountRecords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{Header + "\n", 0},
		{Header + "\na\nb\n", 2},
		{Header + "\na\n\n  \nb", 2},
	}
	for _, tt := range tests {
		if got := countRecords(tt.text); got != tt.want {
			t.Errorf("countRecords(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

// exerciseLog runs the behaviour every ResultLog must share.
func exerciseLog(t *testing.T, log ResultLog) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2025, 1, 29, 18, 30, 0, 0, time.Local)

	t.Run("empty log", func(t *testing.T) {
		text, err := log.ReadAll(ctx)
		if err != nil || text != "" {
			t.Errorf("ReadAll() = %q, %v", text, err)
		}
		if n, err := log.Count(ctx); err != nil || n != 0 {
			t.Errorf("Count() = %d, %v", n, err)
		}
	})

	records := []models.ResultRecord{
		{PlayedAt: at, PlayerName: "Somchai", TotalPrize: 300, EnvelopeCount: 3, MinPrize: 50, MaxPrize: 150},
		{PlayedAt: at.Add(time.Minute), PlayerName: `A "quoted" name`, TotalPrize: 10, EnvelopeCount: 1, MinPrize: 10, MaxPrize: 10},
	}

	t.Run("append", func(t *testing.T) {
		for _, r := range records {
			if err := log.Append(ctx, r); err != nil {
				t.Fatalf("Append() returned error: %v", err)
			}
		}

		text, err := log.ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll() returned error: %v", err)
		}
		want := Header + "\n" + FormatRecord(records[0]) + "\n" + FormatRecord(records[1]) + "\n"
		if text != want {
			t.Errorf("ReadAll() = %q, want %q", text, want)
		}
		if strings.Count(text, Header) != 1 {
			t.Error("header written more than once")
		}
		if n, err := log.Count(ctx); err != nil || n != 2 {
			t.Errorf("Count() = %d, %v", n, err)
		}
	})
}

func TestFileLog(t *testing.T) {
	log, err := OpenFileLog(filepath.Join(t.TempDir(), "nested", "results.txt"))
	if err != nil {
		t.Fatalf("OpenFileLog returned error: %v", err)
	}
	defer log.Close()
	exerciseLog(t, log)
}

func TestFileLog_RejectsEmptyPath(t *testing.T) {
	if _, err := OpenFileLog("  "); err == nil {
		t.Error("expected an error for an empty path")
	}
}

func TestFileLog_CancelledContext(t *testing.T) {
	log, _ := OpenFileLog(filepath.Join(t.TempDir(), "results.txt"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := log.Append(ctx, models.ResultRecord{PlayerName: "A"}); err == nil {
		t.Error("expected Append to fail on a cancelled context")
	}
}

func TestSQLiteLog(t *testing.T) {
	log, err := OpenSQLiteLog(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteLog returned error: %v", err)
	}
	defer log.Close()
	exerciseLog(t, log)
}
