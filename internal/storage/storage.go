// Package storage persists the append-only log of finished games.
package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"redenvelope/internal/models"
)

// Header is the first line of a fresh result log.
const Header = "วันที่,เวลา,ชื่อผู้เล่น,จำนวนเงินรวม,จำนวนซอง,เงินรางวัลต่ำสุด,เงินรางวัลสูงสุด"

// buddhistEraOffset converts a Gregorian year to the Thai calendar year
// used in the log's date column.
const buddhistEraOffset = 543

// ResultLog is an append-only record of finished games.
type ResultLog interface {
	// Append adds one record.
	Append(ctx context.Context, record models.ResultRecord) error
	// ReadAll returns the whole log as text, header included, or "" when
	// nothing has been recorded.
	ReadAll(ctx context.Context) (string, error)
	// Count returns the number of records, header excluded.
	Count(ctx context.Context) (int, error)
	Close() error
}

// FormatRecord renders a record as one log line:
// date,time,"name",totalPrize,envelopeCount,minPrize,maxPrize
func FormatRecord(r models.ResultRecord) string {
	fields := []string{
		FormatDate(r.PlayedAt),
		FormatTime(r.PlayedAt),
		QuoteName(r.PlayerName),
		strconv.Itoa(r.TotalPrize),
		strconv.Itoa(r.EnvelopeCount),
		strconv.Itoa(r.MinPrize),
		strconv.Itoa(r.MaxPrize),
	}
	return strings.Join(fields, ",")
}

// QuoteName wraps a name in quotes, doubling any quote inside it.
func QuoteName(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// FormatDate renders t as d/m/yyyy in the Buddhist era.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year()+buddhistEraOffset)
}

// FormatTime renders t as HH:MM:SS.
func FormatTime(t time.Time) string {
	return t.Format("15:04:05")
}

// FileName is the name a log exported on day t is saved under.
func FileName(t time.Time) string {
	return fmt.Sprintf("red_envelope_game_results_%s.txt", t.Format("2006-01-02"))
}

// countRecords counts the non-blank lines of a log, minus the header.
func countRecords(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return n - 1
}
