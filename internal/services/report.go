package services

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"redenvelope/internal/models"
	"redenvelope/internal/storage"
)

// BuildReport renders the detailed text report of a session: a summary
// followed by who opened which envelope. Numbers are grouped for lang.
func BuildReport(session models.Session, stats models.Statistics, at time.Time, lang language.Tag) string {
	p := message.NewPrinter(lang)

	player := "Not specified"
	if session.Settings != nil && session.Settings.PlayerName != "" {
		player = session.Settings.PlayerName
	}

	var b strings.Builder
	b.WriteString("=== Red Envelope Game Summary ===\n\n")
	fmt.Fprintf(&b, "Date: %s\n", storage.FormatDate(at))
	fmt.Fprintf(&b, "Time: %s\n", storage.FormatTime(at))
	fmt.Fprintf(&b, "Main player: %s\n", player)
	b.WriteString(p.Sprintf("Total prize: %d\n", stats.TotalPrize))
	b.WriteString(p.Sprintf("Envelopes opened: %d\n", stats.OpenedCount))
	b.WriteString(p.Sprintf("Average prize: %d\n\n", int(math.Round(stats.AveragePrize))))

	opened := make([]models.Envelope, 0, len(session.Envelopes))
	for _, e := range session.Envelopes {
		if e.IsOpened {
			opened = append(opened, e)
		}
	}
	slices.SortStableFunc(opened, func(a, b models.Envelope) int {
		return envelopeIndex(a.ID) - envelopeIndex(b.ID)
	})

	b.WriteString("=== Openers ===\n")
	b.WriteString("No.,Opened by,Amount\n")
	for i, e := range opened {
		name := e.OpenedBy
		if name == "" {
			name = "Unnamed"
		}
		b.WriteString(p.Sprintf("%d,%s,%d\n", i+1, name, e.PrizeAmount))
	}
	return b.String()
}

// envelopeIndex extracts the numeric suffix of an envelope id, -1 if none.
func envelopeIndex(id string) int {
	_, suffix, ok := strings.Cut(id, "-")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return -1
	}
	return n
}

// ReportFileName is the download name of a report built at t.
func ReportFileName(t time.Time) string {
	return fmt.Sprintf("red_envelope_detailed_%s_%s.txt", t.Format("20060102"), t.Format("150405"))
}
