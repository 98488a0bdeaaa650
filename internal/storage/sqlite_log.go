package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"redenvelope/internal/models"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS game_results (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	played_at      INTEGER NOT NULL,
	player_name    TEXT    NOT NULL,
	total_prize    INTEGER NOT NULL,
	envelope_count INTEGER NOT NULL,
	min_prize      INTEGER NOT NULL,
	max_prize      INTEGER NOT NULL
)`

// SQLiteLog keeps the result log in a SQLite table and renders it in the
// same text format as FileLog.
type SQLiteLog struct {
	sqlDB *sql.DB
}

// OpenSQLiteLog opens (or creates) the database at path.
func OpenSQLiteLog(path string) (*SQLiteLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("result log path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create result table: %w", err)
	}
	return &SQLiteLog{sqlDB: sqlDB}, nil
}

// Append inserts one record.
func (l *SQLiteLog) Append(ctx context.Context, record models.ResultRecord) error {
	_, err := l.sqlDB.ExecContext(ctx,
		`INSERT INTO game_results (played_at, player_name, total_prize, envelope_count, min_prize, max_prize)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.PlayedAt.UnixMilli(),
		record.PlayerName,
		record.TotalPrize,
		record.EnvelopeCount,
		record.MinPrize,
		record.MaxPrize,
	)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

// ReadAll renders every record in insertion order.
func (l *SQLiteLog) ReadAll(ctx context.Context) (string, error) {
	rows, err := l.sqlDB.QueryContext(ctx,
		`SELECT played_at, player_name, total_prize, envelope_count, min_prize, max_prize
		 FROM game_results ORDER BY id`)
	if err != nil {
		return "", fmt.Errorf("query game results: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var r models.ResultRecord
		var playedAt int64
		if err := rows.Scan(&playedAt, &r.PlayerName, &r.TotalPrize, &r.EnvelopeCount, &r.MinPrize, &r.MaxPrize); err != nil {
			return "", fmt.Errorf("scan game result: %w", err)
		}
		r.PlayedAt = time.UnixMilli(playedAt)
		if b.Len() == 0 {
			b.WriteString(Header)
			b.WriteByte('\n')
		}
		b.WriteString(FormatRecord(r))
		b.WriteByte('\n')
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate game results: %w", err)
	}
	return b.String(), nil
}

// Count returns the number of stored records.
func (l *SQLiteLog) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count game results: %w", err)
	}
	return n, nil
}

// Close closes the database handle.
func (l *SQLiteLog) Close() error {
	if l == nil || l.sqlDB == nil {
		return nil
	}
	return l.sqlDB.Close()
}
