package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"redenvelope/internal/models"
)

// FileLog keeps the result log as a plain text file.
type FileLog struct {
	mu   sync.Mutex
	path string
}

// OpenFileLog returns a log writing to path, creating parent directories.
// The file itself is created on the first append.
func OpenFileLog(path string) (*FileLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("result log path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return nil, fmt.Errorf("create result log dir: %w", err)
	}
	return &FileLog{path: clean}, nil
}

// Append writes one record, preceded by the header if the file is new or empty.
func (l *FileLog) Append(ctx context.Context, record models.ResultRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open result log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat result log: %w", err)
	}

	var b strings.Builder
	if info.Size() == 0 {
		b.WriteString(Header)
		b.WriteByte('\n')
	}
	b.WriteString(FormatRecord(record))
	b.WriteByte('\n')

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("write result log: %w", err)
	}
	return nil
}

// ReadAll returns the file contents, or "" if nothing was ever written.
func (l *FileLog) ReadAll(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read result log: %w", err)
	}
	return string(data), nil
}

// Count returns the number of records in the file.
func (l *FileLog) Count(ctx context.Context) (int, error) {
	text, err := l.ReadAll(ctx)
	if err != nil {
		return 0, err
	}
	return countRecords(text), nil
}

// Close is a no-op; the file is opened per append.
func (l *FileLog) Close() error {
	return nil
}
