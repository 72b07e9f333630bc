// Package summarylog writes the crash-safe, append-only CSV summary of
// every job completed in a run: one row per instance, flushed to disk
// immediately after it is written.
package summarylog

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/cuemby/stride/pkg/ids"
)

const Header = "iid,time_sec,state,score,best_score_known\n"

// Logger appends job-result rows to a CSV file, guarding the shared file
// handle with a mutex the way the teacher guards other shared in-process
// state.
type Logger struct {
	mu   sync.Mutex
	file *os.File
}

// Open creates (or truncates) the summary file at path and writes its
// header.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating summary log %s: %w", path, err)
	}
	if _, err := f.WriteString(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing summary log header: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flushing summary log header: %w", err)
	}
	return &Logger{file: f}, nil
}

// Row is one completed job's summary, in the units the CSV expects.
type Row struct {
	IID            ids.IID
	TimeSeconds    float64
	State          string
	Score          *uint32
	BestScoreKnown *uint32
}

// LogJobResult appends one row and flushes before returning, so a crash
// immediately after never loses a completed job's result.
func (l *Logger) LogJobResult(r Row) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s,%s,%s,%s,%s\n",
		r.IID,
		formatSeconds(r.TimeSeconds),
		r.State,
		formatOptionalUint32(r.Score),
		formatOptionalUint32(r.BestScoreKnown),
	)
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("writing summary row for %s: %w", r.IID, err)
	}
	return l.file.Sync()
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// formatSeconds renders whole-second durations without a trailing ".0",
// matching the reference logger's float formatting (1 -> "1", not "1.0").
func formatSeconds(s float64) string {
	if s == float64(int64(s)) {
		return strconv.FormatInt(int64(s), 10)
	}
	return strconv.FormatFloat(s, 'g', -1, 64)
}

func formatOptionalUint32(v *uint32) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v), 10)
}
