package activity

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const logFilePermission = 0o644

var logHeader = []string{"Time", "User", "Action", "Details", "ID"}

// CSVLog appends entries to a CSV file, writing the header on first use.
type CSVLog struct {
	mu   sync.Mutex
	path string
}

// NewCSVLog creates a log backed by path.
func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

// Append implements Sink.
func (l *CSVLog) Append(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat activity log: %w", err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(logHeader); err != nil {
			return fmt.Errorf("write activity header: %w", err)
		}
	}
	if err := w.Write([]string{e.Time.Format(TimeLayout), e.Actor, e.Action, e.Detail, e.ID}); err != nil {
		return fmt.Errorf("write activity: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Recent implements Reader.
func (l *CSVLog) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var all []Entry
	for first := true; ; first = false {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read activity log: %w", err)
		}
		if first && len(row) > 0 && row[0] == logHeader[0] {
			continue
		}
		if len(row) < 4 {
			continue
		}
		e := Entry{Actor: row[1], Action: row[2], Detail: row[3]}
		e.Time, _ = time.ParseInLocation(TimeLayout, row[0], time.Local)
		if len(row) > 4 {
			e.ID = row[4]
		}
		all = append(all, e)
	}
	return newestFirst(all, limit), nil
}

func newestFirst(all []Entry, limit int) []Entry {
	n := len(all)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Entry, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out
}
