package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/okian/wardflow/internal/domain/model"
)

const rosterFilePermission = 0o644

var rosterHeader = []string{"Name", "Specialty", "Room", "Keywords"}

// CSV keeps the roster in a CSV file. A missing file reads as Defaults and
// is written, defaults first, on the first Add.
type CSV struct {
	mu   sync.Mutex
	path string
}

// NewCSV creates a roster backed by path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// List implements Roster.
func (c *CSV) List(ctx context.Context) ([]model.Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	doctors, _, err := c.read()
	return doctors, err
}

// Add implements Roster.
func (c *CSV) Add(ctx context.Context, d model.Doctor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := Normalize(d)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, onDisk, err := c.read()
	if err != nil {
		return err
	}
	if err := checkNew(existing, d); err != nil {
		return err
	}

	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, rosterFilePermission)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	var rows [][]string
	if !onDisk {
		rows = append(rows, rosterHeader)
		for _, e := range existing {
			rows = append(rows, encodeDoctor(e))
		}
	}
	rows = append(rows, encodeDoctor(d))
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	return nil
}

// read returns the roster and whether it came from the file.
func (c *CSV) read() ([]model.Doctor, bool, error) {
	f, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Defaults(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read roster header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	col := func(row []string, name string) string {
		if i, ok := index[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	out := []model.Doctor{}
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, true, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("read roster line %d: %w", line, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		d, err := Normalize(model.Doctor{
			Name:      col(row, "Name"),
			Specialty: col(row, "Specialty"),
			Room:      col(row, "Room"),
			Keywords:  model.ParseKeywords(col(row, "Keywords")),
		})
		if err != nil {
			return nil, false, fmt.Errorf("%w: line %d: %w", ErrCorruptRoster, line, err)
		}
		out = append(out, d)
	}
}

func encodeDoctor(d model.Doctor) []string {
	return []string{d.Name, d.Specialty, d.Room, model.JoinKeywords(d.Keywords)}
}
