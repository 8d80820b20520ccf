package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/wardflow/internal/domain/model"
)

const csvFilePermission = 0o644

// CSVStore keeps the patient table in one CSV file with a header row.
// SaveAll writes a sibling temp file and renames it over the target, so a
// reader sees either the old or the new table.
type CSVStore struct {
	path string
	settings
}

// NewCSVStore creates a store backed by path. The file is created on the
// first SaveAll.
func NewCSVStore(path string, opts ...Option) *CSVStore {
	return &CSVStore{path: path, settings: newSettings(opts)}
}

// Path returns the backing file path.
func (s *CSVStore) Path() string { return s.path }

// LoadAll implements Store.
func (s *CSVStore) LoadAll(ctx context.Context) ([]model.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []model.Patient{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open patients: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []model.Patient{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read patients header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	out := []model.Patient{}
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			if err := checkUnique(out); err != nil {
				return nil, err
			}
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read patients line %d: %w", line, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		get := func(col string) (string, bool) {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return "", false
			}
			return row[i], true
		}
		p, err := decodeRow(get, s.scorer)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
}

// SaveAll implements Store.
func (s *CSVStore) SaveAll(ctx context.Context, patients []model.Patient) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp patients file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(Columns); err != nil {
		return fmt.Errorf("write patients header: %w", err)
	}
	for _, p := range patients {
		if err = w.Write(encodeRow(p)); err != nil {
			return fmt.Errorf("write patient %d: %w", p.ID, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flush patients: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync patients: %w", err)
	}
	if err = tmp.Chmod(csvFilePermission); err != nil {
		return fmt.Errorf("chmod patients: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close patients: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace patients: %w", err)
	}
	return nil
}
