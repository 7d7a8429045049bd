package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"
)

const (
	entriesDir  = "entries"
	summaryFile = "last_update.json"
)

// FileStore keeps one JSON document per indicator under
// {dir}/entries/{id}.json and the last run summary in {dir}/last_update.json.
// Writes go to a temp file that is renamed into place, so readers in other
// processes never observe a partial document.
type FileStore struct {
	dir string
}

var _ domrepo.EntryStore = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, entriesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) entryPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid indicator id %q", id)
	}
	return filepath.Join(s.dir, entriesDir, id+".json"), nil
}

func (s *FileStore) Load(_ context.Context, id string) (*models.CacheEntry, error) {
	path, err := s.entryPath(id)
	if err != nil {
		return nil, err
	}
	var e models.CacheEntry
	if err := readJSON(path, &e); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.ErrEntryNotFound
		}
		return nil, fmt.Errorf("load entry %s: %w", id, err)
	}
	return &e, nil
}

func (s *FileStore) Save(_ context.Context, e *models.CacheEntry) error {
	if e == nil {
		return errors.New("save entry: nil entry")
	}
	path, err := s.entryPath(e.Indicator)
	if err != nil {
		return err
	}
	if err := writeJSON(path, e); err != nil {
		return fmt.Errorf("save entry %s: %w", e.Indicator, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	path, err := s.entryPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.ErrEntryNotFound
		}
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	return nil
}

// List returns every stored entry ordered by indicator id. Unreadable files
// are skipped.
func (s *FileStore) List(ctx context.Context) ([]*models.CacheEntry, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, entriesDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	sort.Strings(matches)

	out := make([]*models.CacheEntry, 0, len(matches))
	for _, m := range matches {
		id := strings.TrimSuffix(filepath.Base(m), ".json")
		e, err := s.Load(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *FileStore) Size(_ context.Context, id string) (int64, error) {
	path, err := s.entryPath(id)
	if err != nil {
		return 0, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, models.ErrEntryNotFound
		}
		return 0, err
	}
	return fi.Size(), nil
}

func (s *FileStore) SaveSummary(_ context.Context, sum *models.RunSummary) error {
	if err := writeJSON(filepath.Join(s.dir, summaryFile), sum); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

func (s *FileStore) LoadSummary(_ context.Context) (*models.RunSummary, error) {
	var sum models.RunSummary
	if err := readJSON(filepath.Join(s.dir, summaryFile), &sum); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.ErrEntryNotFound
		}
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return &sum, nil
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
