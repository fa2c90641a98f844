// Package file implements store.Store on the local filesystem: one JSON
// document per record, one directory per scope.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/getmockd/httpreplay/internal/matching"
	"github.com/getmockd/httpreplay/pkg/fingerprint"
	"github.com/getmockd/httpreplay/pkg/logging"
	"github.com/getmockd/httpreplay/pkg/recording"
	"github.com/getmockd/httpreplay/pkg/store"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a filesystem-backed store.Store.
type Store struct {
	log *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for skipped files and deletions.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a filesystem store.
func New(opts ...Option) *Store {
	s := &Store{log: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements store.Store. Files without the record extension are
// ignored; files that cannot be read or decoded are skipped with a warning.
func (s *Store) Load(dir string) ([]store.Entry, error) {
	names, err := recordFiles(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]store.Entry, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable record", "path", path, "error", err)
			continue
		}
		rec, err := recording.Unmarshal(data)
		if err != nil {
			s.log.Warn("skipping malformed record", "path", path, "error", err)
			continue
		}
		entries = append(entries, store.Entry{Name: name, Record: rec})
	}

	store.SortEntries(entries)
	return entries, nil
}

// Save implements store.Store. The record is written to a temporary file in
// dir and renamed into place.
func (s *Store) Save(dir, name string, rec *recording.Record) error {
	if !store.ValidName(name) {
		return fmt.Errorf("%w: %q", store.ErrInvalidName, name)
	}

	data, err := recording.Marshal(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating record directory: %w", err)
	}

	path := filepath.Join(dir, name)
	tmp := filepath.Join(dir, "."+name+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing record: %w", err)
	}

	s.log.Debug("saved record", "path", path)
	return nil
}

// DeleteDir implements store.Store.
func (s *Store) DeleteDir(dir string) (bool, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("nothing to delete", "dir", dir)
			return false, nil
		}
		return false, fmt.Errorf("checking record directory: %w", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("deleting record directory: %w", err)
	}
	s.log.Info("deleted records", "dir", dir)
	return true, nil
}

// DeleteMatching implements store.Store. Only the "request.url" field is read
// from each file; files that lack it or cannot be read are left alone.
func (s *Store) DeleteMatching(dir, pattern string) (int, error) {
	names, err := recordFiles(dir)
	if err != nil {
		return 0, err
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(dir, name))
	}
	n, err := s.deleteByURL(paths, pattern)
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.log.Info("deleted records", "dir", dir, "pattern", pattern, "count", n)
	}
	return n, nil
}

func (s *Store) deleteByURL(paths []string, pattern string) (int, error) {
	n := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable record", "path", path, "error", err)
			continue
		}
		u, ok := recording.URLOf(data)
		if !ok || !matching.ContainsURL(pattern, u) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return n, fmt.Errorf("deleting record: %w", err)
		}
		n++
	}
	return n, nil
}

// recordFiles lists the record files directly inside dir. A missing dir
// yields no names.
func recordFiles(dir string) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading record directory: %w", err)
	}

	var names []string
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fingerprint.Extension {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
