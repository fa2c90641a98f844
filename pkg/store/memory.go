package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/getmockd/httpreplay/internal/matching"
	"github.com/getmockd/httpreplay/pkg/recording"
)

// Memory is an in-memory Store. Records pass through the on-disk encoding on
// the way in, so what Load returns is what a file store would return.
type Memory struct {
	mu   sync.RWMutex
	dirs map[string]map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{dirs: make(map[string]map[string][]byte)}
}

// Load implements Store.
func (m *Memory) Load(dir string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := m.dirs[filepath.Clean(dir)]
	entries := make([]Entry, 0, len(files))
	for name, data := range files {
		rec, err := recording.Unmarshal(data)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: name, Record: rec})
	}
	SortEntries(entries)
	return entries, nil
}

// Save implements Store.
func (m *Memory) Save(dir, name string, rec *recording.Record) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := recording.Marshal(rec)
	if err != nil {
		return err
	}
	m.Put(dir, name, data)
	return nil
}

// Put stores raw bytes under dir/name, bypassing encoding. Useful for
// seeding malformed or hand-written fixtures.
func (m *Memory) Put(dir, name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir = filepath.Clean(dir)
	files, ok := m.dirs[dir]
	if !ok {
		files = make(map[string][]byte)
		m.dirs[dir] = files
	}
	files[name] = append([]byte(nil), data...)
}

// Get returns the raw bytes stored under dir/name.
func (m *Memory) Get(dir, name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.dirs[filepath.Clean(dir)][name]
	return data, ok
}

// Names returns the file names in dir, sorted.
func (m *Memory) Names(dir string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := m.dirs[filepath.Clean(dir)]
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeleteDir implements Store. Nested directories are removed too.
func (m *Memory) DeleteDir(dir string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir = filepath.Clean(dir)
	prefix := dir + string(filepath.Separator)
	found := false
	for d := range m.dirs {
		if d == dir || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
			found = true
		}
	}
	return found, nil
}

// DeleteMatching implements Store.
func (m *Memory) DeleteMatching(dir, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	files := m.dirs[filepath.Clean(dir)]
	n := 0
	for name, data := range files {
		u, ok := recording.URLOf(data)
		if !ok || !matching.ContainsURL(pattern, u) {
			continue
		}
		delete(files, name)
		n++
	}
	return n, nil
}
