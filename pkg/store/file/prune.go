package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/httpreplay/pkg/fingerprint"
	"github.com/getmockd/httpreplay/pkg/store"
)

// Bulk deletions across a whole storage root. These back the "start over"
// workflows: wiping everything, one shared bucket, every record of an
// upstream, or every scope of a test.

// DeleteAll removes the storage root and returns how many records it held.
func (s *Store) DeleteAll(l store.Layout) (int, error) {
	files, err := globRecords(l.Root)
	if err != nil {
		return 0, err
	}
	if _, err := s.DeleteDir(l.Root); err != nil {
		return 0, err
	}
	return len(files), nil
}

// DeleteShared removes one shared bucket.
func (s *Store) DeleteShared(l store.Layout, name string) (bool, error) {
	return s.DeleteDir(l.Shared(name))
}

// DeleteByURL removes every record under the root, private and shared,
// whose request URL contains a match for pattern.
func (s *Store) DeleteByURL(l store.Layout, pattern string) (int, error) {
	files, err := globRecords(l.Root)
	if err != nil {
		return 0, err
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, filepath.Join(l.Root, filepath.FromSlash(f)))
	}
	n, err := s.deleteByURL(paths, pattern)
	if err != nil {
		return n, err
	}
	s.log.Info("deleted records", "root", l.Root, "pattern", pattern, "count", n)
	return n, nil
}

// DeleteByTest removes the private scopes of tests whose name matches
// testName, subtests included. testName may contain "*" wildcards, such as
// "TestCheckout*" or "TestOrders/*". Shared buckets are never touched.
// It returns the number of scope directories removed.
func (s *Store) DeleteByTest(l store.Layout, testName string) (int, error) {
	pattern := testPattern(testName)
	if pattern == "" {
		return 0, nil
	}

	matches, err := doublestar.Glob(os.DirFS(l.Root), pattern)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("matching test scopes: %w", err)
	}

	n := 0
	for _, m := range matches {
		if m == store.SharedDir || strings.HasPrefix(m, store.SharedDir+"/") {
			continue
		}
		dir := filepath.Join(l.Root, filepath.FromSlash(m))
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		removed, err := s.DeleteDir(dir)
		if err != nil {
			return n, err
		}
		if removed {
			n++
		}
	}
	return n, nil
}

// globRecords lists record files below root as slash-separated relative paths.
func globRecords(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), "**/*"+fingerprint.Extension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing records: %w", err)
	}

	files := matches[:0]
	for _, m := range matches {
		if strings.HasPrefix(path.Base(m), ".") {
			continue
		}
		files = append(files, m)
	}
	return files, nil
}

// testPattern turns a test name into a glob over scope directories,
// sanitizing each segment the way store.Layout does while keeping wildcards.
func testPattern(testName string) string {
	var segs []string
	for _, seg := range strings.Split(testName, "/") {
		if seg == "" {
			continue
		}
		pieces := strings.Split(seg, "*")
		for i, p := range pieces {
			pieces[i] = fingerprint.Sanitize(p)
		}
		segs = append(segs, strings.Join(pieces, "*"))
	}
	return strings.Join(segs, "/")
}
