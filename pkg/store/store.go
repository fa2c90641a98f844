// Package store persists recorded responses.
//
// Records live in directories: one private directory per test and one
// directory per named shared bucket. Within a directory every record is a
// single file named by its fingerprint, optionally suffixed with a "__N"
// disambiguation counter.
package store

import (
	"errors"
	"sort"
	"time"

	"github.com/getmockd/httpreplay/pkg/fingerprint"
	"github.com/getmockd/httpreplay/pkg/recording"
)

// ErrInvalidName is returned when a record name would escape its directory.
var ErrInvalidName = errors.New("invalid record name")

// Entry is a stored record together with its file name.
type Entry struct {
	Name   string
	Record *recording.Record
}

// Store enumerates, persists and deletes records.
//
// Read paths treat a missing directory as empty. Delete paths treat it as a
// no-op and report that nothing was removed.
type Store interface {
	// Load returns every decodable record in dir, in SortEntries order.
	Load(dir string) ([]Entry, error)

	// Save writes rec to dir/name, creating dir when needed.
	Save(dir, name string, rec *recording.Record) error

	// DeleteDir removes dir and everything in it. It reports whether dir existed.
	DeleteDir(dir string) (bool, error)

	// DeleteMatching removes the records in dir whose request URL contains a
	// match for the glob pattern, and returns how many were removed.
	DeleteMatching(dir, pattern string) (int, error)
}

// SortEntries orders entries by base fingerprint, then by disambiguation
// counter, so "x.json", "x__2.json", … "x__10.json" come out in capture order.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		bi, bj := fingerprint.Base(entries[i].Name), fingerprint.Base(entries[j].Name)
		if bi != bj {
			return bi < bj
		}
		return fingerprint.Counter(entries[i].Name) < fingerprint.Counter(entries[j].Name)
	})
}

// IsExpired reports whether rec was captured more than days days before now.
// A record without a capture time is always expired.
func IsExpired(rec *recording.Record, days int, now time.Time) bool {
	if rec.RecordedAt.IsZero() {
		return true
	}
	return rec.RecordedAt.AddDate(0, 0, days).Before(now)
}

// ValidName reports whether name is usable as a record file name.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, c := range name {
		if c == '/' || c == '\\' {
			return false
		}
	}
	return true
}
