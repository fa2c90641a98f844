package store

import (
	"path/filepath"
	"strings"

	"github.com/getmockd/httpreplay/pkg/fingerprint"
)

// SharedDir is the directory under the root that holds shared buckets.
const SharedDir = "_shared"

// Layout maps scopes to directories under Root.
type Layout struct {
	Root string
}

// Private returns the directory for a test. Subtest names ("TestX/case_1")
// become nested directories; each segment is sanitized.
func (l Layout) Private(testName string) string {
	return filepath.Join(append([]string{l.Root}, segments(testName)...)...)
}

// Shared returns the directory of the named shared bucket.
func (l Layout) Shared(name string) string {
	return filepath.Join(append([]string{l.Root, SharedDir}, segments(name)...)...)
}

// SharedRoot returns the directory holding every shared bucket.
func (l Layout) SharedRoot() string {
	return filepath.Join(l.Root, SharedDir)
}

func segments(name string) []string {
	var out []string
	for _, seg := range strings.Split(name, "/") {
		if seg == "" {
			continue
		}
		out = append(out, fingerprint.Sanitize(seg))
	}
	if len(out) == 0 {
		return []string{"default"}
	}
	return out
}
