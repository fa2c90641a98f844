// Package fingerprint derives stable, filename-safe names for outbound
// requests. Two requests with the same fingerprint are the same logical
// request: they share a stored response queue.
package fingerprint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/getmockd/httpreplay/internal/matching"
	"github.com/getmockd/httpreplay/pkg/matcher"
)

const (
	// Extension is appended to every fingerprint.
	Extension = ".json"

	// Unknown is the fingerprint used when no matcher yields a part.
	Unknown = "unknown" + Extension

	separator = "_"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]`)
	counterRe   = regexp.MustCompile(`__(\d+)\.json$`)
)

// Sanitize replaces every character outside [A-Za-z0-9_-] with "_".
// Path separators are replaced too, so the result is always a single path element.
func Sanitize(s string) string {
	return unsafeChars.ReplaceAllString(s, "_")
}

// Resolve derives the fingerprint of r under the given matcher sequence.
//
// An explicit override attribute wins over every matcher. Otherwise the
// non-empty, sanitized matcher outputs are joined with "_"; when there are
// none the result is Unknown. Invalid specs fail with matcher.ErrUnknownMatcher.
func Resolve(specs []matcher.Spec, r *matcher.Request) (string, error) {
	if name, ok := r.OverrideName(); ok {
		return Sanitize(name) + Extension, nil
	}

	parts := make([]string, 0, len(specs))
	for i, s := range specs {
		if !s.Valid() {
			return "", fmt.Errorf("%w: position %d (%s)", matcher.ErrUnknownMatcher, i, s)
		}
		v, ok := s.Resolve(r)
		if !ok || v == "" {
			continue
		}
		parts = append(parts, Sanitize(v))
	}

	if len(parts) == 0 {
		return Unknown, nil
	}
	return strings.Join(parts, separator) + Extension, nil
}

// Base strips a "__N" disambiguation counter: "GET_x__3.json" → "GET_x.json".
func Base(name string) string {
	return counterRe.ReplaceAllString(name, Extension)
}

// Counter returns the disambiguation counter of name; 1 when it has none.
func Counter(name string) int {
	m := counterRe.FindStringSubmatch(name)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 1
	}
	return n
}

// MakeUnique returns name if it is not in used, otherwise the first of
// base__2.ext, base__3.ext, … that is not. The result depends only on its inputs.
func MakeUnique(name string, used map[string]struct{}) string {
	if _, taken := used[name]; !taken {
		return name
	}

	base, ext := splitExt(name)
	for n := 2; ; n++ {
		candidate := base + "__" + strconv.Itoa(n) + ext
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

func splitExt(name string) (string, string) {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// RecordingKey is the coarse, storage-independent identity used to pair an
// intercepted request with its real response: method and URL, plus a body
// digest when any of the given matchers reads the body.
func RecordingKey(specs []matcher.Spec, r *matcher.Request) string {
	key := strings.ToUpper(r.Method) + ":" + r.URLString()
	for _, s := range specs {
		if s.ExaminesBody() {
			return key + ":" + matching.Digest(r.Body)
		}
	}
	return key
}
