package replay

import (
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/getmockd/httpreplay/pkg/fingerprint"
	"github.com/getmockd/httpreplay/pkg/matcher"
	"github.com/getmockd/httpreplay/pkg/store"
)

// Option configures an Engine. Options override the values taken from
// config.Config.
type Option func(*Engine)

// WithStore replaces the filesystem store.
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithRoot sets the storage root directory, overriding the configured path.
func WithRoot(dir string) Option {
	return func(e *Engine) {
		e.layout.Root = dir
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock sets the time source used for capture timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithScope names the private scope. Slashes create nested directories.
func WithScope(name string) Option {
	return func(e *Engine) {
		e.scope = name
	}
}

// WithTest uses the test's name as the private scope.
func WithTest(tb testing.TB) Option {
	return func(e *Engine) {
		e.scope = tb.Name()
	}
}

// WithMatchBy replaces the default matcher sequence.
func WithMatchBy(specs ...matcher.Spec) Option {
	return func(e *Engine) {
		e.policy.Default = specs
	}
}

// WithMatchByTokens is WithMatchBy with matcher tokens such as "method" or
// "header:X-Tenant". An unknown token makes New fail.
func WithMatchByTokens(tokens ...string) Option {
	return func(e *Engine) {
		specs, err := matcher.ParseAll(tokens)
		if err != nil {
			e.setError(err)
			return
		}
		e.policy.Default = specs
	}
}

// WithPattern overrides the matchers for URLs matching pattern. Patterns are
// tried in the order they were added, after those from the configuration;
// adding a pattern again replaces its matchers in place.
func WithPattern(pattern string, specs ...matcher.Spec) Option {
	return func(e *Engine) {
		for i, o := range e.policy.Overrides {
			if o.Pattern == pattern {
				e.policy.Overrides[i].MatchBy = specs
				return
			}
		}
		e.policy.Overrides = append(e.policy.Overrides, fingerprint.Override{Pattern: pattern, MatchBy: specs})
	}
}

// Only restricts record and replay to URLs matching one of patterns. Other
// requests are answered by fakes registered with WithFake, or go to the
// network untracked. Only with no patterns replays nothing.
func Only(patterns ...string) Option {
	return func(e *Engine) {
		e.only = append([]string{}, patterns...)
	}
}

// WithFake answers requests outside the Only patterns whose URL matches
// pattern. The first matching fake wins.
func WithFake(pattern string, respond Responder) Option {
	return func(e *Engine) {
		e.fakes = append(e.fakes, fake{pattern: pattern, respond: respond})
	}
}

// ReadFrom loads records from the named shared buckets instead of the
// private scope. When buckets disagree on a fingerprint the first one wins.
// New recordings still go to the private scope unless WriteTo is used.
func ReadFrom(names ...string) Option {
	return func(e *Engine) {
		e.readFrom = append([]string{}, names...)
	}
}

// WriteTo writes new recordings into the named shared bucket.
func WriteTo(name string) Option {
	return func(e *Engine) {
		e.writeTo = name
	}
}

// UseShared reads from and writes to the named shared bucket. Combined with
// Fresh it empties the bucket for every test that uses it.
func UseShared(name string) Option {
	return func(e *Engine) {
		e.readFrom = []string{name}
		e.writeTo = name
	}
}

// Fresh deletes stored records before loading: every record in each read
// scope, or with a non-empty pattern only those whose request URL matches it.
func Fresh(pattern string) Option {
	return func(e *Engine) {
		e.fresh = true
		e.freshPattern = pattern
	}
}

// ExpireAfter ignores records captured more than days days ago, so they are
// recorded again.
func ExpireAfter(days int) Option {
	return func(e *Engine) {
		if days < 0 {
			e.setError(errNegativeExpiry)
			return
		}
		e.expireDays = &days
	}
}

// ExpireAfterDuration is ExpireAfter with d rounded up to whole days.
func ExpireAfterDuration(d time.Duration) Option {
	return ExpireAfter(int(math.Ceil(d.Hours() / 24)))
}

// Bail turns would-be recordings into *BailError.
func Bail(on bool) Option {
	return func(e *Engine) {
		e.bail = on
	}
}
