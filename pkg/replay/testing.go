package replay

import (
	"strings"
	"testing"

	"github.com/getmockd/httpreplay/pkg/config"
	"github.com/getmockd/httpreplay/pkg/logging"
)

// ForTest returns an engine scoped to tb. Settings come from the project
// config (see config.LoadProject) in the package directory, logs go to the
// test log, and configuration errors fail the test immediately.
//
// Newly recorded files are listed in the test log when the test ends.
func ForTest(tb testing.TB, opts ...Option) *Engine {
	tb.Helper()

	cfg, err := config.LoadProject(".")
	if err != nil {
		tb.Fatalf("httpreplay: %v", err)
	}

	base := []Option{
		WithLogger(cfg.Logger(logging.NewTestWriter(tb))),
		WithTest(tb),
	}
	e, err := New(*cfg, append(base, opts...)...)
	if err != nil {
		tb.Fatalf("httpreplay: %v", err)
	}

	tb.Cleanup(func() {
		if recorded := e.Recorded(); len(recorded) > 0 {
			tb.Logf("httpreplay: recorded %d new response(s), commit them:\n  %s",
				len(recorded), strings.Join(recorded, "\n  "))
		}
	})
	return e
}
