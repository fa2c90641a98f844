// Package logging configures the structured loggers used by httpreplay.
//
// It wraps log/slog so every component logs the same way. Components accept a
// *slog.Logger through an option; when none is given they fall back to Nop.
//
// Inside tests, route output through the test log so it is only shown for
// failing or verbose runs:
//
//	log := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Output: logging.NewTestWriter(t),
//	})
package logging
