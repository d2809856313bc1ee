package authcore

import "github.com/decred/slog"

// log is a logger that is initialized with no output filters. This means the
// package will not perform any logging by default until the caller requests
// it.
var log = slog.Disabled

// UseLogger sets the package-wide logger. Call it before building an Engine.
func UseLogger(logger slog.Logger) {
	log = logger
}
