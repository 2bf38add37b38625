// Package logging builds the logfmt loggers used across the commands.
package logging

import (
	"io"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// New returns a synchronized logfmt logger writing to w. Debug records are
// dropped unless verbose is set.
func New(w io.Writer, verbose bool) kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	logger = kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)

	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowInfo())
}

// Nop discards everything.
func Nop() kitlog.Logger {
	return kitlog.NewNopLogger()
}
