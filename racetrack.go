// Package racetrack compiles curved track outlines into collision assets.
//
// A track is drawn as a closed chain of cubic Bézier segments along its
// centre line, with a width at every node. The compiler offsets the centre
// line into two border curves per segment, refines the borders until they
// are flat between grid line crossings, and rasterizes the belt between
// them into an open-fraction field. The resulting [encoding.Track] is
// queried at run time through the collision package.
//
// Compilation can be spread over many calls to [Compiler.Advance] so that
// interactive hosts stay responsive, and only segments touched by an edit
// are rebuilt.
package racetrack

import (
	"log/slog"

	"honnef.co/go/racetrack/internal/logging"
)

// SetLogger sets the logger used by all racetrack packages. Passing nil
// disables logging, which is the default.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the logger used by all racetrack packages.
func Logger() *slog.Logger {
	return logging.Logger()
}
