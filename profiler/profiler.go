// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package profiler

import (
	"context"
	"log/slog"
	"time"
)

type ProfilerGroup interface {
	Start(label string) ProfilerGroup
	End()
}

// Nop is a ProfilerGroup that records nothing.
type Nop struct{}

func (Nop) Start(string) ProfilerGroup { return Nop{} }
func (Nop) End()                       {}

// SlogGroup reports the wall time of each group at debug level when the
// group ends. Nested groups carry their parent's label as a prefix.
type SlogGroup struct {
	logger *slog.Logger
	label  string
	start  time.Time
}

func NewSlog(logger *slog.Logger) *SlogGroup {
	return &SlogGroup{logger: logger, start: time.Now()}
}

func (g *SlogGroup) Start(label string) ProfilerGroup {
	if g.label != "" {
		label = g.label + "/" + label
	}
	return &SlogGroup{logger: g.logger, label: label, start: time.Now()}
}

func (g *SlogGroup) End() {
	if !g.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	g.logger.Debug("profile", "group", g.label, "elapsed", time.Since(g.start))
}
