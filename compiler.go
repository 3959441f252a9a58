package racetrack

import (
	"fmt"

	"honnef.co/go/racetrack/border"
	"honnef.co/go/racetrack/encoding"
	"honnef.co/go/racetrack/internal/logging"
	"honnef.co/go/racetrack/mem"
	"honnef.co/go/racetrack/profiler"
	"honnef.co/go/racetrack/raster"
	"honnef.co/go/racetrack/spline"
)

type Status = border.Status

const (
	InProgress = border.InProgress
	Done       = border.Done
)

type Config struct {
	Tolerances border.Tolerances
	Limits     raster.Limits
	// Profile logs the time spent in each phase at debug level.
	Profile bool
}

func DefaultConfig() Config {
	return Config{
		Tolerances: border.DefaultTolerances(),
		Limits:     raster.DefaultLimits(),
	}
}

type phase uint8

const (
	phaseBorders phase = iota
	phaseSubdivide
	phaseRasterize
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseBorders:
		return "borders"
	case phaseSubdivide:
		return "subdivide"
	case phaseRasterize:
		return "rasterize"
	case phaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// A Compiler turns a loop into a track asset. It remembers the borders of
// every segment between compiles, so after an edit only the segments the
// edit touched are rebuilt.
type Compiler struct {
	loop *spline.Loop
	cfg  Config
	aux  []byte

	borders [][2]*border.Border
	pending []*border.Subdivider

	phase   phase
	version uint64
	track   *encoding.Track
	err     error

	prof  profiler.ProfilerGroup
	group profiler.ProfilerGroup
}

func NewCompiler(l *spline.Loop, cfg Config) *Compiler {
	c := &Compiler{
		loop:    l,
		cfg:     cfg,
		borders: make([][2]*border.Border, l.NumSegments()),
		version: l.Version(),
		prof:    profiler.Nop{},
	}
	if cfg.Profile {
		c.prof = profiler.NewSlog(logging.Logger())
	}
	c.startPhase(phaseBorders)
	return c
}

func (c *Compiler) Loop() *spline.Loop { return c.loop }

// SetAux sets the auxiliary data stored in compiled tracks. Tracks
// returned earlier keep the data they were compiled with.
func (c *Compiler) SetAux(data []byte) {
	c.aux = data
	if c.track != nil {
		t := *c.track
		t.Aux = data
		c.track = &t
	}
}

// Track returns the most recently compiled track, or nil. A failed or
// unfinished compile does not replace it.
func (c *Compiler) Track() *encoding.Track { return c.track }

func (c *Compiler) Err() error { return c.err }

func (c *Compiler) startPhase(p phase) {
	if c.group != nil {
		c.group.End()
	}
	c.phase = p
	c.group = nil
	if p != phaseDone {
		c.group = c.prof.Start(p.String())
	}
}

// Advance performs at most maxSteps steps of work, or runs to completion
// if maxSteps is not positive. A step is building the borders of one
// segment, one step of a border's subdivision, or rasterizing the track.
//
// If the loop was edited since the last compile finished or failed,
// compilation starts over, reusing the borders of untouched segments. An
// error stops compilation until the next edit.
func (c *Compiler) Advance(maxSteps int) (Status, error) {
	if (c.phase == phaseDone || c.err != nil) && c.loop.Version() != c.version {
		c.restart()
	}
	if c.err != nil {
		return InProgress, c.err
	}

	steps := 0
	budget := func() int {
		if maxSteps <= 0 {
			return 0
		}
		return maxSteps - steps
	}
	for maxSteps <= 0 || steps < maxSteps {
		switch c.phase {
		case phaseBorders:
			seg, ok := c.nextDirty()
			if !ok {
				c.startPhase(phaseSubdivide)
				continue
			}
			steps++
			bs, err := border.Build(c.loop, seg)
			if err != nil {
				return InProgress, c.fail(err)
			}
			c.borders[seg] = bs
			for _, b := range bs {
				c.pending = append(c.pending, border.NewSubdivider(b, c.cfg.Tolerances))
			}
			c.loop.MarkDone(seg)

		case phaseSubdivide:
			if len(c.pending) == 0 {
				c.startPhase(phaseRasterize)
				continue
			}
			s := c.pending[0]
			before := s.Steps()
			st, err := s.Advance(budget())
			steps += s.Steps() - before
			if err != nil {
				return InProgress, c.fail(err)
			}
			if st == Done {
				b := s.Border()
				logging.Logger().Debug("subdivided border",
					"segment", b.Segment, "side", b.Side, "points", len(b.Subdivisions))
				c.pending = c.pending[1:]
			}

		case phaseRasterize:
			steps++
			track, err := raster.Rasterize(c.loop, c.borders, c.cfg.Limits)
			if err != nil {
				return InProgress, c.fail(err)
			}
			track.Aux = c.aux
			c.track = track
			c.startPhase(phaseDone)
			logging.Logger().Info("compiled track",
				"segments", c.loop.NumSegments(),
				"width", track.Field.Width, "height", track.Field.Height,
				"start", track.Start)

		case phaseDone:
			return Done, nil
		}
	}
	if c.phase == phaseDone {
		return Done, nil
	}
	return InProgress, nil
}

// nextDirty returns the next segment whose borders need to be built.
func (c *Compiler) nextDirty() (mem.Index, bool) {
	for i := range c.loop.Order() {
		if !c.loop.Done(i) || c.borders[i][0] == nil {
			return i, true
		}
	}
	return mem.NoIndex, false
}

func (c *Compiler) restart() {
	c.err = nil
	c.version = c.loop.Version()
	c.startPhase(phaseBorders)
}

// fail aborts the compile. Borders whose subdivision did not finish are
// dropped so that the next compile builds them again.
func (c *Compiler) fail(err error) error {
	c.err = err
	for _, s := range c.pending {
		c.borders[s.Border().Segment] = [2]*border.Border{}
	}
	c.pending = c.pending[:0]
	if c.group != nil {
		c.group.End()
		c.group = nil
	}
	logging.Logger().Warn("compiling track failed", "phase", c.phase, "err", err)
	return err
}

// Compile compiles l in one go.
func Compile(l *spline.Loop, cfg Config) (*encoding.Track, error) {
	c := NewCompiler(l, cfg)
	if _, err := c.Advance(0); err != nil {
		return nil, err
	}
	return c.Track(), nil
}
