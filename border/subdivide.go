package border

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"honnef.co/go/curve"
	"honnef.co/go/racetrack/jmath"
	"honnef.co/go/racetrack/spline"
)

type Status uint8

const (
	InProgress Status = iota
	Done
)

func (s Status) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

type Tolerances struct {
	// Seed points closer than this to a grid line count as lying on it.
	GridEpsilon float64
	// Bisection stops once the parameter interval is this small.
	BisectTolerance float64
	// Neighbours closer than FlatDistance are never split for flatness.
	FlatDistance float64
	// Maximum distance of the curve's midpoint from the chord.
	FlatDeviation float64
	// Upper bound on points per border. Exceeding it is reported as
	// degenerate geometry.
	MaxPoints int
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		GridEpsilon:     1e-5,
		BisectTolerance: 1e-6,
		FlatDistance:    0.001,
		FlatDeviation:   0.01,
		MaxPoints:       1 << 16,
	}
}

const maxBisections = 64

type Subdivision struct {
	T float64
	// Insertion order, for stable sorting of points with equal T.
	Seq     int
	Point   curve.Point
	Tangent curve.Vec2
	Tags    Tags
	// The grid lines the point lies on, valid for TagX and TagY.
	GridX, GridY int
}

type pass uint8

const (
	gridPass pass = iota
	flatPass
	finished
)

// A Subdivider refines a border into a polyline whose vertices include
// every crossing of the curve with an integer grid line and whose spans
// are flat to within the tolerances. The work is split into steps so that
// callers can interleave it with other work; see Advance.
type Subdivider struct {
	border *Border
	tol    Tolerances
	points []Subdivision
	seq    int

	pass     pass
	cursor   int
	inserted bool
	steps    int
	err      error
}

func NewSubdivider(b *Border, tol Tolerances) *Subdivider {
	s := &Subdivider{border: b, tol: tol}
	for _, t := range [2]float64{0, 1} {
		p := b.Curve.Eval(t)
		sub := Subdivision{
			T:       t,
			Seq:     s.nextSeq(),
			Point:   p,
			Tangent: endTangent(b.Curve, t),
			Tags:    TagSegment,
		}
		s.snap(&sub)
		s.points = append(s.points, sub)
	}
	return s
}

func (s *Subdivider) Border() *Border { return s.border }

// Steps returns the number of steps performed so far.
func (s *Subdivider) Steps() int { return s.steps }

// Len returns the number of points found so far.
func (s *Subdivider) Len() int { return len(s.points) }

func (s *Subdivider) nextSeq() int {
	s.seq++
	return s.seq - 1
}

// Advance performs at most maxSteps steps, or runs to completion if maxSteps
// is not positive. Each step examines one pair of neighbouring points.
// Once Done is returned the border's Subdivisions are populated. Errors
// are sticky.
func (s *Subdivider) Advance(maxSteps int) (Status, error) {
	if s.err != nil {
		return InProgress, s.err
	}
	for steps := 0; maxSteps <= 0 || steps < maxSteps; steps++ {
		s.steps++
		if len(s.points) > s.tol.MaxPoints {
			s.err = s.degenerate(s.points[min(s.cursor, len(s.points)-1)].T, fmt.Sprintf("refinement did not converge within %d points", s.tol.MaxPoints))
			return InProgress, s.err
		}
		switch s.pass {
		case gridPass:
			if s.cursor >= len(s.points)-1 {
				s.pass = flatPass
				s.cursor = 0
				continue
			}
			ok, err := s.refineGrid(s.cursor)
			if err != nil {
				s.err = err
				return InProgress, err
			}
			if ok {
				// Check the first half of the split pair again.
				s.inserted = true
			} else {
				s.cursor++
			}
		case flatPass:
			if s.cursor >= len(s.points)-1 {
				if !s.inserted {
					s.finish()
					return Done, nil
				}
				s.inserted = false
				s.pass = gridPass
				s.cursor = 0
				continue
			}
			ok, err := s.refineFlat(s.cursor)
			if err != nil {
				s.err = err
				return InProgress, err
			}
			if ok {
				s.inserted = true
			} else {
				s.cursor++
			}
		case finished:
			return Done, nil
		}
	}
	return InProgress, nil
}

// refineGrid inserts a crossing with a grid line lying strictly between
// points i and i+1, if there is one.
func (s *Subdivider) refineGrid(i int) (bool, error) {
	a, b := &s.points[i], &s.points[i+1]
	if line, ok := lineBetween(a.Point.X, b.Point.X, a.lineX, b.lineX); ok {
		t := s.bisect(a.T, b.T, func(p curve.Point) float64 { return p.X - float64(line) })
		return true, s.insert(i+1, t, TagX, line, 0)
	}
	if line, ok := lineBetween(a.Point.Y, b.Point.Y, a.lineY, b.lineY); ok {
		t := s.bisect(a.T, b.T, func(p curve.Point) float64 { return p.Y - float64(line) })
		return true, s.insert(i+1, t, TagY, 0, line)
	}
	return false, nil
}

// refineFlat splits the span between points i and i+1 at its parametric
// midpoint if the curve strays too far from the straight span.
func (s *Subdivider) refineFlat(i int) (bool, error) {
	a, b := s.points[i], s.points[i+1]
	chord := b.Point.Sub(a.Point)
	d := chord.Hypot()
	if d <= s.tol.FlatDistance {
		return false, nil
	}
	t := (a.T + b.T) / 2
	m := s.border.Curve.Eval(t)
	if math.Abs(chord.Cross(m.Sub(a.Point)))/d <= s.tol.FlatDeviation {
		return false, nil
	}
	return true, s.insert(i+1, t, TagCurvature, 0, 0)
}

func (s *Subdivider) insert(at int, t float64, tags Tags, gx, gy int) error {
	tan := derivative(s.border.Curve, t)
	if tan.Hypot2() <= jmath.Epsilon {
		return s.degenerate(t, "curve has no direction")
	}
	sub := Subdivision{
		T:       t,
		Seq:     s.nextSeq(),
		Point:   s.border.Curve.Eval(t),
		Tangent: tan,
		Tags:    tags,
		GridX:   gx,
		GridY:   gy,
	}
	s.snap(&sub)
	s.points = slices.Insert(s.points, at, sub)
	return nil
}

// snap tags p with the grid lines it lies on within GridEpsilon.
func (s *Subdivider) snap(p *Subdivision) {
	if x := math.Round(p.Point.X); !p.Tags.Has(TagX) && math.Abs(p.Point.X-x) < s.tol.GridEpsilon {
		p.Tags |= TagX
		p.GridX = int(x)
	}
	if y := math.Round(p.Point.Y); !p.Tags.Has(TagY) && math.Abs(p.Point.Y-y) < s.tol.GridEpsilon {
		p.Tags |= TagY
		p.GridY = int(y)
	}
}

// bisect finds the parameter in [lo, hi] where f changes sign.
func (s *Subdivider) bisect(lo, hi float64, f func(curve.Point) float64) float64 {
	c := s.border.Curve
	neg := f(c.Eval(lo)) < 0
	for range maxBisections {
		if hi-lo <= s.tol.BisectTolerance {
			break
		}
		mid := (lo + hi) / 2
		if (f(c.Eval(mid)) < 0) == neg {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

func (s *Subdivider) finish() {
	slices.SortStableFunc(s.points, func(a, b Subdivision) int {
		return cmp.Or(cmp.Compare(a.T, b.T), cmp.Compare(a.Seq, b.Seq))
	})
	out := s.points[:0]
	for _, p := range s.points {
		if n := len(out); n > 0 && out[n-1].T == p.T {
			prev := &out[n-1]
			if p.Tags.Has(TagX) && !prev.Tags.Has(TagX) {
				prev.GridX = p.GridX
			}
			if p.Tags.Has(TagY) && !prev.Tags.Has(TagY) {
				prev.GridY = p.GridY
			}
			prev.Tags |= p.Tags
			continue
		}
		out = append(out, p)
	}
	s.points = out
	s.border.Subdivisions = out
	s.pass = finished
}

func (s *Subdivider) degenerate(t float64, reason string) error {
	return &spline.DegenerateGeometryError{
		Segment: int(s.border.Segment),
		Node:    -1,
		T:       t,
		Reason:  fmt.Sprintf("%s border: %s", s.border.Side, reason),
	}
}

func (p *Subdivision) lineX() (int, bool) { return p.GridX, p.Tags.Has(TagX) }
func (p *Subdivision) lineY() (int, bool) { return p.GridY, p.Tags.Has(TagY) }

// lineBetween returns the lowest integer strictly between a and b,
// ignoring the grid lines the two points are known to lie on.
func lineBetween(a, b float64, la, lb func() (int, bool)) (int, bool) {
	lo, hi := a, b
	llo, lhi := la, lb
	if lo > hi {
		lo, hi = hi, lo
		llo, lhi = lhi, llo
	}
	first := jmath.FloorInt(lo) + 1
	if l, ok := llo(); ok && l >= first {
		first = l + 1
	}
	last := jmath.CeilInt(hi) - 1
	if l, ok := lhi(); ok && l <= last {
		last = l - 1
	}
	return first, first <= last
}

func derivative(c curve.CubicBez, t float64) curve.Vec2 {
	return curve.Vec2(c.Differentiate().Eval(t))
}

// endTangent is the direction at t = 0 or t = 1, falling back to
// directions towards further control points where handles coincide.
func endTangent(c curve.CubicBez, t float64) curve.Vec2 {
	d0, d1 := c.Tangents()
	if t == 0 {
		return d0
	}
	return d1
}
