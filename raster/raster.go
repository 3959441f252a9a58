// Package raster turns subdivided track borders into the open-fraction
// field and rails of a track asset.
//
// Every subdivision point tagged with a grid line is a crossing of the
// belt boundary with that line. Crossings of both borders are gathered per
// line into strips and sorted along the line. Walking a strip while
// counting how deep inside the belt we are yields the on-track intervals
// of the line, which are then sampled at the lattice points they cover.
package raster

import (
	"cmp"
	"fmt"
	"image"
	"math"
	"slices"

	"honnef.co/go/curve"
	"honnef.co/go/racetrack/border"
	"honnef.co/go/racetrack/encoding"
	"honnef.co/go/racetrack/internal/logging"
	"honnef.co/go/racetrack/jmath"
	"honnef.co/go/racetrack/mem"
	"honnef.co/go/racetrack/spline"
)

type Limits struct {
	// Largest number of cells in the field.
	MaxCells int
	// Largest width or height of the field.
	MaxSide int
	// Lattice points closer than Epsilon to a crossing lie on the border
	// and are off track.
	Epsilon float64
}

func DefaultLimits() Limits {
	return Limits{
		MaxCells: encoding.MaxCells,
		MaxSide:  encoding.MaxSide,
		Epsilon:  1e-5,
	}
}

// EmptyTrackError is returned when the borders enclose no lattice point.
type EmptyTrackError struct {
	Reason string
}

func (e *EmptyTrackError) Error() string {
	return "empty track: " + e.Reason
}

type crossing struct {
	pos      float64
	entering bool
}

// strips maps a grid line to the crossings on it.
type strips struct {
	mem.SortedMap[int, []crossing]
}

func (s *strips) add(line int, c crossing) {
	cs, _ := s.Get(line)
	s.Insert(line, append(cs, c))
}

// Rasterize builds the track asset for l. borders holds the subdivided
// borders of every segment of l, indexed by segment.
func Rasterize(l *spline.Loop, borders [][2]*border.Border, limits Limits) (*encoding.Track, error) {
	if len(borders) != l.NumSegments() {
		return nil, fmt.Errorf("got borders for %d segments, loop has %d", len(borders), l.NumSegments())
	}
	for seg := range l.Order() {
		for _, b := range borders[seg] {
			if b == nil || len(b.Subdivisions) < 2 {
				return nil, &EmptyTrackError{Reason: fmt.Sprintf("segment %d has an unsubdivided border", seg)}
			}
		}
	}

	minX, minY, maxX, maxY := bounds(borders)
	w, h := maxX-minX+1, maxY-minY+1
	if w > limits.MaxSide || h > limits.MaxSide || w*h > limits.MaxCells {
		return nil, &spline.DegenerateGeometryError{
			Segment: -1,
			Node:    -1,
			Reason:  fmt.Sprintf("track bounds of %dx%d cells exceed the limits", w, h),
		}
	}

	var vertical, horizontal strips
	var rails [2][]curve.Point
	// Lattice points the borders pass through.
	var onBorder []image.Point
	for seg := range l.Order() {
		for _, b := range borders[seg] {
			for _, p := range b.Subdivisions {
				// The end of a segment is the start of the next one.
				if p.T == 1 {
					continue
				}
				rails[b.Side] = append(rails[b.Side], p.Point)
				addCrossings(&vertical, &horizontal, b.Side, p)
				if p.Tags.Has(border.TagX) && p.Tags.Has(border.TagY) {
					onBorder = append(onBorder, image.Pt(p.GridX, p.GridY))
				}
			}
		}
	}

	f := encoding.NewField(w, h)
	eps := max(limits.Epsilon, 0)
	nv := fill(f, &vertical, minX, minY, eps, true)
	nh := fill(f, &horizontal, minX, minY, eps, false)
	// A strip along which a border runs does not see that border, so
	// points on it are cleared here.
	for _, p := range onBorder {
		for ch := range 4 {
			f.SetFraction(p.X-minX, p.Y-minY, ch, 0)
		}
	}
	logging.Logger().Debug("rasterized track",
		"width", w, "height", h,
		"vertical strips", vertical.Len(), "horizontal strips", horizontal.Len(),
		"vertical intervals", nv, "horizontal intervals", nh)
	if f.Empty() {
		return nil, &EmptyTrackError{Reason: "borders enclose no lattice point"}
	}

	start := l.Start()
	sx, sy := int(math.Round(start.X)), int(math.Round(start.Y))
	return &encoding.Track{
		Field:   f,
		Rails:   [2][]encoding.RailPoint{rail(rails[border.Left], sx, sy, false), rail(rails[border.Right], sx, sy, true)},
		Start:   image.Pt(sx-minX, sy-minY),
		Version: encoding.Version,
	}, nil
}

func bounds(borders [][2]*border.Border) (minX, minY, maxX, maxY int) {
	lo := curve.Point{X: math.Inf(1), Y: math.Inf(1)}
	hi := curve.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, bs := range borders {
		for _, b := range bs {
			for _, p := range [4]curve.Point{b.Curve.P0, b.Curve.P1, b.Curve.P2, b.Curve.P3} {
				lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
				hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
			}
		}
	}
	return jmath.FloorInt(lo.X), jmath.FloorInt(lo.Y), jmath.CeilInt(hi.X), jmath.CeilInt(hi.Y)
}

// addCrossings records p in the strips of the grid lines it lies on.
//
// The belt lies to the right of the left border and to the left of the
// right border. Vertical lines are scanned towards +y and horizontal ones
// towards +x, which fixes whether a crossing enters or leaves the belt.
// Points where the border only touches a line are ignored.
func addCrossings(vertical, horizontal *strips, side border.Side, p border.Subdivision) {
	if p.Tags.Has(border.TagX) && p.Tangent.X != 0 {
		entering := p.Tangent.X < 0
		if side == border.Right {
			entering = !entering
		}
		vertical.add(p.GridX, crossing{pos: p.Point.Y, entering: entering})
	}
	if p.Tags.Has(border.TagY) && p.Tangent.Y != 0 {
		entering := p.Tangent.Y > 0
		if side == border.Right {
			entering = !entering
		}
		horizontal.add(p.GridY, crossing{pos: p.Point.X, entering: entering})
	}
}

// fill writes the on-track intervals of every strip into f and returns
// the number of intervals.
func fill(f *encoding.Field, s *strips, minX, minY int, eps float64, vertical bool) int {
	n := 0
	for line, cs := range s.All() {
		slices.SortFunc(cs, func(a, b crossing) int {
			if c := cmp.Compare(a.pos, b.pos); c != 0 {
				return c
			}
			// Close touching intervals only after opening the next.
			switch {
			case a.entering == b.entering:
				return 0
			case a.entering:
				return -1
			default:
				return 1
			}
		})
		depth := 0
		var from float64
		for _, c := range cs {
			if c.entering {
				depth++
				if depth == 1 {
					from = c.pos
				}
				continue
			}
			if depth == 0 {
				logging.Logger().Warn("border leaves the track without entering it", "line", line, "vertical", vertical, "pos", c.pos)
				continue
			}
			depth--
			if depth == 0 {
				n++
				span(f, line, from, c.pos, minX, minY, eps, vertical)
			}
		}
		if depth != 0 {
			logging.Logger().Warn("border enters the track without leaving it", "line", line, "vertical", vertical, "depth", depth)
		}
	}
	return n
}

// span marks the lattice points of [a, b] on a grid line. Points within
// eps of either end lie on the border and are skipped.
func span(f *encoding.Field, line int, a, b float64, minX, minY int, eps float64, vertical bool) {
	for k := jmath.CeilInt(a); k <= jmath.FloorInt(b); k++ {
		if float64(k)-a <= eps || b-float64(k) <= eps {
			continue
		}
		fwd := min(1, b-float64(k))
		back := min(1, float64(k)-a)
		if vertical {
			x, y := line-minX, k-minY
			setMax(f, x, y, encoding.ChanPosY, fwd)
			setMax(f, x, y, encoding.ChanNegY, back)
		} else {
			x, y := k-minX, line-minY
			setMax(f, x, y, encoding.ChanPosX, fwd)
			setMax(f, x, y, encoding.ChanNegX, back)
		}
	}
}

func setMax(f *encoding.Field, x, y, ch int, v float64) {
	if v > f.Fraction(x, y, ch) {
		f.SetFraction(x, y, ch, v)
	}
}
