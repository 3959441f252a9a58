// Package spline models a closed loop of cubic Bézier segments whose nodes
// carry a track width.
//
// Nodes and segments live in index arenas. The node that closes the loop is
// shared by the last and the first segment by index, so there is no
// ownership cycle to manage. Changing a node's width drops its cached normal
// and marks both incident segments dirty; consumers rebuild only dirty
// segments.
package spline

import (
	"iter"
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/racetrack/internal/logging"
	"honnef.co/go/racetrack/jmath"
	"honnef.co/go/racetrack/mem"
)

const closeTolerance = 1e-3

type Options struct {
	// Widths below MinWidth are raised to it.
	MinWidth float64
	// Width assigned to nodes that have no override.
	DefaultWidth float64
}

func DefaultOptions() Options {
	return Options{
		MinWidth:     0.25,
		DefaultWidth: 2.5,
	}
}

type Node struct {
	Pos curve.Point

	width   float64
	tangent option[curve.Vec2]
	normal  option[curve.Vec2]
	// Segment ending at this node and segment starting at it.
	in, out mem.Index
}

type Segment struct {
	Start, End         mem.Index
	Control1, Control2 curve.Point

	done bool
}

type Loop struct {
	nodes    *mem.Arena[Node]
	segments *mem.Arena[Segment]
	first    mem.Index
	opts     Options
	// Incremented by every edit.
	version uint64
}

// FromPoints builds a loop from a flattened Bézier chain: a start point
// followed by (control1, control2, end) triples. The final end point closes
// the loop onto the first point. A trailing copy of the first point, as
// produced by an SVG close command, is ignored.
func FromPoints(points []curve.Point, opts Options) (*Loop, error) {
	if len(points) < 4 {
		return nil, malformedf("need at least 4 points, got %d", len(points))
	}
	if len(points)%3 == 2 && points[len(points)-1] == points[0] {
		points = points[:len(points)-1]
	}
	if (len(points)-1)%3 != 0 {
		return nil, malformedf("%d points do not form a cubic Bézier chain", len(points))
	}
	if opts.MinWidth <= 0 {
		opts.MinWidth = DefaultOptions().MinWidth
	}
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = DefaultOptions().DefaultWidth
	}
	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, malformedf("point %d is not finite", i)
		}
	}

	n := (len(points) - 1) / 3
	l := &Loop{
		nodes:    mem.NewArena[Node](n),
		segments: mem.NewArena[Segment](n),
		opts:     opts,
	}
	width := max(opts.DefaultWidth, opts.MinWidth)
	first := l.nodes.Alloc(Node{Pos: points[0], width: width, in: mem.NoIndex, out: mem.NoIndex})
	prev := first
	for k := range n {
		c1, c2, end := points[3*k+1], points[3*k+2], points[3*k+3]
		var endNode mem.Index
		if k == n-1 {
			if d := end.Sub(points[0]).Hypot(); d > closeTolerance {
				logging.Logger().Warn("track path is not closed, reusing the first point",
					"gap", d, "end", end, "start", points[0])
			}
			endNode = first
		} else {
			endNode = l.nodes.Alloc(Node{Pos: end, width: width, in: mem.NoIndex, out: mem.NoIndex})
		}
		si := l.segments.Alloc(Segment{Start: prev, End: endNode, Control1: c1, Control2: c2})
		l.nodes.At(prev).out = si
		l.nodes.At(endNode).in = si
		prev = endNode
	}
	return l, nil
}

func (l *Loop) Options() Options { return l.opts }
func (l *Loop) NumNodes() int    { return l.nodes.Len() }
func (l *Loop) NumSegments() int { return l.segments.Len() }

func (l *Loop) Segment(i mem.Index) Segment { return *l.segments.At(i) }
func (l *Loop) Pos(i mem.Index) curve.Point { return l.nodes.At(i).Pos }
func (l *Loop) Width(i mem.Index) float64   { return l.nodes.At(i).width }

// SetWidth changes the width of node i. The node's normal is recomputed on
// next use and both segments touching it are marked dirty.
func (l *Loop) SetWidth(i mem.Index, w float64) {
	if math.IsNaN(w) {
		w = l.opts.MinWidth
	}
	w = max(w, l.opts.MinWidth)
	node := l.nodes.At(i)
	if node.width == w {
		return
	}
	node.width = w
	node.normal.clear()
	l.version++
	l.segments.At(node.in).done = false
	l.segments.At(node.out).done = false
}

// Tangent returns the unit tangent at node i, derived from the control
// points on either side of it. When those coincide the direction between
// the neighbouring nodes is used instead.
func (l *Loop) Tangent(i mem.Index) (curve.Vec2, error) {
	node := l.nodes.At(i)
	if node.tangent.isSet {
		return node.tangent.value, nil
	}
	if !node.in.Valid() || !node.out.Valid() {
		return curve.Vec2{}, &DegenerateGeometryError{Segment: -1, Node: int(i), Reason: "node is not part of a closed loop"}
	}
	in := l.segments.At(node.in)
	out := l.segments.At(node.out)
	t, ok := jmath.Unit(out.Control1.Sub(in.Control2))
	if !ok {
		t, ok = jmath.Unit(l.nodes.At(out.End).Pos.Sub(l.nodes.At(in.Start).Pos))
	}
	if !ok {
		return curve.Vec2{}, &DegenerateGeometryError{Segment: -1, Node: int(i), Reason: "tangent is undefined"}
	}
	node.tangent.set(t)
	return t, nil
}

// Normal returns the tangent at node i rotated to the left of the direction
// of travel and scaled by the node's width.
func (l *Loop) Normal(i mem.Index) (curve.Vec2, error) {
	node := l.nodes.At(i)
	if node.normal.isSet {
		return node.normal.value, nil
	}
	t, err := l.Tangent(i)
	if err != nil {
		return curve.Vec2{}, err
	}
	n := jmath.Perp(t).Mul(node.width)
	node.normal.set(n)
	return n, nil
}

func (l *Loop) Done(i mem.Index) bool { return l.segments.At(i).done }
func (l *Loop) MarkDone(i mem.Index)  { l.segments.At(i).done = true }

// Invalidate marks every segment dirty.
func (l *Loop) Invalidate() {
	for _, s := range l.segments.All() {
		s.done = false
	}
	l.version++
}

func (l *Loop) Dirty() bool {
	for _, s := range l.segments.All() {
		if !s.done {
			return true
		}
	}
	return false
}

// First returns the segment the loop starts with. Its start node is the
// track's start point.
func (l *Loop) First() mem.Index { return l.first }

// SetFirst makes segment i the start of the loop.
func (l *Loop) SetFirst(i mem.Index) {
	if i < 0 || int(i) >= l.segments.Len() || i == l.first {
		return
	}
	l.first = i
	l.version++
}

// Version changes whenever the loop is edited.
func (l *Loop) Version() uint64 { return l.version }

func (l *Loop) Start() curve.Point {
	return l.nodes.At(l.segments.At(l.first).Start).Pos
}

// Order yields segment indices around the loop beginning with First.
func (l *Loop) Order() iter.Seq[mem.Index] {
	return func(yield func(mem.Index) bool) {
		n := l.segments.Len()
		for k := range n {
			if !yield(mem.Index((int(l.first) + k) % n)) {
				return
			}
		}
	}
}

// Controls returns the four Bézier control points of segment i.
func (l *Loop) Controls(i mem.Index) curve.CubicBez {
	s := l.segments.At(i)
	return curve.CubicBez{
		P0: l.nodes.At(s.Start).Pos,
		P1: s.Control1,
		P2: s.Control2,
		P3: l.nodes.At(s.End).Pos,
	}
}
