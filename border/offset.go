package border

import (
	"honnef.co/go/curve"
	"honnef.co/go/racetrack/jmath"
	"honnef.co/go/racetrack/mem"
	"honnef.co/go/racetrack/spline"
)

type Side uint8

const (
	// Left is offset along the node normals, to the left of travel.
	Left Side = iota
	// Right is offset against the node normals.
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// A Border is one of the two curves bounding the belt along a segment.
type Border struct {
	Curve   curve.CubicBez
	Side    Side
	Segment mem.Index
	// Subdivisions is nil until a Subdivider has finished with the border.
	Subdivisions []Subdivision
}

// Build computes both borders of segment seg.
//
// The border endpoints are the segment endpoints moved by ± the node
// normal. The control handles keep their direction but are scaled by
// 1 ∓ a/3, where a is the signed turning angle between the node tangent
// and the chord. This shortens the handles on the inside of a turn, which
// would otherwise loop over themselves on tight bends, and lengthens them
// on the outside.
func Build(l *spline.Loop, seg mem.Index) ([2]*Border, error) {
	s := l.Segment(seg)
	c := l.Controls(seg)
	ns, err := l.Normal(s.Start)
	if err != nil {
		return [2]*Border{}, err
	}
	ne, err := l.Normal(s.End)
	if err != nil {
		return [2]*Border{}, err
	}
	ts, err := l.Tangent(s.Start)
	if err != nil {
		return [2]*Border{}, err
	}
	te, err := l.Tangent(s.End)
	if err != nil {
		return [2]*Border{}, err
	}

	var as, ae float64
	if chord, ok := jmath.Unit(c.P3.Sub(c.P0)); ok {
		as = ts.Cross(chord)
		ae = chord.Cross(te)
	}

	h1 := c.P1.Sub(c.P0)
	h2 := c.P2.Sub(c.P3)
	offset := func(side Side, sign float64) *Border {
		p0 := c.P0.Translate(ns.Mul(sign))
		p3 := c.P3.Translate(ne.Mul(sign))
		return &Border{
			Curve: curve.CubicBez{
				P0: p0,
				P1: p0.Translate(h1.Mul(1-sign*as/3)),
				P2: p3.Translate(h2.Mul(1-sign*ae/3)),
				P3: p3,
			},
			Side:    side,
			Segment: seg,
		}
	}
	return [2]*Border{offset(Left, 1), offset(Right, -1)}, nil
}
