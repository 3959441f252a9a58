package border

import (
	"errors"
	"math"
	"testing"

	"honnef.co/go/curve"
	"honnef.co/go/racetrack/spline"
)

func circleLoop(t *testing.T, r, width float64) *spline.Loop {
	t.Helper()
	k := r * 0.5523
	pts := []curve.Point{
		{X: r, Y: 0},
		{X: r, Y: k}, {X: k, Y: r}, {X: 0, Y: r},
		{X: -k, Y: r}, {X: -r, Y: k}, {X: -r, Y: 0},
		{X: -r, Y: -k}, {X: -k, Y: -r}, {X: 0, Y: -r},
		{X: k, Y: -r}, {X: r, Y: -k}, {X: r, Y: 0},
	}
	l, err := spline.FromPoints(pts, spline.Options{DefaultWidth: width})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func line(p0, p3 curve.Point) curve.CubicBez {
	return curve.CubicBez{P0: p0, P1: p0.Lerp(p3, 1.0/3), P2: p0.Lerp(p3, 2.0/3), P3: p3}
}

func TestTagsString(t *testing.T) {
	tests := []struct {
		tags Tags
		want string
	}{
		{0, "-"},
		{TagX, "x"},
		{TagY | TagSegment, "ys"},
		{TagX | TagY | TagSegment | TagCurvature, "xysc"},
	}
	for _, tt := range tests {
		if got := tt.tags.String(); got != tt.want {
			t.Errorf("Tags(%d).String() = %q, want %q", tt.tags, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	l := circleLoop(t, 10, 3)
	borders, err := Build(l, 0)
	if err != nil {
		t.Fatal(err)
	}
	left, right := borders[0], borders[1]
	if left.Side != Left || right.Side != Right {
		t.Fatalf("sides = %s, %s", left.Side, right.Side)
	}
	if got := left.Curve.P0; math.Abs(got.X-7) > 1e-9 || math.Abs(got.Y) > 1e-9 {
		t.Errorf("left border starts at %v, want (7, 0)", got)
	}
	if got := right.Curve.P3; math.Abs(got.X) > 1e-9 || math.Abs(got.Y-13) > 1e-9 {
		t.Errorf("right border ends at %v, want (0, 13)", got)
	}
	// The left border is on the inside of this counter-clockwise turn.
	lh := left.Curve.P1.Sub(left.Curve.P0).Hypot()
	rh := right.Curve.P1.Sub(right.Curve.P0).Hypot()
	if !(lh < 5.523 && rh > 5.523) {
		t.Errorf("handle lengths = %g (inner), %g (outer), want inner shortened and outer lengthened", lh, rh)
	}

	// Neighbouring borders meet.
	next, err := Build(l, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i := range borders {
		if borders[i].Curve.P3 != next[i].Curve.P0 {
			t.Errorf("%s border: segment 0 ends at %v, segment 1 starts at %v",
				borders[i].Side, borders[i].Curve.P3, next[i].Curve.P0)
		}
	}
}

func TestSubdivideGridCrossings(t *testing.T) {
	b := &Border{Curve: line(curve.Point{X: 0.5, Y: 0.25}, curve.Point{X: 3.5, Y: 2.75})}
	st, err := NewSubdivider(b, DefaultTolerances()).Advance(0)
	if err != nil {
		t.Fatal(err)
	}
	if st != Done {
		t.Fatalf("status = %s, want done", st)
	}
	var xs, ys []int
	for i, p := range b.Subdivisions {
		if i > 0 && b.Subdivisions[i-1].T >= p.T {
			t.Errorf("subdivisions not sorted at %d", i)
		}
		if p.Tags.Has(TagCurvature) {
			t.Errorf("straight line got a curvature point at t=%g", p.T)
		}
		if p.Tags.Has(TagX) {
			xs = append(xs, p.GridX)
			if math.Abs(p.Point.X-float64(p.GridX)) > 1e-5 {
				t.Errorf("point %v is not on x=%d", p.Point, p.GridX)
			}
		}
		if p.Tags.Has(TagY) {
			ys = append(ys, p.GridY)
			if math.Abs(p.Point.Y-float64(p.GridY)) > 1e-5 {
				t.Errorf("point %v is not on y=%d", p.Point, p.GridY)
			}
		}
	}
	if len(b.Subdivisions) != 7 {
		t.Errorf("got %d subdivisions, want 7", len(b.Subdivisions))
	}
	if len(xs) != 3 || xs[0] != 1 || xs[2] != 3 {
		t.Errorf("x crossings = %v, want [1 2 3]", xs)
	}
	if len(ys) != 2 || ys[0] != 1 || ys[1] != 2 {
		t.Errorf("y crossings = %v, want [1 2]", ys)
	}
	if first, last := b.Subdivisions[0], b.Subdivisions[len(b.Subdivisions)-1]; !first.Tags.Has(TagSegment) || !last.Tags.Has(TagSegment) {
		t.Errorf("endpoints tagged %s and %s", first.Tags, last.Tags)
	}
}

func TestTangents(t *testing.T) {
	// Both handles coincide with their end points, so the end tangents
	// fall back to the direction between the far control points.
	c := curve.CubicBez{
		P0: curve.Point{X: 0.5, Y: 0.5},
		P1: curve.Point{X: 0.5, Y: 0.5},
		P2: curve.Point{X: 3.5, Y: 2.5},
		P3: curve.Point{X: 3.5, Y: 2.5},
	}
	b := &Border{Curve: c}
	if _, err := NewSubdivider(b, DefaultTolerances()).Advance(0); err != nil {
		t.Fatal(err)
	}
	want := curve.Vec(3, 2)
	first, last := b.Subdivisions[0], b.Subdivisions[len(b.Subdivisions)-1]
	if first.Tangent != want || last.Tangent != want {
		t.Errorf("end tangents = %v, %v, want %v", first.Tangent, last.Tangent, want)
	}

	for _, tt := range []float64{0.25, 0.5, 0.75} {
		got := derivative(line(curve.Point{X: 0, Y: 0}, curve.Point{X: 6, Y: 3}), tt)
		if math.Abs(got.X-6) > 1e-9 || math.Abs(got.Y-3) > 1e-9 {
			t.Errorf("derivative at t=%g = %v, want (6, 3)", tt, got)
		}
	}
}

func TestSubdivideMergesEqualT(t *testing.T) {
	// The line passes through the lattice point (2, 2), so the x and y
	// crossings there coincide.
	b := &Border{Curve: line(curve.Point{X: 0.5, Y: 0.5}, curve.Point{X: 3.5, Y: 3.5})}
	if _, err := NewSubdivider(b, DefaultTolerances()).Advance(0); err != nil {
		t.Fatal(err)
	}
	for i, p := range b.Subdivisions {
		if i > 0 && b.Subdivisions[i-1].T == p.T {
			t.Errorf("duplicate t=%g at %d", p.T, i)
		}
	}
}

func TestSubdivideFlatness(t *testing.T) {
	l := circleLoop(t, 10, 3)
	tol := DefaultTolerances()
	for seg := range l.Order() {
		borders, err := Build(l, seg)
		if err != nil {
			t.Fatal(err)
		}
		for _, b := range borders {
			if _, err := NewSubdivider(b, tol).Advance(0); err != nil {
				t.Fatal(err)
			}
			subs := b.Subdivisions
			for i := range len(subs) - 1 {
				a, c := subs[i], subs[i+1]
				chord := c.Point.Sub(a.Point)
				d := chord.Hypot()
				if d <= tol.FlatDistance {
					continue
				}
				m := b.Curve.Eval((a.T + c.T) / 2)
				if dev := math.Abs(chord.Cross(m.Sub(a.Point))) / d; dev > tol.FlatDeviation {
					t.Errorf("segment %d %s border: span %d deviates by %g", seg, b.Side, i, dev)
				}
				if math.Abs(c.Point.X-a.Point.X) > 1+1e-4 || math.Abs(c.Point.Y-a.Point.Y) > 1+1e-4 {
					t.Errorf("segment %d %s border: span %d covers more than one cell", seg, b.Side, i)
				}
			}
		}
	}
}

func TestSubdivideBudget(t *testing.T) {
	c := curve.CubicBez{
		P0: curve.Point{X: 0, Y: 0},
		P1: curve.Point{X: 4, Y: 9},
		P2: curve.Point{X: 8, Y: -9},
		P3: curve.Point{X: 12, Y: 0},
	}
	whole := &Border{Curve: c}
	if _, err := NewSubdivider(whole, DefaultTolerances()).Advance(0); err != nil {
		t.Fatal(err)
	}

	stepped := &Border{Curve: c}
	s := NewSubdivider(stepped, DefaultTolerances())
	calls := 0
	for {
		st, err := s.Advance(3)
		if err != nil {
			t.Fatal(err)
		}
		calls++
		if st == Done {
			break
		}
		if stepped.Subdivisions != nil {
			t.Fatal("subdivisions published before completion")
		}
	}
	if calls < 2 {
		t.Errorf("budgeted subdivision finished in %d calls", calls)
	}
	if len(whole.Subdivisions) != len(stepped.Subdivisions) {
		t.Fatalf("got %d points in steps, %d at once", len(stepped.Subdivisions), len(whole.Subdivisions))
	}
	for i := range whole.Subdivisions {
		if whole.Subdivisions[i] != stepped.Subdivisions[i] {
			t.Errorf("point %d differs: %+v != %+v", i, stepped.Subdivisions[i], whole.Subdivisions[i])
		}
	}
	if st, _ := s.Advance(1); st != Done {
		t.Errorf("Advance after completion = %s", st)
	}
}

func TestSubdivideRunaway(t *testing.T) {
	tol := DefaultTolerances()
	tol.MaxPoints = 4
	b := &Border{Curve: line(curve.Point{X: 0.5, Y: 0.5}, curve.Point{X: 20.5, Y: 0.5}), Segment: 3}
	s := NewSubdivider(b, tol)
	_, err := s.Advance(0)
	var derr *spline.DegenerateGeometryError
	if !errors.As(err, &derr) {
		t.Fatalf("got error %v, want DegenerateGeometryError", err)
	}
	if derr.Segment != 3 {
		t.Errorf("error names segment %d, want 3", derr.Segment)
	}
	if _, err2 := s.Advance(0); err2 != err {
		t.Errorf("error is not sticky: %v", err2)
	}
}
