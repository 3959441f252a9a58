package spline

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"honnef.co/go/curve"
)

func TestParsePathData(t *testing.T) {
	tests := []struct {
		d    string
		want []curve.Point
	}{
		{
			"M 0,0 C 1,0 2,0 3,0 c 0,1 0,2 0,3",
			[]curve.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: -1}, {X: 3, Y: -2}, {X: 3, Y: -3}},
		},
		{
			"M 1 2 C 1 3 2 3 2 2 z",
			[]curve.Point{{X: 1, Y: -2}, {X: 1, Y: -3}, {X: 2, Y: -3}, {X: 2, Y: -2}, {X: 1, Y: -2}},
		},
		{
			// Implicit repetition of the relative curve command.
			"M 0,0 c 1,0 2,0 3,0 1,0 2,0 3,0",
			[]curve.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 4, Y: 0}, {X: 5, Y: 0}, {X: 6, Y: 0}},
		},
	}
	for _, tt := range tests {
		got, err := ParsePathData(tt.d)
		if err != nil {
			t.Errorf("ParsePathData(%q): %s", tt.d, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("ParsePathData(%q) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestParsePathDataErrors(t *testing.T) {
	for _, d := range []string{
		"",
		"M 0,0 L 1,1",
		"M 0,0 C 1,0 2,0",
		"M 0,0 C 1,0 2,0 3,0 M 4,4",
		"M 0,0 1,1",
		"M 0,0 C 1,x 2,0 3,0",
	} {
		_, err := ParsePathData(d)
		var merr *MalformedTrackError
		if !errors.As(err, &merr) {
			t.Errorf("ParsePathData(%q) returned %v, want MalformedTrackError", d, err)
		}
	}
}

const circuitSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg">
  <g>
    <path id="decoration" d="M 5,5 C 6,6 7,7 8,8"/>
    <path id="circuit" d="M 10,0 C 10,-5.523 5.523,-10 0,-10 C -5.523,-10 -10,-5.523 -10,0 C -10,5.523 -5.523,10 0,10 C 5.523,10 10,5.523 10,0 Z"/>
  </g>
</svg>`

func TestParseSVG(t *testing.T) {
	pts, err := ParseSVG(strings.NewReader(circuitSVG))
	if err != nil {
		t.Fatal(err)
	}
	l, err := FromPoints(pts, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if l.NumSegments() != 4 {
		t.Errorf("got %d segments, want 4", l.NumSegments())
	}
	// The flip makes the outline counter-clockwise.
	if got := l.Controls(0).P3; got != (curve.Point{X: 0, Y: 10}) {
		t.Errorf("first segment ends at %v, want (0, 10)", got)
	}
}

func TestParseSVGMissingCircuit(t *testing.T) {
	_, err := ParseSVG(strings.NewReader(`<svg><path id="other" d="M 0,0"/></svg>`))
	var merr *MalformedTrackError
	if !errors.As(err, &merr) {
		t.Fatalf("got error %v, want MalformedTrackError", err)
	}
}
