package raster

import (
	"honnef.co/go/curve"
	"honnef.co/go/racetrack/encoding"
)

// rail converts a border polyline into its stored form, relative to the
// start point (sx, sy). The first point is repeated at both ends so that
// line-adjacency consumers draw the closing span and its neighbours.
// Reversed rails keep their first point and visit the rest backwards.
func rail(pts []curve.Point, sx, sy int, reverse bool) []encoding.RailPoint {
	if len(pts) == 0 {
		return nil
	}
	at := func(p curve.Point) encoding.RailPoint {
		return encoding.RailPointAt(p.X-float64(sx), p.Y-float64(sy))
	}
	out := make([]encoding.RailPoint, 0, len(pts)+2)
	out = append(out, at(pts[0]), at(pts[0]))
	if reverse {
		for i := len(pts) - 1; i > 0; i-- {
			out = append(out, at(pts[i]))
		}
	} else {
		for _, p := range pts[1:] {
			out = append(out, at(p))
		}
	}
	return append(out, at(pts[0]))
}
