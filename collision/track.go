// Package collision answers movement queries against a compiled track.
//
// All coordinates are integer grid positions relative to the track's
// start point. Positions outside the field are off track; queries never
// fail.
package collision

import (
	"image"
	"math"

	"honnef.co/go/racetrack/encoding"
)

type Track struct {
	asset *encoding.Track
}

func NewTrack(asset *encoding.Track) *Track {
	return &Track{asset: asset}
}

func (t *Track) Asset() *encoding.Track { return t.asset }

func (t *Track) fraction(x, y, ch int) float64 {
	return t.asset.Field.Fraction(x+t.asset.Start.X, y+t.asset.Start.Y, ch)
}

// IsOnTrack reports whether the grid point (x, y) is on track.
func (t *Track) IsOnTrack(x, y int) bool {
	return t.asset.Field.At(x+t.asset.Start.X, y+t.asset.Start.Y) != [4]uint8{}
}

// PassableAcrossYLine reports whether the point at height y on the
// vertical grid line x is on track. Either of the two grid points around
// it may vouch for it.
func (t *Track) PassableAcrossYLine(x int, y float64) bool {
	y0 := math.Floor(y)
	rem := y - y0
	iy := int(y0)
	return rem < t.fraction(x, iy, encoding.ChanPosY) || 1-rem < t.fraction(x, iy+1, encoding.ChanNegY)
}

// PassableAcrossXLine reports whether the point at x on the horizontal
// grid line y is on track.
func (t *Track) PassableAcrossXLine(x float64, y int) bool {
	x0 := math.Floor(x)
	rem := x - x0
	ix := int(x0)
	return rem < t.fraction(ix, y, encoding.ChanPosX) || 1-rem < t.fraction(ix+1, y, encoding.ChanNegX)
}

// A Blocker is where a move first leaves the track.
type Blocker struct {
	X, Y float64
	// Position along the move, in [0, 1].
	T float64
}

// BlockerOnPath checks the straight move from start to
// start+velocity+action. It tests every point where the move crosses a
// grid line and finally the destination itself. The earliest failing
// point is returned.
func (t *Track) BlockerOnPath(start, velocity, action image.Point) (Blocker, bool) {
	dest := start.Add(velocity).Add(action)
	if dest == start {
		return Blocker{}, false
	}
	sx, sy := float64(start.X), float64(start.Y)
	dx, dy := float64(dest.X-start.X), float64(dest.Y-start.Y)
	at := func(tt float64) (float64, float64) { return sx + tt*dx, sy + tt*dy }

	crash := math.Inf(1)
	if n := abs(dest.X - start.X); n > 0 {
		for k := 0; k <= n; k++ {
			tt := float64(k) / float64(n)
			x, y := at(tt)
			if !t.PassableAcrossYLine(int(math.Round(x)), y) {
				crash = tt
				break
			}
		}
	}
	if n := abs(dest.Y - start.Y); n > 0 {
		for k := 0; k <= n; k++ {
			tt := float64(k) / float64(n)
			if tt >= crash {
				break
			}
			x, y := at(tt)
			if !t.PassableAcrossXLine(x, int(math.Round(y))) {
				crash = tt
				break
			}
		}
	}
	if !math.IsInf(crash, 1) {
		x, y := at(crash)
		return Blocker{X: x, Y: y, T: crash}, true
	}
	if !t.IsOnTrack(dest.X, dest.Y) {
		return Blocker{X: float64(dest.X), Y: float64(dest.Y), T: 1}, true
	}
	return Blocker{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
