// Package encoding defines the compiled track asset and its on-disk form.
//
// An asset is a PNG image whose pixels hold the open-fraction field, plus
// private ancillary chunks carrying the rails, the start anchor, the
// auxiliary data used for the bake and the asset version. Image viewers
// show the field, and the game loads everything from the one file.
package encoding

import (
	"image"
	"math"

	"honnef.co/go/racetrack/jmath"
)

// Version is the asset version written by Encode.
const Version = 1

// Largest field Decode accepts.
const (
	MaxSide  = 1 << 14
	MaxCells = 1 << 24
)

// Field channels. Each holds the length of the on-track run from a
// lattice point towards one of its four neighbours, capped at one cell.
const (
	ChanPosX = iota // red
	ChanPosY        // green
	ChanNegX        // blue
	ChanNegY        // alpha
)

// Field is the open-fraction grid. Cell (x, y) describes the lattice
// point at offset (x, y) from the field's origin, with y pointing up.
type Field struct {
	Width, Height int
	// Pix holds four channels per cell, rows ordered by increasing y.
	Pix []uint8
}

func NewField(w, h int) *Field {
	return &Field{Width: w, Height: h, Pix: make([]uint8, 4*w*h)}
}

func (f *Field) in(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

func (f *Field) offset(x, y int) int { return 4 * (y*f.Width + x) }

// At returns the raw channel values of cell (x, y). Cells outside the
// field are all zero.
func (f *Field) At(x, y int) [4]uint8 {
	if !f.in(x, y) {
		return [4]uint8{}
	}
	o := f.offset(x, y)
	return [4]uint8(f.Pix[o : o+4])
}

// Fraction returns channel ch of cell (x, y) as a value in [0, 1].
func (f *Field) Fraction(x, y, ch int) float64 {
	if !f.in(x, y) {
		return 0
	}
	return float64(f.Pix[f.offset(x, y)+ch]) / 255
}

// SetFraction stores v in channel ch of cell (x, y). Values are quantized
// to 8 bits. Any positive value is stored as at least 1 so that a cell
// that is barely on track is not lost.
func (f *Field) SetFraction(x, y, ch int, v float64) {
	if !f.in(x, y) {
		return
	}
	f.Pix[f.offset(x, y)+ch] = Quantize(v)
}

func Quantize(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	return uint8(max(1, math.Round(jmath.Clamp(v, 0, 1)*255)))
}

// Empty reports whether no cell is on track.
func (f *Field) Empty() bool {
	for _, v := range f.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// Image returns the field as an image, the highest row of cells first.
func (f *Field) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	stride := 4 * f.Width
	for y := range f.Height {
		row := f.Pix[y*stride : (y+1)*stride]
		copy(img.Pix[img.PixOffset(0, f.Height-1-y):], row)
	}
	return img
}

// A RailPoint is a rail vertex relative to the start anchor, held at the
// precision it is stored with.
type RailPoint struct {
	X, Y float32
}

// RailPointAt rounds (x, y) to the stored precision.
func RailPointAt(x, y float64) RailPoint {
	return RailPoint{
		X: jmath.Float32(jmath.Float16(float32(x))),
		Y: jmath.Float32(jmath.Float16(float32(y))),
	}
}

// Track is a compiled track. It is not modified after construction.
type Track struct {
	Field *Field
	// The two border polylines. Both start and end at their first point,
	// which also appears twice at the start. The second rail runs in the
	// opposite direction of the first.
	Rails [2][]RailPoint
	// Start is the field cell of the start point. Collision queries are
	// relative to it.
	Start image.Point
	// Aux is the auxiliary data the track was compiled with, if any.
	Aux     []byte
	Version uint32
}
