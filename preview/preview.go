// Package preview draws diagnostic images of compiled tracks.
package preview

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"honnef.co/go/racetrack/encoding"
)

type Options struct {
	// Pixels per cell.
	Scale int
	// Fill of the belt between the rails, drawn over the field.
	Belt color.Color
	// Colour of the start cell.
	Start color.Color
}

func DefaultOptions() Options {
	return Options{
		Scale: 8,
		Belt:  color.NRGBA{R: 0x30, G: 0x90, B: 0xff, A: 0x60},
		Start: color.NRGBA{R: 0xff, A: 0xff},
	}
}

// Render draws the field in shades of grey, one square of Scale pixels
// per cell, with the belt enclosed by the rails and the start cell on top.
// The highest cells are at the top of the image.
func Render(t *encoding.Track, opts Options) *image.NRGBA {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	f := t.Field
	s := opts.Scale

	cells := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := range f.Height {
		for x := range f.Width {
			c := f.At(x, y)
			v := max(c[0], c[1], c[2], c[3])
			cells.SetGray(x, f.Height-1-y, color.Gray{Y: v})
		}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, f.Width*s, f.Height*s))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), cells, cells.Bounds(), draw.Src, nil)

	if opts.Belt != nil {
		// Rail points are relative to the start cell. Lattice points sit in
		// the middle of their cells.
		toPixel := func(p encoding.RailPoint) (float32, float32) {
			x := (float32(t.Start.X) + p.X + 0.5) * float32(s)
			y := (float32(f.Height) - 0.5 - float32(t.Start.Y) - p.Y) * float32(s)
			return x, y
		}
		r := vector.NewRasterizer(dst.Bounds().Dx(), dst.Bounds().Dy())
		r.DrawOp = draw.Over
		for _, rail := range t.Rails {
			if len(rail) == 0 {
				continue
			}
			r.MoveTo(toPixel(rail[0]))
			for _, p := range rail[1:] {
				r.LineTo(toPixel(p))
			}
			r.ClosePath()
		}
		r.Draw(dst, dst.Bounds(), image.NewUniform(opts.Belt), image.Point{})
	}

	if opts.Start != nil {
		x, y := t.Start.X*s, (f.Height-1-t.Start.Y)*s
		draw.Draw(dst, image.Rect(x, y, x+s, y+s), image.NewUniform(opts.Start), image.Point{}, draw.Over)
	}
	return dst
}

// Encode writes the preview of t as a PNG image.
func Encode(w io.Writer, t *encoding.Track, opts Options) error {
	return png.Encode(w, Render(t, opts))
}
