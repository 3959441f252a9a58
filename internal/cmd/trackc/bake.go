package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"honnef.co/go/curve"
	"honnef.co/go/racetrack"
	"honnef.co/go/racetrack/encoding"
	"honnef.co/go/racetrack/preview"
	"honnef.co/go/racetrack/spline"
)

// stepBudget is how much work one call to Advance does between checks for
// cancellation.
const stepBudget = 256

type baker struct {
	svgPath     string
	auxPath     string
	outPath     string
	previewPath string

	opts    spline.Options
	cfg     racetrack.Config
	preview preview.Options

	points   []curve.Point
	compiler *racetrack.Compiler
	auxData  []byte

	svgMod, auxMod time.Time
}

// load reads the outline and the aux file and prepares a fresh compiler.
// A missing aux file is created from the loop's defaults.
func (b *baker) load() error {
	f, err := os.Open(b.svgPath)
	if err != nil {
		return err
	}
	points, err := spline.ParseSVG(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", b.svgPath, err)
	}
	l, err := b.loopWithAux(points)
	if err != nil {
		return err
	}
	b.points = points
	b.compiler = racetrack.NewCompiler(l, b.cfg)
	b.compiler.SetAux(b.auxData)
	return nil
}

// loopWithAux builds a loop from points and applies the aux file to it.
func (b *baker) loopWithAux(points []curve.Point) (*spline.Loop, error) {
	l, err := spline.FromPoints(points, b.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.svgPath, err)
	}
	if b.auxPath == "" {
		b.auxData = nil
		return l, nil
	}
	data, err := os.ReadFile(b.auxPath)
	if errors.Is(err, fs.ErrNotExist) {
		var buf bytes.Buffer
		if err := spline.AuxFromLoop(l).Write(&buf); err != nil {
			return nil, err
		}
		if err := writeFile(b.auxPath, buf.Bytes()); err != nil {
			return nil, err
		}
		// The file we just wrote is not an edit.
		if fi, err := os.Stat(b.auxPath); err == nil {
			b.auxMod = fi.ModTime()
		}
		racetrack.Logger().Info("wrote default auxiliary data", "path", b.auxPath)
		b.auxData = buf.Bytes()
		return l, nil
	}
	if err != nil {
		return nil, err
	}
	aux, err := spline.ReadAux(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.auxPath, err)
	}
	aux.Apply(l)
	b.auxData = data
	return l, nil
}

// reloadAux applies a changed aux file to the current loop. Only nodes
// whose width changed mark their segments dirty.
func (b *baker) reloadAux() error {
	fresh, err := b.loopWithAux(b.points)
	if err != nil {
		return err
	}
	l := b.compiler.Loop()
	for i := range l.Order() {
		node := l.Segment(i).Start
		l.SetWidth(node, fresh.Width(node))
	}
	l.SetFirst(fresh.First())
	b.compiler.SetAux(b.auxData)
	return nil
}

// bake runs the compiler to completion and writes the asset and the
// optional preview.
func (b *baker) bake(ctx context.Context) (*encoding.Track, error) {
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status, err := b.compiler.Advance(stepBudget)
		if err != nil {
			return nil, err
		}
		if status == racetrack.Done {
			break
		}
	}
	t := b.compiler.Track()

	var buf bytes.Buffer
	if err := encoding.Encode(&buf, t); err != nil {
		return nil, err
	}
	if err := writeFile(b.outPath, buf.Bytes()); err != nil {
		return nil, err
	}
	if b.previewPath != "" {
		buf.Reset()
		if err := preview.Encode(&buf, t, b.preview); err != nil {
			return nil, err
		}
		if err := writeFile(b.previewPath, buf.Bytes()); err != nil {
			return nil, err
		}
	}
	racetrack.Logger().Info("wrote track", "path", b.outPath,
		"width", t.Field.Width, "height", t.Field.Height, "took", time.Since(start))
	return t, nil
}

// changed reports which inputs were modified since the last call.
func (b *baker) changed() (svg, aux bool, err error) {
	fi, err := os.Stat(b.svgPath)
	if err != nil {
		return false, false, err
	}
	if mod := fi.ModTime(); !mod.Equal(b.svgMod) {
		b.svgMod = mod
		svg = true
	}
	if b.auxPath == "" {
		return svg, false, nil
	}
	fi, err = os.Stat(b.auxPath)
	if errors.Is(err, fs.ErrNotExist) {
		return svg, false, nil
	}
	if err != nil {
		return svg, false, err
	}
	if mod := fi.ModTime(); !mod.Equal(b.auxMod) {
		b.auxMod = mod
		aux = true
	}
	return svg, aux, nil
}

// writeFile replaces path atomically, so readers never see a partial
// asset.
func writeFile(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Chmod(f.Name(), 0666); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
