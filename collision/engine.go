package collision

import (
	"fmt"
	"image"
	"io"
	"os"
	"sync/atomic"

	"honnef.co/go/racetrack/encoding"
	"honnef.co/go/racetrack/internal/logging"
)

// Engine holds the current track. Swapping in a new track is atomic, so
// queries always see one complete track, and a failed load leaves the
// previous one in place.
type Engine struct {
	track atomic.Pointer[Track]
	seq   atomic.Uint64
}

func NewEngine() *Engine { return &Engine{} }

// Track returns the current track, or nil if none has been loaded.
func (e *Engine) Track() *Track { return e.track.Load() }

// Seq counts the tracks swapped in so far.
func (e *Engine) Seq() uint64 { return e.seq.Load() }

// Swap makes t the current track and returns the previous one. A nil
// track is ignored and the current one is returned.
func (e *Engine) Swap(t *Track) *Track {
	if t == nil || t.asset == nil {
		logging.Logger().Warn("ignoring swap to a nil track")
		return e.track.Load()
	}
	old := e.track.Swap(t)
	seq := e.seq.Add(1)
	f := t.asset.Field
	logging.Logger().Info("track swapped", "seq", seq, "width", f.Width, "height", f.Height)
	return old
}

// LoadFrom decodes an asset from r and swaps it in.
func (e *Engine) LoadFrom(r io.Reader) error {
	asset, err := encoding.Decode(r)
	if err != nil {
		logging.Logger().Warn("keeping previous track", "err", err)
		return err
	}
	e.Swap(NewTrack(asset))
	return nil
}

// Load reads the asset at path and swaps it in.
func (e *Engine) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := e.LoadFrom(f); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (e *Engine) IsOnTrack(x, y int) bool {
	t := e.Track()
	return t != nil && t.IsOnTrack(x, y)
}

func (e *Engine) PassableAcrossYLine(x int, y float64) bool {
	t := e.Track()
	return t != nil && t.PassableAcrossYLine(x, y)
}

func (e *Engine) PassableAcrossXLine(x float64, y int) bool {
	t := e.Track()
	return t != nil && t.PassableAcrossXLine(x, y)
}

// BlockerOnPath is like [Track.BlockerOnPath]. Without a track every
// move is blocked at its start.
func (e *Engine) BlockerOnPath(start, velocity, action image.Point) (Blocker, bool) {
	t := e.Track()
	if t == nil {
		return Blocker{X: float64(start.X), Y: float64(start.Y)}, true
	}
	return t.BlockerOnPath(start, velocity, action)
}
