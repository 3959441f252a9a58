package collision

import (
	"bytes"
	"image"
	"math"
	"testing"

	"honnef.co/go/racetrack/encoding"
)

// deadEnd is a road along +y between x=-2 and x=2 that starts at y=0 and
// ends halfway between y=1 and y=2. The start point is in its middle.
func deadEnd() *encoding.Track {
	f := encoding.NewField(5, 6)
	for y := range 2 {
		for x := range 5 {
			for ch := range 4 {
				f.SetFraction(x, y, ch, 1)
			}
		}
		f.SetFraction(0, y, encoding.ChanNegX, 0)
		f.SetFraction(4, y, encoding.ChanPosX, 0)
	}
	for x := range 5 {
		f.SetFraction(x, 0, encoding.ChanNegY, 0)
		f.SetFraction(x, 1, encoding.ChanPosY, 0.5)
	}
	return &encoding.Track{
		Field: f,
		Rails: [2][]encoding.RailPoint{
			{{X: -2, Y: 0}, {X: -2, Y: 0}, {X: -2, Y: 1.5}, {X: -2, Y: 0}},
			{{X: 2, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1.5}, {X: 2, Y: 0}},
		},
		Start:   image.Pt(2, 0),
		Version: encoding.Version,
	}
}

func TestIsOnTrack(t *testing.T) {
	tr := NewTrack(deadEnd())
	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, true},
		{-1, 1, true},
		{1, 1, true},
		{0, 2, false},
		{2, 0, true},
		{3, 0, false},
		{0, -1, false},
		{100, 100, false},
	}
	for _, tt := range tests {
		if got := tr.IsOnTrack(tt.x, tt.y); got != tt.want {
			t.Errorf("IsOnTrack(%d, %d) = %t, want %t", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPassable(t *testing.T) {
	tr := NewTrack(deadEnd())
	for _, tt := range []struct {
		y    float64
		want bool
	}{
		{0.5, true},
		{1.4, true},
		{1.6, false},
		{2, false},
		{-0.5, false},
	} {
		if got := tr.PassableAcrossYLine(0, tt.y); got != tt.want {
			t.Errorf("PassableAcrossYLine(0, %g) = %t, want %t", tt.y, got, tt.want)
		}
	}
	for _, tt := range []struct {
		x    float64
		want bool
	}{
		{-1, true},
		{0.3, true},
		{1.2, true},
		{2.2, false},
		{-2.2, false},
	} {
		if got := tr.PassableAcrossXLine(tt.x, 0); got != tt.want {
			t.Errorf("PassableAcrossXLine(%g, 0) = %t, want %t", tt.x, got, tt.want)
		}
	}
}

func TestBlockerOnPath(t *testing.T) {
	tr := NewTrack(deadEnd())
	tests := []struct {
		name                    string
		start, velocity, action image.Point
		blocked                 bool
		want                    Blocker
	}{
		{"dead end", image.Pt(0, 0), image.Pt(0, 3), image.Pt(0, 0), true, Blocker{X: 0, Y: 2, T: 2.0 / 3}},
		{"diagonal", image.Pt(0, 0), image.Pt(1, 1), image.Pt(0, 0), false, Blocker{}},
		{"with action", image.Pt(-1, 0), image.Pt(1, 0), image.Pt(1, 1), false, Blocker{}},
		{"sideways", image.Pt(0, 0), image.Pt(2, 0), image.Pt(1, 0), true, Blocker{X: 3, Y: 0, T: 1}},
		{"standing still", image.Pt(5, 5), image.Pt(1, 0), image.Pt(-1, 0), false, Blocker{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, blocked := tr.BlockerOnPath(tt.start, tt.velocity, tt.action)
			if blocked != tt.blocked {
				t.Fatalf("blocked = %t, want %t (%+v)", blocked, tt.blocked, got)
			}
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 || math.Abs(got.T-tt.want.T) > 1e-9 {
				t.Errorf("blocker = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestActionDelta(t *testing.T) {
	want := []image.Point{
		{-1, 1}, {0, 1}, {1, 1},
		{-1, 0}, {0, 0}, {1, 0},
		{-1, -1}, {0, -1}, {1, -1},
	}
	for a, w := range want {
		if got, ok := ActionDelta(a); !ok || got != w {
			t.Errorf("ActionDelta(%d) = %v, %t, want %v", a, got, ok, w)
		}
	}
	if _, ok := ActionDelta(9); ok {
		t.Error("ActionDelta(9) succeeded")
	}
}

func TestEngine(t *testing.T) {
	e := NewEngine()
	if e.IsOnTrack(0, 0) {
		t.Error("engine without a track reports (0, 0) on track")
	}
	if b, ok := e.BlockerOnPath(image.Pt(3, 4), image.Pt(1, 0), image.Pt(0, 0)); !ok || b.T != 0 {
		t.Errorf("engine without a track gave blocker %+v, %t", b, ok)
	}

	var buf bytes.Buffer
	if err := encoding.Encode(&buf, deadEnd()); err != nil {
		t.Fatal(err)
	}
	if err := e.LoadFrom(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	first := e.Track()
	if first == nil || e.Seq() != 1 {
		t.Fatalf("after loading: track %v, seq %d", first, e.Seq())
	}
	if !e.IsOnTrack(0, 1) || e.IsOnTrack(0, 2) {
		t.Error("loaded track answers queries wrongly")
	}

	if err := e.LoadFrom(bytes.NewReader([]byte("not a track"))); err == nil {
		t.Fatal("loading garbage succeeded")
	}
	if e.Track() != first || e.Seq() != 1 {
		t.Error("failed load replaced the track")
	}
	if err := e.Load("testdata/does-not-exist.png"); err == nil {
		t.Error("loading a missing file succeeded")
	}

	if old := e.Swap(NewTrack(deadEnd())); old != first {
		t.Error("Swap did not return the previous track")
	}
	if e.Seq() != 2 {
		t.Errorf("seq = %d, want 2", e.Seq())
	}

	current := e.Track()
	if old := e.Swap(nil); old != current {
		t.Error("Swap(nil) did not return the current track")
	}
	if e.Track() != current || e.Seq() != 2 {
		t.Error("Swap(nil) replaced the track")
	}
}
