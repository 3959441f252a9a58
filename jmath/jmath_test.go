package jmath

import (
	"math"
	"testing"

	"honnef.co/go/curve"
)

func TestFloat16(t *testing.T) {
	tests := []struct {
		in   float32
		bits uint16
	}{
		{0, 0x0000},
		{1, 0x3c00},
		{-2, 0xc000},
		{0.5, 0x3800},
		{65504, 0x7bff},
		{float32(math.Inf(1)), 0x7c00},
	}
	for _, tt := range tests {
		if got := Float16(tt.in); got != tt.bits {
			t.Errorf("Float16(%v) = %#04x, want %#04x", tt.in, got, tt.bits)
		}
		if got := Float32(tt.bits); got != tt.in {
			t.Errorf("Float32(%#04x) = %v, want %v", tt.bits, got, tt.in)
		}
	}
}

func TestFloat16RoundTrip(t *testing.T) {
	// Every finite half converts to float32 and back unchanged.
	for h := 0; h < 0x10000; h++ {
		bits := uint16(h)
		if bits&0x7c00 == 0x7c00 {
			continue
		}
		if got := Float16(Float32(bits)); got != bits {
			t.Fatalf("Float16(Float32(%#04x)) = %#04x", bits, got)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp(5, 0, 3) = %d, want 3", got)
	}
	if got := Clamp(-0.5, 0.25, 10); got != 0.25 {
		t.Errorf("Clamp(-0.5, 0.25, 10) = %v, want 0.25", got)
	}
}

func TestUnit(t *testing.T) {
	v, ok := Unit(curve.Vec(3, 4))
	if !ok || math.Abs(v.X-0.6) > 1e-12 || math.Abs(v.Y-0.8) > 1e-12 {
		t.Errorf("Unit(3, 4) = %v, %v", v, ok)
	}
	if _, ok := Unit(curve.Vec(0, 0)); ok {
		t.Error("Unit of zero vector reported a direction")
	}
	if p := Perp(curve.Vec(1, 0)); p != curve.Vec(0, 1) {
		t.Errorf("Perp(1, 0) = %v, want (0, 1)", p)
	}
}
