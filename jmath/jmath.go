package jmath

import (
	"math"

	"golang.org/x/exp/constraints"
	"honnef.co/go/curve"
)

const Epsilon = 1e-12

// / Converts an f32 to IEEE-754 binary16 format represented as the bits of a u16.
// / This implementation was adapted from Fabian Giesen's `float_to_half_fast3`()
// / function which can be found at <https://gist.github.com/rygorous/2156668#file-gistfile1-cpp-L285>
func Float16(val float32) uint16 {
	const inf32 uint32 = 255 << 23
	const inf16 uint32 = 31 << 23
	const magic uint32 = 15 << 23
	const signMask uint32 = 0x8000_0000
	const roundMask uint32 = ^uint32(0xfff)

	u := math.Float32bits(val)
	sign := u & signMask
	u = u ^ sign

	// NOTE all the integer compares in this function can be safely
	// compiled into signed compares since all operands are below
	// 0x80000000.

	// Inf or NaN (all exponent bits set)
	var output uint16
	if u >= inf32 {
		// NaN -> qNaN and Inf->Inf
		if u > inf32 {
			output = 0x7E00
		} else {
			output = 0x7C00
		}
	} else {
		// (De)normalized number or zero
		u := u & roundMask
		u = math.Float32bits(math.Float32frombits(u) * math.Float32frombits(magic))
		u = u - roundMask

		// Clamp to signed infinity if exponent overflowed
		if u > inf16 {
			u = inf16
		}
		output = uint16(u >> 13) // Take the bits!
	}
	return output | uint16(sign>>16)
}

// Float32 is the inverse of Float16, following Giesen's `half_to_float`.
// Every binary16 value, including subnormals, converts exactly.
func Float32(h uint16) float32 {
	const magic uint32 = 113 << 23
	const shiftedExp uint32 = 0x7c00 << 13

	o := uint32(h&0x7fff) << 13
	exp := shiftedExp & o
	o += (127 - 15) << 23

	switch exp {
	case shiftedExp:
		// Inf/NaN
		o += (128 - 16) << 23
	case 0:
		// Zero/denormal
		o += 1 << 23
		o = math.Float32bits(math.Float32frombits(o) - math.Float32frombits(magic))
	}
	return math.Float32frombits(o | uint32(h&0x8000)<<16)
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// Perp rotates v by 90 degrees counter-clockwise.
func Perp(v curve.Vec2) curve.Vec2 {
	return curve.Vec(-v.Y, v.X)
}

// Unit returns v scaled to length 1. It reports false if v is too short to
// have a direction.
func Unit(v curve.Vec2) (curve.Vec2, bool) {
	if !(v.Hypot() > Epsilon) {
		return curve.Vec2{}, false
	}
	return v.Normalize(), true
}

func FloorInt(f float64) int { return int(math.Floor(f)) }
func CeilInt(f float64) int  { return int(math.Ceil(f)) }
