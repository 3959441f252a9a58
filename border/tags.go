package border

// Tags describe why a subdivision point exists.
type Tags uint8

const (
	// The point lies on a vertical grid line (integer x).
	TagX Tags = 1 << iota
	// The point lies on a horizontal grid line (integer y).
	TagY
	// The point is an end of the border's segment.
	TagSegment
	// The point was inserted to keep the polyline flat.
	TagCurvature
)

func (t Tags) Has(o Tags) bool { return t&o == o }

func (t Tags) String() string {
	var b [4]byte
	n := 0
	for i, c := range "xysc" {
		if t&(1<<i) != 0 {
			b[n] = byte(c)
			n++
		}
	}
	if n == 0 {
		return "-"
	}
	return string(b[:n])
}
