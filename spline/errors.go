package spline

import "fmt"

// MalformedTrackError reports input geometry that does not describe a
// closed chain of cubic Bézier segments.
type MalformedTrackError struct {
	Reason string
}

func (e *MalformedTrackError) Error() string {
	return "malformed track: " + e.Reason
}

// DegenerateGeometryError reports geometry whose tangent, normal or
// refinement is undefined. Segment and Node are -1 when not applicable.
type DegenerateGeometryError struct {
	Segment int
	Node    int
	T       float64
	Reason  string
}

func (e *DegenerateGeometryError) Error() string {
	switch {
	case e.Node >= 0:
		return fmt.Sprintf("degenerate geometry at node %d: %s", e.Node, e.Reason)
	case e.Segment >= 0:
		return fmt.Sprintf("degenerate geometry in segment %d at t=%g: %s", e.Segment, e.T, e.Reason)
	default:
		return "degenerate geometry: " + e.Reason
	}
}

func malformedf(format string, args ...any) error {
	return &MalformedTrackError{Reason: fmt.Sprintf(format, args...)}
}
