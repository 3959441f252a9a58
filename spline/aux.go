package spline

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"honnef.co/go/curve"
	"honnef.co/go/racetrack/internal/logging"
	"honnef.co/go/racetrack/mem"
)

// Aux is the auxiliary data kept next to a track outline: per-node width
// overrides and the choice of start node. It is matched to nodes by
// position, so it survives edits that reorder or add nodes.
type Aux struct {
	Points []AuxPoint `json:"points"`
}

type AuxPoint struct {
	Pos    [2]float64 `json:"pos"`
	Radius float64    `json:"radius,omitempty"`
	First  bool       `json:"first,omitempty"`
}

func ReadAux(r io.Reader) (*Aux, error) {
	var aux Aux
	if err := json.NewDecoder(r).Decode(&aux); err != nil {
		return nil, &MalformedTrackError{Reason: fmt.Sprintf("auxiliary data: %s", err)}
	}
	return &aux, nil
}

func (a *Aux) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(a)
}

// Apply assigns aux points to the loop's nodes, closest pair first. Each
// node and each point is used at most once. Points that found no node are
// returned.
func (a *Aux) Apply(l *Loop) []AuxPoint {
	points := slices.Clone(a.Points)
	var unassigned []mem.Index
	for i := range l.Order() {
		unassigned = append(unassigned, i)
	}

	first := l.First()
	for len(unassigned) > 0 && len(points) > 0 {
		bestPoint, bestSeg := 0, 0
		bestDist := -1.0
		for pi, pt := range points {
			pos := curve.Point{X: pt.Pos[0], Y: pt.Pos[1]}
			for si, seg := range unassigned {
				d := pos.DistanceSquared(l.Pos(l.Segment(seg).Start))
				if bestDist < 0 || d < bestDist {
					bestPoint, bestSeg, bestDist = pi, si, d
				}
			}
		}
		pt := points[bestPoint]
		seg := unassigned[bestSeg]
		points = slices.Delete(points, bestPoint, bestPoint+1)
		unassigned = slices.Delete(unassigned, bestSeg, bestSeg+1)
		if pt.First {
			first = seg
		}
		if pt.Radius > 0 {
			l.SetWidth(l.Segment(seg).Start, pt.Radius)
		}
	}
	for _, pt := range points {
		logging.Logger().Warn("unassigned auxiliary point", "pos", pt.Pos, "radius", pt.Radius)
	}
	l.SetFirst(first)
	return points
}

// AuxFromLoop captures the loop's widths and start node.
func AuxFromLoop(l *Loop) *Aux {
	aux := &Aux{}
	for i := range l.Order() {
		node := l.Segment(i).Start
		pos := l.Pos(node)
		aux.Points = append(aux.Points, AuxPoint{
			Pos:    [2]float64{pos.X, pos.Y},
			Radius: l.Width(node),
			First:  i == l.First(),
		})
	}
	return aux
}
