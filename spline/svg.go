package spline

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"honnef.co/go/curve"
)

// CircuitID is the id of the SVG path element that holds the track.
const CircuitID = "circuit"

// ParseSVG reads an SVG document and returns the flattened Bézier chain of
// the path whose id is [CircuitID].
func ParseSVG(r io.Reader) ([]curve.Point, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, malformedf("did not find a path with id=%s", CircuitID)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing SVG: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "path" {
			continue
		}
		var id, d string
		for _, attr := range el.Attr {
			switch attr.Name.Local {
			case "id":
				id = attr.Value
			case "d":
				d = attr.Value
			}
		}
		if id == CircuitID {
			return ParsePathData(d)
		}
	}
}

var pathSeparators = regexp.MustCompile(`[ ,\t\r\n]+`)

// ParsePathData parses the subset of SVG path data used by track outlines:
// a single absolute move, absolute and relative cubic curves, and close.
// The Y axis is flipped so that it points up.
func ParsePathData(d string) ([]curve.Point, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, malformedf("empty path data")
	}
	parts := pathSeparators.Split(d, -1)

	var (
		points  []curve.Point
		current curve.Point
		command byte
	)
	next := func() (float64, error) {
		if len(parts) == 0 {
			return 0, malformedf("path data ends in the middle of a command")
		}
		s := parts[0]
		parts = parts[1:]
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, malformedf("bad number %q in path data", s)
		}
		return f, nil
	}
	pair := func() (float64, float64, error) {
		x, err := next()
		if err != nil {
			return 0, 0, err
		}
		y, err := next()
		return x, y, err
	}
	// point reads a coordinate pair, resolving it against the current
	// position when rel is set.
	point := func(rel bool) (curve.Point, error) {
		x, y, err := pair()
		if err != nil {
			return curve.Point{}, err
		}
		if rel {
			return curve.Point{X: current.X + x, Y: current.Y - y}, nil
		}
		return curve.Point{X: x, Y: -y}, nil
	}

	for len(parts) > 0 {
		part := parts[0]
		switch part {
		case "M":
			parts = parts[1:]
			if len(points) > 0 {
				return nil, malformedf("circuit can only have a single path")
			}
			p, err := point(false)
			if err != nil {
				return nil, err
			}
			points = append(points, p)
			current = p
			command = 'L'
		case "C", "c":
			parts = parts[1:]
			command = part[0]
		case "z", "Z":
			parts = parts[1:]
			if len(points) == 0 {
				return nil, malformedf("close command before move")
			}
			points = append(points, points[0])
			command = 0
		default:
			if !startsNumber(part) {
				return nil, malformedf("unknown SVG path part %q", part)
			}
			if command != 'C' && command != 'c' {
				return nil, malformedf("unsupported SVG path command %q", string(command))
			}
			rel := command == 'c'
			var seg [3]curve.Point
			for i := range seg {
				p, err := point(rel)
				if err != nil {
					return nil, err
				}
				seg[i] = p
			}
			points = append(points, seg[:]...)
			current = seg[2]
		}
	}
	return points, nil
}

func startsNumber(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c == '-' || c == '.' || c == '+' || (c >= '0' && c <= '9')
}
