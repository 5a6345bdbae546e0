// Package geometry defines the geometry value type shared by the import
// pipeline. It deliberately stays a dumb value: the upstream decoder produces
// it and the pipeline only compares, hashes, and round-trips it.
package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of geometry shapes the decoder can produce.
type Kind string

const (
	KindPoint   Kind = "point"
	KindLine    Kind = "line"
	KindPolygon Kind = "polygon"
	KindFace    Kind = "face"
)

// ParseKind validates and returns a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPoint, KindLine, KindPolygon, KindFace:
		return k, nil
	default:
		return "", fmt.Errorf("unknown geometry kind: %q", s)
	}
}

// Point is one 3D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Geometry is a kind plus its coordinate data. Interpretation of Points
// depends on Kind: one point for KindPoint, a vertex chain for KindLine, a
// closed ring for KindPolygon, triangle triplets for KindFace.
type Geometry struct {
	Kind   Kind    `json:"kind"`
	Points []Point `json:"points"`
}

// Validate checks the coordinate count against the kind.
func (g Geometry) Validate() error {
	switch g.Kind {
	case KindPoint:
		if len(g.Points) != 1 {
			return fmt.Errorf("point geometry requires exactly 1 coordinate, got %d", len(g.Points))
		}
	case KindLine:
		if len(g.Points) < 2 {
			return fmt.Errorf("line geometry requires at least 2 coordinates, got %d", len(g.Points))
		}
	case KindPolygon:
		if len(g.Points) < 3 {
			return fmt.Errorf("polygon geometry requires at least 3 coordinates, got %d", len(g.Points))
		}
	case KindFace:
		if len(g.Points) == 0 || len(g.Points)%3 != 0 {
			return fmt.Errorf("face geometry requires coordinates in triangle triplets, got %d", len(g.Points))
		}
	default:
		return fmt.Errorf("unknown geometry kind: %q", g.Kind)
	}
	return nil
}

// Equal reports exact coordinate equality. The pipeline never compares with
// tolerance: change detection is the hash's job and the hash is exact too.
func (g Geometry) Equal(other Geometry) bool {
	if g.Kind != other.Kind || len(g.Points) != len(other.Points) {
		return false
	}
	for i := range g.Points {
		if g.Points[i] != other.Points[i] {
			return false
		}
	}
	return true
}

// Canonical returns a deterministic textual encoding used as hash input.
// Floats format with strconv 'g' so the encoding is bit-stable across runs.
func (g Geometry) Canonical() string {
	var b strings.Builder
	b.WriteString(string(g.Kind))
	for _, p := range g.Points {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Z, 'g', -1, 64))
	}
	return b.String()
}
