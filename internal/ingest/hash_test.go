package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cadlink/internal/classify"
	"cadlink/internal/geometry"
)

func TestGeometryHashDeterminism(t *testing.T) {
	g := geometry.Geometry{Kind: geometry.KindLine, Points: []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 5}}}
	attrs := classify.Attributes{
		classify.AttrDiameter:    classify.Number(12),
		classify.AttrUnit:        classify.Text("inch"),
		classify.AttrUtilityType: classify.Text("Storm"),
	}

	first := GeometryHash(g, attrs)
	for range 10 {
		require.Equal(t, first, GeometryHash(g, attrs))
	}
	require.Len(t, first, 64)
}

func TestGeometryHashChangesWithCoordinates(t *testing.T) {
	attrs := classify.Attributes{classify.AttrPointCode: classify.Text("CP1")}
	a := geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 1, Y: 1}}}
	b := geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 1, Y: 1.0001}}}

	require.NotEqual(t, GeometryHash(a, attrs), GeometryHash(b, attrs))
}

func TestGeometryHashChangesWithAttributes(t *testing.T) {
	g := geometry.Geometry{Kind: geometry.KindLine, Points: []geometry.Point{{X: 0}, {X: 1}}}
	a := classify.Attributes{classify.AttrDiameter: classify.Number(12)}
	b := classify.Attributes{classify.AttrDiameter: classify.Number(15)}

	require.NotEqual(t, GeometryHash(g, a), GeometryHash(g, b))
}

func TestGeometryHashIgnoresAttributeOrder(t *testing.T) {
	// Attributes canonicalize sorted by key, so map iteration order cannot
	// leak into the digest.
	g := geometry.Geometry{Kind: geometry.KindPoint, Points: []geometry.Point{{X: 3, Y: 4}}}
	attrs := classify.Attributes{
		classify.AttrSpecies:       classify.Text("Oak"),
		classify.AttrTrunkDiameter: classify.Number(24),
	}

	first := GeometryHash(g, attrs)
	for range 20 {
		require.Equal(t, first, GeometryHash(g, attrs))
	}
}
