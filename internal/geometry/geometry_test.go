package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	pts := func(n int) []Point {
		out := make([]Point, n)
		for i := range out {
			out[i] = Point{X: float64(i), Y: float64(i * 2)}
		}
		return out
	}

	tests := []struct {
		name    string
		g       Geometry
		wantErr bool
	}{
		{"point with one coordinate", Geometry{Kind: KindPoint, Points: pts(1)}, false},
		{"point with two coordinates", Geometry{Kind: KindPoint, Points: pts(2)}, true},
		{"line with two coordinates", Geometry{Kind: KindLine, Points: pts(2)}, false},
		{"line with one coordinate", Geometry{Kind: KindLine, Points: pts(1)}, true},
		{"polygon with three coordinates", Geometry{Kind: KindPolygon, Points: pts(3)}, false},
		{"polygon with two coordinates", Geometry{Kind: KindPolygon, Points: pts(2)}, true},
		{"face with one triangle", Geometry{Kind: KindFace, Points: pts(3)}, false},
		{"face with partial triangle", Geometry{Kind: KindFace, Points: pts(4)}, true},
		{"face with no coordinates", Geometry{Kind: KindFace, Points: nil}, true},
		{"unknown kind", Geometry{Kind: "blob", Points: pts(1)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.g.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCanonicalIsStable(t *testing.T) {
	g := Geometry{Kind: KindLine, Points: []Point{{X: 0.1, Y: 2.5}, {X: 100.25, Y: -3, Z: 1}}}

	first := g.Canonical()
	for range 5 {
		require.Equal(t, first, g.Canonical())
	}
	require.Equal(t, "line|0.1,2.5,0|100.25,-3,1", first)
}

func TestCanonicalDistinguishesCoordinates(t *testing.T) {
	a := Geometry{Kind: KindLine, Points: []Point{{X: 1}, {X: 2}}}
	b := Geometry{Kind: KindLine, Points: []Point{{X: 1}, {X: 2.0000001}}}

	require.NotEqual(t, a.Canonical(), b.Canonical())
}

func TestEqualIsExact(t *testing.T) {
	a := Geometry{Kind: KindPoint, Points: []Point{{X: 1, Y: 2, Z: 3}}}
	require.True(t, a.Equal(Geometry{Kind: KindPoint, Points: []Point{{X: 1, Y: 2, Z: 3}}}))
	require.False(t, a.Equal(Geometry{Kind: KindPoint, Points: []Point{{X: 1, Y: 2, Z: 3.000001}}}))
	require.False(t, a.Equal(Geometry{Kind: KindLine, Points: []Point{{X: 1, Y: 2, Z: 3}}}))
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"point", "line", "polygon", "face"} {
		k, err := ParseKind(s)
		require.NoError(t, err)
		require.Equal(t, Kind(s), k)
	}
	_, err := ParseKind("solid")
	require.Error(t, err)
}
