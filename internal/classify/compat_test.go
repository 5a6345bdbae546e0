package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
)

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		objectType domain.ObjectType
		kind       geometry.Kind
		want       bool
	}{
		{domain.ObjectTypeUtilityLine, geometry.KindLine, true},
		{domain.ObjectTypeUtilityLine, geometry.KindPoint, false},
		{domain.ObjectTypeUtilityLine, geometry.KindPolygon, false},
		{domain.ObjectTypeStructure, geometry.KindPoint, true},
		{domain.ObjectTypeStructure, geometry.KindLine, false},
		{domain.ObjectTypeBmp, geometry.KindPoint, true},
		{domain.ObjectTypeBmp, geometry.KindPolygon, true},
		{domain.ObjectTypeBmp, geometry.KindLine, false},
		{domain.ObjectTypeSurface, geometry.KindFace, true},
		{domain.ObjectTypeSurface, geometry.KindPolygon, false},
		{domain.ObjectTypeAlignment, geometry.KindLine, true},
		{domain.ObjectTypeAlignment, geometry.KindFace, false},
		{domain.ObjectTypeSurveyPoint, geometry.KindPoint, true},
		{domain.ObjectTypeSurveyPoint, geometry.KindLine, false},
		{domain.ObjectTypeTree, geometry.KindPoint, true},
		{domain.ObjectTypeTree, geometry.KindPolygon, false},
		{domain.ObjectTypeParcel, geometry.KindPoint, true},
		{domain.ObjectTypeParcel, geometry.KindPolygon, true},
		{domain.ObjectTypeParcel, geometry.KindFace, false},
	}

	for _, tc := range tests {
		t.Run(tc.objectType.String()+"/"+string(tc.kind), func(t *testing.T) {
			require.Equal(t, tc.want, IsCompatible(tc.objectType, tc.kind))
		})
	}
}

func TestUnclassifiedIsNeverCompatible(t *testing.T) {
	for _, k := range []geometry.Kind{geometry.KindPoint, geometry.KindLine, geometry.KindPolygon, geometry.KindFace} {
		require.False(t, IsCompatible(domain.ObjectTypeUnclassified, k))
	}
}

func TestRuleGeometryKindsAgreeWithTable(t *testing.T) {
	// Every kind a rule admits must be accepted by the compatibility table,
	// otherwise a rule could classify entities the validator then rejects.
	for _, r := range DefaultRules() {
		for _, k := range r.GeometryKinds {
			require.True(t, IsCompatible(r.ObjectType, k),
				"rule %s admits %s but the table rejects it", r.Name, k)
		}
	}
}
