package classify

import (
	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
)

// compatibleKinds is the fixed object-type / geometry-kind lookup table.
// A mismatch is always a hard rejection; the pipeline never coerces geometry
// into a shape the object type cannot carry.
var compatibleKinds = map[domain.ObjectType]map[geometry.Kind]bool{
	domain.ObjectTypeUtilityLine: {geometry.KindLine: true},
	domain.ObjectTypeStructure:   {geometry.KindPoint: true},
	domain.ObjectTypeSurveyPoint: {geometry.KindPoint: true},
	domain.ObjectTypeTree:        {geometry.KindPoint: true},
	domain.ObjectTypeBmp:         {geometry.KindPoint: true, geometry.KindPolygon: true},
	domain.ObjectTypeParcel:      {geometry.KindPoint: true, geometry.KindPolygon: true},
	domain.ObjectTypeSurface:     {geometry.KindFace: true},
	domain.ObjectTypeAlignment:   {geometry.KindLine: true},
}

// IsCompatible reports whether entities of the given geometry kind may
// materialize as the given object type. Unclassified is compatible with
// nothing.
func IsCompatible(t domain.ObjectType, k geometry.Kind) bool {
	return compatibleKinds[t][k]
}
