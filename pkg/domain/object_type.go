package domain

import "fmt"

// ObjectType is the closed set of intelligent object kinds the pipeline can
// materialize. Every pipeline stage switches over this set exhaustively, so
// adding a type is a single compile-checked change.
type ObjectType string

const (
	ObjectTypeUtilityLine  ObjectType = "utility_line"
	ObjectTypeStructure    ObjectType = "structure"
	ObjectTypeBmp          ObjectType = "bmp"
	ObjectTypeSurface      ObjectType = "surface"
	ObjectTypeAlignment    ObjectType = "alignment"
	ObjectTypeSurveyPoint  ObjectType = "survey_point"
	ObjectTypeTree         ObjectType = "tree"
	ObjectTypeParcel       ObjectType = "parcel"
	ObjectTypeUnclassified ObjectType = "unclassified"
)

var objectTypeTables = map[ObjectType]string{
	ObjectTypeUtilityLine: "utility_lines",
	ObjectTypeStructure:   "structures",
	ObjectTypeBmp:         "bmps",
	ObjectTypeSurface:     "surfaces",
	ObjectTypeAlignment:   "alignments",
	ObjectTypeSurveyPoint: "survey_points",
	ObjectTypeTree:        "trees",
	ObjectTypeParcel:      "parcels",
}

// ParseObjectType validates and returns an ObjectType. Unclassified is a
// valid parse result; callers that require a materializable type should also
// check IsMaterializable.
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(s)
	if t == ObjectTypeUnclassified {
		return t, nil
	}
	if _, ok := objectTypeTables[t]; !ok {
		return "", fmt.Errorf("unknown object type: %q", s)
	}
	return t, nil
}

func (t ObjectType) String() string { return string(t) }

// IsMaterializable reports whether the type owns a domain table.
func (t ObjectType) IsMaterializable() bool {
	_, ok := objectTypeTables[t]
	return ok
}

// Table returns the domain table name owning records of this type. The empty
// string is returned for Unclassified, which owns no table.
func (t ObjectType) Table() string {
	return objectTypeTables[t]
}

// MaterializableTypes returns every type that owns a domain table, in a
// stable order.
func MaterializableTypes() []ObjectType {
	return []ObjectType{
		ObjectTypeUtilityLine,
		ObjectTypeStructure,
		ObjectTypeBmp,
		ObjectTypeSurface,
		ObjectTypeAlignment,
		ObjectTypeSurveyPoint,
		ObjectTypeTree,
		ObjectTypeParcel,
	}
}
