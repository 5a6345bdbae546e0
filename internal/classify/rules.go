package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
	dErrors "cadlink/pkg/domain-errors"
)

// Rule recognizes one family of layer names. Rules are data, not code
// branches: the slice order is the resolution order and reordering it is the
// only way to change precedence.
type Rule struct {
	// Name identifies the rule in classifications and audit output.
	Name string

	ObjectType domain.ObjectType
	Discipline string

	// Confidence is fixed per rule, in [0.7, 0.9]. A rule never scores a
	// particular match higher or lower than its siblings.
	Confidence float64

	// GeometryKinds lists the kinds entities matched by this rule may carry.
	// The compatibility validator rejects everything else.
	GeometryKinds []geometry.Kind

	pattern *regexp.Regexp
	extract func(m []string) Attributes
}

// Matches returns the submatches when the normalized layer name matches.
func (r *Rule) Matches(name string) ([]string, bool) {
	m := r.pattern.FindStringSubmatch(name)
	return m, m != nil
}

var unitNames = map[string]string{
	"IN": "inch",
	"MM": "millimeter",
}

// titleToken converts an upper-cased layer token to its canonical attribute
// form ("STORM" -> "Storm"). The exporter reverses this with ToUpper.
func titleToken(s string) string {
	if s == "" {
		return s
	}
	return s[:1] + strings.ToLower(s[1:])
}

func mustFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Patterns only capture digit runs; a parse failure is a rule bug.
		panic("classify: non-numeric capture from rule pattern: " + s)
	}
	return v
}

// integerOnlyAttrs lists attributes whose layer tokens capture whole numbers
// only. Rule extraction never produces fractions for these, but manually
// supplied values can; anything fractional here would render into a layer
// name no rule recognizes.
var integerOnlyAttrs = map[domain.ObjectType][]string{
	domain.ObjectTypeBmp:  {AttrVolume},
	domain.ObjectTypeTree: {AttrTrunkDiameter},
}

// ValidateRenderable checks that an attribute set can be rendered back into
// a layer name the rule set recognizes. Callers accepting operator-supplied
// attributes run this before materializing.
func ValidateRenderable(t domain.ObjectType, attrs Attributes) error {
	for _, key := range integerOnlyAttrs[t] {
		v, ok := attrs[key].AsNumber()
		if !ok {
			continue
		}
		if v != math.Trunc(v) {
			return dErrors.Newf(dErrors.CodeBadRequest,
				"%s must be a whole number; %g cannot be rendered into a layer name", key, v)
		}
	}
	return nil
}

// DefaultRules returns the ordered rule set. First match wins, so the more
// specific prefix grammars sit above the generic ones.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:          "utility-line-size-type",
			ObjectType:    domain.ObjectTypeUtilityLine,
			Discipline:    "utility",
			Confidence:    0.8,
			GeometryKinds: []geometry.Kind{geometry.KindLine},
			pattern:       regexp.MustCompile(`^(\d+(?:\.\d+)?)(IN|MM)-(STORM|SANITARY|SEWER|WATER|GAS|ELECTRIC)$`),
			extract: func(m []string) Attributes {
				return Attributes{
					AttrDiameter:    Number(mustFloat(m[1])),
					AttrUnit:        Text(unitNames[m[2]]),
					AttrUtilityType: Text(titleToken(m[3])),
				}
			},
		},
		{
			Name:          "structure-code-type",
			ObjectType:    domain.ObjectTypeStructure,
			Discipline:    "utility",
			Confidence:    0.85,
			GeometryKinds: []geometry.Kind{geometry.KindPoint},
			pattern:       regexp.MustCompile(`^(MH|CB|VALVE)-(STORM|SANITARY|SEWER|WATER|GAS|ELECTRIC)$`),
			extract: func(m []string) Attributes {
				return Attributes{
					AttrStructureCode: Text(m[1]),
					AttrUtilityType:   Text(titleToken(m[2])),
				}
			},
		},
		{
			Name:          "bmp-type-volume",
			ObjectType:    domain.ObjectTypeBmp,
			Discipline:    "stormwater",
			Confidence:    0.85,
			GeometryKinds: []geometry.Kind{geometry.KindPoint, geometry.KindPolygon},
			pattern:       regexp.MustCompile(`^BMP-([A-Z]+)(?:-(\d+)(CF|GAL))?$`),
			extract: func(m []string) Attributes {
				attrs := Attributes{AttrBmpType: Text(titleToken(m[1]))}
				if m[2] != "" {
					attrs[AttrVolume] = Number(mustFloat(m[2]))
					attrs[AttrVolumeUnit] = Text(m[3])
				}
				return attrs
			},
		},
		{
			Name:          "surface-name",
			ObjectType:    domain.ObjectTypeSurface,
			Discipline:    "civil",
			Confidence:    0.75,
			GeometryKinds: []geometry.Kind{geometry.KindFace},
			pattern:       regexp.MustCompile(`^SURF-([A-Z]+)$`),
			extract: func(m []string) Attributes {
				return Attributes{AttrSurfaceType: Text(titleToken(m[1]))}
			},
		},
		{
			Name:          "alignment-name",
			ObjectType:    domain.ObjectTypeAlignment,
			Discipline:    "civil",
			Confidence:    0.75,
			GeometryKinds: []geometry.Kind{geometry.KindLine},
			pattern:       regexp.MustCompile(`^ALIGN-([A-Z0-9]+)$`),
			extract: func(m []string) Attributes {
				return Attributes{AttrAlignmentName: Text(m[1])}
			},
		},
		{
			Name:          "survey-point-code",
			ObjectType:    domain.ObjectTypeSurveyPoint,
			Discipline:    "survey",
			Confidence:    0.7,
			GeometryKinds: []geometry.Kind{geometry.KindPoint},
			pattern:       regexp.MustCompile(`^SPT-([A-Z0-9]+)$`),
			extract: func(m []string) Attributes {
				return Attributes{AttrPointCode: Text(m[1])}
			},
		},
		{
			Name:          "tree-species-size",
			ObjectType:    domain.ObjectTypeTree,
			Discipline:    "site",
			Confidence:    0.7,
			GeometryKinds: []geometry.Kind{geometry.KindPoint},
			pattern:       regexp.MustCompile(`^TREE-([A-Z]+)(?:-(\d+)IN)?$`),
			extract: func(m []string) Attributes {
				attrs := Attributes{AttrSpecies: Text(titleToken(m[1]))}
				if m[2] != "" {
					attrs[AttrTrunkDiameter] = Number(mustFloat(m[2]))
				}
				return attrs
			},
		},
		{
			Name:          "parcel-number",
			ObjectType:    domain.ObjectTypeParcel,
			Discipline:    "site",
			Confidence:    0.75,
			GeometryKinds: []geometry.Kind{geometry.KindPoint, geometry.KindPolygon},
			pattern:       regexp.MustCompile(`^PARCEL-([A-Z0-9]+)$`),
			extract: func(m []string) Attributes {
				return Attributes{AttrParcelNumber: Text(m[1])}
			},
		},
	}
}
