package classify

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
)

func TestClassifyUtilityLine(t *testing.T) {
	c := New()

	cls := c.Classify("12IN-STORM")

	require.Equal(t, domain.ObjectTypeUtilityLine, cls.ObjectType)
	require.Equal(t, "utility", cls.Discipline)
	require.Equal(t, 0.8, cls.Confidence)
	require.Equal(t, "utility-line-size-type", cls.MatchedRule)

	diameter, ok := cls.Attributes[AttrDiameter].AsNumber()
	require.True(t, ok)
	require.Equal(t, 12.0, diameter)

	unit, ok := cls.Attributes[AttrUnit].AsText()
	require.True(t, ok)
	require.Equal(t, "inch", unit)

	utilityType, ok := cls.Attributes[AttrUtilityType].AsText()
	require.True(t, ok)
	require.Equal(t, "Storm", utilityType)
}

func TestClassifyNormalizesInput(t *testing.T) {
	c := New()

	upper := c.Classify("12IN-STORM")
	messy := c.Classify("  12in-storm ")

	require.Equal(t, upper, messy)
}

func TestClassifyTable(t *testing.T) {
	c := New()

	tests := []struct {
		layer      string
		objectType domain.ObjectType
		discipline string
		confidence float64
	}{
		{"8MM-GAS", domain.ObjectTypeUtilityLine, "utility", 0.8},
		{"2.5IN-WATER", domain.ObjectTypeUtilityLine, "utility", 0.8},
		{"MH-SANITARY", domain.ObjectTypeStructure, "utility", 0.85},
		{"CB-STORM", domain.ObjectTypeStructure, "utility", 0.85},
		{"VALVE-WATER", domain.ObjectTypeStructure, "utility", 0.85},
		{"BMP-BIORETENTION", domain.ObjectTypeBmp, "stormwater", 0.85},
		{"BMP-BIORETENTION-500CF", domain.ObjectTypeBmp, "stormwater", 0.85},
		{"BMP-POND-1200GAL", domain.ObjectTypeBmp, "stormwater", 0.85},
		{"SURF-EXISTING", domain.ObjectTypeSurface, "civil", 0.75},
		{"ALIGN-MAINST", domain.ObjectTypeAlignment, "civil", 0.75},
		{"SPT-CP1", domain.ObjectTypeSurveyPoint, "survey", 0.7},
		{"TREE-OAK", domain.ObjectTypeTree, "site", 0.7},
		{"TREE-OAK-24IN", domain.ObjectTypeTree, "site", 0.7},
		{"PARCEL-42A", domain.ObjectTypeParcel, "site", 0.75},
	}

	for _, tc := range tests {
		t.Run(tc.layer, func(t *testing.T) {
			cls := c.Classify(tc.layer)
			require.Equal(t, tc.objectType, cls.ObjectType)
			require.Equal(t, tc.discipline, cls.Discipline)
			require.Equal(t, tc.confidence, cls.Confidence)
			require.False(t, cls.IsUnclassified())
			require.NotEmpty(t, cls.MatchedRule)
		})
	}
}

func TestClassifyUnrecognized(t *testing.T) {
	c := New()

	for _, layer := range []string{"", "DOODLES", "NOTES-GENERAL", "12-STORM", "BMP", "TREE-"} {
		t.Run("layer "+layer, func(t *testing.T) {
			cls := c.Classify(layer)
			require.True(t, cls.IsUnclassified())
			require.Zero(t, cls.Confidence)
			require.Empty(t, cls.MatchedRule)
			require.Empty(t, cls.Attributes)
		})
	}
}

func TestClassifyOptionalCaptures(t *testing.T) {
	c := New()

	t.Run("bmp without volume omits volume attributes", func(t *testing.T) {
		cls := c.Classify("BMP-SWALE")
		require.NotContains(t, cls.Attributes, AttrVolume)
		require.NotContains(t, cls.Attributes, AttrVolumeUnit)
	})

	t.Run("bmp with volume captures both", func(t *testing.T) {
		cls := c.Classify("BMP-SWALE-300CF")
		volume, ok := cls.Attributes[AttrVolume].AsNumber()
		require.True(t, ok)
		require.Equal(t, 300.0, volume)
		unit, ok := cls.Attributes[AttrVolumeUnit].AsText()
		require.True(t, ok)
		require.Equal(t, "CF", unit)
	})

	t.Run("tree trunk diameter is optional", func(t *testing.T) {
		require.NotContains(t, c.Classify("TREE-MAPLE").Attributes, AttrTrunkDiameter)

		d, ok := c.Classify("TREE-MAPLE-18IN").Attributes[AttrTrunkDiameter].AsNumber()
		require.True(t, ok)
		require.Equal(t, 18.0, d)
	})
}

func TestFirstMatchWins(t *testing.T) {
	// Two overlapping grammars: the later rule carries higher confidence but
	// list order decides.
	rules := []Rule{
		{
			Name:          "broad",
			ObjectType:    domain.ObjectTypeSurface,
			Discipline:    "civil",
			Confidence:    0.7,
			GeometryKinds: []geometry.Kind{geometry.KindFace},
			pattern:       regexp.MustCompile(`^SURF-([A-Z]+)$`),
			extract:       func(m []string) Attributes { return Attributes{AttrSurfaceType: Text(m[1])} },
		},
		{
			Name:          "specific",
			ObjectType:    domain.ObjectTypeSurface,
			Discipline:    "civil",
			Confidence:    0.9,
			GeometryKinds: []geometry.Kind{geometry.KindFace},
			pattern:       regexp.MustCompile(`^SURF-EXISTING$`),
			extract:       func(m []string) Attributes { return Attributes{AttrSurfaceType: Text("Existing")} },
		},
	}

	cls := NewWithRules(rules).Classify("SURF-EXISTING")

	require.Equal(t, "broad", cls.MatchedRule)
	require.Equal(t, 0.7, cls.Confidence)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New()
	first := c.Classify("BMP-POND-1200GAL")
	for range 10 {
		require.Equal(t, first, c.Classify("BMP-POND-1200GAL"))
	}
}

func TestValidateRenderable(t *testing.T) {
	tests := []struct {
		name    string
		objType domain.ObjectType
		attrs   Attributes
		wantErr bool
	}{
		{"whole bmp volume", domain.ObjectTypeBmp, Attributes{AttrVolume: Number(500)}, false},
		{"fractional bmp volume", domain.ObjectTypeBmp, Attributes{AttrVolume: Number(500.5)}, true},
		{"fractional trunk diameter", domain.ObjectTypeTree, Attributes{AttrTrunkDiameter: Number(24.5)}, true},
		{"whole trunk diameter", domain.ObjectTypeTree, Attributes{AttrTrunkDiameter: Number(24)}, false},
		{"fractional pipe diameter is fine", domain.ObjectTypeUtilityLine, Attributes{AttrDiameter: Number(2.5)}, false},
		{"no attributes", domain.ObjectTypeBmp, nil, false},
		{"volume absent", domain.ObjectTypeBmp, Attributes{AttrBmpType: Text("Swale")}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRenderable(tc.objType, tc.attrs)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
