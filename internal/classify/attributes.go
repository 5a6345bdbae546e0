package classify

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Attribute keys produced by the rule set. Exported so the materializer and
// exporter switch on the same names the extractors write.
const (
	AttrDiameter      = "diameter"
	AttrUnit          = "unit"
	AttrUtilityType   = "utility_type"
	AttrStructureCode = "structure_code"
	AttrBmpType       = "bmp_type"
	AttrVolume        = "volume"
	AttrVolumeUnit    = "volume_unit"
	AttrSurfaceType   = "surface_type"
	AttrAlignmentName = "alignment_name"
	AttrPointCode     = "point_code"
	AttrSpecies       = "species"
	AttrTrunkDiameter = "trunk_diameter"
	AttrParcelNumber  = "parcel_number"
)

type attrKind int

const (
	attrText attrKind = iota
	attrNumber
)

// Attr is one typed attribute value, either numeric or textual.
type Attr struct {
	kind attrKind
	num  float64
	text string
}

// Number builds a numeric attribute.
func Number(v float64) Attr { return Attr{kind: attrNumber, num: v} }

// Text builds a textual attribute.
func Text(s string) Attr { return Attr{kind: attrText, text: s} }

// AsNumber returns the numeric value and whether the attribute is numeric.
func (a Attr) AsNumber() (float64, bool) { return a.num, a.kind == attrNumber }

// AsText returns the textual value and whether the attribute is textual.
func (a Attr) AsText() (string, bool) { return a.text, a.kind == attrText }

func (a Attr) String() string {
	if a.kind == attrNumber {
		return strconv.FormatFloat(a.num, 'g', -1, 64)
	}
	return a.text
}

func (a Attr) MarshalJSON() ([]byte, error) {
	if a.kind == attrNumber {
		return json.Marshal(a.num)
	}
	return json.Marshal(a.text)
}

func (a *Attr) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*a = Number(t)
	case string:
		*a = Text(t)
	default:
		return fmt.Errorf("attribute must be a number or a string, got %T", v)
	}
	return nil
}

// Attributes maps attribute names to typed values.
type Attributes map[string]Attr

// Canonical returns a deterministic key-sorted encoding used as hash input
// alongside the geometry encoding.
func (as Attributes) Canonical() string {
	if len(as) == 0 {
		return ""
	}
	keys := make([]string, 0, len(as))
	for k := range as {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(as[k].String())
	}
	return b.String()
}

// Equal reports whether two attribute sets carry identical keys and values.
func (as Attributes) Equal(other Attributes) bool {
	if len(as) != len(other) {
		return false
	}
	for k, v := range as {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
