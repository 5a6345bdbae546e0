package export

import (
	"strconv"
	"strings"

	"cadlink/internal/objects"
	dErrors "cadlink/pkg/domain-errors"
)

var unitTokens = map[string]string{
	"inch":       "IN",
	"millimeter": "MM",
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// LayerName renders the canonical layer name for a domain record. It is the
// inverse of the classifier's layer grammar: classifying the returned name
// yields the same object type and attributes back.
func LayerName(d objects.Data) (string, error) {
	switch v := d.(type) {
	case objects.UtilityLine:
		unit, ok := unitTokens[v.Unit]
		if !ok {
			return "", dErrors.Newf(dErrors.CodeInvariantViolation, "utility line has unknown unit %q", v.Unit)
		}
		return num(v.Diameter) + unit + "-" + strings.ToUpper(v.UtilityType), nil
	case objects.Structure:
		return v.Code + "-" + strings.ToUpper(v.UtilityType), nil
	case objects.Bmp:
		name := "BMP-" + strings.ToUpper(v.BmpType)
		if v.Volume > 0 {
			name += "-" + num(v.Volume) + v.VolumeUnit
		}
		return name, nil
	case objects.Surface:
		return "SURF-" + strings.ToUpper(v.SurfaceType), nil
	case objects.Alignment:
		return "ALIGN-" + v.Name, nil
	case objects.SurveyPoint:
		return "SPT-" + v.PointCode, nil
	case objects.Tree:
		name := "TREE-" + strings.ToUpper(v.Species)
		if v.TrunkDiameter > 0 {
			name += "-" + num(v.TrunkDiameter) + "IN"
		}
		return name, nil
	case objects.Parcel:
		return "PARCEL-" + v.Number, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInternal, "no layer grammar for %T", d)
	}
}
