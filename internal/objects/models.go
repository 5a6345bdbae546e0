// Package objects holds the typed domain records the pipeline materializes
// from classified drawing entities, one variant per object type.
package objects

import (
	"encoding/json"
	"fmt"
	"time"

	"cadlink/internal/classify"
	"cadlink/internal/geometry"
	"cadlink/pkg/domain"
)

// Data is the closed sum of per-type record payloads. Every pipeline stage
// that consumes it switches over the variants exhaustively, so a new object
// type is a compile-checked, single-point change.
type Data interface {
	isData()
	Type() domain.ObjectType
}

type UtilityLine struct {
	Diameter    float64 `json:"diameter"`
	Unit        string  `json:"unit"`
	UtilityType string  `json:"utility_type"`
}

type Structure struct {
	Code        string `json:"code"`
	UtilityType string `json:"utility_type"`
}

type Bmp struct {
	BmpType    string  `json:"bmp_type"`
	Volume     float64 `json:"volume,omitempty"`
	VolumeUnit string  `json:"volume_unit,omitempty"`
}

type Surface struct {
	SurfaceType string `json:"surface_type"`
}

type Alignment struct {
	Name string `json:"name"`
}

type SurveyPoint struct {
	PointCode string `json:"point_code"`
}

type Tree struct {
	Species       string  `json:"species"`
	TrunkDiameter float64 `json:"trunk_diameter,omitempty"`
}

type Parcel struct {
	Number string `json:"number"`
}

func (UtilityLine) isData() {}
func (Structure) isData()   {}
func (Bmp) isData()         {}
func (Surface) isData()     {}
func (Alignment) isData()   {}
func (SurveyPoint) isData() {}
func (Tree) isData()        {}
func (Parcel) isData()      {}

func (UtilityLine) Type() domain.ObjectType { return domain.ObjectTypeUtilityLine }
func (Structure) Type() domain.ObjectType   { return domain.ObjectTypeStructure }
func (Bmp) Type() domain.ObjectType         { return domain.ObjectTypeBmp }
func (Surface) Type() domain.ObjectType     { return domain.ObjectTypeSurface }
func (Alignment) Type() domain.ObjectType   { return domain.ObjectTypeAlignment }
func (SurveyPoint) Type() domain.ObjectType { return domain.ObjectTypeSurveyPoint }
func (Tree) Type() domain.ObjectType        { return domain.ObjectTypeTree }
func (Parcel) Type() domain.ObjectType      { return domain.ObjectTypeParcel }

// Object is one row in a domain table. Created and updated only by the
// materializer and the change detector; UpdatedAt is the out-of-band edit
// signal the change detector compares against link.LastSyncedAt.
type Object struct {
	ID         domain.ObjectID
	ProjectID  domain.ProjectID
	Discipline string
	Geometry   geometry.Geometry
	Data       Data
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (o *Object) Type() domain.ObjectType { return o.Data.Type() }

// DataFromClassification populates a typed record payload from extracted
// attributes. Missing attributes zero their fields rather than failing: a
// rule that matched is trusted for shape, not completeness.
func DataFromClassification(t domain.ObjectType, attrs classify.Attributes) (Data, error) {
	num := func(key string) float64 {
		v, _ := attrs[key].AsNumber()
		return v
	}
	text := func(key string) string {
		v, _ := attrs[key].AsText()
		return v
	}

	switch t {
	case domain.ObjectTypeUtilityLine:
		return UtilityLine{
			Diameter:    num(classify.AttrDiameter),
			Unit:        text(classify.AttrUnit),
			UtilityType: text(classify.AttrUtilityType),
		}, nil
	case domain.ObjectTypeStructure:
		return Structure{
			Code:        text(classify.AttrStructureCode),
			UtilityType: text(classify.AttrUtilityType),
		}, nil
	case domain.ObjectTypeBmp:
		return Bmp{
			BmpType:    text(classify.AttrBmpType),
			Volume:     num(classify.AttrVolume),
			VolumeUnit: text(classify.AttrVolumeUnit),
		}, nil
	case domain.ObjectTypeSurface:
		return Surface{SurfaceType: text(classify.AttrSurfaceType)}, nil
	case domain.ObjectTypeAlignment:
		return Alignment{Name: text(classify.AttrAlignmentName)}, nil
	case domain.ObjectTypeSurveyPoint:
		return SurveyPoint{PointCode: text(classify.AttrPointCode)}, nil
	case domain.ObjectTypeTree:
		return Tree{
			Species:       text(classify.AttrSpecies),
			TrunkDiameter: num(classify.AttrTrunkDiameter),
		}, nil
	case domain.ObjectTypeParcel:
		return Parcel{Number: text(classify.AttrParcelNumber)}, nil
	default:
		return nil, fmt.Errorf("object type %q has no domain table", t)
	}
}

// AttributesOf is the inverse of DataFromClassification: it rebuilds the
// classification-relevant attribute set from a typed payload. The exporter
// and the conflict keep-database path both rely on this round trip.
func AttributesOf(d Data) classify.Attributes {
	switch v := d.(type) {
	case UtilityLine:
		return classify.Attributes{
			classify.AttrDiameter:    classify.Number(v.Diameter),
			classify.AttrUnit:        classify.Text(v.Unit),
			classify.AttrUtilityType: classify.Text(v.UtilityType),
		}
	case Structure:
		return classify.Attributes{
			classify.AttrStructureCode: classify.Text(v.Code),
			classify.AttrUtilityType:   classify.Text(v.UtilityType),
		}
	case Bmp:
		attrs := classify.Attributes{classify.AttrBmpType: classify.Text(v.BmpType)}
		if v.Volume != 0 {
			attrs[classify.AttrVolume] = classify.Number(v.Volume)
			attrs[classify.AttrVolumeUnit] = classify.Text(v.VolumeUnit)
		}
		return attrs
	case Surface:
		return classify.Attributes{classify.AttrSurfaceType: classify.Text(v.SurfaceType)}
	case Alignment:
		return classify.Attributes{classify.AttrAlignmentName: classify.Text(v.Name)}
	case SurveyPoint:
		return classify.Attributes{classify.AttrPointCode: classify.Text(v.PointCode)}
	case Tree:
		attrs := classify.Attributes{classify.AttrSpecies: classify.Text(v.Species)}
		if v.TrunkDiameter != 0 {
			attrs[classify.AttrTrunkDiameter] = classify.Number(v.TrunkDiameter)
		}
		return attrs
	case Parcel:
		return classify.Attributes{classify.AttrParcelNumber: classify.Text(v.Number)}
	default:
		return classify.Attributes{}
	}
}

// MarshalData encodes a payload with its type tag for storage.
func MarshalData(d Data) ([]byte, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal object data: %w", err)
	}
	return json.Marshal(struct {
		Type domain.ObjectType `json:"type"`
		Data json.RawMessage   `json:"data"`
	}{Type: d.Type(), Data: body})
}

// UnmarshalData decodes a type-tagged payload.
func UnmarshalData(b []byte) (Data, error) {
	var envelope struct {
		Type domain.ObjectType `json:"type"`
		Data json.RawMessage   `json:"data"`
	}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal object envelope: %w", err)
	}

	var d Data
	var err error
	switch envelope.Type {
	case domain.ObjectTypeUtilityLine:
		var v UtilityLine
		err = json.Unmarshal(envelope.Data, &v)
		d = v
	case domain.ObjectTypeStructure:
		var v Structure
		err = json.Unmarshal(envelope.Data, &v)
		d = v
	case domain.ObjectTypeBmp:
		var v Bmp
		err = json.Unmarshal(envelope.Data, &v)
		d = v
	case domain.ObjectTypeSurface:
		var v Surface
		err = json.Unmarshal(envelope.Data, &v)
		d = v
	case domain.ObjectTypeAlignment:
		var v Alignment
		err = json.Unmarshal(envelope.Data, &v)
		d = v
	case domain.ObjectTypeSurveyPoint:
		var v SurveyPoint
		err = json.Unmarshal(envelope.Data, &v)
		d = v
	case domain.ObjectTypeTree:
		var v Tree
		err = json.Unmarshal(envelope.Data, &v)
		d = v
	case domain.ObjectTypeParcel:
		var v Parcel
		err = json.Unmarshal(envelope.Data, &v)
		d = v
	default:
		return nil, fmt.Errorf("unknown object type in envelope: %q", envelope.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", envelope.Type, err)
	}
	return d, nil
}
