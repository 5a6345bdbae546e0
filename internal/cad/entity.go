// Package cad defines the wire-shaped entity types exchanged with the
// external drawing decoder and encoder. The pipeline makes no assumption
// about the drawing file format beyond these shapes.
package cad

import (
	"strings"

	"cadlink/internal/geometry"
	dErrors "cadlink/pkg/domain-errors"
)

// RawEntity is one decoded drawing entity. Immutable once produced by the
// decoder; the pipeline only reads it.
type RawEntity struct {
	// Handle is the drawing-unique opaque identifier for the entity.
	Handle string `json:"handle"`

	// LayerName is the free-text layer label the classifier interprets.
	LayerName string `json:"layer_name"`

	Geometry geometry.Geometry `json:"geometry"`
}

// Validate rejects malformed entities before they enter the pipeline.
// A malformed entity is skipped and logged, never fatal to the batch.
func (e RawEntity) Validate() error {
	if strings.TrimSpace(e.Handle) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "raw entity is missing a handle")
	}
	if len(e.Geometry.Points) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "raw entity is missing geometry")
	}
	if err := e.Geometry.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "raw entity geometry is malformed")
	}
	return nil
}

// OutgoingEntity is one entity emitted by the exporter. Handle carries the
// original drawing handle when the object round-trips, so a later re-import
// reconciles against the same link.
type OutgoingEntity struct {
	Handle    string            `json:"handle,omitempty"`
	LayerName string            `json:"layer_name"`
	Geometry  geometry.Geometry `json:"geometry"`
}
