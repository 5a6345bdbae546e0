package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"cadlink/internal/classify"
	"cadlink/internal/geometry"
)

// GeometryHash digests geometry plus the classification-relevant attributes.
// Pure: identical inputs always produce the identical hex digest, and any
// coordinate or attribute change produces a different one. The change
// detector compares these digests across import passes.
func GeometryHash(g geometry.Geometry, attrs classify.Attributes) string {
	h := sha256.New()
	io.WriteString(h, g.Canonical())
	io.WriteString(h, "\n")
	io.WriteString(h, attrs.Canonical())
	return hex.EncodeToString(h.Sum(nil))
}
