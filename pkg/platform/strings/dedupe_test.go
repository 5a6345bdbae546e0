package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil slice", nil, nil},
		{"empty slice", []string{}, []string{}},
		{"trims whitespace", []string{"  storm  ", "sewer  "}, []string{"storm", "sewer"}},
		{"dedupes preserving order", []string{"storm", "sewer", "storm"}, []string{"storm", "sewer"}},
		{"drops empties", []string{"storm", "", "  ", "sewer"}, []string{"storm", "sewer"}},
		{"preserves case", []string{"Storm", "storm"}, []string{"Storm", "storm"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DedupeAndTrim(tc.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil slice", nil, nil},
		{"folds case before deduping", []string{"Tree", "tree", "TREE"}, []string{"tree"}},
		{"trims and folds", []string{"  UTILITY_LINE ", "parcel", "Utility_Line"}, []string{"utility_line", "parcel"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DedupeAndTrimLower(tc.input))
		})
	}
}
