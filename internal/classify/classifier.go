// Package classify turns free-text layer names into structured,
// confidence-scored classifications. Everything in this package is pure:
// no I/O, no clock, no mutation of inputs.
package classify

import (
	"strings"

	"cadlink/pkg/domain"
)

// Classification is the structured interpretation of one layer name.
//
// Invariant: ObjectType == Unclassified ⇔ Confidence == 0 ⇔ MatchedRule == "".
type Classification struct {
	ObjectType  domain.ObjectType `json:"object_type"`
	Discipline  string            `json:"discipline,omitempty"`
	Attributes  Attributes        `json:"attributes"`
	Confidence  float64           `json:"confidence"`
	MatchedRule string            `json:"matched_rule,omitempty"`
}

// IsUnclassified reports whether no rule recognized the layer name.
func (c Classification) IsUnclassified() bool {
	return c.ObjectType == domain.ObjectTypeUnclassified
}

// Unclassified is the total-function fallback classification.
func Unclassified() Classification {
	return Classification{
		ObjectType: domain.ObjectTypeUnclassified,
		Attributes: Attributes{},
		Confidence: 0,
	}
}

// Classifier evaluates an ordered rule list against layer names.
type Classifier struct {
	rules []Rule
}

// New returns a classifier over the default rule set.
func New() *Classifier {
	return NewWithRules(DefaultRules())
}

// NewWithRules returns a classifier over a caller-supplied ordered rule set.
// Tests use this to pin rule ordering behavior.
func NewWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify interprets a layer name. Deterministic and total: unrecognized
// names come back Unclassified, never as an error.
func (c *Classifier) Classify(layerName string) Classification {
	rule, m, ok := c.resolve(Normalize(layerName))
	if !ok {
		return Unclassified()
	}
	return Classification{
		ObjectType:  rule.ObjectType,
		Discipline:  rule.Discipline,
		Attributes:  rule.extract(m),
		Confidence:  rule.Confidence,
		MatchedRule: rule.Name,
	}
}

// resolve is the single seam for the match strategy: the first rule in list
// order that matches wins, even when a later rule would match with higher
// confidence. Swapping to best-match-by-confidence means changing only this
// function, not the rule definitions.
//
// TODO: confirm with the drafting team whether overlapping grammars should
// resolve by order or by confidence; until then ordering is load-bearing.
func (c *Classifier) resolve(name string) (*Rule, []string, bool) {
	for i := range c.rules {
		if m, ok := c.rules[i].Matches(name); ok {
			return &c.rules[i], m, true
		}
	}
	return nil, nil, false
}

// Normalize upper-cases and trims a layer name before matching. The rule
// grammars are defined over this normal form.
func Normalize(layerName string) string {
	return strings.ToUpper(strings.TrimSpace(layerName))
}
