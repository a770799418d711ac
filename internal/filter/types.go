// Package filter maintains the active filter set (global and per-panel
// scopes) and saved presets, with observable last-write-wins conflict
// resolution across panels.
package filter

import (
	"strings"
)

// Scope selects which panels a criteria block applies to: the global
// scope or a single panel id.
type Scope string

// ScopeGlobal applies to every panel that does not override a key in
// its own scope.
const ScopeGlobal Scope = "global"

// Range is an inclusive numeric interval, e.g. a price band.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Predicate is one filter criterion. Exactly one field is set; a zero
// predicate matches everything.
type Predicate struct {
	Equals   any    `json:"equals,omitempty" yaml:"equals,omitempty"`
	Range    *Range `json:"range,omitempty" yaml:"range,omitempty"`
	OneOf    []any  `json:"one_of,omitempty" yaml:"one_of,omitempty"`
	Contains string `json:"contains,omitempty" yaml:"contains,omitempty"`
}

// Matches evaluates the predicate against a row value.
func (p Predicate) Matches(value any) bool {
	switch {
	case p.Equals != nil:
		return equal(p.Equals, value)
	case p.Range != nil:
		n, ok := toFloat(value)
		if !ok {
			return false
		}
		return n >= p.Range.Min && n <= p.Range.Max
	case len(p.OneOf) > 0:
		for _, candidate := range p.OneOf {
			if equal(candidate, value) {
				return true
			}
		}
		return false
	case p.Contains != "":
		s, ok := value.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(p.Contains))
	default:
		return true
	}
}

// equal compares with numeric coercion so 425000 matches 425000.0
// regardless of how the dataset decoded it.
func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Criteria maps a domain field name to its predicate.
type Criteria map[string]Predicate

// clone returns a shallow copy; predicates are value types.
func (c Criteria) clone() Criteria {
	out := make(Criteria, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// equalCriteria reports whether two criteria blocks are identical.
func equalCriteria(a, b Criteria) bool {
	if len(a) != len(b) {
		return false
	}
	for k, pa := range a {
		pb, ok := b[k]
		if !ok {
			return false
		}
		if !equalPredicate(pa, pb) {
			return false
		}
	}
	return true
}

func equalPredicate(a, b Predicate) bool {
	if !equal(a.Equals, b.Equals) && (a.Equals != nil || b.Equals != nil) {
		return false
	}
	if (a.Range == nil) != (b.Range == nil) {
		return false
	}
	if a.Range != nil && *a.Range != *b.Range {
		return false
	}
	if len(a.OneOf) != len(b.OneOf) {
		return false
	}
	for i := range a.OneOf {
		if !equal(a.OneOf[i], b.OneOf[i]) {
			return false
		}
	}
	return a.Contains == b.Contains
}

// FilterSet maps scopes to criteria.
type FilterSet map[Scope]Criteria

// Clone deep-copies the set.
func (fs FilterSet) Clone() FilterSet {
	out := make(FilterSet, len(fs))
	for scope, criteria := range fs {
		out[scope] = criteria.clone()
	}
	return out
}

// Row is one record of a dataset being filtered.
type Row map[string]any

// matches evaluates the effective criteria for a panel: global criteria
// first, with the panel scope overriding per key. A row missing a
// filtered key is excluded.
func matches(row Row, global, panel Criteria) bool {
	effective := global.clone()
	for k, p := range panel {
		effective[k] = p
	}
	for key, predicate := range effective {
		value, ok := row[key]
		if !ok {
			return false
		}
		if !predicate.Matches(value) {
			return false
		}
	}
	return true
}
