package transformation

import (
	"encoding/json"
	"fmt"
	"sort"
)

// =============================================================================
// State
// =============================================================================

// State is a snapshot of named planning variables.
// States are compared by value and are never mutated in place: every
// transition produces a new State via With.
type State map[string]any

// Get returns the value of a variable and whether it is present.
func (s State) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// Clone returns a shallow copy of the state.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy of the state with key set to value.
func (s State) With(key string, value any) State {
	out := s.Clone()
	out[key] = value
	return out
}

// Keys returns the variable names in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Key returns the canonical structural encoding of the state.
// Two states have the same Key iff they hold the same variables with equal values.
//
// Example: {"b": 1, "a": "x"} -> {"a":"x","b":1}
func (s State) Key() string {
	if s == nil {
		return "{}"
	}
	return canonical(map[string]any(s))
}

// Equal reports whether two states hold exactly the same variables and values.
func (s State) Equal(other State) bool {
	return s.Key() == other.Key()
}

// Satisfies reports whether every variable in target is present in s with an
// equal value. Variables in s that target does not mention are ignored.
func (s State) Satisfies(target State) bool {
	for key, want := range target {
		if !ValuesEqual(s[key], want) {
			return false
		}
	}
	return true
}

// =============================================================================
// Value comparison
// =============================================================================

// ValuesEqual compares two decoded document values structurally.
// Numbers compare by value regardless of their Go representation.
func ValuesEqual(a, b any) bool {
	return canonical(a) == canonical(b)
}

// canonical encodes a value with sorted map keys.
// encoding/json sorts map keys, which is all the canonical form needs.
func canonical(v any) string {
	data, err := json.Marshal(normalize(v))
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}

// normalize converts map[any]any values (as produced by some YAML decoders)
// into map[string]any so they can be encoded.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case State:
		return normalize(map[string]any(val))
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
