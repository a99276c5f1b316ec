package planning

import (
	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/transformation"
)

// =============================================================================
// State Transitions
// =============================================================================

// Applicable reports whether fn accepts state: every constrained variable must
// be present in state with a value from the allowed set.
// A function without input constraints is always applicable.
func Applicable(fn catalog.ServiceFunction, state transformation.State) bool {
	for key, allowed := range fn.Input {
		value, ok := state.Get(key)
		if !ok || !allowed.Contains(value) {
			return false
		}
	}
	return true
}

// Apply returns the state reached by running fn on state.
//
// For each variable fn affects: if fn can produce the target's value, the
// variable jumps to it; otherwise it takes fn's first listed value. Variables
// with an empty value list are left unchanged.
//
// Example:
//
//	fn.Output = {"language": ["de", "fr"]}
//	Apply(fn, {"language": "en"}, {"language": "fr"}) -> {"language": "fr"}
//	Apply(fn, {"language": "en"}, {"language": "it"}) -> {"language": "de"}
func Apply(fn catalog.ServiceFunction, state, target transformation.State) transformation.State {
	next := state.Clone()
	for key, values := range fn.Output {
		first, ok := values.First()
		if !ok {
			continue
		}
		if want, inTarget := target.Get(key); inTarget && values.Contains(want) {
			next[key] = want
		} else {
			next[key] = first
		}
	}
	return next
}
