// Package planning searches a catalog for a sequence of service functions
// that transforms a start state into a target state.
//
// The search is breadth-first over planning states. Each applicable function
// yields exactly one successor: for every variable the function affects, the
// target's value is taken when the function can produce it, otherwise the
// function's first listed value. The first state that satisfies the target
// ends the search, so the returned path has the fewest functions the policy
// can find.
//
// # Functions
//
//   - Applicable: Check a function's input constraints against a state
//   - Apply: Compute the successor state of a function
//   - Planner.Plan / Planner.FindServicePath: Run the search
//
// # Usage
//
//	p := planning.New(cat, planning.DefaultOptions())
//	path, err := p.FindServicePath(t)
//	if err != nil { ... }
//	if path.Empty() { ... } // no path found
package planning
