package planning

import (
	"fmt"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/transformation"
)

// =============================================================================
// Types
// =============================================================================

// DefaultAnchorName is the conventional entry function of every path.
const DefaultAnchorName = "analyse"

// DefaultMaxExpansions bounds the number of states the search expands.
const DefaultMaxExpansions = 10000

// Options configures a Planner.
type Options struct {
	// AnchorName is the function prepended to every discovered path.
	// It is matched case-insensitively and never takes part in the search.
	// Empty disables the anchor.
	AnchorName string

	// RequireAnchor makes a missing anchor an error instead of a no-op.
	RequireAnchor bool

	// MaxExpansions limits expanded states. Zero or negative means unbounded.
	MaxExpansions int
}

// DefaultOptions returns the standard planner options.
func DefaultOptions() Options {
	return Options{
		AnchorName:    DefaultAnchorName,
		MaxExpansions: DefaultMaxExpansions,
	}
}

// Path is an ordered sequence of service functions.
// The order is both the execution order and the data-flow order.
type Path []catalog.ServiceFunction

// Empty reports whether the path has no functions.
func (p Path) Empty() bool {
	return len(p) == 0
}

// Names returns the function names in path order.
func (p Path) Names() []string {
	names := make([]string, len(p))
	for i, fn := range p {
		names[i] = fn.Name
	}
	return names
}

// Result is the outcome of a search.
type Result struct {
	Path     Path
	Found    bool // the target was reached
	Anchored bool // the anchor function was prepended
	Expanded int  // states expanded during the search
}

// node is one entry of the search queue.
type node struct {
	state transformation.State
	path  Path
}

// =============================================================================
// Planner
// =============================================================================

// Planner runs breadth-first searches over a catalog.
// A Planner holds no per-search state and is safe for concurrent use.
type Planner struct {
	catalog *catalog.Catalog
	opts    Options
}

// New creates a planner over cat.
func New(cat *catalog.Catalog, opts Options) *Planner {
	return &Planner{catalog: cat, opts: opts}
}

// Options returns the planner's options.
func (p *Planner) Options() Options {
	return p.opts
}

// FindServicePath returns the functions that transform t.Input into a state
// satisfying t.Output, anchor first. An empty path with a nil error means no
// path exists.
func (p *Planner) FindServicePath(t transformation.Transformation) (Path, error) {
	res, err := p.Plan(t)
	if err != nil {
		return nil, err
	}
	return res.Path, nil
}

// Plan runs the search and reports its statistics.
func (p *Planner) Plan(t transformation.Transformation) (Result, error) {
	if p.catalog == nil {
		return Result{}, ErrNilCatalog
	}

	anchor, hasAnchor := p.anchor()
	if !hasAnchor && p.opts.AnchorName != "" && p.opts.RequireAnchor {
		return Result{}, fmt.Errorf("%w: %q", ErrAnchorNotFound, p.opts.AnchorName)
	}

	candidates := p.catalog.Functions()
	if hasAnchor {
		candidates = withoutFunction(candidates, anchor.Name)
	}

	path, found, expanded, err := search(candidates, t.Input, t.Output, p.opts.MaxExpansions)
	res := Result{Found: found, Expanded: expanded}
	if err != nil {
		return res, err
	}
	if !found {
		res.Path = Path{}
		return res, nil
	}

	if hasAnchor {
		path = append(Path{anchor}, path...)
		res.Anchored = true
	}
	res.Path = path
	return res, nil
}

// anchor looks up the configured anchor function.
func (p *Planner) anchor() (catalog.ServiceFunction, bool) {
	if p.opts.AnchorName == "" {
		return catalog.ServiceFunction{}, false
	}
	return p.catalog.FindByName(p.opts.AnchorName)
}

// search is the breadth-first search. It returns the path to the first
// dequeued state that satisfies target.
func search(candidates []catalog.ServiceFunction, start, target transformation.State, budget int) (Path, bool, int, error) {
	if start == nil {
		start = transformation.State{}
	}

	queue := []node{{state: start, path: Path{}}}
	visited := make(map[string]struct{})
	expanded := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.state.Satisfies(target) {
			return current.path, true, expanded, nil
		}

		key := current.state.Key()
		if _, seen := visited[key]; seen {
			continue
		}

		if budget > 0 && expanded >= budget {
			return nil, false, expanded, fmt.Errorf("%w: %d states expanded", ErrSearchBudgetExhausted, expanded)
		}
		visited[key] = struct{}{}
		expanded++

		for _, fn := range candidates {
			if !Applicable(fn, current.state) {
				continue
			}
			next := Apply(fn, current.state, target)
			if _, seen := visited[next.Key()]; seen {
				continue
			}
			path := make(Path, len(current.path), len(current.path)+1)
			copy(path, current.path)
			queue = append(queue, node{state: next, path: append(path, fn)})
		}
	}

	return nil, false, expanded, nil
}

func withoutFunction(fns []catalog.ServiceFunction, name string) []catalog.ServiceFunction {
	out := make([]catalog.ServiceFunction, 0, len(fns))
	for _, fn := range fns {
		if fn.Name != name {
			out = append(out, fn)
		}
	}
	return out
}
