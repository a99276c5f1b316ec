package choreography

import (
	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/transformation"
)

// Prefixes of the global ports synthesized from a transformation.
const (
	InputPrefix  = "input"
	OutputPrefix = "output"
)

// =============================================================================
// Compose
// =============================================================================

// Compose wires path into a choreography named name.
//
// The steps are:
//  1. Every key of t.Input and t.Output becomes a global input port
//     (input<Key> / output<Key>) registered in the data pool as <name>/<port>.
//  2. Each step's inputs are resolved from the pool in path order. A missing
//     required input aborts composition; a missing optional input is dropped.
//     The step's outputs are then registered as <step>/<port>.
//  3. Every global input is also wired into the first step, so the workflow
//     engine sees a consumer for each of them. When the first step already
//     consumes one of these ports it appears twice.
//  4. The choreography output is the first output port of the first step,
//     sourced from the pool.
//
// Compose is deterministic: equal arguments give equal choreographies.
func Compose(name string, path []catalog.ServiceFunction, t transformation.Transformation) (*Choreography, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(path) == 0 {
		return nil, ErrEmptyPath
	}

	c := &Choreography{Name: name}
	pool := NewDataPool()

	// 1. Global inputs
	c.DataIns = append(c.DataIns, globalPorts(InputPrefix, t.Input)...)
	c.DataIns = append(c.DataIns, globalPorts(OutputPrefix, t.Output)...)
	for _, in := range c.DataIns {
		pool.Register(Port{Name: in.Name, Type: in.Type, Source: SourceRef(name, in.Name)})
	}

	// 2. Steps
	for _, fn := range path {
		step, err := wireStep(fn, pool)
		if err != nil {
			return nil, err
		}
		for _, out := range step.DataOuts {
			pool.Register(Port{Name: out.Name, Type: out.Type, Source: SourceRef(step.Name, out.Name)})
		}
		c.Steps = append(c.Steps, step)
	}

	// 3. Connect every global input to the first step
	first := &c.Steps[0]
	for _, in := range c.DataIns {
		first.DataIns = append(first.DataIns, Port{Name: in.Name, Type: in.Type, Source: SourceRef(name, in.Name)})
	}

	// 4. Output
	if len(first.DataOuts) == 0 {
		return nil, NewCompositionError(first.Name, "", ErrMalformedFirstStepOutput)
	}
	result := first.DataOuts[0]
	provider, _ := pool.Lookup(result.Name)
	c.DataOuts = []Port{{Name: result.Name, Type: result.Type, Source: provider.Source}}

	return c, nil
}

// globalPorts synthesizes choreography inputs from a state, in key order.
// A global input's source is its own name.
func globalPorts(prefix string, state transformation.State) []Port {
	ports := make([]Port, 0, len(state))
	for _, key := range state.Keys() {
		name := transformation.PortName(prefix, key)
		ports = append(ports, Port{
			Name:   name,
			Type:   InferPortType(state[key]),
			Source: name,
		})
	}
	return ports
}

// wireStep resolves fn's inputs against the pool.
func wireStep(fn catalog.ServiceFunction, pool *DataPool) (Step, error) {
	step := Step{
		Name:     fn.Name,
		Type:     fn.Type,
		DataIns:  make([]Port, 0, len(fn.DataIns)),
		DataOuts: make([]Port, 0, len(fn.DataOuts)),
	}

	for _, in := range fn.DataIns {
		provider, ok := pool.Lookup(in.Name)
		if !ok {
			if in.Required {
				return Step{}, NewCompositionError(fn.Name, in.Name, ErrMissingRequiredSource)
			}
			continue
		}
		step.DataIns = append(step.DataIns, Port{Name: in.Name, Type: in.Type, Source: provider.Source})
	}

	for _, out := range fn.DataOuts {
		step.DataOuts = append(step.DataOuts, Port{Name: out.Name, Type: out.Type})
	}

	return step, nil
}
