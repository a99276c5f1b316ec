package choreography

// =============================================================================
// Data Pool
// =============================================================================

// DataPool maps port names to the port that currently provides them.
// It is filled in path order, so a lookup only ever sees global inputs and
// outputs of earlier steps. A later producer of a name replaces the earlier one.
type DataPool struct {
	entries map[string]Port
	order   []string
}

// NewDataPool creates an empty pool.
func NewDataPool() *DataPool {
	return &DataPool{entries: make(map[string]Port)}
}

// Register makes port available under its name.
func (p *DataPool) Register(port Port) {
	if _, exists := p.entries[port.Name]; !exists {
		p.order = append(p.order, port.Name)
	}
	p.entries[port.Name] = port
}

// Lookup returns the provider of name.
func (p *DataPool) Lookup(name string) (Port, bool) {
	port, ok := p.entries[name]
	return port, ok
}

// Len returns the number of distinct names in the pool.
func (p *DataPool) Len() int {
	return len(p.order)
}

// Names returns the registered names in first-registration order.
func (p *DataPool) Names() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}
