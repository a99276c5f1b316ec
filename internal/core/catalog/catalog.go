package catalog

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Catalog
// =============================================================================

// Document is the on-disk shape of a catalog (the "ontology" document).
type Document struct {
	Functions []ServiceFunction `yaml:"functions" json:"functions"`
	Providers []Provider        `yaml:"providers,omitempty" json:"providers,omitempty"`
}

// Catalog is an immutable index of service functions and providers.
// A Catalog is safe for concurrent use once constructed.
type Catalog struct {
	functions []ServiceFunction
	byName    map[string]int
	providers []Provider
	byProv    map[string]int
}

// Parse decodes and validates a catalog document. JSON documents are accepted as YAML.
func Parse(data []byte) (*Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, NewParseError("", "document is empty", ErrEmptyInput)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidDocument)
	}

	if len(doc.Functions) == 0 {
		return nil, NewParseError("functions", "no functions defined", ErrNoFunctions)
	}

	return New(doc.Functions, doc.Providers)
}

// New builds a catalog, validating names and data ports.
// Function order is preserved; it is the order the planner tries functions in.
func New(functions []ServiceFunction, providers []Provider) (*Catalog, error) {
	c := &Catalog{
		functions: make([]ServiceFunction, 0, len(functions)),
		byName:    make(map[string]int, len(functions)),
		providers: make([]Provider, 0, len(providers)),
		byProv:    make(map[string]int, len(providers)),
	}

	for i, fn := range functions {
		field := fmt.Sprintf("functions[%d]", i)
		if err := validateFunction(field, fn); err != nil {
			return nil, err
		}
		if _, exists := c.byName[fn.Name]; exists {
			return nil, NewParseError(field+".name", fmt.Sprintf("duplicate function %q", fn.Name), ErrDuplicateFunction)
		}
		c.byName[fn.Name] = len(c.functions)
		c.functions = append(c.functions, fn)
	}

	for i, p := range providers {
		field := fmt.Sprintf("providers[%d]", i)
		if p.Name == "" {
			return nil, NewParseError(field+".name", "provider name is empty", ErrEmptyProviderName)
		}
		if _, exists := c.byProv[p.Name]; exists {
			return nil, NewParseError(field+".name", fmt.Sprintf("duplicate provider %q", p.Name), ErrDuplicateProvider)
		}
		c.byProv[p.Name] = len(c.providers)
		c.providers = append(c.providers, p)
	}

	return c, nil
}

func validateFunction(field string, fn ServiceFunction) error {
	if strings.TrimSpace(fn.Name) == "" {
		return NewParseError(field+".name", "function name is empty", ErrEmptyFunctionName)
	}
	for i, p := range fn.DataIns {
		if p.Name == "" {
			return NewParseError(fmt.Sprintf("%s.dataIns[%d]", field, i), "port name is empty", ErrEmptyPortName)
		}
	}
	for i, p := range fn.DataOuts {
		if p.Name == "" {
			return NewParseError(fmt.Sprintf("%s.dataOuts[%d]", field, i), "port name is empty", ErrEmptyPortName)
		}
	}
	return nil
}

// Len returns the number of functions.
func (c *Catalog) Len() int {
	return len(c.functions)
}

// Functions returns the functions in catalog order.
func (c *Catalog) Functions() []ServiceFunction {
	out := make([]ServiceFunction, len(c.functions))
	copy(out, c.functions)
	return out
}

// Function returns the function with exactly the given name.
func (c *Catalog) Function(name string) (ServiceFunction, bool) {
	i, ok := c.byName[name]
	if !ok {
		return ServiceFunction{}, false
	}
	return c.functions[i], true
}

// FindByName returns the first function, in catalog order, whose name
// matches case-insensitively.
func (c *Catalog) FindByName(name string) (ServiceFunction, bool) {
	for _, fn := range c.functions {
		if strings.EqualFold(fn.Name, name) {
			return fn, true
		}
	}
	return ServiceFunction{}, false
}

// Providers returns the providers in document order.
func (c *Catalog) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// Provider returns the provider with the given name.
func (c *Catalog) Provider(name string) (Provider, bool) {
	i, ok := c.byProv[name]
	if !ok {
		return Provider{}, false
	}
	return c.providers[i], true
}

// Document returns the catalog in its document shape.
func (c *Catalog) Document() Document {
	return Document{
		Functions: c.Functions(),
		Providers: c.Providers(),
	}
}
