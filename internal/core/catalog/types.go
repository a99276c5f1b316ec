package catalog

import (
	"github.com/artpar/baasflow/internal/core/transformation"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Service Function
// =============================================================================

// ServiceFunction is one catalog entry.
//
// Input and Output model planning state: Input maps a variable to the values
// the function accepts, Output maps a variable to the ordered values it may
// produce. DataIns and DataOuts model the data-flow payload and are wired by
// the composer.
type ServiceFunction struct {
	Name         string              `yaml:"name" json:"name"`
	Type         string              `yaml:"type" json:"type"`
	Provider     string              `yaml:"provider,omitempty" json:"provider,omitempty"`
	Description  string              `yaml:"description,omitempty" json:"description,omitempty"`
	Limits       map[string]any      `yaml:"limits,omitempty" json:"limits,omitempty"`
	Input        map[string]ValueSet `yaml:"input,omitempty" json:"input,omitempty"`
	Output       map[string]ValueSet `yaml:"output,omitempty" json:"output,omitempty"`
	Regions      []string            `yaml:"regions,omitempty" json:"regions,omitempty"`
	DataIns      []DataPort          `yaml:"dataIns,omitempty" json:"dataIns,omitempty"`
	DataOuts     []DataPort          `yaml:"dataOuts,omitempty" json:"dataOuts,omitempty"`
	Dependencies []string            `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Config       FunctionConfig      `yaml:"config,omitempty" json:"config,omitempty"`
}

// Unconstrained reports whether the function accepts any state.
func (f ServiceFunction) Unconstrained() bool {
	return len(f.Input) == 0
}

// DataPort is a named, typed data-flow port.
type DataPort struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// FunctionConfig holds deployment settings of a function.
// Zero values mean "use the deployer's default".
type FunctionConfig struct {
	Memory  int    `yaml:"memory,omitempty" json:"memory,omitempty"`   // MB
	Timeout int    `yaml:"timeout,omitempty" json:"timeout,omitempty"` // seconds
	Runtime string `yaml:"runtime,omitempty" json:"runtime,omitempty"`
	Handler string `yaml:"handler,omitempty" json:"handler,omitempty"`
	Image   string `yaml:"image,omitempty" json:"image,omitempty"` // container image for local deployment
}

// =============================================================================
// Value Set
// =============================================================================

// ValueSet is an ordered list of state values.
// In documents it may be written as a sequence or as a single scalar.
type ValueSet []any

// Contains reports whether v is a member of the set.
func (s ValueSet) Contains(v any) bool {
	for _, item := range s {
		if transformation.ValuesEqual(item, v) {
			return true
		}
	}
	return false
}

// First returns the first value of the set.
func (s ValueSet) First() (any, bool) {
	if len(s) == 0 {
		return nil, false
	}
	return s[0], true
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *ValueSet) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var items []any
		if err := value.Decode(&items); err != nil {
			return err
		}
		*s = items
		return nil
	}

	var item any
	if err := value.Decode(&item); err != nil {
		return err
	}
	*s = ValueSet{item}
	return nil
}

// =============================================================================
// Provider
// =============================================================================

// ResourceKind identifies how a provider hosts functions.
type ResourceKind string

const (
	ResourceServerless ResourceKind = "Serverless"
	ResourceLocal      ResourceKind = "Local"
	ResourceDemo       ResourceKind = "Demo"
)

// Valid reports whether the kind is one of the known resource kinds.
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceServerless, ResourceLocal, ResourceDemo:
		return true
	}
	return false
}

// Provider describes a platform that hosts catalog functions.
type Provider struct {
	Name        string       `yaml:"name" json:"name"`
	Kind        ResourceKind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Regions     []string     `yaml:"regions,omitempty" json:"regions,omitempty"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
}
