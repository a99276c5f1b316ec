package choreography

import (
	"reflect"

	"github.com/artpar/baasflow/internal/core/transformation"
)

// =============================================================================
// Choreography Types
// =============================================================================

// Port is a typed data port. Source is set on wired inputs and on the
// choreography's own inputs and outputs; step outputs leave it empty.
type Port struct {
	Name   string `yaml:"name" json:"name"`
	Type   string `yaml:"type" json:"type"`
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

// Step is one function node of the choreography.
type Step struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	DataIns  []Port `yaml:"dataIns" json:"dataIns"`
	DataOuts []Port `yaml:"dataOuts" json:"dataOuts"`
}

// Choreography is a composed workflow.
type Choreography struct {
	Name     string
	DataIns  []Port
	Steps    []Step
	DataOuts []Port
}

// Port types inferred from transformation values.
const (
	TypeString     = "string"
	TypeNumber     = "number"
	TypeBoolean    = "boolean"
	TypeObject     = "object"
	TypeCollection = "collection"
)

// InferPortType maps a decoded document value to a port type.
// Unrecognized shapes default to string.
func InferPortType(v any) string {
	switch v.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return TypeNumber
	case map[string]any, map[any]any, transformation.State:
		return TypeObject
	case []any:
		return TypeCollection
	case nil:
		return TypeString
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Struct:
		return TypeObject
	case reflect.Slice, reflect.Array:
		return TypeCollection
	default:
		return TypeString
	}
}

// SourceRef builds a "<owner>/<port>" source reference.
//
// Example: SourceRef("transcribe", "fileNames") -> "transcribe/fileNames"
func SourceRef(owner, port string) string {
	return owner + "/" + port
}
