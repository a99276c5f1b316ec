package transformation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Transformation
// =============================================================================

// Transformation is the start/target state pair of one planning request.
type Transformation struct {
	Input  State `yaml:"input" json:"input"`
	Output State `yaml:"output" json:"output"`

	// Extra holds any other top-level fields of the source document.
	Extra map[string]any `yaml:",inline" json:"-"`
}

// New creates a transformation from two states.
func New(input, output State) Transformation {
	return Transformation{Input: input, Output: output}
}

// Parse decodes a transformation document. JSON documents are accepted as YAML.
func Parse(data []byte) (*Transformation, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, NewParseError("", "document is empty", ErrEmptyInput)
	}

	var t Transformation
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidDocument)
	}

	if t.Input == nil {
		return nil, NewParseError("input", "missing or not an object", ErrMissingInput)
	}
	if t.Output == nil {
		return nil, NewParseError("output", "missing or not an object", ErrMissingOutput)
	}

	return &t, nil
}

// Region returns input.region when it is a non-empty string.
func (t Transformation) Region() string {
	if v, ok := t.Input["region"].(string); ok {
		return v
	}
	return ""
}

// EngineInput flattens the document one level for the workflow engine:
// every field of a top-level object becomes <object><Field>, other
// top-level values are copied unchanged.
//
// Example: {"input": {"file": "a.mp4"}} -> {"inputFile": "a.mp4"}
func (t Transformation) EngineInput() map[string]any {
	doc := make(map[string]any, len(t.Extra)+2)
	for k, v := range t.Extra {
		doc[k] = v
	}
	doc["input"] = map[string]any(t.Input)
	doc["output"] = map[string]any(t.Output)
	return FlattenDocument(doc)
}

// FlattenDocument flattens nested objects of doc by one level.
func FlattenDocument(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for key, value := range doc {
		switch obj := value.(type) {
		case map[string]any:
			for field, v := range obj {
				out[PortName(key, field)] = v
			}
		case State:
			for field, v := range obj {
				out[PortName(key, field)] = v
			}
		default:
			out[key] = value
		}
	}
	return out
}

// =============================================================================
// Naming
// =============================================================================

// PortName joins a prefix and a key, upper-casing the first letter of key.
//
// Example: PortName("input", "file") -> "inputFile"
func PortName(prefix, key string) string {
	return prefix + Capitalize(key)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
