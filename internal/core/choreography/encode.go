package choreography

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Document Encoding
// =============================================================================

// Document is the serialized shape of a choreography as the workflow engine
// reads it. Each body entry wraps a step under a "function" key.
type Document struct {
	Name         string      `yaml:"name" json:"name"`
	DataIns      []Port      `yaml:"dataIns" json:"dataIns"`
	WorkflowBody []BodyEntry `yaml:"workflowBody" json:"workflowBody"`
	DataOuts     []Port      `yaml:"dataOuts" json:"dataOuts"`
}

// BodyEntry is one element of a workflow body.
type BodyEntry struct {
	Function Step `yaml:"function" json:"function"`
}

// Document converts the choreography to its serialized shape.
func (c *Choreography) Document() Document {
	doc := Document{
		Name:         c.Name,
		DataIns:      nonNil(c.DataIns),
		WorkflowBody: make([]BodyEntry, 0, len(c.Steps)),
		DataOuts:     nonNil(c.DataOuts),
	}
	for _, s := range c.Steps {
		s.DataIns = nonNil(s.DataIns)
		s.DataOuts = nonNil(s.DataOuts)
		doc.WorkflowBody = append(doc.WorkflowBody, BodyEntry{Function: s})
	}
	return doc
}

// EncodeYAML serializes the choreography as YAML.
func EncodeYAML(c *Choreography) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.Document()); err != nil {
		return nil, fmt.Errorf("encode choreography %q: %w", c.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode choreography %q: %w", c.Name, err)
	}
	return buf.Bytes(), nil
}

// EncodeJSON serializes the choreography as indented JSON.
func EncodeJSON(c *Choreography) ([]byte, error) {
	data, err := json.MarshalIndent(c.Document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode choreography %q: %w", c.Name, err)
	}
	return data, nil
}

// DecodeYAML parses a serialized choreography.
func DecodeYAML(data []byte) (*Choreography, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode choreography: %w", err)
	}
	c := &Choreography{
		Name:     doc.Name,
		DataIns:  doc.DataIns,
		DataOuts: doc.DataOuts,
	}
	for _, entry := range doc.WorkflowBody {
		c.Steps = append(c.Steps, entry.Function)
	}
	return c, nil
}

func nonNil(ports []Port) []Port {
	if ports == nil {
		return []Port{}
	}
	return ports
}
