package choreography

import (
	"encoding/json"
	"fmt"

	"github.com/artpar/baasflow/internal/core/catalog"
)

// =============================================================================
// Type Mapping
// =============================================================================

// Endpoint is where one deployed step can be reached.
type Endpoint struct {
	Function string               `json:"function"`
	Kind     catalog.ResourceKind `json:"kind"`
	Link     string               `json:"link,omitempty"` // URI for Serverless, image for Local
	URL      string               `json:"url,omitempty"`  // invocation URL of a Local container
}

// Resource is a concrete deployable resource bound to a function type.
type Resource struct {
	Type       catalog.ResourceKind `json:"type"`
	Properties map[string]any       `json:"properties"`
}

// TypeMapping binds an abstract function type to its resources.
type TypeMapping struct {
	FunctionType string     `json:"functionType"`
	Resources    []Resource `json:"resources"`
}

// NewResource builds the resource for kind.
//
//	Serverless -> {"Uri": link}
//	Local      -> {"Image": link} (+ "Uri" when url is set)
//	Demo       -> {}
func NewResource(kind catalog.ResourceKind, link, url string) (Resource, error) {
	r := Resource{Type: kind, Properties: map[string]any{}}
	switch kind {
	case catalog.ResourceServerless:
		r.Properties["Uri"] = link
	case catalog.ResourceLocal:
		r.Properties["Image"] = link
		if url != "" {
			r.Properties["Uri"] = url
		}
	case catalog.ResourceDemo:
	default:
		return Resource{}, fmt.Errorf("%w: %q", ErrInvalidResourceKind, kind)
	}
	return r, nil
}

// BuildTypeMappings pairs step i of path with endpoint i.
func BuildTypeMappings(path []catalog.ServiceFunction, endpoints []Endpoint) ([]TypeMapping, error) {
	if len(path) != len(endpoints) {
		return nil, fmt.Errorf("%w: %d steps, %d endpoints", ErrEndpointCountMismatch, len(path), len(endpoints))
	}

	mappings := make([]TypeMapping, 0, len(path))
	for i, fn := range path {
		ep := endpoints[i]
		r, err := NewResource(ep.Kind, ep.Link, ep.URL)
		if err != nil {
			return nil, NewCompositionError(fn.Name, "", err)
		}
		mappings = append(mappings, TypeMapping{
			FunctionType: fn.Type,
			Resources:    []Resource{r},
		})
	}
	return mappings, nil
}

// EncodeTypeMappings serializes mappings as indented JSON.
func EncodeTypeMappings(mappings []TypeMapping) ([]byte, error) {
	if mappings == nil {
		mappings = []TypeMapping{}
	}
	data, err := json.MarshalIndent(mappings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode type mappings: %w", err)
	}
	return data, nil
}
