package openapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name   string         `json:"name"`
	Deploy bool           `json:"deploy,omitempty"`
	Input  map[string]any `json:"input"`
	Secret string         `json:"-"`
}

type sampleResponse struct {
	ID          string     `json:"id"`
	Path        []string   `json:"path"`
	Expanded    int        `json:"expanded"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newSampleGenerator() *Generator {
	g := NewGenerator(WithTitle("Test API"), WithVersion("0.1.0"), WithServer("http://localhost:8080"))
	g.RegisterRoute(Route{
		Method:      http.MethodPost,
		Path:        "/api/v1/samples",
		OperationID: "createSample",
		Tag:         "Samples",
		Request:     sampleRequest{},
		Response:    sampleResponse{},
		Status:      http.StatusCreated,
	})
	g.RegisterRoute(Route{
		Method:      http.MethodGet,
		Path:        "/api/v1/samples/{id}",
		OperationID: "getSample",
		Response:    &sampleResponse{},
		Query:       []string{"verbose"},
	})
	return g
}

func TestGenerate_Info(t *testing.T) {
	spec := newSampleGenerator().Generate()

	assert.Equal(t, "3.0.3", spec.OpenAPI)
	assert.Equal(t, "Test API", spec.Info.Title)
	assert.Equal(t, "0.1.0", spec.Info.Version)
	require.Len(t, spec.Servers, 1)
	assert.Equal(t, "http://localhost:8080", spec.Servers[0].URL)
}

func TestGenerate_Defaults(t *testing.T) {
	spec := NewGenerator().Generate()
	assert.Equal(t, "baasflow API", spec.Info.Title)
	assert.Contains(t, spec.Components.Schemas, "Error")
}

func TestGenerate_Operations(t *testing.T) {
	spec := newSampleGenerator().Generate()

	create := spec.Paths.Value("/api/v1/samples").Post
	require.NotNil(t, create)
	assert.Equal(t, "createSample", create.OperationID)
	assert.Equal(t, []string{"Samples"}, create.Tags)
	require.NotNil(t, create.RequestBody)
	assert.NotNil(t, create.Responses.Value("201"))

	get := spec.Paths.Value("/api/v1/samples/{id}").Get
	require.NotNil(t, get)
	require.Len(t, get.Parameters, 2)
	assert.Equal(t, "id", get.Parameters[0].Value.Name)
	assert.Equal(t, "path", get.Parameters[0].Value.In)
	assert.Equal(t, "verbose", get.Parameters[1].Value.Name)
	assert.NotNil(t, get.Responses.Value("200"))
	assert.NotNil(t, get.Responses.Value("default"))
}

func TestGenerate_Schemas(t *testing.T) {
	spec := newSampleGenerator().Generate()

	req := spec.Components.Schemas["sampleRequest"]
	require.NotNil(t, req)
	assert.Contains(t, req.Value.Properties, "name")
	assert.Contains(t, req.Value.Properties, "input")
	assert.NotContains(t, req.Value.Properties, "Secret")
	assert.Equal(t, []string{"input", "name"}, req.Value.Required)

	resp := spec.Components.Schemas["sampleResponse"]
	require.NotNil(t, resp)
	assert.Equal(t, "date-time", resp.Value.Properties["created_at"].Value.Format)
	assert.True(t, resp.Value.Properties["completed_at"].Value.Nullable)
	assert.True(t, resp.Value.Properties["path"].Value.Type.Is("array"))
}

func TestGenerate_Cached(t *testing.T) {
	g := newSampleGenerator()
	first := g.Generate()
	assert.Same(t, first, g.Generate())

	g.RegisterRoute(Route{Method: http.MethodGet, Path: "/health", OperationID: "health"})
	assert.NotSame(t, first, g.Generate())
}

func TestGenerator_Handler(t *testing.T) {
	g := newSampleGenerator()

	w := httptest.NewRecorder()
	g.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc["paths"], "/api/v1/samples")
}

func TestPathParams(t *testing.T) {
	assert.Equal(t, []string{"id"}, pathParams("/api/v1/runs/{id}"))
	assert.Nil(t, pathParams("/api/v1/runs"))
}
