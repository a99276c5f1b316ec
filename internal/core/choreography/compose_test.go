package choreography

import (
	"strings"
	"testing"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/transformation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func port(name, typ string) catalog.DataPort {
	return catalog.DataPort{Name: name, Type: typ}
}

func requiredPort(name, typ string) catalog.DataPort {
	return catalog.DataPort{Name: name, Type: typ, Required: true}
}

// mediaPath is analyse -> transcribe -> translate.
func mediaPath() []catalog.ServiceFunction {
	return []catalog.ServiceFunction{
		{
			Name:     "analyse",
			Type:     "analyse",
			DataIns:  []catalog.DataPort{requiredPort("inputBucket", "string"), port("inputFileName", "string")},
			DataOuts: []catalog.DataPort{port("result", "string"), port("aux", "number")},
		},
		{
			Name:     "transcribe",
			Type:     "speechToText",
			DataIns:  []catalog.DataPort{requiredPort("inputBucket", "string"), port("inputLanguage", "string")},
			DataOuts: []catalog.DataPort{port("fileNames", "collection")},
		},
		{
			Name:     "translate",
			Type:     "translate",
			DataIns:  []catalog.DataPort{requiredPort("fileNames", "collection"), requiredPort("outputLanguage", "string")},
			DataOuts: []catalog.DataPort{port("fileNames", "collection")},
		},
	}
}

func mediaTransformation() transformation.Transformation {
	return transformation.New(
		transformation.State{"bucket": "media", "fileType": "audio"},
		transformation.State{"language": "de", "fileType": "text"},
	)
}

func portNames(ports []Port) []string {
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return names
}

// =============================================================================
// End-to-End Scenario
// =============================================================================

func TestCompose_EndToEndScenario(t *testing.T) {
	a := catalog.ServiceFunction{
		Name:     "A",
		Type:     "A",
		Input:    map[string]catalog.ValueSet{"mode": {"raw"}},
		Output:   map[string]catalog.ValueSet{"mode": {"processed"}},
		DataOuts: []catalog.DataPort{port("out", "string")},
	}
	tr := transformation.New(transformation.State{"mode": "raw"}, transformation.State{"mode": "processed"})

	c, err := Compose("wf", []catalog.ServiceFunction{a}, tr)
	require.NoError(t, err)

	assert.Equal(t, "wf", c.Name)
	require.Len(t, c.Steps, 1)
	assert.Equal(t, "A", c.Steps[0].Name)

	// inputMode is a global input whose source is its own name
	assert.Contains(t, c.DataIns, Port{Name: "inputMode", Type: "string", Source: "inputMode"})

	// and it is wired into A by the connectivity pass
	assert.Contains(t, c.Steps[0].DataIns, Port{Name: "inputMode", Type: "string", Source: "wf/inputMode"})

	assert.Equal(t, []Port{{Name: "out", Type: "string", Source: "A/out"}}, c.DataOuts)
}

// =============================================================================
// Global Input Tests
// =============================================================================

func TestCompose_GlobalInputsFromBothStates(t *testing.T) {
	c, err := Compose("wf", mediaPath(), mediaTransformation())
	require.NoError(t, err)

	assert.Equal(t, []string{"inputBucket", "inputFileType", "outputFileType", "outputLanguage"}, portNames(c.DataIns))
	for _, in := range c.DataIns {
		assert.Equal(t, in.Name, in.Source)
	}
}

func TestCompose_GlobalInputTypes(t *testing.T) {
	tr := transformation.New(transformation.State{
		"name":   "clip",
		"count":  3,
		"ratio":  0.5,
		"stereo": true,
		"opts":   map[string]any{"a": 1},
		"parts":  []any{"x", "y"},
		"empty":  nil,
	}, transformation.State{})
	path := []catalog.ServiceFunction{{Name: "A", Type: "A", DataOuts: []catalog.DataPort{port("out", "string")}}}

	c, err := Compose("wf", path, tr)
	require.NoError(t, err)

	types := make(map[string]string)
	for _, in := range c.DataIns {
		types[in.Name] = in.Type
	}
	assert.Equal(t, map[string]string{
		"inputName":   "string",
		"inputCount":  "number",
		"inputRatio":  "number",
		"inputStereo": "boolean",
		"inputOpts":   "object",
		"inputParts":  "collection",
		"inputEmpty":  "string",
	}, types)
}

// =============================================================================
// Wiring Tests
// =============================================================================

func TestCompose_WiresFromPoolInPathOrder(t *testing.T) {
	c, err := Compose("wf", mediaPath(), mediaTransformation())
	require.NoError(t, err)
	require.Len(t, c.Steps, 3)

	transcribe := c.Steps[1]
	assert.Equal(t, []Port{{Name: "inputBucket", Type: "string", Source: "wf/inputBucket"}}, transcribe.DataIns,
		"optional inputLanguage has no source and is omitted")

	translate := c.Steps[2]
	assert.Equal(t, []Port{
		{Name: "fileNames", Type: "collection", Source: "transcribe/fileNames"},
		{Name: "outputLanguage", Type: "string", Source: "wf/outputLanguage"},
	}, translate.DataIns)
	assert.Equal(t, []Port{{Name: "fileNames", Type: "collection"}}, translate.DataOuts)
}

func TestCompose_SourcesOnlyReferenceEarlierSteps(t *testing.T) {
	path := mediaPath()
	c, err := Compose("wf", path, mediaTransformation())
	require.NoError(t, err)

	index := make(map[string]int)
	for i, s := range c.Steps {
		index[s.Name] = i
	}

	for i, s := range c.Steps {
		for _, in := range s.DataIns {
			owner := strings.SplitN(in.Source, "/", 2)[0]
			if owner == "wf" {
				continue
			}
			j, ok := index[owner]
			require.True(t, ok, "unknown source %q", in.Source)
			assert.Less(t, j, i, "step %s reads %s", s.Name, in.Source)
		}
	}
}

func TestCompose_ConnectivityDuplicatesFirstStepInputs(t *testing.T) {
	c, err := Compose("wf", mediaPath(), mediaTransformation())
	require.NoError(t, err)

	first := c.Steps[0]
	assert.Equal(t, []string{
		"inputBucket", // declared by analyse
		"inputBucket", "inputFileType", "outputFileType", "outputLanguage", // connectivity pass
	}, portNames(first.DataIns))

	count := 0
	for _, in := range first.DataIns {
		if in.Name == "inputBucket" {
			assert.Equal(t, "wf/inputBucket", in.Source)
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestCompose_OnlyFirstStepGetsGlobalInputs(t *testing.T) {
	c, err := Compose("wf", mediaPath(), mediaTransformation())
	require.NoError(t, err)

	assert.Len(t, c.Steps[1].DataIns, 1)
	assert.Len(t, c.Steps[2].DataIns, 2)
}

func TestCompose_LaterProducerReplacesSource(t *testing.T) {
	path := []catalog.ServiceFunction{
		{Name: "A", Type: "A", DataOuts: []catalog.DataPort{port("text", "string")}},
		{Name: "B", Type: "B", DataIns: []catalog.DataPort{requiredPort("text", "string")}, DataOuts: []catalog.DataPort{port("text", "string")}},
		{Name: "C", Type: "C", DataIns: []catalog.DataPort{requiredPort("text", "string")}},
	}

	c, err := Compose("wf", path, transformation.New(transformation.State{}, transformation.State{}))
	require.NoError(t, err)

	assert.Equal(t, "A/text", c.Steps[1].DataIns[0].Source)
	assert.Equal(t, "B/text", c.Steps[2].DataIns[0].Source)
	// output inference reads the pool after all steps
	assert.Equal(t, "B/text", c.DataOuts[0].Source)
}

// =============================================================================
// Error Tests
// =============================================================================

func TestCompose_MissingRequiredSource(t *testing.T) {
	path := mediaPath()
	path[2].DataIns = append(path[2].DataIns, requiredPort("glossary", "object"))

	c, err := Compose("wf", path, mediaTransformation())
	require.Error(t, err)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrMissingRequiredSource)

	var compErr *CompositionError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "translate", compErr.Step)
	assert.Equal(t, "glossary", compErr.Port)
	assert.Contains(t, err.Error(), "glossary")
}

func TestCompose_RequiredInputCannotReadOwnOutput(t *testing.T) {
	path := []catalog.ServiceFunction{
		{Name: "A", Type: "A", DataOuts: []catalog.DataPort{port("out", "string")}},
		{Name: "B", Type: "B", DataIns: []catalog.DataPort{requiredPort("loop", "string")}, DataOuts: []catalog.DataPort{port("loop", "string")}},
	}

	_, err := Compose("wf", path, transformation.New(transformation.State{}, transformation.State{}))
	assert.ErrorIs(t, err, ErrMissingRequiredSource)
}

func TestCompose_MalformedFirstStepOutput(t *testing.T) {
	path := []catalog.ServiceFunction{{Name: "A", Type: "A"}}

	_, err := Compose("wf", path, transformation.New(transformation.State{"mode": "raw"}, transformation.State{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedFirstStepOutput)

	var compErr *CompositionError
	require.ErrorAs(t, err, &compErr)
	assert.Equal(t, "A", compErr.Step)
}

func TestCompose_EmptyPath(t *testing.T) {
	_, err := Compose("wf", nil, mediaTransformation())
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestCompose_EmptyName(t *testing.T) {
	_, err := Compose("", mediaPath(), mediaTransformation())
	assert.ErrorIs(t, err, ErrEmptyName)
}

// =============================================================================
// Output Inference Tests
// =============================================================================

func TestCompose_OutputInference(t *testing.T) {
	path := []catalog.ServiceFunction{{
		Name:     "first",
		Type:     "first",
		DataOuts: []catalog.DataPort{port("result", "string"), port("aux", "number")},
	}}

	c, err := Compose("wf", path, mediaTransformation())
	require.NoError(t, err)

	assert.Equal(t, []Port{{Name: "result", Type: "string", Source: "first/result"}}, c.DataOuts)
}

// =============================================================================
// Determinism
// =============================================================================

func TestCompose_Deterministic(t *testing.T) {
	a, err := Compose("wf", mediaPath(), mediaTransformation())
	require.NoError(t, err)
	b, err := Compose("wf", mediaPath(), mediaTransformation())
	require.NoError(t, err)

	assert.Equal(t, a, b)

	ya, err := EncodeYAML(a)
	require.NoError(t, err)
	yb, err := EncodeYAML(b)
	require.NoError(t, err)
	assert.Equal(t, ya, yb)

	ja, err := EncodeJSON(a)
	require.NoError(t, err)
	jb, err := EncodeJSON(b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)
}

func TestCompose_DoesNotMutatePath(t *testing.T) {
	path := mediaPath()
	_, err := Compose("wf", path, mediaTransformation())
	require.NoError(t, err)

	assert.Equal(t, mediaPath(), path)
}

// =============================================================================
// DataPool Tests
// =============================================================================

func TestDataPool(t *testing.T) {
	p := NewDataPool()
	p.Register(Port{Name: "a", Type: "string", Source: "wf/a"})
	p.Register(Port{Name: "b", Type: "string", Source: "s1/b"})
	p.Register(Port{Name: "a", Type: "string", Source: "s2/a"})

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"a", "b"}, p.Names())

	got, ok := p.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "s2/a", got.Source)

	_, ok = p.Lookup("missing")
	assert.False(t, ok)
}

func TestInferPortType(t *testing.T) {
	assert.Equal(t, TypeString, InferPortType("x"))
	assert.Equal(t, TypeNumber, InferPortType(int64(1)))
	assert.Equal(t, TypeNumber, InferPortType(float32(1)))
	assert.Equal(t, TypeBoolean, InferPortType(false))
	assert.Equal(t, TypeObject, InferPortType(map[string]string{"a": "b"}))
	assert.Equal(t, TypeCollection, InferPortType([]string{"a"}))
	assert.Equal(t, TypeString, InferPortType(nil))
	assert.Equal(t, TypeString, InferPortType(make(chan int)))
}
