package deployment

import (
	"testing"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaPath() []catalog.ServiceFunction {
	return []catalog.ServiceFunction{
		{Name: "analyse", Type: "analyse", Provider: "core"},
		{Name: "transcribe", Type: "speechToText", Provider: "aws", Dependencies: []string{"ffmpeg", "sdk"}},
		{
			Name: "translate", Type: "translate", Provider: "aws",
			Dependencies: []string{"sdk"},
			Config:       catalog.FunctionConfig{Memory: 512, Timeout: 30, Runtime: "nodejs18.x"},
		},
	}
}

// =============================================================================
// Settings Tests
// =============================================================================

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "compositebaas-", s.Prefix)
	assert.Equal(t, "nodejs20.x", s.Runtime)
	assert.Equal(t, 128, s.Memory)
	assert.Equal(t, 3, s.Timeout)
	assert.Equal(t, "prod", s.Stage)
	assert.Equal(t, "Lambda-Service-Role", s.RoleName)
	assert.Equal(t, "MultiLambdaPublicAPI", s.APIName)
	assert.Len(t, s.Policies, 3)
}

func TestDefaultSettings_PoliciesAreCopied(t *testing.T) {
	s := DefaultSettings()
	s.Policies[0] = "changed"
	assert.NotEqual(t, "changed", DefaultPolicies[0])
}

func TestSettings_WithDefaults_KeepsExplicitValues(t *testing.T) {
	s := Settings{Prefix: "x-", Memory: 256, Policies: []string{}}.WithDefaults()
	assert.Equal(t, "x-", s.Prefix)
	assert.Equal(t, 256, s.Memory)
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Empty(t, s.Policies)
}

// =============================================================================
// RequiredLayers Tests
// =============================================================================

func TestRequiredLayers_DistinctInOrder(t *testing.T) {
	assert.Equal(t, []string{"ffmpeg", "sdk"}, RequiredLayers(mediaPath()))
}

func TestRequiredLayers_None(t *testing.T) {
	assert.Empty(t, RequiredLayers([]catalog.ServiceFunction{{Name: "a"}}))
}

// =============================================================================
// BuildPlan Tests
// =============================================================================

func TestBuildPlan_Layers(t *testing.T) {
	plan := BuildPlan(mediaPath(), Settings{})

	require.Len(t, plan.Layers, 2)
	assert.Equal(t, LayerPlan{Dependency: "ffmpeg", Name: "compositebaas-ffmpeg", Archive: "layers/ffmpeg.zip"}, plan.Layers[0])
	assert.Equal(t, "compositebaas-sdk", plan.Layers[1].Name)
}

func TestBuildPlan_FunctionDefaults(t *testing.T) {
	plan := BuildPlan(mediaPath(), Settings{})

	require.Len(t, plan.Functions, 3)
	fp := plan.Functions[1]
	assert.Equal(t, "compositebaas-transcribe", fp.Name)
	assert.Equal(t, "transcribe.handler", fp.Handler)
	assert.Equal(t, "nodejs20.x", fp.Runtime)
	assert.Equal(t, 128, fp.Memory)
	assert.Equal(t, 3, fp.Timeout)
	assert.Equal(t, "functions/aws/transcribe.mjs", fp.Source)
	assert.Equal(t, "functions/aws/transcribe.zip", fp.Archive)
	assert.Equal(t, []string{"compositebaas-ffmpeg", "compositebaas-sdk"}, fp.Layers)
	assert.Equal(t, "transcribe-Invoke", fp.StatementID)
	assert.Equal(t, "transcribe", fp.ResourcePath)
	assert.Equal(t, "compositebaas-transcribe:latest", fp.Image)
}

func TestBuildPlan_FunctionConfigOverrides(t *testing.T) {
	plan := BuildPlan(mediaPath(), Settings{})

	fp := plan.Functions[2]
	assert.Equal(t, "nodejs18.x", fp.Runtime)
	assert.Equal(t, 512, fp.Memory)
	assert.Equal(t, 30, fp.Timeout)
	assert.Equal(t, []string{"compositebaas-sdk"}, fp.Layers)
}

func TestBuildPlan_PreservesOrder(t *testing.T) {
	plan := BuildPlan(mediaPath(), Settings{})

	var names []string
	for _, fp := range plan.Functions {
		names = append(names, fp.Function.Name)
	}
	assert.Equal(t, []string{"analyse", "transcribe", "translate"}, names)
}

func TestBuildPlan_RepeatedFunctionPlannedOnce(t *testing.T) {
	translate := catalog.ServiceFunction{Name: "translate", Type: "translate", Provider: "aws"}
	path := []catalog.ServiceFunction{translate, {Name: "summarise", Type: "summary"}, translate}

	plan := BuildPlan(path, DefaultSettings())

	require.Len(t, plan.Functions, 2)
	assert.Equal(t, "translate", plan.Functions[0].Function.Name)
	assert.Equal(t, "summarise", plan.Functions[1].Function.Name)
	assert.Equal(t, []int{0, 1, 0}, plan.Steps)
}

func TestPlan_StepEndpoints(t *testing.T) {
	plan := Plan{Steps: []int{0, 1, 0}}
	endpoints := []choreography.Endpoint{
		{Function: "translate", Link: "https://translate"},
		{Function: "summarise", Link: "https://summarise"},
	}

	steps := plan.StepEndpoints(endpoints)

	require.Len(t, steps, 3)
	assert.Equal(t, "https://translate", steps[0].Link)
	assert.Equal(t, "https://summarise", steps[1].Link)
	assert.Equal(t, "https://translate", steps[2].Link)
}

func TestBuildPlan_EmptyPath(t *testing.T) {
	plan := BuildPlan(nil, DefaultSettings())
	assert.NotNil(t, plan.Layers)
	assert.Empty(t, plan.Functions)
	assert.Empty(t, plan.Steps)
}

func TestBuildFunctionPlan_CustomImageAndHandler(t *testing.T) {
	fn := catalog.ServiceFunction{
		Name:     "ocr",
		Provider: "local",
		Config:   catalog.FunctionConfig{Image: "ghcr.io/acme/ocr:1", Handler: "index.main"},
	}
	fp := BuildFunctionPlan(fn, Settings{Prefix: "demo-"})
	assert.Equal(t, "ghcr.io/acme/ocr:1", fp.Image)
	assert.Equal(t, "index.main", fp.Handler)
	assert.Equal(t, "demo-ocr", fp.Container)
}
