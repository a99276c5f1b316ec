package deployment

import (
	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
)

// =============================================================================
// Planning
// =============================================================================

// RequiredLayers returns the distinct dependencies of path in first-use order.
func RequiredLayers(path []catalog.ServiceFunction) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, fn := range path {
		for _, dep := range fn.Dependencies {
			if dep == "" || seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	return deps
}

// BuildPlan resolves the deployment of path under settings. A function that
// occurs more than once in path is planned once and shared by its steps.
// Zero settings fields take their defaults, and a function's own config
// overrides the settings for that function.
func BuildPlan(path []catalog.ServiceFunction, settings Settings) Plan {
	settings = settings.WithDefaults()

	plan := Plan{
		Settings:  settings,
		Layers:    make([]LayerPlan, 0),
		Functions: make([]FunctionPlan, 0, len(path)),
	}

	for _, dep := range RequiredLayers(path) {
		plan.Layers = append(plan.Layers, LayerPlan{
			Dependency: dep,
			Name:       LayerName(settings.Prefix, dep),
			Archive:    LayerArchivePath(settings.LayerDir, dep),
		})
	}

	index := make(map[string]int, len(path))
	plan.Steps = make([]int, 0, len(path))
	for _, fn := range path {
		i, ok := index[fn.Name]
		if !ok {
			i = len(plan.Functions)
			index[fn.Name] = i
			plan.Functions = append(plan.Functions, BuildFunctionPlan(fn, settings))
		}
		plan.Steps = append(plan.Steps, i)
	}

	return plan
}

// StepEndpoints expands endpoints, one per plan function, into one endpoint
// per path step.
func (p Plan) StepEndpoints(endpoints []choreography.Endpoint) []choreography.Endpoint {
	out := make([]choreography.Endpoint, 0, len(p.Steps))
	for _, i := range p.Steps {
		out = append(out, endpoints[i])
	}
	return out
}

// BuildFunctionPlan resolves the deployment of a single function.
func BuildFunctionPlan(fn catalog.ServiceFunction, settings Settings) FunctionPlan {
	settings = settings.WithDefaults()

	fp := FunctionPlan{
		Function:     fn,
		Name:         FunctionName(settings.Prefix, fn.Name),
		Handler:      HandlerName(fn.Name),
		Runtime:      settings.Runtime,
		Memory:       settings.Memory,
		Timeout:      settings.Timeout,
		Source:       SourcePath(settings.FunctionDir, fn.Provider, fn.Name),
		Archive:      ArchivePath(settings.FunctionDir, fn.Provider, fn.Name),
		Image:        ImageName(settings.Prefix, fn.Name),
		Container:    ContainerName(settings.Prefix, fn.Name),
		StatementID:  InvokeStatementID(fn.Name),
		ResourcePath: fn.Name,
	}

	cfg := fn.Config
	if cfg.Handler != "" {
		fp.Handler = cfg.Handler
	}
	if cfg.Runtime != "" {
		fp.Runtime = cfg.Runtime
	}
	if cfg.Memory > 0 {
		fp.Memory = cfg.Memory
	}
	if cfg.Timeout > 0 {
		fp.Timeout = cfg.Timeout
	}
	if cfg.Image != "" {
		fp.Image = cfg.Image
	}

	seen := make(map[string]bool)
	for _, dep := range fn.Dependencies {
		if dep == "" || seen[dep] {
			continue
		}
		seen[dep] = true
		fp.Layers = append(fp.Layers, LayerName(settings.Prefix, dep))
	}

	return fp
}
