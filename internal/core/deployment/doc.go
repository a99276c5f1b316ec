// Package deployment provides pure functions for deployment planning.
//
// This package turns a planned path of service functions into the values the
// deployment providers execute: resource names, ARNs, URLs, file locations,
// and per-function settings. All functions are pure (no I/O, no side effects).
//
// # Functions
//
//   - Naming: Generate consistent resource names (FunctionName, LayerName, ContainerName)
//   - ARNs and URLs: Build API Gateway and Lambda references (IntegrationURI, StageURL)
//   - Files: Locate sources and archives (SourcePath, ArchivePath, LayerArchivePath)
//   - Planning: Resolve settings for a whole path (BuildPlan)
//
// # Usage
//
// The imperative shell (internal/shell/provider) uses these pure functions
// to plan deployments, then executes the plans via the AWS and Docker APIs.
//
//	plan := deployment.BuildPlan(path, settings)
//	for _, layer := range plan.Layers { ... }
//	for _, fn := range plan.Functions { ... } // one per distinct function
//	endpoints = plan.StepEndpoints(endpoints)  // one per path step
package deployment
