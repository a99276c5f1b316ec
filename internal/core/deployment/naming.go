package deployment

import (
	"fmt"
	"path"
	"strings"
)

// =============================================================================
// Resource Naming Functions
// =============================================================================

// FunctionName generates the deployed name of a service function.
// Pattern: {prefix}{name}
//
// Example:
//
//	FunctionName("compositebaas-", "translate") // returns "compositebaas-translate"
func FunctionName(prefix, name string) string {
	return prefix + name
}

// LayerName generates the name of a dependency layer.
// Pattern: {prefix}{dependency}
//
// Example:
//
//	LayerName("compositebaas-", "ffmpeg") // returns "compositebaas-ffmpeg"
func LayerName(prefix, dependency string) string {
	return prefix + dependency
}

// HandlerName generates the module handler of a function.
// Pattern: {name}.handler
//
// Example:
//
//	HandlerName("translate") // returns "translate.handler"
func HandlerName(name string) string {
	return name + ".handler"
}

// InvokeStatementID generates the permission statement id that lets the
// API invoke a function.
// Pattern: {name}-Invoke
func InvokeStatementID(name string) string {
	return name + "-Invoke"
}

// ContainerName generates a container name for a locally run function.
// Pattern: {prefix}{name}
//
// Example:
//
//	ContainerName("compositebaas-", "translate") // returns "compositebaas-translate"
func ContainerName(prefix, name string) string {
	return prefix + name
}

// ImageName generates the default image of a locally run function.
// Pattern: {prefix}{name}:latest, lowercased
//
// Example:
//
//	ImageName("compositebaas-", "speechToText") // returns "compositebaas-speechtotext:latest"
func ImageName(prefix, name string) string {
	return strings.ToLower(prefix+name) + ":latest"
}

// =============================================================================
// ARNs and URLs
// =============================================================================

// IntegrationURI generates the API Gateway integration URI of a function.
//
// Example:
//
//	IntegrationURI("eu-west-1", "arn:aws:lambda:eu-west-1:1:function:f")
//	// returns "arn:aws:apigateway:eu-west-1:lambda:path/2015-03-31/functions/arn:aws:lambda:eu-west-1:1:function:f/invocations"
func IntegrationURI(region, functionARN string) string {
	return fmt.Sprintf("arn:aws:apigateway:%s:lambda:path/2015-03-31/functions/%s/invocations", region, functionARN)
}

// ExecuteAPISourceARN generates the source ARN allowed to invoke a function
// through a method of the API.
// Pattern: arn:aws:execute-api:{region}:{account}:{apiID}/{stage}/{method}/{resource}
func ExecuteAPISourceARN(region, accountID, apiID, stage, method, resource string) string {
	return fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/%s/%s/%s", region, accountID, apiID, stage, method, resource)
}

// StageURL generates the public URL of a resource on a deployed stage.
// Pattern: https://{apiID}.execute-api.{region}.amazonaws.com/{stage}/{resource}
func StageURL(apiID, region, stage, resource string) string {
	return fmt.Sprintf("https://%s.execute-api.%s.amazonaws.com/%s/%s", apiID, region, stage, resource)
}

// DemoURL is the placeholder endpoint of a function that was not deployed.
func DemoURL(name string) string {
	return "https://" + name
}

// LocalURL is the address of a container port published on the host.
func LocalURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d", host, port)
}

// =============================================================================
// File Locations
// =============================================================================

// SourcePath locates the handler source of a function.
// Pattern: {dir}/{provider}/{name}.mjs
func SourcePath(dir, provider, name string) string {
	return path.Join(dir, provider, name+".mjs")
}

// ArchivePath locates the packaged archive of a function.
// Pattern: {dir}/{provider}/{name}.zip
func ArchivePath(dir, provider, name string) string {
	return path.Join(dir, provider, name+".zip")
}

// LayerArchivePath locates the packaged archive of a dependency layer.
// Pattern: {dir}/{dependency}.zip
func LayerArchivePath(dir, dependency string) string {
	return path.Join(dir, dependency+".zip")
}

// =============================================================================
// Labels
// =============================================================================

// Label keys attached to locally run containers.
const (
	LabelManaged  = "com.baasflow.managed"
	LabelFunction = "com.baasflow.function"
	LabelType     = "com.baasflow.type"
)

// ContainerLabels generates the labels of a locally run function.
func ContainerLabels(name, functionType string) map[string]string {
	return map[string]string{
		LabelManaged:  "true",
		LabelFunction: name,
		LabelType:     functionType,
	}
}
