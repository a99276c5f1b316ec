package deployment

import (
	"github.com/artpar/baasflow/internal/core/catalog"
)

// =============================================================================
// Settings
// =============================================================================

// Defaults applied when neither the settings nor a function's config set a value.
const (
	DefaultPrefix      = "compositebaas-"
	DefaultRuntime     = "nodejs20.x"
	DefaultMemory      = 128 // MB
	DefaultTimeout     = 3   // seconds
	DefaultStage       = "prod"
	DefaultRoleName    = "Lambda-Service-Role"
	DefaultAPIName     = "MultiLambdaPublicAPI"
	DefaultFunctionDir = "functions"
	DefaultLayerDir    = "layers"
	DefaultPort        = 8080
)

// DefaultPolicies are the managed policies attached to the execution role.
var DefaultPolicies = []string{
	"arn:aws:iam::aws:policy/AmazonS3FullAccess",
	"arn:aws:iam::aws:policy/AmazonTranscribeFullAccess",
	"arn:aws:iam::aws:policy/TranslateFullAccess",
}

// Settings configures how a path is deployed.
type Settings struct {
	Prefix      string
	Runtime     string
	Memory      int
	Timeout     int
	Stage       string
	RoleName    string
	APIName     string
	Policies    []string
	FunctionDir string
	LayerDir    string
	Port        int // container port of local functions
}

// DefaultSettings returns the standard deployment settings.
func DefaultSettings() Settings {
	return Settings{
		Prefix:      DefaultPrefix,
		Runtime:     DefaultRuntime,
		Memory:      DefaultMemory,
		Timeout:     DefaultTimeout,
		Stage:       DefaultStage,
		RoleName:    DefaultRoleName,
		APIName:     DefaultAPIName,
		Policies:    append([]string(nil), DefaultPolicies...),
		FunctionDir: DefaultFunctionDir,
		LayerDir:    DefaultLayerDir,
		Port:        DefaultPort,
	}
}

// WithDefaults fills every zero field from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	d := DefaultSettings()
	if s.Prefix == "" {
		s.Prefix = d.Prefix
	}
	if s.Runtime == "" {
		s.Runtime = d.Runtime
	}
	if s.Memory <= 0 {
		s.Memory = d.Memory
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.Stage == "" {
		s.Stage = d.Stage
	}
	if s.RoleName == "" {
		s.RoleName = d.RoleName
	}
	if s.APIName == "" {
		s.APIName = d.APIName
	}
	if s.Policies == nil {
		s.Policies = d.Policies
	}
	if s.FunctionDir == "" {
		s.FunctionDir = d.FunctionDir
	}
	if s.LayerDir == "" {
		s.LayerDir = d.LayerDir
	}
	if s.Port <= 0 {
		s.Port = d.Port
	}
	return s
}

// =============================================================================
// Plan Types
// =============================================================================

// LayerPlan is a planned dependency layer.
type LayerPlan struct {
	Dependency string
	Name       string
	Archive    string
}

// FunctionPlan is the resolved deployment of one path step.
// This is the pure output of planning, ready for the shell to execute.
type FunctionPlan struct {
	Function     catalog.ServiceFunction
	Name         string // deployed function name
	Handler      string
	Runtime      string
	Memory       int
	Timeout      int
	Source       string
	Archive      string
	Layers       []string // layer names, in Plan.Layers order
	Image        string   // container image for local deployment
	Container    string   // container name for local deployment
	StatementID  string
	ResourcePath string
}

// Plan is the deployment of a whole path.
type Plan struct {
	Settings  Settings
	Layers    []LayerPlan
	Functions []FunctionPlan // distinct functions, in first-use order
	Steps     []int          // index into Functions for each path step
}
