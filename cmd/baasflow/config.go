package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/artpar/baasflow/internal/core/deployment"
	"github.com/artpar/baasflow/internal/core/planning"
	coreprovider "github.com/artpar/baasflow/internal/core/provider"
	"github.com/artpar/baasflow/internal/shell/artifacts"
	"github.com/artpar/baasflow/internal/shell/provider"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BAASFLOW_AWS_REGION.
const EnvPrefix = "BAASFLOW"

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Output   OutputConfig   `mapstructure:"output"`
	Deploy   DeployConfig   `mapstructure:"deploy"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Docker   DockerConfig   `mapstructure:"docker"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// CatalogConfig locates the service function catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// PlannerConfig holds path search configuration.
type PlannerConfig struct {
	AnchorName    string `mapstructure:"anchor_name"`
	RequireAnchor bool   `mapstructure:"require_anchor"`
	MaxExpansions int    `mapstructure:"max_expansions"`
}

// OutputConfig holds artifact output configuration.
type OutputConfig struct {
	Dir              string `mapstructure:"dir"`
	TypeMappingsFile string `mapstructure:"type_mappings_file"`
	EngineInputFile  string `mapstructure:"engine_input_file"`
	PerRun           bool   `mapstructure:"per_run"` // <dir>/<run id>/ per run; always on for serve
}

// DeployConfig holds deployment configuration.
type DeployConfig struct {
	Provider    string        `mapstructure:"provider"`
	Prefix      string        `mapstructure:"prefix"`
	Runtime     string        `mapstructure:"runtime"`
	Memory      int           `mapstructure:"memory"`
	Timeout     int           `mapstructure:"timeout"`
	Stage       string        `mapstructure:"stage"`
	RoleName    string        `mapstructure:"role_name"`
	APIName     string        `mapstructure:"api_name"`
	Policies    []string      `mapstructure:"policies"`
	FunctionDir string        `mapstructure:"function_dir"`
	LayerDir    string        `mapstructure:"layer_dir"`
	Port        int           `mapstructure:"port"`
	LocalHost   string        `mapstructure:"local_host"`
	RoleWait    time.Duration `mapstructure:"role_wait"`
}

// AWSConfig holds the default region and optional static credentials.
// Empty credentials select the SDK's default credential chain.
type AWSConfig struct {
	Region      string                      `mapstructure:"region"`
	Credentials coreprovider.AWSCredentials `mapstructure:",squash"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// DatabaseConfig holds database configuration. An empty DSN disables run
// history.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	APIToken        string        `mapstructure:"api_token"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"catalog":  "catalog.path",
	"output":   "output.dir",
	"db":       "database.dsn",
	"provider": "deploy.provider",
	"region":   "aws.region",
	"host":     "server.host",
	"port":     "server.port",
}

// LoadConfig loads configuration from defaults, the config file, the
// environment, and flags, in increasing priority.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("catalog.path", "resources/function_ontology.json")
	v.SetDefault("planner.anchor_name", planning.DefaultAnchorName)
	v.SetDefault("planner.require_anchor", false)
	v.SetDefault("planner.max_expansions", planning.DefaultMaxExpansions)
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.type_mappings_file", artifacts.DefaultTypeMappingsFile)
	v.SetDefault("output.engine_input_file", artifacts.DefaultEngineInputFile)
	v.SetDefault("output.per_run", false)
	v.SetDefault("deploy.provider", string(coreprovider.KindAWS))
	v.SetDefault("deploy.prefix", deployment.DefaultPrefix)
	v.SetDefault("deploy.runtime", deployment.DefaultRuntime)
	v.SetDefault("deploy.memory", deployment.DefaultMemory)
	v.SetDefault("deploy.timeout", deployment.DefaultTimeout)
	v.SetDefault("deploy.stage", deployment.DefaultStage)
	v.SetDefault("deploy.role_name", deployment.DefaultRoleName)
	v.SetDefault("deploy.api_name", deployment.DefaultAPIName)
	v.SetDefault("deploy.policies", deployment.DefaultPolicies)
	v.SetDefault("deploy.function_dir", deployment.DefaultFunctionDir)
	v.SetDefault("deploy.layer_dir", deployment.DefaultLayerDir)
	v.SetDefault("deploy.port", deployment.DefaultPort)
	v.SetDefault("deploy.local_host", "localhost")
	v.SetDefault("deploy.role_wait", "7s")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.access_key_id", "")
	v.SetDefault("aws.secret_access_key", "")
	v.SetDefault("aws.session_token", "")
	v.SetDefault("docker.host", "")
	v.SetDefault("database.dsn", "./data/baasflow.db")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s") // deployments run inside requests
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.api_token", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be checked by decoding alone.
func (c *Config) Validate() error {
	if _, err := coreprovider.ParseKind(c.Deploy.Provider); err != nil {
		return fmt.Errorf("deploy.provider: %w", err)
	}
	if err := coreprovider.ValidateAWSCredentials(c.AWS.Credentials); err != nil {
		return fmt.Errorf("aws: %w", err)
	}
	if c.Planner.MaxExpansions < 0 {
		return fmt.Errorf("planner.max_expansions must not be negative, got %d", c.Planner.MaxExpansions)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// =============================================================================
// Component Settings
// =============================================================================

// PlannerOptions returns the planner options.
func (c *Config) PlannerOptions() planning.Options {
	return planning.Options{
		AnchorName:    c.Planner.AnchorName,
		RequireAnchor: c.Planner.RequireAnchor,
		MaxExpansions: c.Planner.MaxExpansions,
	}
}

// DeploymentSettings returns the deployment settings with defaults applied.
func (c *Config) DeploymentSettings() deployment.Settings {
	return deployment.Settings{
		Prefix:      c.Deploy.Prefix,
		Runtime:     c.Deploy.Runtime,
		Memory:      c.Deploy.Memory,
		Timeout:     c.Deploy.Timeout,
		Stage:       c.Deploy.Stage,
		RoleName:    c.Deploy.RoleName,
		APIName:     c.Deploy.APIName,
		Policies:    c.Deploy.Policies,
		FunctionDir: c.Deploy.FunctionDir,
		LayerDir:    c.Deploy.LayerDir,
		Port:        c.Deploy.Port,
	}.WithDefaults()
}

// ProviderConfig returns the provider configuration for a run in region.
// AWS runs fall back to aws.region when the request names none.
func (c *Config) ProviderConfig(region string) (provider.Config, error) {
	kind, err := coreprovider.ParseKind(c.Deploy.Provider)
	if err != nil {
		return provider.Config{}, err
	}

	if kind == coreprovider.KindAWS {
		region, err = coreprovider.ResolveRegion(region, c.AWS.Region)
		if err != nil {
			return provider.Config{}, err
		}
	}

	return provider.Config{
		Kind:        kind,
		Region:      region,
		Credentials: c.AWS.Credentials,
		Settings:    c.DeploymentSettings(),
		DockerHost:  c.Docker.Host,
		LocalHost:   c.Deploy.LocalHost,
		RoleWait:    c.Deploy.RoleWait,
	}, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
