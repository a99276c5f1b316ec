// Package artifacts reads planning inputs from disk and writes the files a
// run produces for the workflow engine.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/transformation"
)

// Default file names of run outputs.
const (
	DefaultTypeMappingsFile = "type_mappings.json"
	DefaultEngineInputFile  = "apollo-input.json"
)

var ErrEmptyPath = errors.New("path is required")

// =============================================================================
// Loading
// =============================================================================

// LoadCatalog reads and parses a catalog document.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	data, err := readFile("catalog", path)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// LoadTransformation reads and parses a transformation document.
func LoadTransformation(path string) (*transformation.Transformation, error) {
	data, err := readFile("transformation", path)
	if err != nil {
		return nil, err
	}
	t, err := transformation.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("transformation %s: %w", path, err)
	}
	return t, nil
}

func readFile(kind, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%s: %w", kind, ErrEmptyPath)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", kind, err)
	}
	return data, nil
}

// =============================================================================
// Writing
// =============================================================================

// Writer writes run outputs below a directory.
type Writer struct {
	dir              string
	typeMappingsFile string
	engineInputFile  string
	runDirs          bool
	logger           *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithTypeMappingsFile overrides the type mappings file name.
func WithTypeMappingsFile(name string) WriterOption {
	return func(w *Writer) {
		if name != "" {
			w.typeMappingsFile = name
		}
	}
}

// WithEngineInputFile overrides the engine input file name.
func WithEngineInputFile(name string) WriterOption {
	return func(w *Writer) {
		if name != "" {
			w.engineInputFile = name
		}
	}
}

// WithRunDirs writes every run's artifacts below <dir>/<run id>/ so that
// concurrent runs never share files.
func WithRunDirs() WriterOption {
	return func(w *Writer) { w.runDirs = true }
}

// NewWriter creates a Writer for dir. An empty dir means the working directory.
func NewWriter(dir string, logger *slog.Logger, opts ...WriterOption) *Writer {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		dir:              dir,
		typeMappingsFile: DefaultTypeMappingsFile,
		engineInputFile:  DefaultEngineInputFile,
		logger:           logger.With("component", "artifacts"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// ForRun returns the writer for the run with id. Without WithRunDirs it is w.
func (w *Writer) ForRun(id string) *Writer {
	if !w.runDirs || id == "" {
		return w
	}
	rw := *w
	rw.dir = filepath.Join(w.dir, filepath.Base(id))
	rw.runDirs = false
	return &rw
}

// ChoreographyPath returns where the choreography named name is written.
func (w *Writer) ChoreographyPath(name string) string {
	return filepath.Join(w.dir, name+".yaml")
}

// TypeMappingsPath returns where type mappings are written.
func (w *Writer) TypeMappingsPath() string {
	return filepath.Join(w.dir, w.typeMappingsFile)
}

// EngineInputPath returns where the engine input is written.
func (w *Writer) EngineInputPath() string {
	return filepath.Join(w.dir, w.engineInputFile)
}

// WriteChoreography writes c as <dir>/<name>.yaml.
func (w *Writer) WriteChoreography(c *choreography.Choreography) (string, error) {
	data, err := choreography.EncodeYAML(c)
	if err != nil {
		return "", err
	}
	path := w.ChoreographyPath(c.Name)
	if err := w.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTypeMappings writes the type mappings JSON file.
func (w *Writer) WriteTypeMappings(mappings []choreography.TypeMapping) (string, error) {
	data, err := choreography.EncodeTypeMappings(mappings)
	if err != nil {
		return "", err
	}
	path := w.TypeMappingsPath()
	if err := w.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteEngineInput writes the flattened transformation the workflow engine
// starts with.
func (w *Writer) WriteEngineInput(t transformation.Transformation) (string, error) {
	data, err := json.MarshalIndent(t.EngineInput(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode engine input: %w", err)
	}
	path := w.EngineInputPath()
	if err := w.write(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.logger.Debug("wrote artifact", "path", path, "bytes", len(data))
	return nil
}
