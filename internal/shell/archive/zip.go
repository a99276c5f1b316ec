// Package archive packages function sources into deployable zip archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SourceExt is the extension of packaged function sources.
const SourceExt = ".mjs"

var ErrNotDirectory = errors.New("not a directory")

// ZipFile writes src into a new archive at dst as a single entry named after
// the base name of src. An existing dst is replaced.
func ZipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create zip file: %w", err)
	}

	zw := zip.NewWriter(out)

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to build zip header: %w", err)
	}
	header.Name = filepath.Base(src)
	header.Method = zip.Deflate

	entry, err := zw.CreateHeader(header)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to create zip entry: %w", err)
	}
	if _, err := io.Copy(entry, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to write zip entry: %w", err)
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finalize zip file: %w", err)
	}
	return out.Close()
}

// ZipFunctions zips every source file in each provider directory under dir
// into a sibling archive, <provider>/<name>.mjs -> <provider>/<name>.zip.
// It returns the archives written, in directory order.
func ZipFunctions(dir string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("functions directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("functions directory %s: %w", dir, ErrNotDirectory)
	}

	providers, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read functions directory: %w", err)
	}

	var written []string
	for _, p := range providers {
		if !p.IsDir() {
			continue
		}
		providerDir := filepath.Join(dir, p.Name())

		sources, err := listSources(providerDir)
		if err != nil {
			return written, err
		}
		if len(sources) == 0 {
			logger.Debug("no function sources", "provider", p.Name())
			continue
		}

		for _, src := range sources {
			dst := strings.TrimSuffix(src, SourceExt) + ".zip"
			if err := ZipFile(src, dst); err != nil {
				return written, fmt.Errorf("zip %s: %w", src, err)
			}
			written = append(written, dst)
		}
	}

	logger.Info("zipped functions", "dir", dir, "count", len(written))
	return written, nil
}

func listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var sources []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != SourceExt {
			continue
		}
		sources = append(sources, filepath.Join(dir, e.Name()))
	}
	sort.Strings(sources)
	return sources, nil
}
