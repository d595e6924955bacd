package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file locations; everything is
// resolved relative to the executable directory, never the working
// directory.
type Paths struct {
	ExecutableDir string
	DataDir       string
	OutputDir     string
	LogsDir       string
	WebDir        string
}

// GetPaths returns the application paths relative to the executable
// location.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	exeDir := filepath.Dir(exe)
	dataDir := filepath.Join(exeDir, "data")

	return &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		OutputDir:     filepath.Join(dataDir, "causelists"),
		LogsDir:       filepath.Join(exeDir, "logs"),
		WebDir:        filepath.Join(exeDir, "web"),
	}, nil
}

// EnsureDirectories creates every directory the application writes into.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.OutputDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetLogPath returns the path for a named log file inside the logs dir.
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

// CourtDir returns the output directory for one court's PDFs, following
// the state/district/complex/court hierarchy.
func (p *Paths) CourtDir(state, district, complex_, courtName string) string {
	return filepath.Join(p.OutputDir, state, district, complex_, courtName)
}
