// Package files manages the exported PDF tree below the output
// directory, laid out as state/district/complex/court/CNR.pdf.
package files

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"causelist/internal/config"
)

// RecordFile describes one exported PDF found on disk. The court
// fields are recovered from the directory layout.
type RecordFile struct {
	CNR      string    `json:"cnr"`
	Path     string    `json:"path"`
	State    string    `json:"state,omitempty"`
	District string    `json:"district,omitempty"`
	Complex  string    `json:"complex,omitempty"`
	Court    string    `json:"court,omitempty"`
	Size     int64     `json:"size_bytes"`
	ModTime  time.Time `json:"saved_at"`
}

// Manager provides access to the export tree
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// OutputDir returns the root of the export tree.
func (m *Manager) OutputDir() string {
	return m.paths.OutputDir
}

// EnsureOutputDir creates the export root when missing.
func (m *Manager) EnsureOutputDir() error {
	return os.MkdirAll(m.paths.OutputDir, 0o755)
}

// CourtDir returns (and creates) the directory for one court.
func (m *Manager) CourtDir(state, district, complex_, court string) (string, error) {
	dir := m.paths.CourtDir(state, district, complex_, court)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create court dir %s: %w", dir, err)
	}
	return dir, nil
}

// ListRecords walks the export tree and returns every PDF, newest
// first.
func (m *Manager) ListRecords() ([]RecordFile, error) {
	root := m.paths.OutputDir
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var records []RecordFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unreadable entry",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		record := RecordFile{
			CNR:     strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		fillCourtParts(&record, root, path)
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk export tree: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ModTime.After(records[j].ModTime)
	})
	return records, nil
}

// CountRecords returns the number of PDFs in the export tree.
func (m *Manager) CountRecords() (int, error) {
	records, err := m.ListRecords()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// fillCourtParts recovers the court hierarchy from the path below the
// export root.
func fillCourtParts(record *RecordFile, root, path string) {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) >= 1 && parts[0] != "." {
		record.State = parts[0]
	}
	if len(parts) >= 2 {
		record.District = parts[1]
	}
	if len(parts) >= 3 {
		record.Complex = parts[2]
	}
	if len(parts) >= 4 {
		record.Court = parts[3]
	}
}
