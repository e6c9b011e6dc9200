package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/agentstation/utc"

	"github.com/stackmill/confsync/pkg/errors"
	"github.com/stackmill/confsync/pkg/snapshot"
)

// ManifestFile is the reserved batch summary filename. The leading
// underscore keeps it out of entity loading.
const ManifestFile = "_manifest.json"

// ManifestEntry summarizes one exported entity.
type ManifestEntry struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	IsActive *bool  `json:"isActive,omitempty"`
	File     string `json:"file"`
}

// Manifest summarizes one export batch. It is descriptive only: imports
// never consume it, and each export regenerates it wholesale.
type Manifest struct {
	ExportedAt utc.Time        `json:"exportedAt"`
	Source     string          `json:"source"`
	Reports    []ManifestEntry `json:"reports"`
	Workflows  []ManifestEntry `json:"workflows"`
}

// NewManifest creates a manifest for an export from the given source URL.
func NewManifest(source string) *Manifest {
	return &Manifest{
		ExportedAt: utc.Now(),
		Source:     source,
		Reports:    []ManifestEntry{},
		Workflows:  []ManifestEntry{},
	}
}

// Add appends a summary record for an exported entity.
func (m *Manifest) Add(kind snapshot.Kind, fields snapshot.Fields, file string) {
	entry := ManifestEntry{File: file}

	if active, ok := fields.IsActive(); ok {
		entry.IsActive = &active
	}

	switch kind {
	case snapshot.KindWorkflow:
		entry.ID = fields.ID()
		entry.Name = fields.Name()
		entry.Type = fields.EntityType()
		m.Workflows = append(m.Workflows, entry)
	default:
		entry.Name = fields.Name()
		m.Reports = append(m.Reports, entry)
	}
}

// Write persists the manifest into the export directory.
func (m *Manifest) Write(dir string) error {
	path := filepath.Join(dir, ManifestFile)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.WrapParse("json", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
