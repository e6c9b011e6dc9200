// Package store stages entity snapshots on the local filesystem: one JSON
// file per entity plus a generated manifest summarizing each export batch.
// Filenames carry no identity; they are derived from the entity name
// (reports) or id (workflows) purely for readability.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stackmill/confsync/pkg/errors"
	"github.com/stackmill/confsync/pkg/snapshot"
)

// LoadFailure records one file that could not be parsed as an entity
// snapshot. Counted as a per-entity failure by the import driver.
type LoadFailure struct {
	File string
	Err  error
}

// Load reads every *.json file in dir as one entity snapshot of the given
// kind. Files prefixed with "_" are reserved for the manifest and never
// parsed as entities. An unreadable directory is a setup error; an
// unparseable file is returned as a per-entity failure and loading
// continues. Snapshots come back in filename order.
func Load(dir string, kind snapshot.Kind) ([]snapshot.Snapshot, []LoadFailure, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, nil, errors.NewConfigError("store", fmt.Sprintf("source directory %s is not readable", dir), err)
	}
	if !info.IsDir() {
		return nil, nil, errors.NewConfigError("store", fmt.Sprintf("source path %s is not a directory", dir), nil)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.NewConfigError("store", fmt.Sprintf("source directory %s is not readable", dir), err)
	}

	var snaps []snapshot.Snapshot
	var failures []LoadFailure
	for _, entry := range dirEntries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, LoadFailure{File: name, Err: errors.WrapIO("read", path, err)})
			continue
		}

		var fields snapshot.Fields
		if err := json.Unmarshal(data, &fields); err != nil {
			failures = append(failures, LoadFailure{File: name, Err: errors.NewParseError("json", name, "file is not a JSON object", err)})
			continue
		}

		snaps = append(snaps, snapshot.Snapshot{Kind: kind, Fields: fields, File: name})
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].File < snaps[j].File })
	return snaps, failures, nil
}

// Save writes one file per snapshot into dir, creating it if needed, and
// records each file in the manifest. Report filenames come from the
// slugified name, workflow filenames from the id. Name collisions get a
// numeric suffix so no file is silently overwritten within a batch.
func Save(dir string, kind snapshot.Kind, snaps []snapshot.Fields, manifest *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	used := map[string]bool{}
	for _, fields := range snaps {
		stem := fileStem(kind, fields)
		name := stem + ".json"
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s-%d.json", stem, i)
		}
		used[name] = true

		path := filepath.Join(dir, name)
		data, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return errors.WrapParse("json", path, err)
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return errors.WrapIO("write", path, err)
		}

		if manifest != nil {
			manifest.Add(kind, fields, name)
		}
	}

	if manifest != nil {
		return manifest.Write(dir)
	}
	return nil
}

func fileStem(kind snapshot.Kind, fields snapshot.Fields) string {
	if kind == snapshot.KindWorkflow {
		if id := fields.ID(); id != "" {
			return Slugify(id)
		}
	}
	return Slugify(fields.Name())
}
