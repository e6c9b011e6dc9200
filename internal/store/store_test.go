package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmill/confsync/internal/store"
	"github.com/stackmill/confsync/pkg/errors"
	"github.com/stackmill/confsync/pkg/snapshot"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadSkipsManifestAndNonJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales-q1.json", `{"name":"Sales Q1"}`)
	writeFile(t, dir, "churn.json", `{"name":"Churn"}`)
	writeFile(t, dir, "_manifest.json", `{"exportedAt":"2026-08-27T00:00:00Z"}`)
	writeFile(t, dir, "_scratch.json", `{"name":"never loaded"}`)
	writeFile(t, dir, "notes.txt", `not an entity`)

	snaps, failures, err := store.Load(dir, snapshot.KindReport)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, snaps, 2)

	// Filename order.
	assert.Equal(t, "churn.json", snaps[0].File)
	assert.Equal(t, "Churn", snaps[0].Fields.Name())
	assert.Equal(t, snapshot.KindReport, snaps[0].Kind)
}

func TestLoadUnreadableDirIsSetupError(t *testing.T) {
	_, _, err := store.Load(filepath.Join(t.TempDir(), "missing"), snapshot.KindReport)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestLoadMalformedFileIsPerEntityFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", `{"name":"Good"}`)
	writeFile(t, dir, "bad.json", `{truncated`)

	snaps, failures, err := store.Load(dir, snapshot.KindWorkflow)
	require.NoError(t, err, "a malformed file must not abort loading")
	assert.Len(t, snaps, 1)
	require.Len(t, failures, 1)
	assert.Equal(t, "bad.json", failures[0].File)
}

func TestSaveReportsSlugsNamesAndWritesManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := store.NewManifest("https://dev.example.com")

	err := store.Save(dir, snapshot.KindReport, []snapshot.Fields{
		{"name": "Sales Q1", "query": map[string]any{"dimension": "region"}},
		{"name": "Ventas São Paulo"},
	}, manifest)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "sales-q1.json"))
	assert.FileExists(t, filepath.Join(dir, "ventas-sao-paulo.json"))

	data, err := os.ReadFile(filepath.Join(dir, store.ManifestFile))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "https://dev.example.com", got["source"])
	assert.Len(t, got["reports"], 2)
	assert.Contains(t, got, "exportedAt")
}

func TestSaveWorkflowsNamedByID(t *testing.T) {
	dir := t.TempDir()
	manifest := store.NewManifest("https://dev.example.com")

	err := store.Save(dir, snapshot.KindWorkflow, []snapshot.Fields{
		{"id": "w42", "name": "Provisioning", "entityType": "ticket", "isActive": true},
	}, manifest)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "w42.json"))

	require.Len(t, manifest.Workflows, 1)
	entry := manifest.Workflows[0]
	assert.Equal(t, "w42", entry.ID)
	assert.Equal(t, "ticket", entry.Type)
	require.NotNil(t, entry.IsActive)
	assert.True(t, *entry.IsActive)
}

func TestSaveCollidingNamesGetSuffixes(t *testing.T) {
	dir := t.TempDir()

	err := store.Save(dir, snapshot.KindReport, []snapshot.Fields{
		{"name": "Weekly Summary"},
		{"name": "Weekly summary"}, // same slug
	}, nil)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "weekly-summary.json"))
	assert.FileExists(t, filepath.Join(dir, "weekly-summary-2.json"))
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	err := store.Save(dir, snapshot.KindReport, []snapshot.Fields{
		{"name": "Round Trip", "query": map[string]any{"limit": float64(10)}},
	}, store.NewManifest("https://dev.example.com"))
	require.NoError(t, err)

	snaps, failures, err := store.Load(dir, snapshot.KindReport)
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, snaps, 1, "manifest must not load as an entity")
	assert.Equal(t, "Round Trip", snaps[0].Fields.Name())
	assert.Equal(t, map[string]any{"limit": float64(10)}, snaps[0].Fields["query"])
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sales Q1", "sales-q1"},
		{"Ventas São Paulo", "ventas-sao-paulo"},
		{"  spaced   out  ", "spaced-out"},
		{"UPPER_case.mixed", "upper-case-mixed"},
		{"---", "untitled"},
		{"", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, store.Slugify(tt.in))
		})
	}
}
