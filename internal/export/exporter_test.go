package export_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmill/confsync/internal/export"
	"github.com/stackmill/confsync/internal/store"
	"github.com/stackmill/confsync/internal/transport"
	"github.com/stackmill/confsync/pkg/logging"
	"github.com/stackmill/confsync/pkg/snapshot"
)

// newSourceServer serves paged report and workflow collections the way the
// business application does.
func newSourceServer(t *testing.T, reports, workflows []map[string]any) *httptest.Server {
	t.Helper()
	page := func(w http.ResponseWriter, r *http.Request, items []map[string]any) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		require.Positive(t, limit)

		end := offset + limit
		if offset > len(items) {
			offset = len(items)
		}
		if end > len(items) {
			end = len(items)
		}
		_ = json.NewEncoder(w).Encode(items[offset:end])
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/reports", func(w http.ResponseWriter, r *http.Request) {
		page(w, r, reports)
	})
	mux.HandleFunc("/api/v1/workflows", func(w http.ResponseWriter, r *http.Request) {
		page(w, r, workflows)
	})
	return httptest.NewServer(mux)
}

func TestExportWritesSanitizedFilesAndManifest(t *testing.T) {
	reports := []map[string]any{
		{
			"id":          "r1",
			"name":        "Sales Q1",
			"createdAt":   "2026-01-02T10:00:00Z",
			"createdById": "u7",
			"query":       map[string]any{"dimension": "region"},
		},
	}
	workflows := []map[string]any{
		{
			"id":         "w42",
			"name":       "Provisioning",
			"entityType": "ticket",
			"isActive":   true,
			"modifiedAt": "2026-01-03T10:00:00Z",
		},
	}
	srv := newSourceServer(t, reports, workflows)
	defer srv.Close()

	dir := t.TempDir()
	exporter := export.New(transport.New(srv.URL, nil), srv.URL, export.WithLogger(logging.Nop))

	counts, err := exporter.Run(context.Background(), dir,
		[]snapshot.Kind{snapshot.KindReport, snapshot.KindWorkflow})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[snapshot.KindReport])
	assert.Equal(t, 1, counts[snapshot.KindWorkflow])

	// Report file: slug name, no id, no environment-bound fields.
	data, err := os.ReadFile(filepath.Join(dir, "sales-q1.json"))
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.NotContains(t, report, "id")
	assert.NotContains(t, report, "createdAt")
	assert.NotContains(t, report, "createdById")
	assert.Equal(t, "Sales Q1", report["name"])

	// Workflow file: named by id, id kept.
	data, err = os.ReadFile(filepath.Join(dir, "w42.json"))
	require.NoError(t, err)
	var workflow map[string]any
	require.NoError(t, json.Unmarshal(data, &workflow))
	assert.Equal(t, "w42", workflow["id"])
	assert.NotContains(t, workflow, "modifiedAt")

	// Manifest covers both groups.
	data, err = os.ReadFile(filepath.Join(dir, store.ManifestFile))
	require.NoError(t, err)
	var manifest store.Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, srv.URL, manifest.Source)
	require.Len(t, manifest.Reports, 1)
	assert.Equal(t, "sales-q1.json", manifest.Reports[0].File)
	require.Len(t, manifest.Workflows, 1)
	assert.Equal(t, "w42", manifest.Workflows[0].ID)
}

func TestExportPagesThroughCollections(t *testing.T) {
	var reports []map[string]any
	for i := 0; i < 7; i++ {
		reports = append(reports, map[string]any{"name": fmt.Sprintf("Report %02d", i)})
	}
	srv := newSourceServer(t, reports, nil)
	defer srv.Close()

	dir := t.TempDir()
	exporter := export.New(transport.New(srv.URL, nil), srv.URL,
		export.WithLogger(logging.Nop), export.WithPageSize(3))

	counts, err := exporter.Run(context.Background(), dir, []snapshot.Kind{snapshot.KindReport})
	require.NoError(t, err)
	assert.Equal(t, 7, counts[snapshot.KindReport])

	snaps, failures, err := store.Load(dir, snapshot.KindReport)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Len(t, snaps, 7)
}

func TestExportPropagatesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	exporter := export.New(transport.New(srv.URL, nil), srv.URL, export.WithLogger(logging.Nop))
	_, err := exporter.Run(context.Background(), t.TempDir(), []snapshot.Kind{snapshot.KindReport})
	require.Error(t, err)
}
