//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/api"
	"github.com/yourusername/cassette-sync-go/api/handlers"
	"github.com/yourusername/cassette-sync-go/internal/app"
	"github.com/yourusername/cassette-sync-go/internal/domain"
	"github.com/yourusername/cassette-sync-go/internal/infrastructure"
)

// setupTestServer wires a full stack against a temp database and directory:
// sqlite store, HTTP fetcher, registry, engine, router.
func setupTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	logger := zap.NewNop()

	store, err := infrastructure.NewSQLiteRecordStore(&domain.StorageConfig{
		DatabasePath: filepath.Join(t.TempDir(), "test.db"),
		EvictBatch:   50,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fetcher, err := infrastructure.NewHTTPFileFetcher(&domain.DownloadConfig{
		BaseDir:      t.TempDir(),
		FetchTimeout: 5 * time.Second,
	}, logger)
	require.NoError(t, err)

	registry := app.NewJobControlRegistry(store, logger)
	engine := app.NewBatchEngine(store, fetcher, registry, &domain.DownloadConfig{
		PausePollInterval:   5 * time.Millisecond,
		ConcurrentCassettes: 2,
	}, logger)
	hub := handlers.NewProgressHub(logger)

	return api.SetupRouter(engine, registry, store, hub, logger)
}

// audioServer serves fixed bytes for any path, standing in for the remote
// media host.
func audioServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "audio-bytes")
	}))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDownloadEndToEnd(t *testing.T) {
	router := setupTestServer(t)
	media := audioServer(t)

	cassette := domain.Cassette{
		ID:    "c1",
		Title: "Lecture",
		Items: []domain.CassetteItem{
			{ID: "i1", Title: "Part1", AudioURL: media.URL + "/1.mp3"},
			{ID: "i2", Title: "Part2", AudioURL: media.URL + "/2.mp3"},
		},
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/downloads?wait=true", cassette)
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailCount)

	// The bundle is now visible through the library endpoints
	w = doJSON(t, router, http.MethodGet, "/api/v1/bundles/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var bundle domain.CassetteBundle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundle))
	assert.Equal(t, "Lecture", bundle.Title)
	assert.Equal(t, 2, bundle.ItemCount)
	assert.Equal(t, int64(2*len("audio-bytes")), bundle.TotalSize)

	w = doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats domain.LibraryStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.FileCount)
	assert.Equal(t, int64(1), stats.BundleCount)

	// The job must not survive the finished batch
	w = doJSON(t, router, http.MethodGet, "/api/v1/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var jobs []domain.DownloadJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobs))
	assert.Empty(t, jobs)
}

func TestDownloadInvalidCassette(t *testing.T) {
	router := setupTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/downloads?wait=true", domain.Cassette{ID: "c1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchDownload(t *testing.T) {
	router := setupTestServer(t)
	media := audioServer(t)

	cassettes := []domain.Cassette{
		{
			ID:    "c1",
			Title: "Lecture",
			Items: []domain.CassetteItem{{ID: "i1", Title: "Part1", AudioURL: media.URL + "/1.mp3"}},
		},
		{
			ID:    "c2",
			Title: "Sermon",
			Items: []domain.CassetteItem{{ID: "i2", Title: "Intro", AudioURL: media.URL + "/2.mp3"}},
		},
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/downloads/batch?wait=true", cassettes)
	require.Equal(t, http.StatusOK, w.Code)

	var results map[string]domain.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.True(t, results["c1"].Success)
	assert.True(t, results["c2"].Success)

	w = doJSON(t, router, http.MethodGet, "/api/v1/bundles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bundles []domain.CassetteBundle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bundles))
	assert.Len(t, bundles, 2)
}

func TestPauseUnknownJob(t *testing.T) {
	router := setupTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/jobs/nope/pause", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/jobs/nope/resume", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Cancel is idempotent and always succeeds
	w = doJSON(t, router, http.MethodPost, "/api/v1/jobs/nope/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLibraryLifecycle(t *testing.T) {
	router := setupTestServer(t)
	media := audioServer(t)

	cassette := domain.Cassette{
		ID:    "c1",
		Title: "Lecture",
		Items: []domain.CassetteItem{{ID: "i1", Title: "Part1", AudioURL: media.URL + "/1.mp3"}},
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/downloads?wait=true", cassette)
	require.Equal(t, http.StatusOK, w.Code)

	// Local path lookup by remote URL
	w = doJSON(t, router, http.MethodGet, "/api/v1/files/local-path?url="+url.QueryEscape(media.URL+"/1.mp3"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Delete the bundle; the file records stay
	w = doJSON(t, router, http.MethodDelete, "/api/v1/bundles/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/bundles/c1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/files", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var files map[string]domain.FileRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	assert.Len(t, files, 1)

	// Clear wipes files and bundles
	w = doJSON(t, router, http.MethodDelete, "/api/v1/library", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats domain.LibraryStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(0), stats.FileCount)
}

func TestHealthEndpoints(t *testing.T) {
	router := setupTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
