package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/internal/domain"
)

func newTestRegistry() (*JobControlRegistry, *mockRecordStore) {
	store := newMockRecordStore()
	return NewJobControlRegistry(store, zap.NewNop()), store
}

func TestRegistry_PauseUnknownJob(t *testing.T) {
	registry, _ := newTestRegistry()

	assert.False(t, registry.Pause("missing"))
	assert.False(t, registry.Resume("missing"))
}

func TestRegistry_PauseResume(t *testing.T) {
	registry, store := newTestRegistry()
	require.NoError(t, store.PutJob(domain.NewDownloadJob(testCassette())))

	flag := registry.register("c1")

	assert.True(t, registry.Pause("c1"))
	paused, cancelled := flag.state()
	assert.True(t, paused)
	assert.False(t, cancelled)

	job, _ := store.Job("c1")
	require.NotNil(t, job)
	assert.Equal(t, domain.StatusPaused, job.Status)

	assert.True(t, registry.Resume("c1"))
	paused, _ = flag.state()
	assert.False(t, paused)

	job, _ = store.Job("c1")
	assert.Equal(t, domain.StatusDownloading, job.Status)
}

func TestRegistry_CancelActiveJob(t *testing.T) {
	registry, store := newTestRegistry()
	require.NoError(t, store.PutJob(domain.NewDownloadJob(testCassette())))

	flag := registry.register("c1")

	assert.True(t, registry.Cancel("c1"))
	_, cancelled := flag.state()
	assert.True(t, cancelled)

	// Cancel removes the job record immediately
	job, _ := store.Job("c1")
	assert.Nil(t, job)
}

func TestRegistry_CancelIsIdempotent(t *testing.T) {
	registry, _ := newTestRegistry()

	// No flag registered; cancel still reports success
	assert.True(t, registry.Cancel("c1"))
	assert.True(t, registry.Cancel("c1"))
}

func TestRegistry_ReleaseDropsFlag(t *testing.T) {
	registry, _ := newTestRegistry()

	registry.register("c1")
	registry.release("c1")

	assert.False(t, registry.Pause("c1"))
}
