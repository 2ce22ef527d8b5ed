package app

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// controlFlag is the in-memory pause/cancel signal for one batch job. The
// engine loop reads it between items; the API handlers write it. The mutex
// guards the pair against tearing across goroutines.
type controlFlag struct {
	mu        sync.Mutex
	paused    bool
	cancelled bool
}

func (f *controlFlag) state() (paused, cancelled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused, f.cancelled
}

func (f *controlFlag) setPaused(v bool) {
	f.mu.Lock()
	f.paused = v
	f.mu.Unlock()
}

func (f *controlFlag) setCancelled() {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
}

// JobControlRegistry holds the control flags for batches in flight, keyed by
// cassette id. It is owned by the application root and shared by the engine
// and the API layer. Flags are not persisted; a restart loses pause/cancel
// capability for jobs that were mid-flight.
type JobControlRegistry struct {
	mu     sync.RWMutex
	flags  map[string]*controlFlag
	store  domain.RecordStore
	logger *zap.Logger
}

// NewJobControlRegistry creates a new registry
func NewJobControlRegistry(store domain.RecordStore, logger *zap.Logger) *JobControlRegistry {
	return &JobControlRegistry{
		flags:  make(map[string]*controlFlag),
		store:  store,
		logger: logger,
	}
}

// register creates a fresh flag for a job, replacing any prior one.
func (r *JobControlRegistry) register(jobID string) *controlFlag {
	flag := &controlFlag{}
	r.mu.Lock()
	r.flags[jobID] = flag
	r.mu.Unlock()
	return flag
}

// release discards the flag when the batch loop exits.
func (r *JobControlRegistry) release(jobID string) {
	r.mu.Lock()
	delete(r.flags, jobID)
	r.mu.Unlock()
}

func (r *JobControlRegistry) lookup(jobID string) *controlFlag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flags[jobID]
}

// Pause suspends forward progress of a running batch. Returns whether a flag
// was found for the id.
func (r *JobControlRegistry) Pause(jobID string) bool {
	flag := r.lookup(jobID)
	if flag == nil {
		return false
	}
	flag.setPaused(true)

	if err := r.store.SetJobStatus(jobID, domain.StatusPaused); err != nil {
		r.logger.Warn("Failed to mark job paused", zap.String("id", jobID), zap.Error(err))
	}
	r.logger.Info("Download paused", zap.String("id", jobID))
	return true
}

// Resume clears the pause flag. Returns whether a flag was found for the id.
func (r *JobControlRegistry) Resume(jobID string) bool {
	flag := r.lookup(jobID)
	if flag == nil {
		return false
	}
	flag.setPaused(false)

	if err := r.store.SetJobStatus(jobID, domain.StatusDownloading); err != nil {
		r.logger.Warn("Failed to mark job downloading", zap.String("id", jobID), zap.Error(err))
	}
	r.logger.Info("Download resumed", zap.String("id", jobID))
	return true
}

// Cancel marks a batch as cancelled and removes its job record immediately,
// before the engine loop observes the flag, so listings reflect the
// cancellation right away. Idempotent: the job record is removed even when
// no flag exists anymore.
func (r *JobControlRegistry) Cancel(jobID string) bool {
	flag := r.lookup(jobID)
	if flag != nil {
		flag.setCancelled()
	}

	if err := r.store.RemoveJob(jobID); err != nil {
		r.logger.Warn("Failed to remove job record", zap.String("id", jobID), zap.Error(err))
	}
	r.logger.Info("Download cancelled", zap.String("id", jobID))
	return true
}
