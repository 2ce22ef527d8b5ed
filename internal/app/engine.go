package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// BatchEngine downloads every item of a cassette to local storage, in item
// order, with cooperative pause and cancel. A cassette bundle is persisted
// only when every item succeeds; per-item failures do not abort the batch.
type BatchEngine struct {
	store    domain.RecordStore
	fetcher  domain.FileFetcher
	registry *JobControlRegistry
	config   *domain.DownloadConfig
	logger   *zap.Logger
}

// NewBatchEngine creates a new batch download engine
func NewBatchEngine(
	store domain.RecordStore,
	fetcher domain.FileFetcher,
	registry *JobControlRegistry,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *BatchEngine {
	return &BatchEngine{
		store:    store,
		fetcher:  fetcher,
		registry: registry,
		config:   config,
		logger:   logger,
	}
}

// DownloadCassette runs one batch job for a cassette. Items are fetched
// strictly in list order; items whose FileRecord already exists are counted
// as successes without a network fetch. The returned Result reports per-item
// outcomes; fetch failures never surface as an error from this method.
//
// Cancellation is observed between items and during pause waits, never
// mid-fetch, so cancel latency is bounded by one file's fetch time.
func (e *BatchEngine) DownloadCassette(ctx context.Context, cassette *domain.Cassette, onProgress domain.ProgressFunc) (*domain.Result, error) {
	if e.fetcher == nil {
		return nil, domain.ErrUnsupportedEnvironment
	}
	if err := cassette.Validate(); err != nil {
		return nil, err
	}

	flag := e.registry.register(cassette.ID)
	defer e.registry.release(cassette.ID)

	job := domain.NewDownloadJob(cassette)
	if err := e.store.PutJob(job); err != nil {
		e.logger.Warn("Failed to persist job record", zap.String("id", cassette.ID), zap.Error(err))
	}

	e.logger.Info("Starting cassette download",
		zap.String("id", cassette.ID),
		zap.String("title", cassette.Title),
		zap.Int("items", len(cassette.Items)))

	total := len(cassette.Items)
	result := &domain.Result{Results: make([]domain.ItemResult, 0, total)}

	for i, item := range cassette.Items {
		paused, cancelled := flag.state()
		if cancelled {
			return e.finishCancelled(cassette.ID, result), nil
		}

		if paused {
			cancelledWhilePaused, err := e.waitWhilePaused(ctx, cassette.ID, flag)
			if err != nil {
				if rmErr := e.store.RemoveJob(cassette.ID); rmErr != nil {
					e.logger.Warn("Failed to remove job record", zap.String("id", cassette.ID), zap.Error(rmErr))
				}
				return nil, err
			}
			if cancelledWhilePaused {
				return e.finishCancelled(cassette.ID, result), nil
			}
		}

		size, err := e.fetchItem(ctx, cassette, item)
		itemResult := domain.ItemResult{Item: item.Title, Success: err == nil}
		if err != nil {
			itemResult.Error = err.Error()
			result.FailCount++
			e.logger.Warn("Item download failed",
				zap.String("cassette", cassette.ID),
				zap.String("item", item.Title),
				zap.Error(err))
		} else {
			result.SuccessCount++
			e.logger.Debug("Item downloaded",
				zap.String("cassette", cassette.ID),
				zap.String("item", item.Title),
				zap.Int64("size", size))
		}
		result.Results = append(result.Results, itemResult)

		job.Advance(i+1, domain.StatusDownloading)
		if err := e.store.PutJob(job); err != nil {
			e.logger.Warn("Failed to update job record", zap.String("id", cassette.ID), zap.Error(err))
		}

		if onProgress != nil {
			onProgress(domain.Progress{
				CassetteID: cassette.ID,
				Current:    i + 1,
				Total:      total,
				FileName:   item.Title,
				Status:     domain.StatusDownloading,
			})
		}
	}

	if result.SuccessCount == total {
		e.persistBundle(cassette)
	} else {
		e.logger.Warn("Cassette incomplete, bundle not saved",
			zap.String("id", cassette.ID),
			zap.Int("success", result.SuccessCount),
			zap.Int("total", total))
	}

	if err := e.store.RemoveJob(cassette.ID); err != nil {
		e.logger.Warn("Failed to remove job record", zap.String("id", cassette.ID), zap.Error(err))
	}

	if onProgress != nil {
		onProgress(domain.Progress{
			CassetteID:   cassette.ID,
			Current:      total,
			Total:        total,
			Status:       domain.StatusCompleted,
			SuccessCount: result.SuccessCount,
			FailCount:    result.FailCount,
		})
	}

	result.Success = result.FailCount == 0
	return result, nil
}

// DownloadAll runs independent batch jobs for several cassettes, bounded by
// the configured concurrency. Per-cassette setup errors are logged and the
// cassette is skipped; the remaining jobs run to completion.
func (e *BatchEngine) DownloadAll(ctx context.Context, cassettes []*domain.Cassette, onProgress domain.ProgressFunc) map[string]*domain.Result {
	g := new(errgroup.Group)
	limit := e.config.ConcurrentCassettes
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	var mu sync.Mutex
	results := make(map[string]*domain.Result, len(cassettes))

	for _, cassette := range cassettes {
		cassette := cassette
		g.Go(func() error {
			res, err := e.DownloadCassette(ctx, cassette, onProgress)
			if err != nil {
				e.logger.Error("Cassette download failed to start",
					zap.String("id", cassette.ID),
					zap.Error(err))
				return nil
			}
			mu.Lock()
			results[cassette.ID] = res
			mu.Unlock()
			return nil
		})
	}

	g.Wait()
	return results
}

// fetchItem satisfies one item, either from an existing FileRecord or by
// fetching the remote file and recording it.
func (e *BatchEngine) fetchItem(ctx context.Context, cassette *domain.Cassette, item domain.CassetteItem) (int64, error) {
	// An existing record satisfies the item without a network fetch.
	if rec, err := e.store.FileRecord(item.AudioURL); err == nil && rec != nil {
		return rec.Size, nil
	}

	fileName := fmt.Sprintf("%s_%s.mp3", cassette.Title, item.Title)
	res, err := e.fetcher.FetchFile(ctx, item.AudioURL, fileName)
	if err != nil {
		return 0, err
	}

	rec := &domain.FileRecord{
		AudioURL:     item.AudioURL,
		LocalPath:    res.LocalPath,
		Size:         res.Size,
		FileName:     fileName,
		DownloadedAt: time.Now(),
	}
	if err := e.store.PutFileRecord(rec); err != nil {
		e.logger.Warn("Failed to persist file record", zap.String("url", item.AudioURL), zap.Error(err))
	}
	return res.Size, nil
}

// waitWhilePaused suspends the loop until the job is resumed or cancelled.
// The flag is re-read every poll tick so a cancel during a pause is honored
// promptly. Returns the context error if ctx is done while waiting.
func (e *BatchEngine) waitWhilePaused(ctx context.Context, jobID string, flag *controlFlag) (cancelled bool, err error) {
	if err := e.store.SetJobStatus(jobID, domain.StatusPaused); err != nil {
		e.logger.Warn("Failed to mark job paused", zap.String("id", jobID), zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(e.config.PausePollInterval):
		}

		paused, cancelledNow := flag.state()
		if cancelledNow {
			return true, nil
		}
		if !paused {
			return false, nil
		}
	}
}

// persistBundle writes the bundle for a fully-downloaded cassette, sizing it
// from the per-item file records.
func (e *BatchEngine) persistBundle(cassette *domain.Cassette) {
	var totalSize int64
	for _, item := range cassette.Items {
		if rec, err := e.store.FileRecord(item.AudioURL); err == nil && rec != nil {
			totalSize += rec.Size
		}
	}

	bundle := &domain.CassetteBundle{
		CassetteID:   cassette.ID,
		Title:        cassette.Title,
		Items:        cassette.Items,
		ItemCount:    len(cassette.Items),
		TotalSize:    totalSize,
		DownloadedAt: time.Now(),
	}
	if err := e.store.PutBundle(bundle); err != nil {
		e.logger.Error("Failed to persist cassette bundle", zap.String("id", cassette.ID), zap.Error(err))
		return
	}

	e.logger.Info("Cassette fully downloaded",
		zap.String("id", cassette.ID),
		zap.String("title", cassette.Title),
		zap.String("size", domain.FormatByteSize(totalSize)))
}

func (e *BatchEngine) finishCancelled(cassetteID string, result *domain.Result) *domain.Result {
	if err := e.store.RemoveJob(cassetteID); err != nil {
		e.logger.Warn("Failed to remove job record", zap.String("id", cassetteID), zap.Error(err))
	}
	e.logger.Info("Download cancelled before completion", zap.String("id", cassetteID))

	result.Cancelled = true
	result.Success = false
	return result
}
