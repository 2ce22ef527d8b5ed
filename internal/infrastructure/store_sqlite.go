package infrastructure

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// SQLiteRecordStore implements domain.RecordStore using SQLite.
//
// Writes are last-write-wins; access is cooperative (one engine instance per
// job, jobs keyed by cassette id), so no extra locking is layered on top of
// the database.
type SQLiteRecordStore struct {
	db     *gorm.DB
	config *domain.StorageConfig
	logger *zap.Logger
}

// NewSQLiteRecordStore creates a new SQLite record store
func NewSQLiteRecordStore(config *domain.StorageConfig, log *zap.Logger) (*SQLiteRecordStore, error) {
	db, err := gorm.Open(sqlite.Open(config.DatabasePath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.FileRecord{}, &domain.CassetteBundle{}, &domain.DownloadJob{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteRecordStore{db: db, config: config, logger: log}, nil
}

// FileRecords returns all downloaded-file records keyed by remote URL
func (s *SQLiteRecordStore) FileRecords() (map[string]*domain.FileRecord, error) {
	var records []*domain.FileRecord
	if err := s.db.Find(&records).Error; err != nil {
		s.logger.Warn("Failed to list file records", zap.Error(err))
		return map[string]*domain.FileRecord{}, nil
	}

	byURL := make(map[string]*domain.FileRecord, len(records))
	for _, rec := range records {
		byURL[rec.AudioURL] = rec
	}
	return byURL, nil
}

// FileRecord returns the record for a URL. Lookup misses and storage errors
// are both reported as an absent record; errors are logged.
func (s *SQLiteRecordStore) FileRecord(audioURL string) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	err := s.db.First(&rec, "audio_url = ?", audioURL).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("File record lookup failed", zap.String("url", audioURL), zap.Error(err))
		}
		return nil, nil
	}
	return &rec, nil
}

// PutFileRecord saves a downloaded-file record. A failed write is retried
// once after evicting the oldest records; a second failure drops the write.
// Capacity problems are never raised to the caller.
func (s *SQLiteRecordStore) PutFileRecord(rec *domain.FileRecord) error {
	s.ensureHeadroom()

	if err := s.upsert(rec); err != nil {
		s.logger.Warn("File record write failed, evicting oldest entries", zap.Error(err))
		s.evictOldest(s.config.EvictBatch)
		if err := s.upsert(rec); err != nil {
			s.logger.Error("Dropping file record write",
				zap.String("url", rec.AudioURL),
				zap.Error(err))
		}
	}
	return nil
}

// RemoveFileRecord deletes the record for a URL
func (s *SQLiteRecordStore) RemoveFileRecord(audioURL string) error {
	return s.db.Delete(&domain.FileRecord{}, "audio_url = ?", audioURL).Error
}

// Bundles returns all fully-downloaded cassette bundles
func (s *SQLiteRecordStore) Bundles() ([]*domain.CassetteBundle, error) {
	var bundles []*domain.CassetteBundle
	err := s.db.Order("downloaded_at DESC").Find(&bundles).Error
	return bundles, err
}

// Bundle returns the bundle for a cassette id, or nil when absent
func (s *SQLiteRecordStore) Bundle(cassetteID string) (*domain.CassetteBundle, error) {
	var bundle domain.CassetteBundle
	err := s.db.First(&bundle, "cassette_id = ?", cassetteID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("Bundle lookup failed", zap.String("id", cassetteID), zap.Error(err))
		}
		return nil, nil
	}
	return &bundle, nil
}

// PutBundle saves a bundle
func (s *SQLiteRecordStore) PutBundle(bundle *domain.CassetteBundle) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(bundle).Error
}

// RemoveBundle deletes the bundle for a cassette id
func (s *SQLiteRecordStore) RemoveBundle(cassetteID string) error {
	return s.db.Delete(&domain.CassetteBundle{}, "cassette_id = ?", cassetteID).Error
}

// ActiveJobs returns all in-progress or paused batch jobs
func (s *SQLiteRecordStore) ActiveJobs() ([]*domain.DownloadJob, error) {
	var jobs []*domain.DownloadJob
	err := s.db.Order("started_at ASC").Find(&jobs).Error
	return jobs, err
}

// Job returns the job for a cassette id, or nil when absent
func (s *SQLiteRecordStore) Job(cassetteID string) (*domain.DownloadJob, error) {
	var job domain.DownloadJob
	err := s.db.First(&job, "cassette_id = ?", cassetteID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("Job lookup failed", zap.String("id", cassetteID), zap.Error(err))
		}
		return nil, nil
	}
	return &job, nil
}

// PutJob saves a job, replacing any prior job for the same cassette
func (s *SQLiteRecordStore) PutJob(job *domain.DownloadJob) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(job).Error
}

// SetJobStatus updates only the status of an existing job
func (s *SQLiteRecordStore) SetJobStatus(cassetteID string, status domain.JobStatus) error {
	return s.db.Model(&domain.DownloadJob{}).
		Where("cassette_id = ?", cassetteID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// RemoveJob deletes the job for a cassette id
func (s *SQLiteRecordStore) RemoveJob(cassetteID string) error {
	return s.db.Delete(&domain.DownloadJob{}, "cassette_id = ?", cassetteID).Error
}

// TotalDownloadedBytes returns the sum of all FileRecord sizes
func (s *SQLiteRecordStore) TotalDownloadedBytes() (int64, error) {
	var total int64
	err := s.db.Model(&domain.FileRecord{}).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error
	return total, err
}

// Stats returns aggregate library statistics
func (s *SQLiteRecordStore) Stats() (*domain.LibraryStats, error) {
	stats := &domain.LibraryStats{}

	if err := s.db.Model(&domain.FileRecord{}).Count(&stats.FileCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&domain.CassetteBundle{}).Count(&stats.BundleCount).Error; err != nil {
		return nil, err
	}

	total, err := s.TotalDownloadedBytes()
	if err != nil {
		return nil, err
	}
	stats.TotalSize = total
	stats.TotalSizeFormatted = domain.FormatByteSize(total)

	return stats, nil
}

// ClearAll removes every file record and bundle. Jobs are transient and are
// removed by the engine loop, not here.
func (s *SQLiteRecordStore) ClearAll() error {
	session := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := session.Delete(&domain.FileRecord{}).Error; err != nil {
		return err
	}
	return session.Delete(&domain.CassetteBundle{}).Error
}

// Close closes the database connection
func (s *SQLiteRecordStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureHeadroom evicts the oldest file records when the configured cap is
// reached, leaving one eviction batch of headroom for new writes.
func (s *SQLiteRecordStore) ensureHeadroom() {
	if s.config.MaxFileRecords <= 0 {
		return
	}

	var count int64
	if err := s.db.Model(&domain.FileRecord{}).Count(&count).Error; err != nil {
		s.logger.Warn("Failed to count file records", zap.Error(err))
		return
	}
	if count < int64(s.config.MaxFileRecords) {
		return
	}

	target := s.config.MaxFileRecords - s.config.EvictBatch
	if target < 0 {
		target = 0
	}
	s.evictOldest(int(count) - target)
}

// evictOldest removes the n least-recently-downloaded file records.
func (s *SQLiteRecordStore) evictOldest(n int) {
	if n <= 0 {
		return
	}

	var urls []string
	err := s.db.Model(&domain.FileRecord{}).
		Order("downloaded_at ASC").
		Limit(n).
		Pluck("audio_url", &urls).Error
	if err != nil || len(urls) == 0 {
		return
	}

	if err := s.db.Delete(&domain.FileRecord{}, "audio_url IN ?", urls).Error; err != nil {
		s.logger.Warn("Failed to evict file records", zap.Error(err))
		return
	}
	s.logger.Info("Evicted oldest file records", zap.Int("count", len(urls)))
}

func (s *SQLiteRecordStore) upsert(rec *domain.FileRecord) error {
	return s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}
