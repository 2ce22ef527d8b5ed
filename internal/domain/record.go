package domain

import (
	"math"
	"time"
)

// JobStatus represents the current status of a batch download job
type JobStatus string

const (
	StatusDownloading JobStatus = "downloading"
	StatusPaused      JobStatus = "paused"
	StatusCompleted   JobStatus = "completed"
	StatusError       JobStatus = "error"
)

// FileRecord marks one audio file as fully downloaded. The remote URL is the
// record identity: existence of a FileRecord means the file was retrieved in
// full, so a partial write must never be saved as one.
type FileRecord struct {
	AudioURL     string    `json:"audio_url" gorm:"primaryKey"`
	LocalPath    string    `json:"local_path" gorm:"not null"`
	Size         int64     `json:"size"`
	FileName     string    `json:"file_name"`
	DownloadedAt time.Time `json:"downloaded_at" gorm:"index"`
}

// CassetteBundle marks a cassette as fully available offline. It indexes the
// per-file records by URL and owns no files itself, so deleting a bundle
// leaves the underlying FileRecords in place (files may be shared across
// cassettes by URL).
type CassetteBundle struct {
	CassetteID   string         `json:"cassette_id" gorm:"primaryKey"`
	Title        string         `json:"title"`
	Items        []CassetteItem `json:"items" gorm:"serializer:json"`
	ItemCount    int            `json:"item_count"`
	TotalSize    int64          `json:"total_size"`
	DownloadedAt time.Time      `json:"downloaded_at"`
}

// DownloadJob is the transient tracking record for a batch in flight. There
// is at most one per cassette id; starting a new batch for the same cassette
// replaces the prior record.
type DownloadJob struct {
	CassetteID string         `json:"cassette_id" gorm:"primaryKey"`
	Title      string         `json:"title"`
	Items      []CassetteItem `json:"items" gorm:"serializer:json"`
	Current    int            `json:"current"`
	Total      int            `json:"total"`
	Progress   int            `json:"progress"` // percent
	Status     JobStatus      `json:"status" gorm:"index"`
	StartedAt  time.Time      `json:"started_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewDownloadJob creates the tracking record for a fresh batch.
func NewDownloadJob(cassette *Cassette) *DownloadJob {
	now := time.Now()
	return &DownloadJob{
		CassetteID: cassette.ID,
		Title:      cassette.Title,
		Items:      cassette.Items,
		Current:    0,
		Total:      len(cassette.Items),
		Progress:   0,
		Status:     StatusDownloading,
		StartedAt:  now,
		UpdatedAt:  now,
	}
}

// Advance updates the per-item counters and derived percentage.
func (j *DownloadJob) Advance(current int, status JobStatus) {
	j.Current = current
	if j.Total > 0 {
		j.Progress = int(math.Round(float64(current) / float64(j.Total) * 100))
	}
	j.Status = status
	j.UpdatedAt = time.Now()
}

// Progress is the payload handed to progress callbacks after each item and
// once after the batch finishes.
type Progress struct {
	CassetteID   string    `json:"cassette_id"`
	Current      int       `json:"current"`
	Total        int       `json:"total"`
	FileName     string    `json:"file_name,omitempty"`
	Status       JobStatus `json:"status"`
	SuccessCount int       `json:"success_count,omitempty"`
	FailCount    int       `json:"fail_count,omitempty"`
}

// ProgressFunc is invoked synchronously by the engine. May be nil.
type ProgressFunc func(Progress)

// ItemResult records the outcome of a single item in a batch.
type ItemResult struct {
	Item    string `json:"item"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of one batch download.
type Result struct {
	Success      bool         `json:"success"`
	Cancelled    bool         `json:"cancelled,omitempty"`
	SuccessCount int          `json:"success_count"`
	FailCount    int          `json:"fail_count"`
	Results      []ItemResult `json:"results"`
}
