package domain

// RecordStore defines the interface for download record persistence.
//
// Writes are last-write-wins. Lookup misses and non-fatal storage errors are
// reported as absent records; implementations log the underlying cause.
type RecordStore interface {
	// FileRecords returns all downloaded-file records keyed by remote URL
	FileRecords() (map[string]*FileRecord, error)

	// FileRecord returns the record for a URL, or nil when absent
	FileRecord(audioURL string) (*FileRecord, error)

	// PutFileRecord saves a downloaded-file record. Capacity errors are
	// handled internally (evict oldest, retry once, else drop) and are
	// never surfaced to the caller.
	PutFileRecord(rec *FileRecord) error

	// RemoveFileRecord deletes the record for a URL
	RemoveFileRecord(audioURL string) error

	// Bundles returns all fully-downloaded cassette bundles
	Bundles() ([]*CassetteBundle, error)

	// Bundle returns the bundle for a cassette id, or nil when absent
	Bundle(cassetteID string) (*CassetteBundle, error)

	// PutBundle saves a bundle
	PutBundle(bundle *CassetteBundle) error

	// RemoveBundle deletes the bundle for a cassette id
	RemoveBundle(cassetteID string) error

	// ActiveJobs returns all in-progress or paused batch jobs
	ActiveJobs() ([]*DownloadJob, error)

	// Job returns the job for a cassette id, or nil when absent
	Job(cassetteID string) (*DownloadJob, error)

	// PutJob saves a job, replacing any prior job for the same cassette
	PutJob(job *DownloadJob) error

	// SetJobStatus updates only the status of an existing job
	SetJobStatus(cassetteID string, status JobStatus) error

	// RemoveJob deletes the job for a cassette id
	RemoveJob(cassetteID string) error

	// TotalDownloadedBytes returns the sum of all FileRecord sizes
	TotalDownloadedBytes() (int64, error)

	// Stats returns aggregate library statistics
	Stats() (*LibraryStats, error)

	// ClearAll removes every file record and bundle
	ClearAll() error
}

// LibraryStats summarizes the offline library.
type LibraryStats struct {
	FileCount          int64  `json:"files_count"`
	BundleCount        int64  `json:"cassettes_count"`
	TotalSize          int64  `json:"total_size"`
	TotalSizeFormatted string `json:"total_size_formatted"`
}
