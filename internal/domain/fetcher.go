package domain

import (
	"context"
	"errors"
)

// ErrUnsupportedEnvironment is returned when no file-fetch primitive is
// available, before any job bookkeeping is created.
var ErrUnsupportedEnvironment = errors.New("downloads unsupported in this environment")

// FetchResult describes a successfully stored file.
type FetchResult struct {
	LocalPath     string
	Size          int64
	AlreadyExists bool
}

// FileFetcher is the whole-file fetch-and-store primitive. A fetch either
// stores the complete file and returns its local path and size, or fails
// without leaving a partial file behind.
type FileFetcher interface {
	FetchFile(ctx context.Context, url, fileName string) (*FetchResult, error)
}
