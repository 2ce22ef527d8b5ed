package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/cassette-sync-go/internal/domain"
)

// Keeps latin and arabic letters, digits, whitespace, dot, dash, underscore.
var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9_\x{0600}-\x{06FF}\s.-]`)

// HTTPFileFetcher implements domain.FileFetcher with whole-file HTTP fetches
// into a base directory. Files are streamed to a temporary name and renamed
// on success, so a failed fetch never leaves a file at the final path.
type HTTPFileFetcher struct {
	client  *http.Client
	baseDir string
	logger  *zap.Logger
}

// NewHTTPFileFetcher creates a fetcher storing files under the configured
// base directory, which is created if missing.
func NewHTTPFileFetcher(config *domain.DownloadConfig, log *zap.Logger) (*HTTPFileFetcher, error) {
	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	return &HTTPFileFetcher{
		client:  &http.Client{Timeout: config.FetchTimeout},
		baseDir: config.BaseDir,
		logger:  log,
	}, nil
}

// FetchFile downloads url into the base directory as fileName. A file that
// already exists at the destination short-circuits the fetch and reports its
// size on disk.
func (f *HTTPFileFetcher) FetchFile(ctx context.Context, url, fileName string) (*domain.FetchResult, error) {
	name := SanitizeFileName(fileName)
	destPath := filepath.Join(f.baseDir, name)

	if info, err := os.Stat(destPath); err == nil {
		return &domain.FetchResult{
			LocalPath:     destPath,
			Size:          info.Size(),
			AlreadyExists: true,
		}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid download url: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	tmpPath := destPath + "." + uuid.NewString() + ".part"
	file, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to store %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to finalize %s: %w", name, err)
	}

	f.logger.Debug("Stored audio file",
		zap.String("path", destPath),
		zap.Int64("size", written))

	return &domain.FetchResult{LocalPath: destPath, Size: written}, nil
}

// SanitizeFileName replaces characters outside the allowed set with
// underscores so titles are safe as file names.
func SanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}
