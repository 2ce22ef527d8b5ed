package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCassette() *Cassette {
	return &Cassette{
		ID:    "c1",
		Title: "Lecture",
		Items: []CassetteItem{
			{ID: "i1", Title: "Part1", AudioURL: "https://x/1.mp3"},
			{ID: "i2", Title: "Part2", AudioURL: "https://x/2.mp3"},
		},
	}
}

func TestCassette_Validate(t *testing.T) {
	require.NoError(t, testCassette().Validate())
}

func TestCassette_Validate_MissingID(t *testing.T) {
	cassette := testCassette()
	cassette.ID = ""

	err := cassette.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCassette)
}

func TestCassette_Validate_Empty(t *testing.T) {
	cassette := &Cassette{ID: "c1", Title: "Lecture"}

	err := cassette.Validate()
	assert.ErrorIs(t, err, ErrEmptyCassette)
}

func TestCassette_Validate_MissingAudioURL(t *testing.T) {
	cassette := testCassette()
	cassette.Items[1].AudioURL = ""

	err := cassette.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCassette)
}

func TestNewDownloadJob(t *testing.T) {
	job := NewDownloadJob(testCassette())

	assert.Equal(t, "c1", job.CassetteID)
	assert.Equal(t, "Lecture", job.Title)
	assert.Equal(t, 0, job.Current)
	assert.Equal(t, 2, job.Total)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, StatusDownloading, job.Status)
	assert.Len(t, job.Items, 2)
	assert.False(t, job.StartedAt.IsZero())
}

func TestDownloadJob_Advance(t *testing.T) {
	job := NewDownloadJob(testCassette())

	job.Advance(1, StatusDownloading)
	assert.Equal(t, 1, job.Current)
	assert.Equal(t, 50, job.Progress)
	assert.Equal(t, StatusDownloading, job.Status)

	job.Advance(2, StatusCompleted)
	assert.Equal(t, 2, job.Current)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, StatusCompleted, job.Status)
}

func TestDownloadJob_Advance_RoundsPercent(t *testing.T) {
	job := NewDownloadJob(&Cassette{
		ID: "c2",
		Items: []CassetteItem{
			{AudioURL: "https://x/1.mp3"},
			{AudioURL: "https://x/2.mp3"},
			{AudioURL: "https://x/3.mp3"},
		},
	})

	job.Advance(1, StatusDownloading)
	assert.Equal(t, 33, job.Progress)

	job.Advance(2, StatusDownloading)
	assert.Equal(t, 67, job.Progress)
}

func TestFormatByteSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{3000, "2.93 KB"},
		{1048576, "1 MB"},
		{1073741824, "1 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatByteSize(tt.bytes))
		})
	}
}
