package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCassette is returned when a cassette has no items to download.
	ErrEmptyCassette = errors.New("cassette has no items")

	// ErrInvalidCassette is returned when a cassette is missing required fields.
	ErrInvalidCassette = errors.New("invalid cassette")
)

// CassetteItem is one audio entry of a cassette, in playback order.
type CassetteItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	AudioURL string `json:"audioUrl"`
}

// Cassette is a named ordered collection of audio items, supplied by the
// cassette browsing subsystem.
type Cassette struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Items []CassetteItem `json:"items"`
}

// Validate checks that the cassette is well-formed before a batch starts.
func (c *Cassette) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing cassette id", ErrInvalidCassette)
	}
	if len(c.Items) == 0 {
		return ErrEmptyCassette
	}
	for i, item := range c.Items {
		if item.AudioURL == "" {
			return fmt.Errorf("%w: item %d has no audio url", ErrInvalidCassette, i)
		}
	}
	return nil
}
