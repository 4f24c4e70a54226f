// Package gifs aggregates animated-image search providers behind one
// service. Provider results carry namespaced IDs ("g" + service letter +
// "-" + native ID) so a stored reference can always be routed back to the
// provider that produced it.
package gifs

import (
	"context"
	"strings"

	"github.com/dropnote/dropnote/internal/server/models"
)

// Provider is a single upstream gif catalogue.
type Provider interface {
	// ServiceLetter identifies the provider inside namespaced gif IDs.
	ServiceLetter() string
	// Search returns up to limit gifs matching query.
	Search(ctx context.Context, query string, limit int) ([]models.GifRecord, error)
	// Find resolves one gif by its namespaced ID.
	Find(ctx context.Context, gifID string) (*models.GifRecord, error)
	// Trending returns up to limit currently popular gifs.
	Trending(ctx context.Context, limit int) ([]models.GifRecord, error)
	// Ping reports whether the upstream answers at all.
	Ping(ctx context.Context) bool
}

func makeGifID(serviceLetter, nativeID string) string {
	return "g" + serviceLetter + "-" + nativeID
}

func stripGifID(serviceLetter, gifID string) string {
	prefix := "g" + serviceLetter + "-"
	return strings.TrimPrefix(gifID, prefix)
}

// serviceLetterOf extracts the provider letter from a namespaced gif ID,
// or "" when the ID does not follow the scheme.
func serviceLetterOf(gifID string) string {
	if len(gifID) >= 3 && gifID[0] == 'g' && gifID[2] == '-' &&
		gifID[1] >= 'a' && gifID[1] <= 'z' {
		return string(gifID[1])
	}
	return ""
}
