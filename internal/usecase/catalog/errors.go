// Package catalog manages the set of feed URLs this service knows to
// reconstruct history for (component I). It validates and persists
// TrackedSource rows through repository.SourceRepository; it does not fetch
// or traverse feeds itself.
package catalog

import "errors"

// Sentinel errors for catalog use case operations.
var (
	// ErrSourceNotFound indicates that the requested source was not found.
	ErrSourceNotFound = errors.New("source not found")

	// ErrDuplicateSource indicates that a source with the same feed URL
	// already exists in the catalog.
	ErrDuplicateSource = errors.New("source with this feed URL already exists")
)
