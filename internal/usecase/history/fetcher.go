package history

import (
	"context"

	"feedhistd/internal/domain/entity"
)

// FetchOptions carries the per-request hints the traversal engine passes
// down to the external fetcher: archive documents are always requested
// with MaxStale set, since an archive document is immutable once published
// and should always be served from cache, and Referer records the later
// document that linked to this one.
type FetchOptions struct {
	MaxStale bool
	Referer  string
}

// Fetcher is the external capability this package needs but does not
// implement itself: given a URL, retrieve and parse one feed document. The
// traversal engine and source expansion only depend on this interface,
// never on a concrete HTTP client, so tests can supply a stub.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (entity.FeedDocument, error)
}
