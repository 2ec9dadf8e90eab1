package public

import (
	"net/http"

	"feedhistd/internal/cache"
	"feedhistd/internal/usecase/expand"
	"feedhistd/internal/usecase/history"
)

// Deps bundles what the public handlers need to share: one cache coalesces
// both /history and /feed.atom traversals of the same feed URL, so a reader
// hitting both endpoints back to back doesn't pay for the walk twice.
type Deps struct {
	Cache         *cache.Cache
	Fetcher       history.Fetcher
	ExpandFetcher expand.Fetcher
	Config        history.Config
	StylesheetURL string
}

// Register wires the unauthenticated read surface onto mux. None of these
// routes sit behind auth.Authz - they are the consumer contract any feed
// reader talks to, not the admin catalog.
func Register(mux *http.ServeMux, deps Deps) {
	mux.Handle("GET /history", HistoryHandler{
		Cache:   deps.Cache,
		Fetcher: deps.Fetcher,
		Config:  deps.Config,
	})
	mux.Handle("GET /feed.atom", AtomHandler{
		Cache:         deps.Cache,
		Fetcher:       deps.Fetcher,
		ExpandFetcher: deps.ExpandFetcher,
		Config:        deps.Config,
		StylesheetURL: deps.StylesheetURL,
	})
	mux.Handle("GET /entry/", EntryHandler{
		Fetcher: deps.Fetcher,
	})
}
