package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"feedhistd/internal/atom"
	"feedhistd/internal/cache"
	"feedhistd/internal/domain/entity"
	roothttp "feedhistd/internal/handler/http"
	"feedhistd/internal/handler/http/respond"
	"feedhistd/internal/usecase/expand"
	"feedhistd/internal/usecase/history"
	"feedhistd/internal/usecase/history/progress"
)

// AtomHandler serves GET /feed.atom?feed=<url>: history reconstruction,
// source expansion, and hash assignment, rendered as a single Atom
// document. Unlike HistoryHandler, this always waits for a Finished
// outcome - there is no partial-rendering equivalent of "in progress" for
// an XML document, so the cache's Δ bound is not surfaced to the caller
// here.
type AtomHandler struct {
	Cache         *cache.Cache
	Fetcher       history.Fetcher
	ExpandFetcher expand.Fetcher
	Config        history.Config
	StylesheetURL string
}

// ServeHTTP renders feed's reconstructed history as Atom XML.
// @Summary      Render a feed's full history as Atom
// @Description  Reconstructs history, expands every entry to its content or link, and renders Atom XML
// @Tags         history
// @Produce      xml
// @Param        feed query string true "feed URL"
// @Success      200 {string} string "Atom document"
// @Failure      400 {string} string "missing feed parameter"
// @Failure      422 {string} string "feed is unsupported or missing a current document"
// @Failure      502 {string} string "upstream fetch failed"
// @Failure      508 {string} string "too many redirections resolving the current document"
// @Router       /feed.atom [get]
func (h AtomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	feed := r.URL.Query().Get("feed")
	if feed == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("feed query param required"))
		return
	}

	doc, err := h.awaitHistory(r.Context(), feed)
	if err != nil {
		roothttp.RecordHistoryTraversal("error", errorKind(err))
		respond.SafeError(w, errorStatus(err), err)
		return
	}
	roothttp.RecordHistoryTraversal("finished", "")
	roothttp.RecordHistoryEntriesReturned("atom", len(doc.Entries))

	expanded, err := expand.Run(r.Context(), h.ExpandFetcher, doc.Entries, h.entryLink)
	if err != nil {
		respond.SafeError(w, http.StatusBadGateway, err)
		return
	}

	body, err := atom.Marshal(doc.Title, h.StylesheetURL, expanded)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// awaitHistory polls the coalescing cache until the traversal for feed
// finishes or the request context is cancelled.
func (h AtomHandler) awaitHistory(ctx context.Context, feed string) (entity.FeedDocument, error) {
	work := func(ctx context.Context, log *progress.Log) (any, error) {
		return history.Run(ctx, h.Fetcher, feed, h.Config, log)
	}
	for {
		result := h.Cache.Get(ctx, feed, work)
		if result.Status == cache.Finished {
			if result.Err != nil {
				return entity.FeedDocument{}, result.Err
			}
			return result.Value.(entity.FeedDocument), nil
		}
		if ctx.Err() != nil {
			return entity.FeedDocument{}, ctx.Err()
		}
	}
}

// entryLink synthesizes the entry-content URL for an entry that resolved to
// inline content rather than a link of its own (ExportHandler.get's
// reverse_url("entry", hash, source) call). source is embedded as-is, not
// percent-escaped: EntryHandler recovers it by taking everything after the
// hash segment, the same way the source URL's own slashes are tolerated in
// the path.
func (h AtomHandler) entryLink(hashPrefix, source string) string {
	return fmt.Sprintf("/entry/%s/%s", hashPrefix, source)
}
