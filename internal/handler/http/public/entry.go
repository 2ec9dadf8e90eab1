package public

import (
	"errors"
	"net/http"
	"strings"

	"feedhistd/internal/domain/hash"
	roothttp "feedhistd/internal/handler/http"
	"feedhistd/internal/handler/http/respond"
	"feedhistd/internal/usecase/history"
)

// EntryHandler serves GET /entry/{hashPrefix}/{source}: resolving an entry
// identifier URL back to its content, by re-fetching source (always
// max-stale - the document was already fetched once during history
// reconstruction) and matching entries whose distinguishing hash starts
// with hashPrefix.
type EntryHandler struct {
	Fetcher history.Fetcher
}

// ServeHTTP writes the matched entry's inline content, redirects to its
// link when it has none, or 400s when no entry in source matches
// hashPrefix.
// @Summary      Resolve an entry by its distinguishing hash
// @Description  Fetches the entry's source document and returns the matching entry's content
// @Tags         history
// @Produce      html
// @Param        hash path string true "distinguishing hash prefix"
// @Param        source path string true "source feed URL"
// @Success      200 {string} string "entry content"
// @Failure      302 {string} string "redirect to the entry's original link"
// @Failure      400 {string} string "no matching entry, or entry has neither content nor a link"
// @Router       /entry/{hash}/{source} [get]
func (h EntryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hashPrefix, source, err := splitEntryPath(r.URL.Path)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	doc, err := h.Fetcher.Fetch(r.Context(), source, history.FetchOptions{MaxStale: true})
	if err != nil {
		respond.SafeError(w, errorStatus(err), err)
		return
	}

	for _, e := range doc.Entries {
		if !strings.HasPrefix(hash.OfEntry(e.ID), hashPrefix) {
			continue
		}
		if e.Content != "" {
			roothttp.RecordEntryRequest("content")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(e.Content))
			return
		}
		if e.Link != "" {
			roothttp.RecordEntryRequest("redirect")
			http.Redirect(w, r, e.Link, http.StatusFound)
			return
		}
		roothttp.RecordEntryRequest("not_found")
		respond.SafeError(w, http.StatusBadRequest, errors.New("entry has neither content nor a link"))
		return
	}

	roothttp.RecordEntryRequest("not_found")
	respond.SafeError(w, http.StatusBadRequest, errors.New("no entry matches the given hash"))
}

func splitEntryPath(path string) (hashPrefix, source string, err error) {
	rest := strings.TrimPrefix(path, "/entry/")
	idx := strings.Index(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", errors.New("invalid entry path, expected /entry/{hash}/{source}")
	}
	return rest[:idx], rest[idx+1:], nil
}
