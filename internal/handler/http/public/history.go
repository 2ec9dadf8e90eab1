package public

import (
	"context"
	"errors"
	"net/http"

	"feedhistd/internal/cache"
	"feedhistd/internal/domain/entity"
	roothttp "feedhistd/internal/handler/http"
	"feedhistd/internal/handler/http/respond"
	"feedhistd/internal/usecase/history"
	"feedhistd/internal/usecase/history/progress"
)

// HistoryHandler serves GET /history?feed=<url>: a three-way outcome
// (finished, in progress, or error), backed by the coalescing cache so
// concurrent requests for the same feed share one traversal.
type HistoryHandler struct {
	Cache   *cache.Cache
	Fetcher history.Fetcher
	Config  history.Config
}

// ServeHTTP resolves feed's full history, returning within the cache's Δ
// even if the underlying traversal is still running.
// @Summary      Reconstruct a feed's full history
// @Description  Walks a feed's RFC 5005 archive or WordPress pagination to recover every entry it has ever published
// @Tags         history
// @Produce      json
// @Param        feed query string true "feed URL"
// @Success      200 {object} historyResponse "finished, in_progress, or error"
// @Failure      400 {string} string "missing feed parameter"
// @Router       /history [get]
func (h HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	feed := r.URL.Query().Get("feed")
	if feed == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("feed query param required"))
		return
	}

	result := h.Cache.Get(r.Context(), feed, h.work(feed))
	switch result.Status {
	case cache.Finished:
		if result.Err != nil {
			roothttp.RecordHistoryTraversal("error", errorKind(result.Err))
			respond.JSON(w, errorStatus(result.Err), historyResponse{
				Status:  "error",
				Kind:    errorKind(result.Err),
				Message: result.Err.Error(),
			})
			return
		}
		doc := result.Value.(entity.FeedDocument)
		roothttp.RecordHistoryTraversal("finished", "")
		roothttp.RecordHistoryEntriesReturned("history", len(doc.Entries))
		respond.JSON(w, http.StatusOK, historyResponse{
			Status:  "finished",
			Entries: toEntryDTOs(doc.Entries),
		})
	default: // cache.InProgress
		roothttp.RecordHistoryTraversal("in_progress", "")
		respond.JSON(w, http.StatusOK, historyResponse{
			Status: "in_progress",
			Log:    result.Log,
		})
	}
}

func (h HistoryHandler) work(feed string) cache.Work {
	return func(ctx context.Context, log *progress.Log) (any, error) {
		return history.Run(ctx, h.Fetcher, feed, h.Config, log)
	}
}
