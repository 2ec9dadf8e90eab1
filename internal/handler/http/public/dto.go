// Package public implements the unauthenticated read surface: history
// reconstruction, Atom rendering, and entry-content resolution. None of
// these routes sit behind the admin JWT guard - they are the consumer
// contract any feed reader talks to.
package public

import (
	"errors"

	"feedhistd/internal/domain/entity"
	"feedhistd/internal/usecase/history"
)

// entryDTO is the wire shape of one raw history entry, before expansion.
type entryDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
	Source    string `json:"source"`
}

func toEntryDTOs(refs []entity.EntryRef) []entryDTO {
	out := make([]entryDTO, 0, len(refs))
	for _, e := range refs {
		d := entryDTO{ID: e.ID, Title: e.Title, Link: e.Link, Source: e.Source}
		if !e.Published.IsZero() {
			d.Published = e.Published.UTC().Format("2006-01-02T15:04:05Z")
		}
		out = append(out, d)
	}
	return out
}

// historyResponse is the JSON body for GET /history, one of three shapes:
// finished, in_progress, or error.
type historyResponse struct {
	Status  string     `json:"status"`
	Entries []entryDTO `json:"entries,omitempty"`
	Log     []string   `json:"log,omitempty"`
	Kind    string     `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
}

// errorStatus maps a history.Kind to the HTTP status code the handlers use
// when reporting a terminal error.
func errorStatus(err error) int {
	var herr *history.Error
	if errors.As(err, &herr) {
		switch herr.Kind {
		case history.MissingCurrent, history.Unsupported:
			return 422
		case history.TooManyRedirections:
			return 508
		case history.MalformedEntry, history.FetchFailed:
			return 502
		}
	}
	return 502
}

func errorKind(err error) string {
	var herr *history.Error
	if errors.As(err, &herr) {
		return herr.Kind.String()
	}
	return "fetch_failed"
}
