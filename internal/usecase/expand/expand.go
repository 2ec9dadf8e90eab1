// Package expand turns the bare entry references a history traversal
// returns into the rendered entries a reader actually wants, by fetching
// each source document once (shared, max-stale) and pulling each wanted
// entry's content or canonical link out of it.
//
// Entries are grouped by the feed document they came from, one document
// fetch serves every entry from that source, and entries are resolved
// concurrently across sources with golang.org/x/sync/errgroup.
package expand

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"feedhistd/internal/domain/entity"
	"feedhistd/internal/domain/hash"
	"feedhistd/internal/usecase/history"
)

// Fetcher is the subset of history.Fetcher expand needs: one more document
// fetch per distinct source, always tolerant of staleness since the entries
// being resolved already exist in documents fetched during traversal.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts history.FetchOptions) (entity.FeedDocument, error)
}

// LinkBuilder turns an entry's distinguishing hash prefix and source URL
// into the link assigned to entries that resolved to inline content rather
// than a link of their own.
type LinkBuilder func(hashPrefix, source string) string

// Run expands refs into fully-populated entries, grouped and resolved by
// source document. A source document that can no longer be fetched fails
// the whole request, via errgroup's first-error cancellation.
func Run(ctx context.Context, f Fetcher, refs []entity.EntryRef, linkFor LinkBuilder) ([]entity.ExpandedEntry, error) {
	bySource := make(map[string][]entity.EntryRef)
	for _, ref := range refs {
		bySource[ref.Source] = append(bySource[ref.Source], ref)
	}

	var (
		mu      sync.Mutex
		results = make([]entity.ExpandedEntry, 0, len(refs))
	)

	g, gctx := errgroup.WithContext(ctx)
	for source, wanted := range bySource {
		source, wanted := source, wanted
		g.Go(func() error {
			expanded, err := expandSource(gctx, f, source, wanted)
			if err != nil {
				return fmt.Errorf("expand source %s: %w", source, err)
			}
			mu.Lock()
			results = append(results, expanded...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Any entry still missing a link at this point resolved to inline
	// content rather than an original alternate link, so it needs one
	// synthesized pointing back at this service's own entry-content
	// endpoint.
	if linkFor != nil {
		for i, e := range results {
			if e.Link == "" {
				results[i].Link = linkFor(e.Hash, e.Source)
			}
		}
	}

	return results, nil
}

// expandSource fetches source once and resolves every ref in wanted against
// its entries, assigning each a distinguishing hash prefix scoped to this
// source only, since the resulting link embeds the source alongside the
// hash.
func expandSource(ctx context.Context, f Fetcher, source string, wanted []entity.EntryRef) ([]entity.ExpandedEntry, error) {
	doc, err := f.Fetch(ctx, source, history.FetchOptions{MaxStale: true})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]entity.EntryRef, len(wanted))
	for _, ref := range wanted {
		byID[ref.ID] = ref
	}

	ids := make([]string, 0, len(wanted))
	matched := make(map[string]entity.EntryRef, len(wanted))
	for _, e := range doc.Entries {
		if _, ok := byID[e.ID]; !ok {
			continue
		}
		matched[e.ID] = e
		ids = append(ids, e.ID)
	}

	prefixes := hash.AssignDistinguishingPrefixes(ids)

	expanded := make([]entity.ExpandedEntry, 0, len(ids))
	for _, id := range ids {
		e := matched[id]
		if e.Content == "" && e.Link == "" {
			return nil, &history.Error{
				Kind:    history.MalformedEntry,
				Message: fmt.Sprintf("entry %q in %s has neither content nor a link", e.ID, source),
			}
		}
		ee := entity.ExpandedEntry{
			ID:        e.ID,
			Title:     e.Title,
			Published: e.Published.UTC().Format("2006-01-02T15:04:05Z"),
			Source:    source,
			Hash:      prefixes[id],
		}
		// Inline content wins over the entry's own alternate link when both
		// are present; a final pass over the merged result (in Run) assigns
		// a synthesized link to any entry that still lacks one.
		if e.Content != "" {
			ee.Content = e.Content
		} else {
			ee.Link = e.Link
		}
		expanded = append(expanded, ee)
	}

	return expanded, nil
}
