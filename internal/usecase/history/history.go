// Package history implements the history traversal engine: resolving a feed
// URL down to its current subscription document, then walking either an
// RFC 5005 archive chain or WordPress-style pagination to recover every
// entry the feed has ever published.
package history

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"feedhistd/internal/domain/entity"
	"feedhistd/internal/usecase/history/progress"
)

// Config bounds the self/current resolution loop: how many times it may
// redirect before giving up.
type Config struct {
	MaxRedirects int
}

// Run resolves startURL to its current subscription document and walks its
// full history, returning a single deduplicated FeedDocument whose Entries
// span every document found. log receives a human-readable trace of each
// step, surfaced to callers polling an in-progress computation through the
// coalescing cache.
func Run(ctx context.Context, f Fetcher, startURL string, cfg Config, log *progress.Log) (entity.FeedDocument, error) {
	base, resolvedURL, err := resolveCurrent(ctx, f, startURL, cfg, log)
	if err != nil {
		return entity.FeedDocument{}, err
	}

	docs := []entity.FeedDocument{base}

	if !base.Complete {
		switch {
		case base.Link("prev-archive") != "":
			docs = append(docs, walkArchive(ctx, f, base, log)...)
		case isWordPress(base):
			docs = append(docs, walkWordPress(ctx, f, resolvedURL, log)...)
		default:
			return entity.FeedDocument{}, &Error{
				Kind:    Unsupported,
				Message: fmt.Sprintf("document %q is neither archived (RFC 5005) nor WordPress-paginated", resolvedURL),
			}
		}
	}

	combined := Deduplicate(docs)
	SortChronological(combined.Entries)
	return combined, nil
}

// resolveCurrent implements full_history's Phase 1: loop fetching url,
// following rel="self" corrections and rel="current" redirects until the
// fetched document's own URL matches its declared current document, or the
// redirect budget is exhausted.
func resolveCurrent(ctx context.Context, f Fetcher, startURL string, cfg Config, log *progress.Log) (entity.FeedDocument, string, error) {
	url := startURL
	redirects := 0

	for {
		log.Append(fmt.Sprintf("fetching %s", url))
		doc, err := f.Fetch(ctx, url, FetchOptions{})
		if err != nil {
			return entity.FeedDocument{}, "", err
		}

		if self := doc.Link("self"); self != "" && self != url {
			log.Append(fmt.Sprintf("document %q came from %q", url, self))
			url = self
		}

		current := doc.Link("current")
		if current != "" {
			if url != current {
				redirects++
				if redirects > cfg.MaxRedirects {
					return entity.FeedDocument{}, "", &Error{
						Kind:    TooManyRedirections,
						Message: fmt.Sprintf("exceeded %d redirects resolving %s", cfg.MaxRedirects, startURL),
					}
				}
				log.Append(fmt.Sprintf("document %q is not current, trying again from %q", url, current))
				url = current
				continue
			}
		} else if doc.Archive {
			return entity.FeedDocument{}, "", &Error{
				Kind:    MissingCurrent,
				Message: fmt.Sprintf("document %q is an archive and doesn't specify the current document", url),
			}
		}

		return doc, url, nil
	}
}

// walkArchive implements Phase 2a: follow rel="prev-archive" links back
// through the archive chain, always requesting with Cache-Control: max-stale
// since archive documents are immutable once published, and a Referer
// pointing back at the later document that linked to each one.
func walkArchive(ctx context.Context, f Fetcher, base entity.FeedDocument, log *progress.Log) []entity.FeedDocument {
	var docs []entity.FeedDocument
	laterURL := base.Link("self")

	for {
		prev := base.Link("prev-archive")
		if prev == "" {
			return docs
		}
		log.Append(fmt.Sprintf("following archive to %s", prev))
		doc, err := f.Fetch(ctx, prev, FetchOptions{MaxStale: true, Referer: laterURL})
		if err != nil {
			log.Append(fmt.Sprintf("archive fetch of %s failed: %v", prev, err))
			return docs
		}
		docs = append(docs, doc)
		laterURL = prev
		base = doc
	}
}

// walkWordPress implements Phase 2b: a WordPress install without RFC 5005
// archiving exposes its full history through feed=atom&order=ASC&orderby=modified&paged=N
// pagination instead. Pages are walked starting at 2 (page 1 is the
// document already fetched in Phase 1) until a page 404s or returns no new
// entries.
func walkWordPress(ctx context.Context, f Fetcher, feedURL string, log *progress.Log) []entity.FeedDocument {
	var docs []entity.FeedDocument
	for page := 2; ; page++ {
		pageURL := wordPressPageURL(feedURL, page)
		log.Append(fmt.Sprintf("fetching WordPress page %d: %s", page, pageURL))
		doc, err := f.Fetch(ctx, pageURL, FetchOptions{})
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				log.Append(fmt.Sprintf("page %d not found, pagination complete", page))
			} else {
				log.Append(fmt.Sprintf("page %d fetch failed: %v", page, err))
			}
			return docs
		}
		if len(doc.Entries) == 0 {
			log.Append(fmt.Sprintf("page %d was empty, pagination complete", page))
			return docs
		}
		docs = append(docs, doc)
	}
}

// isWordPress detects the feed=atom&paged=N pagination convention two ways:
// a generator string naming WordPress, or an HTTP Link response header
// advertising the WordPress REST API (rel="https://api.w.org/..."), which
// self-hosted installs expose even when the feed's own <generator> element
// has been stripped or customized.
func isWordPress(doc entity.FeedDocument) bool {
	g := strings.ToLower(doc.Generator)
	if strings.Contains(g, "wordpress.com") || strings.Contains(g, "wordpress.org") {
		return true
	}
	return strings.Contains(doc.LinkHeader, "api.w.org")
}

func wordPressPageURL(feedURL string, page int) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	q := u.Query()
	q.Set("feed", "atom")
	q.Set("order", "ASC")
	q.Set("orderby", "modified")
	q.Set("paged", fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Deduplicate combines a sequence of documents (the live document followed
// by its archive chain or WordPress pages, oldest last) into one document
// whose Entries contain each distinct entry ID exactly once — first
// occurrence wins, mirroring deduplicate_entries.
func Deduplicate(docs []entity.FeedDocument) entity.FeedDocument {
	if len(docs) == 0 {
		return entity.FeedDocument{}
	}

	combined := docs[0]
	combined.Archive = false
	combined.Complete = false
	entries := make([]entity.EntryRef, len(docs[0].Entries))
	copy(entries, docs[0].Entries)

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.ID] = true
	}

	for _, doc := range docs[1:] {
		for _, e := range doc.Entries {
			if seen[e.ID] {
				continue
			}
			entries = append(entries, e)
			seen[e.ID] = true
		}
	}

	combined.Entries = entries
	return combined
}

// SortChronological orders entries oldest-first. Entries with identical or
// missing timestamps are assumed to have been listed newest-first in their
// source document, matching sort_entries' stable-descending-then-reverse
// trick: sort descending by Published (stable, so ties keep source order),
// then reverse the whole slice.
func SortChronological(entries []entity.EntryRef) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Published.After(entries[j].Published)
	})
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
