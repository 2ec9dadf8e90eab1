package entity

// ExpandedEntry is an EntryRef resolved back to its origin document: either
// inline content (preferred, when the source feed embedded it) or a link to
// fetch it from (the fallback, when the feed only linked to the full
// article).
type ExpandedEntry struct {
	ID        string
	Title     string
	Published string // pre-formatted for Atom rendering
	Source    string

	Content string // non-empty when the entry carried inline content
	Link    string // set when Content is empty

	// Hash is the distinguishing-prefix identifier assigned by component D.
	// Empty until hash assignment has run.
	Hash string
}

// HasContent reports whether the entry resolved to inline content rather
// than a link.
func (e ExpandedEntry) HasContent() bool {
	return e.Content != ""
}
