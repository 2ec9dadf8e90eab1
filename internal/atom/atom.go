// Package atom renders a reconstructed history as a single Atom feed
// document, the shape a feed reader can subscribe to directly.
//
// Uses encoding/xml directly rather than a templating package: struct tags
// give the same declarative field-to-element mapping a template would, and
// XML escaping comes for free instead of manual escaping on every
// interpolated field.
package atom

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"feedhistd/internal/domain/entity"
)

const namespace = "http://www.w3.org/2005/Atom"

// feed is a title and a flat list of entries, no self-referential links or
// paging markers, since the document this package renders is already the
// fully reconstructed, non-paginated history.
type feed struct {
	XMLName xml.Name `xml:"feed"`
	Xmlns   string   `xml:"xmlns,attr"`
	Title   text     `xml:"title"`
	Entries []entry  `xml:"entry"`
}

type text struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

// entry carries exactly four fields: published, a single rel="alternate"
// link, title, and id. Entry content is never embedded in the index document
// itself; it is served separately by the entry-content endpoint the link
// points to when the feed didn't supply one (expand.Run already resolved
// that link for every entry).
type entry struct {
	Published string `xml:"published"`
	Link      link   `xml:"link"`
	Title     text   `xml:"title"`
	ID        string `xml:"id"`
}

type link struct {
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
	Href string `xml:"href,attr"`
}

// Marshal renders title and entries as a complete Atom document, with an
// xml-stylesheet processing instruction pointing at stylesheetURL when one
// is given. Tests and headless callers can pass "" to omit it.
func Marshal(title, stylesheetURL string, entries []entity.ExpandedEntry) ([]byte, error) {
	f := feed{
		Xmlns: namespace,
		Title: text{Type: "text", Value: title},
	}
	for _, e := range entries {
		f.Entries = append(f.Entries, entry{
			Published: e.Published,
			Link:      link{Rel: "alternate", Type: "text/html", Href: e.Link},
			Title:     text{Type: "text", Value: e.Title},
			ID:        e.ID,
		})
	}

	body, err := xml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("atom: marshal feed: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if stylesheetURL != "" {
		fmt.Fprintf(&buf, "<?xml-stylesheet href=%q type=\"text/xsl\"?>\n", stylesheetURL)
	}
	buf.Write(body)
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}
