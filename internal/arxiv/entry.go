// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import (
	"errors"
	"strings"
	"time"
)

// Entry is one search result. Entries are values; callers must not rely on
// fields that Validate does not check being populated.
type Entry struct {
	// ID is the abstract URL, e.g. "http://arxiv.org/abs/2301.07041v1".
	ID string

	Title   string
	Summary string
	Authors []string

	Published time.Time
	Updated   time.Time

	// Categories lists every subject category, primary first.
	Categories []string

	PDFURL string
}

// ShortID returns the last path segment of the entry id, version included.
func (e Entry) ShortID() string {
	if i := strings.LastIndex(e.ID, "/"); i >= 0 {
		return e.ID[i+1:]
	}
	return e.ID
}

// Validate checks the fields downstream stages depend on.
func (e Entry) Validate() error {
	var errs []error
	if e.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if e.Title == "" {
		errs = append(errs, errors.New("missing title"))
	}
	if e.Published.IsZero() {
		errs = append(errs, errors.New("missing or malformed published date"))
	}
	return errors.Join(errs...)
}

// arXiv Atom feed XML structures.
type atomFeed struct {
	TotalResults int         `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	Entries      []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Updated         string         `xml:"updated"`
	Authors         []atomAuthor   `xml:"author"`
	Links           []atomLink     `xml:"link"`
	PrimaryCategory atomCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
	Categories      []atomCategory `xml:"category"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

func (a atomEntry) toEntry() Entry {
	e := Entry{
		ID:      strings.TrimSpace(a.ID),
		Title:   strings.Join(strings.Fields(a.Title), " "),
		Summary: strings.TrimSpace(a.Summary),
	}
	for _, au := range a.Authors {
		if name := strings.TrimSpace(au.Name); name != "" {
			e.Authors = append(e.Authors, name)
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(a.Published)); err == nil {
		e.Published = t
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(a.Updated)); err == nil {
		e.Updated = t
	}

	seen := make(map[string]bool)
	addCategory := func(term string) {
		if term != "" && !seen[term] {
			seen[term] = true
			e.Categories = append(e.Categories, term)
		}
	}
	addCategory(a.PrimaryCategory.Term)
	for _, c := range a.Categories {
		addCategory(c.Term)
	}

	for _, l := range a.Links {
		if l.Title == "pdf" {
			e.PDFURL = l.Href
			break
		}
	}
	if e.PDFURL == "" && strings.Contains(e.ID, "/abs/") {
		e.PDFURL = strings.Replace(e.ID, "/abs/", "/pdf/", 1)
	}
	return e
}
