// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the arxiv-digest pipeline.
// The JSON field names of PaperRecord and Collection are the on-disk format
// of the daily paper collection and must stay stable across releases.
package types

// PaperRecord is a matched arXiv entry as persisted in the daily collection.
// Records are created once by the fetch pipeline and never modified.
type PaperRecord struct {
	// ID is the canonical abstract URL (e.g. "http://arxiv.org/abs/2301.07041v1").
	// It is the deduplication key.
	ID string `json:"id" yaml:"id"`

	// ArxivID is the last path segment of ID, version suffix included.
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title with internal whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Summary is the abstract.
	Summary string `json:"summary" yaml:"summary"`

	Published Timestamp `json:"published" yaml:"published"`
	Updated   Timestamp `json:"updated" yaml:"updated"`

	// Categories are the upstream arXiv subject categories (e.g. "cs.DC").
	Categories []string `json:"categories" yaml:"categories"`

	// Tags are the matched category labels in rule declaration order.
	// Never empty for records produced by the pipeline.
	Tags []string `json:"tags" yaml:"tags"`

	PDFURL   string `json:"pdf_url" yaml:"pdf_url"`
	ArxivURL string `json:"arxiv_url" yaml:"arxiv_url"`

	// FoundDate is when this run discovered the paper.
	FoundDate Timestamp `json:"found_date" yaml:"found_date"`
}

// Collection is the persisted set of matched papers for one day.
type Collection struct {
	FetchDate   Timestamp     `json:"fetch_date" yaml:"fetch_date"`
	TotalPapers int           `json:"total_papers" yaml:"total_papers"`
	Papers      []PaperRecord `json:"papers" yaml:"papers"`
}
