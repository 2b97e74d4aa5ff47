// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-digest/internal/classify"
	"github.com/pdiddy/arxiv-digest/internal/fileutil"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const (
	// OtherLabel is the display group for records that carry no labels.
	// It is never stored in a record.
	OtherLabel = "Other"

	// IndexFilename is the overview report written next to the category reports.
	IndexFilename = classify.IndexFilename

	maxListedAuthors = 5
	timestampLayout  = "2006-01-02 15:04:05"
)

// Group is the set of records shown under one label.
type Group struct {
	Label  string
	Papers []types.PaperRecord
}

// CategoryFilename returns the report file name for a label.
func CategoryFilename(label string) string {
	return classify.ReportFilename(label)
}

// GroupByLabel places each record under every label it carries. Groups follow
// the rule order of cfg; labels unknown to cfg (from a collection written
// with another configuration) follow in first-seen order. Records without
// labels go to OtherLabel. Empty groups are omitted.
func GroupByLabel(records []types.PaperRecord, cfg *classify.Config) []Group {
	byLabel := make(map[string][]types.PaperRecord)
	var seen []string
	add := func(label string, p types.PaperRecord) {
		if _, ok := byLabel[label]; !ok {
			seen = append(seen, label)
		}
		byLabel[label] = append(byLabel[label], p)
	}
	for _, p := range records {
		if len(p.Tags) == 0 {
			add(OtherLabel, p)
			continue
		}
		for _, tag := range p.Tags {
			add(tag, p)
		}
	}

	var order []string
	placed := make(map[string]bool)
	if cfg != nil {
		for _, label := range cfg.Labels() {
			if _, ok := byLabel[label]; ok {
				order = append(order, label)
				placed[label] = true
			}
		}
	}
	for _, label := range seen {
		if !placed[label] {
			order = append(order, label)
		}
	}

	groups := make([]Group, 0, len(order))
	for _, label := range order {
		groups = append(groups, Group{Label: label, Papers: byLabel[label]})
	}
	return groups
}

// RenderReports writes one Markdown file per non-empty group into dir plus
// the IndexFilename overview. Every file is attempted; failures are joined.
// It returns the paths that were written.
func RenderReports(dir string, records []types.PaperRecord, cfg *classify.Config, now time.Time) ([]string, error) {
	if len(records) == 0 {
		return nil, nil
	}
	groups := GroupByLabel(records, cfg)

	var (
		written []string
		errs    []error
	)
	for _, g := range groups {
		path := filepath.Join(dir, CategoryFilename(g.Label))
		if err := fileutil.WriteAtomic(path, []byte(categoryReport(g, now)), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("writing %s report: %w", g.Label, err))
			continue
		}
		written = append(written, path)
	}

	path := filepath.Join(dir, IndexFilename)
	if err := fileutil.WriteAtomic(path, []byte(indexReport(groups, len(records), now)), 0o644); err != nil {
		errs = append(errs, fmt.Errorf("writing index report: %w", err))
	} else {
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}

func categoryReport(g Group, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - arXiv Paper Report\n\n", g.Label)
	fmt.Fprintf(&b, "**Generated**: %s\n\n", now.Format(timestampLayout))
	fmt.Fprintf(&b, "**Category**: %s\n\n", g.Label)
	fmt.Fprintf(&b, "**Papers**: %d\n\n---\n\n", len(g.Papers))

	for i, p := range g.Papers {
		tags := OtherLabel
		if len(p.Tags) > 0 {
			tags = strings.Join(p.Tags, ", ")
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, p.Title)
		fmt.Fprintf(&b, "- **arXiv ID**: [%s](%s)\n", p.ArxivID, p.ArxivURL)
		fmt.Fprintf(&b, "- **Authors**: %s\n", FormatAuthors(p.Authors))
		fmt.Fprintf(&b, "- **Published**: %s\n", p.Published.Format(time.RFC3339))
		fmt.Fprintf(&b, "- **arXiv categories**: %s\n", strings.Join(p.Categories, ", "))
		fmt.Fprintf(&b, "- **Tags**: %s\n", tags)
		fmt.Fprintf(&b, "- **PDF**: [download](%s)\n\n", p.PDFURL)
		fmt.Fprintf(&b, "**Abstract**:\n%s\n\n---\n\n", p.Summary)
	}
	return b.String()
}

func indexReport(groups []Group, total int, now time.Time) string {
	var b strings.Builder
	b.WriteString("# arXiv Paper Report - Overview\n\n")
	fmt.Fprintf(&b, "**Generated**: %s\n\n", now.Format(timestampLayout))
	fmt.Fprintf(&b, "**Total**: %d papers\n\n", total)
	b.WriteString("## Categories\n\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "- **[%s](%s)**: %d papers\n", g.Label, CategoryFilename(g.Label), len(g.Papers))
	}
	b.WriteString("\n---\n\nEach category has its own report; follow the links above.\n")
	return b.String()
}

// FormatAuthors lists up to five authors and summarizes the rest as
// "et al. (N authors)".
func FormatAuthors(authors []string) string {
	if len(authors) <= maxListedAuthors {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s et al. (%d authors)", strings.Join(authors[:maxListedAuthors], ", "), len(authors))
}
