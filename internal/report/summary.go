// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pdiddy/arxiv-digest/internal/classify"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const summaryTitleWidth = 70

var (
	headingColor = color.New(color.Bold)
	labelColor   = color.New(color.FgCyan, color.Bold)
	idColor      = color.New(color.Faint)
	tagColor     = color.New(color.FgYellow)
)

// PrintSummary writes a per-category listing of records to w. Color is
// applied when the color package decides the terminal supports it.
func PrintSummary(w io.Writer, records []types.PaperRecord, cfg *classify.Config) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	headingColor.Fprintf(w, "Paper categories (%d papers)\n", len(records))
	fmt.Fprintln(w, rule)

	for _, g := range GroupByLabel(records, cfg) {
		fmt.Fprintln(w)
		labelColor.Fprintf(w, "%s: %d\n", g.Label, len(g.Papers))
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for i, p := range g.Papers {
			fmt.Fprintf(w, "  %d. %s", i+1, shorten(p.Title, summaryTitleWidth))
			if len(p.Tags) > 1 {
				tagColor.Fprintf(w, " [%s]", strings.Join(p.Tags, ", "))
			}
			fmt.Fprintln(w)
			idColor.Fprintf(w, "     arXiv ID: %s\n", p.ArxivID)
		}
	}
	fmt.Fprintln(w, rule)
}

func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
