package classify

import "strings"

// Result is the outcome of classifying one text.
type Result struct {
	// Matched is true iff at least one rule matched.
	Matched bool

	// Labels holds the matched rule labels in rule declaration order.
	Labels []string
}

// Text joins a title and an abstract into the blob Classify expects.
func Text(title, abstract string) string {
	return title + " " + abstract
}

// Classify applies every rule to text and reports the labels that match.
// Comparison is case-insensitive. Blank text never matches. Classify never
// invents a label; a text that matches nothing gets no labels at all.
func (c *Config) Classify(text string) Result {
	norm := strings.ToLower(text)
	if strings.TrimSpace(norm) == "" {
		return Result{}
	}

	var labels []string
	for _, r := range c.Rules {
		if !containsAny(norm, c.Groups[r.KeywordGroup].Phrases) {
			continue
		}
		if r.RequiresQualifier && !containsAny(norm, c.Qualifiers) {
			continue
		}
		labels = append(labels, r.Label)
	}
	return Result{Matched: len(labels) > 0, Labels: labels}
}

// containsAny reports whether any phrase occurs in text, which must already
// be lower-cased. Blank phrases are ignored.
func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		p = strings.ToLower(p)
		if strings.TrimSpace(p) == "" {
			continue
		}
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
