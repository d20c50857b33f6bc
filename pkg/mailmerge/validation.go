package mailmerge

import (
	"sort"
	"strings"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// FieldReference is one "@field" token found in a template paragraph.
type FieldReference struct {
	Field          string
	ParagraphIndex int
	// Split is true when the token spans several runs, so substitution only
	// finds it with run merging enabled.
	Split bool
}

// TemplateCheck compares the tokens of a template with a table's fields.
type TemplateCheck struct {
	References []FieldReference
	// Unused lists table fields no token refers to.
	Unused []string
	// SplitTokens counts references that span runs.
	SplitTokens int
}

// CheckTemplate scans every paragraph of tmpl for tokens of table's fields.
// Tokens are matched on the paragraph's joined text, so references Word
// split over several runs are reported too.
func CheckTemplate(tmpl *Template, table *Table) TemplateCheck {
	var check TemplateCheck
	used := make(map[string]bool)

	for pi, p := range xml.Paragraphs(tmpl.Body()) {
		runs := collectRunTexts(p)
		joined := strings.Join(runs, "")
		if !strings.Contains(joined, TokenPrefix) {
			continue
		}

		for _, field := range table.fields {
			token := TokenPrefix + field
			whole := strings.Count(joined, token)
			if whole == 0 {
				continue
			}
			used[field] = true

			inRun := 0
			for _, r := range runs {
				inRun += strings.Count(r, token)
			}
			for i := 0; i < whole; i++ {
				split := i >= inRun
				check.References = append(check.References, FieldReference{
					Field:          field,
					ParagraphIndex: pi,
					Split:          split,
				})
				if split {
					check.SplitTokens++
				}
			}
		}
	}

	for _, field := range table.fields {
		if !used[field] {
			check.Unused = append(check.Unused, field)
		}
	}
	sort.SliceStable(check.References, func(i, j int) bool {
		return check.References[i].ParagraphIndex < check.References[j].ParagraphIndex
	})
	return check
}

// collectRunTexts returns the text of each w:t of a paragraph, in order.
// Nested paragraphs are scanned on their own.
func collectRunTexts(p *xml.Node) []string {
	texts := xml.ParagraphTextNodes(p)
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = t.Text()
	}
	return out
}
