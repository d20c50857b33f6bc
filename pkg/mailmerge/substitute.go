package mailmerge

import (
	"fmt"
	"strings"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/render"
	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// TokenPrefix marks a placeholder: "@Name" is replaced by the Name field.
const TokenPrefix = "@"

// SubstituteOptions controls Substitute.
type SubstituteOptions struct {
	// FailOnMissingValue returns a RowError when a referenced field has no
	// value for the row instead of substituting an empty string.
	FailOnMissingValue bool
	// MergeRuns joins adjacent runs with identical formatting first.
	MergeRuns bool
	// Logger receives debug output. The global logger is used when nil.
	Logger *Logger
}

// SubstitutionStats describes one Substitute call.
type SubstitutionStats struct {
	TextNodes    int
	Replacements int
	RunsMerged   int
	// Missing lists the fields that had no value for the row.
	Missing []string
}

// Substitute replaces "@field" tokens in every text element under root with
// the formatted value of that field in data row row.
//
// Fields are applied in table order, one after another on the same text, so
// a field whose name is a prefix of another ("@Name" and "@Names") can
// consume part of the longer token. Values are inserted literally; a value
// containing "@" is not substituted again by earlier fields but may be by
// later ones.
//
// A field whose value list is shorter than row is substituted with "".
func Substitute(root *xml.Node, table *Table, row int, opts SubstituteOptions) (SubstitutionStats, error) {
	log := opts.Logger
	if log == nil {
		log = GetLogger()
	}

	var stats SubstitutionStats
	if opts.MergeRuns {
		stats.RunsMerged = render.MergeRunsInTree(root)
	}

	fields := table.fields
	tokens := make([]string, len(fields))
	values := make([]string, len(fields))
	for i, name := range fields {
		tokens[i] = TokenPrefix + name
		raw, ok := table.Value(name, row)
		if !ok {
			stats.Missing = append(stats.Missing, name)
			log.Debug("Value missing for row; substituting empty string", "row", row+1, "field", name)
		}
		values[i] = FormatValue(raw)
	}

	missing := make(map[string]bool, len(stats.Missing))
	for _, name := range stats.Missing {
		missing[name] = true
	}

	for _, t := range xml.TextNodes(root) {
		stats.TextNodes++
		original := t.Text()
		if !strings.Contains(original, TokenPrefix) {
			continue
		}

		text := original
		for i, token := range tokens {
			n := strings.Count(text, token)
			if n == 0 {
				continue
			}
			if opts.FailOnMissingValue && missing[fields[i]] {
				return stats, &RowError{
					Row:   row,
					Cause: fmt.Errorf("no value for field %q", fields[i]),
				}
			}
			text = strings.ReplaceAll(text, token, values[i])
			stats.Replacements += n
		}

		if text != original {
			xml.SetRunText(t, text)
		}
	}

	return stats, nil
}
