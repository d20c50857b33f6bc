package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

// summary is the printable form of a merge result.
type summary struct {
	RunID    string   `json:"run_id" yaml:"run_id"`
	Mode     string   `json:"mode" yaml:"mode"`
	Table    string   `json:"table" yaml:"table"`
	Template string   `json:"template" yaml:"template"`
	Rows     int      `json:"rows" yaml:"rows"`
	Failed   int      `json:"failed" yaml:"failed"`
	Files    []string `json:"files" yaml:"files"`
	Archive  string   `json:"archive,omitempty" yaml:"archive,omitempty"`
	Duration string   `json:"duration" yaml:"duration"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func toSummary(r *mailmerge.Result) summary {
	s := summary{
		RunID:    r.RunID,
		Mode:     r.Mode.String(),
		Table:    r.Table,
		Template: r.Template,
		Rows:     r.Rows,
		Failed:   r.Failed,
		Files:    r.Files,
		Archive:  r.Archive,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
	if s.Files == nil {
		s.Files = []string{}
	}
	for _, err := range r.Errors {
		s.Errors = append(s.Errors, err.Error())
	}
	return s
}

func writeSummary(w io.Writer, format string, results []*mailmerge.Result) error {
	summaries := make([]summary, len(results))
	for i, r := range results {
		summaries[i] = toSummary(r)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	default:
		for _, s := range summaries {
			fmt.Fprintf(w, "%s: %d row(s) merged into %s (%s mode, %s)\n",
				s.Template, s.Rows, describeOutput(s), s.Mode, s.Duration)
			for _, e := range s.Errors {
				fmt.Fprintf(w, "  failed: %s\n", e)
			}
		}
		return nil
	}
}

func describeOutput(s summary) string {
	switch {
	case s.Archive != "":
		return s.Archive
	case len(s.Files) == 1:
		return s.Files[0]
	default:
		return fmt.Sprintf("%d file(s)", len(s.Files))
	}
}
