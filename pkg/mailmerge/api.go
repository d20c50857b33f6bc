package mailmerge

import (
	"context"
	"sync"
)

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// DefaultEngine returns the engine used by the package-level functions. It
// is created on first use from the global configuration.
func DefaultEngine() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}

// Merge merges table into tmpl using the default engine.
func Merge(ctx context.Context, table *Table, tmpl *Template, out Output) (*Result, error) {
	return DefaultEngine().Merge(ctx, table, tmpl, out, nil)
}

// MergeFiles reads a table and a template from disk and merges them using
// the default engine.
//
//	result, err := mailmerge.MergeFiles(ctx, "people.xlsx", "letter.docx",
//	    mailmerge.Output{Mode: mailmerge.ModeCombined})
func MergeFiles(ctx context.Context, tablePath, templatePath string, out Output) (*Result, error) {
	return DefaultEngine().MergeFiles(ctx, tablePath, templatePath, out, nil)
}

// MergeBatch merges every table with every template using the default engine.
func MergeBatch(ctx context.Context, tablePaths, templatePaths []string, dir string) ([]*Result, error) {
	return DefaultEngine().MergeBatch(ctx, tablePaths, templatePaths, dir, nil)
}
