package mailmerge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// Engine runs merges with one configuration.
// Use New() to create a new engine instance.
type Engine struct {
	config *Config
	cache  *TemplateCache
	logger *Logger
}

// Result summarises one merge run.
type Result struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Mode     OutputMode    `json:"mode" yaml:"mode"`
	Template string        `json:"template" yaml:"template"`
	Table    string        `json:"table,omitempty" yaml:"table,omitempty"`
	Rows     int           `json:"rows" yaml:"rows"`
	Failed   int           `json:"failed" yaml:"failed"`
	Files    []string      `json:"files" yaml:"files"`
	Archive  string        `json:"archive,omitempty" yaml:"archive,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	// Errors holds the row failures of a lenient per-row run.
	Errors []error `json:"-" yaml:"-"`
}

// New creates an engine with the global configuration.
func New() *Engine {
	return NewWithConfig(GetGlobalConfig())
}

// NewWithConfig creates an engine with a custom configuration.
func NewWithConfig(config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	return &Engine{
		config: config,
		cache: NewTemplateCacheWithConfig(CacheConfig{
			MaxSize: config.CacheMaxSize,
			TTL:     config.CacheTTL,
		}),
		logger: GetLogger(),
	}
}

// WithLogger returns a copy of the engine that logs to logger.
func (e *Engine) WithLogger(logger *Logger) *Engine {
	c := *e
	c.logger = logger
	return &c
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Output builds an Output from the configured mode and archive setting.
func (e *Engine) Output(dir string) (Output, error) {
	mode, err := ParseOutputMode(e.config.Mode)
	if err != nil {
		return Output{}, err
	}
	return Output{Mode: mode, Dir: dir, Archive: e.config.Archive}, nil
}

// ReadTable reads a table with the configured sheet and strictness.
func (e *Engine) ReadTable(path string) (*Table, error) {
	return ReadTable(path,
		WithSheet(e.config.Sheet),
		WithStrict(e.config.StrictMode),
		WithReadLogger(e.logger),
	)
}

// LoadTemplate loads a template through the engine's cache.
func (e *Engine) LoadTemplate(path string) (*Template, error) {
	return e.cache.Load(path)
}

// ClearCache drops all cached templates.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// MergeFiles reads the table and template from disk and merges them.
func (e *Engine) MergeFiles(ctx context.Context, tablePath, templatePath string, out Output, progress ProgressReporter) (*Result, error) {
	cfgErr := &ConfigurationError{}
	if tablePath == "" {
		cfgErr.Add("table", "no table selected")
	}
	if templatePath == "" {
		cfgErr.Add("template", "no template selected")
	}
	if err := cfgErr.Err(); err != nil {
		return nil, err
	}

	table, err := e.ReadTable(tablePath)
	if err != nil {
		return nil, err
	}
	tmpl, err := e.LoadTemplate(templatePath)
	if err != nil {
		return nil, err
	}

	tracker := newProgressTracker(progress, table.RowCount())
	tracker.start()
	result, err := e.merge(ctx, table, tmpl, out, tracker, tablePath)
	if result != nil {
		result.Table = tablePath
	}
	return result, err
}

// Merge merges every row of table into tmpl.
//
// In combined mode rows are processed sequentially and the output file is
// only written once all rows succeeded. ctx is checked before the first row
// only; a started combined merge runs to completion.
//
// In per-row mode rows are split into contiguous ranges, one per worker.
// ctx is checked between rows; rows in flight finish. With StrictMode the
// first failing row cancels the rest; otherwise failures are logged,
// collected in Result.Errors and the remaining rows continue.
func (e *Engine) Merge(ctx context.Context, table *Table, tmpl *Template, out Output, progress ProgressReporter) (*Result, error) {
	cfgErr := &ConfigurationError{}
	if table == nil {
		cfgErr.Add("table", "no table selected")
	}
	if tmpl == nil {
		cfgErr.Add("template", "no template selected")
	}
	if err := cfgErr.Err(); err != nil {
		return nil, err
	}

	rows := table.RowCount()
	tracker := newProgressTracker(progress, rows)
	tracker.start()
	return e.merge(ctx, table, tmpl, out, tracker, "")
}

// merge runs one table/template pair. tablePath is the table's source file
// when known; it is protected from per-row cleanup like the template.
func (e *Engine) merge(ctx context.Context, table *Table, tmpl *Template, out Output, tracker *progressTracker, tablePath string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := e.logger.WithField("run_id", runID)

	resolved := ResolveOutput(tmpl.Path(), out)
	if err := checkDestination(resolved, tmpl.Path(), tablePath); err != nil {
		return nil, err
	}
	result := &Result{
		RunID:    runID,
		Mode:     resolved.Mode,
		Template: tmpl.Path(),
	}

	rows := table.RowCount()
	log.Info("Merge started",
		"mode", resolved.Mode, "rows", rows, "fields", table.Width(), "template", tmpl.Path())

	check := CheckTemplate(tmpl, table)
	if check.SplitTokens > 0 && !e.config.MergeRuns {
		log.Warn("Tokens split across runs will not be replaced; enable merge_runs", "count", check.SplitTokens)
	}
	if len(check.Unused) > 0 {
		log.Debug("Fields not referenced by template", "fields", check.Unused)
	}

	var err error
	switch resolved.Mode {
	case ModePerRow:
		err = e.mergePerRow(ctx, table, tmpl, resolved, tracker, result, log)
	default:
		err = e.mergeCombined(ctx, table, tmpl, resolved, tracker, result, log)
	}
	result.Duration = time.Since(start)

	if err != nil {
		log.Error("Merge failed", "err", err, "rows", result.Rows, "failed", result.Failed)
		return result, err
	}
	log.Info("Merge finished",
		"rows", result.Rows, "failed", result.Failed, "files", len(result.Files), "duration", result.Duration)
	return result, nil
}

func (e *Engine) substituteOptions(log *Logger) SubstituteOptions {
	return SubstituteOptions{
		FailOnMissingValue: e.config.FailOnMissingValue,
		MergeRuns:          e.config.MergeRuns,
		Logger:             log,
	}
}

func (e *Engine) mergeCombined(ctx context.Context, table *Table, tmpl *Template, out ResolvedOutput, tracker *progressTracker, result *Result, log *Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := table.RowCount()
	if rows == 0 {
		log.Warn("Table has no data rows; nothing written", "template", tmpl.Path())
		return nil
	}

	opts := e.substituteOptions(log)
	doc := newCombinedDocument(tmpl)
	for i := 0; i < rows; i++ {
		body := tmpl.CloneBody()
		if _, err := Substitute(body, table, i, opts); err != nil {
			return asRowError(err, i, out.Path)
		}
		doc.Append(xml.BlockElements(body))
		tracker.advance()
	}

	if err := doc.Save(out.Path); err != nil {
		return err
	}
	result.Rows = doc.Rows()
	result.Files = []string{out.Path}
	return nil
}

func (e *Engine) mergePerRow(ctx context.Context, table *Table, tmpl *Template, out ResolvedOutput, tracker *progressTracker, result *Result, log *Logger) error {
	if err := prepareDestination(out.Dir, log); err != nil {
		return err
	}

	rows := table.RowCount()
	workers := e.config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > rows {
		workers = rows
	}

	opts := e.substituteOptions(log)
	strict := e.config.StrictMode
	files := make([]string, rows)

	var (
		mu      sync.Mutex
		rowErrs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, part := range partitionRows(rows, workers) {
		part := part
		g.Go(func() error {
			for i := part.start; i < part.end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}

				path := out.RowPath(i)
				if _, err := writeRowFile(path, tmpl, table, i, opts); err != nil {
					rowErr := asRowError(err, i, path)
					if strict {
						return rowErr
					}
					log.Error("Row failed; continuing", "row", i+1, "path", path, "err", err)
					mu.Lock()
					rowErrs = append(rowErrs, rowErr)
					mu.Unlock()
					tracker.advance()
					continue
				}

				files[i] = path
				tracker.advance()
			}
			return nil
		})
	}
	waitErr := g.Wait()

	for _, f := range files {
		if f != "" {
			result.Files = append(result.Files, f)
		}
	}
	result.Rows = len(result.Files)
	result.Failed = len(rowErrs)
	result.Errors = rowErrs

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) || errors.Is(waitErr, context.DeadlineExceeded) {
			return WithContext(waitErr, "merge", map[string]interface{}{"completed": tracker.count(), "total": rows})
		}
		return waitErr
	}

	if out.ArchivePath != "" {
		if err := archiveDirectory(out.Dir, out.ArchivePath); err != nil {
			return err
		}
		result.Archive = out.ArchivePath
		log.Info("Output archived", "archive", out.ArchivePath)
	}
	return nil
}

type rowRange struct {
	start, end int
}

// partitionRows splits [0, rows) into at most workers contiguous ranges
// whose sizes differ by at most one.
func partitionRows(rows, workers int) []rowRange {
	if rows <= 0 || workers <= 0 {
		return nil
	}
	if workers > rows {
		workers = rows
	}
	parts := make([]rowRange, 0, workers)
	size, extra := rows/workers, rows%workers
	start := 0
	for w := 0; w < workers; w++ {
		n := size
		if w < extra {
			n++
		}
		parts = append(parts, rowRange{start: start, end: start + n})
		start += n
	}
	return parts
}

func asRowError(err error, row int, path string) error {
	var rowErr *RowError
	if errors.As(err, &rowErr) {
		if rowErr.Path == "" {
			rowErr.Path = path
		}
		return rowErr
	}
	return &RowError{Row: row, Path: path, Cause: err}
}

// MergeBatch merges every table with every template into one combined
// document each, written to dir (or next to the template when dir is
// empty). Output names are <template>_Result<ext>, or
// <template>_<table>_Result<ext> when more than one table is given.
// Progress totals span the whole batch. The first failure stops the batch.
// An engine configured for per-row output rejects batches.
func (e *Engine) MergeBatch(ctx context.Context, tablePaths, templatePaths []string, dir string, progress ProgressReporter) ([]*Result, error) {
	cfgErr := &ConfigurationError{}
	if len(tablePaths) == 0 {
		cfgErr.Add("tables", "no table selected")
	}
	if len(templatePaths) == 0 {
		cfgErr.Add("templates", "no template selected")
	}
	if mode, err := ParseOutputMode(e.config.Mode); err == nil && mode == ModePerRow {
		cfgErr.Add("mode", "per-row output takes one table and one template; batches are combined")
	}
	if err := cfgErr.Err(); err != nil {
		return nil, err
	}

	tables := make([]*Table, len(tablePaths))
	total := 0
	for i, p := range tablePaths {
		t, err := e.ReadTable(p)
		if err != nil {
			return nil, err
		}
		tables[i] = t
		total += t.RowCount() * len(templatePaths)
	}

	templates := make([]*Template, len(templatePaths))
	for i, p := range templatePaths {
		t, err := e.LoadTemplate(p)
		if err != nil {
			return nil, err
		}
		templates[i] = t
	}

	tracker := newProgressTracker(progress, total)
	tracker.start()

	var results []*Result
	for ti, table := range tables {
		for _, tmpl := range templates {
			ext := filepath.Ext(tmpl.Path())
			name := strings.TrimSuffix(filepath.Base(tmpl.Path()), ext)
			if len(tables) > 1 {
				tableName := filepath.Base(tablePaths[ti])
				name += "_" + strings.TrimSuffix(tableName, filepath.Ext(tableName))
			}
			if ext == "" {
				ext = ".docx"
			}

			out := Output{Mode: ModeCombined, Dir: dir, FileName: name + "_Result" + ext}
			result, err := e.merge(ctx, table, tmpl, out, tracker, tablePaths[ti])
			if result != nil {
				result.Table = tablePaths[ti]
				results = append(results, result)
			}
			if err != nil {
				return results, fmt.Errorf("merging %s into %s: %w", tablePaths[ti], tmpl.Path(), err)
			}
		}
	}
	return results, nil
}

// Err joins the row failures of a lenient run, or returns nil.
func (r *Result) Err() error {
	m := NewMultiError()
	for _, err := range r.Errors {
		m.Add(err)
	}
	return m.Err()
}
