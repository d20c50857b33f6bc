package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

const version = "0.1.0"

// Exit codes
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	// Missing .env is fine; values already in the environment win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mailmerge", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var tables, templates listFlag
	fs.Var(&tables, "table", "Spreadsheet (.xlsx) with a header row; repeat for several")
	fs.Var(&tables, "x", "Shorthand for -table")
	fs.Var(&templates, "template", "Word template (.docx) with @Field tokens; repeat for several")
	fs.Var(&templates, "w", "Shorthand for -template")
	outDir := fs.String("out", "", "Output directory (default: next to the template)")
	mode := fs.String("mode", "", "Output mode: combined or per-row")
	workers := fs.Int("workers", 0, "Parallel workers for per-row output")
	strict := fs.Bool("strict", false, "Abort on unresolvable cells and on the first failed row")
	noArchive := fs.Bool("no-archive", false, "Do not zip the per-row output directory")
	mergeRuns := fs.Bool("merge-runs", false, "Join runs Word split a token across before substituting")
	failMissing := fs.Bool("fail-on-missing", false, "Fail a row when a referenced field has no value")
	sheet := fs.String("sheet", "", "Worksheet to read (default: first sheet)")
	configPath := fs.String("config", "", "YAML configuration file")
	verbose := fs.Bool("v", false, "Debug logging (every cell read, missing values)")
	fs.BoolVar(verbose, "verbose", false, "Same as -v")
	format := fs.String("format", "text", "Summary format: text, json or yaml")
	quiet := fs.Bool("q", false, "No progress bar")
	showVersion := fs.Bool("version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mailmerge -x <table.xlsx> -w <template.docx> [options]\n\n")
		fmt.Fprintf(stderr, "Replaces every @Field in the template with the row's value of column Field.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	if *showVersion {
		fmt.Fprintf(stdout, "mailmerge version %s\n", version)
		return exitOK
	}

	config := mailmerge.DefaultConfig()
	if *configPath != "" {
		loaded, err := mailmerge.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitConfig
		}
		config = loaded
	}
	config.ApplyEnvironment()

	// Only flags given on the command line override file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			config.Mode = *mode
		case "workers":
			config.Workers = *workers
		case "strict":
			config.StrictMode = *strict
		case "no-archive":
			config.Archive = !*noArchive
		case "merge-runs":
			config.MergeRuns = *mergeRuns
		case "fail-on-missing":
			config.FailOnMissingValue = *failMissing
		case "sheet":
			config.Sheet = *sheet
		}
	})
	if *verbose {
		config.LogLevel = "debug"
	}

	issues := &mailmerge.ConfigurationError{}
	if len(tables) == 0 {
		issues.Add("table", "no table selected (-x)")
	}
	if len(templates) == 0 {
		issues.Add("template", "no template selected (-w)")
	}
	if !validFormat(*format) {
		issues.Add("format", "must be text, json or yaml")
	}
	if err := config.Validate(); err != nil {
		var cfgErr *mailmerge.ConfigurationError
		if errors.As(err, &cfgErr) {
			issues.Issues = append(issues.Issues, cfgErr.Issues...)
		}
	}
	if err := issues.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		fs.Usage()
		return exitConfig
	}

	mailmerge.SetGlobalConfig(config)
	engine := mailmerge.NewWithConfig(config)

	var progress mailmerge.ProgressReporter = mailmerge.NopProgress
	if !*quiet {
		bar := newProgressBar(stderr)
		defer bar.Done()
		progress = bar
	}

	var (
		results []*mailmerge.Result
		err     error
	)
	if len(tables) > 1 || len(templates) > 1 {
		results, err = engine.MergeBatch(ctx, tables, templates, *outDir, progress)
	} else {
		var out mailmerge.Output
		out, err = engine.Output(*outDir)
		if err == nil {
			var result *mailmerge.Result
			result, err = engine.MergeFiles(ctx, tables[0], templates[0], out, progress)
			if result != nil {
				results = append(results, result)
			}
		}
	}

	if p, ok := progress.(*progressBar); ok {
		p.Done()
	}

	if len(results) > 0 {
		if werr := writeSummary(stdout, *format, results); werr != nil {
			fmt.Fprintf(stderr, "Error: %v\n", werr)
			return exitFatal
		}
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if mailmerge.IsConfigurationError(err) {
			return exitConfig
		}
		return exitFatal
	}
	for _, r := range results {
		if r.Failed > 0 {
			return exitFatal
		}
	}
	return exitOK
}

func validFormat(f string) bool {
	switch f {
	case "text", "json", "yaml":
		return true
	}
	return false
}
