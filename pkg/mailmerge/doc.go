// Package mailmerge merges rows of a spreadsheet into a Word (DOCX) template.
//
// Every "@Field" token in the template's text is replaced with that row's
// value of the column whose header is "Field". Whole-number decimals such
// as "5.0" are written as "5"; all other values are inserted unchanged.
//
// Basic Usage:
//
//	engine := mailmerge.New()
//
//	table, err := engine.ReadTable("people.xlsx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	tmpl, err := engine.LoadTemplate("letter.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// One document, rows separated by page breaks: letter_Result.docx
//	result, err := engine.Merge(ctx, table, tmpl,
//	    mailmerge.Output{Mode: mailmerge.ModeCombined}, nil)
//
//	// One document per row in letter/, zipped into letter.zip
//	result, err = engine.Merge(ctx, table, tmpl,
//	    mailmerge.Output{Mode: mailmerge.ModePerRow, Archive: true},
//	    mailmerge.ProgressFunc(func(p mailmerge.Progress) {
//	        fmt.Printf("%d/%d\n", p.Completed, p.Total)
//	    }))
//
// Output Modes:
//
// Combined output is built sequentially in row order and written once at
// the end; if any row fails nothing is written. Per-row output is written
// by a pool of workers (Config.Workers) over contiguous row ranges.
//
// Configuration is read from MAILMERGE_* environment variables or a YAML
// file, see Config.
package mailmerge
