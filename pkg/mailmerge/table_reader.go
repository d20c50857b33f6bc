package mailmerge

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// ReadOption configures ReadTable.
type ReadOption func(*readOptions)

type readOptions struct {
	sheet  string
	strict bool
	logger *Logger
}

// WithSheet selects the worksheet to read. The first sheet is used when unset.
func WithSheet(name string) ReadOption {
	return func(o *readOptions) {
		o.sheet = name
	}
}

// WithStrict makes unresolvable shared string references fail the read with
// a DataIntegrityError instead of blanking the cell.
func WithStrict(strict bool) ReadOption {
	return func(o *readOptions) {
		o.strict = strict
	}
}

// WithReadLogger sets the logger used while reading.
func WithReadLogger(logger *Logger) ReadOption {
	return func(o *readOptions) {
		o.logger = logger
	}
}

// ReadTable reads the first row of a worksheet as the header and every
// following row as data.
func ReadTable(path string, opts ...ReadOption) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}
	t, err := ReadTableFromReader(bytes.NewReader(data), int64(len(data)), opts...)
	if err != nil {
		return nil, WithContext(err, "read table", map[string]interface{}{"path": path})
	}
	return t, nil
}

// ReadTableFromReader reads a table from an XLSX workbook held in r.
func ReadTableFromReader(r io.ReaderAt, size int64, opts ...ReadOption) (*Table, error) {
	o := readOptions{logger: GetLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger

	f, err := excelize.OpenReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := o.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	dangling, err := danglingSharedStrings(r, size, sheet)
	if err != nil {
		if o.strict {
			return nil, err
		}
		log.Warn("Shared string check skipped", "sheet", sheet, "err", err)
	}
	if len(dangling) > 0 && o.strict {
		ref := dangling[0]
		return nil, &DataIntegrityError{Sheet: sheet, Cell: ref.Cell, Index: ref.Index, Count: ref.Count}
	}

	// Dangling cells are cleared in the loaded sheet; excelize would index
	// the shared string table with them while reading rows.
	for _, ref := range dangling {
		log.Warn("Shared string index out of range; cell treated as empty",
			"sheet", sheet, "cell", ref.Cell, "index", ref.Index, "count", ref.Count)
		if err := f.SetCellDefault(sheet, ref.Cell, ""); err != nil {
			return nil, fmt.Errorf("failed to clear cell %s: %w", ref.Cell, err)
		}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	if len(rows) == 0 {
		log.Warn("Worksheet is empty", "sheet", sheet)
		return NewTable(nil, nil), nil
	}

	header, data := rows[0], rows[1:]
	table, skipped := buildTable(header, data)
	for _, msg := range skipped {
		log.Warn("Header column ignored", "sheet", sheet, "reason", msg)
	}

	if log.IsDebugMode() {
		for _, name := range table.fields {
			for i, v := range table.columns[name] {
				log.Debug("Cell read", "row", i+1, "column", name, "value", v)
			}
		}
	}

	log.Info("Table read", "sheet", sheet, "fields", table.Width(), "rows", table.RowCount())
	return table, nil
}
