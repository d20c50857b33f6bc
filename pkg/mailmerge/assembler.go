package mailmerge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// OutputMode selects how merged rows are assembled.
type OutputMode int

const (
	// ModeCombined appends every row to one document, separated by page breaks.
	ModeCombined OutputMode = iota
	// ModePerRow writes one document per row.
	ModePerRow
)

func (m OutputMode) String() string {
	switch m {
	case ModeCombined:
		return "combined"
	case ModePerRow:
		return "per-row"
	default:
		return fmt.Sprintf("OutputMode(%d)", int(m))
	}
}

// ParseOutputMode parses "combined" or "per-row" (also "perrow", "per_row"
// and "files").
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "combined", "single":
		return ModeCombined, nil
	case "per-row", "perrow", "per_row", "files":
		return ModePerRow, nil
	default:
		return 0, fmt.Errorf("unknown output mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m OutputMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Output describes where merge results go.
type Output struct {
	Mode OutputMode
	// Dir is the destination directory. For combined output it defaults to
	// the template's directory; for per-row output to a directory named
	// after the template next to it.
	Dir string
	// FileName overrides the combined output file name.
	FileName string
	// Archive zips the per-row directory after all rows are written.
	Archive bool
	// ArchivePath overrides <templateDir>/<base>.zip.
	ArchivePath string
}

// ResolvedOutput holds the concrete paths of one merge.
type ResolvedOutput struct {
	Mode OutputMode
	// Path is the combined output file.
	Path string
	// Dir is the per-row destination directory.
	Dir string
	// Base and Ext are the template's file name parts.
	Base string
	Ext  string
	// ArchivePath is empty when archiving is off.
	ArchivePath string
}

// ResolveOutput derives output paths from the template path.
func ResolveOutput(templatePath string, out Output) ResolvedOutput {
	templateDir := filepath.Dir(templatePath)
	ext := filepath.Ext(templatePath)
	base := strings.TrimSuffix(filepath.Base(templatePath), ext)
	if ext == "" {
		ext = ".docx"
	}

	r := ResolvedOutput{Mode: out.Mode, Base: base, Ext: ext}

	switch out.Mode {
	case ModePerRow:
		r.Dir = out.Dir
		if r.Dir == "" {
			r.Dir = filepath.Join(templateDir, base)
		}
		if out.Archive {
			r.ArchivePath = out.ArchivePath
			if r.ArchivePath == "" {
				r.ArchivePath = filepath.Join(templateDir, base+".zip")
			}
		}
	default:
		dir := out.Dir
		if dir == "" {
			dir = templateDir
		}
		name := out.FileName
		if name == "" {
			name = base + "_Result" + ext
		}
		r.Dir = dir
		r.Path = filepath.Join(dir, name)
	}

	return r
}

// RowPath returns the per-row file for zero-based row i.
func (r ResolvedOutput) RowPath(i int) string {
	return filepath.Join(r.Dir, r.Base+"_"+strconv.Itoa(i+1)+r.Ext)
}

// combinedDocument owns the single growing output document of a combined
// merge. Rows must be appended in order.
type combinedDocument struct {
	tmpl   *Template
	doc    *xml.Document
	body   *xml.Node
	sectPr *xml.Node
	rows   int
}

func newCombinedDocument(tmpl *Template) *combinedDocument {
	doc := tmpl.CloneDocument()
	body := doc.Body()
	sectPr := xml.SectionProperties(body)
	body.Children = nil
	return &combinedDocument{
		tmpl:   tmpl,
		doc:    doc,
		body:   body,
		sectPr: sectPr,
	}
}

// Append adds one row's content, preceded by a page break unless it is the
// first row.
func (c *combinedDocument) Append(blocks []*xml.Node) {
	if c.rows > 0 {
		c.body.AppendChild(xml.NewPageBreakParagraph(c.tmpl.Prefix()))
	}
	c.body.AppendChild(blocks...)
	c.rows++
}

// Rows returns the number of appended rows.
func (c *combinedDocument) Rows() int {
	return c.rows
}

// Document returns the assembled document with the section properties
// restored as the last body element.
func (c *combinedDocument) Document() *xml.Document {
	doc := c.doc.Clone()
	if c.sectPr != nil {
		doc.Body().AppendChild(c.sectPr.Clone())
	}
	return doc
}

// WriteTo writes the complete package.
func (c *combinedDocument) WriteTo(w io.Writer) error {
	return c.tmpl.WriteDocument(w, c.Document())
}

// Save writes the package to path atomically.
func (c *combinedDocument) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return NewDocumentError("create directory", filepath.Dir(path), err)
	}
	if err := writeFileAtomic(path, c.WriteTo); err != nil {
		return NewDocumentError("save", path, err)
	}
	return nil
}

// checkDestination rejects a per-row directory that holds the template, the
// table source or the archive. The directory is emptied before rows are
// written and archived afterwards.
func checkDestination(out ResolvedOutput, templatePath, tablePath string) error {
	if out.Mode != ModePerRow {
		return nil
	}
	dir, err := filepath.Abs(out.Dir)
	if err != nil {
		return NewDocumentError("resolve", out.Dir, err)
	}

	cfgErr := &ConfigurationError{}
	for _, in := range []struct{ field, path string }{
		{"template", templatePath},
		{"table", tablePath},
		{"archive", out.ArchivePath},
	} {
		if in.path == "" {
			continue
		}
		p, err := filepath.Abs(in.path)
		if err != nil {
			continue
		}
		if isWithin(dir, p) {
			cfgErr.Add(in.field, fmt.Sprintf("%s is inside the per-row output directory %s", in.path, out.Dir))
		}
	}
	return cfgErr.Err()
}

// isWithin reports whether p is dir or lies below it.
func isWithin(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// prepareDestination creates dir and removes the regular files already in
// it. Subdirectories are left alone.
func prepareDestination(dir string, log *Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewDocumentError("create directory", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return NewDocumentError("read directory", dir, err)
	}
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			return NewDocumentError("remove", p, err)
		}
		removed++
	}
	if removed > 0 {
		log.Debug("Destination cleaned", "dir", dir, "removed", removed)
	}
	return nil
}

// writeRowFile copies the template to path, then substitutes row i into the
// copy and saves it in place. A failed row leaves no file behind.
func writeRowFile(path string, tmpl *Template, table *Table, i int, opts SubstituteOptions) (stats SubstitutionStats, err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return stats, NewDocumentError("create", path, err)
	}
	defer func() {
		if err != nil {
			os.Remove(path)
		}
	}()

	_, err = f.Write(tmpl.Source())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return stats, NewDocumentError("copy template", path, err)
	}

	copyTmpl, err := LoadTemplate(path)
	if err != nil {
		return stats, err
	}

	doc := copyTmpl.CloneDocument()
	stats, err = Substitute(doc.Body(), table, i, opts)
	if err != nil {
		return stats, err
	}

	err = writeFileAtomic(path, func(w io.Writer) error {
		return copyTmpl.WriteDocument(w, doc)
	})
	if err != nil {
		return stats, NewDocumentError("save", path, err)
	}
	return stats, nil
}
