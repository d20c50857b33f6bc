package mailmerge

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge/xml"
)

// Template is a loaded document template. It is never mutated after
// loading, so one Template can back any number of concurrent merges.
type Template struct {
	path   string
	source []byte
	reader *DocxReader
	doc    *xml.Document
	body   *xml.Node
}

// LoadTemplate reads and parses a DOCX template from disk.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}
	return LoadTemplateBytes(path, data)
}

// LoadTemplateBytes parses a DOCX template held in memory. name is used in
// errors and as the template's path.
func LoadTemplateBytes(name string, data []byte) (*Template, error) {
	reader, err := NewDocxReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, NewDocumentError("open", name, err)
	}
	if !reader.HasPart(documentPart) {
		return nil, &TemplateMissingContentError{Path: name, Part: documentPart}
	}

	content, err := reader.GetDocumentXML()
	if err != nil {
		return nil, NewDocumentError("read", name, err)
	}
	doc, err := xml.ParseDocument(bytes.NewReader(content))
	if err != nil {
		return nil, NewDocumentError("parse", name, err)
	}

	body := doc.Body()
	if body == nil {
		return nil, &TemplateMissingContentError{Path: name, Part: "w:body"}
	}

	return &Template{
		path:   name,
		source: data,
		reader: reader,
		doc:    doc,
		body:   body,
	}, nil
}

// Path returns the path or name the template was loaded from.
func (t *Template) Path() string {
	return t.path
}

// Body returns the template's w:body element. Callers must not modify it.
func (t *Template) Body() *xml.Node {
	return t.body
}

// CloneBody returns an independent deep copy of the body.
func (t *Template) CloneBody() *xml.Node {
	return t.body.Clone()
}

// BlockElements returns deep copies of the body's content elements, without
// the trailing section properties.
func (t *Template) BlockElements() []*xml.Node {
	blocks := xml.BlockElements(t.body)
	out := make([]*xml.Node, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return out
}

// CloneDocument returns an independent deep copy of the main document part.
func (t *Template) CloneDocument() *xml.Document {
	return t.doc.Clone()
}

// Prefix returns the namespace prefix used for WordprocessingML elements.
func (t *Template) Prefix() string {
	return t.body.Name.Prefix
}

// WriteDocument writes a complete package to w: the template's parts with
// the main document replaced by doc.
func (t *Template) WriteDocument(w io.Writer, doc *xml.Document) error {
	content, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return writePackage(w, t.reader, content)
}

// Source returns the raw bytes of the template package.
func (t *Template) Source() []byte {
	return t.source
}
