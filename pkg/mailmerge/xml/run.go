package xml

import "strings"

// TextNodes returns every w:t element under root in document order.
// Deleted text (w:delText) and field instructions (w:instrText) are not
// included; they are not visible text.
func TextNodes(root *Node) []*Node {
	return root.FindAll("t")
}

// ParagraphTextNodes returns the w:t elements that belong to paragraph p.
// Text of paragraphs nested inside p, such as text box content, is left to
// those paragraphs.
func ParagraphTextNodes(p *Node) []*Node {
	var out []*Node
	p.Walk(func(c *Node) bool {
		if c != p && c.IsElement("p") {
			return false
		}
		if c.IsElement("t") {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Paragraphs returns every w:p element under root, including those nested
// in tables and content controls.
func Paragraphs(root *Node) []*Node {
	return root.FindAll("p")
}

// BlockElements returns the direct children of a body that carry content.
// The trailing section properties (w:sectPr) are excluded: a body has exactly
// one and it must stay last.
func BlockElements(body *Node) []*Node {
	var out []*Node
	for _, c := range body.Children {
		if c.Type != ElementNode || c.Name.Local == "sectPr" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SectionProperties returns the body-level w:sectPr, or nil.
func SectionProperties(body *Node) *Node {
	for _, c := range body.Children {
		if c.IsElement("sectPr") {
			return c
		}
	}
	return nil
}

// NewPageBreakParagraph builds <w:p><w:r><w:br w:type="page"/></w:r></w:p>
// using the given namespace prefix.
func NewPageBreakParagraph(prefix string) *Node {
	br := NewElement(prefix, "br")
	br.SetAttr(prefix, "type", "page")
	return NewElement(prefix, "p", NewElement(prefix, "r", br))
}

// IsPageBreakParagraph reports whether p is a paragraph holding nothing but
// a single page break run, as built by NewPageBreakParagraph.
func IsPageBreakParagraph(p *Node) bool {
	if !p.IsElement("p") {
		return false
	}
	runs := p.ChildElements()
	if len(runs) != 1 || !runs[0].IsElement("r") {
		return false
	}
	content := runs[0].ChildElements()
	if len(content) != 1 || !content[0].IsElement("br") {
		return false
	}
	typ, _ := content[0].Attr("type")
	return typ == "page"
}

// SetRunText sets the text of a w:t element and marks it xml:space="preserve"
// when the value has leading or trailing whitespace, so Word keeps it.
func SetRunText(t *Node, value string) {
	t.SetText(value)
	if value != strings.TrimSpace(value) {
		t.SetAttr("xml", "space", "preserve")
	}
}

// RunProperties returns the w:rPr child of a run, or nil.
func RunProperties(run *Node) *Node {
	for _, c := range run.Children {
		if c.IsElement("rPr") {
			return c
		}
	}
	return nil
}
