package xml

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Document is a parsed XML part such as word/document.xml.
type Document struct {
	// Root is the DocumentNode; its children are the prolog nodes and the root element.
	Root *Node
}

// ParseDocument parses an XML part into a node tree. Namespace prefixes are
// kept as written; nothing is resolved or rewritten.
func ParseDocument(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)

	root := &Node{Type: DocumentNode}
	stack := []*Node{root}

	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		parent := stack[len(stack)-1]

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{
				Type: ElementNode,
				Name: Name{Prefix: t.Name.Space, Local: t.Name.Local},
			}
			if len(t.Attr) > 0 {
				el.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					el.Attrs[i] = Attr{
						Name:  Name{Prefix: a.Name.Space, Local: a.Name.Local},
						Value: a.Value,
					}
				}
			}
			parent.AppendChild(el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, fmt.Errorf("failed to parse document: unexpected end element %s", qualified(t.Name))
			}
			open := stack[len(stack)-1]
			if open.Name.Prefix != t.Name.Space || open.Name.Local != t.Name.Local {
				return nil, fmt.Errorf("failed to parse document: element %s closed by %s", open.Name, qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			parent.AppendChild(&Node{Type: TextNode, Data: string(t)})
		case xml.Comment:
			parent.AppendChild(&Node{Type: CommentNode, Data: string(t)})
		case xml.ProcInst:
			parent.AppendChild(&Node{
				Type: ProcInstNode,
				Name: Name{Local: t.Target},
				Data: string(t.Inst),
			})
		case xml.Directive:
			parent.AppendChild(&Node{Type: DirectiveNode, Data: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("failed to parse document: unclosed element %s", stack[len(stack)-1].Name)
	}

	doc := &Document{Root: root}
	if doc.Element() == nil {
		return nil, fmt.Errorf("failed to parse document: no root element")
	}
	return doc, nil
}

func qualified(n xml.Name) string {
	return Name{Prefix: n.Space, Local: n.Local}.String()
}

// Element returns the root element (w:document for a main document part).
func (doc *Document) Element() *Node {
	if doc == nil || doc.Root == nil {
		return nil
	}
	for _, c := range doc.Root.Children {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// Body returns the w:body element, or nil when the part has none.
func (doc *Document) Body() *Node {
	el := doc.Element()
	if el == nil {
		return nil
	}
	for _, c := range el.Children {
		if c.IsElement("body") {
			return c
		}
	}
	return nil
}

// Clone returns a deep copy of the whole document.
func (doc *Document) Clone() *Document {
	return &Document{Root: doc.Root.Clone()}
}

// Encode writes the document back as XML.
func (doc *Document) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, c := range doc.Root.Children {
		if err := encodeNode(bw, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Bytes encodes the document into a byte slice.
func (doc *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeNode writes a single node and its subtree.
func EncodeNode(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	if err := encodeNode(bw, n); err != nil {
		return err
	}
	return bw.Flush()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

func encodeNode(w *bufio.Writer, n *Node) error {
	switch n.Type {
	case DocumentNode:
		for _, c := range n.Children {
			if err := encodeNode(w, c); err != nil {
				return err
			}
		}
	case ElementNode:
		w.WriteByte('<')
		w.WriteString(n.Name.String())
		for _, a := range n.Attrs {
			w.WriteByte(' ')
			w.WriteString(a.Name.String())
			w.WriteString(`="`)
			w.WriteString(attrEscaper.Replace(a.Value))
			w.WriteByte('"')
		}
		if len(n.Children) == 0 {
			w.WriteString("/>")
			return nil
		}
		w.WriteByte('>')
		for _, c := range n.Children {
			if err := encodeNode(w, c); err != nil {
				return err
			}
		}
		w.WriteString("</")
		w.WriteString(n.Name.String())
		w.WriteByte('>')
	case TextNode:
		w.WriteString(textEscaper.Replace(n.Data))
	case CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")
	case ProcInstNode:
		w.WriteString("<?")
		w.WriteString(n.Name.Local)
		if n.Data != "" {
			w.WriteByte(' ')
			w.WriteString(n.Data)
		}
		w.WriteString("?>")
	case DirectiveNode:
		w.WriteString("<!")
		w.WriteString(n.Data)
		w.WriteByte('>')
	default:
		return fmt.Errorf("cannot encode node of type %s", n.Type)
	}
	return nil
}
