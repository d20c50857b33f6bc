// Package xml provides a small, order-preserving node tree for the XML parts
// of DOCX files.
//
// The tree is generic: every element, attribute and comment of the source is
// kept, including ones no typed model knows about, and encoding writes the
// part back unchanged when nothing was modified.
//
// # Structure Organization
//
//   - node.go: Node, Attr and tree navigation (Find, FindAll, Walk, Clone)
//   - document.go: Document parsing and encoding, body lookup
//   - run.go: paragraph, run and text helpers (text nodes, page breaks)
//
// # Names and namespaces
//
// Names are kept exactly as written in the source: the prefix ("w") and the
// local part ("p") are stored separately and never resolved to namespace
// URIs. Encoding writes them back verbatim, so the namespace declarations on
// the root element stay valid for every copied node.
//
// Example of copying a body:
//
//	doc, err := xml.ParseDocument(r)
//	if err != nil {
//	    return err
//	}
//	body := doc.Body()
//	copy := body.Clone() // shares nothing with body
//	for _, t := range xml.TextNodes(copy) {
//	    t.SetText(strings.ToUpper(t.Text()))
//	}
package xml
