package xml

import (
	"strings"
)

// NodeType identifies the kind of a Node.
type NodeType int

const (
	// DocumentNode is the invisible container holding the prolog and the root element.
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

func (t NodeType) String() string {
	switch t {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case ProcInstNode:
		return "procinst"
	case DirectiveNode:
		return "directive"
	default:
		return "unknown"
	}
}

// Name is an element or attribute name as written in the source document.
type Name struct {
	Prefix string
	Local  string
}

// String returns the qualified form, e.g. "w:p".
func (n Name) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// Attr is a single attribute of an element.
type Attr struct {
	Name  Name
	Value string
}

// Node is one node of the tree. Element nodes use Name, Attrs and Children;
// text, comment and directive nodes use Data; processing instructions use
// Name.Local as target and Data as instruction.
type Node struct {
	Type     NodeType
	Name     Name
	Attrs    []Attr
	Data     string
	Children []*Node
}

// NewElement creates an element node.
func NewElement(prefix, local string, children ...*Node) *Node {
	return &Node{
		Type:     ElementNode,
		Name:     Name{Prefix: prefix, Local: local},
		Children: children,
	}
}

// NewText creates a character data node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// IsElement reports whether n is an element with the given local name.
// An empty local name matches any element.
func (n *Node) IsElement(local string) bool {
	if n == nil || n.Type != ElementNode {
		return false
	}
	return local == "" || n.Name.Local == local
}

// Attr returns the value of the attribute with the given local name.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets an attribute, replacing an existing one with the same qualified name.
func (n *Node) SetAttr(prefix, local, value string) {
	for i, a := range n.Attrs {
		if a.Name.Prefix == prefix && a.Name.Local == local {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: Name{Prefix: prefix, Local: local}, Value: value})
}

// AppendChild adds children at the end of n.
func (n *Node) AppendChild(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// ChildElements returns the direct element children of n.
func (n *Node) ChildElements() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the concatenated character data of n and its descendants.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.Type == TextNode {
		return n.Data
	}
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Type == TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// SetText replaces all children of n with a single text node.
func (n *Node) SetText(s string) {
	n.Children = []*Node{NewText(s)}
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Find returns the first descendant element (or n itself) with the given local name.
func (n *Node) Find(local string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.IsElement(local) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant element (including n) with the given local name.
func (n *Node) FindAll(local string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.IsElement(local) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Clone returns a deep copy of n. The copy shares no nodes, attribute
// slices or child slices with n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Type: n.Type,
		Name: n.Name,
		Data: n.Data,
	}
	if len(n.Attrs) > 0 {
		c.Attrs = make([]Attr, len(n.Attrs))
		copy(c.Attrs, n.Attrs)
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}
