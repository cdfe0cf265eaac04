// Package memtree provides a mutable in-memory tree backend for the
// engine. It serves both as a source tree (populated through Parse) and
// as a result tree (populated through the factory operations).
//
// Nodes hold parent pointers and child slices, so parents and children
// refer to each other; Go's garbage collector reclaims such cycles.
// Identity is pointer identity and document order is derived from tree
// position.
package memtree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/livefir/xslt"
)

// Node is a node of an in-memory tree. The zero value is not usable;
// obtain nodes from NewDocument, Parse or the factory methods.
type Node struct {
	kind     xslt.NodeType
	name     xslt.QName
	value    string
	parent   *Node
	children []*Node
	attrs    []*Node
}

var _ xslt.Node = (*Node)(nil)

// NewDocument returns an empty document node.
func NewDocument() *Node {
	return &Node{kind: xslt.DocumentNode}
}

// Parse builds a document from XML text.
func Parse(src string) (*Node, error) {
	doc := NewDocument()
	dec := xml.NewDecoder(strings.NewReader(src))
	cur := doc
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &Node{
				kind: xslt.ElementNode,
				name: qnameOf(t.Name),
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				el.attrs = append(el.attrs, &Node{
					kind:   xslt.AttributeNode,
					name:   qnameOf(a.Name),
					value:  a.Value,
					parent: el,
				})
			}
			el.parent = cur
			cur.children = append(cur.children, el)
			cur = el
		case xml.EndElement:
			cur = cur.parent
		case xml.CharData:
			s := string(t)
			if strings.TrimSpace(s) == "" && cur.kind == xslt.DocumentNode {
				continue
			}
			cur.children = append(cur.children, &Node{
				kind:   xslt.TextNode,
				value:  s,
				parent: cur,
			})
		case xml.Comment:
			cur.children = append(cur.children, &Node{
				kind:   xslt.CommentNode,
				value:  string(t),
				parent: cur,
			})
		case xml.ProcInst:
			cur.children = append(cur.children, &Node{
				kind:   xslt.ProcessingInstructionNode,
				name:   xslt.NewQName(t.Target),
				value:  string(t.Inst),
				parent: cur,
			})
		}
	}
	if cur != doc {
		return nil, fmt.Errorf("parse XML: unclosed element %s", cur.name)
	}
	return doc, nil
}

func qnameOf(n xml.Name) xslt.QName {
	return xslt.QName{NamespaceURI: n.Space, LocalName: n.Local}
}

// Type reports the node kind.
func (n *Node) Type() xslt.NodeType { return n.kind }

// Name reports the qualified name.
func (n *Node) Name() xslt.QName { return n.name }

// StringValue is the XPath string value: the concatenated text content
// for documents and elements, the stored value otherwise.
func (n *Node) StringValue() string {
	switch n.kind {
	case xslt.DocumentNode, xslt.ElementNode:
		var b strings.Builder
		n.writeText(&b)
		return b.String()
	default:
		return n.value
	}
}

func (n *Node) writeText(b *strings.Builder) {
	for _, c := range n.children {
		if c.kind == xslt.TextNode {
			b.WriteString(c.value)
		}
		if c.kind == xslt.ElementNode {
			c.writeText(b)
		}
	}
}

// IsSame reports pointer identity.
func (n *Node) IsSame(other xslt.Node) bool {
	o, ok := other.(*Node)
	return ok && o == n
}

// path returns the position of the node as child indexes from the root.
// Attributes sort directly after their owning element and before its
// children, using negative indexes.
func (n *Node) path() []int {
	var p []int
	cur := n
	for cur.parent != nil {
		if cur.kind == xslt.AttributeNode {
			idx := 0
			for i, a := range cur.parent.attrs {
				if a == cur {
					idx = i
					break
				}
			}
			p = append([]int{idx - len(cur.parent.attrs)}, p...)
		} else {
			for i, c := range cur.parent.children {
				if c == cur {
					p = append([]int{i}, p...)
					break
				}
			}
		}
		cur = cur.parent
	}
	return p
}

func (n *Node) root() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// CompareOrder compares document positions. Nodes from different trees
// are an error.
func (n *Node) CompareOrder(other xslt.Node) (int, error) {
	o, ok := other.(*Node)
	if !ok {
		return 0, fmt.Errorf("%w: node belongs to a different backend", xslt.ErrType)
	}
	if n.root() != o.root() {
		return 0, fmt.Errorf("%w: nodes belong to different trees", xslt.ErrType)
	}
	a, b := n.path(), o.path()
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1, nil
			}
			return 1, nil
		}
	}
	// A prefix is an ancestor and comes first.
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	default:
		return 0, nil
	}
}

// Parent returns the parent node. Attributes report their owning element.
func (n *Node) Parent() (xslt.Node, bool) {
	if n.parent == nil {
		return nil, false
	}
	return n.parent, true
}

// Children iterates child nodes in document order.
func (n *Node) Children() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		for _, c := range n.children {
			if !yield(c) {
				return
			}
		}
	}
}

// Descendants iterates all descendants in document order.
func (n *Node) Descendants() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		n.descend(yield)
	}
}

func (n *Node) descend(yield func(xslt.Node) bool) bool {
	for _, c := range n.children {
		if !yield(c) {
			return false
		}
		if !c.descend(yield) {
			return false
		}
	}
	return true
}

// Ancestors iterates ancestors, nearest first, ending at the document.
func (n *Node) Ancestors() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		for cur := n.parent; cur != nil; cur = cur.parent {
			if !yield(cur) {
				return
			}
		}
	}
}

// Attributes iterates the attribute nodes of an element.
func (n *Node) Attributes() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		for _, a := range n.attrs {
			if !yield(a) {
				return
			}
		}
	}
}

// FollowingSiblings iterates siblings after the node, nearest first.
func (n *Node) FollowingSiblings() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		if n.parent == nil || n.kind == xslt.AttributeNode {
			return
		}
		sibs := n.parent.children
		for i, c := range sibs {
			if c == n {
				for _, s := range sibs[i+1:] {
					if !yield(s) {
						return
					}
				}
				return
			}
		}
	}
}

// PrecedingSiblings iterates siblings before the node, nearest first.
func (n *Node) PrecedingSiblings() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		if n.parent == nil || n.kind == xslt.AttributeNode {
			return
		}
		sibs := n.parent.children
		for i, c := range sibs {
			if c == n {
				for j := i - 1; j >= 0; j-- {
					if !yield(sibs[j]) {
						return
					}
				}
				return
			}
		}
	}
}

// NewElement creates a detached element in this tree.
func (n *Node) NewElement(name xslt.QName) (xslt.Node, error) {
	return &Node{kind: xslt.ElementNode, name: name}, nil
}

// NewText creates a detached text node in this tree.
func (n *Node) NewText(value string) (xslt.Node, error) {
	return &Node{kind: xslt.TextNode, value: value}, nil
}

// NewAttribute creates a detached attribute node in this tree.
func (n *Node) NewAttribute(name xslt.QName, value string) (xslt.Node, error) {
	return &Node{kind: xslt.AttributeNode, name: name, value: value}, nil
}

// NewComment creates a detached comment node in this tree.
func (n *Node) NewComment(value string) (xslt.Node, error) {
	return &Node{kind: xslt.CommentNode, value: value}, nil
}

// NewProcessingInstruction creates a detached PI in this tree.
func (n *Node) NewProcessingInstruction(name xslt.QName, value string) (xslt.Node, error) {
	return &Node{kind: xslt.ProcessingInstructionNode, name: name, value: value}, nil
}

// AppendChild attaches child as the last child. The child must come from
// this backend and must not be an attribute or a document.
func (n *Node) AppendChild(child xslt.Node) error {
	c, ok := child.(*Node)
	if !ok {
		return fmt.Errorf("%w: child belongs to a different backend", xslt.ErrType)
	}
	switch c.kind {
	case xslt.AttributeNode:
		return fmt.Errorf("%w: an attribute cannot be appended as a child", xslt.ErrType)
	case xslt.DocumentNode:
		return fmt.Errorf("%w: a document cannot be appended as a child", xslt.ErrType)
	}
	c.parent = n
	n.children = append(n.children, c)
	return nil
}

// AddAttribute attaches attr to an element, replacing any existing
// attribute of the same name.
func (n *Node) AddAttribute(attr xslt.Node) error {
	a, ok := attr.(*Node)
	if !ok {
		return fmt.Errorf("%w: attribute belongs to a different backend", xslt.ErrType)
	}
	if n.kind != xslt.ElementNode {
		return fmt.Errorf("%w: attributes can only be added to elements", xslt.ErrType)
	}
	if a.kind != xslt.AttributeNode {
		return fmt.Errorf("%w: node is not an attribute", xslt.ErrType)
	}
	a.parent = n
	for i, old := range n.attrs {
		if old.name == a.name {
			n.attrs[i] = a
			return nil
		}
	}
	n.attrs = append(n.attrs, a)
	return nil
}

// XML renders the subtree as XML text, for inspection and tests. It is
// not a conforming serializer.
func (n *Node) XML() string {
	var b strings.Builder
	n.writeXML(&b)
	return b.String()
}

func (n *Node) writeXML(b *strings.Builder) {
	switch n.kind {
	case xslt.DocumentNode:
		for _, c := range n.children {
			c.writeXML(b)
		}
	case xslt.ElementNode:
		b.WriteString("<" + n.name.String())
		for _, a := range n.attrs {
			fmt.Fprintf(b, " %s=%q", a.name, a.value)
		}
		if len(n.children) == 0 {
			b.WriteString("/>")
			return
		}
		b.WriteString(">")
		for _, c := range n.children {
			c.writeXML(b)
		}
		b.WriteString("</" + n.name.String() + ">")
	case xslt.TextNode:
		b.WriteString(n.value)
	case xslt.CommentNode:
		b.WriteString("<!--" + n.value + "-->")
	case xslt.ProcessingInstructionNode:
		b.WriteString("<?" + n.name.String() + " " + n.value + "?>")
	case xslt.AttributeNode:
		fmt.Fprintf(b, "%s=%q", n.name, n.value)
	}
}
