// Package htmltree adapts a golang.org/x/net/html document to the
// engine's Node interface, so HTML documents can serve as source trees.
//
// The adapter is read-only: the factory operations fail with
// xslt.ErrNotImplemented, which makes the backend unsuitable as a result
// tree. Use memtree for results.
package htmltree

import (
	"fmt"
	"iter"
	"strings"

	"golang.org/x/net/html"

	"github.com/livefir/xslt"
)

// Parse parses HTML text and returns its document node. The HTML5
// parsing algorithm applies, including implied html/head/body elements.
func Parse(src string) (xslt.Node, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return Wrap(doc), nil
}

// Wrap adapts an existing parsed node.
func Wrap(n *html.Node) xslt.Node { return Node{n: n} }

// Node wraps an element, document, text or comment node.
type Node struct {
	n *html.Node
}

var _ xslt.Node = Node{}

// attrNode wraps one attribute of an element.
type attrNode struct {
	owner *html.Node
	idx   int
}

var _ xslt.Node = attrNode{}

// Type reports the node kind.
func (w Node) Type() xslt.NodeType {
	switch w.n.Type {
	case html.DocumentNode:
		return xslt.DocumentNode
	case html.ElementNode:
		return xslt.ElementNode
	case html.TextNode:
		return xslt.TextNode
	case html.CommentNode:
		return xslt.CommentNode
	default:
		return xslt.UnknownNode
	}
}

// Name reports the element name; other node kinds have none.
func (w Node) Name() xslt.QName {
	if w.n.Type != html.ElementNode {
		return xslt.QName{}
	}
	return xslt.QName{NamespaceURI: w.n.Namespace, LocalName: w.n.Data}
}

// StringValue concatenates the text content of the subtree.
func (w Node) StringValue() string {
	if w.n.Type == html.TextNode {
		return w.n.Data
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(w.n)
	return b.String()
}

// IsSame reports identity.
func (w Node) IsSame(other xslt.Node) bool {
	o, ok := other.(Node)
	return ok && o.n == w.n
}

func nodePath(n *html.Node) []int {
	var p []int
	for cur := n; cur.Parent != nil; cur = cur.Parent {
		i := 0
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			i++
		}
		p = append([]int{i}, p...)
	}
	return p
}

func rootOf(n *html.Node) *html.Node {
	cur := n
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

func comparePaths(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// CompareOrder compares document positions.
func (w Node) CompareOrder(other xslt.Node) (int, error) {
	var on *html.Node
	switch o := other.(type) {
	case Node:
		on = o.n
	case attrNode:
		on = o.owner
	default:
		return 0, fmt.Errorf("%w: node belongs to a different backend", xslt.ErrType)
	}
	if rootOf(w.n) != rootOf(on) {
		return 0, fmt.Errorf("%w: nodes belong to different trees", xslt.ErrType)
	}
	c := comparePaths(nodePath(w.n), nodePath(on))
	if c == 0 {
		if _, isAttr := other.(attrNode); isAttr {
			// An element precedes its own attributes.
			return -1, nil
		}
	}
	return c, nil
}

// Parent returns the parent node.
func (w Node) Parent() (xslt.Node, bool) {
	if w.n.Parent == nil {
		return nil, false
	}
	return Node{n: w.n.Parent}, true
}

// Children iterates child nodes in document order.
func (w Node) Children() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		for c := w.n.FirstChild; c != nil; c = c.NextSibling {
			if !yield(Node{n: c}) {
				return
			}
		}
	}
}

// Descendants iterates all descendants in document order.
func (w Node) Descendants() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		var walk func(*html.Node) bool
		walk = func(n *html.Node) bool {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if !yield(Node{n: c}) {
					return false
				}
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(w.n)
	}
}

// Ancestors iterates ancestors, nearest first.
func (w Node) Ancestors() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		for cur := w.n.Parent; cur != nil; cur = cur.Parent {
			if !yield(Node{n: cur}) {
				return
			}
		}
	}
}

// Attributes iterates the attributes of an element.
func (w Node) Attributes() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		for i := range w.n.Attr {
			if !yield(attrNode{owner: w.n, idx: i}) {
				return
			}
		}
	}
}

// FollowingSiblings iterates siblings after the node, nearest first.
func (w Node) FollowingSiblings() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		for s := w.n.NextSibling; s != nil; s = s.NextSibling {
			if !yield(Node{n: s}) {
				return
			}
		}
	}
}

// PrecedingSiblings iterates siblings before the node, nearest first.
func (w Node) PrecedingSiblings() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		for s := w.n.PrevSibling; s != nil; s = s.PrevSibling {
			if !yield(Node{n: s}) {
				return
			}
		}
	}
}

func notImplemented() error {
	return fmt.Errorf("%w: htmltree is a read-only backend", xslt.ErrNotImplemented)
}

// NewElement fails: the backend is read-only.
func (Node) NewElement(xslt.QName) (xslt.Node, error) { return nil, notImplemented() }

// NewText fails: the backend is read-only.
func (Node) NewText(string) (xslt.Node, error) { return nil, notImplemented() }

// NewAttribute fails: the backend is read-only.
func (Node) NewAttribute(xslt.QName, string) (xslt.Node, error) { return nil, notImplemented() }

// NewComment fails: the backend is read-only.
func (Node) NewComment(string) (xslt.Node, error) { return nil, notImplemented() }

// NewProcessingInstruction fails: the backend is read-only.
func (Node) NewProcessingInstruction(xslt.QName, string) (xslt.Node, error) {
	return nil, notImplemented()
}

// AppendChild fails: the backend is read-only.
func (Node) AppendChild(xslt.Node) error { return notImplemented() }

// AddAttribute fails: the backend is read-only.
func (Node) AddAttribute(xslt.Node) error { return notImplemented() }

// Type reports AttributeNode.
func (attrNode) Type() xslt.NodeType { return xslt.AttributeNode }

// Name reports the attribute name.
func (a attrNode) Name() xslt.QName {
	at := a.owner.Attr[a.idx]
	return xslt.QName{NamespaceURI: at.Namespace, LocalName: at.Key}
}

// StringValue is the attribute value.
func (a attrNode) StringValue() string { return a.owner.Attr[a.idx].Val }

// IsSame reports identity.
func (a attrNode) IsSame(other xslt.Node) bool {
	o, ok := other.(attrNode)
	return ok && o.owner == a.owner && o.idx == a.idx
}

// CompareOrder compares document positions; attributes follow their
// owning element.
func (a attrNode) CompareOrder(other xslt.Node) (int, error) {
	switch o := other.(type) {
	case attrNode:
		if o.owner == a.owner {
			return a.idx - o.idx, nil
		}
		return Node{n: a.owner}.CompareOrder(Node{n: o.owner})
	case Node:
		c, err := Node{n: a.owner}.CompareOrder(o)
		if err != nil {
			return 0, err
		}
		if c == 0 {
			return 1, nil
		}
		return c, nil
	default:
		return 0, fmt.Errorf("%w: node belongs to a different backend", xslt.ErrType)
	}
}

// Parent returns the owning element.
func (a attrNode) Parent() (xslt.Node, bool) { return Node{n: a.owner}, true }

func emptySeq() iter.Seq[xslt.Node] {
	return func(func(xslt.Node) bool) {}
}

// Children is empty for attributes.
func (attrNode) Children() iter.Seq[xslt.Node] { return emptySeq() }

// Descendants is empty for attributes.
func (attrNode) Descendants() iter.Seq[xslt.Node] { return emptySeq() }

// Ancestors iterates the owning element and its ancestors.
func (a attrNode) Ancestors() iter.Seq[xslt.Node] {
	return func(yield func(xslt.Node) bool) {
		if !yield(Node{n: a.owner}) {
			return
		}
		for cur := a.owner.Parent; cur != nil; cur = cur.Parent {
			if !yield(Node{n: cur}) {
				return
			}
		}
	}
}

// Attributes is empty for attributes.
func (attrNode) Attributes() iter.Seq[xslt.Node] { return emptySeq() }

// FollowingSiblings is empty for attributes.
func (attrNode) FollowingSiblings() iter.Seq[xslt.Node] { return emptySeq() }

// PrecedingSiblings is empty for attributes.
func (attrNode) PrecedingSiblings() iter.Seq[xslt.Node] { return emptySeq() }

// NewElement fails: the backend is read-only.
func (attrNode) NewElement(xslt.QName) (xslt.Node, error) { return nil, notImplemented() }

// NewText fails: the backend is read-only.
func (attrNode) NewText(string) (xslt.Node, error) { return nil, notImplemented() }

// NewAttribute fails: the backend is read-only.
func (attrNode) NewAttribute(xslt.QName, string) (xslt.Node, error) { return nil, notImplemented() }

// NewComment fails: the backend is read-only.
func (attrNode) NewComment(string) (xslt.Node, error) { return nil, notImplemented() }

// NewProcessingInstruction fails: the backend is read-only.
func (attrNode) NewProcessingInstruction(xslt.QName, string) (xslt.Node, error) {
	return nil, notImplemented()
}

// AppendChild fails: the backend is read-only.
func (attrNode) AppendChild(xslt.Node) error { return notImplemented() }

// AddAttribute fails: the backend is read-only.
func (attrNode) AddAttribute(xslt.Node) error { return notImplemented() }
