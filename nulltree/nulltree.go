// Package nulltree provides a tree backend that implements nothing:
// every axis is empty and every factory fails. It exists for code that
// is generic in the Node interface but never touches real nodes, and for
// tests that exercise the value-only parts of the engine.
package nulltree

import (
	"fmt"
	"iter"

	"github.com/livefir/xslt"
)

// Node is the null node. All Node values are interchangeable.
type Node struct{}

var _ xslt.Node = Node{}

// New returns a null node.
func New() Node { return Node{} }

// Type reports UnknownNode.
func (Node) Type() xslt.NodeType { return xslt.UnknownNode }

// Name returns the zero name.
func (Node) Name() xslt.QName { return xslt.QName{} }

// StringValue returns the empty string.
func (Node) StringValue() string { return "" }

// IsSame always reports false.
func (Node) IsSame(xslt.Node) bool { return false }

// CompareOrder always reports equal order.
func (Node) CompareOrder(xslt.Node) (int, error) { return 0, nil }

// Parent reports no parent.
func (Node) Parent() (xslt.Node, bool) { return nil, false }

func emptySeq() iter.Seq[xslt.Node] {
	return func(func(xslt.Node) bool) {}
}

// Children is empty.
func (Node) Children() iter.Seq[xslt.Node] { return emptySeq() }

// Descendants is empty.
func (Node) Descendants() iter.Seq[xslt.Node] { return emptySeq() }

// Ancestors is empty.
func (Node) Ancestors() iter.Seq[xslt.Node] { return emptySeq() }

// Attributes is empty.
func (Node) Attributes() iter.Seq[xslt.Node] { return emptySeq() }

// FollowingSiblings is empty.
func (Node) FollowingSiblings() iter.Seq[xslt.Node] { return emptySeq() }

// PrecedingSiblings is empty.
func (Node) PrecedingSiblings() iter.Seq[xslt.Node] { return emptySeq() }

func notImplemented() error {
	return fmt.Errorf("%w: null tree", xslt.ErrNotImplemented)
}

// NewElement fails.
func (Node) NewElement(xslt.QName) (xslt.Node, error) { return nil, notImplemented() }

// NewText fails.
func (Node) NewText(string) (xslt.Node, error) { return nil, notImplemented() }

// NewAttribute fails.
func (Node) NewAttribute(xslt.QName, string) (xslt.Node, error) { return nil, notImplemented() }

// NewComment fails.
func (Node) NewComment(string) (xslt.Node, error) { return nil, notImplemented() }

// NewProcessingInstruction fails.
func (Node) NewProcessingInstruction(xslt.QName, string) (xslt.Node, error) {
	return nil, notImplemented()
}

// AppendChild fails.
func (Node) AppendChild(xslt.Node) error { return notImplemented() }

// AddAttribute fails.
func (Node) AddAttribute(xslt.Node) error { return notImplemented() }
