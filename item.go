package xslt

import "strings"

// Item is one member of a sequence: either an atomic value or a node
// handle. The zero Item is invalid.
type Item struct {
	value Value
	node  Node
}

// ValueItem wraps an atomic value as an item.
func ValueItem(v Value) Item { return Item{value: v} }

// NodeItem wraps a node handle as an item.
func NodeItem(n Node) Item { return Item{node: n} }

// IsNode reports whether the item is a node.
func (it Item) IsNode() bool { return it.node != nil }

// Node returns the node handle, or nil for a value item.
func (it Item) Node() Node { return it.node }

// Value returns the atomic value. For a node item it returns the zero Value.
func (it Item) Value() Value { return it.value }

// String gives the string form: a node's string value, or the value's
// string rendering.
func (it Item) String() string {
	if it.node != nil {
		return it.node.StringValue()
	}
	return it.value.String()
}

// Bool gives the effective boolean value of the item. A node is always true.
func (it Item) Bool() bool {
	if it.node != nil {
		return true
	}
	return it.value.Bool()
}

// Int converts the item to an integer.
func (it Item) Int() (int64, error) {
	if it.node != nil {
		return NewString(it.node.StringValue()).Int()
	}
	return it.value.Int()
}

// Double converts the item to a double, NaN if not convertible.
func (it Item) Double() float64 {
	if it.node != nil {
		return NewString(it.node.StringValue()).Double()
	}
	return it.value.Double()
}

// Compare compares two items under an operator. Nodes compare by their
// string values under the ordering operators; Is, Before and After
// require both items to be nodes.
func (it Item) Compare(other Item, op Operator) (bool, error) {
	switch op {
	case Is:
		if it.node == nil || other.node == nil {
			return false, errType("is operator requires node operands")
		}
		return it.node.IsSame(other.node), nil
	case Before:
		if it.node == nil || other.node == nil {
			return false, errType("<< operator requires node operands")
		}
		c, err := it.node.CompareOrder(other.node)
		if err != nil {
			return false, err
		}
		return c < 0, nil
	case After:
		if it.node == nil || other.node == nil {
			return false, errType(">> operator requires node operands")
		}
		c, err := it.node.CompareOrder(other.node)
		if err != nil {
			return false, err
		}
		return c > 0, nil
	}
	return it.toValue().Compare(other.toValue(), op)
}

func (it Item) toValue() Value {
	if it.node != nil {
		return NewString(it.node.StringValue())
	}
	return it.value
}

// Sequence is an ordered sequence of items. The empty sequence is valid
// and is the universal "nothing" result.
type Sequence []Item

// String concatenates the string forms of the items.
func (s Sequence) String() string {
	var b strings.Builder
	for _, it := range s {
		b.WriteString(it.String())
	}
	return b.String()
}

// Bool implements the effective boolean value rule: an empty sequence is
// false; a sequence whose first item is a node is true; otherwise the
// first item decides.
func (s Sequence) Bool() bool {
	if len(s) == 0 {
		return false
	}
	return s[0].Bool()
}

// Singleton reports whether the sequence has exactly one item.
func (s Sequence) Singleton() bool { return len(s) == 1 }
