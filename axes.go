package xslt

import "iter"

func collectAxis(nodes iter.Seq[Node], test NodeTest) Sequence {
	var seq Sequence
	for n := range nodes {
		if test.Matches(n) {
			seq = append(seq, NodeItem(n))
		}
	}
	return seq
}

// followingNodes synthesises the following axis (XPath 3.3.2.1): for the
// context node and each of its ancestors, every following sibling and
// that sibling's descendants.
func followingNodes(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if !siblingsAndDescendants(n.FollowingSiblings(), yield) {
			return
		}
		for a := range n.Ancestors() {
			if !siblingsAndDescendants(a.FollowingSiblings(), yield) {
				return
			}
		}
	}
}

// precedingNodes synthesises the preceding axis: for the context node and
// each of its ancestors, every preceding sibling and that sibling's
// descendants.
func precedingNodes(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if !siblingsAndDescendants(n.PrecedingSiblings(), yield) {
			return
		}
		for a := range n.Ancestors() {
			if !siblingsAndDescendants(a.PrecedingSiblings(), yield) {
				return
			}
		}
	}
}

func siblingsAndDescendants(sibs iter.Seq[Node], yield func(Node) bool) bool {
	for s := range sibs {
		if !yield(s) {
			return false
		}
		for d := range s.Descendants() {
			if !yield(d) {
				return false
			}
		}
	}
	return true
}
