package xslt

import "strings"

// Axis is one of the named directions of tree traversal from a context
// node. SelfDocument, SelfAttribute and ParentDocument are synthetic axes
// used only while matching patterns.
type Axis int

const (
	Child Axis = iota
	Descendant
	DescendantOrSelf
	Attribute
	SelfAttribute
	Self
	SelfDocument
	Following
	FollowingSibling
	Namespace
	Parent
	ParentDocument
	Ancestor
	AncestorOrSelf
	Preceding
	PrecedingSibling
	UnknownAxis
)

// AxisFrom parses the XPath name of an axis.
func AxisFrom(s string) Axis {
	switch s {
	case "child":
		return Child
	case "descendant":
		return Descendant
	case "descendant-or-self":
		return DescendantOrSelf
	case "attribute":
		return Attribute
	case "self":
		return Self
	case "following":
		return Following
	case "following-sibling":
		return FollowingSibling
	case "namespace":
		return Namespace
	case "parent":
		return Parent
	case "ancestor":
		return Ancestor
	case "ancestor-or-self":
		return AncestorOrSelf
	case "preceding":
		return Preceding
	case "preceding-sibling":
		return PrecedingSibling
	default:
		return UnknownAxis
	}
}

// String returns the axis name.
func (a Axis) String() string {
	switch a {
	case Child:
		return "child"
	case Descendant:
		return "descendant"
	case DescendantOrSelf:
		return "descendant-or-self"
	case Attribute:
		return "attribute"
	case SelfAttribute:
		return "self-attribute"
	case Self:
		return "self"
	case SelfDocument:
		return "self-document"
	case Following:
		return "following"
	case FollowingSibling:
		return "following-sibling"
	case Namespace:
		return "namespace"
	case Parent:
		return "parent"
	case ParentDocument:
		return "parent-document"
	case Ancestor:
		return "ancestor"
	case AncestorOrSelf:
		return "ancestor-or-self"
	case Preceding:
		return "preceding"
	case PrecedingSibling:
		return "preceding-sibling"
	default:
		return "unknown"
	}
}

// Opposite returns the reverse of the axis, used when converting a
// forward path to a pattern. The opposite of SelfDocument is undefined.
func (a Axis) Opposite() Axis {
	switch a {
	case Child:
		return Parent
	case Descendant:
		return Ancestor
	case DescendantOrSelf:
		return AncestorOrSelf
	case Attribute:
		return SelfAttribute
	case Self:
		return Self
	case Following:
		return Preceding
	case FollowingSibling:
		return PrecedingSibling
	case Namespace:
		return Parent
	case Parent:
		return Child
	case Ancestor:
		return Descendant
	case AncestorOrSelf:
		return DescendantOrSelf
	case Preceding:
		return Following
	case PrecedingSibling:
		return FollowingSibling
	default:
		return UnknownAxis
	}
}

// KindTest selects nodes by type.
type KindTest int

const (
	AnyKindTest KindTest = iota
	DocumentTest
	ElementTest
	AttributeTest
	TextTest
	CommentTest
	PITest
	SchemaElementTest
	SchemaAttributeTest
	NamespaceNodeTest
)

// String returns the test in XPath kind-test spelling.
func (k KindTest) String() string {
	switch k {
	case AnyKindTest:
		return "node()"
	case DocumentTest:
		return "document-node()"
	case ElementTest:
		return "element()"
	case AttributeTest:
		return "attribute()"
	case TextTest:
		return "text()"
	case CommentTest:
		return "comment()"
	case PITest:
		return "processing-instruction()"
	case SchemaElementTest:
		return "schema-element()"
	case SchemaAttributeTest:
		return "schema-attribute()"
	case NamespaceNodeTest:
		return "namespace-node()"
	default:
		return "?"
	}
}

// NamePart is one component of a name test: a literal name or a wildcard.
type NamePart struct {
	Wildcard bool
	Name     string
}

// WildcardPart returns the wildcard component.
func WildcardPart() *NamePart { return &NamePart{Wildcard: true} }

// NamedPart returns a literal component.
func NamedPart(n string) *NamePart { return &NamePart{Name: n} }

func (p *NamePart) String() string {
	if p == nil {
		return ""
	}
	if p.Wildcard {
		return "*"
	}
	return p.Name
}

// NameTest selects named nodes. Either component may be absent, a
// literal, or a wildcard; only the local name participates in matching
// (namespace matching is optional per the data model).
type NameTest struct {
	NS     *NamePart
	Prefix string
	Name   *NamePart
}

// NodeTest is either a kind test or a name test.
type NodeTest struct {
	Kind *KindTest
	Name *NameTest
}

// KindNodeTest wraps a kind test.
func KindNodeTest(k KindTest) NodeTest { return NodeTest{Kind: &k} }

// NameNodeTest wraps a name test.
func NameNodeTest(t NameTest) NodeTest { return NodeTest{Name: &t} }

// ParseNodeTest parses "name", "*", "prefix:name", "*:*", "*:name" or
// "prefix:*" into a name test.
func ParseNodeTest(s string) (NodeTest, error) {
	tok := strings.Split(s, ":")
	switch len(tok) {
	case 1:
		if tok[0] == "*" {
			return NameNodeTest(NameTest{Name: WildcardPart()}), nil
		}
		return NameNodeTest(NameTest{Name: NamedPart(tok[0])}), nil
	case 2:
		t := NameTest{}
		if tok[1] == "*" {
			t.Name = WildcardPart()
		} else {
			t.Name = NamedPart(tok[1])
		}
		if tok[0] == "*" {
			t.NS = WildcardPart()
		} else {
			t.Prefix = tok[0]
		}
		return NameNodeTest(t), nil
	default:
		return NodeTest{}, errType("invalid node test")
	}
}

// String renders the node test.
func (nt NodeTest) String() string {
	if nt.Kind != nil {
		return nt.Kind.String()
	}
	if nt.Name != nil {
		if nt.Name.NS != nil || nt.Name.Prefix != "" {
			prefix := nt.Name.Prefix
			if nt.Name.NS != nil {
				prefix = nt.Name.NS.String()
			}
			return prefix + ":" + nt.Name.Name.String()
		}
		return nt.Name.Name.String()
	}
	return ""
}

// Matches reports whether the node satisfies the test. A name test
// matches elements and attributes by local name, with wildcards matching
// any name. Kind tests select on node type.
func (nt NodeTest) Matches(n Node) bool {
	if nt.Name != nil {
		switch n.Type() {
		case ElementNode, AttributeNode:
			if nt.Name.Name == nil {
				return false
			}
			if nt.Name.Name.Wildcard {
				return true
			}
			return nt.Name.Name.Name == n.Name().LocalName
		default:
			return false
		}
	}
	if nt.Kind == nil {
		return false
	}
	switch *nt.Kind {
	case AnyKindTest:
		return true
	case DocumentTest:
		return n.Type() == DocumentNode
	case ElementTest:
		return n.Type() == ElementNode
	case AttributeTest:
		return n.Type() == AttributeNode
	case TextTest:
		return n.Type() == TextNode
	case CommentTest:
		return n.Type() == CommentNode
	case PITest:
		return n.Type() == ProcessingInstructionNode
	default:
		// Schema and namespace tests are not implemented.
		return false
	}
}

// NodeMatch pairs an axis with a node test.
type NodeMatch struct {
	Axis Axis
	Test NodeTest
}

// String renders the match in axis::test form.
func (nm NodeMatch) String() string {
	return nm.Axis.String() + "::" + nm.Test.String()
}
