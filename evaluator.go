// Package xslt implements the evaluation core of an XSLT 1.0/2.0-style
// transformation engine: a tree-walking interpreter that runs a compiled
// stylesheet — a tree of sequence constructors plus a set of templates
// keyed by patterns — against a source tree to produce a result tree.
//
// The engine addresses trees only through the Node interface, so any
// backend implementing that capability set can supply source or result
// trees. Evaluation is single-threaded and synchronous: one evaluator
// processes one transformation at a time, and the dynamic context is
// mutated in place during a run. An Evaluator must not be shared between
// goroutines.
package xslt

import (
	"math"
	"net/url"
	"time"
)

// Evaluator interprets sequence constructors to produce sequences. It is
// configured with the compiled templates, an output definition and a
// result-tree handle, then driven through Evaluate.
type Evaluator struct {
	dc       *DynamicContext
	tset     templateSet
	od       OutputDefinition
	source   Node
	result   Node
	clockFn  func() time.Time
	collator *valueCollator
}

// NewEvaluator returns an evaluator with a fresh dynamic context.
func NewEvaluator() *Evaluator {
	return NewEvaluatorWith(NewDynamicContext())
}

// NewEvaluatorWith returns an evaluator over an existing dynamic context,
// typically one pre-loaded with stylesheet parameters.
func NewEvaluatorWith(dc *DynamicContext) *Evaluator {
	return &Evaluator{dc: dc, clockFn: time.Now}
}

// Context returns the evaluator's dynamic context.
func (e *Evaluator) Context() *DynamicContext { return e.dc }

// SetClock replaces the clock consulted by the current-date/time
// functions. Tests inject a fixed clock here.
func (e *Evaluator) SetClock(now func() time.Time) { e.clockFn = now }

func (e *Evaluator) clock() time.Time { return e.clockFn() }

// BaseURL returns the base URL of the primary stylesheet.
func (e *Evaluator) BaseURL() *url.URL { return e.dc.BaseURL() }

// SetBaseURL sets the base URL of the primary stylesheet.
func (e *Evaluator) SetBaseURL(u *url.URL) { e.dc.SetBaseURL(u) }

// OutputDefinition returns the stored output definition.
func (e *Evaluator) OutputDefinition() OutputDefinition { return e.od }

// SetOutputDefinition stores the output definition for the result tree.
// The evaluator hands it unchanged to the downstream serializer.
func (e *Evaluator) SetOutputDefinition(od OutputDefinition) { e.od = od }

// Evaluate runs a sequence constructor. ctxt is the optional context
// sequence (nil when absent) and posn the context position within it.
// Nodes created by the constructors are created in the result tree; the
// returned sequence's node items live there.
//
// Each constructor is evaluated in order and the results are concatenated,
// flattening one level. The first error wins: remaining constructors are
// not evaluated.
func (e *Evaluator) Evaluate(ctxt Sequence, posn int, cs []Constructor, source, result Node) (Sequence, error) {
	e.source = source
	e.result = result
	return e.eval(ctxt, posn, cs)
}

func (e *Evaluator) eval(ctxt Sequence, posn int, cs []Constructor) (Sequence, error) {
	var out Sequence
	for _, c := range cs {
		r, err := e.evalOne(ctxt, posn, c)
		if err != nil {
			return nil, err
		}
		out = append(out, r...)
	}
	return out, nil
}

func (e *Evaluator) evalOne(ctxt Sequence, posn int, c Constructor) (Sequence, error) {
	switch u := c.(type) {
	case *Literal:
		return Sequence{ValueItem(u.Value)}, nil

	case *LiteralElement:
		return e.literalElement(ctxt, posn, u)

	case *LiteralAttribute:
		w, err := e.eval(ctxt, posn, u.Value)
		if err != nil {
			return nil, err
		}
		if e.result == nil {
			return nil, errUnknown("no result document")
		}
		a, err := e.result.NewAttribute(u.Name, w.String())
		if err != nil {
			return nil, err
		}
		return Sequence{NodeItem(a)}, nil

	case *Copy:
		return e.copyItems(ctxt, posn, u)

	case *DeepCopy:
		orig, err := e.eval(ctxt, posn, u.Select)
		if err != nil {
			return nil, err
		}
		var out Sequence
		for _, it := range orig {
			cp, err := e.itemDeepCopy(it, ctxt, posn)
			if err != nil {
				return nil, err
			}
			out = append(out, cp)
		}
		return out, nil

	case *ContextItem:
		if ctxt == nil {
			return nil, errDynamicAbsent("no context item")
		}
		return Sequence{ctxt[posn]}, nil

	case *SetAttribute:
		return e.setAttribute(ctxt, posn, u)

	case *Or:
		b := false
		for _, op := range u.Operands {
			k, err := e.eval(ctxt, posn, op)
			if err != nil {
				return nil, err
			}
			if b = k.Bool(); b {
				break
			}
		}
		return Sequence{ValueItem(NewBoolean(b))}, nil

	case *And:
		b := true
		for _, op := range u.Operands {
			k, err := e.eval(ctxt, posn, op)
			if err != nil {
				return nil, err
			}
			if b = k.Bool(); !b {
				break
			}
		}
		return Sequence{ValueItem(NewBoolean(b))}, nil

	case *GeneralComparison:
		if len(u.Operands) != 2 {
			return nil, errUnknown("incorrect number of operands")
		}
		b, err := e.generalComparison(ctxt, posn, u.Op, u.Operands[0], u.Operands[1])
		if err != nil {
			return nil, err
		}
		return Sequence{ValueItem(NewBoolean(b))}, nil

	case *ValueComparison:
		if len(u.Operands) != 2 {
			return nil, errUnknown("incorrect number of operands")
		}
		b, err := e.valueComparison(ctxt, posn, u.Op, u.Operands[0], u.Operands[1])
		if err != nil {
			return nil, err
		}
		return Sequence{ValueItem(NewBoolean(b))}, nil

	case *Concat:
		var sb []byte
		for _, op := range u.Operands {
			t, err := e.eval(ctxt, posn, op)
			if err != nil {
				return nil, err
			}
			sb = append(sb, t.String()...)
		}
		return Sequence{ValueItem(NewString(string(sb)))}, nil

	case *Range:
		return e.evalRange(ctxt, posn, u)

	case *Arithmetic:
		return e.arithmetic(ctxt, posn, u)

	case *Root:
		if e.source == nil {
			return nil, errContextNotNode("no document")
		}
		return Sequence{NodeItem(e.source)}, nil

	case *Path:
		// Each step evaluates once per item in the accumulator; the
		// flattened results become the next accumulator.
		acc := ctxt
		for _, step := range u.Steps {
			var next Sequence
			for i := range acc {
				d, err := e.eval(acc, i, step)
				if err != nil {
					return nil, err
				}
				next = append(next, d...)
			}
			acc = next
		}
		return acc, nil

	case *Step:
		return e.step(ctxt, posn, u)

	case *FunctionCall:
		if u.Fn.Body == nil {
			return nil, errNotImplementedf("call to undefined function %q", u.Fn.Name)
		}
		args := make([]Sequence, 0, len(u.Args))
		for _, a := range u.Args {
			r, err := e.eval(ctxt, posn, a)
			if err != nil {
				return nil, err
			}
			args = append(args, r)
		}
		return u.Fn.Body(e, ctxt, posn, args)

	case *VariableDeclaration:
		s, err := e.eval(ctxt, posn, u.Value)
		if err != nil {
			return nil, err
		}
		e.dc.VarPush(u.Name, s)
		return Sequence{}, nil

	case *VariableReference:
		s, ok := e.dc.Var(u.Name)
		if !ok {
			return nil, errDynamicAbsent("reference to undefined variable \"" + u.Name + "\"")
		}
		return s, nil

	case *Loop:
		return e.evalLoop(ctxt, posn, u)

	case *Switch:
		candidate, err := e.eval(ctxt, posn, u.Otherwise)
		if err != nil {
			return nil, err
		}
		for _, cl := range u.Cases {
			x, err := e.eval(ctxt, posn, cl.Test)
			if err != nil {
				return nil, err
			}
			if x.Bool() {
				candidate, err = e.eval(ctxt, posn, cl.Body)
				if err != nil {
					return nil, err
				}
				break
			}
		}
		return candidate, nil

	case *ApplyTemplates:
		return e.applyTemplates(ctxt, posn, u)

	case *ApplyImports:
		return e.applyImports(ctxt, posn)

	case *ForEach:
		return e.forEach(ctxt, posn, u)

	case *NotImplemented:
		return nil, errNotImplementedf("sequence constructor not implemented: %s", u.Message)

	default:
		return nil, errUnknownf("unrecognised constructor %T", c)
	}
}

func (e *Evaluator) literalElement(ctxt Sequence, posn int, u *LiteralElement) (Sequence, error) {
	if e.result == nil {
		return nil, errUnknown("no result document")
	}
	el, err := e.result.NewElement(u.Name)
	if err != nil {
		return nil, err
	}
	seq, err := e.eval(ctxt, posn, u.Content)
	if err != nil {
		return nil, err
	}
	for _, it := range seq {
		if err := e.attach(el, it); err != nil {
			return nil, err
		}
	}
	return Sequence{NodeItem(el)}, nil
}

// attach adds a constructed item to an element under construction:
// attribute nodes become attributes, other nodes children, and values
// text children.
func (e *Evaluator) attach(el Node, it Item) error {
	if n := it.Node(); n != nil {
		if n.Type() == AttributeNode {
			return el.AddAttribute(n)
		}
		return el.AppendChild(n)
	}
	t, err := e.result.NewText(it.String())
	if err != nil {
		return err
	}
	return el.AppendChild(t)
}

func (e *Evaluator) copyItems(ctxt Sequence, posn int, u *Copy) (Sequence, error) {
	var orig Sequence
	if len(u.Select) == 0 && ctxt != nil {
		orig = Sequence{ctxt[posn]}
	} else {
		var err error
		orig, err = e.eval(ctxt, posn, u.Select)
		if err != nil {
			return nil, err
		}
	}
	var out Sequence
	for _, it := range orig {
		cp, err := e.itemCopy(it, u.Content, ctxt, posn)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// itemCopy performs a shallow copy of an item into the result tree and
// evaluates content with the copy as the construction target.
func (e *Evaluator) itemCopy(orig Item, content []Constructor, ctxt Sequence, posn int) (Item, error) {
	n := orig.Node()
	if n == nil {
		return orig, nil
	}
	if e.result == nil {
		return Item{}, errUnknown("no result document")
	}
	switch n.Type() {
	case ElementNode:
		el, err := e.result.NewElement(n.Name())
		if err != nil {
			return Item{}, errUnknown("unable to create element node")
		}
		r, err := e.eval(ctxt, posn, content)
		if err != nil {
			return Item{}, err
		}
		for _, it := range r {
			if err := e.attach(el, it); err != nil {
				return Item{}, err
			}
		}
		return NodeItem(el), nil
	case TextNode:
		t, err := e.result.NewText(n.StringValue())
		if err != nil {
			return Item{}, errUnknown("unable to create text node")
		}
		return NodeItem(t), nil
	case AttributeNode:
		a, err := e.result.NewAttribute(n.Name(), n.StringValue())
		if err != nil {
			return Item{}, errUnknown("unable to create attribute node")
		}
		return NodeItem(a), nil
	case CommentNode:
		cm, err := e.result.NewComment(n.StringValue())
		if err != nil {
			return Item{}, errUnknown("unable to create comment node")
		}
		return NodeItem(cm), nil
	case ProcessingInstructionNode:
		pi, err := e.result.NewProcessingInstruction(n.Name(), n.StringValue())
		if err != nil {
			return Item{}, errUnknown("unable to create processing instruction node")
		}
		return NodeItem(pi), nil
	default:
		return Item{}, errNotImplemented("copying this node type is not implemented")
	}
}

// itemDeepCopy recursively clones an item into the result tree.
func (e *Evaluator) itemDeepCopy(orig Item, ctxt Sequence, posn int) (Item, error) {
	cp, err := e.itemCopy(orig, nil, ctxt, posn)
	if err != nil {
		return Item{}, err
	}
	n := orig.Node()
	if n == nil || n.Type() != ElementNode {
		return cp, nil
	}
	cur := cp.Node()
	for a := range n.Attributes() {
		at, err := e.result.NewAttribute(a.Name(), a.StringValue())
		if err != nil {
			return Item{}, err
		}
		if err := cur.AddAttribute(at); err != nil {
			return Item{}, err
		}
	}
	for c := range n.Children() {
		cpc, err := e.itemDeepCopy(NodeItem(c), ctxt, posn)
		if err != nil {
			return Item{}, err
		}
		if cn := cpc.Node(); cn != nil {
			if err := cur.AppendChild(cn); err != nil {
				return Item{}, err
			}
		}
	}
	return cp, nil
}

func (e *Evaluator) setAttribute(ctxt Sequence, posn int, u *SetAttribute) (Sequence, error) {
	if ctxt == nil {
		return nil, errDynamicAbsent("no context item")
	}
	n := ctxt[posn].Node()
	if n == nil {
		return nil, errType("context item must be an element node")
	}
	if n.Type() != ElementNode {
		return nil, errType("context item is not an element")
	}
	val, err := e.eval(ctxt, posn, u.Value)
	if err != nil {
		return nil, err
	}
	if e.result == nil {
		return nil, errUnknown("no result document")
	}
	at, err := e.result.NewAttribute(u.Name, val.String())
	if err != nil {
		return nil, err
	}
	if err := n.AddAttribute(at); err != nil {
		return nil, err
	}
	return Sequence{}, nil
}

func (e *Evaluator) evalRange(ctxt Sequence, posn int, u *Range) (Sequence, error) {
	start, err := e.eval(ctxt, posn, u.Start)
	if err != nil {
		return nil, err
	}
	end, err := e.eval(ctxt, posn, u.End)
	if err != nil {
		return nil, err
	}
	if len(start) == 0 || len(end) == 0 {
		return Sequence{}, nil
	}
	if len(start) != 1 {
		return nil, errUnknown("start operand must be singleton")
	}
	if len(end) != 1 {
		return nil, errUnknown("end operand must be singleton")
	}
	i, err := start[0].Int()
	if err != nil {
		return nil, err
	}
	j, err := end[0].Int()
	if err != nil {
		return nil, err
	}
	if i > j {
		return Sequence{}, nil
	}
	out := make(Sequence, 0, int(j-i+1))
	for k := i; k <= j; k++ {
		out = append(out, ValueItem(NewInteger(k)))
	}
	return out, nil
}

func (e *Evaluator) arithmetic(ctxt Sequence, posn int, u *Arithmetic) (Sequence, error) {
	acc := 0.0
	for _, op := range u.Operands {
		k, err := e.eval(ctxt, posn, op.Operand)
		if err != nil {
			return nil, err
		}
		if len(k) != 1 {
			return nil, errType("not a singleton sequence")
		}
		v := k[0].Double()
		switch op.Op {
		case Noop:
			acc = v
		case Add:
			acc += v
		case Subtract:
			acc -= v
		case Multiply:
			acc *= v
		case Divide:
			acc /= v
		case IntegerDivide:
			acc = math.Trunc(acc / v)
		case Modulo:
			acc = math.Mod(acc, v)
		}
	}
	return Sequence{ValueItem(NewDouble(acc))}, nil
}

func (e *Evaluator) evalLoop(ctxt Sequence, posn int, u *Loop) (Sequence, error) {
	if len(u.Bindings) == 0 {
		return nil, errUnknown("no variable bindings")
	}
	decl, ok := u.Bindings[0].(*VariableDeclaration)
	if !ok {
		return nil, errType("loop binding must be a variable declaration")
	}
	if len(u.Bindings) > 1 {
		return nil, errNotImplemented("multiple loop bindings")
	}
	s, err := e.eval(ctxt, posn, decl.Value)
	if err != nil {
		return nil, err
	}
	var out Sequence
	for _, it := range s {
		e.dc.VarPush(decl.Name, Sequence{it})
		x, err := e.eval(ctxt, posn, u.Body)
		e.dc.VarPop(decl.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, x...)
	}
	return out, nil
}

// step enumerates the axis from the context node, filters by the node
// test and applies the predicates.
func (e *Evaluator) step(ctxt Sequence, posn int, u *Step) (Sequence, error) {
	if ctxt == nil {
		return nil, errDynamicAbsent("no context item")
	}
	n := ctxt[posn].Node()
	if n == nil {
		return nil, errContextNotNode("context item is not a node")
	}
	var seq Sequence
	switch u.Match.Axis {
	case Self:
		if u.Match.Test.Matches(n) {
			seq = append(seq, ctxt[posn])
		}
	case SelfDocument:
		// Matches only when the context is the document node.
		if n.Type() == DocumentNode {
			seq = append(seq, ctxt[posn])
		}
	case SelfAttribute:
		if n.Type() == AttributeNode && u.Match.Test.Matches(n) {
			seq = append(seq, ctxt[posn])
		}
	case Child:
		seq = collectAxis(n.Children(), u.Match.Test)
	case Parent:
		if p, ok := n.Parent(); ok && u.Match.Test.Matches(p) {
			seq = append(seq, NodeItem(p))
		}
	case ParentDocument:
		// Matches the document node only: the context itself, or its
		// parent when that parent is the document.
		if n.Type() == DocumentNode {
			seq = append(seq, ctxt[posn])
		} else if p, ok := n.Parent(); ok && p.Type() == DocumentNode {
			seq = append(seq, NodeItem(p))
		}
	case Descendant:
		seq = collectAxis(n.Descendants(), u.Match.Test)
	case DescendantOrSelf:
		if u.Match.Test.Matches(n) {
			seq = append(seq, ctxt[posn])
		}
		seq = append(seq, collectAxis(n.Descendants(), u.Match.Test)...)
	case Ancestor:
		seq = collectAxis(n.Ancestors(), u.Match.Test)
	case AncestorOrSelf:
		seq = collectAxis(n.Ancestors(), u.Match.Test)
		if u.Match.Test.Matches(n) {
			seq = append(seq, ctxt[posn])
		}
	case FollowingSibling:
		seq = collectAxis(n.FollowingSiblings(), u.Match.Test)
	case PrecedingSibling:
		seq = collectAxis(n.PrecedingSiblings(), u.Match.Test)
	case Following:
		seq = collectAxis(followingNodes(n), u.Match.Test)
	case Preceding:
		seq = collectAxis(precedingNodes(n), u.Match.Test)
	case Attribute:
		seq = collectAxis(n.Attributes(), u.Match.Test)
	default:
		return nil, errNotImplementedf("axis %s is not implemented", u.Match.Axis)
	}
	return e.predicates(seq, u.Predicates)
}

// predicates filters a sequence with each predicate in turn. A predicate
// producing a singleton integer keeps the candidate at that 1-based
// position; any other result is taken as an effective boolean value.
func (e *Evaluator) predicates(s Sequence, preds [][]Constructor) (Sequence, error) {
	result := s
	for _, q := range preds {
		var kept Sequence
		for i := range result {
			b, err := e.eval(result, i, q)
			if err != nil {
				return nil, err
			}
			if len(b) == 1 && !b[0].IsNode() && b[0].Value().Kind() == KindInteger {
				n, _ := b[0].Int()
				if n == int64(i)+1 {
					kept = append(kept, result[i])
				}
				continue
			}
			if b.Bool() {
				kept = append(kept, result[i])
			}
		}
		result = kept
	}
	return result, nil
}

func (e *Evaluator) generalComparison(ctxt Sequence, posn int, op Operator, left, right []Constructor) (bool, error) {
	ls, err := e.eval(ctxt, posn, left)
	if err != nil {
		return false, err
	}
	rs, err := e.eval(ctxt, posn, right)
	if err != nil {
		return false, err
	}
	// Existential semantics: true if any pair compares true.
	for _, l := range ls {
		for _, r := range rs {
			b, err := e.compareItems(l, r, op)
			if err != nil {
				return false, err
			}
			if b {
				return true, nil
			}
		}
	}
	return false, nil
}

func (e *Evaluator) valueComparison(ctxt Sequence, posn int, op Operator, left, right []Constructor) (bool, error) {
	ls, err := e.eval(ctxt, posn, left)
	if err != nil {
		return false, err
	}
	if len(ls) == 0 {
		return false, errType("left-hand sequence is empty")
	}
	if len(ls) != 1 {
		return false, errType("left-hand sequence is not a singleton sequence")
	}
	rs, err := e.eval(ctxt, posn, right)
	if err != nil {
		return false, err
	}
	if len(rs) != 1 {
		return false, errType("right-hand sequence is not a singleton sequence")
	}
	return e.compareItems(ls[0], rs[0], op)
}
