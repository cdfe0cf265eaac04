package xslt_test

import (
	"errors"
	"testing"

	"github.com/livefir/xslt"
	"github.com/livefir/xslt/memtree"
)

func selfA(t *testing.T) []xslt.Constructor {
	t.Helper()
	return []xslt.Constructor{step(xslt.Self, nameTest(t, "a"))}
}

func lit(s string) []xslt.Constructor {
	return []xslt.Constructor{&xslt.Literal{Value: xslt.NewString(s)}}
}

// selectRootA selects the document element of the nested fixture.
func selectRootA(t *testing.T) []xslt.Constructor {
	t.Helper()
	return []xslt.Constructor{&xslt.Path{Steps: [][]xslt.Constructor{
		{&xslt.Root{}},
		{step(xslt.Child, nameTest(t, "a"))},
	}}}
}

func TestApplyTemplatesHighestPriorityWins(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	e := xslt.NewEvaluator()
	e.AddTemplate(selfA(t), lit("low"), "", 0, 0)
	e.AddTemplate(selfA(t), lit("high"), "", 1, 0)

	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(doc)}, 0,
		[]xslt.Constructor{&xslt.ApplyTemplates{Select: selectRootA(t)}}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "high" {
		t.Errorf("got %q, want %q", seq.String(), "high")
	}
}

func TestApplyTemplatesDocumentOrderBreaksTies(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	e := xslt.NewEvaluator()
	// Equal priority and import: the later declaration wins.
	e.AddTemplate(selfA(t), lit("first"), "", 0, 0)
	e.AddTemplate(selfA(t), lit("second"), "", 0, 0)

	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(doc)}, 0,
		[]xslt.Constructor{&xslt.ApplyTemplates{Select: selectRootA(t)}}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "second" {
		t.Errorf("got %q, want %q", seq.String(), "second")
	}
}

func TestApplyTemplatesPerSelectedItem(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	root := docElement(t, doc)
	e := xslt.NewEvaluator()
	e.AddTemplate(selfA(t), lit("A"), "", 0, 0)

	// descendant::a selects a2 and a3; each dispatch appends in order.
	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(root)}, 0,
		[]xslt.Constructor{&xslt.ApplyTemplates{
			Select: []xslt.Constructor{step(xslt.Descendant, nameTest(t, "a"))},
		}}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "AA" {
		t.Errorf("got %q, want %q", seq.String(), "AA")
	}
}

func TestApplyTemplatesBuiltinFallback(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	e := xslt.NewEvaluator()
	e.AddBuiltinTemplate(
		[]xslt.Constructor{step(xslt.Self, xslt.KindNodeTest(xslt.AnyKindTest))},
		lit("builtin"), "", -1, 0)

	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(doc)}, 0,
		[]xslt.Constructor{&xslt.ApplyTemplates{Select: selectRootA(t)}}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "builtin" {
		t.Errorf("got %q, want %q", seq.String(), "builtin")
	}
}

func TestApplyTemplatesBuiltinAmbiguity(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	e := xslt.NewEvaluator()
	// Two built-ins at equal priority matching the same item is fatal.
	e.AddBuiltinTemplate(
		[]xslt.Constructor{step(xslt.Self, xslt.KindNodeTest(xslt.AnyKindTest))},
		lit("one"), "", 0, 0)
	e.AddBuiltinTemplate(
		[]xslt.Constructor{step(xslt.Self, xslt.KindNodeTest(xslt.ElementTest))},
		lit("two"), "", 0, 0)

	_, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(doc)}, 0,
		[]xslt.Constructor{&xslt.ApplyTemplates{Select: selectRootA(t)}}, doc, nil)
	if !errors.Is(err, xslt.ErrUnknown) {
		t.Errorf("expected ErrUnknown, got %v", err)
	}
}

func TestApplyTemplatesNoMatchYieldsNothing(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	e := xslt.NewEvaluator()
	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(doc)}, 0,
		[]xslt.Constructor{&xslt.ApplyTemplates{Select: selectRootA(t)}}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(seq) != 0 {
		t.Errorf("expected empty result, got %q", seq.String())
	}
}

func TestApplyImportsChain(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	root := docElement(t, doc)
	e := xslt.NewEvaluator()
	// Three templates match the context at imports 0, 1 and 2. The
	// first apply-imports runs the import-1 body; the nested one inside
	// it runs import-2.
	e.AddTemplate(selfA(t), lit("zero"), "", 0, 0)
	e.AddTemplate(selfA(t), []xslt.Constructor{
		&xslt.Literal{Value: xslt.NewString("one")},
		&xslt.ApplyImports{},
	}, "", 0, 1)
	e.AddTemplate(selfA(t), lit("two"), "", 0, 2)

	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(root)}, 0,
		[]xslt.Constructor{&xslt.ApplyImports{}}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "onetwo" {
		t.Errorf("got %q, want %q", seq.String(), "onetwo")
	}
	if e.Context().CurrentImport() != 0 {
		t.Errorf("import floor not restored: %d", e.Context().CurrentImport())
	}
}

func TestApplyImportsExhausted(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	root := docElement(t, doc)
	e := xslt.NewEvaluator()
	// The only match sits at the current floor, so nothing qualifies.
	e.AddTemplate(selfA(t), []xslt.Constructor{&xslt.ApplyImports{}}, "", 0, 0)

	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(root)}, 0,
		[]xslt.Constructor{&xslt.ApplyImports{}}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(seq) != 0 {
		t.Errorf("expected empty result, got %q", seq.String())
	}
}

func TestFindMatch(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	root := docElement(t, doc)
	e := xslt.NewEvaluator()
	e.Evaluate(nil, 0, nil, doc, nil)
	e.AddTemplate(selfA(t), lit("low"), "", 0, 0)
	e.AddTemplate(selfA(t), lit("high"), "", 5, 1)

	body, err := e.FindMatch(xslt.NodeItem(root), 0)
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	seq, err := e.Evaluate(nil, 0, body, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "high" {
		t.Errorf("got %q, want %q", seq.String(), "high")
	}

	// No match at all yields an empty body.
	body, err = e.FindMatch(xslt.NodeItem(doc), 0)
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	if body != nil {
		t.Errorf("expected empty body, got %d constructors", len(body))
	}
}

func TestFindMatchImportFloor(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	root := docElement(t, doc)
	e := xslt.NewEvaluator()
	e.Evaluate(nil, 0, nil, doc, nil)
	e.AddTemplate(selfA(t), lit("base"), "", 9, 0)
	e.AddTemplate(selfA(t), lit("imported"), "", 0, 3)

	body, err := e.FindMatch(xslt.NodeItem(root), 1)
	if err != nil {
		t.Fatalf("FindMatch: %v", err)
	}
	seq, err := e.Evaluate(nil, 0, body, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// The floor excludes the higher-priority import-0 template.
	if seq.String() != "imported" {
		t.Errorf("got %q, want %q", seq.String(), "imported")
	}
}

func TestValueItemsNeverMatchStepPatterns(t *testing.T) {
	e := xslt.NewEvaluator()
	e.AddTemplate(selfA(t), lit("x"), "", 0, 0)
	// A value item cannot match a step pattern; dispatch surfaces the
	// step's context error.
	_, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ApplyTemplates{
		Select: lit("just a value"),
	}}, nil, nil)
	if !errors.Is(err, xslt.ErrContextNotNode) {
		t.Errorf("expected ErrContextNotNode, got %v", err)
	}
}

func TestDepthTracking(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	e := xslt.NewEvaluator()

	var depths []int
	sc := xslt.NewStaticContext()
	sc.DeclareFunction(xslt.NewFunction("probe-depth", nil,
		func(ev *xslt.Evaluator, _ xslt.Sequence, _ int, _ []xslt.Sequence) (xslt.Sequence, error) {
			depths = append(depths, ev.Context().Depth())
			return xslt.Sequence{}, nil
		}))
	body := []xslt.Constructor{&xslt.FunctionCall{Fn: xslt.Function{Name: "probe-depth"}}}
	if err := sc.Analyze(body); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	e.AddTemplate(selfA(t), body, "", 0, 0)

	_, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(doc)}, 0,
		[]xslt.Constructor{&xslt.ApplyTemplates{Select: selectRootA(t)}}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(depths) != 1 || depths[0] != 1 {
		t.Errorf("depths = %v, want [1]", depths)
	}
	if e.Context().Depth() != 0 {
		t.Errorf("depth not restored: %d", e.Context().Depth())
	}
}

func TestResultNodesLiveInResultTree(t *testing.T) {
	doc := mustParse(t, nestedDoc)
	result := memtree.NewDocument()
	e := xslt.NewEvaluator()
	e.AddTemplate(selfA(t), []xslt.Constructor{
		&xslt.LiteralElement{Name: xslt.NewQName("out"), Content: lit("copied")},
	}, "", 0, 0)

	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(doc)}, 0,
		[]xslt.Constructor{&xslt.ApplyTemplates{Select: selectRootA(t)}}, doc, result)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(seq) != 1 || seq[0].Node() == nil {
		t.Fatalf("expected one node item")
	}
	out, ok := seq[0].Node().(*memtree.Node)
	if !ok {
		t.Fatalf("result node is not a memtree node")
	}
	if out.XML() != "<out>copied</out>" {
		t.Errorf("result = %s", out.XML())
	}
}
