package htmltree

import (
	"errors"
	"testing"

	"github.com/livefir/xslt"
	"github.com/livefir/xslt/memtree"
)

const page = `<html><head><title>t</title></head><body><div id="wrapper"><span>span one</span><div><span>span two</span></div></div></body></html>`

func mustParse(t *testing.T, src string) xslt.Node {
	t.Helper()
	doc, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func findElement(n xslt.Node, name string) xslt.Node {
	for d := range n.Descendants() {
		if d.Type() == xslt.ElementNode && d.Name().LocalName == name {
			return d
		}
	}
	return nil
}

func TestParseAndTypes(t *testing.T) {
	doc := mustParse(t, page)
	if doc.Type() != xslt.DocumentNode {
		t.Fatalf("type = %s", doc.Type())
	}
	if findElement(doc, "body") == nil {
		t.Fatal("no body element")
	}
}

func TestStringValue(t *testing.T) {
	doc := mustParse(t, page)
	div := findElement(doc, "div")
	if got := div.StringValue(); got != "span onespan two" {
		t.Errorf("string value = %q", got)
	}
}

func TestAttributesAndIdentity(t *testing.T) {
	doc := mustParse(t, page)
	div := findElement(doc, "div")
	var id xslt.Node
	for a := range div.Attributes() {
		if a.Name().LocalName == "id" {
			id = a
		}
	}
	if id == nil || id.StringValue() != "wrapper" {
		t.Fatal("missing id attribute")
	}
	if p, ok := id.Parent(); !ok || !p.IsSame(div) {
		t.Error("attribute parent must be the owning element")
	}
	// The element precedes its attributes in document order.
	if cmp, err := div.CompareOrder(id); err != nil || cmp >= 0 {
		t.Errorf("element vs attribute order = %d, %v", cmp, err)
	}
	if cmp, err := id.CompareOrder(div); err != nil || cmp <= 0 {
		t.Errorf("attribute vs element order = %d, %v", cmp, err)
	}
}

func TestEngineOverHTML(t *testing.T) {
	// The adapter serves as a source tree for the evaluator.
	doc := mustParse(t, page)
	e := xslt.NewEvaluator()
	nt, err := xslt.ParseNodeTest("span")
	if err != nil {
		t.Fatalf("ParseNodeTest: %v", err)
	}
	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(doc)}, 0, []xslt.Constructor{
		&xslt.Step{Match: xslt.NodeMatch{Axis: xslt.Descendant, Test: nt}},
	}, doc, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(seq) != 2 {
		t.Fatalf("descendant::span = %d nodes", len(seq))
	}
	if seq[0].String() != "span one" || seq[1].String() != "span two" {
		t.Errorf("got %q, %q", seq[0].String(), seq[1].String())
	}
}

func TestDeepCopyHTMLIntoMemtree(t *testing.T) {
	// A read-only HTML source still supports copying into a writable
	// result tree.
	doc := mustParse(t, `<p>hi <b>there</b></p>`)
	p := findElement(doc, "p")
	result := memtree.NewDocument()
	e := xslt.NewEvaluator()
	seq, err := e.Evaluate(xslt.Sequence{xslt.NodeItem(p)}, 0, []xslt.Constructor{
		&xslt.DeepCopy{Select: []xslt.Constructor{&xslt.ContextItem{}}},
	}, doc, result)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	out, ok := seq[0].Node().(*memtree.Node)
	if !ok {
		t.Fatal("copy did not land in the result backend")
	}
	if got := out.XML(); got != "<p>hi <b>there</b></p>" {
		t.Errorf("got %s", got)
	}
}

func TestFactoriesFail(t *testing.T) {
	doc := mustParse(t, page)
	if _, err := doc.NewElement(xslt.NewQName("x")); !errors.Is(err, xslt.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
	if err := doc.AppendChild(doc); !errors.Is(err, xslt.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}
