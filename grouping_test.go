package xslt_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/livefir/xslt"
)

func literals(ss ...string) []xslt.Constructor {
	cs := make([]xslt.Constructor, 0, len(ss))
	for _, s := range ss {
		cs = append(cs, &xslt.Literal{Value: xslt.NewString(s)})
	}
	return cs
}

// contextItemBody is the trivial for-each body: the item itself.
func contextItemBody() []xslt.Constructor {
	return []xslt.Constructor{&xslt.ContextItem{}}
}

// firstLetterKey computes substring(., 1, 1) over the context item.
func firstLetterKey(t *testing.T) []xslt.Constructor {
	t.Helper()
	key := []xslt.Constructor{&xslt.FunctionCall{Fn: xslt.Function{Name: "substring"}, Args: [][]xslt.Constructor{
		{&xslt.ContextItem{}},
		{&xslt.Literal{Value: xslt.NewInteger(1)}},
		{&xslt.Literal{Value: xslt.NewInteger(1)}},
	}}}
	if err := xslt.CoreAndGroupingFunctions().Analyze(key); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return key
}

func TestForEachUngrouped(t *testing.T) {
	e := xslt.NewEvaluator()
	seq, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
		Select: literals("a", "b", "c"),
		Body:   contextItemBody(),
	}}, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "abc" {
		t.Errorf("got %q", seq.String())
	}
}

// TestGroupByPartition checks the partition property: the multiset union
// of the groups' inputs equals the selection.
func TestGroupByPartition(t *testing.T) {
	e := xslt.NewEvaluator()
	input := []string{"apple", "banana", "avocado", "cherry", "blueberry"}
	seq, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
		Select: literals(input...),
		Body: []xslt.Constructor{&xslt.FunctionCall{
			Fn: func() xslt.Function {
				f, _ := xslt.CoreAndGroupingFunctions().Function("current-group")
				return f
			}(),
		}},
		Grouping: &xslt.Grouping{Kind: xslt.GroupBy, Key: firstLetterKey(t)},
	}}, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	var got []string
	for _, it := range seq {
		got = append(got, it.String())
	}
	want := append([]string(nil), input...)
	sort.Strings(got)
	sort.Strings(want)
	if !equalStrings(got, want) {
		t.Errorf("partition union = %v, want %v", got, want)
	}
}

func TestGroupByBucketsAndKeys(t *testing.T) {
	e := xslt.NewEvaluator()
	// Concatenate current-grouping-key, ":", current-group, ";" per group.
	body := []xslt.Constructor{&xslt.Concat{Operands: [][]xslt.Constructor{
		{&xslt.FunctionCall{Fn: xslt.Function{Name: "current-grouping-key"}}},
		{&xslt.Literal{Value: xslt.NewString(":")}},
		{&xslt.FunctionCall{Fn: xslt.Function{Name: "current-group"}}},
		{&xslt.Literal{Value: xslt.NewString(";")}},
	}}}
	if err := xslt.CoreAndGroupingFunctions().Analyze(body); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	seq, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
		Select:   literals("ant", "ape", "bee", "bat", "cow"),
		Body:     body,
		Grouping: &xslt.Grouping{Kind: xslt.GroupBy, Key: firstLetterKey(t)},
	}}, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// Buckets iterate in first-occurrence order.
	if seq.String() != "a:antape;b:beebat;c:cow;" {
		t.Errorf("got %q", seq.String())
	}
}

func TestGroupAdjacentRuns(t *testing.T) {
	e := xslt.NewEvaluator()
	body := []xslt.Constructor{&xslt.Concat{Operands: [][]xslt.Constructor{
		{&xslt.FunctionCall{Fn: xslt.Function{Name: "current-group"}}},
		{&xslt.Literal{Value: xslt.NewString("|")}},
	}}}
	if err := xslt.CoreAndGroupingFunctions().Analyze(body); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// Keys: a a b a -> runs (ant, ape), (bee), (axe).
	seq, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
		Select:   literals("ant", "ape", "bee", "axe"),
		Body:     body,
		Grouping: &xslt.Grouping{Kind: xslt.GroupAdjacent, Key: firstLetterKey(t)},
	}}, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "antape|bee|axe|" {
		t.Errorf("got %q", seq.String())
	}
}

func TestGroupAdjacentSingleItem(t *testing.T) {
	e := xslt.NewEvaluator()
	seq, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
		Select:   literals("only"),
		Body:     contextItemBody(),
		Grouping: &xslt.Grouping{Kind: xslt.GroupAdjacent, Key: firstLetterKey(t)},
	}}, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "only" {
		t.Errorf("got %q", seq.String())
	}
}

func TestGroupAdjacentEmptySelection(t *testing.T) {
	e := xslt.NewEvaluator()
	seq, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
		Select:   nil,
		Body:     contextItemBody(),
		Grouping: &xslt.Grouping{Kind: xslt.GroupAdjacent, Key: firstLetterKey(t)},
	}}, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(seq) != 0 {
		t.Errorf("expected empty result, got %q", seq.String())
	}
}

func TestGroupAdjacentMultiValuedKeyFails(t *testing.T) {
	e := xslt.NewEvaluator()
	// A key producing two items per element is a type error.
	key := literals("k1", "k2")
	_, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
		Select:   literals("a", "b"),
		Body:     contextItemBody(),
		Grouping: &xslt.Grouping{Kind: xslt.GroupAdjacent, Key: key},
	}}, nil, nil)
	if !errors.Is(err, xslt.ErrType) {
		t.Errorf("expected ErrType, got %v", err)
	}
}

func TestGroupStartingWithReserved(t *testing.T) {
	e := xslt.NewEvaluator()
	for _, kind := range []xslt.GroupingKind{xslt.GroupStartingWith, xslt.GroupEndingWith} {
		_, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
			Select:   literals("a"),
			Body:     contextItemBody(),
			Grouping: &xslt.Grouping{Kind: kind, Key: literals("x")},
		}}, nil, nil)
		if !errors.Is(err, xslt.ErrNotImplemented) {
			t.Errorf("kind %v: expected ErrNotImplemented, got %v", kind, err)
		}
	}
}

func TestGroupingStateRestored(t *testing.T) {
	e := xslt.NewEvaluator()
	_, err := e.Evaluate(nil, 0, []xslt.Constructor{&xslt.ForEach{
		Select:   literals("a", "b"),
		Body:     contextItemBody(),
		Grouping: &xslt.Grouping{Kind: xslt.GroupBy, Key: firstLetterKey(t)},
	}}, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// After evaluation the stacks are back to the base frame: the
	// grouping functions answer with empty sequences, not errors.
	cs := []xslt.Constructor{&xslt.FunctionCall{Fn: xslt.Function{Name: "current-grouping-key"}}}
	if err := xslt.CoreAndGroupingFunctions().Analyze(cs); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	seq, err := e.Evaluate(nil, 0, cs, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(seq) != 0 {
		t.Errorf("expected empty grouping key, got %q", seq.String())
	}
}

func TestNestedGrouping(t *testing.T) {
	e := xslt.NewEvaluator()
	// An inner for-each-group must shadow and then restore the outer
	// grouping key.
	innerBody := []xslt.Constructor{&xslt.FunctionCall{Fn: xslt.Function{Name: "current-grouping-key"}}}
	outerBody := []xslt.Constructor{
		&xslt.ForEach{
			Select:   literals("x1"),
			Body:     innerBody,
			Grouping: &xslt.Grouping{Kind: xslt.GroupBy, Key: firstLetterKey(t)},
		},
		&xslt.FunctionCall{Fn: xslt.Function{Name: "current-grouping-key"}},
	}
	all := []xslt.Constructor{&xslt.ForEach{
		Select:   literals("ant"),
		Body:     outerBody,
		Grouping: &xslt.Grouping{Kind: xslt.GroupBy, Key: firstLetterKey(t)},
	}}
	if err := xslt.CoreAndGroupingFunctions().Analyze(all); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	seq, err := e.Evaluate(nil, 0, all, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if seq.String() != "xa" {
		t.Errorf("got %q, want %q", seq.String(), "xa")
	}
}
