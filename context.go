package xslt

import "net/url"

// DynamicContext holds the parts of the evaluation state that change as
// evaluation proceeds: variable scopes, the apply-templates recursion
// depth, the import precedence floor, and the grouping stacks.
//
// A context belongs to exactly one evaluation at a time. It is mutated
// through its methods and must not be shared between goroutines; the
// engine is single-threaded by contract.
type DynamicContext struct {
	vars               map[string][]Sequence
	depth              int
	currentImport      int
	currentGroupingKey []*Item
	currentGroup       []Sequence
	base               *url.URL
	deps               []*url.URL
}

// NewDynamicContext returns an empty dynamic context. The grouping
// stacks are seeded with one empty frame so that current-group and
// current-grouping-key are defined (and empty) outside any grouping.
func NewDynamicContext() *DynamicContext {
	return &DynamicContext{
		vars:               make(map[string][]Sequence),
		currentGroupingKey: []*Item{nil},
		currentGroup:       []Sequence{nil},
	}
}

// VarPush appends a new scope frame for the variable.
func (dc *DynamicContext) VarPush(name string, s Sequence) {
	dc.vars[name] = append(dc.vars[name], s)
}

// VarPop discards the top scope frame for the variable. Popping a
// variable with no frames is a no-op.
func (dc *DynamicContext) VarPop(name string) {
	frames := dc.vars[name]
	if len(frames) == 0 {
		return
	}
	dc.vars[name] = frames[:len(frames)-1]
}

// Var returns the top scope frame for the variable.
func (dc *DynamicContext) Var(name string) (Sequence, bool) {
	frames, ok := dc.vars[name]
	if !ok || len(frames) == 0 {
		return nil, false
	}
	return frames[len(frames)-1], true
}

// SetParameter installs a stylesheet-level parameter as a single-frame
// scope, overwriting any previous value.
func (dc *DynamicContext) SetParameter(name string, s Sequence) {
	dc.vars[name] = []Sequence{s}
}

// DepthIncr increments the apply-templates recursion depth.
func (dc *DynamicContext) DepthIncr() { dc.depth++ }

// DepthDecr decrements the apply-templates recursion depth.
func (dc *DynamicContext) DepthDecr() { dc.depth-- }

// Depth reports the apply-templates recursion depth.
func (dc *DynamicContext) Depth() int { return dc.depth }

// ImportIncr raises the import precedence floor by one.
func (dc *DynamicContext) ImportIncr() { dc.currentImport++ }

// ImportDecr lowers the import precedence floor by one.
func (dc *DynamicContext) ImportDecr() { dc.currentImport-- }

// CurrentImport reports the import precedence floor.
func (dc *DynamicContext) CurrentImport() int { return dc.currentImport }

func (dc *DynamicContext) setImport(i int) { dc.currentImport = i }

// PushGroupingKey pushes a current-grouping-key frame. A nil key marks a
// group with no key.
func (dc *DynamicContext) PushGroupingKey(k *Item) {
	dc.currentGroupingKey = append(dc.currentGroupingKey, k)
}

// PopGroupingKey discards the top current-grouping-key frame.
func (dc *DynamicContext) PopGroupingKey() {
	if len(dc.currentGroupingKey) > 0 {
		dc.currentGroupingKey = dc.currentGroupingKey[:len(dc.currentGroupingKey)-1]
	}
}

// GroupingKey returns the top current-grouping-key frame. The second
// result is false when the stack is empty.
func (dc *DynamicContext) GroupingKey() (*Item, bool) {
	if len(dc.currentGroupingKey) == 0 {
		return nil, false
	}
	return dc.currentGroupingKey[len(dc.currentGroupingKey)-1], true
}

// PushGroup pushes a current-group frame.
func (dc *DynamicContext) PushGroup(g Sequence) {
	dc.currentGroup = append(dc.currentGroup, g)
}

// PopGroup discards the top current-group frame.
func (dc *DynamicContext) PopGroup() {
	if len(dc.currentGroup) > 0 {
		dc.currentGroup = dc.currentGroup[:len(dc.currentGroup)-1]
	}
}

// Group returns the top current-group frame. The second result is false
// when the stack is empty.
func (dc *DynamicContext) Group() (Sequence, bool) {
	if len(dc.currentGroup) == 0 {
		return nil, false
	}
	return dc.currentGroup[len(dc.currentGroup)-1], true
}

// BaseURL returns the URL anchor used for URI resolution.
func (dc *DynamicContext) BaseURL() *url.URL { return dc.base }

// SetBaseURL sets the URL anchor used for URI resolution.
func (dc *DynamicContext) SetBaseURL(u *url.URL) { dc.base = u }

// Dependencies returns the URIs of secondary stylesheets recorded so far.
func (dc *DynamicContext) Dependencies() []*url.URL {
	out := make([]*url.URL, len(dc.deps))
	copy(out, dc.deps)
	return out
}

// AddDependency records a secondary stylesheet URI. The list is
// append-only.
func (dc *DynamicContext) AddDependency(u *url.URL) {
	dc.deps = append(dc.deps, u)
}
