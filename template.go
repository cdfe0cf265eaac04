package xslt

import (
	"fmt"
	"io"
	"sort"
)

// Template associates a match pattern with a sequence constructor body.
// Mode partitions the template set; the evaluator treats it as an opaque
// label. Import is the import precedence of the declaring stylesheet and
// docOrder the insertion order, used to break priority ties.
type Template struct {
	Pattern  []Constructor
	Body     []Constructor
	Mode     string
	Priority float64
	Import   int
	docOrder int
}

type templateSet struct {
	templates []*Template
	builtins  []*Template
}

// AddTemplate registers a user template. Document order is recorded in
// insertion order.
func (e *Evaluator) AddTemplate(pattern, body []Constructor, mode string, priority float64, importPrec int) {
	e.tset.templates = append(e.tset.templates, &Template{
		Pattern:  pattern,
		Body:     body,
		Mode:     mode,
		Priority: priority,
		Import:   importPrec,
		docOrder: len(e.tset.templates),
	})
}

// AddBuiltinTemplate registers a built-in template. Built-ins are used
// only when no user template matches; they rank by priority alone.
func (e *Evaluator) AddBuiltinTemplate(pattern, body []Constructor, mode string, priority float64, importPrec int) {
	e.tset.builtins = append(e.tset.builtins, &Template{
		Pattern:  pattern,
		Body:     body,
		Mode:     mode,
		Priority: priority,
		Import:   importPrec,
		docOrder: len(e.tset.builtins),
	})
}

// Templates returns the registered user templates.
func (e *Evaluator) Templates() []*Template { return e.tset.templates }

// findTemplates returns the user templates matching the item, best
// first: highest priority, then highest import precedence, then latest
// document order.
func (e *Evaluator) findTemplates(it Item) ([]*Template, error) {
	var matches []*Template
	for _, t := range e.tset.templates {
		ok, err := e.ItemMatches(t.Pattern, it)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, t)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Import != b.Import {
			return a.Import > b.Import
		}
		return a.docOrder > b.docOrder
	})
	return matches, nil
}

// findBuiltin returns the best-matching built-in template. More than one
// match at the top priority is a fatal error.
func (e *Evaluator) findBuiltin(it Item) (*Template, error) {
	var best *Template
	dup := false
	for _, t := range e.tset.builtins {
		ok, err := e.ItemMatches(t.Pattern, it)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		switch {
		case best == nil || t.Priority > best.Priority:
			best = t
			dup = false
		case t.Priority == best.Priority:
			dup = true
		}
	}
	if dup {
		return nil, errUnknown("too many matching builtin templates")
	}
	return best, nil
}

// FindMatch returns the body of the best-matching template for the item,
// considering only templates with import precedence at or above
// importFloor (pass 0 to consider all). When no user template matches,
// built-in templates are consulted; the result is empty when nothing
// matches at all.
func (e *Evaluator) FindMatch(it Item, importFloor int) ([]Constructor, error) {
	matches, err := e.findTemplates(it)
	if err != nil {
		return nil, err
	}
	for _, t := range matches {
		if t.Import >= importFloor {
			return t.Body, nil
		}
	}
	b, err := e.findBuiltin(it)
	if err != nil {
		return nil, err
	}
	if b != nil {
		return b.Body, nil
	}
	return nil, nil
}

// applyTemplates evaluates the select expression and, for each selected
// item, evaluates the body of the best-matching template with the item
// as a singleton context. The recursion depth is incremented around each
// body evaluation.
func (e *Evaluator) applyTemplates(ctxt Sequence, posn int, u *ApplyTemplates) (Sequence, error) {
	sel, err := e.eval(ctxt, posn, u.Select)
	if err != nil {
		return nil, err
	}
	var out Sequence
	for _, it := range sel {
		matches, err := e.findTemplates(it)
		if err != nil {
			return nil, err
		}
		var body []Constructor
		if len(matches) > 0 {
			body = matches[0].Body
		} else {
			// No user template: fall back to the built-in pool, XSLT 6.7.
			b, err := e.findBuiltin(it)
			if err != nil {
				return nil, err
			}
			if b == nil {
				continue
			}
			body = b.Body
		}
		e.dc.DepthIncr()
		rs, err := e.eval(Sequence{it}, 0, body)
		e.dc.DepthDecr()
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

// applyImports re-dispatches the context to templates whose import
// precedence exceeds the current floor. Of the top-priority matches the
// lowest qualifying import wins, and the floor is raised to that
// template's precedence for the sub-evaluation.
func (e *Evaluator) applyImports(ctxt Sequence, posn int) (Sequence, error) {
	if ctxt == nil {
		return nil, errDynamicAbsent("no context item")
	}
	matches, err := e.findTemplates(ctxt[posn])
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		top := matches[0].Priority
		var chosen *Template
		for _, t := range matches {
			if t.Priority != top {
				break
			}
			if t.Import > e.dc.CurrentImport() && (chosen == nil || t.Import < chosen.Import) {
				chosen = t
			}
		}
		if chosen == nil {
			return Sequence{}, nil
		}
		saved := e.dc.CurrentImport()
		e.dc.setImport(chosen.Import)
		e.dc.DepthIncr()
		rs, err := e.eval(ctxt, posn, chosen.Body)
		e.dc.DepthDecr()
		e.dc.setImport(saved)
		return rs, err
	}
	b, err := e.findBuiltin(ctxt[posn])
	if err != nil {
		return nil, err
	}
	if b == nil {
		return Sequence{}, nil
	}
	e.dc.DepthIncr()
	rs, err := e.eval(ctxt, posn, b.Body)
	e.dc.DepthDecr()
	return rs, err
}

// DumpTemplates writes a readable listing of the registered templates,
// for debugging compiled stylesheets.
func (e *Evaluator) DumpTemplates(w io.Writer) {
	for _, t := range e.tset.templates {
		dumpTemplate(w, "Template", t)
	}
	for _, t := range e.tset.builtins {
		dumpTemplate(w, "Builtin template", t)
	}
}

func dumpTemplate(w io.Writer, label string, t *Template) {
	mode := t.Mode
	if mode == "" {
		mode = "--no mode--"
	}
	fmt.Fprintf(w, "%s (mode %q priority %v import precedence %d) matching pattern:\n%s\nBody:\n%s\n",
		label, mode, t.Priority, t.Import,
		FormatConstructors(t.Pattern, 4),
		FormatConstructors(t.Body, 4))
}
