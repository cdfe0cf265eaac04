package xslt

// StaticContext holds the function and variable declarations available to
// a sequence constructor, and performs the pre-evaluation binding pass.
type StaticContext struct {
	funcs map[string]Function
	vars  map[string]bool
}

// NewStaticContext returns a static context with no declarations.
func NewStaticContext() *StaticContext {
	return &StaticContext{
		funcs: make(map[string]Function),
		vars:  make(map[string]bool),
	}
}

// CoreFunctions returns a static context initialised with the XPath
// 1.0+2.0 core library:
//
// position, last, count, local-name, name, string, concat, starts-with,
// contains, substring, substring-before, substring-after,
// normalize-space, translate, boolean, not, true, false, number, sum,
// floor, ceiling, round, current-dateTime, current-date, current-time,
// format-dateTime, format-date, format-time.
func CoreFunctions() *StaticContext {
	sc := NewStaticContext()
	core := map[string]FunctionImpl{
		"position":         funcPosition,
		"last":             funcLast,
		"count":            funcCount,
		"local-name":       funcLocalName,
		"name":             funcName,
		"string":           funcString,
		"concat":           funcConcat,
		"starts-with":      funcStartsWith,
		"contains":         funcContains,
		"substring":        funcSubstring,
		"substring-before": funcSubstringBefore,
		"substring-after":  funcSubstringAfter,
		"normalize-space":  funcNormalizeSpace,
		"translate":        funcTranslate,
		"boolean":          funcBoolean,
		"not":              funcNot,
		"true":             funcTrue,
		"false":            funcFalse,
		"number":           funcNumber,
		"sum":              funcSum,
		"floor":            funcFloor,
		"ceiling":          funcCeiling,
		"round":            funcRound,
		"current-dateTime": funcCurrentDateTime,
		"current-date":     funcCurrentDate,
		"current-time":     funcCurrentTime,
		"format-dateTime":  funcFormatDateTime,
		"format-date":      funcFormatDate,
		"format-time":      funcFormatTime,
	}
	for name, impl := range core {
		sc.DeclareFunction(NewFunction(name, nil, impl))
	}
	return sc
}

// CoreAndGroupingFunctions returns the core library extended with the
// XSLT grouping functions current-group and current-grouping-key.
func CoreAndGroupingFunctions() *StaticContext {
	sc := CoreFunctions()
	sc.DeclareFunction(NewFunction("current-group", nil, funcCurrentGroup))
	sc.DeclareFunction(NewFunction("current-grouping-key", nil, funcCurrentGroupingKey))
	return sc
}

// DeclareFunction adds or replaces a function declaration.
func (sc *StaticContext) DeclareFunction(f Function) {
	sc.funcs[f.Name] = f
}

// Function looks up a declared function by name.
func (sc *StaticContext) Function(name string) (Function, bool) {
	f, ok := sc.funcs[name]
	return f, ok
}

// DeclareVariable records a variable name as declared.
func (sc *StaticContext) DeclareVariable(name string) {
	sc.vars[name] = true
}

// VariableDeclared reports whether the name has been declared.
func (sc *StaticContext) VariableDeclared(name string) bool {
	return sc.vars[name]
}

// Analyze walks a constructor tree, binding every FunctionCall to its
// declared implementation and recording every declared variable. A call
// to an undeclared function is fatal at analysis time.
func (sc *StaticContext) Analyze(cs []Constructor) error {
	for _, c := range cs {
		if err := sc.analyzeOne(c); err != nil {
			return err
		}
	}
	return nil
}

func (sc *StaticContext) analyzeOne(c Constructor) error {
	switch u := c.(type) {
	case *Switch:
		for _, cl := range u.Cases {
			if err := sc.Analyze(cl.Test); err != nil {
				return err
			}
			if err := sc.Analyze(cl.Body); err != nil {
				return err
			}
		}
		return sc.Analyze(u.Otherwise)
	case *Loop:
		if err := sc.Analyze(u.Bindings); err != nil {
			return err
		}
		return sc.Analyze(u.Body)
	case *SetAttribute:
		return sc.Analyze(u.Value)
	case *LiteralAttribute:
		return sc.Analyze(u.Value)
	case *FunctionCall:
		g, ok := sc.funcs[u.Fn.Name]
		if !ok {
			return errNotImplementedf("call to unknown function %q", u.Fn.Name)
		}
		u.Fn.Body = g.Body
		for _, a := range u.Args {
			if err := sc.Analyze(a); err != nil {
				return err
			}
		}
		return nil
	case *VariableDeclaration:
		sc.DeclareVariable(u.Name)
		return sc.Analyze(u.Value)
	case *Or:
		return sc.analyzeAll(u.Operands)
	case *And:
		return sc.analyzeAll(u.Operands)
	case *Path:
		return sc.analyzeAll(u.Steps)
	case *Concat:
		return sc.analyzeAll(u.Operands)
	case *Range:
		if err := sc.Analyze(u.Start); err != nil {
			return err
		}
		return sc.Analyze(u.End)
	case *Step:
		return sc.analyzeAll(u.Predicates)
	case *GeneralComparison:
		return sc.analyzeAll(u.Operands)
	case *ValueComparison:
		return sc.analyzeAll(u.Operands)
	case *Arithmetic:
		for _, op := range u.Operands {
			if err := sc.Analyze(op.Operand); err != nil {
				return err
			}
		}
		return nil
	case *ApplyTemplates:
		return sc.Analyze(u.Select)
	case *ForEach:
		if err := sc.Analyze(u.Select); err != nil {
			return err
		}
		if u.Grouping != nil {
			if err := sc.Analyze(u.Grouping.Key); err != nil {
				return err
			}
		}
		return sc.Analyze(u.Body)
	case *Copy:
		if err := sc.Analyze(u.Select); err != nil {
			return err
		}
		return sc.Analyze(u.Content)
	case *LiteralElement:
		return sc.Analyze(u.Content)
	case *DeepCopy:
		return sc.Analyze(u.Select)
	default:
		// Literal, ContextItem, Root, VariableReference, ApplyImports and
		// NotImplemented carry no nested constructors.
		return nil
	}
}

func (sc *StaticContext) analyzeAll(groups [][]Constructor) error {
	for _, g := range groups {
		if err := sc.Analyze(g); err != nil {
			return err
		}
	}
	return nil
}
