package xslt

import (
	"math"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

// FunctionImpl is the implementation of a callable function. ctxt is the
// context sequence (nil when absent) and posn the context position within
// it; args holds one evaluated sequence per actual parameter.
type FunctionImpl func(e *Evaluator, ctxt Sequence, posn int, args []Sequence) (Sequence, error)

// Function is a named callable entry. The body is bound during static
// analysis; calling a function with no body fails with ErrNotImplemented.
type Function struct {
	Name   string
	NSURI  string
	Prefix string
	Params []Param
	Body   FunctionImpl
}

// NewFunction returns a function declaration.
func NewFunction(name string, params []Param, body FunctionImpl) Function {
	return Function{Name: name, Params: params, Body: body}
}

// Param is a formal parameter of a function declaration.
type Param struct {
	Name     string
	Datatype string
}

func singleton(v Value) Sequence { return Sequence{ValueItem(v)} }

// seqInt coerces a singleton sequence to an integer.
func seqInt(s Sequence) (int64, error) {
	if len(s) != 1 {
		return 0, errType("not a singleton sequence")
	}
	return s[0].Int()
}

func funcPosition(_ *Evaluator, ctxt Sequence, posn int, _ []Sequence) (Sequence, error) {
	if ctxt == nil {
		return nil, errDynamicAbsent("no context item")
	}
	return singleton(NewInteger(int64(posn) + 1)), nil
}

func funcLast(_ *Evaluator, ctxt Sequence, _ int, _ []Sequence) (Sequence, error) {
	if ctxt == nil {
		return nil, errDynamicAbsent("no context item")
	}
	return singleton(NewInteger(int64(len(ctxt)))), nil
}

func funcCount(_ *Evaluator, ctxt Sequence, _ int, args []Sequence) (Sequence, error) {
	switch len(args) {
	case 0:
		if ctxt == nil {
			return nil, errDynamicAbsent("no context item")
		}
		return singleton(NewInteger(int64(len(ctxt)))), nil
	case 1:
		return singleton(NewInteger(int64(len(args[0])))), nil
	default:
		return nil, errType("wrong number of arguments")
	}
}

func funcLocalName(_ *Evaluator, ctxt Sequence, posn int, _ []Sequence) (Sequence, error) {
	if ctxt == nil {
		return nil, errDynamicAbsent("no context item")
	}
	n := ctxt[posn].Node()
	if n == nil {
		return nil, errType("not a node")
	}
	return singleton(NewString(n.Name().LocalName)), nil
}

func funcName(_ *Evaluator, ctxt Sequence, posn int, _ []Sequence) (Sequence, error) {
	if ctxt == nil {
		return nil, errDynamicAbsent("no context item")
	}
	n := ctxt[posn].Node()
	if n == nil {
		return nil, errType("not a node")
	}
	return singleton(NewString(n.Name().String())), nil
}

func funcString(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 1 {
		return nil, errType("wrong number of arguments")
	}
	return singleton(NewString(args[0].String())), nil
}

func funcConcat(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.String())
	}
	return singleton(NewString(b.String())), nil
}

func funcStartsWith(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 2 {
		return nil, errType("wrong number of arguments")
	}
	return singleton(NewBoolean(strings.HasPrefix(args[0].String(), args[1].String()))), nil
}

func funcContains(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 2 {
		return nil, errType("wrong number of arguments")
	}
	return singleton(NewBoolean(strings.Contains(args[0].String(), args[1].String()))), nil
}

// graphemes splits a string into grapheme clusters.
func graphemes(s string) []string {
	var out []string
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}

func funcSubstring(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, errType("wrong number of arguments")
	}
	start, err := seqInt(args[1])
	if err != nil {
		return nil, err
	}
	g := graphemes(args[0].String())
	// Offsets are 1-based grapheme counts; out-of-range starts truncate.
	skip := start - 1
	if skip < 0 {
		skip = 0
	}
	if skip > int64(len(g)) {
		skip = int64(len(g))
	}
	rest := g[skip:]
	if len(args) == 3 {
		length, err := seqInt(args[2])
		if err != nil {
			return nil, err
		}
		if length < 0 {
			length = 0
		}
		if length < int64(len(rest)) {
			rest = rest[:length]
		}
	}
	return singleton(NewString(strings.Join(rest, ""))), nil
}

func funcSubstringBefore(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 2 {
		return nil, errType("wrong number of arguments")
	}
	s := args[0].String()
	i := strings.Index(s, args[1].String())
	if i < 0 {
		return Sequence{}, nil
	}
	return singleton(NewString(s[:i])), nil
}

func funcSubstringAfter(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 2 {
		return nil, errType("wrong number of arguments")
	}
	s, sub := args[0].String(), args[1].String()
	i := strings.Index(s, sub)
	if i < 0 {
		return Sequence{}, nil
	}
	return singleton(NewString(s[i+len(sub):])), nil
}

func funcNormalizeSpace(_ *Evaluator, ctxt Sequence, posn int, args []Sequence) (Sequence, error) {
	var s string
	switch len(args) {
	case 0:
		if ctxt == nil {
			return nil, errDynamicAbsent("no context item")
		}
		s = ctxt[posn].String()
	case 1:
		s = args[0].String()
	default:
		return nil, errType("wrong number of arguments")
	}
	return singleton(NewString(strings.Join(strings.Fields(s), " "))), nil
}

func funcTranslate(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 3 {
		return nil, errType("wrong number of arguments")
	}
	from := graphemes(args[1].String())
	to := graphemes(args[2].String())
	var b strings.Builder
	for _, c := range graphemes(args[0].String()) {
		mapped := false
		for i, m := range from {
			if c == m {
				// A map character beyond the end of the target string
				// deletes the source character.
				if i < len(to) {
					b.WriteString(to[i])
				}
				mapped = true
				break
			}
		}
		if !mapped {
			b.WriteString(c)
		}
	}
	return singleton(NewString(b.String())), nil
}

func funcBoolean(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 1 {
		return nil, errType("wrong number of arguments")
	}
	return singleton(NewBoolean(args[0].Bool())), nil
}

func funcNot(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 1 {
		return nil, errType("wrong number of arguments")
	}
	return singleton(NewBoolean(!args[0].Bool())), nil
}

func funcTrue(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 0 {
		return nil, errType("wrong number of arguments")
	}
	return singleton(NewBoolean(true)), nil
}

func funcFalse(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 0 {
		return nil, errType("wrong number of arguments")
	}
	return singleton(NewBoolean(false)), nil
}

func funcNumber(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 1 {
		return nil, errType("wrong number of arguments")
	}
	if len(args[0]) != 1 {
		return nil, errType("not a singleton sequence")
	}
	// Prefer an integer; fall back to double, which at worst yields NaN.
	if i, err := args[0][0].Int(); err == nil {
		return singleton(NewInteger(i)), nil
	}
	return singleton(NewDouble(args[0][0].Double())), nil
}

func funcSum(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 1 {
		return nil, errType("wrong number of arguments")
	}
	acc := 0.0
	for _, it := range args[0] {
		acc += it.Double()
	}
	return singleton(NewDouble(acc)), nil
}

func funcFloor(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 1 {
		return nil, errType("wrong number of arguments")
	}
	if len(args[0]) != 1 {
		return nil, errType("not a singleton sequence")
	}
	return singleton(NewDouble(math.Floor(args[0][0].Double()))), nil
}

func funcCeiling(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	if len(args) != 1 {
		return nil, errType("wrong number of arguments")
	}
	if len(args[0]) != 1 {
		return nil, errType("not a singleton sequence")
	}
	return singleton(NewDouble(math.Ceil(args[0][0].Double()))), nil
}

func funcRound(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	switch len(args) {
	case 1:
		if len(args[0]) != 1 {
			return nil, errType("not a singleton sequence")
		}
		return singleton(NewDouble(math.Round(args[0][0].Double()))), nil
	case 2:
		if len(args[0]) != 1 || len(args[1]) != 1 {
			return nil, errType("not a singleton sequence")
		}
		prec, err := args[1][0].Int()
		if err != nil {
			return nil, err
		}
		scale := math.Pow(10, float64(prec))
		return singleton(NewDouble(math.Round(args[0][0].Double()*scale) / scale)), nil
	default:
		return nil, errType("wrong number of arguments")
	}
}

func funcCurrentDateTime(e *Evaluator, _ Sequence, _ int, _ []Sequence) (Sequence, error) {
	return singleton(NewDateTime(e.clock())), nil
}

func funcCurrentDate(e *Evaluator, _ Sequence, _ int, _ []Sequence) (Sequence, error) {
	return singleton(NewDate(e.clock())), nil
}

func funcCurrentTime(e *Evaluator, _ Sequence, _ int, _ []Sequence) (Sequence, error) {
	return singleton(NewTime(e.clock())), nil
}

func formatTemporal(args []Sequence, kind ValueKind, layout string) (Sequence, error) {
	if len(args) != 2 {
		return nil, errType("wrong number of arguments")
	}
	pic, err := parsePicture(args[1].String())
	if err != nil {
		return nil, err
	}
	switch len(args[0]) {
	case 0:
		// An empty value yields an empty sequence.
		return Sequence{}, nil
	case 1:
		it := args[0][0]
		if it.IsNode() {
			return nil, errType("not a date/time value")
		}
		v := it.Value()
		var t time.Time
		switch {
		case v.Kind() == kind || v.Kind() == KindDateTime:
			t = v.t
		case v.Kind() == KindString:
			t, err = time.Parse(layout, v.String())
			if err != nil {
				return nil, errType("unable to determine date/time value")
			}
		default:
			return nil, errType("not a date/time value")
		}
		return singleton(NewString(pic.format(t))), nil
	default:
		return nil, errType("not a singleton sequence")
	}
}

func funcFormatDateTime(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	return formatTemporal(args, KindDateTime, time.RFC3339)
}

func funcFormatDate(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	return formatTemporal(args, KindDate, "2006-01-02")
}

func funcFormatTime(_ *Evaluator, _ Sequence, _ int, args []Sequence) (Sequence, error) {
	return formatTemporal(args, KindTime, "15:04:05")
}

func funcCurrentGroupingKey(e *Evaluator, _ Sequence, _ int, _ []Sequence) (Sequence, error) {
	k, ok := e.dc.GroupingKey()
	if !ok {
		return nil, errDynamicAbsent("no current grouping key")
	}
	if k == nil {
		return Sequence{}, nil
	}
	return Sequence{*k}, nil
}

func funcCurrentGroup(e *Evaluator, _ Sequence, _ int, _ []Sequence) (Sequence, error) {
	g, ok := e.dc.Group()
	if !ok {
		return nil, errDynamicAbsent("no current group")
	}
	if g == nil {
		return Sequence{}, nil
	}
	return g, nil
}
