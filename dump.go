package xslt

import (
	"fmt"
	"strings"
)

// FormatConstructors pretty-prints a sequence constructor with the given
// indentation, one line per operator. It is the debug form used by
// DumpTemplates.
func FormatConstructors(cs []Constructor, indent int) string {
	var b strings.Builder
	for i, c := range cs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatOne(c, indent))
	}
	return b.String()
}

func formatOne(c Constructor, indent int) string {
	pad := strings.Repeat(" ", indent)
	switch u := c.(type) {
	case *Literal:
		return fmt.Sprintf("%sConstruct literal %q", pad, u.Value.String())
	case *LiteralElement:
		return fmt.Sprintf("%sConstruct literal element %q with content:\n%s",
			pad, u.Name.String(), FormatConstructors(u.Content, indent+4))
	case *LiteralAttribute:
		return fmt.Sprintf("%sConstruct literal attribute %q with value:\n%s",
			pad, u.Name.String(), FormatConstructors(u.Value, indent+4))
	case *Copy:
		return fmt.Sprintf("%sConstruct copy with content:\n%s",
			pad, FormatConstructors(u.Content, indent+4))
	case *DeepCopy:
		return fmt.Sprintf("%sConstruct deep copy of:\n%s",
			pad, FormatConstructors(u.Select, indent+4))
	case *ContextItem:
		return pad + "Construct context item"
	case *SetAttribute:
		return fmt.Sprintf("%sSet attribute %q to:\n%s",
			pad, u.Name.String(), FormatConstructors(u.Value, indent+4))
	case *Or:
		return pad + "Construct OR of:\n" + formatGroups(u.Operands, indent+4)
	case *And:
		return pad + "Construct AND of:\n" + formatGroups(u.Operands, indent+4)
	case *GeneralComparison:
		return fmt.Sprintf("%sGeneral comparison %s of:\n%s",
			pad, u.Op, formatGroups(u.Operands, indent+4))
	case *ValueComparison:
		return fmt.Sprintf("%sValue comparison %s of:\n%s",
			pad, u.Op, formatGroups(u.Operands, indent+4))
	case *Concat:
		return pad + "Construct concatenation of:\n" + formatGroups(u.Operands, indent+4)
	case *Range:
		return fmt.Sprintf("%sConstruct range from:\n%s\n%sto:\n%s",
			pad, FormatConstructors(u.Start, indent+4),
			pad, FormatConstructors(u.End, indent+4))
	case *Arithmetic:
		var b strings.Builder
		fmt.Fprintf(&b, "%sArithmetic:", pad)
		for _, op := range u.Operands {
			fmt.Fprintf(&b, "\n%s  %s\n%s", pad, op.Op, FormatConstructors(op.Operand, indent+4))
		}
		return b.String()
	case *Root:
		return pad + "Construct document root"
	case *Path:
		var b strings.Builder
		fmt.Fprintf(&b, "%sConstruct relative path:", pad)
		for _, s := range u.Steps {
			b.WriteString("\n" + FormatConstructors(s, indent+4))
		}
		return b.String()
	case *Step:
		s := fmt.Sprintf("%sConstruct step %s", pad, u.Match)
		if len(u.Predicates) != 0 {
			s += "\n" + pad + "predicates:\n" + formatGroups(u.Predicates, indent+4)
		}
		return s
	case *FunctionCall:
		return fmt.Sprintf("%sCall function %q with arguments:\n%s",
			pad, u.Fn.Name, formatGroups(u.Args, indent+4))
	case *VariableDeclaration:
		return fmt.Sprintf("%sDeclare variable %q as:\n%s",
			pad, u.Name, FormatConstructors(u.Value, indent+4))
	case *VariableReference:
		return fmt.Sprintf("%sReference variable %q", pad, u.Name)
	case *Loop:
		return fmt.Sprintf("%sLoop over:\n%s\n%sbody:\n%s",
			pad, FormatConstructors(u.Bindings, indent+4),
			pad, FormatConstructors(u.Body, indent+4))
	case *Switch:
		var b strings.Builder
		fmt.Fprintf(&b, "%sSwitch:", pad)
		for _, cl := range u.Cases {
			fmt.Fprintf(&b, "\n%s  when:\n%s\n%s  then:\n%s",
				pad, FormatConstructors(cl.Test, indent+4),
				pad, FormatConstructors(cl.Body, indent+4))
		}
		fmt.Fprintf(&b, "\n%s  otherwise:\n%s", pad, FormatConstructors(u.Otherwise, indent+4))
		return b.String()
	case *ApplyTemplates:
		return fmt.Sprintf("%sApply templates to:\n%s",
			pad, FormatConstructors(u.Select, indent+4))
	case *ApplyImports:
		return pad + "Apply imports"
	case *ForEach:
		var b strings.Builder
		fmt.Fprintf(&b, "%sFor each of:\n%s", pad, FormatConstructors(u.Select, indent+4))
		if u.Grouping != nil {
			kind := "by"
			switch u.Grouping.Kind {
			case GroupAdjacent:
				kind = "adjacent"
			case GroupStartingWith:
				kind = "starting-with"
			case GroupEndingWith:
				kind = "ending-with"
			}
			fmt.Fprintf(&b, "\n%sgrouped %s:\n%s", pad, kind, FormatConstructors(u.Grouping.Key, indent+4))
		}
		fmt.Fprintf(&b, "\n%sbody:\n%s", pad, FormatConstructors(u.Body, indent+4))
		return b.String()
	case *NotImplemented:
		return fmt.Sprintf("%sNot implemented: %s", pad, u.Message)
	default:
		return fmt.Sprintf("%s%T", pad, c)
	}
}

func formatGroups(groups [][]Constructor, indent int) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, FormatConstructors(g, indent))
	}
	return strings.Join(parts, "\n")
}
