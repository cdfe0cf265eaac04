package xslt

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// valueCollator wraps a locale collator for string comparison.
type valueCollator struct {
	c *collate.Collator
}

// SetCollation installs a locale-aware collation for string comparisons
// in general and value comparisons. The tag is a BCP 47 language tag
// such as "en" or "de-DE". Without a collation, string ordering is
// codepoint-lexicographic.
func (e *Evaluator) SetCollation(tag string) error {
	t, err := language.Parse(tag)
	if err != nil {
		return errTypef("bad collation tag %q: %v", tag, err)
	}
	e.collator = &valueCollator{c: collate.New(t)}
	return nil
}

// compareItems compares two items under an operator, routing string
// comparisons through the installed collation when one is set.
func (e *Evaluator) compareItems(l, r Item, op Operator) (bool, error) {
	if e.collator != nil && !l.IsNode() && isStringKind(l.Value().Kind()) {
		switch op {
		case Equal, NotEqual, LessThan, LessThanEqual, GreaterThan, GreaterThanEqual:
			return compareOrdered(e.collator.c.CompareString(l.String(), r.String()), 0, op)
		}
	}
	return l.Compare(r, op)
}

func isStringKind(k ValueKind) bool {
	switch k {
	case KindString, KindNormalizedString, UntypedAtomic:
		return true
	}
	return false
}
