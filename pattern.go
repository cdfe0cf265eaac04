package xslt

// A pattern is a Path whose steps run in reverse axis orientation: the
// matcher evaluates it with the candidate item as the context, and the
// item matches when the result is non-empty.

// ToPattern converts a forward path constructor into a pattern. The steps
// are reversed; the last (originally first) step keeps its node test but
// flips its axis — child and self become self, every other axis becomes
// its opposite — and each earlier step adopts the flipped axis of the
// step that followed it in the forward direction. A Root mid-path becomes
// a ParentDocument step. Any other constructor shape is a type error.
func ToPattern(sc []Constructor) ([]Constructor, error) {
	if len(sc) != 1 {
		return nil, errType("sequence constructor must be a singleton")
	}
	switch u := sc[0].(type) {
	case *Root:
		return []Constructor{selfDocumentStep()}, nil

	case *Path:
		if len(u.Steps) == 0 {
			return nil, errType("sequence constructor must not be empty")
		}
		steps := make([][]Constructor, 0, len(u.Steps))
		var lastAxis Axis

		last := u.Steps[len(u.Steps)-1]
		if len(last) != 1 {
			return nil, errType("sequence constructor must be steps")
		}
		switch s := last[0].(type) {
		case *Root:
			steps = append(steps, []Constructor{selfDocumentStep()})
			lastAxis = SelfDocument
		case *Step:
			steps = append(steps, []Constructor{&Step{
				Match: NodeMatch{Axis: patternSelfAxis(s.Match.Axis), Test: s.Match.Test},
			}})
			lastAxis = s.Match.Axis.Opposite()
		default:
			return nil, errType("sequence constructor must be a step")
		}

		for i := len(u.Steps) - 2; i >= 0; i-- {
			step := u.Steps[i]
			if len(step) != 1 {
				return nil, errType("sequence constructor must be a step")
			}
			switch s := step[0].(type) {
			case *Root:
				steps = append(steps, []Constructor{&Step{
					Match: NodeMatch{Axis: ParentDocument, Test: KindNodeTest(AnyKindTest)},
				}})
				lastAxis = UnknownAxis
			case *Step:
				steps = append(steps, []Constructor{&Step{
					Match: NodeMatch{Axis: lastAxis, Test: s.Match.Test},
				}})
				lastAxis = s.Match.Axis.Opposite()
			default:
				return nil, errType("sequence constructor must be a step")
			}
		}
		return []Constructor{&Path{Steps: steps}}, nil

	case *Step:
		return []Constructor{&Step{
			Match: NodeMatch{Axis: patternSelfAxis(u.Match.Axis), Test: u.Match.Test},
		}}, nil

	default:
		return nil, errType("sequence constructor must be a path")
	}
}

// patternSelfAxis flips the axis of the step that tests the candidate
// item itself.
func patternSelfAxis(a Axis) Axis {
	switch a {
	case Child, Self:
		return Self
	default:
		return a.Opposite()
	}
}

func selfDocumentStep() Constructor {
	return &Step{Match: NodeMatch{Axis: SelfDocument, Test: KindNodeTest(AnyKindTest)}}
}

// ItemMatches reports whether an item matches a pattern: the pattern is
// evaluated with the item as a singleton context and matches when
// anything remains.
func (e *Evaluator) ItemMatches(pattern []Constructor, it Item) (bool, error) {
	r, err := e.eval(Sequence{it}, 0, pattern)
	if err != nil {
		return false, err
	}
	return len(r) != 0, nil
}
