package xslt

// group is one partition of a for-each-group selection. A nil key marks
// an ungrouped partition.
type group struct {
	key   *Item
	items Sequence
}

// forEach evaluates the select expression, partitions the items
// according to the grouping specification, and evaluates the body once
// per group with the group as the context sequence. The group's key and
// items are pushed onto the context stacks around each body evaluation.
func (e *Evaluator) forEach(ctxt Sequence, posn int, u *ForEach) (Sequence, error) {
	sel, err := e.eval(ctxt, posn, u.Select)
	if err != nil {
		return nil, err
	}
	groups, err := e.partition(sel, u.Grouping)
	if err != nil {
		return nil, err
	}
	var out Sequence
	for _, g := range groups {
		e.dc.PushGroupingKey(g.key)
		e.dc.PushGroup(g.items)
		rs, err := e.eval(g.items, 0, u.Body)
		e.dc.PopGroup()
		e.dc.PopGroupingKey()
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	return out, nil
}

func (e *Evaluator) partition(sel Sequence, spec *Grouping) ([]group, error) {
	if spec == nil {
		// One group per item, no key.
		groups := make([]group, 0, len(sel))
		for _, it := range sel {
			groups = append(groups, group{items: Sequence{it}})
		}
		return groups, nil
	}
	switch spec.Kind {
	case GroupBy:
		return e.partitionBy(sel, spec.Key)
	case GroupAdjacent:
		return e.partitionAdjacent(sel, spec.Key)
	default:
		// group-starting-with and group-ending-with are reserved.
		return nil, errNotImplemented("group-starting-with and group-ending-with")
	}
}

// partitionBy evaluates the key expression for each item; every produced
// key places the item into the bucket with that key's string form.
// Buckets iterate in first-occurrence order.
func (e *Evaluator) partitionBy(sel Sequence, key []Constructor) ([]group, error) {
	buckets := make(map[string]int)
	var groups []group
	for i := range sel {
		keys, err := e.eval(sel, i, key)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			ks := k.String()
			gi, ok := buckets[ks]
			if !ok {
				gi = len(groups)
				buckets[ks] = gi
				kit := ValueItem(NewString(ks))
				groups = append(groups, group{key: &kit})
			}
			groups[gi].items = append(groups[gi].items, sel[i])
		}
	}
	return groups, nil
}

// partitionAdjacent evaluates a single-valued key for each item; every
// change of key closes the current group and starts a new one.
func (e *Evaluator) partitionAdjacent(sel Sequence, key []Constructor) ([]group, error) {
	if len(sel) == 0 {
		return nil, nil
	}
	var groups []group
	cur := Sequence{sel[0]}
	curKey, err := e.adjacentKey(sel, 0, key)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(sel); i++ {
		thisKey, err := e.adjacentKey(sel, i, key)
		if err != nil {
			return nil, err
		}
		same, err := curKey.Compare(thisKey, Equal)
		if err != nil {
			return nil, err
		}
		if same {
			cur = append(cur, sel[i])
			continue
		}
		groups = append(groups, closeGroup(curKey, cur))
		cur = Sequence{sel[i]}
		curKey = thisKey
	}
	groups = append(groups, closeGroup(curKey, cur))
	return groups, nil
}

func (e *Evaluator) adjacentKey(sel Sequence, i int, key []Constructor) (Item, error) {
	ks, err := e.eval(sel, i, key)
	if err != nil {
		return Item{}, err
	}
	if len(ks) != 1 {
		return Item{}, errType("group-adjacent attribute must evaluate to a single item")
	}
	return ks[0], nil
}

func closeGroup(key Item, items Sequence) group {
	kit := ValueItem(NewString(key.String()))
	return group{key: &kit, items: items}
}
