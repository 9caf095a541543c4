package store

import "sort"

// Matches evaluates the predicate conjunction against a document's
// top-level fields. Field values follow JSON typing: numbers compare as
// float64, strings lexically, bools support equality only.
func Matches(doc Document, pred Predicate) bool {
	for _, cond := range pred {
		val, ok := doc.Fields[cond.Field]
		if !ok {
			return false
		}
		cmp, comparable := compare(val, cond.Value)
		if !comparable {
			return false
		}
		switch cond.Op {
		case OpEq:
			if cmp != 0 {
				return false
			}
		case OpLt:
			if cmp >= 0 {
				return false
			}
		case OpLte:
			if cmp > 0 {
				return false
			}
		case OpGt:
			if cmp <= 0 {
				return false
			}
		case OpGte:
			if cmp < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SortDocs orders documents by the given fields, stably, so repeated
// queries over unchanged data return a repeatable order.
func SortDocs(docs []Document, order []Order) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range order {
			cmp, ok := compare(docs[i].Fields[o.Field], docs[j].Fields[o.Field])
			if !ok || cmp == 0 {
				continue
			}
			if o.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compare(a, b any) (int, bool) {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		default:
			return 0, true
		}
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		// false sorts before true
		if !av {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
