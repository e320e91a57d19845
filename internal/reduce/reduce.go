// Package reduce shrinks a tree of mappings and sequences while a predicate
// keeps holding.
//
// Reduction is greedy and works level by level. At each level every entry
// is tried for removal once, last entry first; an entry whose removal makes
// the predicate fail is kept. The kept entries are then reduced recursively
// with a predicate that reassembles the parent around the child candidate.
// The result is 1-minimal at every level: no single remaining entry can be
// removed on its own. Entries that are only removable together survive.
//
// The reducer knows nothing about serialization. A predicate that must
// refuse a shape (an XML document without a root element, say) returns
// false for it.
package reduce

import (
	"context"
)

// Test reports whether a candidate still has the property being preserved.
type Test func(candidate Value) bool

// Stats counts predicate calls made by one Reduce.
type Stats struct {
	Trials  int
	Removed int
}

// Reduce returns the reduced value. The predicate is never called on the
// input itself. ctx is checked before every predicate call; on cancellation
// the last value accepted so far is returned together with ctx.Err().
func Reduce(ctx context.Context, v Value, test Test) (Value, Stats, error) {
	r := &reducer{ctx: ctx, test: test}
	out, err := r.reduce(v, test)
	return out, r.stats, err
}

type reducer struct {
	ctx   context.Context
	test  Test
	stats Stats
}

func (r *reducer) try(test Test, candidate Value) (bool, error) {
	if err := r.ctx.Err(); err != nil {
		return false, err
	}
	r.stats.Trials++
	return test(candidate), nil
}

func (r *reducer) reduce(v Value, test Test) (Value, error) {
	if !v.IsComposite() || v.Len() == 0 {
		return v, nil
	}

	// Phase 1: try dropping each entry, last first.
	toTest := v.Entries()
	var kept []Entry
	for len(toTest) > 0 {
		e := toTest[len(toTest)-1]
		toTest = toTest[:len(toTest)-1]

		ok, err := r.try(test, v.Assemble(concat(toTest, kept)))
		if err != nil {
			return v.Assemble(concat(toTest, kept, []Entry{e})), err
		}
		if ok {
			r.stats.Removed++
			continue
		}
		kept = append(kept, e)
	}

	// Phase 2: descend into kept composites.
	var done []Entry
	for len(kept) > 0 {
		e := kept[len(kept)-1]
		kept = kept[:len(kept)-1]

		if !e.Value.IsComposite() {
			done = append(done, e)
			continue
		}

		siblings := concat(kept, done)
		child := func(c Value) bool {
			return test(v.Assemble(concat(siblings, []Entry{{Key: e.Key, Index: e.Index, Value: c}})))
		}
		reduced, err := r.reduce(e.Value, child)
		e.Value = reduced
		done = append(done, e)
		if err != nil {
			return v.Assemble(concat(kept, done)), err
		}
	}

	return v.Assemble(done), nil
}

func concat(parts ...[]Entry) []Entry {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]Entry, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
