package linetrack

import (
	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/cvsdiff"
	"github.com/cyraxred/cvssearch/internal/rbtree"
	"github.com/cyraxred/cvssearch/internal/revision"
)

// ForwardRange is the ordered-range-boundary tracking strategy: it walks
// the revision history oldest-to-newest, applying each diff forward onto
// an ordered set of contiguous ranges that all share the same revision
// list. Range boundaries are kept in an internal/rbtree red-black tree
// keyed by line position, with the tree's integer Value field holding the
// index of the range's revision list in an arena slice — replacing the
// original tool's pointer-into-container tie-break with the arena-index
// scheme that makes the tree safe to reason about without raw pointers.
//
// Diffs passed in must already have had cvsdiff.Diff.AlignTop applied:
// ForwardRange consumes entries in order against a buffer that mutates as
// it goes, so every entry's Source range must be expressed in that
// evolving (post-prior-entries) coordinate frame rather than cvs diff's
// raw old-file numbering.
type ForwardRange struct{}

// rangeTracker holds the range-boundary tree, which maps each boundary
// position to the arena index of the revision list owning
// [position, nextBoundary).
type rangeTracker struct {
	tree  *rbtree.RBTree
	arena []revision.List
}

const endSentinel = -1

func newRangeTracker(length int, oldestRev revision.Revision) *rangeTracker {
	t := &rangeTracker{tree: &rbtree.RBTree{}}
	// arena[0]: the file's original, untouched lines. They trace back to
	// the file's very first revision even if nothing ever touches them.
	t.arena = append(t.arena, revision.List{}.Append(oldestRev))
	if length > 0 {
		t.tree.Insert(rbtree.Item{Key: 0, Value: 0})
	}
	t.tree.Insert(rbtree.Item{Key: length, Value: endSentinel})
	return t
}

// touch appends rev to the revision list owning every boundary segment
// that intersects [begin, end), splitting segments at begin/end first so
// only the intersecting lines are affected.
func (t *rangeTracker) touch(begin, end int, rev revision.Revision) {
	if begin >= end {
		return
	}
	t.splitAt(begin)
	t.splitAt(end)
	for iter := t.tree.FindGE(begin); !iter.Limit() && iter.Item().Key < end; iter = iter.Next() {
		old := iter.Item().Value
		if old == endSentinel {
			continue
		}
		t.arena = append(t.arena, t.arena[old].Append(rev))
		iter.Item().Value = len(t.arena) - 1
	}
}

// splitAt ensures a boundary exists exactly at pos (a no-op if one already
// does, or if pos is outside the tracked range), so later operations can
// address [begin,end) without disturbing lines outside it.
func (t *rangeTracker) splitAt(pos int) {
	iter := t.tree.FindLE(pos)
	if iter.NegativeLimit() || iter.Item().Key == pos {
		return
	}
	owner := iter.Item().Value
	maxIter := t.tree.Max()
	if !maxIter.Limit() && pos > maxIter.Item().Key {
		return
	}
	t.tree.Insert(rbtree.Item{Key: pos, Value: owner})
}

// insert makes room for count fresh lines at pos, owned by a brand new
// (empty, soon-to-be-touched) arena slot, shifting every later boundary
// by +count.
func (t *rangeTracker) insert(pos, count int) {
	if count <= 0 {
		return
	}
	t.splitAt(pos)
	for iter := t.tree.FindGE(pos); !iter.Limit(); iter = iter.Next() {
		iter.Item().Key += count
	}
	t.arena = append(t.arena, nil)
	t.tree.Insert(rbtree.Item{Key: pos, Value: len(t.arena) - 1})
}

// remove deletes the [pos, pos+count) lines, shifting every later boundary
// by -count.
func (t *rangeTracker) remove(pos, count int) {
	if count <= 0 {
		return
	}
	t.splitAt(pos)
	t.splitAt(pos + count)
	for iter := t.tree.FindGE(pos); !iter.Limit() && iter.Item().Key < pos+count; {
		next := iter.Next()
		t.tree.DeleteWithKey(iter.Item().Key)
		iter = next
	}
	for iter := t.tree.FindGE(pos + count); !iter.Limit(); iter = iter.Next() {
		iter.Item().Key -= count
	}
}

// flatten reads the final per-line revision lists out in position order.
func (t *rangeTracker) flatten(length int) []revision.List {
	out := make([]revision.List, length)
	iter := t.tree.Min()
	pos := 0
	for !iter.Limit() {
		next := iter.Next()
		end := length
		if !next.Limit() {
			end = next.Item().Key
		}
		owner := iter.Item().Value
		if owner != endSentinel {
			for ; pos < end; pos++ {
				out[pos] = t.arena[owner]
			}
		}
		iter = next
	}
	return out
}

// Track implements Strategy.
func (ForwardRange) Track(steps []Step) ([]revision.List, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	tracker := newRangeTracker(steps[0].InitialLines, steps[0].Revision)

	for k := 1; k < len(steps); k++ {
		step := steps[k]
		if step.Diff == nil {
			return nil, errors.Errorf("linetrack: step %d is missing its diff", k)
		}
		for _, e := range step.Diff.Entries {
			if err := applyForward(tracker, e, step.Revision); err != nil {
				return nil, errors.Wrapf(err, "linetrack: revision %s", step.Revision)
			}
		}
	}

	n, err := headLineCount(steps)
	if err != nil {
		return nil, err
	}
	return tracker.flatten(n), nil
}

func applyForward(t *rangeTracker, e cvsdiff.Entry, rev revision.Revision) error {
	switch e.Kind {
	case cvsdiff.Add:
		pos := int(e.Source.Begin) - 1
		count := int(e.Dest.Size())
		t.insert(pos, count)
		t.touch(pos, pos+count, rev)
	case cvsdiff.Delete:
		pos := int(e.Source.Begin) - 1
		count := int(e.Source.Size())
		t.remove(pos, count)
	case cvsdiff.Change:
		begin := int(e.Source.Begin) - 1
		srcCount := int(e.Source.Size())
		dstCount := int(e.Dest.Size())
		delta := dstCount - srcCount
		switch {
		case delta > 0:
			t.insert(begin+srcCount, delta)
		case delta < 0:
			t.remove(begin+dstCount, -delta)
		}
		t.touch(begin, begin+dstCount, rev)
	default:
		return errors.Errorf("unknown entry kind %q", e.Kind)
	}
	return nil
}
