package linetrack

import (
	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/cvsdiff"
	"github.com/cyraxred/cvssearch/internal/revision"
)

// BackwardLine is the per-line-array tracking strategy: it starts from the
// file's newest content and walks the revision history newest-to-oldest,
// undoing one diff at a time against a plain slice of cells.
//
// Each cell remembers the head-line index it originally came from (-1 if
// it was reintroduced by undoing a Delete, i.e. it is content that never
// survives to the file's newest revision). A cell's revision list is
// finalized into the result the moment an Add-undo removes it from the
// array — at that point it is exactly a head line's complete history — and
// whatever cells are still carrying a non-negative head index once every
// step has been undone are head lines that trace back unchanged to the
// file's very first revision.
//
// Because the walk proceeds in reverse, each diff's Dest coordinates are
// already expressed in the same frame the running buffer uses at that
// point (cvs never needs to re-derive them the way the forward direction
// does with cvsdiff.AlignTop) — entries are simply replayed from last to
// first within each diff.
//
// Diffs passed in must already have had cvsdiff.RefineAll applied so that
// every surviving Change entry is a genuine 1:1 line substitution; a
// Change entry whose sides differ in size is treated as an add or delete
// of the size difference, appended/removed at its trailing edge, so the
// engine stays correct even if refinement was skipped.
type BackwardLine struct{}

type backwardCell struct {
	head int // index into the head-line result, or -1 if not a head line
	revs revision.List
}

// Track implements Strategy.
func (BackwardLine) Track(steps []Step) ([]revision.List, error) {
	n, err := headLineCount(steps)
	if err != nil {
		return nil, err
	}
	result := make([]revision.List, n)
	cells := make([]backwardCell, n)
	for i := range cells {
		cells[i].head = i
	}

	for k := len(steps) - 1; k >= 1; k-- {
		step := steps[k]
		if step.Diff == nil {
			return nil, errors.Errorf("linetrack: step %d is missing its diff", k)
		}
		entries := step.Diff.Entries
		for i := len(entries) - 1; i >= 0; i-- {
			cells, err = applyBackward(cells, result, entries[i], step.Revision)
			if err != nil {
				return nil, errors.Wrapf(err, "linetrack: revision %s", step.Revision)
			}
		}
	}
	// Every cell still standing traces back unchanged to the file's very
	// first revision, so that revision belongs in its history too.
	for _, c := range cells {
		if c.head >= 0 {
			result[c.head] = c.revs.Append(steps[0].Revision)
		}
	}
	// The walk collected each history newest first; report it oldest
	// first, the order ForwardRange produces.
	for i, revs := range result {
		ordered := make(revision.List, len(revs))
		for j, r := range revs {
			ordered[len(revs)-1-j] = r
		}
		result[i] = ordered
	}
	return result, nil
}

// applyBackward undoes one hunk against cells, whose indices mirror the
// "dest" (newer) revision's layout, leaving it mirroring the "source"
// (older) revision's layout. Finalized head lines are written into result
// as soon as their cell is removed.
func applyBackward(cells []backwardCell, result []revision.List, e cvsdiff.Entry, rev revision.Revision) ([]backwardCell, error) {
	begin, end := int(e.Dest.Begin)-1, int(e.Dest.End)-1
	if begin < 0 || end > len(cells) || begin > end {
		return nil, errors.Errorf("entry %v out of bounds for %d cells", e, len(cells))
	}

	finalize := func(i int) {
		if cells[i].head >= 0 {
			result[cells[i].head] = cells[i].revs
		}
	}

	switch e.Kind {
	case cvsdiff.Add:
		// These lines did not exist before rev: finalize them as head
		// lines (if they are any) with rev appended, then drop them
		// going further back.
		for i := begin; i < end; i++ {
			cells[i].revs = cells[i].revs.Append(rev)
			finalize(i)
		}
		return removeCells(cells, begin, end), nil

	case cvsdiff.Delete:
		// These lines existed before rev and were removed by it: they
		// reappear at the deletion's insertion point. They are not head
		// lines (a head line is never reached by undoing a delete).
		count := int(e.Source.Size())
		return insertCells(cells, begin, count), nil

	case cvsdiff.Change:
		for i := begin; i < end; i++ {
			cells[i].revs = cells[i].revs.Append(rev)
		}
		delta := int(e.Source.Size()) - int(e.Dest.Size())
		switch {
		case delta > 0:
			// Source had more lines than Dest: the extra ones were
			// deleted by rev and reappear at the hunk's trailing edge.
			return insertCells(cells, end, delta), nil
		case delta < 0:
			// Dest had more lines than Source: the extra ones were
			// added by rev and are finalized/dropped going further back.
			extra := -delta
			for i := end - extra; i < end; i++ {
				cells[i].revs = cells[i].revs.Append(rev)
				finalize(i)
			}
			return removeCells(cells, end-extra, end), nil
		default:
			return cells, nil
		}
	}
	return cells, nil
}

// removeCells deletes cells[begin:end], preserving order.
func removeCells(cells []backwardCell, begin, end int) []backwardCell {
	return append(cells[:begin:begin], cells[end:]...)
}

// insertCells inserts count fresh (non-head, empty) cells at position pos.
func insertCells(cells []backwardCell, pos, count int) []backwardCell {
	if count <= 0 {
		return cells
	}
	out := make([]backwardCell, len(cells)+count)
	copy(out, cells[:pos])
	for i := pos; i < pos+count; i++ {
		out[i] = backwardCell{head: -1}
	}
	copy(out[pos+count:], cells[pos:])
	return out
}
