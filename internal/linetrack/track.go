// Package linetrack implements the line-ownership tracking engine: given a
// file's chronological sequence of revisions and the diffs between them,
// it computes, for every line of the file as of its newest revision, the
// ordered list of revisions whose hunks created or touched that line.
//
// Two interchangeable strategies are provided (BackwardLine and
// ForwardRange); both must agree on every input, a property exercised in
// track_test.go.
package linetrack

import (
	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/cvsdiff"
	"github.com/cyraxred/cvssearch/internal/revision"
)

// Step is one revision in a file's chronological history.
type Step struct {
	Revision revision.Revision

	// Diff is the diff from the previous Step's revision to this one. It
	// is nil on the first (oldest) step, which instead sets InitialLines.
	Diff *cvsdiff.Diff

	// InitialLines is the file's line count as of the first committed
	// revision. Only meaningful on the first step.
	InitialLines int
}

// Strategy computes per-line revision lists from a chronological (oldest
// first) sequence of Steps.
type Strategy interface {
	Track(steps []Step) ([]revision.List, error)
}

// headLineCount derives the file's line count as of the last step from the
// first step's InitialLines and the cumulative size of every later diff.
func headLineCount(steps []Step) (int, error) {
	if len(steps) == 0 {
		return 0, nil
	}
	if steps[0].Diff != nil {
		return 0, errors.New("linetrack: first step must not carry a diff")
	}
	n := steps[0].InitialLines
	for i, s := range steps[1:] {
		if s.Diff == nil {
			return 0, errors.Errorf("linetrack: step %d is missing its diff", i+1)
		}
		n += s.Diff.Size()
	}
	if n < 0 {
		return 0, errors.Errorf("linetrack: computed negative line count %d", n)
	}
	return n, nil
}
