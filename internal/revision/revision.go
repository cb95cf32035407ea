// Package revision implements CVS revision identifiers: dotted tuples of
// non-negative integers ("1.1", "1.2.2.1", "1.14") with the componentwise
// total order CVS itself uses to decide which of two revisions is the
// ancestor.
package revision

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Revision is an immutable dotted-tuple identifier, e.g. 1.2.2.1.
// The zero value is not a valid revision; use Parse.
type Revision struct {
	parts string // canonical dotted string, cached for String()/comparisons
	nums  []int
}

// Parse converts a textual revision ("1.4", "1.2.6.3") into a Revision.
// It rejects empty components, negative numbers and the empty string.
func Parse(text string) (Revision, error) {
	if text == "" {
		return Revision{}, errors.New("revision: empty string")
	}
	fields := strings.Split(text, ".")
	nums := make([]int, len(fields))
	for i, f := range fields {
		if f == "" {
			return Revision{}, errors.Errorf("revision: empty component in %q", text)
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return Revision{}, errors.Wrapf(err, "revision: invalid component %q in %q", f, text)
		}
		if n < 0 {
			return Revision{}, errors.Errorf("revision: negative component %q in %q", f, text)
		}
		nums[i] = n
	}
	return Revision{parts: text, nums: nums}, nil
}

// MustParse is Parse, panicking on error. Intended for fixtures and tests.
func MustParse(text string) Revision {
	r, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the canonical dotted-tuple representation.
func (r Revision) String() string { return r.parts }

// IsZero reports whether r is the unparsed zero value.
func (r Revision) IsZero() bool { return len(r.nums) == 0 }

// Depth returns the number of dotted components, e.g. Depth("1.2.2.1") == 4.
func (r Revision) Depth() int { return len(r.nums) }

// IsBranch reports whether r has an even number of components greater than
// two, the CVS convention for a branch revision (e.g. "1.2.2.1" is on a
// branch rooted at "1.2"; "1.4" is on the trunk).
func (r Revision) IsBranch() bool { return len(r.nums) > 2 && len(r.nums)%2 == 0 }

// Compare implements the componentwise total order: compare each dotted
// component left to right as an integer; the first difference decides, and
// a strict prefix sorts before its extension. Returns -1, 0 or 1.
func Compare(a, b Revision) int {
	n := len(a.nums)
	if len(b.nums) < n {
		n = len(b.nums)
	}
	for i := 0; i < n; i++ {
		if a.nums[i] != b.nums[i] {
			if a.nums[i] < b.nums[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a.nums) < len(b.nums):
		return -1
	case len(a.nums) > len(b.nums):
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b Revision) bool { return Compare(a, b) < 0 }

// Equal reports whether a and b denote the same revision.
func Equal(a, b Revision) bool { return Compare(a, b) == 0 }

// List is a slice of Revisions deduplicated on insertion and kept in
// insertion order; it backs the per-line revision lists the tracking
// engine produces.
type List []Revision

// Append inserts r into the list if it is not already present, keeping the
// caller's desired order (the tracking engine appends in processing order,
// not sorted order: see linetrack).
func (l List) Append(r Revision) List {
	for _, existing := range l {
		if Equal(existing, r) {
			return l
		}
	}
	return append(l, r)
}

// Strings renders the list as its textual revisions, in list order.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = r.String()
	}
	return out
}
