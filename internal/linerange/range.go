// Package linerange implements the half-open line range used throughout the
// diff parser and the line-tracking engine: [Begin, End) over 1-based
// line numbers, with Begin <= End as its only invariant.
package linerange

import "github.com/pkg/errors"

// Range is a half-open interval of line indices: a single line is
// {Begin, Begin+1}; an insertion point (no lines) is {Begin, Begin}.
type Range struct {
	Begin uint32
	End   uint32
}

// New builds a Range, rejecting Begin > End.
func New(begin, end uint32) (Range, error) {
	if begin > end {
		return Range{}, errors.Errorf("linerange: begin %d > end %d", begin, end)
	}
	return Range{Begin: begin, End: end}, nil
}

// Line returns the single-line range [line, line+1).
func Line(line uint32) Range { return Range{Begin: line, End: line + 1} }

// InsertionPoint returns the empty range [line, line) marking where lines
// are inserted without covering any existing ones.
func InsertionPoint(line uint32) Range { return Range{Begin: line, End: line} }

// Size returns the number of lines the range covers.
func (r Range) Size() uint32 { return r.End - r.Begin }

// Empty reports whether the range covers no lines.
func (r Range) Empty() bool { return r.Begin == r.End }

// Shift translates both endpoints by offset. It panics if the result would
// make Begin > End or underflow below zero; callers are expected to only
// shift ranges by offsets the caller already knows are safe (mirroring the
// original implementation's assertions).
func (r Range) Shift(offset int) Range {
	begin := int64(r.Begin) + int64(offset)
	end := int64(r.End) + int64(offset)
	if begin < 0 || end < begin {
		panic(errors.Errorf("linerange: invalid shift of %v by %d", r, offset))
	}
	return Range{Begin: uint32(begin), End: uint32(end)}
}

// ShiftBegin moves only Begin by offset, keeping End fixed.
func (r Range) ShiftBegin(offset int) Range {
	begin := int64(r.Begin) + int64(offset)
	if begin < 0 || uint32(begin) > r.End {
		panic(errors.Errorf("linerange: invalid begin shift of %v by %d", r, offset))
	}
	return Range{Begin: uint32(begin), End: r.End}
}

// ShiftEnd moves only End by offset, keeping Begin fixed.
func (r Range) ShiftEnd(offset int) Range {
	end := int64(r.End) + int64(offset)
	if end < int64(r.Begin) {
		panic(errors.Errorf("linerange: invalid end shift of %v by %d", r, offset))
	}
	return Range{Begin: r.Begin, End: uint32(end)}
}

// Intersects reports whether the two ranges share at least one line.
func (r Range) Intersects(o Range) bool {
	return r.End > o.Begin && o.End > r.Begin
}

// Intersection returns the overlap of r and o. ok is false if they do not
// intersect, in which case the returned Range is the zero value.
func (r Range) Intersection(o Range) (Range, bool) {
	if !r.Intersects(o) {
		return Range{}, false
	}
	begin := r.Begin
	if o.Begin > begin {
		begin = o.Begin
	}
	end := r.End
	if o.End < end {
		end = o.End
	}
	return Range{Begin: begin, End: end}, true
}

// Union returns the smallest range covering both r and o, regardless of
// whether they intersect or touch.
func (r Range) Union(o Range) Range {
	begin := r.Begin
	if o.Begin < begin {
		begin = o.Begin
	}
	end := r.End
	if o.End > end {
		end = o.End
	}
	return Range{Begin: begin, End: end}
}

// Subtract removes the part of r that overlaps o. It returns up to two
// remaining pieces (left of o, right of o); each bool reports whether the
// corresponding piece is non-empty and present.
func (r Range) Subtract(o Range) (left Range, hasLeft bool, right Range, hasRight bool) {
	overlap, ok := r.Intersection(o)
	if !ok {
		return Range{}, false, Range{}, false
	}
	if r.Begin < overlap.Begin {
		left, hasLeft = Range{Begin: r.Begin, End: overlap.Begin}, true
	}
	if r.End > overlap.End {
		right, hasRight = Range{Begin: overlap.End, End: r.End}, true
	}
	return
}

// String renders the range the way the CVS diff-cache format does: a single
// number for a one-line range, "begin,end-1" (inclusive end) otherwise.
func (r Range) String() string {
	if r.Begin+1 >= r.End {
		return itoa(r.Begin)
	}
	return itoa(r.Begin) + "," + itoa(r.End-1)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
