// Package cvsdiff parses classic "diff"/"cvs diff" hunk headers and content
// into structured entries, aligns hunk coordinates to a single coordinate
// space ("top alignment"), and refines coarse change hunks with a
// Needleman-Wunsch-style local sequence alignment.
package cvsdiff

import (
	"github.com/cyraxred/cvssearch/internal/linerange"
)

// Kind identifies which of the three classic diff operations an Entry
// describes.
type Kind byte

const (
	Add    Kind = 'a'
	Change Kind = 'c'
	Delete Kind = 'd'
)

// Entry is one parsed hunk: "S1[,S2]{a|c|d}D1[,D2]". Source and Dest are
// stored as half-open ranges over the CVS hunk header's own (1-based)
// numbering, with the kind-specific boundary adjustments folded in already:
//
//	"2a3,4"   -> Source=[3,3)  Dest=[3,5)   (insertion after old line 2)
//	"3,4d2"   -> Source=[3,5)  Dest=[3,3)   (deletion, insertion point at new line 2)
//	"3,4c5,6" -> Source=[3,5)  Dest=[5,7)
type Entry struct {
	Kind   Kind
	Source linerange.Range
	Dest   linerange.Range

	// SourceLines/DestLines hold the "<"/">" content lines cvs prints for a
	// Change hunk; both are nil for Add/Delete.
	SourceLines []string
	DestLines   []string
}

// NewEntry builds an Entry from the raw cvs/diff header numbers, applying
// the same boundary shift the CVS wire format encodes implicitly.
func NewEntry(s1, s2, d1, d2 uint32, kind Kind) Entry {
	e := Entry{Kind: kind}
	switch kind {
	case Add:
		e.Source = linerange.InsertionPoint(s2 + 1)
		e.Dest = linerange.Range{Begin: d1, End: d2 + 1}
	case Delete:
		e.Source = linerange.Range{Begin: s1, End: s2 + 1}
		e.Dest = linerange.InsertionPoint(d2 + 1)
	case Change:
		e.Source = linerange.Range{Begin: s1, End: s2 + 1}
		e.Dest = linerange.Range{Begin: d1, End: d2 + 1}
	}
	return e
}

// Size returns the line-count delta the hunk applies: positive for a net
// insertion, negative for a net deletion.
func (e Entry) Size() int {
	switch e.Kind {
	case Add:
		return int(e.Dest.Size())
	case Delete:
		return -int(e.Source.Size())
	case Change:
		return int(e.Dest.Size()) - int(e.Source.Size())
	}
	return 0
}

// String re-encodes the entry back into the raw CVS wire form, reversing
// the boundary adjustments NewEntry applied, e.g. Add -> "2a3,4".
func (e Entry) String() string {
	switch e.Kind {
	case Add:
		return itoa(e.Source.Begin-1) + "a" + rangeSpec(e.Dest.Begin, e.Dest.End-1)
	case Delete:
		return rangeSpec(e.Source.Begin, e.Source.End-1) + "d" + itoa(e.Dest.Begin-1)
	case Change:
		return rangeSpec(e.Source.Begin, e.Source.End-1) + "c" + rangeSpec(e.Dest.Begin, e.Dest.End-1)
	}
	return ""
}

func rangeSpec(begin, end uint32) string {
	if begin == end {
		return itoa(begin)
	}
	return itoa(begin) + "," + itoa(end)
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
