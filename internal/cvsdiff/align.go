package cvsdiff

import (
	"strings"

	"github.com/cyraxred/cvssearch/internal"
)

// charSpace and lineSpace are the gap sentinels the scoring functions use
// to price an insertion/deletion, reproduced from the original alignment
// templates: a single sentinel byte for character sequences and the
// "\x02" sentinel line for line sequences (chosen because real source text
// essentially never contains it).
const (
	charSpace byte   = 1
	lineSpace string = "\x02"
)

// CharScore scores a one-character substitution: +2 for a match, -1
// otherwise, matching the original char_sequence::score.
func CharScore(a, b byte) int {
	if a == b {
		return 2
	}
	return -1
}

// LineScore scores a one-line substitution. Equal (whitespace-trimmed)
// lines score the best possible char-alignment value for a same-length
// match; otherwise the two trimmed lines are themselves char-aligned and
// the optimal alignment value is returned, matching line_sequence::score.
func LineScore(a, b string) int {
	ta, tb := trimSpaceTab(a), trimSpaceTab(b)
	value, _ := Align([]byte(ta), []byte(tb), charSpace, func(x, y byte) int {
		if x == charSpace || y == charSpace {
			if x == charSpace && y == charSpace {
				return 0
			}
			return CharScore(x, y) // gap: compares the real char against the sentinel, i.e. always a mismatch
		}
		return CharScore(x, y)
	}, 0, 0)
	return value
}

func trimSpaceTab(s string) string {
	return strings.Trim(s, " \t")
}

// Align runs a Needleman-Wunsch global alignment of source against dest,
// using score(a,b) for every cell including gap columns/rows (the caller
// passes space as the gap sentinel and is expected to have score treat it
// as "no match"). It returns the optimal alignment value and the
// coalesced diff entries the backtrace produces, with coordinates shifted
// by sourceOffset/destOffset so the entries refer to absolute positions in
// the enclosing file.
//
// Three shortcuts from the original implementation skip the O(n*m) DP
// table entirely when the answer is already obvious: an empty dest is a
// pure delete, an empty source is a pure add, and a single line on each
// side is a single change — this matters because Refine calls Align once
// per coarse change hunk, most of which are exactly these trivial shapes.
// For that single pair the value returned is score(source[0], dest[0]).
func Align[T comparable](source, dest []T, space T, score func(a, b T) int, sourceOffset, destOffset uint32) (int, []Entry) {
	ns, nd := len(source), len(dest)

	if nd == 0 {
		value := 0
		for _, s := range source {
			value += score(s, space)
		}
		return value, []Entry{NewEntry(sourceOffset+1, sourceOffset+uint32(ns), destOffset, destOffset, Delete)}
	}
	if ns == 0 {
		value := 0
		for _, d := range dest {
			value += score(space, d)
		}
		return value, []Entry{NewEntry(sourceOffset, sourceOffset, destOffset+1, destOffset+uint32(nd), Add)}
	}
	if ns == 1 && nd == 1 {
		return score(source[0], dest[0]),
			[]Entry{NewEntry(sourceOffset+1, sourceOffset+1, destOffset+1, destOffset+1, Change)}
	}

	v := make([][]int, ns+1)
	for i := range v {
		v[i] = make([]int, nd+1)
	}
	for i := 1; i <= ns; i++ {
		v[i][0] = v[i-1][0] + score(source[i-1], space)
	}
	for j := 1; j <= nd; j++ {
		v[0][j] = v[0][j-1] + score(space, dest[j-1])
	}
	for i := 1; i <= ns; i++ {
		for j := 1; j <= nd; j++ {
			best := v[i-1][j-1] + score(source[i-1], dest[j-1])
			del := v[i-1][j] + score(source[i-1], space)
			ins := v[i][j-1] + score(space, dest[j-1])
			v[i][j] = internal.Max(internal.Max(best, del), ins)
		}
	}

	entries := backtrace(v, source, dest, space, score, sourceOffset, destOffset)
	return v[ns][nd], entries
}

// backtrace walks the DP table from (len(source), len(dest)) back to
// (0, 0), coalescing consecutive same-kind steps into single Entry values,
// exactly as the original find_optimal_alignment's hashing backtrace does.
func backtrace[T comparable](v [][]int, source, dest []T, space T, score func(a, b T) int, sourceOffset, destOffset uint32) []Entry {
	i, j := len(source), len(dest)
	var entries []Entry

	kind := Kind(0) // zero value acts as "none" here
	s1, s2, d1, d2 := uint32(i), uint32(i), uint32(j), uint32(j)

	flush := func() {
		if kind != 0 {
			entries = append([]Entry{NewEntry(s1, s2, d1, d2, kind)}, entries...)
		}
	}

	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && v[i][j] == v[i-1][j-1]+score(source[i-1], dest[j-1]):
			if kind != Change {
				flush()
				s2, d2 = uint32(i), uint32(j)
				kind = Change
			}
			s1, d1 = uint32(i), uint32(j)
			i--
			j--
		case i > 0 && v[i][j] == v[i-1][j]+score(source[i-1], space):
			if kind != Delete {
				flush()
				s2, d2 = uint32(i), uint32(j)
				kind = Delete
			}
			s1, d1 = uint32(i), uint32(j)
			i--
		default:
			if kind != Add {
				flush()
				s2, d2 = uint32(i), uint32(j)
				kind = Add
			}
			s1, d1 = uint32(i), uint32(j)
			j--
		}
	}
	s1, d1 = uint32(i+1), uint32(j+1)
	flush()

	for k := range entries {
		entries[k].Source = entries[k].Source.Shift(int(sourceOffset))
		entries[k].Dest = entries[k].Dest.Shift(int(destOffset))
	}
	return entries
}
