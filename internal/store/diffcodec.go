package store

import (
	"encoding/binary"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/cvsdiff"
)

// checksumKey is a fixed 32-byte HighwayHash key. It only needs to be
// stable across a single store's lifetime (put and get always use the
// same key), not secret or per-installation random, since its job is
// corruption detection, not authentication.
var checksumKey = []byte{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31,
}

// checksumSize is the width of the trailing checksum appended to every
// stored diff blob.
const checksumSize = 8

// wrapChecksum appends an 8-byte HighwayHash64 checksum of raw to raw,
// so a later corrupted read can be detected instead of silently
// misparsed.
func wrapChecksum(raw []byte) []byte {
	sum := highwayhash.Sum64(raw, checksumKey)
	out := make([]byte, len(raw)+checksumSize)
	copy(out, raw)
	binary.LittleEndian.PutUint64(out[len(raw):], sum)
	return out
}

// unwrapChecksum verifies and strips the trailing checksum wrapChecksum
// added, returning an error if the stored blob has been corrupted.
func unwrapChecksum(blob []byte) ([]byte, error) {
	if len(blob) < checksumSize {
		return nil, errors.New("store: diff blob shorter than its checksum")
	}
	raw := blob[:len(blob)-checksumSize]
	want := binary.LittleEndian.Uint64(blob[len(raw):])
	got := highwayhash.Sum64(raw, checksumKey)
	if got != want {
		return nil, errors.Errorf("store: diff blob checksum mismatch (want %x, got %x)", want, got)
	}
	return raw, nil
}

// EncodeDiff serialises a Diff into the diff table's wire form: one
// "S1,S2<kind>D1,D2." group per entry, concatenated with no separator,
// grounded exactly on cvs_diff_db::put. Unlike cvsdiff.Entry.String (which
// reproduces the sparse cvs-diff-log header, omitting a range's second
// number when it equals the first), this format always writes both
// numbers of both sides.
func EncodeDiff(d *cvsdiff.Diff) []byte {
	var b strings.Builder
	for _, e := range d.Entries {
		s1, s2, d1, d2 := rawHunkNumbers(e)
		b.WriteString(itoaDiff(s1))
		b.WriteByte(',')
		b.WriteString(itoaDiff(s2))
		b.WriteByte(byte(e.Kind))
		b.WriteString(itoaDiff(d1))
		b.WriteByte(',')
		b.WriteString(itoaDiff(d2))
		b.WriteByte('.')
	}
	return []byte(b.String())
}

// DecodeDiff parses the diff table's wire form back into a Diff. It is the
// exact inverse of EncodeDiff, grounded on cvs_diff_db::get's sscanf loop:
// each group's raw hunk-header numbers go back through cvsdiff.NewEntry
// unchanged.
func DecodeDiff(raw []byte) (*cvsdiff.Diff, error) {
	s := string(raw)
	var entries []cvsdiff.Entry
	for len(s) > 0 {
		group, rest, err := splitDiffGroup(s)
		if err != nil {
			return nil, err
		}
		s1, s2, kind, d1, d2, err := parseDiffGroup(group)
		if err != nil {
			return nil, err
		}
		entries = append(entries, cvsdiff.NewEntry(s1, s2, d1, d2, kind))
		s = rest
	}
	return &cvsdiff.Diff{Entries: entries}, nil
}

// rawHunkNumbers recovers the raw (s1,s2,d1,d2) hunk-header numbers that
// NewEntry originally consumed to build e, inverting its kind-specific
// boundary adjustments.
func rawHunkNumbers(e cvsdiff.Entry) (s1, s2, d1, d2 uint32) {
	switch e.Kind {
	case cvsdiff.Add:
		s2 = e.Source.Begin - 1
		s1 = s2
		d1, d2 = e.Dest.Begin, e.Dest.End-1
	case cvsdiff.Delete:
		s1, s2 = e.Source.Begin, e.Source.End-1
		d2 = e.Dest.Begin - 1
		d1 = d2
	case cvsdiff.Change:
		s1, s2 = e.Source.Begin, e.Source.End-1
		d1, d2 = e.Dest.Begin, e.Dest.End-1
	}
	return
}

// splitDiffGroup peels one "...." terminated group off the front of s.
func splitDiffGroup(s string) (group, rest string, err error) {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return "", "", errors.Errorf("store: malformed diff cache entry %q: missing '.'", s)
	}
	return s[:i], s[i+1:], nil
}

// parseDiffGroup parses one "s1,s2<kind>d1,d2" group (the '.'
// terminator already stripped), yielding the raw hunk numbers EncodeDiff
// wrote.
func parseDiffGroup(group string) (s1, s2 uint32, kind cvsdiff.Kind, d1, d2 uint32, err error) {
	kindPos := strings.IndexAny(group, "acd")
	if kindPos < 0 {
		err = errors.Errorf("store: malformed diff cache group %q: no kind letter", group)
		return
	}
	is1, is2, perr := parsePairDiff(group[:kindPos])
	if perr != nil {
		err = perr
		return
	}
	id1, id2, perr := parsePairDiff(group[kindPos+1:])
	if perr != nil {
		err = perr
		return
	}
	kind = cvsdiff.Kind(group[kindPos])
	switch kind {
	case cvsdiff.Add, cvsdiff.Delete, cvsdiff.Change:
		s1, s2, d1, d2 = is1, is2, id1, id2
	default:
		err = errors.Errorf("store: unknown diff cache kind %q", kind)
	}
	return
}

func parsePairDiff(s string) (a, b uint32, err error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		err = errors.Errorf("store: malformed diff cache pair %q", s)
		return
	}
	a, err = parseUint32Diff(s[:comma])
	if err != nil {
		return
	}
	b, err = parseUint32Diff(s[comma+1:])
	return
}

func parseUint32Diff(s string) (uint32, error) {
	var v uint64
	if s == "" {
		return 0, errors.New("store: empty diff cache number")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("store: invalid diff cache number %q", s)
		}
		v = v*10 + uint64(c-'0')
	}
	return uint32(v), nil
}

func itoaDiff(v uint32) string {
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
