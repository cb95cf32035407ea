package cvsdiff

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Diff is a parsed sequence of hunks, in the order "diff" printed them
// (which is also file order, since diff never reorders hunks).
type Diff struct {
	Entries []Entry
}

// Size returns the net line-count delta the whole diff applies: the
// source file's line count plus Size() equals the dest file's line count.
func (d *Diff) Size() int {
	total := 0
	for _, e := range d.Entries {
		total += e.Size()
	}
	return total
}

// Parse reads one "diff"/"cvs diff" transcript between two revisions of a
// single file and returns its hunks. Content lines ("<", ">", "---") are
// collected only for Change hunks, matching what the original tooling
// needed them for (local realignment, see Refine).
func Parse(r io.Reader) (*Diff, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	diff := &Diff{}
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		c := line[0]
		if c < '0' || c > '9' {
			continue
		}
		entry, err := parseHeader(line)
		if err != nil {
			return nil, errors.Wrapf(err, "cvsdiff: parsing header %q", line)
		}
		if entry.Kind == Change {
			if err := readChangeContent(scanner, &entry); err != nil {
				return nil, errors.Wrap(err, "cvsdiff: reading change content")
			}
		}
		diff.Entries = append(diff.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cvsdiff: scanning")
	}
	return diff, nil
}

// parseHeader parses a single "S1[,S2]{a|c|d}D1[,D2]" line.
func parseHeader(line string) (Entry, error) {
	kindIdx := strings.IndexAny(line, "acd")
	if kindIdx < 0 {
		return Entry{}, errors.Errorf("no a/c/d marker found")
	}
	kind := Kind(line[kindIdx])

	left := line[:kindIdx]
	right := line[kindIdx+1:]

	s1, s2, err := parsePair(left)
	if err != nil {
		return Entry{}, errors.Wrap(err, "source range")
	}
	d1, d2, err := parsePair(right)
	if err != nil {
		return Entry{}, errors.Wrap(err, "dest range")
	}
	return NewEntry(s1, s2, d1, d2, kind), nil
}

// parsePair parses "N" or "N,M", returning (N,N) for the single-number form.
func parsePair(s string) (uint32, uint32, error) {
	parts := strings.SplitN(s, ",", 2)
	first, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "parsing %q", parts[0])
	}
	if len(parts) == 1 {
		return uint32(first), uint32(first), nil
	}
	second, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "parsing %q", parts[1])
	}
	return uint32(first), uint32(second), nil
}

// readChangeContent reads the "< source lines", "---" separator and
// "> dest lines" block that follows a change hunk header.
func readChangeContent(scanner *bufio.Scanner, entry *Entry) error {
	srcCount := int(entry.Source.Size())
	for i := 0; i < srcCount && scanner.Scan(); i++ {
		line := scanner.Text()
		if len(line) >= 2 && line[0] == '<' {
			entry.SourceLines = append(entry.SourceLines, line[2:])
		}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "---") {
			break
		}
	}
	dstCount := int(entry.Dest.Size())
	for i := 0; i < dstCount && scanner.Scan(); i++ {
		line := scanner.Text()
		if len(line) >= 2 && line[0] == '>' {
			entry.DestLines = append(entry.DestLines, line[2:])
		}
	}
	return scanner.Err()
}
