// Package cvslog parses the textual output of "cvs log" into structured
// per-file revision histories. It only consumes text; invoking the cvs
// subprocess itself is the caller's job (see internal/cvsio).
package cvslog

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/revision"
)

// Tag strings "cvs log" emits, reproduced verbatim from the CVS/RCS output
// format so the parser's line matching stays byte-for-byte compatible with
// a real cvs client.
const (
	rcsFileTag    = "RCS file: "
	filenameTag   = "Working file: "
	branchesTag   = "branches:"
	revisionTag   = "revision "
	dateTag       = "date: "
	authorTag     = ";  author: "
	stateTag      = ";  state: "
	linesTag      = ";  lines: "
	emptyComment  = "*** empty log message ***"
	entrySep      = "----------------------------"
	logEndMarker  = "============================================================================="
)

// Entry is one "revision" block of a "cvs log" listing.
type Entry struct {
	Revision revision.Revision
	Date     string
	Author   string
	State    string
	Lines    string
	Comment  string
}

// FileLog is the parsed "cvs log" output for a single RCS file, entries in
// the order cvs emits them: newest revision first.
type FileLog struct {
	Pathname string
	Filename string
	Entries  []Entry
}

// OldestFirst returns the entries in chronological order (1.1 first),
// the order the backward-line tracking engine consumes them from the
// far end and the forward-range strategy consumes them directly.
func (f *FileLog) OldestFirst() []Entry {
	out := make([]Entry, len(f.Entries))
	for i, e := range f.Entries {
		out[len(f.Entries)-1-i] = e
	}
	return out
}

// Parse reads one "cvs log" transcript for a single file and returns its
// structured history. It stops at the line of '=' characters that ends the
// file's log; which revision an entry names plays no part in where it stops.
func Parse(r io.Reader) (*FileLog, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	log := &FileLog{}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, rcsFileTag) {
			log.Pathname = strings.TrimSuffix(strings.TrimPrefix(line, rcsFileTag), ",v")
		}
		if strings.HasPrefix(line, filenameTag) {
			log.Filename = strings.TrimPrefix(line, filenameTag)
		}
		if line == entrySep {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cvslog: reading header")
	}

	for scanner.Scan() {
		first := scanner.Text()
		if !strings.HasPrefix(first, revisionTag) {
			break
		}
		rev, err := revision.Parse(strings.TrimPrefix(first, revisionTag))
		if err != nil {
			return nil, errors.Wrapf(err, "cvslog: parsing %q", log.Filename)
		}

		var entry Entry
		entry.Revision = rev

		if !scanner.Scan() {
			return nil, errors.Errorf("cvslog: %s: truncated after revision %s", log.Filename, rev)
		}
		parseDetailLine(scanner.Text(), &entry)

		var comment strings.Builder
		isFirst := false
		terminated := false
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, branchesTag) {
				continue
			}
			if line == entrySep {
				terminated = true
				break
			}
			if line == logEndMarker {
				terminated = true
				isFirst = true
				break
			}
			if line == emptyComment {
				continue
			}
			comment.WriteString(line)
			comment.WriteByte('\n')
		}
		if !terminated {
			return nil, errors.Errorf("cvslog: %s: unterminated entry at revision %s", log.Filename, rev)
		}
		entry.Comment = comment.String()
		log.Entries = append(log.Entries, entry)
		if isFirst {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "cvslog: reading entries")
	}
	return log, nil
}

// parseDetailLine splits the single "date: ...;  author: ...;  state:
// ...;  lines: ..." line cvs emits right after a revision tag.
func parseDetailLine(line string, entry *Entry) {
	rest := line
	if i := strings.Index(rest, dateTag); i == 0 {
		rest = rest[len(dateTag):]
	}
	if i := strings.Index(rest, authorTag); i >= 0 {
		entry.Date = rest[:i]
		rest = rest[i+len(authorTag):]
	}
	if i := strings.Index(rest, stateTag); i >= 0 {
		entry.Author = rest[:i]
		rest = rest[i+len(stateTag):]
	}
	if i := strings.Index(rest, linesTag); i >= 0 {
		entry.State = rest[:i]
		rest = rest[i+len(linesTag):]
		entry.Lines = rest
		return
	}
	entry.State = strings.TrimSuffix(rest, ";")
}
