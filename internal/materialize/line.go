package materialize

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// LineRecord is one physical source line's complete commit history, ready
// to be appended to a ".cmt" file. Comments must already be ordered
// newest-first, matching line_map::show's reverse iteration over its
// entries.
type LineRecord struct {
	FileID   uint64
	Comments []Comment
}

// EncodeLine renders r into one ".cmt" record, terminated by "\x03\x02\n".
// The layout is file_id, then for every comment a leading space and its
// six \x03-prefixed fields, then the record terminator — exactly
// line_map_algorithm::show's "os << _index << _line_maps[i] << '\003' <<
// '\002' << endl", with line_map::show supplying the per-comment " " +
// cvs_log_entry::show text.
func EncodeLine(r LineRecord) []byte {
	b := make([]byte, 0, 64+32*len(r.Comments))
	b = append(b, itoa(r.FileID)...)
	for _, c := range r.Comments {
		b = append(b, ' ')
		b = c.encode(b)
	}
	b = append(b, recordEnd...)
	b = append(b, '\n')
	return b
}

// DecodeLine parses one ".cmt" record (without its trailing newline) back
// into a LineRecord, mirroring lines_cmt::readNextLine / readVector: each
// field type is located independently across the whole record, then the
// per-field lists are zipped positionally into Comment values (the
// original code guarantees equal lengths with an assert; here a length
// mismatch is reported as an error instead of a crash).
func DecodeLine(record []byte) (LineRecord, error) {
	firstSpace := bytes.IndexByte(record, ' ')
	if firstSpace < 0 {
		return LineRecord{}, errors.Errorf("materialize: malformed record, no file id: %q", record)
	}
	fileID, err := strconv.ParseUint(string(record[:firstSpace]), 10, 64)
	if err != nil {
		return LineRecord{}, errors.Wrap(err, "materialize: parsing file id")
	}

	revisions := extractField(record, "revision")
	dates := extractField(record, "date")
	authors := extractField(record, "author")
	states := extractField(record, "state")
	lines := extractField(record, "lines")
	comments := extractField(record, "comments")

	n := len(revisions)
	for name, got := range map[string]int{
		"date": len(dates), "author": len(authors), "state": len(states),
		"lines": len(lines), "comments": len(comments),
	} {
		if got != n {
			return LineRecord{}, errors.Errorf(
				"materialize: field count mismatch: revision=%d %s=%d", n, name, got)
		}
	}

	out := LineRecord{FileID: fileID, Comments: make([]Comment, n)}
	for i := 0; i < n; i++ {
		out.Comments[i] = Comment{
			Revision: revisions[i],
			Date:     dates[i],
			Author:   authors[i],
			State:    states[i],
			Lines:    lines[i],
			Text:     comments[i],
		}
	}
	return out, nil
}

// extractField returns every value of a "\x03name value" occurrence in
// record, in the order they appear, matching lines_cmt::readVector's scan.
func extractField(record []byte, name string) []string {
	prefix := append([]byte{fieldSep}, name...)
	prefix = append(prefix, ' ')

	var out []string
	pos := 0
	for {
		i := bytes.Index(record[pos:], prefix)
		if i < 0 {
			break
		}
		start := pos + i + len(prefix)
		end := bytes.IndexByte(record[start:], fieldSep)
		if end < 0 {
			end = len(record) - start
		}
		out = append(out, string(record[start:start+end]))
		pos = start + end
	}
	return out
}
