// Package materialize renders the per-line revision history the linetrack
// engine computes into the two flat files the full-text indexer consumes:
// a ".cmt" file (one record per physical source line, newest commit
// first) and an offset file recording, for each filename, the ".cmt" line
// number its first physical line starts at.
//
// Both formats are grounded on cvs_log_entry::show, line_map::show and
// line_map_algorithm::show (map/cvs_parser/cvs_log_entry.cpp,
// map/map_algorithm/line_map*.cpp) and their reader counterpart,
// lines_cmt.C's readNextLine/readVector.
package materialize

import "strconv"

const fieldSep = '\x03'
const recordEnd = "\x03\x02"

// Comment is one commit's metadata for a single physical line, the unit
// cvs_log_entry::show serialises.
type Comment struct {
	Revision string
	Date     string
	Author   string
	State    string
	Lines    string
	Text     string
}

// encode appends c's wire form to b, mirroring cvs_log_entry::show exactly:
// six \x03-prefixed "name value" fields followed by one trailing \x03.
func (c Comment) encode(b []byte) []byte {
	b = appendField(b, "revision", c.Revision)
	b = appendField(b, "date", c.Date)
	b = appendField(b, "author", c.Author)
	b = appendField(b, "state", c.State)
	b = appendField(b, "lines", c.Lines)
	b = appendField(b, "comments", c.Text)
	b = append(b, fieldSep)
	return b
}

func appendField(b []byte, name, value string) []byte {
	b = append(b, fieldSep)
	b = append(b, name...)
	b = append(b, ' ')
	b = append(b, value...)
	return b
}

func itoa(v uint64) string { return strconv.FormatUint(v, 10) }
