package materialize

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Offset records the ".cmt" line number (1-based) at which a file's first
// physical line begins.
type Offset struct {
	Filename string
	Line     uint64
}

// WriteOffsets renders offsets as whitespace-separated "filename line"
// pairs, one per line, the layout lines_cmt::load_offset_file reads back
// with plain `stream >> token` extraction (any run of whitespace
// separates fields, so no escaping is needed for filenames without
// spaces).
func WriteOffsets(w io.Writer, offsets []Offset) error {
	bw := bufio.NewWriter(w)
	for _, o := range offsets {
		if _, err := bw.WriteString(o.Filename); err != nil {
			return errors.Wrap(err, "materialize: writing offset filename")
		}
		if err := bw.WriteByte(' '); err != nil {
			return err
		}
		if _, err := bw.WriteString(strconv.FormatUint(o.Line, 10)); err != nil {
			return errors.Wrap(err, "materialize: writing offset line")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadOffsets parses the format WriteOffsets produces.
func ReadOffsets(r io.Reader) ([]Offset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	var out []Offset
	for scanner.Scan() {
		filename := scanner.Text()
		if !scanner.Scan() {
			return nil, errors.Errorf("materialize: offset file ends mid-record after %q", filename)
		}
		line, err := strconv.ParseUint(scanner.Text(), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "materialize: parsing offset for %q", filename)
		}
		out = append(out, Offset{Filename: filename, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "materialize: reading offset file")
	}
	return out, nil
}
