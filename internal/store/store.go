// Package store implements the on-disk keyed store: nine logical tables
// (filename, file_id, comment, commit, commit_files, file_revisions,
// line_revisions, revision_lines, diff) addressed by textual decimal
// composite keys, values encoded little-endian regardless of host
// endianness. Duplicate keys are preserved in insertion order rather than
// overwritten, matching the reverse-lookup tables' needs (§4.7).
//
// No embedded ordered-duplicate-key store in the example corpus matches
// this wire format without being fought against (see DESIGN.md), so the
// store is built directly on encoding/binary and one flat file per table
// holding its append-only record log, rewritten in full by each save —
// deliberately small, since store corruption is an
// explicit non-goal recovered only by rebuilding from scratch.
package store

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Key is a textual decimal composite key, e.g. "12:1.4" for (file_id,
// revision) or "12" for a bare file_id. Components are joined with ':'.
type Key string

// NewKey joins one or more components into a composite Key using their
// decimal representation.
func NewKey(parts ...uint64) Key {
	b := strings.Builder{}
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(strconv.FormatUint(p, 10))
	}
	return Key(b.String())
}

// record is one append-only log entry: a key and its associated value
// bytes, in the order Put was called.
type record struct {
	key   Key
	value []byte
}

// Table is an ordered, duplicate-key-preserving append log. All nine
// logical tables in §4.7 are instances of Table with table-specific
// encode/decode helpers layered on top (see tables.go).
type Table struct {
	name    string
	records []record
	index   map[Key][]int // key -> indices into records, in insertion order
}

// NewTable creates an empty in-memory table.
func NewTable(name string) *Table {
	return &Table{name: name, index: map[Key][]int{}}
}

// Put appends value under key, preserving any existing values under the
// same key rather than overwriting them.
func (t *Table) Put(key Key, value []byte) {
	idx := len(t.records)
	t.records = append(t.records, record{key: key, value: value})
	t.index[key] = append(t.index[key], idx)
}

// Get returns every value stored under key, in insertion order, and
// whether the key was present at all.
func (t *Table) Get(key Key) ([][]byte, bool) {
	idxs, ok := t.index[key]
	if !ok {
		return nil, false
	}
	out := make([][]byte, len(idxs))
	for i, idx := range idxs {
		out[i] = t.records[idx].value
	}
	return out, true
}

// GetFirst returns only the first value stored under key, for tables
// where the spec guarantees (or the caller otherwise knows) uniqueness.
func (t *Table) GetFirst(key Key) ([]byte, bool) {
	values, ok := t.Get(key)
	if !ok || len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

// Len returns the number of distinct keys in the table.
func (t *Table) Len() int { return len(t.index) }

// Each visits every record in insertion order.
func (t *Table) Each(f func(key Key, value []byte)) {
	for _, r := range t.records {
		f(r.key, r.value)
	}
}

// WriteTo persists the table to w as a sequence of
// [keyLen uint32][key bytes][valueLen uint32][value bytes] records, all
// integers little-endian, regardless of host byte order.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	for _, r := range t.records {
		n, err := writeRecord(bw, r)
		written += int64(n)
		if err != nil {
			return written, errors.Wrapf(err, "store: writing table %q", t.name)
		}
	}
	if err := bw.Flush(); err != nil {
		return written, errors.Wrapf(err, "store: flushing table %q", t.name)
	}
	return written, nil
}

func writeRecord(w io.Writer, r record) (int, error) {
	total := 0
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(r.key)))
	n, err := w.Write(lenBuf[:])
	total += n
	if err != nil {
		return total, err
	}
	n, err = io.WriteString(w, string(r.key))
	total += n
	if err != nil {
		return total, err
	}
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(r.value)))
	n, err = w.Write(lenBuf[:])
	total += n
	if err != nil {
		return total, err
	}
	n, err = w.Write(r.value)
	total += n
	return total, err
}

// ReadTable reconstructs a table previously written with WriteTo,
// preserving insertion order and duplicate keys exactly.
func ReadTable(name string, r io.Reader) (*Table, error) {
	t := NewTable(name)
	br := bufio.NewReader(r)
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "store: reading table %q key length", name)
		}
		keyLen := binary.LittleEndian.Uint32(lenBuf[:])
		keyBuf := make([]byte, keyLen)
		if _, err := io.ReadFull(br, keyBuf); err != nil {
			return nil, errors.Wrapf(err, "store: reading table %q key", name)
		}
		if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
			return nil, errors.Wrapf(err, "store: reading table %q value length", name)
		}
		valLen := binary.LittleEndian.Uint32(lenBuf[:])
		valBuf := make([]byte, valLen)
		if _, err := io.ReadFull(br, valBuf); err != nil {
			return nil, errors.Wrapf(err, "store: reading table %q value", name)
		}
		t.Put(Key(keyBuf), valBuf)
	}
	return t, nil
}

// SaveFile writes t to its "<name>.tbl" file under dir, truncating any
// existing file.
func (t *Table) SaveFile(dir string) error {
	f, err := os.Create(tablePath(dir, t.name))
	if err != nil {
		return errors.Wrapf(err, "store: creating %q", t.name)
	}
	defer f.Close()
	_, err = t.WriteTo(f)
	return err
}

// LoadFile reads a table previously saved with SaveFile. A missing file is
// not an error: it returns a fresh empty table, since a from-scratch index
// run starts with no tables on disk yet.
func LoadFile(dir, name string) (*Table, error) {
	f, err := os.Open(tablePath(dir, name))
	if os.IsNotExist(err) {
		return NewTable(name), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "store: opening %q", name)
	}
	defer f.Close()
	return ReadTable(name, f)
}

func tablePath(dir, name string) string {
	return dir + string(os.PathSeparator) + name + ".tbl"
}

// PutUint32 encodes v little-endian, the store's committed value encoding
// regardless of host byte order (§9 open question: little-endian values).
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// Uint32 decodes a little-endian value previously produced by PutUint32.
func Uint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, errors.Errorf("store: expected 4 bytes, got %d", len(b))
	}
	return binary.LittleEndian.Uint32(b), nil
}
