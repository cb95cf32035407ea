package store

import (
	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/cvsdiff"
	"github.com/cyraxred/cvssearch/internal/revision"
)

// FileStore is the keyed store for one indexed repository: the nine
// logical tables of §4.7, each grounded on its cvs_*_db counterpart.
// FileStore itself corresponds to cvs_db_file, fanning each public
// operation out to the table(s) it touches.
type FileStore struct {
	filename    *Table // file_id -> filename
	fileID      *Table // filename -> file_id
	comment     *Table // comment_id -> comment text
	commentID   *Table // file_id:rev -> comment_id
	commentID2  *Table // comment_id -> {file_id:rev}
	line        *Table // file_id:rev -> {line}
	revision    *Table // file_id:line -> {rev}
	fileRev     *Table // file_id -> {rev}
	diff        *Table // file_id:rev -> encoded diff
	nextFileID  uint64
	nextComment uint64
}

// NewFileStore creates an empty, in-memory store.
func NewFileStore() *FileStore {
	return &FileStore{
		filename:   NewTable("filename"),
		fileID:     NewTable("file_id"),
		comment:    NewTable("comment"),
		commentID:  NewTable("comment_id"),
		commentID2: NewTable("comment_id2"),
		line:       NewTable("line"),
		revision:   NewTable("revision"),
		fileRev:    NewTable("file_revision"),
		diff:       NewTable("diff"),
	}
}

// PutFilename returns filename's file_id. A name not yet registered gets a
// fresh file_id, and the filename->file_id and file_id->filename mappings
// are recorded, mirroring cvs_filename_db's DB_APPEND recno allocation.
func (s *FileStore) PutFilename(name string) uint64 {
	if id, ok := s.GetFileID(name); ok {
		return id
	}
	s.nextFileID++
	id := s.nextFileID
	s.filename.Put(NewKey(id), []byte(name))
	s.fileID.Put(Key(name), PutUint32(uint32(id)))
	return id
}

// GetFilename returns the filename registered under fileID.
func (s *FileStore) GetFilename(fileID uint64) (string, bool) {
	v, ok := s.filename.GetFirst(NewKey(fileID))
	if !ok {
		return "", false
	}
	return string(v), true
}

// GetFileID returns the file_id previously assigned to name by PutFilename.
func (s *FileStore) GetFileID(name string) (uint64, bool) {
	v, ok := s.fileID.GetFirst(Key(name))
	if !ok {
		return 0, false
	}
	id, err := Uint32(v)
	if err != nil {
		return 0, false
	}
	return uint64(id), true
}

// FilenameCount returns the number of distinct files registered, mirroring
// cvs_filename_db::count.
func (s *FileStore) FilenameCount() int { return s.filename.Len() }

// PutComment stores comment text under a fresh comment_id and links it to
// (fileID, rev), mirroring cvs_db_file::put_comment.
func (s *FileStore) PutComment(fileID uint64, rev revision.Revision, text string) uint64 {
	s.nextComment++
	id := s.nextComment
	s.comment.Put(NewKey(id), []byte(text))
	s.commentID.Put(fileRevKey(fileID, rev), PutUint32(uint32(id)))
	s.commentID2.Put(NewKey(id), []byte(fileRevKey(fileID, rev)))
	return id
}

// GetComment returns the comment text committed with (fileID, rev).
func (s *FileStore) GetComment(fileID uint64, rev revision.Revision) (string, bool) {
	raw, ok := s.commentID.GetFirst(fileRevKey(fileID, rev))
	if !ok {
		return "", false
	}
	id, err := Uint32(raw)
	if err != nil {
		return "", false
	}
	text, ok := s.comment.GetFirst(NewKey(uint64(id)))
	if !ok {
		return "", false
	}
	return string(text), true
}

// PutMapping records that (fileID, rev) materialises line, mirroring
// cvs_db_file::put_mapping's dual write into the line and revision tables.
func (s *FileStore) PutMapping(fileID uint64, rev revision.Revision, line uint32) {
	s.line.Put(fileRevKey(fileID, rev), PutUint32(line))
	s.revision.Put(NewKey(fileID, uint64(line)), []byte(rev.String()))
}

// GetLines returns every line committed under (fileID, rev), in insertion
// order.
func (s *FileStore) GetLines(fileID uint64, rev revision.Revision) ([]uint32, error) {
	raws, ok := s.line.Get(fileRevKey(fileID, rev))
	if !ok {
		return nil, nil
	}
	out := make([]uint32, len(raws))
	for i, r := range raws {
		v, err := Uint32(r)
		if err != nil {
			return nil, errors.Wrap(err, "store: decoding line table entry")
		}
		out[i] = v
	}
	return out, nil
}

// GetRevisionsForLine returns every revision that touched (fileID, line),
// in insertion order.
func (s *FileStore) GetRevisionsForLine(fileID uint64, line uint32) (revision.List, error) {
	raws, ok := s.revision.Get(NewKey(fileID, uint64(line)))
	if !ok {
		return nil, nil
	}
	var out revision.List
	for _, r := range raws {
		rev, err := revision.Parse(string(r))
		if err != nil {
			return nil, errors.Wrap(err, "store: decoding revision table entry")
		}
		out = out.Append(rev)
	}
	return out, nil
}

// PutFileRevision records that rev is one of fileID's committed revisions.
func (s *FileStore) PutFileRevision(fileID uint64, rev revision.Revision) {
	s.fileRev.Put(NewKey(fileID), []byte(rev.String()))
}

// GetFileRevisions returns every revision committed against fileID, in
// insertion (chronological) order.
func (s *FileStore) GetFileRevisions(fileID uint64) (revision.List, error) {
	raws, ok := s.fileRev.Get(NewKey(fileID))
	if !ok {
		return nil, nil
	}
	var out revision.List
	for _, r := range raws {
		rev, err := revision.Parse(string(r))
		if err != nil {
			return nil, errors.Wrap(err, "store: decoding file_revision table entry")
		}
		out = out.Append(rev)
	}
	return out, nil
}

// GetRevisionComments returns, in the same order as GetFileRevisions, the
// commit comment for each revision (empty string if none was recorded),
// mirroring cvs_db_file::get_revision_comment.
func (s *FileStore) GetRevisionComments(fileID uint64) (revision.List, []string, error) {
	revs, err := s.GetFileRevisions(fileID)
	if err != nil {
		return nil, nil, err
	}
	comments := make([]string, len(revs))
	for i, rev := range revs {
		text, _ := s.GetComment(fileID, rev)
		comments[i] = text
	}
	return revs, comments, nil
}

// PutDiff stores the diff that produced rev from its immediate ancestor,
// mirroring cvs_db_file::put_diff / cvs_diff_db::put. The stored blob
// carries a trailing checksum (see wrapChecksum) so a later GetDiff can
// detect on-disk corruption instead of silently misparsing it.
func (s *FileStore) PutDiff(fileID uint64, rev revision.Revision, d *cvsdiff.Diff) {
	s.diff.Put(fileRevKey(fileID, rev), wrapChecksum(EncodeDiff(d)))
}

// GetDiff retrieves the diff previously stored by PutDiff. A checksum
// mismatch is reported as an error rather than repaired: recovering a
// corrupted store is out of scope, the caller just needs to know not to
// trust the result.
func (s *FileStore) GetDiff(fileID uint64, rev revision.Revision) (*cvsdiff.Diff, bool, error) {
	blob, ok := s.diff.GetFirst(fileRevKey(fileID, rev))
	if !ok {
		return nil, false, nil
	}
	raw, err := unwrapChecksum(blob)
	if err != nil {
		return nil, false, errors.Wrapf(err, "store: file %d rev %s", fileID, rev)
	}
	d, err := DecodeDiff(raw)
	if err != nil {
		return nil, false, errors.Wrapf(err, "store: decoding diff for file %d rev %s", fileID, rev)
	}
	return d, true, nil
}

// Sync persists every table into dir, one file per table, mirroring
// cvs_db_file::sync.
func (s *FileStore) Sync(dir string) error {
	for _, t := range s.tables() {
		if err := t.SaveFile(dir); err != nil {
			return err
		}
	}
	return nil
}

// LoadFileStore reconstructs a FileStore previously persisted with Sync.
func LoadFileStore(dir string) (*FileStore, error) {
	s := NewFileStore()
	names := []struct {
		name string
		dst  **Table
	}{
		{"filename", &s.filename},
		{"file_id", &s.fileID},
		{"comment", &s.comment},
		{"comment_id", &s.commentID},
		{"comment_id2", &s.commentID2},
		{"line", &s.line},
		{"revision", &s.revision},
		{"file_revision", &s.fileRev},
		{"diff", &s.diff},
	}
	for _, n := range names {
		t, err := LoadFile(dir, n.name)
		if err != nil {
			return nil, err
		}
		*n.dst = t
	}
	s.nextFileID = uint64(s.filename.Len())
	s.nextComment = uint64(s.comment.Len())
	return s, nil
}

func (s *FileStore) tables() []*Table {
	return []*Table{
		s.filename, s.fileID, s.comment, s.commentID, s.commentID2,
		s.line, s.revision, s.fileRev, s.diff,
	}
}

func fileRevKey(fileID uint64, rev revision.Revision) Key {
	return NewKey(fileID) + ":" + Key(rev.String())
}
