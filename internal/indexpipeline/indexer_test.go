package indexpipeline

import (
	"context"
	"testing"

	"github.com/cyraxred/cvssearch/internal/cvsdiff"
	"github.com/cyraxred/cvssearch/internal/cvslog"
	"github.com/cyraxred/cvssearch/internal/linetrack"
	"github.com/cyraxred/cvssearch/internal/revision"
	"github.com/cyraxred/cvssearch/internal/store"
)

// fakeRunner serves a fixed three-revision history for path "a.c":
// 1.1 (3 lines) -> 1.2 (append a line) -> 1.3 (change line 1).
type fakeRunner struct{}

func (fakeRunner) Log(ctx context.Context, path, branch string) (*cvslog.FileLog, error) {
	return &cvslog.FileLog{
		Pathname: path,
		Filename: path,
		Entries: []cvslog.Entry{
			// newest first, matching real cvs log order.
			{Revision: revision.MustParse("1.3"), Author: "carol", Date: "2001/03/01", State: "Exp", Lines: "+1 -1", Comment: "tweak line 1"},
			{Revision: revision.MustParse("1.2"), Author: "bob", Date: "2001/02/01", State: "Exp", Lines: "+1 -0", Comment: "append a line"},
			{Revision: revision.MustParse("1.1"), Author: "alice", Date: "2001/01/01", State: "Exp", Lines: "", Comment: "initial revision"},
		},
	}, nil
}

func (fakeRunner) Diff(ctx context.Context, path string, from, to revision.Revision) (*cvsdiff.Diff, error) {
	switch to.String() {
	case "1.2":
		return &cvsdiff.Diff{Entries: []cvsdiff.Entry{cvsdiff.NewEntry(3, 3, 4, 4, cvsdiff.Add)}}, nil
	case "1.3":
		return &cvsdiff.Diff{Entries: []cvsdiff.Entry{cvsdiff.NewEntry(1, 1, 1, 1, cvsdiff.Change)}}, nil
	}
	return &cvsdiff.Diff{}, nil
}

func (fakeRunner) LineCount(ctx context.Context, path string, rev revision.Revision) (int, error) {
	return 3, nil
}

func TestFileIndexerBackward(t *testing.T) {
	s := store.NewFileStore()
	fi := FileIndexer{Runner: fakeRunner{}, Store: s, Strategy: linetrack.BackwardLine{}}

	records, err := fi.Index("a.c", "")
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(records))
	}
	if len(records[3].Comments) != 1 || records[3].Comments[0].Revision != "1.2" {
		t.Errorf("line 4 (appended): got %+v", records[3])
	}
	if len(records[0].Comments) != 1 || records[0].Comments[0].Revision != "1.3" {
		t.Errorf("line 1 (changed): got %+v", records[0])
	}

	fileID, ok := s.GetFileID("a.c")
	if !ok {
		t.Fatal("expected a.c to be registered in the store")
	}
	revs, err := s.GetFileRevisions(fileID)
	if err != nil || len(revs) != 3 {
		t.Fatalf("GetFileRevisions: %v, %v", revs, err)
	}
}

func TestFileIndexerForwardAgreesWithBackward(t *testing.T) {
	backStore := store.NewFileStore()
	back := FileIndexer{Runner: fakeRunner{}, Store: backStore, Strategy: linetrack.BackwardLine{}}
	backRecords, err := back.Index("a.c", "")
	if err != nil {
		t.Fatalf("backward Index: %v", err)
	}

	fwdStore := store.NewFileStore()
	fwd := FileIndexer{Runner: fakeRunner{}, Store: fwdStore, Strategy: linetrack.ForwardRange{}}
	fwdRecords, err := fwd.Index("a.c", "")
	if err != nil {
		t.Fatalf("forward Index: %v", err)
	}

	if len(backRecords) != len(fwdRecords) {
		t.Fatalf("line count mismatch: backward=%d forward=%d", len(backRecords), len(fwdRecords))
	}
	for i := range backRecords {
		if len(backRecords[i].Comments) != len(fwdRecords[i].Comments) {
			t.Errorf("line %d: comment count mismatch: backward=%d forward=%d",
				i, len(backRecords[i].Comments), len(fwdRecords[i].Comments))
		}
	}
}
