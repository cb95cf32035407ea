// Package indexpipeline wires cvsio, cvslog, cvsdiff, linetrack, store and
// materialize into the core.Pipeline stages that index one CVS-tracked
// file end to end: fetch its log, fetch and refine each hunk diff, track
// per-line ownership, then materialise and persist the result.
package indexpipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/core"
	"github.com/cyraxred/cvssearch/internal/cvsdiff"
	"github.com/cyraxred/cvssearch/internal/cvsio"
	"github.com/cyraxred/cvssearch/internal/cvslog"
	"github.com/cyraxred/cvssearch/internal/linetrack"
	"github.com/cyraxred/cvssearch/internal/materialize"
	"github.com/cyraxred/cvssearch/internal/revision"
	"github.com/cyraxred/cvssearch/internal/store"
)

// State keys shared across this package's stages.
const (
	KeyLog     = "cvs.log"
	KeyDiffs   = "cvs.diffs"   // map[string]*cvsdiff.Diff, keyed by revision string
	KeyLines   = "cvs.lines"   // []revision.List, newest-revision line order
	KeyRecords = "cvs.records" // []materialize.LineRecord
)

// LogStage fetches a file's revision log.
type LogStage struct {
	Runner cvsio.Runner
	Path   string
	Branch string
}

func (s LogStage) Name() string       { return "log:" + s.Path }
func (LogStage) Provides() []string   { return []string{KeyLog} }
func (LogStage) Requires() []string   { return nil }
func (s LogStage) Run(state map[string]interface{}) error {
	ctx := context.Background()
	log, err := s.Runner.Log(ctx, s.Path, s.Branch)
	if err != nil {
		return err
	}
	state[KeyLog] = log
	return nil
}

// DiffStage fetches and refines the diff between every consecutive pair
// of revisions in the log, oldest first.
type DiffStage struct {
	Runner cvsio.Runner
	Path   string
}

func (s DiffStage) Name() string     { return "diff:" + s.Path }
func (DiffStage) Provides() []string { return []string{KeyDiffs} }
func (DiffStage) Requires() []string { return []string{KeyLog} }
func (s DiffStage) Run(state map[string]interface{}) error {
	log, ok := state[KeyLog].(*cvslog.FileLog)
	if !ok {
		return errors.Errorf("diffstage: %s missing in state", KeyLog)
	}
	ctx := context.Background()
	oldest := log.OldestFirst()
	diffs := make(map[string]*cvsdiff.Diff, len(oldest))
	for i := 1; i < len(oldest); i++ {
		from, to := oldest[i-1].Revision, oldest[i].Revision
		d, err := s.Runner.Diff(ctx, s.Path, from, to)
		if err != nil {
			return errors.Wrapf(err, "diffstage: %s: %s -> %s", s.Path, from, to)
		}
		cvsdiff.RefineAll(d)
		diffs[to.String()] = d
	}
	state[KeyDiffs] = diffs
	return nil
}

// TrackStage runs the line-ownership tracking engine over the fetched
// log and diffs.
type TrackStage struct {
	Runner   cvsio.Runner
	Path     string
	Strategy linetrack.Strategy
}

func (s TrackStage) Name() string     { return "track:" + s.Path }
func (TrackStage) Provides() []string { return []string{KeyLines} }
func (TrackStage) Requires() []string { return []string{KeyLog, KeyDiffs} }
func (s TrackStage) Run(state map[string]interface{}) error {
	log, ok := state[KeyLog].(*cvslog.FileLog)
	if !ok {
		return errors.Errorf("trackstage: %s missing in state", KeyLog)
	}
	diffs, ok := state[KeyDiffs].(map[string]*cvsdiff.Diff)
	if !ok {
		return errors.Errorf("trackstage: %s missing in state", KeyDiffs)
	}

	oldest := log.OldestFirst()
	steps := make([]linetrack.Step, len(oldest))
	if len(oldest) > 0 {
		n, err := s.Runner.LineCount(context.Background(), s.Path, oldest[0].Revision)
		if err != nil {
			return errors.Wrapf(err, "trackstage: %s: initial line count", s.Path)
		}
		steps[0] = linetrack.Step{Revision: oldest[0].Revision, InitialLines: n}
	}
	for i := 1; i < len(oldest); i++ {
		d, ok := diffs[oldest[i].Revision.String()]
		if !ok {
			return errors.Errorf("trackstage: %s: no diff recorded for %s", s.Path, oldest[i].Revision)
		}
		if _, isForward := s.Strategy.(linetrack.ForwardRange); isForward {
			d.AlignTop()
		}
		steps[i] = linetrack.Step{Revision: oldest[i].Revision, Diff: d}
	}

	lines, err := s.Strategy.Track(steps)
	if err != nil {
		return errors.Wrapf(err, "trackstage: %s", s.Path)
	}
	state[KeyLines] = lines
	return nil
}

// MaterializeStage turns a tracked file's per-line revision lists into
// ".cmt" records, newest commit first per line.
type MaterializeStage struct {
	FileID uint64
}

func (s MaterializeStage) Name() string     { return "materialize" }
func (MaterializeStage) Provides() []string { return []string{KeyRecords} }
func (MaterializeStage) Requires() []string { return []string{KeyLog, KeyLines} }
func (s MaterializeStage) Run(state map[string]interface{}) error {
	log, ok := state[KeyLog].(*cvslog.FileLog)
	if !ok {
		return errors.Errorf("materializestage: %s missing in state", KeyLog)
	}
	lines, ok := state[KeyLines].([]revision.List)
	if !ok {
		return errors.Errorf("materializestage: %s missing in state", KeyLines)
	}

	byRev := make(map[string]cvslog.Entry, len(log.Entries))
	for _, e := range log.Entries {
		byRev[e.Revision.String()] = e
	}

	records := make([]materialize.LineRecord, len(lines))
	for i, revs := range lines {
		comments := make([]materialize.Comment, len(revs))
		for j := len(revs) - 1; j >= 0; j-- {
			rev := revs[j]
			entry := byRev[rev.String()]
			comments[len(revs)-1-j] = materialize.Comment{
				Revision: rev.String(),
				Date:     entry.Date,
				Author:   entry.Author,
				State:    entry.State,
				Lines:    entry.Lines,
				Text:     entry.Comment,
			}
		}
		records[i] = materialize.LineRecord{FileID: s.FileID, Comments: comments}
	}
	state[KeyRecords] = records
	return nil
}

// StoreStage persists the file's revisions, comments and diffs into a
// FileStore.
type StoreStage struct {
	Store  *store.FileStore
	FileID uint64
}

func (s StoreStage) Name() string     { return "store" }
func (StoreStage) Provides() []string { return []string{"cvs.stored"} }
func (StoreStage) Requires() []string { return []string{KeyLog, KeyDiffs, KeyLines} }
func (s StoreStage) Run(state map[string]interface{}) error {
	log, ok := state[KeyLog].(*cvslog.FileLog)
	if !ok {
		return errors.Errorf("storestage: %s missing in state", KeyLog)
	}
	diffs, ok := state[KeyDiffs].(map[string]*cvsdiff.Diff)
	if !ok {
		return errors.Errorf("storestage: %s missing in state", KeyDiffs)
	}
	lines, ok := state[KeyLines].([]revision.List)
	if !ok {
		return errors.Errorf("storestage: %s missing in state", KeyLines)
	}

	oldest := log.OldestFirst()
	for _, e := range oldest {
		s.Store.PutFileRevision(s.FileID, e.Revision)
		if e.Comment != "" {
			s.Store.PutComment(s.FileID, e.Revision, e.Comment)
		}
		if d, ok := diffs[e.Revision.String()]; ok {
			s.Store.PutDiff(s.FileID, e.Revision, d)
		}
	}
	for line, revs := range lines {
		for _, rev := range revs {
			s.Store.PutMapping(s.FileID, rev, uint32(line+1))
		}
	}
	state["cvs.stored"] = true
	return nil
}

var _ core.Stage = LogStage{}
var _ core.Stage = DiffStage{}
var _ core.Stage = TrackStage{}
var _ core.Stage = MaterializeStage{}
var _ core.Stage = StoreStage{}
