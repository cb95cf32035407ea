package indexpipeline

import (
	"github.com/cyraxred/cvssearch/internal/core"
	"github.com/cyraxred/cvssearch/internal/cvsio"
	"github.com/cyraxred/cvssearch/internal/linetrack"
	"github.com/cyraxred/cvssearch/internal/materialize"
	"github.com/cyraxred/cvssearch/internal/store"
)

// FileIndexer indexes one CVS-tracked file, wiring LogStage through
// StoreStage into a core.Pipeline and returning the materialised records
// alongside whatever it wrote into store.
type FileIndexer struct {
	Runner   cvsio.Runner
	Store    *store.FileStore
	Strategy linetrack.Strategy
	Logger   core.Logger
}

// Index runs the full pipeline for path (as known to cvs) on branch
// (empty for trunk), returning one materialize.LineRecord per physical
// line of the file's newest revision.
func (fi FileIndexer) Index(path, branch string) ([]materialize.LineRecord, error) {
	fileID := fi.Store.PutFilename(path)

	strategy := fi.Strategy
	if strategy == nil {
		strategy = linetrack.BackwardLine{}
	}

	p := core.NewPipeline(fi.Logger)
	p.Add(LogStage{Runner: fi.Runner, Path: path, Branch: branch})
	p.Add(DiffStage{Runner: fi.Runner, Path: path})
	p.Add(TrackStage{Runner: fi.Runner, Path: path, Strategy: strategy})
	p.Add(MaterializeStage{FileID: fileID})
	p.Add(StoreStage{Store: fi.Store, FileID: fileID})

	state := map[string]interface{}{}
	if err := p.Run(state); err != nil {
		return nil, err
	}
	records, _ := state[KeyRecords].([]materialize.LineRecord)
	return records, nil
}
