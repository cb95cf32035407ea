package core

import (
	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/toposort"
)

// Stage is one unit of work in a FileStore indexing run: parsing a log,
// computing a diff, tracking line ownership, materialising comments, and
// so on. Stages declare what they Provide and Require so Pipeline can
// order them with toposort instead of the caller hardcoding a sequence.
type Stage interface {
	// Name identifies the stage in logs and in FindCycle diagnostics.
	Name() string

	// Provides lists the named values this stage produces once Run
	// completes; Requires lists the named values it needs already
	// produced by an earlier stage.
	Provides() []string
	Requires() []string

	// Run executes the stage against state, reading its Requires and
	// writing its Provides.
	Run(state map[string]interface{}) error
}

// Pipeline orders and runs a fixed set of Stages once, by their declared
// data dependencies.
type Pipeline struct {
	Logger Logger

	stages []Stage
	byName map[string]Stage
}

// NewPipeline creates an empty Pipeline using l for stage diagnostics
// (core.NewLogger() if l is nil).
func NewPipeline(l Logger) *Pipeline {
	if l == nil {
		l = NewLogger()
	}
	return &Pipeline{Logger: l, byName: map[string]Stage{}}
}

// Add registers a stage. Adding two stages under the same Name is an
// error, caught at Run time via the returned ordering error.
func (p *Pipeline) Add(s Stage) {
	p.stages = append(p.stages, s)
	p.byName[s.Name()] = s
}

// order builds the dependency graph and topologically sorts it, mapping
// each provided value back to the stage producing it.
func (p *Pipeline) order() ([]Stage, error) {
	graph := toposort.NewGraphWithInsertionOrder()
	producer := map[string]string{}

	for _, s := range p.stages {
		if !graph.AddNode(s.Name()) {
			return nil, errors.Errorf("pipeline: duplicate stage name %q", s.Name())
		}
	}
	for _, s := range p.stages {
		for _, out := range s.Provides() {
			if prev, ok := producer[out]; ok {
				return nil, errors.Errorf(
					"pipeline: %q and %q both provide %q", prev, s.Name(), out)
			}
			producer[out] = s.Name()
		}
	}
	for _, s := range p.stages {
		for _, in := range s.Requires() {
			from, ok := producer[in]
			if !ok {
				return nil, errors.Errorf(
					"pipeline: %q requires %q, which no stage provides", s.Name(), in)
			}
			graph.AddEdge(from, s.Name())
		}
	}

	names, ok := graph.Toposort()
	if !ok {
		cycle := graph.FindCycle(p.stages[0].Name())
		return nil, errors.Errorf("pipeline: dependency cycle detected: %v", cycle)
	}
	ordered := make([]Stage, len(names))
	for i, name := range names {
		ordered[i] = p.byName[name]
	}
	return ordered, nil
}

// Run executes every stage once, in dependency order, against a shared
// state map. state may be pre-populated with external inputs (e.g. the
// file path being indexed); it accumulates every stage's Provides as they
// complete.
func (p *Pipeline) Run(state map[string]interface{}) error {
	ordered, err := p.order()
	if err != nil {
		return err
	}
	for _, s := range ordered {
		p.Logger.Infof("running stage %s", s.Name())
		if err := s.Run(state); err != nil {
			return errors.Wrapf(err, "pipeline: stage %q failed", s.Name())
		}
	}
	return nil
}
