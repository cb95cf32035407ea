package main

import (
	"github.com/cyraxred/cvssearch/internal/core"
	"github.com/cyraxred/cvssearch/internal/cvsio"
	"github.com/cyraxred/cvssearch/internal/indexpipeline"
	"github.com/cyraxred/cvssearch/internal/linetrack"
	"github.com/cyraxred/cvssearch/internal/store"
)

func indexerFor(runner cvsio.Runner, s *store.FileStore, strat linetrack.Strategy, logger core.Logger) indexpipeline.FileIndexer {
	return indexpipeline.FileIndexer{
		Runner:   runner,
		Store:    s,
		Strategy: strat,
		Logger:   logger,
	}
}
