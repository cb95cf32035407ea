package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	progress "gopkg.in/cheggaaa/pb.v1"

	"github.com/cyraxred/cvssearch/internal/cvsio"
	"github.com/cyraxred/cvssearch/internal/linetrack"
	"github.com/cyraxred/cvssearch/internal/materialize"
	"github.com/cyraxred/cvssearch/internal/store"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Index every file under the given paths (or the current directory).",
	RunE:  runIndex,
}

func resolveStrategy(name string) (linetrack.Strategy, error) {
	switch name {
	case "backward-line", "":
		return linetrack.BackwardLine{}, nil
	case "forward-range":
		return linetrack.ForwardRange{}, nil
	default:
		return nil, errors.Errorf("unknown -strategy %q (want backward-line or forward-range)", name)
	}
}

func discoverFiles(roots []string) ([]string, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	var files []string
	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				if info.Name() == "CVS" {
					return filepath.SkipDir
				}
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walking %s", root)
		}
	}
	return files, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir, err := expandStoreDir()
	if err != nil {
		return errors.Wrap(err, "expanding -store")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating store directory %s", dir)
	}

	strat, err := resolveStrategy(strategy)
	if err != nil {
		return err
	}

	files, err := discoverFiles(args)
	if err != nil {
		return err
	}

	fileStore, err := store.LoadFileStore(dir)
	if err != nil {
		fileStore = store.NewFileStore()
	}

	runner := cvsio.ExecRunner{CVSRoot: cvsRoot}
	logger := newLogger()

	var bar *progress.ProgressBar
	if !quiet {
		bar = progress.New(len(files))
		bar.ShowSpeed = true
		bar.SetMaxWidth(80).Start()
	}

	var offsets []materialize.Offset
	cmtPath := filepath.Join(dir, "index.cmt")
	cmtFile, err := os.Create(cmtPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", cmtPath)
	}
	defer cmtFile.Close()

	var lineNo uint64
	var failed int
	for _, path := range files {
		if bar != nil {
			bar.Increment()
		}
		indexer := indexerFor(runner, fileStore, strat, logger)
		records, err := indexer.Index(path, branch)
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			failed++
			continue
		}
		offsets = append(offsets, materialize.Offset{Filename: path, Line: lineNo + 1})
		for _, rec := range records {
			if _, err := cmtFile.Write(materialize.EncodeLine(rec)); err != nil {
				return errors.Wrapf(err, "writing %s", cmtPath)
			}
			lineNo++
		}
	}
	if bar != nil {
		bar.Finish()
	}

	offsetPath := filepath.Join(dir, "index.offsets")
	offsetFile, err := os.Create(offsetPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", offsetPath)
	}
	defer offsetFile.Close()
	if err := materialize.WriteOffsets(offsetFile, offsets); err != nil {
		return err
	}

	if err := fileStore.Sync(dir); err != nil {
		return errors.Wrap(err, "syncing store")
	}

	fmt.Fprintf(os.Stderr, "indexed %d file(s), %d failed, %d line(s)\n", len(files)-failed, failed, lineNo)
	return nil
}
