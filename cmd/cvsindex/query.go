package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cyraxred/cvssearch/internal/materialize"
	"github.com/cyraxred/cvssearch/internal/store"
)

func init() {
	rootCmd.AddCommand(queryLinesCmd)
}

var queryLinesCmd = &cobra.Command{
	Use:   "query-lines <file>",
	Short: "Print the per-line commit history recorded for a file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runQueryLines,
}

func runQueryLines(cmd *cobra.Command, args []string) error {
	dir, err := expandStoreDir()
	if err != nil {
		return errors.Wrap(err, "expanding -store")
	}
	fileStore, err := store.LoadFileStore(dir)
	if err != nil {
		return errors.Wrapf(err, "loading store at %s", dir)
	}

	path := args[0]
	fileID, ok := fileStore.GetFileID(path)
	if !ok {
		return errors.Errorf("%s: not indexed", path)
	}

	revs, comments, err := fileStore.GetRevisionComments(fileID)
	if err != nil {
		return errors.Wrapf(err, "reading comments for %s", path)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for i, rev := range revs {
		fmt.Fprintf(w, "%s: %s\n", rev, comments[i])
	}

	offsetPath := filepath.Join(dir, "index.offsets")
	offFile, err := os.Open(offsetPath)
	if err != nil {
		return nil
	}
	defer offFile.Close()
	offsets, err := materialize.ReadOffsets(offFile)
	if err != nil {
		return errors.Wrap(err, "reading offsets")
	}
	for _, o := range offsets {
		if o.Filename == path {
			fmt.Fprintf(w, "starts at .cmt line %d\n", o.Line)
			break
		}
	}
	return nil
}
