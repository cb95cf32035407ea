package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cyraxred/cvssearch/internal/store"
)

func init() {
	rootCmd.AddCommand(compactCmd)
}

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Reload and rewrite every table file, dropping stale on-disk layout.",
	RunE:  runCompact,
}

func runCompact(cmd *cobra.Command, args []string) error {
	dir, err := expandStoreDir()
	if err != nil {
		return errors.Wrap(err, "expanding -store")
	}
	fileStore, err := store.LoadFileStore(dir)
	if err != nil {
		return errors.Wrapf(err, "loading store at %s", dir)
	}
	if err := fileStore.Sync(dir); err != nil {
		return errors.Wrap(err, "rewriting store")
	}
	fmt.Fprintf(os.Stderr, "compacted store at %s\n", dir)
	return nil
}
