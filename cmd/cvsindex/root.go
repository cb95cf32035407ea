package main

import (
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/cyraxred/cvssearch/internal/core"
)

var (
	cvsRoot  string
	storeDir string
	branch   string
	strategy string
	quiet    bool
)

// rootCmd is the base command; it carries no logic of its own beyond the
// persistent flags every subcommand shares.
var rootCmd = &cobra.Command{
	Use:   "cvsindex",
	Short: "Index per-line commit history for CVS-tracked files.",
	Long: `cvsindex walks a CVS working copy, reconstructs every commit that
touched each physical line of each file, and persists the result to a
local store for later full-text indexing.`,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cvsRoot, "cvsroot", "", "CVSROOT to pass to cvs via -d (defaults to the working copy's own CVS/Root).")
	flags.StringVar(&storeDir, "store", "~/.cvsindex", "Directory holding the persisted table files.")
	flags.StringVar(&branch, "branch", "", "Branch tag to index (empty for trunk).")
	flags.StringVar(&strategy, "strategy", "backward-line", "Line tracking strategy: backward-line or forward-range.")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress the progress bar.")
}

// Execute runs the command tree, exiting the process on error the way
// cobra-based CLIs in this codebase's lineage always have.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func expandStoreDir() (string, error) {
	return homedir.Expand(storeDir)
}

func newLogger() core.Logger {
	return core.NewLogger()
}
