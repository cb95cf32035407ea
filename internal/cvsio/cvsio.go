// Package cvsio invokes the cvs client as a subprocess and parses its
// output, replacing the original tool's popen-based process wrapper
// (map/process/process.cpp) with an exec.Cmd-based Runner. Command lines
// are grounded on map/map.cpp's scvs_log/scvs_diff/scvs_update constants
// and forward_map_algorithm.cpp's actual invocations.
package cvsio

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/cyraxred/cvssearch/internal/cvsdiff"
	"github.com/cyraxred/cvssearch/internal/cvslog"
	"github.com/cyraxred/cvssearch/internal/revision"
)

// Runner retrieves a CVS-tracked file's history. Implementations must be
// safe to use from a single goroutine at a time; the tracking engine is
// single-threaded by design (§5).
type Runner interface {
	// Log returns the full revision log of path on branch (branch may be
	// empty for the trunk).
	Log(ctx context.Context, path, branch string) (*cvslog.FileLog, error)

	// Diff returns the unified-less "cvs diff -b" hunks between from and
	// to, oldest first.
	Diff(ctx context.Context, path string, from, to revision.Revision) (*cvsdiff.Diff, error)

	// LineCount returns the number of lines path had as of rev, via
	// "cvs update -p", mirroring forward_map_algorithm's bootstrap step
	// for the file's oldest tracked revision.
	LineCount(ctx context.Context, path string, rev revision.Revision) (int, error)
}

// ExecRunner invokes the real cvs(1) client found on PATH.
type ExecRunner struct {
	// CVSRoot is passed as -d when non-empty; otherwise cvs resolves the
	// root from the working copy's CVS/Root file, matching "cvs -f" usage
	// in the original tool (no rsh lookups, no .cvsrc surprises).
	CVSRoot string
}

func (r ExecRunner) args(sub string, extra ...string) []string {
	args := []string{"-f"}
	if r.CVSRoot != "" {
		args = append(args, "-d", r.CVSRoot)
	}
	args = append(args, sub)
	args = append(args, extra...)
	return args
}

// Log implements Runner.
func (r ExecRunner) Log(ctx context.Context, path, branch string) (*cvslog.FileLog, error) {
	args := r.args("log", "-b")
	if branch != "" {
		args = append(args, "-r"+branch)
	}
	args = append(args, path)

	out, err := r.run(ctx, args)
	if err != nil {
		return nil, errors.Wrapf(err, "cvsio: cvs log %s", path)
	}
	return cvslog.Parse(bytes.NewReader(out))
}

// diffArgs builds the argument list for "cvs diff" between from and to.
// from is always the older revision and to the newer one (forward_map_
// algorithm.cpp issues "-r<older> -r<newer>", so the diff's Source side
// matches from's content and Dest matches to's).
func (r ExecRunner) diffArgs(path string, from, to revision.Revision) []string {
	return r.args("diff", "-b", "-r"+from.String(), "-r"+to.String(), path)
}

// Diff implements Runner.
func (r ExecRunner) Diff(ctx context.Context, path string, from, to revision.Revision) (*cvsdiff.Diff, error) {
	args := r.diffArgs(path, from, to)
	out, err := r.run(ctx, args)
	if err != nil {
		// cvs diff exits 1 when the files differ, which is the expected
		// case on every call here: only a genuine execution failure (no
		// output at all, or a non-1 exit) is an error.
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) || exitErr.ExitCode() != 1 || len(out) == 0 {
			return nil, errors.Wrapf(err, "cvsio: cvs diff %s", path)
		}
	}
	return cvsdiff.Parse(bytes.NewReader(out))
}

// LineCount implements Runner.
func (r ExecRunner) LineCount(ctx context.Context, path string, rev revision.Revision) (int, error) {
	args := r.args("update", "-p", "-r"+rev.String(), path)
	out, err := r.run(ctx, args)
	if err != nil {
		return 0, errors.Wrapf(err, "cvsio: cvs update -p %s@%s", path, rev)
	}
	if len(out) == 0 {
		return 0, nil
	}
	return bytes.Count(out, []byte{'\n'}) + boolToInt(out[len(out)-1] != '\n'), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// run executes cvs and returns its raw stdout along with the *exec.Cmd
// error (an *exec.ExitError on a non-zero exit). When cvs wrote to stderr
// the error is wrapped with that text; callers that need to distinguish
// "ran but exited non-zero" from "could not run at all" (cvs diff's exit 1
// on differing files) recover the *exec.ExitError with errors.As.
func (r ExecRunner) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "cvs", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil && stderr.Len() > 0 {
		err = errors.Wrap(err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), err
}
