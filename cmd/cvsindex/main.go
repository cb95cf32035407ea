/*
Command cvsindex builds and queries a per-line revision history index for
files tracked in a CVS repository.

	cvsindex index [path...]
	cvsindex query-lines <file>
	cvsindex compact

Output from index goes to the store directory (-store); query-lines prints
each stored "rev: comment" pair to stdout, followed by the file's starting
line in the ".cmt" file when one is recorded.
*/
package main

func main() {
	Execute()
}
