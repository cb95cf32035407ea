package cvsdiff

// Refine splits a coarse Change hunk into smaller Add/Delete/Change
// entries by running a line-level Needleman-Wunsch alignment over its
// SourceLines/DestLines. It is a no-op (returns the entry unchanged) for
// non-Change entries, since only change hunks carry ambiguous line-level
// correspondence.
func Refine(entry Entry) []Entry {
	if entry.Kind != Change {
		return []Entry{entry}
	}
	sourceOffset := entry.Source.Begin - 1
	destOffset := entry.Dest.Begin - 1
	_, refined := Align(entry.SourceLines, entry.DestLines, lineSpace, func(a, b string) int {
		if a == lineSpace || b == lineSpace {
			return -1
		}
		return LineScore(a, b)
	}, sourceOffset, destOffset)
	return refined
}

// RefineAll refines every Change entry in a Diff in place, replacing each
// one with its (possibly multi-entry) refinement. Add and Delete entries
// pass through untouched.
func RefineAll(d *Diff) {
	refined := make([]Entry, 0, len(d.Entries))
	for _, e := range d.Entries {
		refined = append(refined, Refine(e)...)
	}
	d.Entries = refined
}
