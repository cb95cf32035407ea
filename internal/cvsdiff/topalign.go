package cvsdiff

// AlignTop shifts every entry's Source range by the cumulative size delta
// of all preceding entries, so Source and Dest both refer to the same
// (post-edit) coordinate space. cvs diff always reports Source against the
// old file's untouched line numbers, so without this shift the second and
// later hunks in a diff would be misaligned against the lines earlier
// hunks already inserted or removed.
//
// AlignTop is idempotent under UnalignTop: Diff.UnalignTop() undoes exactly
// the shift AlignTop() applied, entry for entry.
func (d *Diff) AlignTop() {
	offset := 0
	for i := range d.Entries {
		d.Entries[i].Source = d.Entries[i].Source.Shift(offset)
		offset += d.Entries[i].Size()
	}
}

// UnalignTop reverses AlignTop, restoring each entry's Source range to the
// old file's own line numbering.
func (d *Diff) UnalignTop() {
	offset := 0
	for i := range d.Entries {
		d.Entries[i].Source = d.Entries[i].Source.Shift(-offset)
		offset += d.Entries[i].Size()
	}
}
