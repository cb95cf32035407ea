package cvsdiff

import "testing"

func TestNewEntryAdd(t *testing.T) {
	e := NewEntry(2, 2, 3, 4, Add)
	if e.Source.Begin != 3 || e.Source.End != 3 {
		t.Fatalf("unexpected source: %+v", e.Source)
	}
	if e.Dest.Begin != 3 || e.Dest.End != 5 {
		t.Fatalf("unexpected dest: %+v", e.Dest)
	}
	if e.Size() != 2 {
		t.Fatalf("unexpected size: %d", e.Size())
	}
	if e.String() != "2a3,4" {
		t.Fatalf("unexpected round trip: %s", e.String())
	}
}

func TestNewEntryDelete(t *testing.T) {
	e := NewEntry(4, 5, 3, 3, Delete)
	if e.Source.Begin != 4 || e.Source.End != 6 {
		t.Fatalf("unexpected source: %+v", e.Source)
	}
	if e.Dest.Begin != 4 || e.Dest.End != 4 {
		t.Fatalf("unexpected dest: %+v", e.Dest)
	}
	if e.Size() != -2 {
		t.Fatalf("unexpected size: %d", e.Size())
	}
	if e.String() != "4,5d3" {
		t.Fatalf("unexpected round trip: %s", e.String())
	}
}

func TestNewEntryChange(t *testing.T) {
	e := NewEntry(3, 4, 5, 6, Change)
	if e.Source.Begin != 3 || e.Source.End != 5 {
		t.Fatalf("unexpected source: %+v", e.Source)
	}
	if e.Dest.Begin != 5 || e.Dest.End != 7 {
		t.Fatalf("unexpected dest: %+v", e.Dest)
	}
	if e.Size() != 0 {
		t.Fatalf("unexpected size: %d", e.Size())
	}
	if e.String() != "3,4c5,6" {
		t.Fatalf("unexpected round trip: %s", e.String())
	}
}
