package source

import (
	"bytes"
	"testing"

	"volta/internal/fbuf"
)

func TestLoc_PackUnpack(t *testing.T) {
	tests := []struct {
		name string
		loc  Loc
	}{
		{
			name: "simple range",
			loc:  Loc{FirstLine: 10, FirstColumn: 4, LineDelta: 0, ColumnDelta: 6, File: 2},
		},
		{
			name: "multi line",
			loc:  Loc{FirstLine: 100, FirstColumn: 0, LineDelta: 3, ColumnDelta: 12, File: 0},
		},
		{
			name: "invalid",
			loc:  LocInvalid,
		},
		{
			name: "max fields",
			loc: Loc{
				FirstLine:   LineInvalid,
				FirstColumn: ColumnInvalid,
				LineDelta:   DeltaInvalid,
				ColumnDelta: DeltaInvalid,
				File:        FileInvalid,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unpack(tt.loc.Pack()); got != tt.loc {
				t.Errorf("Unpack(Pack()) = %+v, want %+v", got, tt.loc)
			}
		})
	}
}

func TestNewLoc_Saturation(t *testing.T) {
	loc := NewLoc(5, 0, 5, 5000, 1)
	if loc.ColumnDelta != DeltaInvalid {
		t.Errorf("column delta did not saturate: %d", loc.ColumnDelta)
	}

	loc = NewLoc(1, 0, 1000, 0, 1)
	if loc.LineDelta != DeltaInvalid {
		t.Errorf("line delta did not saturate: %d", loc.LineDelta)
	}

	loc = NewLoc(LineInvalid, 0, LineInvalid, 0, 1)
	if !loc.Invalid() {
		t.Errorf("expected invalid location, got %+v", loc)
	}
}

func TestRegistry_Dedup(t *testing.T) {
	r := NewRegistry()

	a := r.Ref("foo/bar.vhd", nil)
	b := r.Ref("foo//bar.vhd", nil)
	if a != b {
		t.Errorf("consecutive slashes were not collapsed: %d vs %d", a, b)
	}

	c := r.Ref("other.vhd", nil)
	if c == a {
		t.Errorf("distinct files share a reference")
	}

	if got := r.Name(Loc{File: a, FirstLine: 1}); got != "foo/bar.vhd" {
		t.Errorf("Name() = %q", got)
	}

	if r.Ref("", nil) != FileInvalid {
		t.Errorf("empty name should be invalid")
	}
}

func TestRegistry_Source(t *testing.T) {
	r := NewRegistry()
	ref := r.Ref("test.vhd", []byte("line one\nline two\nline three\n"))

	loc := Loc{File: ref, FirstLine: 2, FirstColumn: 0}
	src := r.Source(loc)
	if src == nil {
		t.Fatal("Source() = nil")
	}
	if got := string(src[:8]); got != "line two" {
		t.Errorf("Source() starts with %q", got)
	}

	if r.Source(LocInvalid) != nil {
		t.Errorf("invalid location should have no source")
	}
}

// Writing two locations referencing two files and reading them back
// must produce identical records with file references resolved onto
// the destination registry.
func TestLoc_RoundTrip(t *testing.T) {
	wreg := NewRegistry()
	fooRef := wreg.Ref("foo.vhd", nil)
	barRef := wreg.Ref("bar.vhd", nil)

	locs := []Loc{
		{FirstLine: 10, FirstColumn: 2, LineDelta: 0, ColumnDelta: 4, File: fooRef},
		{FirstLine: 77, FirstColumn: 0, LineDelta: 1, ColumnDelta: 8, File: barRef},
		LocInvalid,
	}

	var buf bytes.Buffer
	wf := fbuf.NewWriter("mem", &buf)
	wctx := WriteBegin(wreg, wf)
	for _, loc := range locs {
		wctx.Write(loc)
	}
	if err := wf.Close(); err != nil {
		t.Fatalf("write: %v", err)
	}

	// A fresh registry already holding one of the files under a
	// different reference
	rreg := NewRegistry()
	rreg.Ref("unrelated.vhd", nil)
	barLocal := rreg.Ref("bar.vhd", nil)

	rf := fbuf.NewReader("mem", bytes.NewReader(buf.Bytes()))
	rctx := ReadBegin(rreg, rf)

	var read []Loc
	for i, want := range locs {
		got, err := rctx.Read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		read = append(read, got)

		if got.FirstLine != want.FirstLine || got.FirstColumn != want.FirstColumn ||
			got.LineDelta != want.LineDelta || got.ColumnDelta != want.ColumnDelta {
			t.Errorf("loc %d = %+v, want %+v", i, got, want)
		}

		if want.File == FileInvalid {
			if got.File != FileInvalid {
				t.Errorf("loc %d file = %d, want invalid", i, got.File)
			}
			continue
		}

		if name := rreg.Name(got); name != wreg.Name(want) {
			t.Errorf("loc %d resolves to %q, want %q", i, name, wreg.Name(want))
		}
	}

	// The existing bar.vhd entry must have been reused, and foo.vhd
	// appended fresh
	if read[1].File != barLocal {
		t.Errorf("bar.vhd mapped to %d, want existing %d", read[1].File, barLocal)
	}
	if rreg.NumFiles() != 3 {
		t.Errorf("registry has %d files, want 3", rreg.NumFiles())
	}
}

func TestLoc_CorruptMagic(t *testing.T) {
	var buf bytes.Buffer
	wf := fbuf.NewWriter("mem", &buf)
	wf.WriteU16(0xdead)
	wf.WriteU64(0)
	if err := wf.Close(); err != nil {
		t.Fatalf("write: %v", err)
	}

	rf := fbuf.NewReader("mem", bytes.NewReader(buf.Bytes()))
	rctx := ReadBegin(NewRegistry(), rf)
	if _, err := rctx.Read(); err == nil {
		t.Errorf("expected corrupt header error")
	}
}
