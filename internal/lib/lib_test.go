package lib

import (
	"os"
	"path/filepath"
	"testing"

	"volta/internal/ident"
	"volta/internal/source"
	"volta/internal/tree"
)

func testUnit(name string) *tree.Node {
	typ := tree.NewType(tree.TypeInteger, ident.New("integer"))

	k := tree.New(tree.TConstDecl)
	k.SetIdent(ident.New("k"))
	k.SetType(typ)
	lit := tree.New(tree.TLiteral)
	lit.SetLiteral(tree.Literal{Kind: tree.LInt, I: 99})
	lit.SetType(typ)
	k.SetValue(lit)

	pkg := tree.New(tree.TPackage)
	pkg.SetIdent(ident.New(name))
	pkg.AddDecl(k)
	return pkg
}

func TestLibrary_PutGet(t *testing.T) {
	dir := t.TempDir()
	reg := source.NewRegistry()

	l, err := Open(dir, reg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	unit := testUnit("pack")
	if err := l.Put(unit); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Reopen to force an index reload
	l2, err := Open(dir, reg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	got, err := l2.Get("pack")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Kind() != tree.TPackage || ident.Str(got.Ident()) != "pack" {
		t.Errorf("unit read back as %s %s", got.Kind(), ident.Str(got.Ident()))
	}
	if got.Decl(0).Value().Literal().I != 99 {
		t.Errorf("unit contents lost in round trip")
	}
}

func TestLibrary_GetMissing(t *testing.T) {
	l, err := Open(t.TempDir(), source.NewRegistry())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := l.Get("nothing"); err == nil {
		t.Errorf("expected error for missing unit")
	}
}

func TestLibrary_RejectsNonUnit(t *testing.T) {
	l, err := Open(t.TempDir(), source.NewRegistry())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := l.Put(tree.New(tree.TNull)); err == nil {
		t.Errorf("expected error for non-unit node")
	}
}

func TestLibrary_ScanDropsStale(t *testing.T) {
	dir := t.TempDir()
	reg := source.NewRegistry()

	l, err := Open(dir, reg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for _, name := range []string{"one", "two", "three"} {
		if err := l.Put(testUnit(name)); err != nil {
			t.Fatalf("put %s: %v", name, err)
		}
	}

	// Delete one unit file behind the library's back
	if err := os.Remove(filepath.Join(dir, "two"+unitExt)); err != nil {
		t.Fatalf("remove: %v", err)
	}

	units, err := l.Scan()
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(units) != 2 {
		t.Fatalf("scan found %d units, want 2", len(units))
	}
	if units[0].Name != "one" || units[1].Name != "three" {
		t.Errorf("scan results: %v", units)
	}

	if _, err := l.Get("two"); err == nil {
		t.Errorf("stale unit still resolvable after scan")
	}
}
