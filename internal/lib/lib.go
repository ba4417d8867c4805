// Package lib implements the work library: serialized design units
// stored under a directory with a msgpack index.
package lib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"volta/internal/fbuf"
	"volta/internal/ident"
	"volta/internal/source"
	"volta/internal/tree"
)

// Increment when the unit or index format changes
const indexSchemaVersion uint16 = 1

const (
	indexFile = "_index.mp"
	unitExt   = ".vtu"
)

// UnitMeta describes one stored design unit.
type UnitMeta struct {
	Name string
	Kind uint8
	Path string // Relative to the library directory
	Size int64  `msgpack:",omitempty"`
}

type indexPayload struct {
	Schema uint16
	Units  []UnitMeta
}

// Library is one on-disk work library.
type Library struct {
	dir   string
	reg   *source.Registry
	units map[string]UnitMeta
}

// Open opens or creates a library at dir. Units read back resolve
// their source locations through reg.
func Open(dir string, reg *source.Registry) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("lib: %w", err)
	}

	l := &Library{dir: dir, reg: reg, units: make(map[string]UnitMeta)}

	f, err := os.Open(filepath.Join(dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("lib: %w", err)
	}
	defer f.Close()

	var payload indexPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, fmt.Errorf("lib: corrupt index in %s: %w", dir, err)
	}
	if payload.Schema != indexSchemaVersion {
		// Stale index: treat the library as empty rather than failing
		return l, nil
	}

	for _, u := range payload.Units {
		l.units[u.Name] = u
	}

	return l, nil
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// unitFileName derives a stable file name from a unit identifier.
func unitFileName(name string) string {
	mangled := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, name)
	return mangled + unitExt
}

// Put serializes unit into the library and updates the index. The
// unit file is replaced atomically.
func (l *Library) Put(unit *tree.Node) error {
	if !unit.Kind().IsTopLevel() {
		return fmt.Errorf("lib: %s is not a design unit", unit.Kind())
	}

	name := ident.Str(unit.Ident())
	rel := unitFileName(name)
	path := filepath.Join(l.dir, rel)

	tmp, err := os.CreateTemp(l.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("lib: %w", err)
	}

	f := fbuf.NewWriter(path, tmp)
	wctx := tree.WriteBegin(f, l.reg)
	wctx.Write(unit)

	if err := f.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("lib: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("lib: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("lib: %w", err)
	}

	var size int64
	if st, err := os.Stat(path); err == nil {
		size = st.Size()
	}

	l.units[name] = UnitMeta{
		Name: name,
		Kind: uint8(unit.Kind()),
		Path: rel,
		Size: size,
	}

	return l.saveIndex()
}

// Get deserializes the named unit. Units are decoded serially: the
// tree arena is single-threaded by contract.
func (l *Library) Get(name string) (*tree.Node, error) {
	meta, ok := l.units[name]
	if !ok {
		return nil, fmt.Errorf("lib: no unit %q in %s", name, l.dir)
	}

	f, err := fbuf.Open(filepath.Join(l.dir, meta.Path))
	if err != nil {
		return nil, fmt.Errorf("lib: %w", err)
	}
	defer f.Close()

	rctx := tree.ReadBegin(f, l.reg)
	unit, err := rctx.Read()
	if err != nil {
		return nil, fmt.Errorf("lib: %s: %w", meta.Path, err)
	}

	return unit, nil
}

// Units returns the index entries sorted by name.
func (l *Library) Units() []UnitMeta {
	out := make([]UnitMeta, 0, len(l.units))
	for _, u := range l.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Scan re-stats every indexed unit file concurrently and returns the
// entries that are present on disk, dropping stale index rows.
func (l *Library) Scan() ([]UnitMeta, error) {
	var (
		mu    sync.Mutex
		alive []UnitMeta
	)

	g := new(errgroup.Group)
	g.SetLimit(8)

	for _, u := range l.Units() {
		u := u
		g.Go(func() error {
			st, err := os.Stat(filepath.Join(l.dir, u.Path))
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil // Dropped below
				}
				return err
			}

			u.Size = st.Size()
			mu.Lock()
			alive = append(alive, u)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("lib: %w", err)
	}

	sort.Slice(alive, func(i, j int) bool { return alive[i].Name < alive[j].Name })

	if len(alive) != len(l.units) {
		l.units = make(map[string]UnitMeta, len(alive))
		for _, u := range alive {
			l.units[u.Name] = u
		}
		if err := l.saveIndex(); err != nil {
			return nil, err
		}
	}

	return alive, nil
}

func (l *Library) saveIndex() error {
	payload := indexPayload{
		Schema: indexSchemaVersion,
		Units:  l.Units(),
	}

	tmp, err := os.CreateTemp(l.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("lib: %w", err)
	}

	if err := msgpack.NewEncoder(tmp).Encode(&payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("lib: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("lib: %w", err)
	}

	// Atomic replace
	if err := os.Rename(tmp.Name(), filepath.Join(l.dir, indexFile)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("lib: %w", err)
	}
	return nil
}
