package source

import (
	"os"
	"strings"
)

type file struct {
	ref       FileRef
	name      string
	buf       []byte
	triedOpen bool
}

// Registry interns source file names and hands out stable FileRefs.
// References are valid for the lifetime of the registry.
type Registry struct {
	files []file
}

func NewRegistry() *Registry {
	return &Registry{}
}

// normalizeName strips consecutive '/' characters so the same file
// registered through different spellings dedupes.
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '/' && i+1 < len(name) && name[i+1] == '/' {
			continue
		}
		b.WriteByte(name[i])
	}
	return b.String()
}

// Ref interns name and returns its reference. An empty name returns
// FileInvalid. buf, when non-nil, supplies the file contents for
// source rendering without touching the filesystem.
func (r *Registry) Ref(name string, buf []byte) FileRef {
	if name == "" {
		return FileInvalid
	}

	canon := normalizeName(name)
	for i := range r.files {
		if r.files[i].name == canon {
			return r.files[i].ref
		}
	}

	f := file{
		ref:  FileRef(len(r.files)),
		name: canon,
		buf:  buf,
	}
	r.files = append(r.files, f)
	return f.ref
}

// Name returns the canonical name for loc's file, or "" if invalid.
func (r *Registry) Name(loc Loc) string {
	if loc.File == FileInvalid || int(loc.File) >= len(r.files) {
		return ""
	}
	return r.files[loc.File].name
}

// NumFiles returns the number of interned files.
func (r *Registry) NumFiles() int { return len(r.files) }

// Source returns the contents of loc's file starting at the first
// line of loc, or nil if the file cannot be read. The buffer is loaded
// lazily and cached; a failed open is not retried.
func (r *Registry) Source(loc Loc) []byte {
	if loc.Invalid() || loc.FirstColumn == ColumnInvalid {
		return nil
	}
	if int(loc.File) >= len(r.files) {
		return nil
	}

	f := &r.files[loc.File]
	if f.buf == nil && !f.triedOpen {
		f.triedOpen = true
		if buf, err := os.ReadFile(f.name); err == nil {
			f.buf = buf
		}
	}
	if f.buf == nil {
		return nil
	}

	start := 0
	for line := uint32(1); line < loc.FirstLine; line++ {
		nl := indexByteFrom(f.buf, start, '\n')
		if nl < 0 {
			return nil
		}
		start = nl + 1
	}
	return f.buf[start:]
}

func indexByteFrom(b []byte, from int, c byte) int {
	for i := from; i < len(b); i++ {
		if b[i] == c {
			return i
		}
	}
	return -1
}

// The compiler keeps one process-wide registry, shared by diagnostics
// and serialization.
var global = NewRegistry()

func Default() *Registry { return global }

// Reset installs a fresh global registry. For tests.
func Reset() { global = NewRegistry() }
