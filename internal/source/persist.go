package source

import (
	"fmt"

	"fortio.org/safecast"

	"volta/internal/fbuf"
)

const locMagic = 0xf00f

// WriteCtx persists locations to a stream. The interned file table is
// written once, in front of the first location.
type WriteCtx struct {
	reg       *Registry
	f         *fbuf.Buf
	haveIndex bool
}

func WriteBegin(reg *Registry, f *fbuf.Buf) *WriteCtx {
	return &WriteCtx{reg: reg, f: f}
}

// Write emits one packed location, preceded by the file table on the
// first call.
func (ctx *WriteCtx) Write(loc Loc) {
	if !ctx.haveIndex {
		ctx.f.WriteU16(locMagic)

		n, err := safecast.Conv[uint64](len(ctx.reg.files))
		if err != nil {
			panic(fmt.Errorf("source: file table overflow: %w", err))
		}
		ctx.f.PutUint(n)
		for i := range ctx.reg.files {
			ctx.f.PutString(ctx.reg.files[i].name)
		}

		ctx.haveIndex = true
	}

	ctx.f.WriteU64(loc.Pack())
}

// ReadCtx restores locations written by WriteCtx, remapping the stored
// file references onto the destination registry.
type ReadCtx struct {
	reg       *Registry
	f         *fbuf.Buf
	fileMap   []string
	refMap    []FileRef
	haveIndex bool
}

func ReadBegin(reg *Registry, f *fbuf.Buf) *ReadCtx {
	return &ReadCtx{reg: reg, f: f}
}

// Read reads one location. It returns an error only for a corrupt
// stream; I/O errors surface through the fbuf.
func (ctx *ReadCtx) Read() (Loc, error) {
	if !ctx.haveIndex {
		if magic := ctx.f.ReadU16(); magic != locMagic {
			return LocInvalid, fmt.Errorf("corrupt location header in %s", ctx.f.Name())
		}

		nFiles := ctx.f.GetUint()
		ctx.fileMap = make([]string, nFiles)
		ctx.refMap = make([]FileRef, nFiles)
		for i := range ctx.fileMap {
			ctx.fileMap[i] = ctx.f.GetString()
			ctx.refMap[i] = FileInvalid
		}

		ctx.haveIndex = true
	}

	loc := Unpack(ctx.f.ReadU64())

	if loc.File != FileInvalid {
		oldRef := int(loc.File)
		if oldRef >= len(ctx.fileMap) {
			return LocInvalid, fmt.Errorf("corrupt location file reference %x in %s",
				oldRef, ctx.f.Name())
		}

		if ctx.refMap[oldRef] == FileInvalid {
			// First time this reference is seen: find or add the
			// file in the destination registry.
			ctx.refMap[oldRef] = ctx.reg.Ref(ctx.fileMap[oldRef], nil)
		}
		loc.File = ctx.refMap[oldRef]
	}

	return loc, nil
}
