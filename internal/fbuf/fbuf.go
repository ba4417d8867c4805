// Package fbuf provides the buffered binary streams the tree and
// location layers serialize into. Integers use little-endian fixed
// widths or unsigned LEB128; the format is only stable within a single
// build of the compiler.
package fbuf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"fortio.org/safecast"
)

// Buf is a byte stream open for either reading or writing.
type Buf struct {
	name string
	r    *bufio.Reader
	w    *bufio.Writer
	f    *os.File
	err  error
}

// Create opens path for writing, truncating any existing file.
func Create(path string) (*Buf, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("fbuf: %w", err)
	}
	return &Buf{name: path, w: bufio.NewWriter(f), f: f}, nil
}

// Open opens path for reading.
func Open(path string) (*Buf, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fbuf: %w", err)
	}
	return &Buf{name: path, r: bufio.NewReader(f), f: f}, nil
}

// NewWriter wraps w as a write stream. name is used in error messages.
func NewWriter(name string, w io.Writer) *Buf {
	return &Buf{name: name, w: bufio.NewWriter(w)}
}

// NewReader wraps r as a read stream.
func NewReader(name string, r io.Reader) *Buf {
	return &Buf{name: name, r: bufio.NewReader(r)}
}

// Name returns the file name the stream was opened with.
func (b *Buf) Name() string { return b.name }

// Err returns the first I/O error encountered, if any.
func (b *Buf) Err() error { return b.err }

// Close flushes (when writing) and closes the underlying file.
func (b *Buf) Close() error {
	if b.w != nil {
		if err := b.w.Flush(); err != nil && b.err == nil {
			b.err = err
		}
	}
	if b.f != nil {
		if err := b.f.Close(); err != nil && b.err == nil {
			b.err = err
		}
	}
	return b.err
}

func (b *Buf) setErr(err error) {
	if b.err == nil && err != nil {
		b.err = fmt.Errorf("fbuf %s: %w", b.name, err)
	}
}

func (b *Buf) WriteU16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	_, err := b.w.Write(tmp[:])
	b.setErr(err)
}

func (b *Buf) ReadU16() uint16 {
	var tmp [2]byte
	if _, err := io.ReadFull(b.r, tmp[:]); err != nil {
		b.setErr(err)
		return 0
	}
	return binary.LittleEndian.Uint16(tmp[:])
}

func (b *Buf) WriteU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	_, err := b.w.Write(tmp[:])
	b.setErr(err)
}

func (b *Buf) ReadU64() uint64 {
	var tmp [8]byte
	if _, err := io.ReadFull(b.r, tmp[:]); err != nil {
		b.setErr(err)
		return 0
	}
	return binary.LittleEndian.Uint64(tmp[:])
}

// PutUint writes v as unsigned LEB128.
func (b *Buf) PutUint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	_, err := b.w.Write(tmp[:n])
	b.setErr(err)
}

// GetUint reads an unsigned LEB128 value.
func (b *Buf) GetUint() uint64 {
	v, err := binary.ReadUvarint(b.r)
	if err != nil {
		b.setErr(err)
		return 0
	}
	return v
}

// PutInt writes v as a zig-zag encoded varint.
func (b *Buf) PutInt(v int64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	_, err := b.w.Write(tmp[:n])
	b.setErr(err)
}

// GetInt reads a zig-zag encoded varint.
func (b *Buf) GetInt() int64 {
	v, err := binary.ReadVarint(b.r)
	if err != nil {
		b.setErr(err)
		return 0
	}
	return v
}

// WriteRaw writes p verbatim.
func (b *Buf) WriteRaw(p []byte) {
	_, err := b.w.Write(p)
	b.setErr(err)
}

// ReadRaw fills p from the stream.
func (b *Buf) ReadRaw(p []byte) {
	if _, err := io.ReadFull(b.r, p); err != nil {
		b.setErr(err)
	}
}

// PutString writes a length-prefixed string.
func (b *Buf) PutString(s string) {
	n, err := safecast.Conv[uint64](len(s))
	if err != nil {
		panic(fmt.Errorf("fbuf: string length overflow: %w", err))
	}
	b.PutUint(n)
	b.WriteRaw([]byte(s))
}

// GetString reads a length-prefixed string.
func (b *Buf) GetString() string {
	n := b.GetUint()
	buf := make([]byte, n)
	b.ReadRaw(buf)
	return string(buf)
}
