package fbuf

import (
	"bytes"
	"testing"
)

func TestBuf_RoundTrip(t *testing.T) {
	var buf bytes.Buffer

	w := NewWriter("mem", &buf)
	w.WriteU16(0xf00f)
	w.WriteU64(0x0123456789abcdef)
	w.PutUint(0)
	w.PutUint(300)
	w.PutInt(-42)
	w.PutString("hello")
	w.WriteRaw([]byte{1, 2, 3})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r := NewReader("mem", bytes.NewReader(buf.Bytes()))
	if got := r.ReadU16(); got != 0xf00f {
		t.Errorf("ReadU16() = %#x", got)
	}
	if got := r.ReadU64(); got != 0x0123456789abcdef {
		t.Errorf("ReadU64() = %#x", got)
	}
	if got := r.GetUint(); got != 0 {
		t.Errorf("GetUint() = %d", got)
	}
	if got := r.GetUint(); got != 300 {
		t.Errorf("GetUint() = %d", got)
	}
	if got := r.GetInt(); got != -42 {
		t.Errorf("GetInt() = %d", got)
	}
	if got := r.GetString(); got != "hello" {
		t.Errorf("GetString() = %q", got)
	}
	raw := make([]byte, 3)
	r.ReadRaw(raw)
	if !bytes.Equal(raw, []byte{1, 2, 3}) {
		t.Errorf("ReadRaw() = %v", raw)
	}
	if err := r.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestBuf_ShortRead(t *testing.T) {
	r := NewReader("mem", bytes.NewReader([]byte{0x01}))
	_ = r.ReadU64()
	if r.Err() == nil {
		t.Errorf("expected error on short read")
	}
}

func TestBuf_File(t *testing.T) {
	path := t.TempDir() + "/test.bin"

	w, err := Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w.PutString("on disk")
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	if got := r.GetString(); got != "on disk" {
		t.Errorf("GetString() = %q", got)
	}
	if r.Name() != path {
		t.Errorf("Name() = %q", r.Name())
	}
}
