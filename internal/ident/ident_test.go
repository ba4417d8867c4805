package ident

import "testing"

func TestInterner_CaseFolding(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{name: "identical", a: "clk", b: "clk", same: true},
		{name: "case differs", a: "Clk", b: "CLK", same: true},
		{name: "distinct", a: "clk", b: "rst", same: false},
		{name: "extended identifiers keep case", a: "\\Foo\\", b: "\\foo\\", same: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewInterner()
			a, b := in.Intern(tt.a), in.Intern(tt.b)
			if (a == b) != tt.same {
				t.Errorf("Intern(%q) == Intern(%q): %v, want %v", tt.a, tt.b, a == b, tt.same)
			}
		})
	}
}

func TestInterner_Uniq(t *testing.T) {
	in := NewInterner()

	a := in.Uniq("delayed_sig")
	b := in.Uniq("delayed_sig")
	c := in.Uniq("delayed_sig")

	if a == b || b == c || a == c {
		t.Errorf("Uniq returned duplicate IDs: %d %d %d", a, b, c)
	}
	if in.Str(a) != "delayed_sig" {
		t.Errorf("first Uniq spelling = %q", in.Str(a))
	}
	if in.Str(b) == in.Str(c) {
		t.Errorf("suffixed spellings collide: %q", in.Str(b))
	}
}

func TestPathHelpers(t *testing.T) {
	Reset()

	qual := New("ieee.std_logic_1164.all")

	if got := Str(Until(qual, '.')); got != "ieee" {
		t.Errorf("Until = %q", got)
	}
	if got := Str(From(qual, '.')); got != "std_logic_1164.all" {
		t.Errorf("From = %q", got)
	}
	if From(New("nodot"), '.') != None {
		t.Errorf("From without separator should be None")
	}
	if got := Str(Prefix(New("work"), New("pkg"), '.')); got != "work.pkg" {
		t.Errorf("Prefix = %q", got)
	}
}
