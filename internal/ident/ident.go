package ident

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// ID identifies an interned symbol. Two identifiers are the same name
// exactly when their IDs are equal.
type ID uint32

const None ID = 0

func (id ID) IsValid() bool { return id != None }

// VHDL basic identifiers are case-insensitive; the interner folds case
// once on entry so every later comparison is a plain ID compare.
var folder = cases.Fold()

// Interner maps identifier spellings to stable IDs.
type Interner struct {
	byID  []string
	index map[string]ID
	uniq  map[string]int
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""}, // None -> empty string
		index: map[string]ID{"": 0},
		uniq:  make(map[string]int),
	}
}

// Intern inserts a name and returns its ID, folding case per VHDL
// rules. Extended identifiers (\...\) keep their spelling.
func (in *Interner) Intern(s string) ID {
	canon := s
	if !strings.HasPrefix(s, "\\") {
		canon = folder.String(s)
	}

	if id, ok := in.index[canon]; ok {
		return id
	}

	cpy := strings.Clone(canon)
	id := ID(len(in.byID))
	in.byID = append(in.byID, cpy)
	in.index[cpy] = id
	return id
}

// Uniq interns base, appending a numeric suffix if the plain spelling
// was already handed out by a previous Uniq call. Used for synthesized
// declarations whose names must not collide.
func (in *Interner) Uniq(base string) ID {
	n := in.uniq[base]
	in.uniq[base] = n + 1
	if n == 0 {
		return in.Intern(base)
	}
	return in.Intern(fmt.Sprintf("%s%d", base, n))
}

// Str returns the spelling for id.
func (in *Interner) Str(id ID) string {
	if int(id) >= len(in.byID) {
		panic(fmt.Sprintf("ident: invalid ID %d", id))
	}
	return in.byID[id]
}

func (in *Interner) Len() int { return len(in.byID) }

// The tree, diagnostics and pass layers share one process-wide
// interner, like the file registry.
var global = NewInterner()

func New(s string) ID { return global.Intern(s) }
func Uniq(s string) ID { return global.Uniq(s) }
func Str(id ID) string { return global.Str(id) }

// Prefix joins two identifiers with sep, interning the result.
func Prefix(a, b ID, sep byte) ID {
	if a == None {
		return b
	}
	if b == None {
		return a
	}
	return New(Str(a) + string(sep) + Str(b))
}

// Until returns the identifier up to the first occurrence of sep, or
// the whole identifier if sep does not occur.
func Until(id ID, sep byte) ID {
	s := Str(id)
	if i := strings.IndexByte(s, sep); i >= 0 {
		return New(s[:i])
	}
	return id
}

// From returns the identifier after the first occurrence of sep, or
// None if sep does not occur.
func From(id ID, sep byte) ID {
	s := Str(id)
	if i := strings.IndexByte(s, sep); i >= 0 {
		return New(s[i+1:])
	}
	return None
}

// Reset replaces the global interner. Tests use this to get stable IDs.
func Reset() {
	global = NewInterner()
}
