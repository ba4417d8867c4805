package tree

import (
	"fmt"

	"volta/internal/ident"
)

// TypeKind tags a type record.
type TypeKind uint8

const (
	TypeUnresolved TypeKind = iota
	TypeInteger
	TypeReal
	TypePhysical
	TypeEnum
	TypeCarray
	TypeUarray
	TypeRecord
	TypeSubtype
	TypeFunc
)

var typeKindNames = [...]string{
	TypeUnresolved: "unresolved",
	TypeInteger:    "integer",
	TypeReal:       "real",
	TypePhysical:   "physical",
	TypeEnum:       "enumeration",
	TypeCarray:     "constrained array",
	TypeUarray:     "unconstrained array",
	TypeRecord:     "record",
	TypeSubtype:    "subtype",
	TypeFunc:       "function",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// Unit is a secondary unit of a physical type.
type Unit struct {
	Name       ident.ID
	Multiplier *Node
}

// Type is a reference-counted type record attached to tree nodes.
// Range bounds inside a type are tree nodes, which is why types live
// in this package.
type Type struct {
	kind     TypeKind
	name     ident.ID
	refcount int

	dims       []Range // TypeInteger, TypePhysical, TypeCarray, TypeSubtype
	base       *Type   // TypeSubtype, TypeCarray, TypeUarray (element)
	enumLits   []*Node // TypeEnum
	units      []Unit  // TypePhysical
	fields     []*Node // TypeRecord
	indexCons  []*Type // TypeUarray
	params     []*Type // TypeFunc
	result     *Type   // TypeFunc
	resolution *Node   // TypeSubtype
}

// NewType allocates a type record with a zero reference count; the
// first SetType attaches it.
func NewType(kind TypeKind, name ident.ID) *Type {
	return &Type{kind: kind, name: name}
}

func (t *Type) ref() { t.refcount++ }
func (t *Type) unref() { t.refcount-- }

// Refs returns the current reference count. For tests.
func (t *Type) Refs() int { return t.refcount }

func (t *Type) Kind() TypeKind { return t.kind }
func (t *Type) Name() ident.ID { return t.name }

// Base returns the immediate base type of a subtype or the element
// type of an array.
func (t *Type) Base() *Type {
	if t.base == nil {
		panic(fmt.Sprintf("tree: %s type has no base", t.kind))
	}
	return t.base
}

func (t *Type) HasBase() bool { return t.base != nil }
func (t *Type) SetBase(b *Type) { t.base = b }

func (t *Type) NumDims() int { return len(t.dims) }
func (t *Type) Dim(i int) Range { return t.dims[i] }
func (t *Type) AddDim(r Range) { t.dims = append(t.dims, r) }

// ChangeDim replaces dimension i. Used by the rewriter when folding
// range bounds inside type declarations.
func (t *Type) ChangeDim(i int, r Range) { t.dims[i] = r }

func (t *Type) NumEnumLits() int { return len(t.enumLits) }
func (t *Type) EnumLit(i int) *Node { return t.enumLits[i] }
func (t *Type) AddEnumLit(lit *Node) {
	if lit.Kind() != TEnumLit {
		panic(fmt.Sprintf("tree: %s is not an enumeration literal", lit.Kind()))
	}
	t.enumLits = append(t.enumLits, lit)
}

func (t *Type) NumUnits() int { return len(t.units) }
func (t *Type) Unit(i int) Unit { return t.units[i] }
func (t *Type) AddUnit(u Unit) { t.units = append(t.units, u) }

func (t *Type) NumFields() int { return len(t.fields) }
func (t *Type) Field(i int) *Node { return t.fields[i] }
func (t *Type) AddField(f *Node) { t.fields = append(t.fields, f) }

func (t *Type) NumIndexConstrs() int { return len(t.indexCons) }
func (t *Type) IndexConstr(i int) *Type { return t.indexCons[i] }
func (t *Type) AddIndexConstr(ic *Type) { t.indexCons = append(t.indexCons, ic) }

func (t *Type) NumParams() int { return len(t.params) }
func (t *Type) ParamType(i int) *Type { return t.params[i] }
func (t *Type) AddParamType(p *Type) { t.params = append(t.params, p) }

func (t *Type) Result() *Type { return t.result }
func (t *Type) SetResult(r *Type) { t.result = r }

func (t *Type) Resolution() *Node { return t.resolution }
func (t *Type) HasResolution() bool { return t.resolution != nil }
func (t *Type) SetResolution(r *Node) { t.resolution = r }

// IsScalar reports whether t is a scalar type: integer, real,
// physical or enumeration, looking through subtypes.
func (t *Type) IsScalar() bool {
	switch t.kind {
	case TypeInteger, TypeReal, TypePhysical, TypeEnum:
		return true
	case TypeSubtype:
		return t.Base().IsScalar()
	}
	return false
}

// IsArray reports whether t is an array type, looking through
// subtypes.
func (t *Type) IsArray() bool {
	switch t.kind {
	case TypeCarray, TypeUarray:
		return true
	case TypeSubtype:
		return t.Base().IsArray()
	}
	return false
}

// IsUnconstrained reports whether t lacks index constraints.
func (t *Type) IsUnconstrained() bool {
	switch t.kind {
	case TypeUarray:
		return true
	case TypeSubtype:
		if len(t.dims) == 0 {
			return t.Base().IsUnconstrained()
		}
	}
	return false
}

// baseKind resolves through subtypes to the ultimate base.
func (t *Type) baseKind() *Type {
	for t.kind == TypeSubtype {
		t = t.Base()
	}
	return t
}

// DimensionOf returns the number of dimensions, looking through
// subtypes when a subtype adds no constraint of its own.
func (t *Type) DimensionOf() int {
	if t.kind == TypeSubtype && len(t.dims) == 0 {
		return t.Base().DimensionOf()
	}
	if t.kind == TypeUarray {
		return len(t.indexCons)
	}
	return len(t.dims)
}

// RangeOf returns dimension dim of t, looking through subtypes.
func (t *Type) RangeOf(dim int) Range {
	if t.kind == TypeSubtype && len(t.dims) == 0 {
		return t.Base().RangeOf(dim)
	}
	return t.dims[dim]
}

// EnumBase resolves through subtypes and returns the enumeration base
// type, or nil.
func (t *Type) EnumBase() *Type {
	b := t.baseKind()
	if b.kind == TypeEnum {
		return b
	}
	return nil
}
