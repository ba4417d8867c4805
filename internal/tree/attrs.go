package tree

import (
	"fmt"

	"volta/internal/ident"
)

const maxAttrs = 16

type attrStoreKind uint8

const (
	attrString attrStoreKind = iota
	attrInt
	attrPtr
	attrTree
)

// attr is one entry in a node's auxiliary attribute dictionary.
type attr struct {
	kind attrStoreKind
	name ident.ID
	sval string
	ival int
	pval any
	tval *Node
}

func (n *Node) findAttr(name ident.ID, kind attrStoreKind) *attr {
	for i := range n.attrs {
		if n.attrs[i].kind == kind && n.attrs[i].name == name {
			return &n.attrs[i]
		}
	}
	return nil
}

func (n *Node) addAttr(name ident.ID, kind attrStoreKind) *attr {
	if a := n.findAttr(name, kind); a != nil {
		return a
	}
	if len(n.attrs) >= maxAttrs {
		panic(fmt.Sprintf("tree: too many attributes on %s", n.kind))
	}
	n.attrs = append(n.attrs, attr{kind: kind, name: name})
	return &n.attrs[len(n.attrs)-1]
}

// SetAttrStr attaches a string attribute, replacing any existing value.
func (n *Node) SetAttrStr(name ident.ID, s string) {
	n.addAttr(name, attrString).sval = s
}

// AttrStr returns the string attribute name, or "" if absent.
func (n *Node) AttrStr(name ident.ID) string {
	if a := n.findAttr(name, attrString); a != nil {
		return a.sval
	}
	return ""
}

// SetAttrInt attaches an integer attribute.
func (n *Node) SetAttrInt(name ident.ID, v int) {
	n.addAttr(name, attrInt).ival = v
}

// AttrInt returns the integer attribute name, or def if absent.
func (n *Node) AttrInt(name ident.ID, def int) int {
	if a := n.findAttr(name, attrInt); a != nil {
		return a.ival
	}
	return def
}

// SetAttrPtr attaches an opaque attribute. Pointer attributes cannot
// be serialized.
func (n *Node) SetAttrPtr(name ident.ID, p any) {
	n.addAttr(name, attrPtr).pval = p
}

// AttrPtr returns the opaque attribute name, or nil if absent.
func (n *Node) AttrPtr(name ident.ID) any {
	if a := n.findAttr(name, attrPtr); a != nil {
		return a.pval
	}
	return nil
}

// SetAttrTree attaches a tree attribute.
func (n *Node) SetAttrTree(name ident.ID, t *Node) {
	n.addAttr(name, attrTree).tval = t
}

// AttrTree returns the tree attribute name, or nil if absent.
func (n *Node) AttrTree(name ident.ID) *Node {
	if a := n.findAttr(name, attrTree); a != nil {
		return a.tval
	}
	return nil
}
