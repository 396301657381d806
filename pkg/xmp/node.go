package xmp

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Node is an element of the property tree: the root, a schema, a property,
// a struct field, an array item or a qualifier.
//
// The root's name is the packet's object name (rdf:about). A schema node's
// name is the namespace URI and its value the registered prefix. Array
// items are all named ArrayItemName.
type Node struct {
	Name    string
	Value   string
	Options PropertyOptions

	parent     *Node
	children   []*Node
	qualifiers []*Node

	implicit      bool
	hasAliases    bool
	alias         bool
	hasValueChild bool
}

// NewNode creates a detached node.
func NewNode(name, value string, options PropertyOptions) *Node {
	return &Node{Name: name, Value: value, Options: options}
}

// Parent returns the parent node, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the children; the slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Qualifiers returns the qualifiers; the slice must not be modified.
func (n *Node) Qualifiers() []*Node { return n.qualifiers }

// HasChildren reports whether n has children.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// HasQualifier reports whether n has qualifiers.
func (n *Node) HasQualifier() bool { return len(n.qualifiers) > 0 }

// ChildrenLen returns the number of children.
func (n *Node) ChildrenLen() int { return len(n.children) }

// QualifierLen returns the number of qualifiers.
func (n *Node) QualifierLen() int { return len(n.qualifiers) }

// IsImplicit reports whether n was created while resolving a path.
func (n *Node) IsImplicit() bool { return n.implicit }

// IsAlias reports whether n was parsed under an alias name.
func (n *Node) IsAlias() bool { return n.alias }

// HasAliases reports whether an alias node sits below n.
func (n *Node) HasAliases() bool { return n.hasAliases }

// HasValueChild reports whether n was parsed with an rdf:value child.
func (n *Node) HasValueChild() bool { return n.hasValueChild }

// Child returns the 1-based child at index.
func (n *Node) Child(index int) *Node {
	return n.children[index-1]
}

// Qualifier returns the 1-based qualifier at index.
func (n *Node) Qualifier(index int) *Node {
	return n.qualifiers[index-1]
}

// AddChild appends child. Names must be unique among siblings except for
// array items.
func (n *Node) AddChild(child *Node) error {
	if err := n.assertChildNotExisting(child.Name); err != nil {
		return err
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// InsertChild inserts child at the 1-based index.
func (n *Node) InsertChild(index int, child *Node) error {
	if err := n.assertChildNotExisting(child.Name); err != nil {
		return err
	}
	child.parent = n
	n.children = slices.Insert(n.children, index-1, child)
	return nil
}

// ReplaceChild replaces the 1-based child at index.
func (n *Node) ReplaceChild(index int, child *Node) {
	child.parent = n
	n.children[index-1] = child
}

// RemoveChildAt removes the 1-based child at index.
func (n *Node) RemoveChildAt(index int) {
	n.children = slices.Delete(n.children, index-1, index)
	n.cleanupChildren()
}

// RemoveChild removes child if it is a child of n.
func (n *Node) RemoveChild(child *Node) {
	if i := slices.Index(n.children, child); i >= 0 {
		n.children = slices.Delete(n.children, i, i+1)
		n.cleanupChildren()
	}
}

func (n *Node) cleanupChildren() {
	if len(n.children) == 0 {
		n.children = nil
	}
}

// RemoveChildren drops every child.
func (n *Node) RemoveChildren() {
	n.children = nil
}

// AddQualifier attaches qual. xml:lang is kept first and rdf:type directly
// after it.
func (n *Node) AddQualifier(qual *Node) error {
	if err := n.assertQualifierNotExisting(qual.Name); err != nil {
		return err
	}
	qual.parent = n
	qual.Options |= IsQualifier
	n.Options |= HasQualifiers

	switch {
	case qual.isLanguageNode():
		n.Options |= HasLanguage
		n.qualifiers = slices.Insert(n.qualifiers, 0, qual)
	case qual.isTypeNode():
		n.Options |= HasType
		at := 0
		if n.Options.HasLanguage() {
			at = 1
		}
		n.qualifiers = slices.Insert(n.qualifiers, at, qual)
	default:
		n.qualifiers = append(n.qualifiers, qual)
	}
	return nil
}

// RemoveQualifier detaches qual and updates the qualifier flags.
func (n *Node) RemoveQualifier(qual *Node) {
	i := slices.Index(n.qualifiers, qual)
	if i < 0 {
		return
	}
	if qual.isLanguageNode() {
		n.Options &^= HasLanguage
	} else if qual.isTypeNode() {
		n.Options &^= HasType
	}
	n.qualifiers = slices.Delete(n.qualifiers, i, i+1)
	if len(n.qualifiers) == 0 {
		n.Options &^= HasQualifiers
		n.qualifiers = nil
	}
}

// RemoveQualifiers drops every qualifier.
func (n *Node) RemoveQualifiers() {
	n.Options &^= HasQualifiers | HasLanguage | HasType
	n.qualifiers = nil
}

// FindChildByName returns the first child named name.
func (n *Node) FindChildByName(name string) *Node {
	return find(n.children, name)
}

// FindQualifierByName returns the qualifier named name.
func (n *Node) FindQualifierByName(name string) *Node {
	return find(n.qualifiers, name)
}

func find(list []*Node, name string) *Node {
	for _, c := range list {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *Node) assertChildNotExisting(name string) error {
	if name != ArrayItemName && n.FindChildByName(name) != nil {
		return Errorf(KindBadXMP, "duplicate property or field node '%s'", name)
	}
	return nil
}

func (n *Node) assertQualifierNotExisting(name string) error {
	if name != ArrayItemName && n.FindQualifierByName(name) != nil {
		return Errorf(KindBadXMP, "duplicate '%s' qualifier", name)
	}
	return nil
}

func (n *Node) isLanguageNode() bool { return n.Name == XMLLang }
func (n *Node) isTypeNode() bool { return n.Name == RDFType }

// Clone deep-copies the subtree rooted at n. The copy is detached.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:          n.Name,
		Value:         n.Value,
		Options:       n.Options,
		implicit:      n.implicit,
		hasAliases:    n.hasAliases,
		alias:         n.alias,
		hasValueChild: n.hasValueChild,
	}
	for _, child := range n.children {
		cc := child.Clone()
		cc.parent = c
		c.children = append(c.children, cc)
	}
	for _, qual := range n.qualifiers {
		qc := qual.Clone()
		qc.parent = c
		c.qualifiers = append(c.qualifiers, qc)
	}
	return c
}

// Sort orders the subtree: qualifiers by name (xml:lang and rdf:type stay
// in front), schemas by prefix and other children by name unless n is an
// array.
func (n *Node) Sort() {
	if len(n.qualifiers) > 0 {
		fixed := 0
		for fixed < len(n.qualifiers) &&
			(n.qualifiers[fixed].isLanguageNode() || n.qualifiers[fixed].isTypeNode()) {
			fixed++
		}
		rest := n.qualifiers[fixed:]
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].Name < rest[j].Name })
		for _, q := range n.qualifiers {
			q.Sort()
		}
	}
	if len(n.children) > 0 {
		if !n.Options.IsArray() {
			sort.SliceStable(n.children, func(i, j int) bool { return n.children[i].sortKey() < n.children[j].sortKey() })
		}
		for _, c := range n.children {
			c.Sort()
		}
	}
}

// sortKey orders schemas by prefix and everything else by name.
func (n *Node) sortKey() string {
	if n.Options.IsSchemaNode() {
		return n.Value
	}
	return n.Name
}

// Dump writes a human readable description of the subtree.
func (n *Node) Dump(recursive bool) string {
	var b strings.Builder
	n.dump(&b, recursive, 0, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, recursive bool, indent, index int) {
	b.WriteString(strings.Repeat("\t", indent))
	switch {
	case n.parent != nil && n.Options.IsQualifier():
		b.WriteString("?")
		b.WriteString(n.Name)
	case n.parent != nil && n.parent.Options.IsArray():
		fmt.Fprintf(b, "[%d]", index)
	default:
		b.WriteString(n.Name)
	}
	if n.Value != "" {
		fmt.Fprintf(b, "  = %q", n.Value)
	}
	if n.Options != 0 {
		fmt.Fprintf(b, "\t(%s)", n.Options)
	}
	b.WriteString("\n")
	if !recursive {
		return
	}
	for i, q := range n.qualifiers {
		q.dump(b, recursive, indent+2, i+1)
	}
	for i, c := range n.children {
		c.dump(b, recursive, indent+1, i+1)
	}
}
