package xmp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func qualifierNames(n *Node) []string {
	var names []string
	for _, q := range n.Qualifiers() {
		names = append(names, q.Name)
	}
	return names
}

func childNames(n *Node) []string {
	var names []string
	for _, c := range n.Children() {
		names = append(names, c.Name)
	}
	return names
}

func TestNode_AddQualifier(t *testing.T) {
	n := NewNode("dc:source", "x", NoOptions)
	for _, name := range []string{"xmpidq:Scheme", RDFType, XMLLang} {
		if err := n.AddQualifier(NewNode(name, "v", NoOptions)); err != nil {
			t.Fatalf("AddQualifier(%s) failed: %v", name, err)
		}
	}

	if diff := cmp.Diff([]string{XMLLang, RDFType, "xmpidq:Scheme"}, qualifierNames(n)); diff != "" {
		t.Errorf("Qualifier order mismatch (-want +got):\n%s", diff)
	}
	if !n.Options.HasQualifiers() || !n.Options.HasLanguage() || !n.Options.HasType() {
		t.Errorf("Expected qualifier flags, got %v", n.Options)
	}
	if !n.Qualifier(1).Options.IsQualifier() || n.Qualifier(1).Parent() != n {
		t.Error("Expected attached qualifier node")
	}
	if err := n.AddQualifier(NewNode(XMLLang, "en", NoOptions)); KindOf(err) != KindBadXMP {
		t.Errorf("Expected BADXMP for duplicate qualifier, got %v", err)
	}

	n.RemoveQualifier(n.FindQualifierByName(XMLLang))
	if n.Options.HasLanguage() {
		t.Error("Expected HasLanguage to be cleared")
	}
	n.RemoveQualifiers()
	if n.HasQualifier() || n.Options.HasQualifiers() || n.Options.HasType() {
		t.Errorf("Expected no qualifiers, got %v", n.Options)
	}
}

func TestNode_Children(t *testing.T) {
	array := NewNode("dc:subject", "", ValueIsArray)
	for _, v := range []string{"a", "c"} {
		if err := array.AddChild(NewNode(ArrayItemName, v, NoOptions)); err != nil {
			t.Fatal(err)
		}
	}
	if err := array.InsertChild(2, NewNode(ArrayItemName, "b", NoOptions)); err != nil {
		t.Fatal(err)
	}
	if got := array.Child(2).Value; got != "b" {
		t.Errorf("Expected inserted item at 2, got %q", got)
	}
	array.RemoveChildAt(1)
	if array.ChildrenLen() != 2 || array.Child(1).Value != "b" {
		t.Errorf("Unexpected children after removal:\n%s", array.Dump(true))
	}

	schema := NewNode(NsXMP, "xmp", SchemaNode)
	if err := schema.AddChild(NewNode("xmp:Label", "", NoOptions)); err != nil {
		t.Fatal(err)
	}
	if err := schema.AddChild(NewNode("xmp:Label", "", NoOptions)); KindOf(err) != KindBadXMP {
		t.Errorf("Expected BADXMP for duplicate child, got %v", err)
	}
	schema.RemoveChild(schema.Child(1))
	if schema.HasChildren() {
		t.Error("Expected no children")
	}
}

func TestNode_Sort(t *testing.T) {
	schema := NewNode(NsXMP, "xmp", SchemaNode)
	for _, name := range []string{"xmp:Rating", "xmp:Label"} {
		if err := schema.AddChild(NewNode(name, "", NoOptions)); err != nil {
			t.Fatal(err)
		}
	}
	array := NewNode("xmp:Identifier", "", ValueIsArray)
	for _, v := range []string{"z", "a"} {
		if err := array.AddChild(NewNode(ArrayItemName, v, NoOptions)); err != nil {
			t.Fatal(err)
		}
	}
	if err := schema.AddChild(array); err != nil {
		t.Fatal(err)
	}
	label := schema.FindChildByName("xmp:Label")
	for _, name := range []string{"ns:z", "ns:a", XMLLang} {
		if err := label.AddQualifier(NewNode(name, "v", NoOptions)); err != nil {
			t.Fatal(err)
		}
	}

	schema.Sort()
	if diff := cmp.Diff([]string{"xmp:Identifier", "xmp:Label", "xmp:Rating"}, childNames(schema)); diff != "" {
		t.Errorf("Child order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{XMLLang, "ns:a", "ns:z"}, qualifierNames(label)); diff != "" {
		t.Errorf("Qualifier order mismatch (-want +got):\n%s", diff)
	}
	if array.Child(1).Value != "z" {
		t.Error("Array items must keep their order")
	}
}

func TestNode_Clone(t *testing.T) {
	orig := NewNode("dc:title", "", aliasToAltText)
	item := NewNode(ArrayItemName, "T", NoOptions)
	if err := item.AddQualifier(NewNode(XMLLang, XDefault, NoOptions)); err != nil {
		t.Fatal(err)
	}
	if err := orig.AddChild(item); err != nil {
		t.Fatal(err)
	}

	c := orig.Clone()
	if c.Parent() != nil {
		t.Error("Expected detached clone")
	}
	if c.Child(1).Parent() != c || c.Child(1).Qualifier(1).Parent() != c.Child(1) {
		t.Error("Expected clone to be linked internally")
	}
	if c.Dump(true) != orig.Dump(true) {
		t.Errorf("Clone differs:\n%s\n%s", orig.Dump(true), c.Dump(true))
	}

	c.Child(1).Value = "changed"
	if orig.Child(1).Value != "T" {
		t.Error("Clone must not share nodes with the original")
	}
}
