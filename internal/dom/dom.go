// Package dom builds a small namespace-aware document tree on top of
// encoding/xml. Nodes live in a flat arena and are addressed by NodeID.
// Unlike encoding/xml's resolved names, the tree keeps the prefix each
// element and attribute was written with.
package dom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nsXML   = "http://www.w3.org/XML/1998/namespace"
	nsXMLNS = "http://www.w3.org/2000/xmlns/"
)

// Kind classifies nodes.
type Kind uint8

const (
	DocumentNode Kind = iota
	ElementNode
	TextNode
	ProcInstNode
	CommentNode
)

func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case ProcInstNode:
		return "procinst"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

// NodeID addresses a node in a Document.
type NodeID int32

// InvalidNode is returned where no node exists.
const InvalidNode NodeID = -1

// Attr is a namespace-resolved attribute.
type Attr struct {
	Space  string
	Prefix string
	Local  string
	Value  string
}

// QName returns prefix:local, or local when there is no prefix.
func (a Attr) QName() string {
	if a.Prefix == "" {
		return a.Local
	}
	return a.Prefix + ":" + a.Local
}

// IsNamespaceDecl reports whether the attribute is an xmlns declaration.
func (a Attr) IsNamespaceDecl() bool {
	return a.Space == nsXMLNS
}

type node struct {
	kind     Kind
	space    string
	prefix   string
	local    string
	text     string
	parent   NodeID
	attrs    []Attr
	children []NodeID
}

// Document is a parsed XML document. Node 0 is the document node.
type Document struct {
	nodes []node
}

// Root returns the document node.
func (d *Document) Root() NodeID { return 0 }

func (d *Document) valid(id NodeID) bool {
	return d != nil && id >= 0 && int(id) < len(d.nodes)
}

func (d *Document) Kind(id NodeID) Kind {
	if !d.valid(id) {
		return DocumentNode
	}
	return d.nodes[id].kind
}

// NamespaceURI returns the element's namespace URI.
func (d *Document) NamespaceURI(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].space
}

func (d *Document) Prefix(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].prefix
}

func (d *Document) LocalName(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].local
}

// QName returns prefix:local of an element.
func (d *Document) QName(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	n := &d.nodes[id]
	if n.prefix == "" {
		return n.local
	}
	return n.prefix + ":" + n.local
}

// Text returns the content of a text, comment or processing instruction
// node. For processing instructions LocalName holds the target.
func (d *Document) Text(id NodeID) string {
	if !d.valid(id) {
		return ""
	}
	return d.nodes[id].text
}

// Attrs returns the attributes of an element, xmlns declarations included.
func (d *Document) Attrs(id NodeID) []Attr {
	if !d.valid(id) {
		return nil
	}
	return d.nodes[id].attrs
}

// Attr looks up an attribute by namespace and local name.
func (d *Document) Attr(id NodeID, space, local string) (string, bool) {
	for _, a := range d.Attrs(id) {
		if a.Space == space && a.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func (d *Document) Children(id NodeID) []NodeID {
	if !d.valid(id) {
		return nil
	}
	return d.nodes[id].children
}

func (d *Document) Parent(id NodeID) NodeID {
	if !d.valid(id) {
		return InvalidNode
	}
	return d.nodes[id].parent
}

// IsWhitespace reports whether a text node holds only XML whitespace.
func (d *Document) IsWhitespace(id NodeID) bool {
	return strings.Trim(d.Text(id), " \t\n\r") == ""
}

// ErrMultipleRoots is returned for documents with more than one top element.
var ErrMultipleRoots = errors.New("multiple root elements")

// Parse reads a complete UTF-8 document. An encoding declared in the XML
// declaration is ignored; callers convert the input beforehand.
func Parse(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	doc := &Document{nodes: []node{{kind: DocumentNode, parent: InvalidNode}}}
	scopes := []map[string]string{{"xml": nsXML}}
	stack := []NodeID{0}
	sawRoot := false

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		top := stack[len(stack)-1]

		switch t := tok.(type) {
		case xml.StartElement:
			if top == 0 {
				if sawRoot {
					return nil, ErrMultipleRoots
				}
				sawRoot = true
			}
			scope := make(map[string]string)
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					scope[a.Name.Local] = a.Value
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					scope[""] = a.Value
				}
			}
			scopes = append(scopes, scope)

			space, err := resolve(scopes, t.Name.Space, true)
			if err != nil {
				return nil, err
			}
			n := node{
				kind:   ElementNode,
				space:  space,
				prefix: t.Name.Space,
				local:  t.Name.Local,
				parent: top,
			}
			for _, a := range t.Attr {
				attr := Attr{Prefix: a.Name.Space, Local: a.Name.Local, Value: a.Value}
				switch {
				case a.Name.Space == "xmlns", a.Name.Space == "" && a.Name.Local == "xmlns":
					attr.Space = nsXMLNS
				case a.Name.Space != "":
					if attr.Space, err = resolve(scopes, a.Name.Space, false); err != nil {
						return nil, err
					}
				}
				n.attrs = append(n.attrs, attr)
			}
			id := doc.add(n)
			stack = append(stack, id)

		case xml.EndElement:
			if top == 0 {
				return nil, fmt.Errorf("unexpected end element </%s>", t.Name.Local)
			}
			open := &doc.nodes[top]
			if open.prefix != t.Name.Space || open.local != t.Name.Local {
				return nil, fmt.Errorf("element <%s> closed by </%s>", doc.QName(top), qname(t.Name))
			}
			stack = stack[:len(stack)-1]
			scopes = scopes[:len(scopes)-1]

		case xml.CharData:
			if top == 0 {
				if len(bytes.Trim(t, " \t\r\n")) != 0 {
					return nil, fmt.Errorf("text outside of the root element")
				}
				continue
			}
			parent := &doc.nodes[top]
			if k := len(parent.children); k > 0 && doc.nodes[parent.children[k-1]].kind == TextNode {
				doc.nodes[parent.children[k-1]].text += string(t)
				continue
			}
			doc.add(node{kind: TextNode, text: string(t), parent: top})

		case xml.ProcInst:
			if t.Target == "xml" {
				continue
			}
			doc.add(node{kind: ProcInstNode, local: t.Target, text: string(t.Inst), parent: top})

		case xml.Comment:
			doc.add(node{kind: CommentNode, text: string(t), parent: top})

		case xml.Directive:
			// DOCTYPE and friends carry nothing the tree needs.
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("unexpected end of document inside <%s>", doc.QName(stack[len(stack)-1]))
	}
	if !sawRoot {
		return nil, fmt.Errorf("document has no root element")
	}
	return doc, nil
}

func (d *Document) add(n node) NodeID {
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, n)
	if n.parent != InvalidNode {
		d.nodes[n.parent].children = append(d.nodes[n.parent].children, id)
	}
	return id
}

func resolve(scopes []map[string]string, prefix string, useDefault bool) (string, error) {
	if prefix == "" && !useDefault {
		return "", nil
	}
	for i := len(scopes) - 1; i >= 0; i-- {
		if uri, ok := scopes[i][prefix]; ok {
			return uri, nil
		}
	}
	if prefix == "" {
		return "", nil
	}
	return "", fmt.Errorf("undeclared namespace prefix %q", prefix)
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
