package xmp

import (
	"strconv"
	"strings"
)

// IterOptions controls what an Iterator reports.
type IterOptions struct {
	// JustLeafNodes reports only nodes without children.
	JustLeafNodes bool
	// JustLeafName reports the last path step instead of the full path.
	JustLeafName bool
	// OmitQualifiers skips qualifiers entirely.
	OmitQualifiers bool
}

// PropertyInfo describes one node reported by an Iterator.
type PropertyInfo struct {
	Namespace string
	// Path is empty for schema nodes.
	Path    string
	Value   string
	Options PropertyOptions
	// Language is the xml:lang qualifier, if any.
	Language string
}

type iterState int

const (
	iterNode iterState = iota
	iterChildren
	iterQualifiers
	iterDone
)

type iterFrame struct {
	node  *Node
	path  string
	ns    string
	state iterState
	next  int
}

// Iterator walks a property tree depth first: a node, then its children,
// then its qualifiers. It is lazy and single-pass. The tree must not be
// modified while an Iterator is in use.
type Iterator struct {
	opts  IterOptions
	stack []*iterFrame
}

// Iterator returns an iterator over the whole tree (empty schemaNS), one
// schema (empty propPath) or the subtree of a single property. A start
// point that does not exist yields an empty iteration.
func (m *Meta) Iterator(schemaNS, propPath string, opts IterOptions) (*Iterator, error) {
	it := &Iterator{opts: opts}

	switch {
	case schemaNS != "" && propPath != "":
		path, err := ExpandPath(m.reg, schemaNS, propPath)
		if err != nil {
			return nil, err
		}
		start, err := findNode(m.reg, m.tree, path, false, NoOptions)
		if err != nil {
			return nil, err
		}
		if start != nil {
			base := path[:len(path)-1].String()
			it.push(start, it.accumulatePath(start, base), schemaNS)
		}
	case schemaNS != "":
		if schema := m.tree.FindChildByName(schemaNS); schema != nil {
			it.push(schema, "", schemaNS)
		}
	case propPath != "":
		return nil, Errorf(KindBadSchema, "property path requires a schema namespace")
	default:
		it.push(m.tree, "", "")
	}
	return it, nil
}

func (it *Iterator) push(n *Node, path, ns string) {
	if n.Options.IsSchemaNode() {
		ns = n.Name
	}
	it.stack = append(it.stack, &iterFrame{node: n, path: path, ns: ns})
}

// accumulatePath appends the step for n to parentPath. The root and schema
// nodes have no path of their own.
func (it *Iterator) accumulatePath(n *Node, parentPath string) string {
	parent := n.parent
	if parent == nil || n.Options.IsSchemaNode() {
		return ""
	}

	var sep, segment string
	switch {
	case n.Options.IsQualifier():
		sep, segment = "/", "?"+n.Name
	case parent.Options.IsArray():
		sep, segment = "", "["+strconv.Itoa(indexOf(parent.children, n))+"]"
	default:
		sep, segment = "/", n.Name
	}

	switch {
	case parentPath == "":
		return segment
	case it.opts.JustLeafName:
		return strings.TrimPrefix(segment, "?")
	default:
		return parentPath + sep + segment
	}
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i + 1
		}
	}
	return 0
}

func (it *Iterator) reportable(n *Node) bool {
	if n.parent == nil {
		return false
	}
	return !it.opts.JustLeafNodes || (!n.HasChildren() && !n.Options.IsCompositeProperty() && !n.Options.IsSchemaNode())
}

// Next returns the next node; ok is false once the walk is complete.
func (it *Iterator) Next() (info PropertyInfo, ok bool) {
	for len(it.stack) > 0 {
		f := it.stack[len(it.stack)-1]
		switch f.state {
		case iterNode:
			f.state = iterChildren
			if it.reportable(f.node) {
				return f.info(), true
			}
		case iterChildren:
			if f.next < len(f.node.children) {
				child := f.node.children[f.next]
				f.next++
				it.push(child, it.accumulatePath(child, f.path), f.ns)
				continue
			}
			f.state, f.next = iterQualifiers, 0
			if it.opts.OmitQualifiers {
				f.state = iterDone
			}
		case iterQualifiers:
			if f.next < len(f.node.qualifiers) {
				qual := f.node.qualifiers[f.next]
				f.next++
				it.push(qual, it.accumulatePath(qual, f.path), f.ns)
				continue
			}
			f.state = iterDone
		case iterDone:
			it.stack = it.stack[:len(it.stack)-1]
		}
	}
	return PropertyInfo{}, false
}

// SkipSubtree stops the walk from descending into the node returned last.
func (it *Iterator) SkipSubtree() {
	if len(it.stack) > 0 {
		it.stack[len(it.stack)-1].state = iterDone
	}
}

// SkipSiblings skips the subtree of the node returned last and the
// siblings that would follow it.
func (it *Iterator) SkipSiblings() {
	it.SkipSubtree()
	if len(it.stack) < 2 {
		return
	}
	current := it.stack[len(it.stack)-1].node
	parent := it.stack[len(it.stack)-2]
	switch {
	case parent.state == iterChildren && !current.Options.IsQualifier():
		parent.next = len(parent.node.children)
	case parent.state == iterQualifiers:
		parent.next = len(parent.node.qualifiers)
	}
}

func (f *iterFrame) info() PropertyInfo {
	n := f.node
	info := PropertyInfo{Namespace: f.ns, Path: f.path, Options: n.Options}
	if !n.Options.IsSchemaNode() {
		info.Value = n.Value
	}
	if n.HasQualifier() && n.Qualifier(1).isLanguageNode() {
		info.Language = n.Qualifier(1).Value
	}
	return info
}
