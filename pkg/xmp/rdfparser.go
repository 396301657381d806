package xmp

import (
	"github.com/aleksaelezovic/xmpkit/internal/dom"
)

// rdfTerm classifies RDF names in the syntax productions.
type rdfTerm int

const (
	termOther rdfTerm = iota
	termRDF
	termID
	termAbout
	termParseType
	termResource
	termNodeID
	termDatatype
	termDescription
	termLi
	termAboutEach
	termAboutEachPrefix
	termBagID
)

const (
	defaultPrefix  = "_dflt"
	nsDCDeprecated = "http://purl.org/dc/1.1/"
)

func (t rdfTerm) isCoreSyntax() bool { return termRDF <= t && t <= termDatatype }
func (t rdfTerm) isOld() bool        { return termAboutEach <= t && t <= termBagID }

func (t rdfTerm) isPropertyElementName() bool {
	if t == termDescription || t.isOld() {
		return false
	}
	return !t.isCoreSyntax()
}

// rdfTermKind maps a namespace and local name to its RDF term.
// Unqualified about and ID attributes on RDF elements count as RDF terms.
func rdfTermKind(space, local string, ownerSpace string, isAttr bool) rdfTerm {
	if space == "" && isAttr && (local == "about" || local == "ID") && ownerSpace == NsRDF {
		space = NsRDF
	}
	if space != NsRDF {
		return termOther
	}
	switch local {
	case "li":
		return termLi
	case "parseType":
		return termParseType
	case "Description":
		return termDescription
	case "about":
		return termAbout
	case "resource":
		return termResource
	case "RDF":
		return termRDF
	case "ID":
		return termID
	case "nodeID":
		return termNodeID
	case "datatype":
		return termDatatype
	case "aboutEach":
		return termAboutEach
	case "aboutEachPrefix":
		return termAboutEachPrefix
	case "bagID":
		return termBagID
	}
	return termOther
}

// rdfParser builds a raw property tree from an rdf:RDF element.
type rdfParser struct {
	reg  *Registry
	doc  *dom.Document
	root *Node
}

func parseRDF(reg *Registry, doc *dom.Document, rdfNode dom.NodeID) (*Node, error) {
	p := &rdfParser{reg: reg, doc: doc, root: NewNode("", "", NoOptions)}
	if len(doc.Attrs(rdfNode)) == 0 {
		return nil, Errorf(KindBadRDF, "invalid attributes of rdf:RDF element")
	}
	for _, child := range doc.Children(rdfNode) {
		if p.skippable(child) {
			continue
		}
		if err := p.nodeElement(p.root, child, true); err != nil {
			return nil, err
		}
	}
	return p.root, nil
}

// skippable reports whitespace text, comments and processing instructions.
func (p *rdfParser) skippable(id dom.NodeID) bool {
	switch p.doc.Kind(id) {
	case dom.TextNode:
		return p.doc.IsWhitespace(id)
	case dom.CommentNode, dom.ProcInstNode:
		return true
	}
	return false
}

func (p *rdfParser) elementTerm(id dom.NodeID) rdfTerm {
	return rdfTermKind(p.doc.NamespaceURI(id), p.doc.LocalName(id), "", false)
}

func (p *rdfParser) attrTerm(owner dom.NodeID, a dom.Attr) rdfTerm {
	return rdfTermKind(a.Space, a.Local, p.doc.NamespaceURI(owner), true)
}

// attrs returns the element's attributes without namespace declarations.
func (p *rdfParser) attrs(id dom.NodeID) []dom.Attr {
	all := p.doc.Attrs(id)
	result := make([]dom.Attr, 0, len(all))
	for _, a := range all {
		if !a.IsNamespaceDecl() {
			result = append(result, a)
		}
	}
	return result
}

func isXMLLang(a dom.Attr) bool { return a.Space == NsXML && a.Local == "lang" }

func (p *rdfParser) nodeElement(xmpParent *Node, id dom.NodeID, isTopLevel bool) error {
	if p.doc.Kind(id) != dom.ElementNode {
		return Errorf(KindBadRDF, "node element must be rdf:Description or typed node")
	}
	term := p.elementTerm(id)
	if term != termDescription && term != termOther {
		return Errorf(KindBadRDF, "node element must be rdf:Description or typed node")
	}
	if isTopLevel && term == termOther {
		return Errorf(KindBadXMP, "top level typed node not allowed")
	}
	if err := p.nodeElementAttrs(xmpParent, id, isTopLevel); err != nil {
		return err
	}
	return p.propertyElementList(xmpParent, id, isTopLevel)
}

func (p *rdfParser) nodeElementAttrs(xmpParent *Node, id dom.NodeID, isTopLevel bool) error {
	exclusive := 0
	for _, a := range p.attrs(id) {
		switch term := p.attrTerm(id, a); term {
		case termID, termNodeID, termAbout:
			if exclusive > 0 {
				return Errorf(KindBadRDF, "mutually exclusive about, ID, nodeID attributes")
			}
			exclusive++
			if isTopLevel && term == termAbout {
				if xmpParent.Name != "" {
					if xmpParent.Name != a.Value {
						return Errorf(KindBadXMP, "mismatched top level rdf:about values")
					}
				} else {
					xmpParent.Name = a.Value
				}
			}
		case termOther:
			if _, err := p.addChildNode(xmpParent, a.Space, a.Prefix, a.Local, a.Value, isTopLevel); err != nil {
				return err
			}
		default:
			return Errorf(KindBadRDF, "invalid nodeElement attribute")
		}
	}
	return nil
}

func (p *rdfParser) propertyElementList(xmpParent *Node, id dom.NodeID, isTopLevel bool) error {
	for _, child := range p.doc.Children(id) {
		if p.skippable(child) {
			continue
		}
		if p.doc.Kind(child) != dom.ElementNode {
			return Errorf(KindBadRDF, "expected property element node not found")
		}
		if err := p.propertyElement(xmpParent, child, isTopLevel); err != nil {
			return err
		}
	}
	return nil
}

func (p *rdfParser) propertyElement(xmpParent *Node, id dom.NodeID, isTopLevel bool) error {
	if !p.elementTerm(id).isPropertyElementName() {
		return Errorf(KindBadRDF, "invalid property element name")
	}

	attrs := p.attrs(id)
	if len(attrs) > 3 {
		return p.emptyPropertyElement(xmpParent, id, isTopLevel)
	}

	for _, a := range attrs {
		if isXMLLang(a) || (a.Space == NsRDF && a.Local == "ID") {
			continue
		}
		switch {
		case a.Space == NsRDF && a.Local == "datatype":
			return p.literalPropertyElement(xmpParent, id, isTopLevel)
		case !(a.Space == NsRDF && a.Local == "parseType"):
			return p.emptyPropertyElement(xmpParent, id, isTopLevel)
		case a.Value == "Literal":
			return Errorf(KindBadXMP, "ParseTypeLiteral property element not allowed")
		case a.Value == "Resource":
			return p.parseTypeResourcePropertyElement(xmpParent, id, isTopLevel)
		case a.Value == "Collection":
			return Errorf(KindBadXMP, "ParseTypeCollection property element not allowed")
		default:
			return Errorf(KindBadXMP, "ParseTypeOther property element not allowed")
		}
	}

	children := p.doc.Children(id)
	if len(children) == 0 {
		return p.emptyPropertyElement(xmpParent, id, isTopLevel)
	}
	for _, child := range children {
		if k := p.doc.Kind(child); k != dom.TextNode && k != dom.CommentNode {
			return p.resourcePropertyElement(xmpParent, id, isTopLevel)
		}
	}
	return p.literalPropertyElement(xmpParent, id, isTopLevel)
}

func (p *rdfParser) resourcePropertyElement(xmpParent *Node, id dom.NodeID, isTopLevel bool) error {
	if isTopLevel && p.doc.NamespaceURI(id) == NsIX && p.doc.LocalName(id) == "changes" {
		// Old "punchcard" chaff, dropped.
		return nil
	}

	compound, err := p.addElementNode(xmpParent, id, "", isTopLevel)
	if err != nil {
		return err
	}
	for _, a := range p.attrs(id) {
		switch {
		case isXMLLang(a):
			if err := addQualifierNode(compound, XMLLang, a.Value); err != nil {
				return err
			}
		case a.Space == NsRDF && a.Local == "ID":
		default:
			return Errorf(KindBadRDF, "invalid attribute for resource property element")
		}
	}

	found := false
	for _, child := range p.doc.Children(id) {
		if p.skippable(child) {
			continue
		}
		if p.doc.Kind(child) != dom.ElementNode || found {
			if found {
				return Errorf(KindBadRDF, "invalid child of resource property element")
			}
			return Errorf(KindBadRDF, "children of resource property element must be XML")
		}

		space, local := p.doc.NamespaceURI(child), p.doc.LocalName(child)
		isRDF := space == NsRDF
		switch {
		case isRDF && local == "Bag":
			compound.Options |= ValueIsArray
		case isRDF && local == "Seq":
			compound.Options |= ValueIsArray | ArrayIsOrdered
		case isRDF && local == "Alt":
			compound.Options |= ValueIsArray | ArrayIsOrdered | ArrayIsAlternate
		default:
			compound.Options |= ValueIsStruct
			if !isRDF && local != "Description" {
				if space == "" {
					return Errorf(KindBadXMP, "all XML elements must be in a namespace")
				}
				if err := addQualifierNode(compound, RDFType, space+":"+local); err != nil {
					return err
				}
			}
		}

		if err := p.nodeElement(compound, child, false); err != nil {
			return err
		}
		if compound.hasValueChild {
			if err := fixupQualifiedNode(compound); err != nil {
				return err
			}
		} else if compound.Options.IsAlternate() {
			detectAltText(compound)
		}
		found = true
	}
	if !found {
		return Errorf(KindBadRDF, "missing child of resource property element")
	}
	return nil
}

func (p *rdfParser) literalPropertyElement(xmpParent *Node, id dom.NodeID, isTopLevel bool) error {
	child, err := p.addElementNode(xmpParent, id, "", isTopLevel)
	if err != nil {
		return err
	}
	for _, a := range p.attrs(id) {
		switch {
		case isXMLLang(a):
			if err := addQualifierNode(child, XMLLang, a.Value); err != nil {
				return err
			}
		case a.Space == NsRDF && (a.Local == "ID" || a.Local == "datatype"):
		default:
			return Errorf(KindBadRDF, "invalid attribute for literal property element")
		}
	}
	var text string
	for _, c := range p.doc.Children(id) {
		switch p.doc.Kind(c) {
		case dom.TextNode:
			text += p.doc.Text(c)
		case dom.CommentNode:
		default:
			return Errorf(KindBadRDF, "invalid child of literal property element")
		}
	}
	child.Value = text
	return nil
}

func (p *rdfParser) parseTypeResourcePropertyElement(xmpParent *Node, id dom.NodeID, isTopLevel bool) error {
	st, err := p.addElementNode(xmpParent, id, "", isTopLevel)
	if err != nil {
		return err
	}
	st.Options |= ValueIsStruct
	for _, a := range p.attrs(id) {
		switch {
		case isXMLLang(a):
			if err := addQualifierNode(st, XMLLang, a.Value); err != nil {
				return err
			}
		case a.Space == NsRDF && (a.Local == "ID" || a.Local == "parseType"):
		default:
			return Errorf(KindBadRDF, "invalid attribute for ParseTypeResource property element")
		}
	}
	if err := p.propertyElementList(st, id, false); err != nil {
		return err
	}
	if st.hasValueChild {
		return fixupQualifiedNode(st)
	}
	return nil
}

func (p *rdfParser) emptyPropertyElement(xmpParent *Node, id dom.NodeID, isTopLevel bool) error {
	for _, c := range p.doc.Children(id) {
		if p.doc.Kind(c) != dom.CommentNode {
			return Errorf(KindBadRDF, "nested content not allowed with rdf:resource or property attributes")
		}
	}

	var (
		hasPropertyAttrs bool
		hasResourceAttr  bool
		hasNodeIDAttr    bool
		hasValueAttr     bool
		valueAttr        = -1
	)
	attrs := p.attrs(id)
	for i, a := range attrs {
		switch p.attrTerm(id, a) {
		case termID:
		case termResource:
			if hasNodeIDAttr {
				return Errorf(KindBadRDF, "empty property element can't have both rdf:resource and rdf:nodeID")
			}
			if hasValueAttr {
				return Errorf(KindBadXMP, "empty property element can't have both rdf:value and rdf:resource")
			}
			hasResourceAttr = true
			valueAttr = i
		case termNodeID:
			if hasResourceAttr {
				return Errorf(KindBadRDF, "empty property element can't have both rdf:resource and rdf:nodeID")
			}
			hasNodeIDAttr = true
		case termOther:
			switch {
			case a.Space == NsRDF && a.Local == "value":
				if hasResourceAttr {
					return Errorf(KindBadXMP, "empty property element can't have both rdf:value and rdf:resource")
				}
				hasValueAttr = true
				valueAttr = i
			case !isXMLLang(a):
				hasPropertyAttrs = true
			}
		default:
			return Errorf(KindBadRDF, "unrecognized attribute of empty property element")
		}
	}

	child, err := p.addElementNode(xmpParent, id, "", isTopLevel)
	if err != nil {
		return err
	}
	childIsStruct := false
	switch {
	case hasValueAttr || hasResourceAttr:
		if valueAttr >= 0 {
			child.Value = attrs[valueAttr].Value
		}
		if !hasValueAttr {
			child.Options |= ValueIsURI
		}
	case hasPropertyAttrs:
		child.Options |= ValueIsStruct
		childIsStruct = true
	}

	for i, a := range attrs {
		if i == valueAttr {
			continue
		}
		switch p.attrTerm(id, a) {
		case termID, termNodeID:
		case termResource:
			if err := addQualifierNode(child, "rdf:resource", a.Value); err != nil {
				return err
			}
		case termOther:
			switch {
			case !childIsStruct:
				name, err := p.qualifiedName(a.Space, a.Prefix, a.Local)
				if err != nil {
					return err
				}
				if err := addQualifierNode(child, name, a.Value); err != nil {
					return err
				}
			case isXMLLang(a):
				if err := addQualifierNode(child, XMLLang, a.Value); err != nil {
					return err
				}
			default:
				if _, err := p.addChildNode(child, a.Space, a.Prefix, a.Local, a.Value, false); err != nil {
					return err
				}
			}
		default:
			return Errorf(KindBadRDF, "unrecognized attribute of empty property element")
		}
	}
	return nil
}

// qualifiedName maps a namespace to its registered prefix, registering the
// document's prefix for unknown namespaces.
func (p *rdfParser) qualifiedName(space, docPrefix, local string) (string, error) {
	if space == "" {
		return "", Errorf(KindBadRDF, "XML namespace required for all elements and attributes")
	}
	if space == nsDCDeprecated {
		space = NsDC
	}
	prefix, ok := p.reg.Prefix(space)
	if !ok {
		if docPrefix == "" {
			docPrefix = defaultPrefix
		}
		var err error
		if prefix, err = p.reg.RegisterNamespace(space, docPrefix); err != nil {
			return "", err
		}
	}
	return prefix + ":" + local, nil
}

func (p *rdfParser) addElementNode(xmpParent *Node, id dom.NodeID, value string, isTopLevel bool) (*Node, error) {
	return p.addChildNode(xmpParent, p.doc.NamespaceURI(id), p.doc.Prefix(id), p.doc.LocalName(id), value, isTopLevel)
}

func (p *rdfParser) addChildNode(xmpParent *Node, space, docPrefix, local, value string, isTopLevel bool) (*Node, error) {
	childName, err := p.qualifiedName(space, docPrefix, local)
	if err != nil {
		return nil, err
	}
	if space == nsDCDeprecated {
		space = NsDC
	}

	isAlias := false
	if isTopLevel {
		schema, err := findSchemaNode(p.reg, p.root, space, defaultPrefix, true)
		if err != nil {
			return nil, err
		}
		schema.implicit = false
		xmpParent = schema
		if _, ok := p.reg.FindAlias(childName); ok {
			isAlias = true
			p.root.hasAliases = true
			schema.hasAliases = true
		}
	}

	isArrayItem := childName == "rdf:li"
	isValueNode := childName == "rdf:value"
	if isArrayItem {
		if !xmpParent.Options.IsArray() {
			return nil, Errorf(KindBadRDF, "misplaced rdf:li element")
		}
		childName = ArrayItemName
	}
	if isValueNode && (isTopLevel || !xmpParent.Options.IsStruct()) {
		return nil, Errorf(KindBadRDF, "misplaced rdf:value element")
	}

	child := NewNode(childName, value, NoOptions)
	child.alias = isAlias
	if isValueNode {
		err = xmpParent.InsertChild(1, child)
		xmpParent.hasValueChild = true
	} else {
		err = xmpParent.AddChild(child)
	}
	if err != nil {
		return nil, err
	}
	return child, nil
}

func addQualifierNode(xmpParent *Node, name, value string) error {
	if name == XMLLang {
		value = NormalizeLangValue(value)
	}
	return xmpParent.AddQualifier(NewNode(name, value, NoOptions))
}

// fixupQualifiedNode collapses a struct whose first child is rdf:value
// into a qualified simple property.
func fixupQualifiedNode(xmpParent *Node) error {
	valueNode := xmpParent.Child(1)

	if valueNode.Options.HasLanguage() {
		if xmpParent.Options.HasLanguage() {
			return Errorf(KindBadXMP, "redundant xml:lang for rdf:value element")
		}
		lang := valueNode.Qualifier(1)
		valueNode.RemoveQualifier(lang)
		if err := xmpParent.AddQualifier(lang); err != nil {
			return err
		}
	}
	for _, q := range valueNode.qualifiers {
		if err := xmpParent.AddQualifier(q); err != nil {
			return err
		}
	}
	for _, c := range xmpParent.children[1:] {
		if err := xmpParent.AddQualifier(c); err != nil {
			return err
		}
	}

	xmpParent.hasValueChild = false
	xmpParent.Options &^= ValueIsStruct
	xmpParent.Options |= valueNode.Options &^ IsQualifier
	xmpParent.Value = valueNode.Value
	xmpParent.RemoveChildren()
	for _, c := range valueNode.children {
		if err := xmpParent.AddChild(c); err != nil {
			return err
		}
	}
	return nil
}
