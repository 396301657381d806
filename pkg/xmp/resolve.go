package xmp

import (
	"strconv"
	"strings"
)

// LocalizedMatch tells how chooseLocalizedText picked its item.
type LocalizedMatch int

const (
	MatchNoValues LocalizedMatch = iota
	MatchSpecific
	MatchSingleGeneric
	MatchMultipleGeneric
	MatchXDefault
	MatchFirstItem
)

// findSchemaNode returns the schema node for namespaceURI, creating it when
// createNodes is set. suggestedPrefix registers an unknown namespace.
func findSchemaNode(reg *Registry, tree *Node, namespaceURI, suggestedPrefix string, createNodes bool) (*Node, error) {
	schema := tree.FindChildByName(namespaceURI)
	if schema != nil || !createNodes {
		return schema, nil
	}
	prefix, ok := reg.Prefix(namespaceURI)
	if !ok {
		if suggestedPrefix == "" {
			return nil, Errorf(KindBadSchema, "unregistered schema namespace URI: %s", namespaceURI)
		}
		var err error
		if prefix, err = reg.RegisterNamespace(namespaceURI, suggestedPrefix); err != nil {
			return nil, err
		}
	}
	schema = NewNode(namespaceURI, prefix, SchemaNode)
	schema.implicit = true
	if err := tree.AddChild(schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// findChildNode returns the named child of parent, creating it when
// createNodes is set.
func findChildNode(parent *Node, childName string, createNodes bool) (*Node, error) {
	if !parent.Options.IsSchemaNode() && !parent.Options.IsStruct() {
		switch {
		case !parent.implicit:
			return nil, Errorf(KindBadXPath, "named children only allowed for schemas and structs")
		case parent.Options.IsArray():
			return nil, Errorf(KindBadXPath, "named children not allowed for arrays")
		case createNodes:
			parent.Options |= ValueIsStruct
		}
	}

	child := parent.FindChildByName(childName)
	if child == nil && createNodes {
		child = NewNode(childName, "", NoOptions)
		child.implicit = true
		if err := parent.AddChild(child); err != nil {
			return nil, err
		}
	}
	return child, nil
}

func findQualifierNode(parent *Node, qualName string, createNodes bool) (*Node, error) {
	qual := parent.FindQualifierByName(qualName)
	if qual == nil && createNodes {
		qual = NewNode(qualName, "", NoOptions)
		qual.implicit = true
		if err := parent.AddQualifier(qual); err != nil {
			return nil, err
		}
	}
	return qual, nil
}

// findNode resolves path against tree. With createNodes every missing node
// on the way is created; if the walk fails all nodes created by this call
// are removed again. leafOptions are merged into a newly created leaf.
func findNode(reg *Registry, tree *Node, path Path, createNodes bool, leafOptions PropertyOptions) (*Node, error) {
	if len(path) == 0 {
		return nil, Errorf(KindBadXPath, "empty XMPPath")
	}

	var rootImplicit *Node
	curr, err := findSchemaNode(reg, tree, path[0].Name, "", createNodes)
	if err != nil || curr == nil {
		return nil, err
	}
	if curr.implicit {
		curr.implicit = false
		rootImplicit = curr
	}

	for i := 1; i < len(path); i++ {
		curr, err = followPathStep(curr, path[i], createNodes)
		if err != nil {
			if rootImplicit != nil {
				deleteNode(rootImplicit)
			}
			return nil, err
		}
		if curr == nil {
			if createNodes && rootImplicit != nil {
				deleteNode(rootImplicit)
			}
			return nil, nil
		}
		if curr.implicit {
			curr.implicit = false
			if i == 1 && path[i].Alias && path[i].AliasForm != 0 {
				curr.Options |= path[i].AliasForm
			} else if i < len(path)-1 && path[i].Kind == StepStructField && !curr.Options.IsCompositeProperty() {
				curr.Options |= ValueIsStruct
			}
			if rootImplicit == nil {
				rootImplicit = curr
			}
		}
	}

	if rootImplicit != nil {
		opts, err := verifySetOptions(curr.Options|leafOptions, false)
		if err != nil {
			deleteNode(rootImplicit)
			return nil, err
		}
		curr.Options = opts
	}
	return curr, nil
}

func followPathStep(parent *Node, step Segment, createNodes bool) (*Node, error) {
	switch step.Kind {
	case StepStructField:
		return findChildNode(parent, step.Name, createNodes)
	case StepQualifier:
		return findQualifierNode(parent, step.Name[1:], createNodes)
	}

	if !parent.Options.IsArray() {
		return nil, Errorf(KindBadXPath, "indexing applied to non-array")
	}

	var index int
	var err error
	switch step.Kind {
	case StepArrayIndex:
		index, err = findIndexedItem(parent, step.Name, createNodes)
	case StepArrayLast:
		index = parent.ChildrenLen()
	case StepFieldSelector:
		name, value := splitNameAndValue(step.Name)
		index, err = lookupFieldSelector(parent, name, value)
	case StepQualSelector:
		name, value := splitNameAndValue(step.Name)
		index, err = lookupQualSelector(parent, name, value, step.AliasForm, createNodes)
	default:
		return nil, Errorf(KindInternalFailure, "unknown array indexing step")
	}
	if err != nil {
		return nil, err
	}
	if index >= 1 && index <= parent.ChildrenLen() {
		return parent.Child(index), nil
	}
	return nil, nil
}

func findIndexedItem(array *Node, segment string, createNodes bool) (int, error) {
	index, err := strconv.Atoi(segment[1 : len(segment)-1])
	if err != nil {
		return 0, Errorf(KindBadXPath, "array index not digits")
	}
	if index < 1 {
		return 0, Errorf(KindBadXPath, "array index must be larger than zero")
	}
	if createNodes && index == array.ChildrenLen()+1 {
		item := NewNode(ArrayItemName, "", NoOptions)
		item.implicit = true
		if err := array.AddChild(item); err != nil {
			return 0, err
		}
	}
	return index, nil
}

func lookupFieldSelector(array *Node, fieldName, fieldValue string) (int, error) {
	for i, item := range array.children {
		if !item.Options.IsStruct() {
			return 0, Errorf(KindBadXPath, "field selector must be used on array of struct")
		}
		for _, field := range item.children {
			if field.Name == fieldName && field.Value == fieldValue {
				return i + 1, nil
			}
		}
	}
	return -1, nil
}

func lookupQualSelector(array *Node, qualName, qualValue string, aliasForm PropertyOptions, createNodes bool) (int, error) {
	if qualName == XMLLang {
		qualValue = NormalizeLangValue(qualValue)
		index, err := lookupLanguageItem(array, qualValue)
		if err != nil {
			return 0, err
		}
		if index < 0 && createNodes && aliasForm.IsAltText() {
			item := NewNode(ArrayItemName, "", NoOptions)
			if err := item.AddQualifier(NewNode(XMLLang, XDefault, NoOptions)); err != nil {
				return 0, err
			}
			if err := array.InsertChild(1, item); err != nil {
				return 0, err
			}
			return 1, nil
		}
		return index, nil
	}

	for i, item := range array.children {
		for _, q := range item.qualifiers {
			if q.Name == qualName && q.Value == qualValue {
				return i + 1, nil
			}
		}
	}
	return -1, nil
}

func lookupLanguageItem(array *Node, language string) (int, error) {
	if !array.Options.IsArray() {
		return 0, Errorf(KindBadXPath, "language item must be used on array")
	}
	for i, item := range array.children {
		if !item.HasQualifier() || item.Qualifier(1).Name != XMLLang {
			continue
		}
		if item.Qualifier(1).Value == language {
			return i + 1, nil
		}
	}
	return -1, nil
}

// deleteNode detaches node and removes a schema node left empty.
func deleteNode(node *Node) {
	parent := node.parent
	if parent == nil {
		return
	}
	if node.Options.IsQualifier() {
		parent.RemoveQualifier(node)
	} else {
		parent.RemoveChild(node)
	}
	if !parent.HasChildren() && parent.Options.IsSchemaNode() && parent.parent != nil {
		parent.parent.RemoveChild(parent)
	}
}

// setNodeValue stores value, dropping characters XML cannot carry.
func setNodeValue(node *Node, value string) {
	node.Value = sanitizeValue(value)
}

func sanitizeValue(value string) string {
	if strings.IndexFunc(value, isInvalidXMLChar) < 0 {
		return value
	}
	return strings.Map(func(r rune) rune {
		if isInvalidXMLChar(r) {
			return ' '
		}
		return r
	}, value)
}

func isInvalidXMLChar(r rune) bool {
	return (r < 0x20 && r != '\t' && r != '\n' && r != '\r') || r == 0xFFFE || r == 0xFFFF
}

// NormalizeLangValue lower-cases a language tag except for a second
// subtag, which is upper-cased ("en-us" becomes "en-US"). Underscores
// become dashes and spaces are dropped.
func NormalizeLangValue(value string) string {
	if value == XDefault {
		return value
	}
	subTag := 1
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '-', '_':
			b.WriteByte('-')
			subTag++
		case ' ':
		default:
			if subTag != 2 {
				b.WriteString(strings.ToLower(string(r)))
			} else {
				b.WriteString(strings.ToUpper(string(r)))
			}
		}
	}
	return b.String()
}

// chooseLocalizedText selects the best item of an alt-text array for the
// given languages. Both languages must already be normalized.
func chooseLocalizedText(array *Node, genericLang, specificLang string) (LocalizedMatch, *Node, error) {
	if !array.Options.IsAltText() {
		return MatchNoValues, nil, Errorf(KindBadXPath, "localized text array is not alt-text")
	}
	if !array.HasChildren() {
		return MatchNoValues, nil, nil
	}

	genericMatches := 0
	var result, xDefault *Node
	for _, item := range array.children {
		if item.Options.IsCompositeProperty() {
			return MatchNoValues, nil, Errorf(KindBadXPath, "alt-text array item is not simple")
		}
		if item.QualifierLen() != 1 || item.Qualifier(1).Name != XMLLang {
			return MatchNoValues, nil, Errorf(KindBadXPath, "alt-text array item must have exactly one language qualifier")
		}
		lang := item.Qualifier(1).Value
		switch {
		case lang == specificLang:
			return MatchSpecific, item, nil
		case genericLang != "" && isGenericMatch(lang, genericLang):
			if result == nil {
				result = item
			}
			genericMatches++
		case lang == XDefault:
			xDefault = item
		}
	}

	switch {
	case genericMatches == 1:
		return MatchSingleGeneric, result, nil
	case genericMatches > 1:
		return MatchMultipleGeneric, result, nil
	case xDefault != nil:
		return MatchXDefault, xDefault, nil
	default:
		return MatchFirstItem, array.Child(1), nil
	}
}

func isGenericMatch(lang, generic string) bool {
	if !strings.HasPrefix(lang, generic) {
		return false
	}
	return len(lang) == len(generic) || lang[len(generic)] == '-'
}

// appendLangItem adds an alt-text item; an x-default item goes first.
func appendLangItem(array *Node, lang, value string) error {
	item := NewNode(ArrayItemName, value, NoOptions)
	if err := item.AddQualifier(NewNode(XMLLang, lang, NoOptions)); err != nil {
		return err
	}
	if lang == XDefault {
		return array.InsertChild(1, item)
	}
	return array.AddChild(item)
}

// normalizeLangArray moves the x-default item of an alt-text array to the
// front.
func normalizeLangArray(array *Node) {
	if !array.Options.IsAltText() {
		return
	}
	for i := 2; i <= array.ChildrenLen(); i++ {
		child := array.Child(i)
		if child.HasQualifier() && child.Qualifier(1).Value == XDefault {
			array.RemoveChildAt(i)
			_ = array.InsertChild(1, child)
			break
		}
	}
}

// detectAltText marks an alternate array as alt-text when any item
// carries an xml:lang qualifier, and moves x-default to the front.
func detectAltText(array *Node) {
	if !array.Options.IsAlternate() || !array.HasChildren() {
		return
	}
	isAltText := false
	for _, child := range array.children {
		if child.Options.HasLanguage() {
			isAltText = true
			break
		}
	}
	if isAltText {
		array.Options |= ArrayIsAltText
		normalizeLangArray(array)
	}
}
