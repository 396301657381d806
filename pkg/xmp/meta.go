package xmp

import (
	"time"
)

// Property is the result of a property lookup.
type Property struct {
	Value   string
	Options PropertyOptions
	// Language is the xml:lang qualifier, if any.
	Language string
}

// Meta is a metadata object: a property tree plus the registry used to
// resolve its names. A Meta is not safe for concurrent use.
type Meta struct {
	reg          *Registry
	tree         *Node
	packetHeader string
}

// New returns an empty metadata object bound to the default registry.
func New() *Meta {
	return NewWithRegistry(DefaultRegistry())
}

// NewWithRegistry returns an empty metadata object bound to reg.
func NewWithRegistry(reg *Registry) *Meta {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Meta{reg: reg, tree: NewNode("", "", NoOptions)}
}

// Registry returns the registry m resolves names with.
func (m *Meta) Registry() *Registry { return m.reg }

// Root returns the root of the property tree.
func (m *Meta) Root() *Node { return m.tree }

// ObjectName returns the rdf:about value of the packet.
func (m *Meta) ObjectName() string { return m.tree.Name }

// SetObjectName sets the rdf:about value of the packet.
func (m *Meta) SetObjectName(name string) { m.tree.Name = name }

// PacketHeader returns the content of the xpacket processing instruction
// found while parsing, if any.
func (m *Meta) PacketHeader() string { return m.packetHeader }

// Clone returns a deep copy sharing the same registry.
func (m *Meta) Clone() *Meta {
	return &Meta{reg: m.reg, tree: m.tree.Clone(), packetHeader: m.packetHeader}
}

// Sort orders schemas, properties and qualifiers by name. Array items keep
// their order.
func (m *Meta) Sort() { m.tree.Sort() }

// Dump renders the tree for debugging.
func (m *Meta) Dump() string { return m.tree.Dump(true) }

func assertSchemaNS(ns string) error {
	if ns == "" {
		return Errorf(KindBadSchema, "empty schema namespace URI")
	}
	return nil
}

func assertName(name, what string) error {
	if name == "" {
		return Errorf(KindBadXPath, "empty %s name", what)
	}
	return nil
}

func (m *Meta) find(schemaNS, path string) (*Node, error) {
	expanded, err := ExpandPath(m.reg, schemaNS, path)
	if err != nil {
		return nil, err
	}
	return findNode(m.reg, m.tree, expanded, false, NoOptions)
}

// GetProperty looks up a property. ok is false when it does not exist.
func (m *Meta) GetProperty(schemaNS, propName string) (prop Property, ok bool, err error) {
	if err := assertSchemaNS(schemaNS); err != nil {
		return prop, false, err
	}
	if err := assertName(propName, "property"); err != nil {
		return prop, false, err
	}
	node, err := m.find(schemaNS, propName)
	if err != nil || node == nil {
		return prop, false, err
	}
	prop = Property{Value: node.Value, Options: node.Options}
	if node.HasQualifier() && node.Qualifier(1).isLanguageNode() {
		prop.Language = node.Qualifier(1).Value
	}
	return prop, true, nil
}

func (m *Meta) getSimpleValue(schemaNS, propName string) (string, bool, error) {
	prop, ok, err := m.GetProperty(schemaNS, propName)
	if err != nil || !ok {
		return "", ok, err
	}
	if prop.Options.IsCompositeProperty() {
		return "", false, Errorf(KindBadXPath, "property must be simple when a value type is requested")
	}
	return prop.Value, true, nil
}

// GetPropertyString returns the value of a simple property.
func (m *Meta) GetPropertyString(schemaNS, propName string) (string, bool, error) {
	prop, ok, err := m.GetProperty(schemaNS, propName)
	return prop.Value, ok, err
}

// GetPropertyBool returns a simple property as a bool.
func (m *Meta) GetPropertyBool(schemaNS, propName string) (bool, bool, error) {
	s, ok, err := m.getSimpleValue(schemaNS, propName)
	if err != nil || !ok {
		return false, ok, err
	}
	v, err := ConvertToBoolean(s)
	return v, err == nil, err
}

// GetPropertyInt returns a simple property as an int.
func (m *Meta) GetPropertyInt(schemaNS, propName string) (int, bool, error) {
	s, ok, err := m.getSimpleValue(schemaNS, propName)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := ConvertToInteger(s)
	return v, err == nil, err
}

// GetPropertyInt64 returns a simple property as an int64.
func (m *Meta) GetPropertyInt64(schemaNS, propName string) (int64, bool, error) {
	s, ok, err := m.getSimpleValue(schemaNS, propName)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := ConvertToLong(s)
	return v, err == nil, err
}

// GetPropertyFloat returns a simple property as a float64.
func (m *Meta) GetPropertyFloat(schemaNS, propName string) (float64, bool, error) {
	s, ok, err := m.getSimpleValue(schemaNS, propName)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := ConvertToDouble(s)
	return v, err == nil, err
}

// GetPropertyDate returns a simple property as a DateTime.
func (m *Meta) GetPropertyDate(schemaNS, propName string) (DateTime, bool, error) {
	s, ok, err := m.getSimpleValue(schemaNS, propName)
	if err != nil || !ok {
		return DateTime{}, ok, err
	}
	v, err := ConvertToDate(s)
	return v, err == nil, err
}

// GetPropertyTime is GetPropertyDate converted to time.Time.
func (m *Meta) GetPropertyTime(schemaNS, propName string) (time.Time, bool, error) {
	d, ok, err := m.GetPropertyDate(schemaNS, propName)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	return d.Time(), true, nil
}

// GetPropertyBase64 decodes a Base64 property.
func (m *Meta) GetPropertyBase64(schemaNS, propName string) ([]byte, bool, error) {
	s, ok, err := m.getSimpleValue(schemaNS, propName)
	if err != nil || !ok {
		return nil, ok, err
	}
	v, err := DecodeBase64(s)
	return v, err == nil, err
}

// SetProperty creates or updates a property. Missing intermediate nodes
// are created; a composite property is created by passing an empty value
// with struct or array options.
func (m *Meta) SetProperty(schemaNS, propName, propValue string, options PropertyOptions) error {
	if err := assertSchemaNS(schemaNS); err != nil {
		return err
	}
	if err := assertName(propName, "property"); err != nil {
		return err
	}
	options, err := verifySetOptions(options, propValue != "")
	if err != nil {
		return err
	}
	expanded, err := ExpandPath(m.reg, schemaNS, propName)
	if err != nil {
		return err
	}
	node, err := findNode(m.reg, m.tree, expanded, true, options&^DeleteExisting)
	if err != nil {
		return err
	}
	if node == nil {
		return Errorf(KindBadXPath, "specified property does not exist")
	}
	return setNode(node, propValue, options, options.DeleteExisting())
}

// SetValue is SetProperty for a typed value.
func (m *Meta) SetValue(schemaNS, propName string, v Value, options PropertyOptions) error {
	return m.SetProperty(schemaNS, propName, v.String(), options)
}

// SetPropertyBool stores v as "True" or "False".
func (m *Meta) SetPropertyBool(schemaNS, propName string, v bool, options PropertyOptions) error {
	return m.SetValue(schemaNS, propName, BoolValue(v), options)
}

// SetPropertyInt stores v in decimal.
func (m *Meta) SetPropertyInt(schemaNS, propName string, v int, options PropertyOptions) error {
	return m.SetValue(schemaNS, propName, IntValue(v), options)
}

// SetPropertyInt64 stores v in decimal.
func (m *Meta) SetPropertyInt64(schemaNS, propName string, v int64, options PropertyOptions) error {
	return m.SetValue(schemaNS, propName, Int64Value(v), options)
}

// SetPropertyFloat stores v in its shortest decimal form.
func (m *Meta) SetPropertyFloat(schemaNS, propName string, v float64, options PropertyOptions) error {
	return m.SetValue(schemaNS, propName, FloatValue(v), options)
}

// SetPropertyDate stores v in ISO 8601 form.
func (m *Meta) SetPropertyDate(schemaNS, propName string, v DateTime, options PropertyOptions) error {
	return m.SetValue(schemaNS, propName, DateValue(v), options)
}

// SetPropertyTime stores v in ISO 8601 form.
func (m *Meta) SetPropertyTime(schemaNS, propName string, v time.Time, options PropertyOptions) error {
	return m.SetValue(schemaNS, propName, TimeValue(v), options)
}

// SetPropertyBase64 stores v Base64 encoded.
func (m *Meta) SetPropertyBase64(schemaNS, propName string, v []byte, options PropertyOptions) error {
	return m.SetValue(schemaNS, propName, BytesValue(v), options)
}

// setNode merges options into node and stores value. Composite nodes lose
// their children.
func setNode(node *Node, value string, options PropertyOptions, deleteExisting bool) error {
	if deleteExisting {
		node.Value = ""
		node.Options &= IsQualifier
		node.RemoveChildren()
		node.RemoveQualifiers()
	}
	node.Options |= options &^ DeleteExisting
	if err := node.Options.Validate(); err != nil {
		return err
	}
	if !node.Options.IsCompositeProperty() {
		setNodeValue(node, value)
		return nil
	}
	if value != "" {
		return Errorf(KindBadXPath, "composite nodes can't have values")
	}
	node.RemoveChildren()
	return nil
}

// DeleteProperty removes a property and reports whether it existed.
// Malformed paths count as missing.
func (m *Meta) DeleteProperty(schemaNS, propName string) bool {
	node, err := m.find(schemaNS, propName)
	if err != nil || node == nil {
		return false
	}
	deleteNode(node)
	return true
}

// DoesPropertyExist reports whether a property exists. Malformed paths
// count as missing.
func (m *Meta) DoesPropertyExist(schemaNS, propName string) bool {
	node, err := m.find(schemaNS, propName)
	return err == nil && node != nil
}

// GetArrayItem returns the 1-based item of an array; index -1 is the last.
func (m *Meta) GetArrayItem(schemaNS, arrayName string, index int) (Property, bool, error) {
	if err := assertSchemaNS(schemaNS); err != nil {
		return Property{}, false, err
	}
	path, err := ComposeArrayItemPath(arrayName, index)
	if err != nil {
		return Property{}, false, err
	}
	return m.GetProperty(schemaNS, path)
}

// SetArrayItem replaces an existing array item.
func (m *Meta) SetArrayItem(schemaNS, arrayName string, index int, itemValue string, itemOptions PropertyOptions) error {
	array, err := m.existingArray(schemaNS, arrayName)
	if err != nil {
		return err
	}
	return doSetArrayItem(array, index, itemValue, itemOptions, false)
}

// InsertArrayItem inserts a new item before index; index count+1 or -1
// appends.
func (m *Meta) InsertArrayItem(schemaNS, arrayName string, index int, itemValue string, itemOptions PropertyOptions) error {
	array, err := m.existingArray(schemaNS, arrayName)
	if err != nil {
		return err
	}
	return doSetArrayItem(array, index, itemValue, itemOptions, true)
}

func (m *Meta) existingArray(schemaNS, arrayName string) (*Node, error) {
	if err := assertSchemaNS(schemaNS); err != nil {
		return nil, err
	}
	if err := assertName(arrayName, "array"); err != nil {
		return nil, err
	}
	array, err := m.find(schemaNS, arrayName)
	if err != nil {
		return nil, err
	}
	if array == nil {
		return nil, Errorf(KindBadXPath, "specified array does not exist")
	}
	return array, nil
}

// AppendArrayItem adds an item at the end of an array. The array is
// created with arrayOptions if it does not exist yet.
func (m *Meta) AppendArrayItem(schemaNS, arrayName string, arrayOptions PropertyOptions, itemValue string, itemOptions PropertyOptions) error {
	if err := assertSchemaNS(schemaNS); err != nil {
		return err
	}
	if err := assertName(arrayName, "array"); err != nil {
		return err
	}
	if !arrayOptions.IsOnlyArrayOptions() {
		return Errorf(KindBadOptions, "only array form flags allowed for arrayOptions")
	}
	arrayOptions, err := verifySetOptions(arrayOptions, false)
	if err != nil {
		return err
	}
	path, err := ExpandPath(m.reg, schemaNS, arrayName)
	if err != nil {
		return err
	}
	array, err := findNode(m.reg, m.tree, path, false, NoOptions)
	if err != nil {
		return err
	}
	switch {
	case array != nil:
		if !array.Options.IsArray() {
			return Errorf(KindBadXPath, "the named property is not an array")
		}
	case arrayOptions.IsArray():
		if array, err = findNode(m.reg, m.tree, path, true, arrayOptions); err != nil {
			return err
		}
		if array == nil {
			return Errorf(KindBadXPath, "failure creating array node")
		}
	default:
		return Errorf(KindBadXPath, "explicit arrayOptions required to create new array")
	}
	return doSetArrayItem(array, -1, itemValue, itemOptions, true)
}

func doSetArrayItem(array *Node, index int, itemValue string, itemOptions PropertyOptions, insert bool) error {
	if !array.Options.IsArray() {
		return Errorf(KindBadXPath, "the named property is not an array")
	}
	itemOptions, err := verifySetOptions(itemOptions, itemValue != "")
	if err != nil {
		return err
	}
	maxIndex := array.ChildrenLen()
	if insert {
		maxIndex++
	}
	if index == -1 {
		index = maxIndex
	}
	if index < 1 || index > maxIndex {
		return Errorf(KindBadIndex, "array index out of bounds")
	}

	item := NewNode(ArrayItemName, "", NoOptions)
	if !insert {
		array.RemoveChildAt(index)
	}
	if err := array.InsertChild(index, item); err != nil {
		return err
	}
	return setNode(item, itemValue, itemOptions, false)
}

// DeleteArrayItem removes an item; later items shift down.
func (m *Meta) DeleteArrayItem(schemaNS, arrayName string, index int) bool {
	path, err := ComposeArrayItemPath(arrayName, index)
	if err != nil {
		return false
	}
	return m.DeleteProperty(schemaNS, path)
}

// DoesArrayItemExist reports whether the 1-based item exists.
func (m *Meta) DoesArrayItemExist(schemaNS, arrayName string, index int) bool {
	path, err := ComposeArrayItemPath(arrayName, index)
	if err != nil {
		return false
	}
	return m.DoesPropertyExist(schemaNS, path)
}

// CountArrayItems returns the number of items; a missing array has none.
func (m *Meta) CountArrayItems(schemaNS, arrayName string) (int, error) {
	if err := assertSchemaNS(schemaNS); err != nil {
		return 0, err
	}
	if err := assertName(arrayName, "array"); err != nil {
		return 0, err
	}
	array, err := m.find(schemaNS, arrayName)
	if err != nil || array == nil {
		return 0, err
	}
	if !array.Options.IsArray() {
		return 0, Errorf(KindBadXPath, "the named property is not an array")
	}
	return array.ChildrenLen(), nil
}

func (m *Meta) structFieldPath(structName, fieldNS, fieldName string) (string, error) {
	if err := assertName(structName, "struct"); err != nil {
		return "", err
	}
	field, err := ComposeStructFieldPath(m.reg, fieldNS, fieldName)
	if err != nil {
		return "", err
	}
	return structName + field, nil
}

// GetStructField returns a field of a struct property.
func (m *Meta) GetStructField(schemaNS, structName, fieldNS, fieldName string) (Property, bool, error) {
	path, err := m.structFieldPath(structName, fieldNS, fieldName)
	if err != nil {
		return Property{}, false, err
	}
	return m.GetProperty(schemaNS, path)
}

// SetStructField creates or updates a struct field.
func (m *Meta) SetStructField(schemaNS, structName, fieldNS, fieldName, fieldValue string, options PropertyOptions) error {
	path, err := m.structFieldPath(structName, fieldNS, fieldName)
	if err != nil {
		return err
	}
	return m.SetProperty(schemaNS, path, fieldValue, options)
}

// DeleteStructField removes a struct field and reports whether it existed.
func (m *Meta) DeleteStructField(schemaNS, structName, fieldNS, fieldName string) bool {
	path, err := m.structFieldPath(structName, fieldNS, fieldName)
	if err != nil {
		return false
	}
	return m.DeleteProperty(schemaNS, path)
}

// DoesStructFieldExist reports whether the struct field exists.
func (m *Meta) DoesStructFieldExist(schemaNS, structName, fieldNS, fieldName string) bool {
	path, err := m.structFieldPath(structName, fieldNS, fieldName)
	if err != nil {
		return false
	}
	return m.DoesPropertyExist(schemaNS, path)
}

func (m *Meta) qualifierPath(propName, qualNS, qualName string) (string, error) {
	if err := assertName(propName, "property"); err != nil {
		return "", err
	}
	qual, err := ComposeQualifierPath(m.reg, qualNS, qualName)
	if err != nil {
		return "", err
	}
	return propName + qual, nil
}

// GetQualifier returns a qualifier of a property.
func (m *Meta) GetQualifier(schemaNS, propName, qualNS, qualName string) (Property, bool, error) {
	path, err := m.qualifierPath(propName, qualNS, qualName)
	if err != nil {
		return Property{}, false, err
	}
	return m.GetProperty(schemaNS, path)
}

// SetQualifier attaches a qualifier to an existing property.
func (m *Meta) SetQualifier(schemaNS, propName, qualNS, qualName, qualValue string, options PropertyOptions) error {
	if !m.DoesPropertyExist(schemaNS, propName) {
		return Errorf(KindBadXPath, "specified property does not exist")
	}
	path, err := m.qualifierPath(propName, qualNS, qualName)
	if err != nil {
		return err
	}
	return m.SetProperty(schemaNS, path, qualValue, options)
}

// DeleteQualifier removes a qualifier and reports whether it existed.
func (m *Meta) DeleteQualifier(schemaNS, propName, qualNS, qualName string) bool {
	path, err := m.qualifierPath(propName, qualNS, qualName)
	if err != nil {
		return false
	}
	return m.DeleteProperty(schemaNS, path)
}

// DoesQualifierExist reports whether the qualifier exists.
func (m *Meta) DoesQualifierExist(schemaNS, propName, qualNS, qualName string) bool {
	path, err := m.qualifierPath(propName, qualNS, qualName)
	if err != nil {
		return false
	}
	return m.DoesPropertyExist(schemaNS, path)
}

// GetLocalizedText selects an item of an alt-text array. genericLang may be
// empty; specificLang is required. See chooseLocalizedText for the order
// of preference.
func (m *Meta) GetLocalizedText(schemaNS, altTextName, genericLang, specificLang string) (Property, bool, error) {
	if err := assertSchemaNS(schemaNS); err != nil {
		return Property{}, false, err
	}
	if err := assertName(altTextName, "array"); err != nil {
		return Property{}, false, err
	}
	if specificLang == "" {
		return Property{}, false, Errorf(KindBadParam, "empty specific language")
	}
	genericLang = NormalizeLangValue(genericLang)
	specificLang = NormalizeLangValue(specificLang)

	array, err := m.find(schemaNS, altTextName)
	if err != nil || array == nil {
		return Property{}, false, err
	}
	match, item, err := chooseLocalizedText(array, genericLang, specificLang)
	if err != nil || match == MatchNoValues {
		return Property{}, false, err
	}
	return Property{Value: item.Value, Options: item.Options, Language: item.Qualifier(1).Value}, true, nil
}

// SetLocalizedText creates or updates an item of an alt-text array and
// keeps the x-default item in step with it.
func (m *Meta) SetLocalizedText(schemaNS, altTextName, genericLang, specificLang, itemValue string) error {
	if err := assertSchemaNS(schemaNS); err != nil {
		return err
	}
	if err := assertName(altTextName, "array"); err != nil {
		return err
	}
	if specificLang == "" {
		return Errorf(KindBadParam, "empty specific language")
	}
	genericLang = NormalizeLangValue(genericLang)
	specificLang = NormalizeLangValue(specificLang)

	path, err := ExpandPath(m.reg, schemaNS, altTextName)
	if err != nil {
		return err
	}
	array, err := findNode(m.reg, m.tree, path, true, ValueIsArray|ArrayIsOrdered|ArrayIsAlternate|ArrayIsAltText)
	if err != nil {
		return err
	}
	if array == nil {
		return Errorf(KindBadXPath, "failed to find or create array node")
	}
	if !array.Options.IsAltText() {
		if array.HasChildren() || !array.Options.IsAlternate() {
			return Errorf(KindBadXPath, "specified property is no alt-text array")
		}
		array.Options |= ArrayIsAltText
	}
	return setLocalizedItem(array, genericLang, specificLang, sanitizeValue(itemValue))
}

func setLocalizedItem(array *Node, genericLang, specificLang, itemValue string) error {
	var xdItem *Node
	for _, item := range array.children {
		if !item.HasQualifier() || !item.Qualifier(1).isLanguageNode() {
			return Errorf(KindBadXPath, "language qualifier must be first")
		}
		if item.Qualifier(1).Value == XDefault {
			xdItem = item
			break
		}
	}
	haveXDefault := xdItem != nil
	if xdItem != nil && array.ChildrenLen() > 1 {
		array.RemoveChild(xdItem)
		_ = array.InsertChild(1, xdItem)
	}

	match, item, err := chooseLocalizedText(array, genericLang, specificLang)
	if err != nil {
		return err
	}
	specificXDefault := specificLang == XDefault

	switch match {
	case MatchNoValues:
		if err := appendLangItem(array, XDefault, itemValue); err != nil {
			return err
		}
		haveXDefault = true
		if !specificXDefault {
			if err := appendLangItem(array, specificLang, itemValue); err != nil {
				return err
			}
		}
	case MatchSpecific:
		if !specificXDefault {
			if xdItem != nil && xdItem != item && xdItem.Value == item.Value {
				xdItem.Value = itemValue
			}
			item.Value = itemValue
			break
		}
		for _, other := range array.children {
			if other != xdItem && other.Value == xdItem.Value {
				other.Value = itemValue
			}
		}
		xdItem.Value = itemValue
	case MatchSingleGeneric:
		if xdItem != nil && xdItem != item && xdItem.Value == item.Value {
			xdItem.Value = itemValue
		}
		item.Value = itemValue
	case MatchMultipleGeneric, MatchFirstItem:
		if err := appendLangItem(array, specificLang, itemValue); err != nil {
			return err
		}
		if specificXDefault {
			haveXDefault = true
		}
	case MatchXDefault:
		if xdItem != nil && array.ChildrenLen() == 1 {
			xdItem.Value = itemValue
		}
		if err := appendLangItem(array, specificLang, itemValue); err != nil {
			return err
		}
	default:
		return Errorf(KindInternalFailure, "unexpected result from chooseLocalizedText")
	}

	if !haveXDefault && array.ChildrenLen() == 1 {
		return appendLangItem(array, XDefault, itemValue)
	}
	return nil
}
