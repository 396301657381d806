package xmp

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// dcArrayForms lists the Dublin Core properties that must be arrays and
// the form each one takes.
var dcArrayForms = map[string]PropertyOptions{
	"dc:contributor": aliasToArray,
	"dc:language":    aliasToArray,
	"dc:publisher":   aliasToArray,
	"dc:relation":    aliasToArray,
	"dc:subject":     aliasToArray,
	"dc:type":        aliasToArray,

	"dc:creator": aliasToArrayOrdered,
	"dc:date":    aliasToArrayOrdered,

	"dc:description": aliasToAltText,
	"dc:rights":      aliasToAltText,
	"dc:title":       aliasToAltText,
}

const repairLang = "x-repair"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type normalizer struct {
	meta   *Meta
	strict bool
	log    *slog.Logger
}

// Normalize applies the post-parse repairs to m. Parse runs it unless
// ParseOptions.OmitNormalization is set.
func (m *Meta) Normalize(opts *ParseOptions) error {
	n := &normalizer{meta: m, log: discardLogger}
	if opts != nil {
		n.strict = opts.StrictAliasing
		if opts.Logger != nil {
			n.log = opts.Logger
		}
	}
	return n.run()
}

// run moves aliases before the data model touch-up so that properties
// arriving through an alias get their Dublin Core array form too.
func (n *normalizer) run() error {
	if err := n.tweakOldXMP(); err != nil {
		return err
	}
	if err := n.moveExplicitAliases(); err != nil {
		return err
	}
	if err := n.touchUpDataModel(); err != nil {
		return err
	}
	n.deleteEmptySchemas()
	return nil
}

func (n *normalizer) touchUpDataModel() error {
	root := n.meta.tree
	if _, err := findSchemaNode(n.meta.reg, root, NsDC, "dc", true); err != nil {
		return err
	}

	for _, schema := range slices.Clone(root.children) {
		switch schema.Name {
		case NsDC:
			n.normalizeDCArrays(schema)
		case NsExif:
			n.fixGPSTimeStamp(schema)
			if comment := schema.FindChildByName("exif:UserComment"); comment != nil {
				n.repairAltText(comment)
			}
		case NsDM:
			if copyright := schema.FindChildByName("xmpDM:copyright"); copyright != nil {
				n.migrateAudioCopyright(copyright)
			}
		case NsXMPRights:
			if terms := schema.FindChildByName("xmpRights:UsageTerms"); terms != nil {
				n.repairAltText(terms)
			}
		}
	}
	return nil
}

// normalizeDCArrays turns single valued Dublin Core properties into the
// array form they are defined with.
func (n *normalizer) normalizeDCArrays(dc *Node) {
	for i := 1; i <= dc.ChildrenLen(); i++ {
		prop := dc.Child(i)
		form, ok := dcArrayForms[prop.Name]
		if !ok {
			continue
		}
		if prop.Options.IsSimple() {
			n.promoteToArray(dc, i, form)
			continue
		}
		prop.Options &^= ValueIsArray | ArrayIsOrdered | ArrayIsAlternate | ArrayIsAltText
		prop.Options |= form
		if form.IsAltText() {
			n.repairAltText(prop)
		}
	}
}

// promoteToArray wraps the simple child at index of parent into a one item
// array of the given form and returns the array.
func (n *normalizer) promoteToArray(parent *Node, index int, form PropertyOptions) *Node {
	prop := parent.Child(index)
	array := NewNode(prop.Name, "", form)
	parent.ReplaceChild(index, array)
	prop.Name = ArrayItemName
	_ = array.AddChild(prop)
	if form.IsAltText() && !prop.Options.HasLanguage() {
		_ = prop.AddQualifier(NewNode(XMLLang, XDefault, NoOptions))
	}
	n.log.Debug("promoted simple property to array", "property", array.Name)
	return array
}

// repairAltText makes sure every item of an alt-text array is a simple
// value with a language. Empty unlabeled items and composite items are
// dropped; other unlabeled items get the x-repair language.
func (n *normalizer) repairAltText(array *Node) {
	if !array.Options.IsArray() {
		return
	}
	array.Options |= ArrayIsOrdered | ArrayIsAlternate | ArrayIsAltText

	kept := array.children[:0]
	for _, item := range array.children {
		switch {
		case item.Options.IsCompositeProperty():
			n.log.Debug("dropped composite alt-text item", "array", array.Name)
			continue
		case !item.Options.HasLanguage():
			if item.Value == "" {
				n.log.Debug("dropped empty alt-text item", "array", array.Name)
				continue
			}
			_ = item.AddQualifier(NewNode(XMLLang, repairLang, NoOptions))
			n.log.Debug("added repair language to alt-text item", "array", array.Name)
		}
		kept = append(kept, item)
	}
	clear(array.children[len(kept):])
	array.children = kept
}

// fixGPSTimeStamp copies the date of exif:DateTimeOriginal (or
// exif:DateTimeDigitized) into a time-only exif:GPSTimeStamp.
func (n *normalizer) fixGPSTimeStamp(exif *Node) {
	gps := exif.FindChildByName("exif:GPSTimeStamp")
	if gps == nil {
		return
	}
	stamp, err := ParseDate(gps.Value)
	if err != nil || stamp.Year != 0 || stamp.Month != 0 || stamp.Day != 0 {
		return
	}
	other := exif.FindChildByName("exif:DateTimeOriginal")
	if other == nil {
		other = exif.FindChildByName("exif:DateTimeDigitized")
	}
	if other == nil {
		return
	}
	date, err := ParseDate(other.Value)
	if err != nil {
		return
	}
	stamp.Year, stamp.Month, stamp.Day = date.Year, date.Month, date.Day
	stamp.HasDate = true
	gps.Value = stamp.String()
	n.log.Debug("merged date into exif:GPSTimeStamp", "value", gps.Value)
}

// migrateAudioCopyright moves a legacy xmpDM:copyright into
// dc:rights['x-default']. An existing rights statement is kept in front of
// a double linefeed, the migrated text follows it.
func (n *normalizer) migrateAudioCopyright(dmCopyright *Node) {
	const doubleLF = "\n\n"
	m := n.meta
	dmValue := dmCopyright.Value

	err := func() error {
		dc, err := findSchemaNode(m.reg, m.tree, NsDC, "dc", true)
		if err != nil {
			return err
		}
		rights := dc.FindChildByName("dc:rights")
		if rights == nil || !rights.HasChildren() {
			return m.SetLocalizedText(NsDC, "rights", "", XDefault, doubleLF+dmValue)
		}

		xdIndex, err := lookupLanguageItem(rights, XDefault)
		if err != nil {
			return err
		}
		if xdIndex < 0 {
			if err := m.SetLocalizedText(NsDC, "rights", "", XDefault, rights.Child(1).Value); err != nil {
				return err
			}
			if xdIndex, err = lookupLanguageItem(rights, XDefault); err != nil {
				return err
			}
			if xdIndex < 0 {
				return Errorf(KindBadXMP, "dc:rights has no x-default item")
			}
		}

		xd := rights.Child(xdIndex)
		lf := strings.Index(xd.Value, doubleLF)
		switch {
		case lf < 0:
			if xd.Value != dmValue {
				xd.Value = xd.Value + doubleLF + dmValue
			}
		case xd.Value[lf+2:] != dmValue:
			xd.Value = xd.Value[:lf+2] + dmValue
		}
		return nil
	}()
	if err != nil {
		// A malformed dc:rights must not stop the remaining repairs.
		n.log.Debug("legacy copyright migration failed", "error", err)
		return
	}
	deleteNode(dmCopyright)
	n.log.Debug("migrated xmpDM:copyright into dc:rights")
}

// tweakOldXMP moves a UUID in the packet's rdf:about into
// xmpMM:InstanceID.
func (n *normalizer) tweakOldXMP() error {
	m := n.meta
	name := strings.ToLower(m.tree.Name)
	if len(name) < 36 {
		return nil
	}
	name = strings.TrimPrefix(name, "uuid:")
	if len(name) != 36 {
		return nil
	}
	if _, err := uuid.Parse(name); err != nil {
		return nil
	}

	path, err := ExpandPath(m.reg, NsXMPMM, "InstanceID")
	if err != nil {
		return err
	}
	id, err := findNode(m.reg, m.tree, path, true, NoOptions)
	if err != nil {
		return err
	}
	if id == nil {
		return Errorf(KindInternalFailure, "failure creating xmpMM:InstanceID")
	}
	id.Options = NoOptions
	id.Value = "uuid:" + name
	id.RemoveChildren()
	id.RemoveQualifiers()
	m.tree.Name = ""
	n.log.Debug("moved legacy UUID into xmpMM:InstanceID", "value", id.Value)
	return nil
}

// moveExplicitAliases transplants alias properties found while parsing to
// their base location. An alias whose base already exists is dropped; in
// strict mode the two must agree.
func (n *normalizer) moveExplicitAliases() error {
	m := n.meta
	if !m.tree.hasAliases {
		return nil
	}
	m.tree.hasAliases = false

	for _, schema := range slices.Clone(m.tree.children) {
		if !schema.hasAliases {
			continue
		}
		for _, prop := range slices.Clone(schema.children) {
			if !prop.alias {
				continue
			}
			prop.alias = false
			info, ok := m.reg.FindAlias(prop.Name)
			if !ok {
				continue
			}
			if err := n.moveAlias(schema, prop, info); err != nil {
				return err
			}
		}
		schema.hasAliases = false
	}
	return nil
}

func (n *normalizer) moveAlias(schema, prop *Node, info AliasInfo) error {
	m := n.meta
	baseSchema, err := findSchemaNode(m.reg, m.tree, info.Namespace, "", true)
	if err != nil {
		return err
	}
	baseSchema.implicit = false
	baseName := info.QName()
	base := baseSchema.FindChildByName(baseName)
	n.log.Debug("resolving alias", "alias", prop.Name, "base", baseName)

	if base == nil {
		if info.Form.IsSimple() {
			schema.RemoveChild(prop)
			prop.Name = baseName
			return baseSchema.AddChild(prop)
		}
		base = NewNode(baseName, "", info.Form)
		if err := baseSchema.AddChild(base); err != nil {
			return err
		}
		return transplantArrayItemAlias(schema, prop, base)
	}

	if info.Form.IsSimple() {
		if n.strict {
			if err := compareAliasedSubtrees(prop, base, true); err != nil {
				return err
			}
		}
		schema.RemoveChild(prop)
		return nil
	}

	if base.Options.IsSimple() {
		base = n.promoteToArray(baseSchema, indexOf(baseSchema.children, base), info.Form.ArrayForm())
	}
	var item *Node
	if info.Form.IsAltText() {
		if idx, err := lookupLanguageItem(base, XDefault); err == nil && idx > 0 {
			item = base.Child(idx)
		}
	} else if base.HasChildren() {
		item = base.Child(1)
	}
	if item == nil {
		return transplantArrayItemAlias(schema, prop, base)
	}
	if n.strict {
		if err := compareAliasedSubtrees(prop, item, true); err != nil {
			return err
		}
	}
	schema.RemoveChild(prop)
	return nil
}

func transplantArrayItemAlias(schema, prop, array *Node) error {
	if array.Options.IsAltText() {
		if prop.Options.HasLanguage() {
			return Errorf(KindBadXMP, "alias to x-default already has a language qualifier")
		}
		if err := prop.AddQualifier(NewNode(XMLLang, XDefault, NoOptions)); err != nil {
			return err
		}
	}
	schema.RemoveChild(prop)
	prop.Name = ArrayItemName
	if array.Options.IsAltText() {
		return array.InsertChild(1, prop)
	}
	return array.AddChild(prop)
}

// compareAliasedSubtrees requires an alias and its base to carry the same
// content. The names and options of the outermost pair may differ.
func compareAliasedSubtrees(alias, base *Node, outerCall bool) error {
	if alias.Value != base.Value || alias.ChildrenLen() != base.ChildrenLen() {
		return Errorf(KindBadXMP, "mismatch between alias and base nodes")
	}
	if !outerCall && (alias.Name != base.Name || alias.Options != base.Options || alias.QualifierLen() != base.QualifierLen()) {
		return Errorf(KindBadXMP, "mismatch between alias and base nodes")
	}
	for i, child := range alias.children {
		if err := compareAliasedSubtrees(child, base.children[i], false); err != nil {
			return err
		}
	}
	for i, qual := range alias.qualifiers {
		if i >= base.QualifierLen() {
			break
		}
		if err := compareAliasedSubtrees(qual, base.qualifiers[i], false); err != nil {
			return err
		}
	}
	return nil
}

func (n *normalizer) deleteEmptySchemas() {
	root := n.meta.tree
	for _, schema := range slices.Clone(root.children) {
		if !schema.HasChildren() {
			root.RemoveChild(schema)
		}
	}
}
