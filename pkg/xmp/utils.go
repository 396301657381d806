package xmp

import (
	"strings"
)

// charKind classifies characters for array catenation and separation.
type charKind int

const (
	charNormal charKind = iota
	charSpace
	charComma
	charSemicolon
	charQuote
	charControl
)

const (
	spaceChars     = "\u0020\u3000\u303F"
	commaChars     = "\u002C\uFF0C\uFF64\uFE50\uFE51\u3001\u060C\u055D"
	semicolonChars = "\u003B\uFF1B\uFE54\u061B\u037E"
	quoteChars     = "\u0022\u00AB\u00BB\u301D\u301E\u301F\u2015\u2039\u203A"
	controlChars   = "\u2028\u2029"
)

func classifyCharacter(ch rune) charKind {
	switch {
	case strings.ContainsRune(spaceChars, ch) || (0x2000 <= ch && ch <= 0x200B):
		return charSpace
	case strings.ContainsRune(commaChars, ch):
		return charComma
	case strings.ContainsRune(semicolonChars, ch):
		return charSemicolon
	case strings.ContainsRune(quoteChars, ch) || (0x3008 <= ch && ch <= 0x300F) || (0x2018 <= ch && ch <= 0x201F):
		return charQuote
	case ch < 0x0020 || strings.ContainsRune(controlChars, ch):
		return charControl
	}
	return charNormal
}

// closingQuote returns the quote that closes openQuote, or 0.
func closingQuote(openQuote rune) rune {
	switch openQuote {
	case 0x0022:
		return 0x0022
	case 0x00AB:
		return 0x00BB
	case 0x00BB:
		return 0x00AB
	case 0x2015:
		return 0x2015
	case 0x2018:
		return 0x2019
	case 0x201A:
		return 0x201B
	case 0x201C:
		return 0x201D
	case 0x201E:
		return 0x201F
	case 0x2039:
		return 0x203A
	case 0x203A:
		return 0x2039
	case 0x3008:
		return 0x3009
	case 0x300A:
		return 0x300B
	case 0x300C:
		return 0x300D
	case 0x300E:
		return 0x300F
	case 0x301D:
		return 0x301F // U+301E also closes U+301D
	}
	return 0
}

func isClosingQuote(ch, openQuote, closeQuote rune) bool {
	return ch == closeQuote || (openQuote == 0x301D && (ch == 0x301E || ch == 0x301F))
}

func isSurroundingQuote(ch, openQuote, closeQuote rune) bool {
	return ch == openQuote || isClosingQuote(ch, openQuote, closeQuote)
}

// CatenateArrayItems joins the simple items of a non-alternate array into
// one string. Items containing separators are quoted; quotes inside them
// are doubled. separator defaults to "; " and quotes to `"`.
func CatenateArrayItems(m *Meta, schemaNS, arrayName, separator, quotes string, allowCommas bool) (string, error) {
	if err := assertSchemaNS(schemaNS); err != nil {
		return "", err
	}
	if err := assertName(arrayName, "array"); err != nil {
		return "", err
	}
	if separator == "" {
		separator = "; "
	}
	if quotes == "" {
		quotes = "\""
	}

	array, err := m.find(schemaNS, arrayName)
	if err != nil {
		return "", err
	}
	if array == nil {
		return "", nil
	}
	if !array.Options.IsArray() || array.Options.IsAlternate() {
		return "", Errorf(KindBadParam, "named property must be non-alternate array")
	}
	if err := checkSeparator(separator); err != nil {
		return "", err
	}
	openQuote, closeQuote, err := checkQuotes(quotes)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, item := range array.children {
		if item.Options.IsCompositeProperty() {
			return "", Errorf(KindBadParam, "array items must be simple")
		}
		if i > 0 {
			b.WriteString(separator)
		}
		b.WriteString(applyQuotes(item.Value, openQuote, closeQuote, allowCommas))
	}
	return b.String(), nil
}

func checkSeparator(separator string) error {
	haveSemicolon := false
	for _, ch := range separator {
		switch classifyCharacter(ch) {
		case charSemicolon:
			if haveSemicolon {
				return Errorf(KindBadParam, "separator can have only one semicolon")
			}
			haveSemicolon = true
		case charSpace:
		default:
			return Errorf(KindBadParam, "separator can have only spaces and one semicolon")
		}
	}
	if !haveSemicolon {
		return Errorf(KindBadParam, "separator must have one semicolon")
	}
	return nil
}

func checkQuotes(quotes string) (openQuote, closeQuote rune, err error) {
	runes := []rune(quotes)
	openQuote = runes[0]
	if classifyCharacter(openQuote) != charQuote {
		return 0, 0, Errorf(KindBadParam, "invalid quoting character")
	}
	closeQuote = openQuote
	if len(runes) > 1 {
		closeQuote = runes[1]
		if classifyCharacter(closeQuote) != charQuote {
			return 0, 0, Errorf(KindBadParam, "invalid quoting character")
		}
	}
	if closeQuote != closingQuote(openQuote) {
		return 0, 0, Errorf(KindBadParam, "mismatched quote pair")
	}
	return openQuote, closeQuote, nil
}

// applyQuotes quotes item if it contains anything that would split it
// when separated again: a leading quote, two spaces in a row, a semicolon,
// a control character or, unless allowed, a comma.
func applyQuotes(item string, openQuote, closeQuote rune, allowCommas bool) string {
	runes := []rune(item)
	prevSpace := false
	i := 0
	for ; i < len(runes); i++ {
		kind := classifyCharacter(runes[i])
		if i == 0 && kind == charQuote {
			break
		}
		if kind == charSpace {
			if prevSpace {
				break
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		if kind == charSemicolon || kind == charControl || (kind == charComma && !allowCommas) {
			break
		}
	}
	if i == len(runes) {
		return item
	}

	// Quotes before the split point still need doubling.
	split := 0
	for split < i && classifyCharacter(runes[split]) != charQuote {
		split++
	}

	var b strings.Builder
	b.Grow(len(item) + 4)
	b.WriteRune(openQuote)
	b.WriteString(string(runes[:split]))
	for _, ch := range runes[split:] {
		b.WriteRune(ch)
		if classifyCharacter(ch) == charQuote && isSurroundingQuote(ch, openQuote, closeQuote) {
			b.WriteRune(ch)
		}
	}
	b.WriteRune(closeQuote)
	return b.String()
}

// SeparateArrayItems splits catedStr into the items of a non-alternate
// array, undoing CatenateArrayItems. The array is created with
// arrayOptions if it does not exist. Existing items whose value reappears
// are kept with their qualifiers; the others are replaced.
func SeparateArrayItems(m *Meta, schemaNS, arrayName, catedStr string, arrayOptions PropertyOptions, preserveCommas bool) error {
	if err := assertSchemaNS(schemaNS); err != nil {
		return err
	}
	if err := assertName(arrayName, "array"); err != nil {
		return err
	}
	array, err := separateFindCreateArray(m, schemaNS, arrayName, arrayOptions)
	if err != nil {
		return err
	}

	old := array.children
	array.RemoveChildren()
	for _, value := range separateItems([]rune(catedStr), preserveCommas) {
		var item *Node
		for i, o := range old {
			if o != nil && o.Value == value && !o.Options.IsCompositeProperty() {
				item, old[i] = o, nil
				break
			}
		}
		if item == nil {
			item = NewNode(ArrayItemName, value, NoOptions)
		}
		if err := array.AddChild(item); err != nil {
			return err
		}
	}
	return nil
}

func separateItems(cated []rune, preserveCommas bool) []string {
	var items []string
	end := len(cated)
	itemEnd := 0
	for itemEnd < end {
		// Skip leading spaces and separators, but not quotes.
		itemStart := itemEnd
		kind := charNormal
		for ; itemStart < end; itemStart++ {
			kind = classifyCharacter(cated[itemStart])
			if kind == charNormal || kind == charQuote {
				break
			}
		}
		if itemStart >= end {
			break
		}

		var value strings.Builder
		if kind != charQuote {
			for itemEnd = itemStart; itemEnd < end; itemEnd++ {
				k := classifyCharacter(cated[itemEnd])
				if k == charNormal || k == charQuote || (k == charComma && preserveCommas) {
					continue
				}
				if k != charSpace || itemEnd+1 >= end {
					break
				}
				next := classifyCharacter(cated[itemEnd+1])
				if next == charNormal || next == charQuote || (next == charComma && preserveCommas) {
					continue
				}
				break
			}
			value.WriteString(string(cated[itemStart:itemEnd]))
		} else {
			itemEnd = unquoteItem(cated, itemStart, &value)
		}
		items = append(items, value.String())
	}
	return items
}

// unquoteItem reads the quoted item starting at start into value. It
// returns the position after the closing quote, or the end of input for an
// unterminated item.
func unquoteItem(cated []rune, start int, value *strings.Builder) int {
	openQuote := cated[start]
	closeQuote := closingQuote(openQuote)
	end := len(cated)
	for pos := start + 1; pos < end; pos++ {
		ch := cated[pos]
		if classifyCharacter(ch) != charQuote || !isSurroundingQuote(ch, openQuote, closeQuote) {
			value.WriteRune(ch)
			continue
		}
		following := ';'
		if pos+1 < end {
			following = cated[pos+1]
		}
		switch {
		case ch == following:
			value.WriteRune(ch)
			pos++
		case !isClosingQuote(ch, openQuote, closeQuote):
			value.WriteRune(ch)
		default:
			return pos + 1
		}
	}
	return end
}

func separateFindCreateArray(m *Meta, schemaNS, arrayName string, arrayOptions PropertyOptions) (*Node, error) {
	if !arrayOptions.IsOnlyArrayOptions() {
		return nil, Errorf(KindBadOptions, "options can only provide array form")
	}
	arrayOptions, err := verifySetOptions(arrayOptions, false)
	if err != nil {
		return nil, err
	}
	if arrayOptions.IsAlternate() {
		return nil, Errorf(KindBadOptions, "separated items can't form an alternate array")
	}

	path, err := ExpandPath(m.reg, schemaNS, arrayName)
	if err != nil {
		return nil, err
	}
	array, err := findNode(m.reg, m.tree, path, false, NoOptions)
	if err != nil {
		return nil, err
	}
	if array != nil {
		form := array.Options
		if !form.IsArray() || form.IsAlternate() {
			return nil, Errorf(KindBadXPath, "named property must be non-alternate array")
		}
		if arrayOptions.IsArray() && !arrayOptions.EqualArrayTypes(form) {
			return nil, Errorf(KindBadXPath, "mismatch of specified and existing array form")
		}
		return array, nil
	}

	array, err = findNode(m.reg, m.tree, path, true, arrayOptions|ValueIsArray)
	if err != nil {
		return nil, err
	}
	if array == nil {
		return nil, Errorf(KindBadXPath, "failed to create named array")
	}
	return array, nil
}

// isInternalProperty reports properties maintained by applications rather
// than entered by users.
func isInternalProperty(schema, prop string) bool {
	switch schema {
	case NsDC:
		return prop == "dc:format" || prop == "dc:language"
	case NsXMP:
		switch prop {
		case "xmp:BaseURL", "xmp:CreatorTool", "xmp:Format", "xmp:Locale", "xmp:MetadataDate", "xmp:ModifyDate":
			return true
		}
	case NsPDF:
		switch prop {
		case "pdf:BaseURL", "pdf:Creator", "pdf:ModDate", "pdf:PDFVersion", "pdf:Producer":
			return true
		}
	case NsTIFF:
		switch prop {
		case "tiff:ImageDescription", "tiff:Artist", "tiff:Copyright":
			return false
		}
		return true
	case NsExif:
		return prop != "exif:UserComment"
	case NsExifAux, NsStockPhoto, NsXMPMM, NsXMPNote, TypeText, TypePagedFile, TypeFont, TypeDimensions,
		TypeResourceEvt, TypeResourceRef, TypeVersion, TypeJob:
		return true
	case NsPhotoshop:
		return prop == "photoshop:ICCProfile"
	case NsCameraRaw:
		return prop == "crs:Version" || prop == "crs:RawFileName" || prop == "crs:ToneCurveName"
	}
	return false
}

// RemoveProperties deletes properties from m.
//
// With a property name only that property is removed (it may be an
// alias). With only a schema every property of the schema is removed, and
// with includeAliases also the base properties its aliases map to. With
// neither, every schema is cleared. Internal properties survive unless
// doAllProperties is set.
func RemoveProperties(m *Meta, schemaNS, propName string, doAllProperties, includeAliases bool) error {
	switch {
	case propName != "":
		if schemaNS == "" {
			return Errorf(KindBadSchema, "property name requires schema namespace")
		}
		path, err := ExpandPath(m.reg, schemaNS, propName)
		if err != nil {
			return err
		}
		prop, err := findNode(m.reg, m.tree, path, false, NoOptions)
		if err != nil || prop == nil {
			return err
		}
		if doAllProperties || !isInternalProperty(path[0].Name, path[1].Name) {
			deleteNode(prop)
		}

	case schemaNS != "":
		if schema := m.tree.FindChildByName(schemaNS); schema != nil {
			if removeSchemaChildren(schema, doAllProperties) {
				m.tree.RemoveChild(schema)
			}
		}
		if !includeAliases {
			return nil
		}
		for _, qname := range m.reg.FindAliases(schemaNS) {
			info, ok := m.reg.FindAlias(qname)
			if !ok {
				continue
			}
			path, err := ExpandPath(m.reg, info.Namespace, info.PropName)
			if err != nil {
				return err
			}
			if prop, err := findNode(m.reg, m.tree, path, false, NoOptions); err == nil && prop != nil {
				deleteNode(prop)
			}
		}

	default:
		for _, schema := range append([]*Node(nil), m.tree.children...) {
			if removeSchemaChildren(schema, doAllProperties) {
				m.tree.RemoveChild(schema)
			}
		}
	}
	return nil
}

func removeSchemaChildren(schema *Node, doAllProperties bool) bool {
	for _, prop := range append([]*Node(nil), schema.children...) {
		if doAllProperties || !isInternalProperty(schema.Name, prop.Name) {
			schema.RemoveChild(prop)
		}
	}
	return !schema.HasChildren()
}

// AppendProperties copies properties from source into dest. Existing
// destination values are kept unless replaceOldValues is set; structs and
// arrays are merged. With deleteEmptyValues an empty source value removes
// the destination property.
func AppendProperties(source, dest *Meta, doAllProperties, replaceOldValues, deleteEmptyValues bool) error {
	for _, srcSchema := range source.tree.children {
		destSchema := dest.tree.FindChildByName(srcSchema.Name)
		created := false
		if destSchema == nil {
			if _, ok := dest.reg.Prefix(srcSchema.Name); !ok {
				if _, err := dest.reg.RegisterNamespace(srcSchema.Name, srcSchema.Value); err != nil {
					return err
				}
			}
			prefix, _ := dest.reg.Prefix(srcSchema.Name)
			destSchema = NewNode(srcSchema.Name, prefix, SchemaNode)
			if err := dest.tree.AddChild(destSchema); err != nil {
				return err
			}
			created = true
		}

		for _, srcProp := range srcSchema.children {
			if doAllProperties || !isInternalProperty(srcSchema.Name, srcProp.Name) {
				if err := appendSubtree(srcProp, destSchema, replaceOldValues, deleteEmptyValues); err != nil {
					return err
				}
			}
		}
		if !destSchema.HasChildren() && (created || deleteEmptyValues) {
			dest.tree.RemoveChild(destSchema)
		}
	}
	return nil
}

func appendSubtree(src, destParent *Node, replaceOldValues, deleteEmptyValues bool) error {
	dest := destParent.FindChildByName(src.Name)
	if src.Name == ArrayItemName {
		dest = nil
	}

	valueIsEmpty := false
	if deleteEmptyValues {
		if src.Options.IsSimple() {
			valueIsEmpty = src.Value == ""
		} else {
			valueIsEmpty = !src.HasChildren()
		}
	}

	switch {
	case deleteEmptyValues && valueIsEmpty:
		if dest != nil {
			destParent.RemoveChild(dest)
		}
	case dest == nil:
		return destParent.AddChild(src.Clone())
	case replaceOldValues:
		destParent.RemoveChild(dest)
		return destParent.AddChild(src.Clone())
	default:
		return mergeSubtree(src, dest, destParent, replaceOldValues, deleteEmptyValues)
	}
	return nil
}

// mergeSubtree merges src into an existing dest of the same form.
func mergeSubtree(src, dest, destParent *Node, replaceOldValues, deleteEmptyValues bool) error {
	srcForm, destForm := src.Options&compositeMask, dest.Options&compositeMask
	if srcForm != destForm {
		return nil
	}

	switch {
	case srcForm&ValueIsStruct != 0:
		for _, field := range src.children {
			if err := appendSubtree(field, dest, replaceOldValues, deleteEmptyValues); err != nil {
				return err
			}
		}
		if deleteEmptyValues && !dest.HasChildren() {
			destParent.RemoveChild(dest)
		}

	case srcForm&ArrayIsAltText != 0:
		for _, item := range src.children {
			if !item.HasQualifier() || !item.Qualifier(1).isLanguageNode() {
				continue
			}
			lang := item.Qualifier(1).Value
			idx, err := lookupLanguageItem(dest, lang)
			if err != nil {
				return err
			}
			switch {
			case deleteEmptyValues && item.Value == "":
				if idx > 0 {
					dest.RemoveChildAt(idx)
					if !dest.HasChildren() {
						destParent.RemoveChild(dest)
					}
				}
			case idx < 0:
				if lang == XDefault && dest.HasChildren() {
					if err := dest.InsertChild(1, item.Clone()); err != nil {
						return err
					}
				} else if err := dest.AddChild(item.Clone()); err != nil {
					return err
				}
			}
		}

	case srcForm&ValueIsArray != 0:
		for _, item := range src.children {
			match := false
			for _, d := range dest.children {
				if itemValuesMatch(item, d) {
					match = true
					break
				}
			}
			if !match {
				if err := dest.AddChild(item.Clone()); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func itemValuesMatch(left, right *Node) bool {
	if left.Options&compositeMask != right.Options&compositeMask {
		return false
	}
	switch {
	case left.Options.IsSimple():
		if left.Value != right.Value || left.Options.HasLanguage() != right.Options.HasLanguage() {
			return false
		}
		if left.Options.HasLanguage() && left.Qualifier(1).Value != right.Qualifier(1).Value {
			return false
		}
	case left.Options.IsStruct():
		if left.ChildrenLen() != right.ChildrenLen() {
			return false
		}
		for _, field := range left.children {
			other := right.FindChildByName(field.Name)
			if other == nil || !itemValuesMatch(field, other) {
				return false
			}
		}
	default:
		for _, l := range left.children {
			match := false
			for _, r := range right.children {
				if itemValuesMatch(l, r) {
					match = true
					break
				}
			}
			if !match {
				return false
			}
		}
	}
	return true
}
