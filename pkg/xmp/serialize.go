package xmp

import (
	"strings"

	"github.com/aleksaelezovic/xmpkit/internal/encoding"
)

// Encoding selects the character encoding of serialized output.
type Encoding int

const (
	EncodingUTF8 Encoding = iota
	EncodingUTF16BE
	EncodingUTF16LE
	EncodingUTF32BE
	EncodingUTF32LE
)

func (e Encoding) charset() encoding.Charset {
	switch e {
	case EncodingUTF16BE:
		return encoding.UTF16BE
	case EncodingUTF16LE:
		return encoding.UTF16LE
	case EncodingUTF32BE:
		return encoding.UTF32BE
	case EncodingUTF32LE:
		return encoding.UTF32LE
	default:
		return encoding.UTF8
	}
}

func (e Encoding) String() string { return e.charset().String() }

// ParseEncoding maps a name such as "UTF-16LE" to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	cs, err := encoding.ParseCharset(name)
	if err != nil {
		return EncodingUTF8, WrapError(KindBadOptions, err, "invalid encoding")
	}
	switch cs {
	case encoding.UTF16BE:
		return EncodingUTF16BE, nil
	case encoding.UTF16LE:
		return EncodingUTF16LE, nil
	case encoding.UTF32BE:
		return EncodingUTF32BE, nil
	case encoding.UTF32LE:
		return EncodingUTF32LE, nil
	}
	return EncodingUTF8, nil
}

const (
	defaultPadding   = 2048
	thumbnailPadding = 10000
	defaultIndent    = "  "
	defaultNewline   = "\n"
)

// SerializeOptions controls packet output. The zero value produces a
// canonical UTF-8 packet with the default padding.
type SerializeOptions struct {
	OmitPacketWrapper  bool
	ReadOnlyPacket     bool
	UseCompactFormat   bool
	OmitXMPMetaElement bool
	// IncludeThumbnailPad adds room for a thumbnail unless xmp:Thumbnails
	// is already present.
	IncludeThumbnailPad bool
	// ExactPacketLength makes Padding the total packet size in bytes.
	ExactPacketLength bool
	Sort              bool
	Encoding          Encoding

	// Padding is the number of padding bytes. Zero selects 2048 units of
	// the output encoding; a negative value disables padding.
	Padding    int
	Indent     string
	Newline    string
	BaseIndent int
}

var rdfAttrQualifiers = map[string]bool{
	XMLLang:        true,
	"rdf:resource": true,
	"rdf:ID":       true,
	"rdf:bagID":    true,
	"rdf:nodeID":   true,
}

const (
	packetHeader  = "<?xpacket begin=\"\uFEFF\" id=\"" + PacketID + "\"?>"
	packetTrailer = "<?xpacket end=\""
	xmpMetaStart  = "<x:xmpmeta xmlns:x=\"" + NsX + "\" x:xmptk=\""
	xmpMetaEnd    = "</x:xmpmeta>"
	rdfStart      = "<rdf:RDF xmlns:rdf=\"" + NsRDF + "\">"
	rdfEnd        = "</rdf:RDF>"
	schemaStart   = "<rdf:Description rdf:about="
	schemaEnd     = "</rdf:Description>"
	structStart   = "<rdf:Description"
	structEnd     = "</rdf:Description>"
	emptyStruct   = "<rdf:Description/>"
)

// Serialize renders m as RDF/XML.
func Serialize(m *Meta, opts *SerializeOptions) ([]byte, error) {
	var o SerializeOptions
	if opts != nil {
		o = *opts
	}
	if o.Indent == "" {
		o.Indent = defaultIndent
	}
	if o.Newline == "" {
		o.Newline = defaultNewline
	}
	if o.Sort {
		m.Sort()
	}
	s := &serializer{meta: m, opts: o, unitSize: o.Encoding.charset().UnitSize()}
	return s.serialize()
}

// SerializeToString renders m as a UTF-8 string. The Encoding option is
// ignored.
func SerializeToString(m *Meta, opts *SerializeOptions) (string, error) {
	var o SerializeOptions
	if opts != nil {
		o = *opts
	}
	o.Encoding = EncodingUTF8
	data, err := Serialize(m, &o)
	return string(data), err
}

type serializer struct {
	meta     *Meta
	opts     SerializeOptions
	unitSize int
	padding  int
	b        strings.Builder
}

func (s *serializer) serialize() ([]byte, error) {
	if err := s.checkOptions(); err != nil {
		return nil, err
	}
	tail, err := s.serializeAsRDF()
	if err != nil {
		return nil, err
	}

	cs := s.opts.Encoding.charset()
	payload, err := encoding.FromUTF8(s.b.String(), cs)
	if err != nil {
		return nil, WrapError(KindBadSerialize, err, "failed to encode packet")
	}
	s.b.Reset()
	if err := s.addPadding(len(payload), len(tail)); err != nil {
		return nil, err
	}
	s.b.WriteString(tail)
	rest, err := encoding.FromUTF8(s.b.String(), cs)
	if err != nil {
		return nil, WrapError(KindBadSerialize, err, "failed to encode packet")
	}
	return append(payload, rest...), nil
}

func (s *serializer) checkOptions() error {
	o := s.opts
	s.padding = o.Padding
	switch {
	case o.ExactPacketLength:
		if o.OmitPacketWrapper || o.IncludeThumbnailPad {
			return Errorf(KindBadOptions, "inconsistent options for exact size serialize")
		}
		if o.Padding < 0 || o.Padding%s.unitSize != 0 {
			return Errorf(KindBadOptions, "exact size must be a multiple of the Unicode element")
		}
	case o.ReadOnlyPacket:
		if o.OmitPacketWrapper || o.IncludeThumbnailPad {
			return Errorf(KindBadOptions, "inconsistent options for read-only packet")
		}
		s.padding = 0
	case o.OmitPacketWrapper:
		if o.IncludeThumbnailPad {
			return Errorf(KindBadOptions, "inconsistent options for non-packet serialize")
		}
		s.padding = 0
	default:
		switch {
		case s.padding == 0:
			s.padding = defaultPadding * s.unitSize
		case s.padding < 0:
			s.padding = 0
		}
		if o.IncludeThumbnailPad && !s.meta.DoesPropertyExist(NsXMP, "Thumbnails") {
			s.padding += thumbnailPadding * s.unitSize
		}
	}
	if o.BaseIndent < 0 {
		return Errorf(KindBadOptions, "negative base indent")
	}
	return nil
}

// addPadding writes the padding. In exact mode the written payload plus
// the trailer must fit into the requested length.
func (s *serializer) addPadding(written, tailLen int) error {
	if s.opts.ExactPacketLength {
		minSize := written + tailLen*s.unitSize
		if minSize > s.padding {
			return Errorf(KindBadSerialize, "can't fit into specified packet size")
		}
		s.padding -= minSize
	}

	padding := s.padding / s.unitSize
	newlineLen := len(s.opts.Newline)
	if padding < newlineLen {
		s.b.WriteString(strings.Repeat(" ", padding))
		return nil
	}
	padding -= newlineLen
	for padding >= 100+newlineLen {
		s.b.WriteString(strings.Repeat(" ", 100))
		s.b.WriteString(s.opts.Newline)
		padding -= 100 + newlineLen
	}
	s.b.WriteString(strings.Repeat(" ", padding))
	s.b.WriteString(s.opts.Newline)
	return nil
}

func (s *serializer) write(str string) { s.b.WriteString(str) }
func (s *serializer) writeNewline()    { s.b.WriteString(s.opts.Newline) }

func (s *serializer) writeIndent(times int) {
	for i := s.opts.BaseIndent + times; i > 0; i-- {
		s.b.WriteString(s.opts.Indent)
	}
}

// serializeAsRDF writes everything up to the trailer and returns the
// trailer, which is written after the padding.
func (s *serializer) serializeAsRDF() (string, error) {
	level := 0
	if !s.opts.OmitPacketWrapper {
		s.writeIndent(level)
		s.write(packetHeader)
		s.writeNewline()
	}
	if !s.opts.OmitXMPMetaElement {
		s.writeIndent(level)
		s.write(xmpMetaStart)
		s.write(DefaultToolkit)
		s.write("\">")
		s.writeNewline()
		level++
	}

	s.writeIndent(level)
	s.write(rdfStart)
	s.writeNewline()

	var err error
	if s.opts.UseCompactFormat {
		err = s.serializeCompactSchemas(level)
	} else {
		err = s.serializeCanonicalSchemas(level)
	}
	if err != nil {
		return "", err
	}

	s.writeIndent(level)
	s.write(rdfEnd)
	s.writeNewline()
	if !s.opts.OmitXMPMetaElement {
		level--
		s.writeIndent(level)
		s.write(xmpMetaEnd)
		s.writeNewline()
	}

	if s.opts.OmitPacketWrapper {
		return "", nil
	}
	var tail strings.Builder
	for i := s.opts.BaseIndent; i > 0; i-- {
		tail.WriteString(s.opts.Indent)
	}
	tail.WriteString(packetTrailer)
	if s.opts.ReadOnlyPacket {
		tail.WriteByte('r')
	} else {
		tail.WriteByte('w')
	}
	tail.WriteString("\"?>")
	return tail.String(), nil
}

func (s *serializer) writeTreeName() {
	s.write("\"")
	s.appendNodeValue(s.meta.tree.Name, true)
	s.write("\"")
}

func (s *serializer) serializeCanonicalSchemas(level int) error {
	root := s.meta.tree
	if !root.HasChildren() {
		s.writeIndent(level + 1)
		s.write(schemaStart)
		s.writeTreeName()
		s.write("/>")
		s.writeNewline()
		return nil
	}

	s.writeIndent(level + 1)
	s.write(schemaStart)
	s.writeTreeName()
	used := map[string]bool{"xml": true, "rdf": true}
	s.declareUsedNamespaces(root, used, level+3)
	s.write(">")
	s.writeNewline()

	for _, schema := range root.children {
		for _, prop := range schema.children {
			if err := s.serializeCanonicalProperty(prop, true, false, level+2); err != nil {
				return err
			}
		}
	}

	s.writeIndent(level + 1)
	s.write(schemaEnd)
	s.writeNewline()
	return nil
}

func (s *serializer) declareUsedNamespaces(n *Node, used map[string]bool, indent int) {
	switch {
	case n.Options.IsSchemaNode():
		s.declareNamespace(n.Value, n.Name, used, indent)
	case n.Options.IsStruct():
		for _, field := range n.children {
			s.declareQNamePrefix(field.Name, used, indent)
		}
	}
	for _, child := range n.children {
		s.declareUsedNamespaces(child, used, indent)
	}
	for _, qual := range n.qualifiers {
		s.declareQNamePrefix(qual.Name, used, indent)
		s.declareUsedNamespaces(qual, used, indent)
	}
}

func (s *serializer) declareQNamePrefix(qname string, used map[string]bool, indent int) {
	colon := strings.IndexByte(qname, ':')
	if colon <= 0 {
		return
	}
	prefix := qname[:colon]
	if uri, ok := s.meta.reg.NamespaceURI(prefix); ok {
		s.declareNamespace(prefix, uri, used, indent)
	}
}

func (s *serializer) declareNamespace(prefix, uri string, used map[string]bool, indent int) {
	if used[prefix] {
		return
	}
	s.writeNewline()
	s.writeIndent(indent)
	s.write("xmlns:" + prefix + "=\"")
	s.appendNodeValue(uri, true)
	s.write("\"")
	used[prefix] = true
}

// serializeCanonicalProperty writes one property element. With
// emitAsRDFValue the node's value is written as rdf:value of a qualified
// property.
func (s *serializer) serializeCanonicalProperty(n *Node, useCanonical, emitAsRDFValue bool, indent int) error {
	emitEndTag, indentEndTag := true, true

	elemName := n.Name
	if emitAsRDFValue {
		elemName = "rdf:value"
	} else if elemName == ArrayItemName {
		elemName = "rdf:li"
	}
	s.writeIndent(indent)
	s.write("<" + elemName)

	hasGeneralQualifiers, hasRDFResourceQual := false, false
	for _, q := range n.qualifiers {
		if !rdfAttrQualifiers[q.Name] {
			hasGeneralQualifiers = true
			continue
		}
		if q.Name == "rdf:resource" {
			hasRDFResourceQual = true
		}
		if !emitAsRDFValue {
			s.writeAttr(q.Name, q.Value)
		}
	}

	switch {
	case hasGeneralQualifiers && !emitAsRDFValue:
		if hasRDFResourceQual {
			return Errorf(KindBadRDF, "can't mix rdf:resource and general qualifiers")
		}
		if useCanonical {
			s.write(">")
			s.writeNewline()
			indent++
			s.writeIndent(indent)
			s.write(structStart + ">")
		} else {
			s.write(" rdf:parseType=\"Resource\">")
		}
		s.writeNewline()
		if err := s.serializeCanonicalProperty(n, useCanonical, true, indent+1); err != nil {
			return err
		}
		for _, q := range n.qualifiers {
			if rdfAttrQualifiers[q.Name] {
				continue
			}
			if err := s.serializeCanonicalProperty(q, useCanonical, false, indent+1); err != nil {
				return err
			}
		}
		if useCanonical {
			s.writeIndent(indent)
			s.write(structEnd)
			s.writeNewline()
			indent--
		}

	case !n.Options.IsCompositeProperty():
		emitEndTag, indentEndTag = s.serializeSimpleValue(n)

	case n.Options.IsArray():
		s.write(">")
		s.writeNewline()
		s.emitRDFArrayTag(n, true, indent+1)
		if n.Options.IsAltText() {
			normalizeLangArray(n)
		}
		for _, item := range n.children {
			if err := s.serializeCanonicalProperty(item, useCanonical, false, indent+2); err != nil {
				return err
			}
		}
		s.emitRDFArrayTag(n, false, indent+1)

	case !hasRDFResourceQual:
		if !n.HasChildren() {
			if useCanonical {
				s.write(">")
				s.writeNewline()
				s.writeIndent(indent + 1)
				s.write(emptyStruct)
			} else {
				s.write(" rdf:parseType=\"Resource\"/>")
				emitEndTag = false
			}
			s.writeNewline()
			break
		}
		if useCanonical {
			s.write(">")
			s.writeNewline()
			indent++
			s.writeIndent(indent)
			s.write(structStart + ">")
		} else {
			s.write(" rdf:parseType=\"Resource\">")
		}
		s.writeNewline()
		for _, field := range n.children {
			if err := s.serializeCanonicalProperty(field, useCanonical, false, indent+1); err != nil {
				return err
			}
		}
		if useCanonical {
			s.writeIndent(indent)
			s.write(structEnd)
			s.writeNewline()
			indent--
		}

	default:
		// A struct with rdf:resource: every field becomes an attribute.
		for _, field := range n.children {
			if !canBeRDFAttrProp(field) {
				return Errorf(KindBadRDF, "can't mix rdf:resource and complex fields")
			}
			s.writeNewline()
			s.writeIndent(indent + 1)
			s.writeAttr(field.Name, field.Value)
		}
		s.write("/>")
		s.writeNewline()
		emitEndTag = false
	}

	if emitEndTag {
		if indentEndTag {
			s.writeIndent(indent)
		}
		s.write("</" + elemName + ">")
		s.writeNewline()
	}
	return nil
}

// serializeSimpleValue finishes the start tag of a simple property and
// writes its value. It reports whether an end tag is needed and whether it
// is indented.
func (s *serializer) serializeSimpleValue(n *Node) (emitEndTag, indentEndTag bool) {
	switch {
	case n.Options.IsURI():
		s.write(" rdf:resource=\"")
		s.appendNodeValue(n.Value, true)
		s.write("\"/>")
		s.writeNewline()
		return false, false
	case n.Value == "":
		s.write("/>")
		s.writeNewline()
		return false, false
	default:
		s.write(">")
		s.appendNodeValue(n.Value, false)
		return true, false
	}
}

func (s *serializer) emitRDFArrayTag(array *Node, isStartTag bool, indent int) {
	if !isStartTag && !array.HasChildren() {
		return
	}
	s.writeIndent(indent)
	if isStartTag {
		s.write("<rdf:")
	} else {
		s.write("</rdf:")
	}
	switch {
	case array.Options.IsAlternate():
		s.write("Alt")
	case array.Options.IsOrdered():
		s.write("Seq")
	default:
		s.write("Bag")
	}
	if isStartTag && !array.HasChildren() {
		s.write("/>")
	} else {
		s.write(">")
	}
	s.writeNewline()
}

func (s *serializer) serializeCompactSchemas(level int) error {
	root := s.meta.tree
	s.writeIndent(level + 1)
	s.write(schemaStart)
	s.writeTreeName()

	used := map[string]bool{"xml": true, "rdf": true}
	for _, schema := range root.children {
		s.declareUsedNamespaces(schema, used, level+3)
	}

	allAreAttrs := true
	for _, schema := range root.children {
		if !s.serializeCompactAttrProps(schema, level+2) {
			allAreAttrs = false
		}
	}
	if allAreAttrs {
		s.write("/>")
		s.writeNewline()
		return nil
	}
	s.write(">")
	s.writeNewline()

	for _, schema := range root.children {
		if err := s.serializeCompactElementProps(schema, level+2); err != nil {
			return err
		}
	}
	s.writeIndent(level + 1)
	s.write(schemaEnd)
	s.writeNewline()
	return nil
}

// serializeCompactAttrProps writes the attribute-form children of parent
// and reports whether all children could be written that way.
func (s *serializer) serializeCompactAttrProps(parent *Node, indent int) bool {
	allAreAttrs := true
	for _, prop := range parent.children {
		if !canBeRDFAttrProp(prop) {
			allAreAttrs = false
			continue
		}
		s.writeNewline()
		s.writeIndent(indent)
		s.write(prop.Name + "=\"")
		s.appendNodeValue(prop.Value, true)
		s.write("\"")
	}
	return allAreAttrs
}

func (s *serializer) serializeCompactElementProps(parent *Node, indent int) error {
	for _, n := range parent.children {
		if canBeRDFAttrProp(n) {
			continue
		}
		emitEndTag, indentEndTag := true, true

		elemName := n.Name
		if elemName == ArrayItemName {
			elemName = "rdf:li"
		}
		s.writeIndent(indent)
		s.write("<" + elemName)

		hasGeneralQualifiers, hasRDFResourceQual := false, false
		for _, q := range n.qualifiers {
			if !rdfAttrQualifiers[q.Name] {
				hasGeneralQualifiers = true
				continue
			}
			if q.Name == "rdf:resource" {
				hasRDFResourceQual = true
			}
			s.writeAttr(q.Name, q.Value)
		}

		var err error
		switch {
		case hasGeneralQualifiers:
			if hasRDFResourceQual {
				return Errorf(KindBadRDF, "can't mix rdf:resource and general qualifiers")
			}
			err = s.serializeCompactGeneralQualifier(n, indent)
		case !n.Options.IsCompositeProperty():
			emitEndTag, indentEndTag = s.serializeSimpleValue(n)
		case n.Options.IsArray():
			err = s.serializeCompactArrayProp(n, indent)
		default:
			emitEndTag, err = s.serializeCompactStructProp(n, indent, hasRDFResourceQual)
		}
		if err != nil {
			return err
		}

		if emitEndTag {
			if indentEndTag {
				s.writeIndent(indent)
			}
			s.write("</" + elemName + ">")
			s.writeNewline()
		}
	}
	return nil
}

func (s *serializer) serializeCompactGeneralQualifier(n *Node, indent int) error {
	s.write(" rdf:parseType=\"Resource\">")
	s.writeNewline()
	if err := s.serializeCanonicalProperty(n, false, true, indent+1); err != nil {
		return err
	}
	for _, q := range n.qualifiers {
		if rdfAttrQualifiers[q.Name] {
			continue
		}
		if err := s.serializeCanonicalProperty(q, false, false, indent+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *serializer) serializeCompactArrayProp(n *Node, indent int) error {
	s.write(">")
	s.writeNewline()
	s.emitRDFArrayTag(n, true, indent+1)
	if n.Options.IsAltText() {
		normalizeLangArray(n)
	}
	if err := s.serializeCompactElementProps(n, indent+2); err != nil {
		return err
	}
	s.emitRDFArrayTag(n, false, indent+1)
	return nil
}

func (s *serializer) serializeCompactStructProp(n *Node, indent int, hasRDFResourceQual bool) (bool, error) {
	hasAttrFields, hasElemFields := false, false
	for _, field := range n.children {
		if canBeRDFAttrProp(field) {
			hasAttrFields = true
		} else {
			hasElemFields = true
		}
		if hasAttrFields && hasElemFields {
			break
		}
	}
	if hasRDFResourceQual && hasElemFields {
		return false, Errorf(KindBadRDF, "can't mix rdf:resource qualifier and element fields")
	}

	switch {
	case !n.HasChildren():
		// An empty element would come back as an empty simple value.
		s.write(" rdf:parseType=\"Resource\"/>")
		s.writeNewline()
		return false, nil
	case !hasElemFields:
		s.serializeCompactAttrProps(n, indent+1)
		s.write("/>")
		s.writeNewline()
		return false, nil
	case !hasAttrFields:
		s.write(" rdf:parseType=\"Resource\">")
		s.writeNewline()
		return true, s.serializeCompactElementProps(n, indent+1)
	default:
		s.write(">")
		s.writeNewline()
		s.writeIndent(indent + 1)
		s.write(structStart)
		s.serializeCompactAttrProps(n, indent+2)
		s.write(">")
		s.writeNewline()
		if err := s.serializeCompactElementProps(n, indent+1); err != nil {
			return false, err
		}
		s.writeIndent(indent + 1)
		s.write(structEnd)
		s.writeNewline()
		return true, nil
	}
}

func canBeRDFAttrProp(n *Node) bool {
	return !n.HasQualifier() && !n.Options.IsURI() && !n.Options.IsCompositeProperty() && n.Name != ArrayItemName
}

func (s *serializer) writeAttr(name, value string) {
	s.write(" " + name + "=\"")
	s.appendNodeValue(value, true)
	s.write("\"")
}

func (s *serializer) appendNodeValue(value string, forAttribute bool) {
	s.write(escapeXML(value, forAttribute))
}

// escapeXML escapes markup characters; tabs and line breaks become
// character references so they survive attribute normalization.
func escapeXML(value string, forAttribute bool) string {
	if !strings.ContainsAny(value, "<>&\t\n\r\"") {
		return value
	}
	var b strings.Builder
	b.Grow(len(value) + 8)
	for _, r := range value {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		case '\t':
			b.WriteString("&#x9;")
		case '\n':
			b.WriteString("&#xA;")
		case '\r':
			b.WriteString("&#xD;")
		case '"':
			if forAttribute {
				b.WriteString("&quot;")
			} else {
				b.WriteByte('"')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
