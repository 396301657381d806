package xmp

import (
	"log/slog"
	"strings"
)

// PropertyOptions describes the kind of a node and how its value is to be
// interpreted.
type PropertyOptions uint32

const (
	NoOptions        PropertyOptions = 0
	ValueIsURI       PropertyOptions = 0x00000002
	HasQualifiers    PropertyOptions = 0x00000010
	IsQualifier      PropertyOptions = 0x00000020
	HasLanguage      PropertyOptions = 0x00000040
	HasType          PropertyOptions = 0x00000080
	ValueIsStruct    PropertyOptions = 0x00000100
	ValueIsArray     PropertyOptions = 0x00000200
	ArrayIsOrdered   PropertyOptions = 0x00000400
	ArrayIsAlternate PropertyOptions = 0x00000800
	ArrayIsAltText   PropertyOptions = 0x00001000
	DeleteExisting   PropertyOptions = 0x20000000
	SchemaNode       PropertyOptions = 0x80000000

	// compositeMask covers every flag that makes a node non-simple.
	compositeMask = ValueIsStruct | ValueIsArray | ArrayIsOrdered | ArrayIsAlternate | ArrayIsAltText

	validPropertyOptions = ValueIsURI | HasQualifiers | IsQualifier | HasLanguage | HasType |
		compositeMask | DeleteExisting | SchemaNode
)

// IsSimple reports whether neither struct nor array flags are set.
func (o PropertyOptions) IsSimple() bool { return o&compositeMask == 0 }

// IsURI reports whether the value is a URI.
func (o PropertyOptions) IsURI() bool { return o&ValueIsURI != 0 }

// IsStruct reports whether the node is a struct.
func (o PropertyOptions) IsStruct() bool { return o&ValueIsStruct != 0 }

// IsArray reports whether the node is an array of any form.
func (o PropertyOptions) IsArray() bool { return o&ValueIsArray != 0 }

// IsOrdered reports whether the array is a Seq or an Alt.
func (o PropertyOptions) IsOrdered() bool { return o&ArrayIsOrdered != 0 }

// IsAlternate reports whether the array is an Alt.
func (o PropertyOptions) IsAlternate() bool { return o&ArrayIsAlternate != 0 }

// IsAltText reports whether the array holds language alternatives.
func (o PropertyOptions) IsAltText() bool { return o&ArrayIsAltText != 0 }

// IsQualifier reports whether the node is a qualifier.
func (o PropertyOptions) IsQualifier() bool { return o&IsQualifier != 0 }

// HasQualifiers reports whether the node carries qualifiers.
func (o PropertyOptions) HasQualifiers() bool { return o&HasQualifiers != 0 }

// HasLanguage reports whether the node has an xml:lang qualifier.
func (o PropertyOptions) HasLanguage() bool { return o&HasLanguage != 0 }

// HasType reports whether the node has an rdf:type qualifier.
func (o PropertyOptions) HasType() bool { return o&HasType != 0 }

// IsSchemaNode reports whether the node is a top-level schema.
func (o PropertyOptions) IsSchemaNode() bool { return o&SchemaNode != 0 }

// DeleteExisting reports whether a set replaces the existing node.
func (o PropertyOptions) DeleteExisting() bool { return o&DeleteExisting != 0 }

// IsCompositeProperty reports whether the node is a struct or an array.
func (o PropertyOptions) IsCompositeProperty() bool { return o&(ValueIsStruct|ValueIsArray) != 0 }

// IsOnlyArrayOptions reports whether o contains nothing but array form flags.
func (o PropertyOptions) IsOnlyArrayOptions() bool {
	return o&^(ValueIsArray|ArrayIsOrdered|ArrayIsAlternate|ArrayIsAltText) == 0
}

// EqualArrayTypes reports whether o and other describe the same array form.
func (o PropertyOptions) EqualArrayTypes(other PropertyOptions) bool {
	return o.IsArray() == other.IsArray() &&
		o.IsOrdered() == other.IsOrdered() &&
		o.IsAlternate() == other.IsAlternate() &&
		o.IsAltText() == other.IsAltText()
}

// Set returns o with the bits of mask turned on or off.
func (o PropertyOptions) Set(mask PropertyOptions, on bool) PropertyOptions {
	if on {
		return o | mask
	}
	return o &^ mask
}

// ArrayForm keeps only the array form bits.
func (o PropertyOptions) ArrayForm() PropertyOptions {
	return o & (ValueIsArray | ArrayIsOrdered | ArrayIsAlternate | ArrayIsAltText)
}

// Validate checks the option consistency rules.
func (o PropertyOptions) Validate() error {
	if o&^validPropertyOptions != 0 {
		return Errorf(KindBadOptions, "the option bit(s) 0x%08x are invalid", uint32(o&^validPropertyOptions))
	}
	if o.IsStruct() && o.IsArray() {
		return Errorf(KindBadOptions, "IsStruct and IsArray options are mutually exclusive")
	}
	if o.IsURI() && o.IsCompositeProperty() {
		return Errorf(KindBadOptions, "structs and arrays can't have \"value\" options")
	}
	return nil
}

// verifySetOptions applies the array implications
// (AltText => Alternate => Ordered => Array) and, when a value is given,
// rejects composite forms.
func verifySetOptions(o PropertyOptions, hasValue bool) (PropertyOptions, error) {
	if o.IsAltText() {
		o |= ArrayIsAlternate
	}
	if o.IsAlternate() {
		o |= ArrayIsOrdered
	}
	if o.IsOrdered() {
		o |= ValueIsArray
	}
	if o.IsCompositeProperty() && hasValue {
		return o, Errorf(KindBadOptions, "structs and arrays can't have values")
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

func (o PropertyOptions) String() string {
	if o == 0 {
		return "<none>"
	}
	names := []struct {
		bit  PropertyOptions
		name string
	}{
		{ValueIsURI, "URI"},
		{HasQualifiers, "HAS_QUALIFIER"},
		{IsQualifier, "QUALIFIER"},
		{HasLanguage, "HAS_LANGUAGE"},
		{HasType, "HAS_TYPE"},
		{ValueIsStruct, "STRUCT"},
		{ValueIsArray, "ARRAY"},
		{ArrayIsOrdered, "ARRAY_ORDERED"},
		{ArrayIsAlternate, "ARRAY_ALTERNATE"},
		{ArrayIsAltText, "ARRAY_ALT_TEXT"},
		{DeleteExisting, "DELETE_EXISTING"},
		{SchemaNode, "SCHEMA_NODE"},
	}
	var parts []string
	for _, n := range names {
		if o&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " | ")
}

// ParseOptions controls how a packet is parsed and normalized.
type ParseOptions struct {
	// RequireXMPMeta demands an x:xmpmeta element around rdf:RDF.
	RequireXMPMeta bool
	// StrictAliasing reports a BADXMP error when an alias and its base
	// both exist with different values.
	StrictAliasing bool
	// OmitNormalization skips the normalizer passes.
	OmitNormalization bool
	// AcceptLatin1 retries a failed parse after converting stray
	// ISO-8859-1 bytes to UTF-8.
	AcceptLatin1 bool
	// FixControlChars replaces invalid control characters and numeric
	// character references with spaces before parsing.
	FixControlChars bool
	// Registry overrides the default process-wide registry.
	Registry *Registry
	// Logger receives debug output about repairs.
	Logger *slog.Logger
}
