package xmp

import (
	"bytes"
	"testing"
	"time"
)

const titlePacket = `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about="" xmlns:dc="http://purl.org/dc/elements/1.1/">
   <dc:title>
    <rdf:Alt>
     <rdf:li xml:lang="en">E</rdf:li>
     <rdf:li xml:lang="en-US">EU</rdf:li>
     <rdf:li xml:lang="x-default">D</rdf:li>
    </rdf:Alt>
   </dc:title>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>`

func mustParse(t *testing.T, packet string) *Meta {
	t.Helper()
	m, err := ParseString(packet, nil)
	if err != nil {
		t.Fatalf("Failed to parse packet: %v", err)
	}
	return m
}

func TestMeta_SetGetDeleteProperty(t *testing.T) {
	m := New()

	if err := m.SetProperty(NsXMP, "CreatorTool", "xmpkit", NoOptions); err != nil {
		t.Fatalf("SetProperty failed: %v", err)
	}
	prop, ok, err := m.GetProperty(NsXMP, "CreatorTool")
	if err != nil || !ok {
		t.Fatalf("GetProperty failed: ok=%v err=%v", ok, err)
	}
	if prop.Value != "xmpkit" || !prop.Options.IsSimple() {
		t.Errorf("Unexpected property %+v", prop)
	}

	if !m.DoesPropertyExist(NsXMP, "xmp:CreatorTool") {
		t.Error("Expected prefixed lookup to find the property")
	}
	if _, ok, _ := m.GetProperty(NsXMP, "ModifyDate"); ok {
		t.Error("Expected missing property to report ok=false")
	}

	if !m.DeleteProperty(NsXMP, "CreatorTool") {
		t.Error("Expected DeleteProperty to report an existing property")
	}
	if m.DeleteProperty(NsXMP, "CreatorTool") {
		t.Error("Expected second DeleteProperty to report nothing deleted")
	}
	if m.Root().ChildrenLen() != 0 {
		t.Errorf("Expected empty schema to be removed, got %d schemas", m.Root().ChildrenLen())
	}
}

func TestMeta_SetPropertyErrors(t *testing.T) {
	m := New()

	tests := []struct {
		name    string
		ns      string
		prop    string
		value   string
		options PropertyOptions
		kind    ErrorKind
	}{
		{"empty namespace", "", "a", "v", NoOptions, KindBadSchema},
		{"empty name", NsDC, "", "v", NoOptions, KindBadXPath},
		{"array with value", NsDC, "subject", "v", ValueIsArray, KindBadOptions},
		{"struct and array", NsDC, "subject", "", ValueIsArray | ValueIsStruct, KindBadOptions},
		{"uri array", NsDC, "subject", "", ValueIsArray | ValueIsURI, KindBadOptions},
		{"invalid bits", NsDC, "subject", "v", PropertyOptions(0x1), KindBadOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.SetProperty(tt.ns, tt.prop, tt.value, tt.options)
			if KindOf(err) != tt.kind {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
		})
	}
	if m.Root().ChildrenLen() != 0 {
		t.Errorf("Failed sets must not leave nodes behind, got %s", m.Dump())
	}
}

func TestMeta_Arrays(t *testing.T) {
	m := New()

	for _, v := range []string{"a", "b", "c"} {
		if err := m.AppendArrayItem(NsDC, "subject", ValueIsArray, v, NoOptions); err != nil {
			t.Fatalf("AppendArrayItem(%s) failed: %v", v, err)
		}
	}
	count, err := m.CountArrayItems(NsDC, "subject")
	if err != nil || count != 3 {
		t.Fatalf("Expected 3 items, got %d (%v)", count, err)
	}

	if !m.DeleteArrayItem(NsDC, "subject", 2) {
		t.Fatal("Expected DeleteArrayItem to succeed")
	}
	item, ok, err := m.GetArrayItem(NsDC, "subject", 2)
	if err != nil || !ok || item.Value != "c" {
		t.Errorf("Expected item 2 to shift to 'c', got %+v ok=%v err=%v", item, ok, err)
	}
	last, _, _ := m.GetArrayItem(NsDC, "subject", -1)
	if last.Value != "c" {
		t.Errorf("Expected last item 'c', got %q", last.Value)
	}

	if err := m.InsertArrayItem(NsDC, "subject", 1, "z", NoOptions); err != nil {
		t.Fatalf("InsertArrayItem failed: %v", err)
	}
	if err := m.SetArrayItem(NsDC, "subject", 3, "y", NoOptions); err != nil {
		t.Fatalf("SetArrayItem failed: %v", err)
	}

	var got []string
	for i := 1; m.DoesArrayItemExist(NsDC, "subject", i); i++ {
		p, _, _ := m.GetArrayItem(NsDC, "subject", i)
		got = append(got, p.Value)
	}
	want := []string{"z", "a", "y"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Item %d: expected %q, got %q", i+1, want[i], got[i])
		}
	}

	if err := m.SetArrayItem(NsDC, "subject", 5, "x", NoOptions); KindOf(err) != KindBadIndex {
		t.Errorf("Expected BADINDEX, got %v", err)
	}
	if _, _, err := m.GetArrayItem(NsDC, "subject", 0); KindOf(err) != KindBadIndex {
		t.Errorf("Expected BADINDEX for index 0, got %v", err)
	}
	if err := m.AppendArrayItem(NsDC, "type", NoOptions, "x", NoOptions); KindOf(err) != KindBadXPath {
		t.Errorf("Expected BADXPATH creating array without form, got %v", err)
	}
	if err := m.AppendArrayItem(NsDC, "subject", ValueIsStruct, "x", NoOptions); KindOf(err) != KindBadOptions {
		t.Errorf("Expected BADOPTIONS for non-array form, got %v", err)
	}

	if err := m.SetProperty(NsDC, "format", "image/png", NoOptions); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CountArrayItems(NsDC, "format"); KindOf(err) != KindBadXPath {
		t.Errorf("Expected BADXPATH counting a simple property, got %v", err)
	}
	if n, err := m.CountArrayItems(NsDC, "language"); err != nil || n != 0 {
		t.Errorf("Expected missing array to count 0, got %d (%v)", n, err)
	}
}

func TestMeta_AliasTransparency(t *testing.T) {
	m := New()

	if err := m.SetProperty(NsPhotoshop, "Author", "X", NoOptions); err != nil {
		t.Fatalf("SetProperty through alias failed: %v", err)
	}
	item, ok, err := m.GetArrayItem(NsDC, "creator", 1)
	if err != nil || !ok {
		t.Fatalf("Expected dc:creator[1], ok=%v err=%v", ok, err)
	}
	if item.Value != "X" {
		t.Errorf("Expected 'X', got %q", item.Value)
	}

	creator, _, _ := m.GetProperty(NsDC, "creator")
	if !creator.Options.IsOrdered() {
		t.Errorf("Expected dc:creator to be an ordered array, got %v", creator.Options)
	}

	// Reading through another alias of the same base
	alias, ok, _ := m.GetPropertyString(NsTIFF, "Artist")
	if !ok || alias != "X" {
		t.Errorf("Expected tiff:Artist to read 'X', got %q", alias)
	}

	if err := m.SetProperty(NsPDF, "Title", "Report", NoOptions); err != nil {
		t.Fatalf("SetProperty through alt-text alias failed: %v", err)
	}
	title, ok, err := m.GetLocalizedText(NsDC, "title", "", XDefault)
	if err != nil || !ok || title.Value != "Report" {
		t.Errorf("Expected x-default title 'Report', got %+v ok=%v err=%v", title, ok, err)
	}
}

func TestMeta_StructFields(t *testing.T) {
	m := New()

	if err := m.SetStructField(NsXMPMM, "DerivedFrom", TypeResourceRef, "documentID", "uuid:1", NoOptions); err != nil {
		t.Fatalf("SetStructField failed: %v", err)
	}
	parent, ok, _ := m.GetProperty(NsXMPMM, "DerivedFrom")
	if !ok || !parent.Options.IsStruct() {
		t.Fatalf("Expected implicit struct, got %+v", parent)
	}
	field, ok, err := m.GetStructField(NsXMPMM, "DerivedFrom", TypeResourceRef, "documentID")
	if err != nil || !ok || field.Value != "uuid:1" {
		t.Errorf("Unexpected field %+v ok=%v err=%v", field, ok, err)
	}
	if !m.DeleteStructField(NsXMPMM, "DerivedFrom", TypeResourceRef, "documentID") {
		t.Error("Expected DeleteStructField to succeed")
	}
	if m.DoesStructFieldExist(NsXMPMM, "DerivedFrom", TypeResourceRef, "documentID") {
		t.Error("Expected field to be gone")
	}
	if _, _, err := m.GetStructField(NsXMPMM, "DerivedFrom", "http://nowhere/", "x"); KindOf(err) != KindBadSchema {
		t.Errorf("Expected BADSCHEMA for unregistered field namespace, got %v", err)
	}
}

func TestMeta_Qualifiers(t *testing.T) {
	m := New()

	if err := m.SetQualifier(NsDC, "source", TypeIdentifierQ, "Scheme", "isbn", NoOptions); KindOf(err) != KindBadXPath {
		t.Errorf("Expected BADXPATH qualifying a missing property, got %v", err)
	}
	if err := m.SetProperty(NsDC, "source", "978-3-16", NoOptions); err != nil {
		t.Fatal(err)
	}
	if err := m.SetQualifier(NsDC, "source", TypeIdentifierQ, "Scheme", "isbn", NoOptions); err != nil {
		t.Fatalf("SetQualifier failed: %v", err)
	}

	prop, _, _ := m.GetProperty(NsDC, "source")
	if !prop.Options.HasQualifiers() {
		t.Errorf("Expected HAS_QUALIFIER on property, got %v", prop.Options)
	}
	qual, ok, err := m.GetQualifier(NsDC, "source", TypeIdentifierQ, "Scheme")
	if err != nil || !ok || qual.Value != "isbn" || !qual.Options.IsQualifier() {
		t.Errorf("Unexpected qualifier %+v ok=%v err=%v", qual, ok, err)
	}

	if err := m.SetQualifier(NsDC, "source", NsXML, "lang", "de", NoOptions); err != nil {
		t.Fatal(err)
	}
	prop, _, _ = m.GetProperty(NsDC, "source")
	if prop.Language != "de" || !prop.Options.HasLanguage() {
		t.Errorf("Expected xml:lang 'de' on property, got %+v", prop)
	}
	if m.Root().Child(1).Child(1).Qualifier(1).Name != XMLLang {
		t.Error("Expected xml:lang to be the first qualifier")
	}

	if !m.DeleteQualifier(NsDC, "source", TypeIdentifierQ, "Scheme") {
		t.Error("Expected DeleteQualifier to succeed")
	}
	if m.DoesQualifierExist(NsDC, "source", TypeIdentifierQ, "Scheme") {
		t.Error("Expected qualifier to be gone")
	}
}

func TestMeta_TypedValues(t *testing.T) {
	m := New()

	if err := m.SetPropertyInt(NsXMP, "Rating", 5, NoOptions); err != nil {
		t.Fatal(err)
	}
	if v, ok, err := m.GetPropertyInt(NsXMP, "Rating"); err != nil || !ok || v != 5 {
		t.Errorf("GetPropertyInt = %d, %v, %v", v, ok, err)
	}

	if err := m.SetPropertyBool(NsXMPRights, "Marked", true, NoOptions); err != nil {
		t.Fatal(err)
	}
	if s, _, _ := m.GetPropertyString(NsXMPRights, "Marked"); s != "True" {
		t.Errorf("Expected canonical 'True', got %q", s)
	}
	if v, ok, err := m.GetPropertyBool(NsXMPRights, "Marked"); err != nil || !ok || !v {
		t.Errorf("GetPropertyBool = %v, %v, %v", v, ok, err)
	}

	if err := m.SetPropertyFloat(NsExif, "FNumber", 2.8, NoOptions); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := m.GetPropertyFloat(NsExif, "FNumber"); v != 2.8 {
		t.Errorf("Expected 2.8, got %v", v)
	}

	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if err := m.SetPropertyTime(NsXMP, "ModifyDate", when, NoOptions); err != nil {
		t.Fatal(err)
	}
	if s, _, _ := m.GetPropertyString(NsXMP, "ModifyDate"); s != "2024-03-01T12:30Z" {
		t.Errorf("Unexpected date string %q", s)
	}
	if got, ok, err := m.GetPropertyTime(NsXMP, "ModifyDate"); err != nil || !ok || !got.Equal(when) {
		t.Errorf("GetPropertyTime = %v, %v, %v", got, ok, err)
	}

	thumb := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}
	if err := m.SetPropertyBase64(NsXMP, "Thumb", thumb, NoOptions); err != nil {
		t.Fatal(err)
	}
	if got, _, err := m.GetPropertyBase64(NsXMP, "Thumb"); err != nil || !bytes.Equal(got, thumb) {
		t.Errorf("GetPropertyBase64 = %x, %v", got, err)
	}

	if err := m.SetProperty(NsXMP, "Label", "not a number", NoOptions); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.GetPropertyInt(NsXMP, "Label"); KindOf(err) != KindBadValue {
		t.Errorf("Expected BADVALUE, got %v", err)
	}

	if err := m.AppendArrayItem(NsDC, "subject", ValueIsArray, "a", NoOptions); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.GetPropertyInt(NsDC, "subject"); KindOf(err) != KindBadXPath {
		t.Errorf("Expected BADXPATH reading a typed value from an array, got %v", err)
	}
}

func TestMeta_GetLocalizedText(t *testing.T) {
	m := mustParse(t, titlePacket)

	tests := []struct {
		name              string
		generic, specific string
		want              string
		wantLang          string
	}{
		{"specific match", "en", "en-US", "EU", "en-US"},
		{"multiple generic", "en", "en-GB", "E", "en"},
		{"x-default fallback", "fr", "fr-FR", "D", "x-default"},
		{"unnormalized input", "EN", "en_us", "EU", "en-US"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prop, ok, err := m.GetLocalizedText(NsDC, "title", tt.generic, tt.specific)
			if err != nil || !ok {
				t.Fatalf("GetLocalizedText failed: ok=%v err=%v", ok, err)
			}
			if prop.Value != tt.want || prop.Language != tt.wantLang {
				t.Errorf("Expected %q (%s), got %q (%s)", tt.want, tt.wantLang, prop.Value, prop.Language)
			}
		})
	}

	if _, _, err := m.GetLocalizedText(NsDC, "title", "", ""); KindOf(err) != KindBadParam {
		t.Errorf("Expected BADPARAM for empty specific language, got %v", err)
	}
	if _, ok, err := m.GetLocalizedText(NsDC, "description", "", "en"); err != nil || ok {
		t.Errorf("Expected missing array to report ok=false, got ok=%v err=%v", ok, err)
	}
}

func TestMeta_SetLocalizedText(t *testing.T) {
	m := New()

	if err := m.SetLocalizedText(NsDC, "rights", "", "en-US", "(c) Acme"); err != nil {
		t.Fatalf("SetLocalizedText failed: %v", err)
	}
	count, _ := m.CountArrayItems(NsDC, "rights")
	if count != 2 {
		t.Fatalf("Expected x-default and en-US items, got %d", count)
	}
	first, _, _ := m.GetArrayItem(NsDC, "rights", 1)
	if first.Language != XDefault || first.Value != "(c) Acme" {
		t.Errorf("Expected x-default item first, got %+v", first)
	}

	// Updating the specific item keeps a matching x-default in step
	if err := m.SetLocalizedText(NsDC, "rights", "", "en-US", "(c) Acme Inc"); err != nil {
		t.Fatal(err)
	}
	xd, _, _ := m.GetLocalizedText(NsDC, "rights", "", XDefault)
	if xd.Value != "(c) Acme Inc" {
		t.Errorf("Expected x-default to follow the update, got %q", xd.Value)
	}

	if err := m.SetLocalizedText(NsDC, "rights", "de", "de-DE", "(c) Acme GmbH"); err != nil {
		t.Fatal(err)
	}
	de, _, _ := m.GetLocalizedText(NsDC, "rights", "", "de-DE")
	if de.Value != "(c) Acme GmbH" {
		t.Errorf("Expected de-DE item, got %+v", de)
	}
	xd, _, _ = m.GetLocalizedText(NsDC, "rights", "", XDefault)
	if xd.Value != "(c) Acme Inc" {
		t.Errorf("Adding a language must not touch x-default, got %q", xd.Value)
	}

	if err := m.AppendArrayItem(NsDC, "subject", ValueIsArray, "a", NoOptions); err != nil {
		t.Fatal(err)
	}
	if err := m.SetLocalizedText(NsDC, "subject", "", "en", "x"); KindOf(err) != KindBadXPath {
		t.Errorf("Expected BADXPATH for a non alt-text array, got %v", err)
	}
}

func TestMeta_Clone(t *testing.T) {
	m := mustParse(t, titlePacket)
	c := m.Clone()
	if err := c.SetLocalizedText(NsDC, "title", "", XDefault, "changed"); err != nil {
		t.Fatal(err)
	}
	orig, _, _ := m.GetLocalizedText(NsDC, "title", "", XDefault)
	if orig.Value != "D" {
		t.Errorf("Clone must not share nodes with the original, got %q", orig.Value)
	}
}
