package xmp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func roundTrip(t *testing.T, m *Meta, opts *SerializeOptions) *Meta {
	t.Helper()
	data, err := Serialize(m, opts)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	back, err := Parse(data, &ParseOptions{Registry: m.Registry()})
	if err != nil {
		t.Fatalf("Reparse failed: %v\n%s", err, data)
	}
	return back
}

func TestSerialize_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts *SerializeOptions
	}{
		{"canonical", nil},
		{"compact", &SerializeOptions{UseCompactFormat: true}},
		{"no wrapper", &SerializeOptions{OmitPacketWrapper: true, OmitXMPMetaElement: true}},
		{"utf-16", &SerializeOptions{Encoding: EncodingUTF16LE}},
		{"utf-32", &SerializeOptions{Encoding: EncodingUTF32BE, UseCompactFormat: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseString(fullPacket, &ParseOptions{Registry: NewRegistry()})
			if err != nil {
				t.Fatal(err)
			}
			back := roundTrip(t, m, tt.opts)
			m.Sort()
			back.Sort()
			if diff := cmp.Diff(m.Dump(), back.Dump()); diff != "" {
				t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSerialize_Canonical(t *testing.T) {
	m := New()
	if err := m.SetProperty(NsXMP, "CreatorTool", "xmpkit", NoOptions); err != nil {
		t.Fatal(err)
	}
	if err := m.AppendArrayItem(NsDC, "subject", ValueIsArray, "a", NoOptions); err != nil {
		t.Fatal(err)
	}

	out, err := SerializeToString(m, &SerializeOptions{OmitPacketWrapper: true})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	want := `<x:xmpmeta xmlns:x="adobe:ns:meta/" x:xmptk="` + DefaultToolkit + `">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <rdf:Description rdf:about=""
        xmlns:xmp="http://ns.adobe.com/xap/1.0/"
        xmlns:dc="http://purl.org/dc/elements/1.1/">
      <xmp:CreatorTool>xmpkit</xmp:CreatorTool>
      <dc:subject>
        <rdf:Bag>
          <rdf:li>a</rdf:li>
        </rdf:Bag>
      </dc:subject>
    </rdf:Description>
  </rdf:RDF>
</x:xmpmeta>
`
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Unexpected output (-want +got):\n%s", diff)
	}
}

func TestSerialize_Compact(t *testing.T) {
	m := New()
	if err := m.SetProperty(NsXMP, "CreatorTool", "xmpkit", NoOptions); err != nil {
		t.Fatal(err)
	}

	out, err := SerializeToString(m, &SerializeOptions{OmitPacketWrapper: true, UseCompactFormat: true, Indent: "\t"})
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	want := "<x:xmpmeta xmlns:x=\"adobe:ns:meta/\" x:xmptk=\"" + DefaultToolkit + "\">\n" +
		"\t<rdf:RDF xmlns:rdf=\"http://www.w3.org/1999/02/22-rdf-syntax-ns#\">\n" +
		"\t\t<rdf:Description rdf:about=\"\"\n" +
		"\t\t\t\txmlns:xmp=\"http://ns.adobe.com/xap/1.0/\"\n" +
		"\t\t\txmp:CreatorTool=\"xmpkit\"/>\n" +
		"\t</rdf:RDF>\n" +
		"</x:xmpmeta>\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("Unexpected output (-want +got):\n%s", diff)
	}
}

func TestSerialize_Empty(t *testing.T) {
	out, err := SerializeToString(New(), &SerializeOptions{OmitPacketWrapper: true, OmitXMPMetaElement: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "<rdf:RDF xmlns:rdf=\"http://www.w3.org/1999/02/22-rdf-syntax-ns#\">\n" +
		"  <rdf:Description rdf:about=\"\"/>\n" +
		"</rdf:RDF>\n"
	if out != want {
		t.Errorf("Expected %q, got %q", want, out)
	}
}

func TestSerialize_Packet(t *testing.T) {
	m := mustParse(t, titlePacket)

	out, err := SerializeToString(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, packetHeader+"\n") {
		t.Errorf("Expected xpacket header, got %q", out[:60])
	}
	if !strings.HasSuffix(out, `<?xpacket end="w"?>`) {
		t.Errorf("Expected writable trailer, got %q", out[len(out)-30:])
	}
	if !strings.Contains(out, strings.Repeat(" ", 100)+"\n") {
		t.Error("Expected padding lines")
	}

	readOnly, err := SerializeToString(m, &SerializeOptions{ReadOnlyPacket: true})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(readOnly, `<?xpacket end="r"?>`) {
		t.Errorf("Expected read-only trailer, got %q", readOnly[len(readOnly)-30:])
	}
	if len(readOnly) >= len(out) {
		t.Error("Read-only packets carry no padding")
	}

	thumb, err := SerializeToString(m, &SerializeOptions{IncludeThumbnailPad: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(thumb)-len(out) != thumbnailPadding {
		t.Errorf("Expected %d extra bytes of thumbnail padding, got %d", thumbnailPadding, len(thumb)-len(out))
	}

	unpadded, err := SerializeToString(m, &SerializeOptions{Padding: -1})
	if err != nil {
		t.Fatal(err)
	}
	if len(out)-len(unpadded) != defaultPadding {
		t.Errorf("Expected %d bytes of default padding, got %d", defaultPadding, len(out)-len(unpadded))
	}
}

func TestSerialize_ExactLength(t *testing.T) {
	m := mustParse(t, titlePacket)

	tests := []struct {
		name     string
		encoding Encoding
		size     int
	}{
		{"utf-8", EncodingUTF8, 4096},
		{"utf-16", EncodingUTF16BE, 8192},
		{"utf-32", EncodingUTF32LE, 16384},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Serialize(m, &SerializeOptions{ExactPacketLength: true, Padding: tt.size, Encoding: tt.encoding})
			if err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}
			if len(data) != tt.size {
				t.Errorf("Expected exactly %d bytes, got %d", tt.size, len(data))
			}
			if _, err := Parse(data, nil); err != nil {
				t.Errorf("Exact length packet does not parse: %v", err)
			}
		})
	}

	if _, err := Serialize(m, &SerializeOptions{ExactPacketLength: true, Padding: 100}); KindOf(err) != KindBadSerialize {
		t.Errorf("Expected BADSERIALIZE for a too small packet, got %v", err)
	}
}

func TestSerialize_OptionErrors(t *testing.T) {
	m := mustParse(t, titlePacket)

	tests := []struct {
		name string
		opts SerializeOptions
	}{
		{"exact without wrapper", SerializeOptions{ExactPacketLength: true, OmitPacketWrapper: true, Padding: 4096}},
		{"exact with thumbnail", SerializeOptions{ExactPacketLength: true, IncludeThumbnailPad: true, Padding: 4096}},
		{"exact odd size utf-16", SerializeOptions{ExactPacketLength: true, Padding: 4097, Encoding: EncodingUTF16LE}},
		{"read-only without wrapper", SerializeOptions{ReadOnlyPacket: true, OmitPacketWrapper: true}},
		{"read-only with thumbnail", SerializeOptions{ReadOnlyPacket: true, IncludeThumbnailPad: true}},
		{"no wrapper with thumbnail", SerializeOptions{OmitPacketWrapper: true, IncludeThumbnailPad: true}},
		{"negative base indent", SerializeOptions{BaseIndent: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Serialize(m, &tt.opts); KindOf(err) != KindBadOptions {
				t.Errorf("Expected BADOPTIONS, got %v", err)
			}
		})
	}
}

func TestSerialize_Escaping(t *testing.T) {
	m := New()
	value := "a < b & \"c\"\n\td"
	if err := m.SetProperty(NsXMP, "Label", value, NoOptions); err != nil {
		t.Fatal(err)
	}
	if err := m.SetProperty(NsXMP, "Nickname", value, NoOptions); err != nil {
		t.Fatal(err)
	}
	if err := m.SetQualifier(NsXMP, "Nickname", NsXML, "lang", "en", NoOptions); err != nil {
		t.Fatal(err)
	}

	for _, compact := range []bool{false, true} {
		back := roundTrip(t, m, &SerializeOptions{UseCompactFormat: compact})
		for _, prop := range []string{"Label", "Nickname"} {
			if got, _, _ := back.GetPropertyString(NsXMP, prop); got != value {
				t.Errorf("compact=%v %s: expected %q, got %q", compact, prop, value, got)
			}
		}
	}
}

func TestSerialize_SortAndFormatting(t *testing.T) {
	m := New()
	for _, name := range []string{"Rating", "Label", "CreatorTool"} {
		if err := m.SetProperty(NsXMP, name, "x", NoOptions); err != nil {
			t.Fatal(err)
		}
	}

	out, err := SerializeToString(m, &SerializeOptions{Sort: true, OmitPacketWrapper: true, Newline: "\r\n", BaseIndent: 1})
	if err != nil {
		t.Fatal(err)
	}
	creator := strings.Index(out, "xmp:CreatorTool")
	label := strings.Index(out, "xmp:Label")
	rating := strings.Index(out, "xmp:Rating")
	if creator >= label || label >= rating {
		t.Errorf("Expected sorted properties, got\n%s", out)
	}
	if strings.Count(out, "\r\n") != strings.Count(out, "\n") {
		t.Error("Expected every line break to use the configured newline")
	}
	if !strings.HasPrefix(out, "  <x:xmpmeta") {
		t.Errorf("Expected base indent on the first line, got %q", out[:20])
	}
}

func TestSerialize_UTF16Output(t *testing.T) {
	m := mustParse(t, titlePacket)
	enc, err := ParseEncoding("UTF-16LE")
	if err != nil {
		t.Fatal(err)
	}
	data, err := Serialize(m, &SerializeOptions{Encoding: enc, OmitPacketWrapper: true})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{'<', 0, 'x', 0}) {
		t.Errorf("Expected little endian UTF-16, got % x", data[:4])
	}
	if _, err := ParseEncoding("latin1"); KindOf(err) != KindBadOptions {
		t.Errorf("Expected BADOPTIONS for unknown encoding, got %v", err)
	}
}
