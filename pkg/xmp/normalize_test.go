package xmp

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize_DCArrays(t *testing.T) {
	m := mustParse(t, wrapDescription(`
		<dc:creator>Jane</dc:creator>
		<dc:subject>travel</dc:subject>
		<dc:title>Holiday</dc:title>
		<dc:description xml:lang="de">Urlaub</dc:description>
		<dc:format>image/jpeg</dc:format>`))

	tests := []struct {
		name string
		form PropertyOptions
	}{
		{"creator", ValueIsArray | ArrayIsOrdered},
		{"subject", ValueIsArray},
		{"title", aliasToAltText},
		{"description", aliasToAltText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prop, ok, _ := m.GetProperty(NsDC, tt.name)
			if !ok {
				t.Fatalf("dc:%s missing", tt.name)
			}
			if prop.Options.ArrayForm() != tt.form {
				t.Errorf("Expected form %v, got %v", tt.form, prop.Options.ArrayForm())
			}
			if n, _ := m.CountArrayItems(NsDC, tt.name); n != 1 {
				t.Errorf("Expected one item, got %d", n)
			}
		})
	}

	title, _, _ := m.GetArrayItem(NsDC, "title", 1)
	if title.Value != "Holiday" || title.Language != XDefault {
		t.Errorf("Expected x-default item for promoted title, got %+v", title)
	}
	desc, _, _ := m.GetArrayItem(NsDC, "description", 1)
	if desc.Language != "de" {
		t.Errorf("Expected existing language to be kept, got %+v", desc)
	}
	format, _, _ := m.GetProperty(NsDC, "format")
	if !format.Options.IsSimple() {
		t.Errorf("dc:format must stay simple, got %v", format.Options)
	}
}

func TestNormalize_RepairAltText(t *testing.T) {
	m := mustParse(t, wrapDescription(`
		<dc:rights>
		 <rdf:Bag>
		  <rdf:li>All rights reserved</rdf:li>
		  <rdf:li></rdf:li>
		  <rdf:li xml:lang="fr">Tous droits</rdf:li>
		 </rdf:Bag>
		</dc:rights>`))

	rights, _, _ := m.GetProperty(NsDC, "rights")
	if !rights.Options.IsAltText() {
		t.Fatalf("Expected dc:rights to become alt-text, got %v", rights.Options)
	}
	if n, _ := m.CountArrayItems(NsDC, "rights"); n != 2 {
		t.Fatalf("Expected the empty unlabeled item to be dropped, got %d items", n)
	}
	first, _, _ := m.GetArrayItem(NsDC, "rights", 1)
	if first.Language != "x-repair" {
		t.Errorf("Expected x-repair language, got %+v", first)
	}
}

func TestNormalize_InstanceIDFromAbout(t *testing.T) {
	packet := wrapRDF(`<rdf:Description rdf:about="uuid:6B29FC40-CA47-1067-B31D-00DD010662DA" xmlns:xmp="http://ns.adobe.com/xap/1.0/">
		<xmp:Rating>1</xmp:Rating></rdf:Description>`)
	m := mustParse(t, packet)

	id, ok, _ := m.GetPropertyString(NsXMPMM, "InstanceID")
	if !ok || id != "uuid:6b29fc40-ca47-1067-b31d-00dd010662da" {
		t.Errorf("Expected InstanceID from rdf:about, got %q", id)
	}
	if m.ObjectName() != "" {
		t.Errorf("Expected rdf:about to be cleared, got %q", m.ObjectName())
	}

	m = mustParse(t, strings.Replace(packet, "uuid:6B29FC40-CA47-1067-B31D-00DD010662DA", "not-a-uuid", 1))
	if m.DoesPropertyExist(NsXMPMM, "InstanceID") {
		t.Error("Only a UUID may be moved into InstanceID")
	}
	if m.ObjectName() != "not-a-uuid" {
		t.Errorf("Expected object name to be kept, got %q", m.ObjectName())
	}
}

func TestNormalize_GPSTimeStamp(t *testing.T) {
	m := mustParse(t, wrapRDF(`<rdf:Description rdf:about="" xmlns:exif="http://ns.adobe.com/exif/1.0/">
		<exif:GPSTimeStamp>0000-00-00T10:20:30Z</exif:GPSTimeStamp>
		<exif:DateTimeOriginal>2023-07-14T09:00:00+02:00</exif:DateTimeOriginal>
		</rdf:Description>`))

	if v, _, _ := m.GetPropertyString(NsExif, "GPSTimeStamp"); v != "2023-07-14T10:20:30Z" {
		t.Errorf("Expected date merged into GPS time stamp, got %q", v)
	}
}

func TestNormalize_AudioCopyright(t *testing.T) {
	packet := wrapRDF(`<rdf:Description rdf:about="" xmlns:xmpDM="http://ns.adobe.com/xmp/1.0/DynamicMedia/">
		<xmpDM:copyright>2024 Band</xmpDM:copyright></rdf:Description>`)
	m := mustParse(t, packet)

	if m.DoesPropertyExist(NsDM, "copyright") {
		t.Error("Expected xmpDM:copyright to be removed")
	}
	rights, _, _ := m.GetLocalizedText(NsDC, "rights", "", XDefault)
	if rights.Value != "\n\n2024 Band" {
		t.Errorf("Expected migrated rights, got %q", rights.Value)
	}
}

func TestNormalize_AudioCopyrightKeptOnFailure(t *testing.T) {
	packet := wrapRDF(`<rdf:Description rdf:about=""
		xmlns:xmpDM="http://ns.adobe.com/xmp/1.0/DynamicMedia/"
		xmlns:dc="http://purl.org/dc/elements/1.1/">
		<xmpDM:copyright>2024 Band</xmpDM:copyright>
		<dc:rights><rdf:Bag><rdf:li>All rights reserved</rdf:li></rdf:Bag></dc:rights></rdf:Description>`)
	m := mustParse(t, packet)

	if v, _, _ := m.GetPropertyString(NsDM, "copyright"); v != "2024 Band" {
		t.Errorf("Expected xmpDM:copyright to survive a failed migration, got %q", v)
	}
	item, _, _ := m.GetArrayItem(NsDC, "rights", 1)
	if item.Value != "All rights reserved" {
		t.Errorf("Expected dc:rights to be left alone, got %q", item.Value)
	}
}

func TestNormalize_PlainAliasesRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		props string
		base  string
		form  PropertyOptions
	}{
		{"xmp:Keywords", `<xmp:Keywords>kw</xmp:Keywords>`, "subject", ValueIsArray},
		{"xmp:Locale", `<xmp:Locale>en</xmp:Locale>`, "language", ValueIsArray},
		{"xmp:Authors", `<xmp:Authors>Jane</xmp:Authors>`, "creator", ValueIsArray | ArrayIsOrdered},
		{"xmp:Title", `<xmp:Title>Holiday</xmp:Title>`, "title", aliasToAltText},
		{"xmp:Description", `<xmp:Description>Beach</xmp:Description>`, "description", aliasToAltText},
		{"tiff:Copyright", `<tiff:Copyright>2024 Jane</tiff:Copyright>`, "rights", aliasToAltText},
		{"tiff:ImageDescription", `<tiff:ImageDescription>Beach</tiff:ImageDescription>`, "description", aliasToAltText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustParse(t, wrapRDF(`<rdf:Description rdf:about=""
				xmlns:xmp="http://ns.adobe.com/xap/1.0/"
				xmlns:tiff="http://ns.adobe.com/tiff/1.0/">`+tt.props+`</rdf:Description>`))

			prop, ok, _ := m.GetProperty(NsDC, tt.base)
			if !ok {
				t.Fatalf("dc:%s missing", tt.base)
			}
			if prop.Options.ArrayForm() != tt.form {
				t.Errorf("Expected form %v, got %v", tt.form, prop.Options.ArrayForm())
			}
			if n, _ := m.CountArrayItems(NsDC, tt.base); n != 1 {
				t.Errorf("Expected one item, got %d", n)
			}

			back := roundTrip(t, m, nil)
			m.Sort()
			back.Sort()
			if diff := cmp.Diff(m.Dump(), back.Dump()); diff != "" {
				t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_Aliases(t *testing.T) {
	t.Run("simple alias moves to base", func(t *testing.T) {
		m := mustParse(t, wrapRDF(`<rdf:Description rdf:about="" xmlns:tiff="http://ns.adobe.com/tiff/1.0/">
			<tiff:Software>Editor 2</tiff:Software></rdf:Description>`))
		if v, _, _ := m.GetPropertyString(NsXMP, "CreatorTool"); v != "Editor 2" {
			t.Errorf("Expected xmp:CreatorTool from alias, got %q", v)
		}
		for _, schema := range m.Root().Children() {
			if schema.Name == NsTIFF {
				t.Error("Expected emptied tiff schema to be removed")
			}
		}
	})

	t.Run("array alias becomes first item", func(t *testing.T) {
		m := mustParse(t, wrapRDF(`<rdf:Description rdf:about="" xmlns:photoshop="http://ns.adobe.com/photoshop/1.0/">
			<photoshop:Author>Jane</photoshop:Author></rdf:Description>`))
		item, ok, _ := m.GetArrayItem(NsDC, "creator", 1)
		if !ok || item.Value != "Jane" {
			t.Errorf("Expected dc:creator[1] 'Jane', got %+v", item)
		}
	})

	t.Run("alt-text alias becomes x-default", func(t *testing.T) {
		m := mustParse(t, wrapRDF(`<rdf:Description rdf:about="" xmlns:pdf="http://ns.adobe.com/pdf/1.3/">
			<pdf:Title>Annual Report</pdf:Title></rdf:Description>`))
		title, ok, _ := m.GetLocalizedText(NsDC, "title", "", XDefault)
		if !ok || title.Value != "Annual Report" {
			t.Errorf("Expected x-default title, got %+v", title)
		}
	})

	conflicting := wrapRDF(`<rdf:Description rdf:about=""
		xmlns:dc="http://purl.org/dc/elements/1.1/"
		xmlns:photoshop="http://ns.adobe.com/photoshop/1.0/">
		<dc:creator><rdf:Seq><rdf:li>Jane</rdf:li></rdf:Seq></dc:creator>
		<photoshop:Author>John</photoshop:Author></rdf:Description>`)

	t.Run("base wins over alias", func(t *testing.T) {
		m := mustParse(t, conflicting)
		item, _, _ := m.GetArrayItem(NsDC, "creator", 1)
		if item.Value != "Jane" {
			t.Errorf("Expected base value to be kept, got %q", item.Value)
		}
		if n, _ := m.CountArrayItems(NsDC, "creator"); n != 1 {
			t.Errorf("Expected alias to be dropped, got %d items", n)
		}
	})

	t.Run("simple base is promoted before the alias merges", func(t *testing.T) {
		packet := wrapRDF(`<rdf:Description rdf:about=""
			xmlns:dc="http://purl.org/dc/elements/1.1/"
			xmlns:photoshop="http://ns.adobe.com/photoshop/1.0/">
			<dc:creator>Jane</dc:creator>
			<photoshop:Author>Jane</photoshop:Author></rdf:Description>`)
		m, err := ParseString(packet, &ParseOptions{StrictAliasing: true})
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if n, _ := m.CountArrayItems(NsDC, "creator"); n != 1 {
			t.Errorf("Expected one creator, got %d", n)
		}
		item, _, _ := m.GetArrayItem(NsDC, "creator", 1)
		if item.Value != "Jane" {
			t.Errorf("Expected dc:creator[1] 'Jane', got %q", item.Value)
		}
	})

	t.Run("strict aliasing rejects mismatch", func(t *testing.T) {
		_, err := ParseString(conflicting, &ParseOptions{StrictAliasing: true})
		if KindOf(err) != KindBadXMP {
			t.Errorf("Expected BADXMP, got %v", err)
		}
		agreeing := strings.Replace(conflicting, "John", "Jane", 1)
		if _, err := ParseString(agreeing, &ParseOptions{StrictAliasing: true}); err != nil {
			t.Errorf("Expected agreeing alias to pass, got %v", err)
		}
	})
}

func TestNormalize_Omitted(t *testing.T) {
	packet := wrapDescription(`<dc:subject>travel</dc:subject>`)
	m, err := ParseString(packet, &ParseOptions{OmitNormalization: true})
	if err != nil {
		t.Fatal(err)
	}
	subject, _, _ := m.GetProperty(NsDC, "subject")
	if !subject.Options.IsSimple() {
		t.Errorf("Expected raw tree without normalization, got %v", subject.Options)
	}

	if err := m.Normalize(nil); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	subject, _, _ = m.GetProperty(NsDC, "subject")
	if !subject.Options.IsArray() {
		t.Errorf("Expected array after Normalize, got %v", subject.Options)
	}
}

func TestNormalize_Logging(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := ParseString(wrapDescription(`<dc:subject>travel</dc:subject>`), &ParseOptions{Logger: log})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "promoted simple property to array") {
		t.Errorf("Expected repair to be logged, got %q", buf.String())
	}
}
