package xmp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExpandPath(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		ns   string
		path string
		want Path
	}{
		{
			name: "simple",
			ns:   NsXMP, path: "CreatorTool",
			want: Path{
				{Kind: StepSchema, Name: NsXMP},
				{Kind: StepStructField, Name: "xmp:CreatorTool"},
			},
		},
		{
			name: "prefixed root",
			ns:   NsDC, path: "dc:title",
			want: Path{
				{Kind: StepSchema, Name: NsDC},
				{Kind: StepStructField, Name: "dc:title"},
			},
		},
		{
			name: "array index and field",
			ns:   NsXMPMM, path: "History[2]/stEvt:action",
			want: Path{
				{Kind: StepSchema, Name: NsXMPMM},
				{Kind: StepStructField, Name: "xmpMM:History"},
				{Kind: StepArrayIndex, Name: "[2]"},
				{Kind: StepStructField, Name: "stEvt:action"},
			},
		},
		{
			name: "last and qualifier",
			ns:   NsDC, path: "subject[last()]/?xml:lang",
			want: Path{
				{Kind: StepSchema, Name: NsDC},
				{Kind: StepStructField, Name: "dc:subject"},
				{Kind: StepArrayLast, Name: "[last()]"},
				{Kind: StepQualifier, Name: "?xml:lang"},
			},
		},
		{
			name: "language selector",
			ns:   NsDC, path: "title[?xml:lang='en-US']",
			want: Path{
				{Kind: StepSchema, Name: NsDC},
				{Kind: StepStructField, Name: "dc:title"},
				{Kind: StepQualSelector, Name: "[?xml:lang='en-US']"},
			},
		},
		{
			name: "at-lang selector",
			ns:   NsDC, path: `title[@xml:lang="fr"]`,
			want: Path{
				{Kind: StepSchema, Name: NsDC},
				{Kind: StepStructField, Name: "dc:title"},
				{Kind: StepQualSelector, Name: `[?xml:lang="fr"]`},
			},
		},
		{
			name: "field selector",
			ns:   NsXMPMM, path: `History[stEvt:action="saved"]`,
			want: Path{
				{Kind: StepSchema, Name: NsXMPMM},
				{Kind: StepStructField, Name: "xmpMM:History"},
				{Kind: StepFieldSelector, Name: `[stEvt:action="saved"]`},
			},
		},
		{
			name: "plain alias",
			ns:   NsTIFF, path: "Software",
			want: Path{
				{Kind: StepSchema, Name: NsXMP},
				{Kind: StepStructField, Name: "xmp:CreatorTool", Alias: true},
			},
		},
		{
			name: "array alias",
			ns:   NsPhotoshop, path: "Author",
			want: Path{
				{Kind: StepSchema, Name: NsDC},
				{Kind: StepStructField, Name: "dc:creator", Alias: true, AliasForm: ValueIsArray | ArrayIsOrdered},
				{Kind: StepArrayIndex, Name: "[1]", Alias: true, AliasForm: ValueIsArray | ArrayIsOrdered},
			},
		},
		{
			name: "alt-text alias",
			ns:   NsPDF, path: "Title",
			want: Path{
				{Kind: StepSchema, Name: NsDC},
				{Kind: StepStructField, Name: "dc:title", Alias: true, AliasForm: aliasToAltText},
				{Kind: StepQualSelector, Name: "[?xml:lang='x-default']", Alias: true, AliasForm: aliasToAltText},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(reg, tt.ns, tt.path)
			if err != nil {
				t.Fatalf("ExpandPath failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ExpandPath mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandPath_Errors(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name string
		ns   string
		path string
		kind ErrorKind
	}{
		{"empty namespace", "", "a", KindBadSchema},
		{"empty path", NsDC, "", KindBadXPath},
		{"unregistered namespace", "http://nowhere/", "a", KindBadSchema},
		{"prefix mismatch", NsDC, "xmp:CreatorTool", KindBadSchema},
		{"qualifier at root", NsDC, "?xml:lang", KindBadXPath},
		{"empty segment", NsDC, "title/", KindBadXPath},
		{"unterminated index", NsDC, "subject[1", KindBadXPath},
		{"bad index", NsDC, "subject[first()]", KindBadXPath},
		{"unknown field prefix", NsDC, "title/nope:x", KindBadXPath},
		{"unquoted selector", NsDC, "title[?xml:lang=en]", KindBadXPath},
		{"at non-lang", NsDC, "title/@dc:x", KindBadXPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandPath(reg, tt.ns, tt.path)
			if KindOf(err) != tt.kind {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	reg := NewRegistry()
	path, err := ExpandPath(reg, NsXMPMM, "History[2]/stEvt:when/?xml:lang")
	if err != nil {
		t.Fatal(err)
	}
	if got := path.String(); got != "xmpMM:History[2]/stEvt:when/?xml:lang" {
		t.Errorf("Unexpected path string %q", got)
	}
}

func TestSplitNameAndValue(t *testing.T) {
	tests := []struct {
		selector, name, value string
	}{
		{`[stEvt:action="saved"]`, "stEvt:action", "saved"},
		{`[?xml:lang='en']`, "xml:lang", "en"},
		{`[a:b="say ""hi"""]`, "a:b", `say "hi"`},
	}
	for _, tt := range tests {
		name, value := splitNameAndValue(tt.selector)
		if name != tt.name || value != tt.value {
			t.Errorf("splitNameAndValue(%s) = %q, %q; want %q, %q", tt.selector, name, value, tt.name, tt.value)
		}
	}
}

func TestComposePaths(t *testing.T) {
	reg := NewRegistry()

	if got, _ := ComposeArrayItemPath("subject", 3); got != "subject[3]" {
		t.Errorf("ComposeArrayItemPath = %q", got)
	}
	if got, _ := ComposeArrayItemPath("subject", -1); got != "subject[last()]" {
		t.Errorf("ComposeArrayItemPath(last) = %q", got)
	}
	if _, err := ComposeArrayItemPath("subject", 0); KindOf(err) != KindBadIndex {
		t.Errorf("Expected BADINDEX for index 0, got %v", err)
	}
	if got, _ := ComposeStructFieldPath(reg, TypeDimensions, "w"); got != "/stDim:w" {
		t.Errorf("ComposeStructFieldPath = %q", got)
	}
	if got, _ := ComposeQualifierPath(reg, NsXML, "lang"); got != "/?xml:lang" {
		t.Errorf("ComposeQualifierPath = %q", got)
	}
	if got := ComposeLangSelector("title", "EN_us"); got != `title[?xml:lang="en-US"]` {
		t.Errorf("ComposeLangSelector = %q", got)
	}
	if got, _ := ComposeFieldSelector(reg, "History", TypeResourceEvt, "action", "saved"); got != `History[stEvt:action="saved"]` {
		t.Errorf("ComposeFieldSelector = %q", got)
	}
	if _, err := ComposeStructFieldPath(reg, "http://nowhere/", "x"); KindOf(err) != KindBadSchema {
		t.Errorf("Expected BADSCHEMA, got %v", err)
	}
}
