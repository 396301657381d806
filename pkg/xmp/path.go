package xmp

import (
	"strconv"
	"strings"
)

// StepKind identifies the kind of a path segment.
type StepKind int

const (
	StepSchema StepKind = iota
	StepStructField
	StepQualifier
	StepArrayIndex
	StepArrayLast
	StepQualSelector
	StepFieldSelector
)

func (k StepKind) String() string {
	switch k {
	case StepSchema:
		return "schema"
	case StepStructField:
		return "struct-field"
	case StepQualifier:
		return "qualifier"
	case StepArrayIndex:
		return "array-index"
	case StepArrayLast:
		return "array-last"
	case StepQualSelector:
		return "qualifier-selector"
	case StepFieldSelector:
		return "field-selector"
	default:
		return "unknown"
	}
}

// Segment is one step of an expanded path.
type Segment struct {
	Kind StepKind
	// Name is the namespace URI for the schema step, the qualified name for
	// fields and qualifiers ('?' prefixed), and the bracketed text for
	// array steps.
	Name string
	// Alias marks steps synthesized from an alias; AliasForm is the alias's
	// array form.
	Alias     bool
	AliasForm PropertyOptions
}

// Path is an expanded path expression; element 0 is always the schema step.
type Path []Segment

func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if i == 0 {
			continue
		}
		if s.Kind == StepStructField || s.Kind == StepQualifier {
			if i > 1 {
				b.WriteByte('/')
			}
		}
		b.WriteString(s.Name)
	}
	return b.String()
}

type pathPos struct {
	path      string
	nameStart int
	nameEnd   int
	stepBegin int
	stepEnd   int
}

// ExpandPath splits a path expression rooted in schemaNS into segments.
// Aliases at the root are resolved through reg.
func ExpandPath(reg *Registry, schemaNS, path string) (Path, error) {
	if schemaNS == "" {
		return nil, Errorf(KindBadSchema, "schema namespace URI is required")
	}
	if path == "" {
		return nil, Errorf(KindBadXPath, "property name is required")
	}

	var expanded Path
	pos := &pathPos{path: path}

	root, err := parseRootNode(reg, schemaNS, pos)
	if err != nil {
		return nil, err
	}
	expanded = append(expanded, root...)

	for pos.stepEnd < len(path) {
		pos.stepBegin = pos.stepEnd
		if err := skipPathDelimiter(path, pos); err != nil {
			return nil, err
		}
		pos.stepEnd = pos.stepBegin

		var seg Segment
		if path[pos.stepBegin] != '[' {
			seg, err = parseStructSegment(pos)
		} else {
			seg, err = parseIndexSegment(pos)
		}
		if err != nil {
			return nil, err
		}

		switch seg.Kind {
		case StepStructField:
			if seg.Name[0] == '@' {
				seg.Name = "?" + seg.Name[1:]
				if seg.Name != "?"+XMLLang {
					return nil, Errorf(KindBadXPath, "only xml:lang allowed with '@'")
				}
			}
			if seg.Name[0] == '?' {
				pos.nameStart++
				seg.Kind = StepQualifier
			}
			if err := verifyQualName(reg, path[pos.nameStart:pos.nameEnd]); err != nil {
				return nil, err
			}
		case StepFieldSelector:
			if path[pos.nameStart] == '@' {
				seg.Name = "[?" + seg.Name[2:]
				if !strings.HasPrefix(seg.Name, "[?"+XMLLang+"=") {
					return nil, Errorf(KindBadXPath, "only xml:lang allowed with '@'")
				}
			}
			if path[pos.nameStart] == '?' || path[pos.nameStart] == '@' {
				pos.nameStart++
				seg.Kind = StepQualSelector
			}
			if err := verifyQualName(reg, path[pos.nameStart:pos.nameEnd]); err != nil {
				return nil, err
			}
		}
		expanded = append(expanded, seg)
	}
	return expanded, nil
}

func skipPathDelimiter(path string, pos *pathPos) error {
	if path[pos.stepBegin] == '/' {
		pos.stepBegin++
		if pos.stepBegin >= len(path) {
			return Errorf(KindBadXPath, "empty XMPPath segment")
		}
	}
	if path[pos.stepBegin] == '*' {
		pos.stepBegin++
		if pos.stepBegin >= len(path) || path[pos.stepBegin] != '[' {
			return Errorf(KindBadXPath, "missing '[' after '*'")
		}
	}
	return nil
}

func parseStructSegment(pos *pathPos) (Segment, error) {
	pos.nameStart = pos.stepBegin
	for pos.stepEnd < len(pos.path) && !strings.ContainsRune("/[*", rune(pos.path[pos.stepEnd])) {
		pos.stepEnd++
	}
	pos.nameEnd = pos.stepEnd
	if pos.stepEnd == pos.stepBegin {
		return Segment{}, Errorf(KindBadXPath, "empty XMPPath segment")
	}
	return Segment{Kind: StepStructField, Name: pos.path[pos.stepBegin:pos.stepEnd]}, nil
}

func parseIndexSegment(pos *pathPos) (Segment, error) {
	path := pos.path
	var seg Segment
	pos.stepEnd++

	if pos.stepEnd < len(path) && isDigit(path[pos.stepEnd]) {
		for pos.stepEnd < len(path) && isDigit(path[pos.stepEnd]) {
			pos.stepEnd++
		}
		seg.Kind = StepArrayIndex
	} else {
		for pos.stepEnd < len(path) && path[pos.stepEnd] != ']' && path[pos.stepEnd] != '=' {
			pos.stepEnd++
		}
		if pos.stepEnd >= len(path) {
			return seg, Errorf(KindBadXPath, "missing ']' or '=' for array index")
		}
		if path[pos.stepEnd] == ']' {
			if path[pos.stepBegin:pos.stepEnd] != "[last()" {
				return seg, Errorf(KindBadXPath, "invalid non-numeric array index")
			}
			seg.Kind = StepArrayLast
		} else {
			pos.nameStart = pos.stepBegin + 1
			pos.nameEnd = pos.stepEnd
			pos.stepEnd++
			if pos.stepEnd >= len(path) {
				return seg, Errorf(KindBadXPath, "invalid quote in array selector")
			}
			quote := path[pos.stepEnd]
			if quote != '\'' && quote != '"' {
				return seg, Errorf(KindBadXPath, "invalid quote in array selector")
			}
			pos.stepEnd++
			for pos.stepEnd < len(path) {
				if path[pos.stepEnd] == quote {
					if pos.stepEnd+1 >= len(path) || path[pos.stepEnd+1] != quote {
						break
					}
					pos.stepEnd++
				}
				pos.stepEnd++
			}
			if pos.stepEnd >= len(path) {
				return seg, Errorf(KindBadXPath, "no terminating quote for array selector")
			}
			pos.stepEnd++
			seg.Kind = StepFieldSelector
		}
	}

	if pos.stepEnd >= len(path) || path[pos.stepEnd] != ']' {
		return seg, Errorf(KindBadXPath, "missing ']' for array index")
	}
	pos.stepEnd++
	seg.Name = path[pos.stepBegin:pos.stepEnd]
	return seg, nil
}

func parseRootNode(reg *Registry, schemaNS string, pos *pathPos) (Path, error) {
	path := pos.path
	for pos.stepEnd < len(path) && !strings.ContainsRune("/[*", rune(path[pos.stepEnd])) {
		pos.stepEnd++
	}
	if pos.stepEnd == pos.stepBegin {
		return nil, Errorf(KindBadXPath, "empty initial XMPPath step")
	}

	rootProp, err := verifyPathRoot(reg, schemaNS, path[pos.stepBegin:pos.stepEnd])
	if err != nil {
		return nil, err
	}

	info, isAlias := reg.FindAlias(rootProp)
	if !isAlias {
		return Path{
			{Kind: StepSchema, Name: schemaNS},
			{Kind: StepStructField, Name: rootProp},
		}, nil
	}

	base, err := verifyPathRoot(reg, info.Namespace, info.PropName)
	if err != nil {
		return nil, err
	}
	result := Path{
		{Kind: StepSchema, Name: info.Namespace},
		{Kind: StepStructField, Name: base, Alias: true, AliasForm: info.Form},
	}
	switch {
	case info.Form.IsAltText():
		result = append(result, Segment{
			Kind: StepQualSelector, Name: "[?xml:lang='x-default']",
			Alias: true, AliasForm: info.Form,
		})
	case info.Form.IsArray():
		result = append(result, Segment{
			Kind: StepArrayIndex, Name: "[1]",
			Alias: true, AliasForm: info.Form,
		})
	}
	return result, nil
}

func verifyQualName(reg *Registry, qualName string) error {
	colon := strings.IndexByte(qualName, ':')
	if colon > 0 {
		prefix := qualName[:colon]
		if isXMLNameNS(prefix) {
			if _, ok := reg.NamespaceURI(prefix); ok {
				return nil
			}
			return Errorf(KindBadXPath, "unknown namespace prefix for qualified name: %s", qualName)
		}
	}
	return Errorf(KindBadXPath, "ill-formed qualified name: %s", qualName)
}

func verifyPathRoot(reg *Registry, schemaNS, rootProp string) (string, error) {
	if schemaNS == "" {
		return "", Errorf(KindBadSchema, "schema namespace URI is required")
	}
	if rootProp[0] == '?' || rootProp[0] == '@' {
		return "", Errorf(KindBadXPath, "top level name must not be a qualifier")
	}
	if strings.ContainsAny(rootProp, "/[") {
		return "", Errorf(KindBadXPath, "top level name must be simple")
	}
	prefix, ok := reg.Prefix(schemaNS)
	if !ok {
		return "", Errorf(KindBadSchema, "unregistered schema namespace URI: %s", schemaNS)
	}

	colon := strings.IndexByte(rootProp, ':')
	if colon < 0 {
		if err := checkSimpleXMLName(rootProp); err != nil {
			return "", err
		}
		return prefix + ":" + rootProp, nil
	}
	rootPrefix, local := rootProp[:colon], rootProp[colon+1:]
	if err := checkSimpleXMLName(rootPrefix); err != nil {
		return "", err
	}
	if err := checkSimpleXMLName(local); err != nil {
		return "", err
	}
	if _, ok := reg.NamespaceURI(rootPrefix); !ok {
		return "", Errorf(KindBadSchema, "unknown schema namespace prefix: %s", rootPrefix)
	}
	if rootPrefix != prefix {
		return "", Errorf(KindBadSchema, "schema namespace URI and prefix mismatch")
	}
	return rootProp, nil
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

// splitNameAndValue splits a selector `[name="value"]` or `[?name="value"]`.
func splitNameAndValue(selector string) (string, string) {
	eq := strings.IndexByte(selector, '=')
	pos := 1
	if selector[pos] == '?' {
		pos++
	}
	name := selector[pos:eq]
	pos = eq + 1
	quote := selector[pos]
	pos++
	end := len(selector) - 2

	var b strings.Builder
	for pos < end {
		b.WriteByte(selector[pos])
		pos++
		if selector[pos-1] == quote {
			pos++
		}
	}
	return name, b.String()
}

// ComposeArrayItemPath returns "arrayName[index]"; index -1 addresses the
// last item.
func ComposeArrayItemPath(arrayName string, index int) (string, error) {
	if arrayName == "" {
		return "", Errorf(KindBadXPath, "empty array name")
	}
	if index > 0 {
		return arrayName + "[" + strconv.Itoa(index) + "]", nil
	}
	if index == -1 {
		return arrayName + "[last()]", nil
	}
	return "", Errorf(KindBadIndex, "array index must be larger than zero")
}

// ComposeStructFieldPath returns "/fieldPrefix:fieldName" for fieldNS.
func ComposeStructFieldPath(reg *Registry, fieldNS, fieldName string) (string, error) {
	qname, err := composeQName(reg, fieldNS, fieldName)
	if err != nil {
		return "", err
	}
	return "/" + qname, nil
}

// ComposeQualifierPath returns "/?qualPrefix:qualName" for qualNS.
func ComposeQualifierPath(reg *Registry, qualNS, qualName string) (string, error) {
	qname, err := composeQName(reg, qualNS, qualName)
	if err != nil {
		return "", err
	}
	return "/?" + qname, nil
}

// ComposeLangSelector returns `arrayName[?xml:lang="lang"]`.
func ComposeLangSelector(arrayName, langName string) string {
	return arrayName + "[?xml:lang=\"" + NormalizeLangValue(langName) + "\"]"
}

// ComposeFieldSelector returns `arrayName[fieldPrefix:fieldName="fieldValue"]`.
func ComposeFieldSelector(reg *Registry, arrayName, fieldNS, fieldName, fieldValue string) (string, error) {
	qname, err := composeQName(reg, fieldNS, fieldName)
	if err != nil {
		return "", err
	}
	return arrayName + "[" + qname + "=\"" + fieldValue + "\"]", nil
}

func composeQName(reg *Registry, ns, name string) (string, error) {
	if ns == "" {
		return "", Errorf(KindBadSchema, "empty namespace URI")
	}
	if err := checkSimpleXMLName(name); err != nil {
		return "", err
	}
	prefix, ok := reg.Prefix(ns)
	if !ok {
		return "", Errorf(KindBadSchema, "unregistered namespace URI: %s", ns)
	}
	return prefix + ":" + name, nil
}
