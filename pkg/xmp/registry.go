package xmp

import (
	"maps"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// AliasInfo describes the target of an alias.
type AliasInfo struct {
	Namespace string
	Prefix    string
	PropName  string
	// Form is the array form of the base property the alias addresses
	// the first item of, or NoOptions for a plain alias.
	Form PropertyOptions
}

// QName returns the qualified name of the base property.
func (a AliasInfo) QName() string {
	return a.Prefix + ":" + a.PropName
}

// Registry maps namespace URIs to prefixes and aliases to their base
// properties. All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	nsToPrefix map[string]string
	prefixToNS map[string]string
	aliases    map[string]AliasInfo
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry, initialized with the
// standard namespaces and aliases on first use.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry holding the standard namespaces and aliases.
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	for _, ns := range standardNamespaces {
		if _, err := r.RegisterNamespace(ns.uri, ns.prefix); err != nil {
			panic("xmp: standard namespace table is invalid: " + err.Error())
		}
	}
	for _, a := range standardAliases {
		if err := r.RegisterAlias(a.aliasNS, a.aliasProp, a.actualNS, a.actualProp, a.form); err != nil {
			panic("xmp: standard alias table is invalid: " + err.Error())
		}
	}
	return r
}

// NewEmptyRegistry creates a registry that only knows the xml and rdf
// namespaces.
func NewEmptyRegistry() *Registry {
	r := &Registry{
		nsToPrefix: make(map[string]string),
		prefixToNS: make(map[string]string),
		aliases:    make(map[string]AliasInfo),
	}
	r.nsToPrefix[NsXML] = "xml"
	r.prefixToNS["xml"] = NsXML
	r.nsToPrefix[NsRDF] = "rdf"
	r.prefixToNS["rdf"] = NsRDF
	return r
}

// RegisterNamespace registers uri with suggestedPrefix and returns the
// prefix actually used. A URI that is already registered keeps its
// prefix; a prefix that is taken by another URI is disambiguated.
func (r *Registry) RegisterNamespace(uri, suggestedPrefix string) (string, error) {
	if uri == "" {
		return "", Errorf(KindBadParam, "empty namespace URI")
	}
	suggestedPrefix = strings.TrimSuffix(suggestedPrefix, ":")
	if suggestedPrefix == "" {
		return "", Errorf(KindBadParam, "empty prefix")
	}
	if !isXMLNameNS(suggestedPrefix) {
		return "", Errorf(KindBadXML, "the prefix is a bad XML name: %q", suggestedPrefix)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prefix, ok := r.nsToPrefix[uri]; ok {
		return prefix, nil
	}
	prefix := suggestedPrefix
	if _, taken := r.prefixToNS[prefix]; taken {
		for i := 1; ; i++ {
			prefix = suggestedPrefix + "_" + strconv.Itoa(i) + "_"
			if _, taken := r.prefixToNS[prefix]; !taken {
				break
			}
		}
	}
	r.nsToPrefix[uri] = prefix
	r.prefixToNS[prefix] = uri
	return prefix, nil
}

// Prefix returns the prefix registered for uri.
func (r *Registry) Prefix(uri string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.nsToPrefix[uri]
	return p, ok
}

// NamespaceURI returns the URI registered for prefix. A trailing colon on
// prefix is ignored.
func (r *Registry) NamespaceURI(prefix string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, ":")
	r.mu.RLock()
	defer r.mu.RUnlock()
	uri, ok := r.prefixToNS[prefix]
	return uri, ok
}

// DeleteNamespace removes uri and its prefix. Unknown URIs are ignored.
func (r *Registry) DeleteNamespace(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prefix, ok := r.nsToPrefix[uri]; ok {
		delete(r.nsToPrefix, uri)
		delete(r.prefixToNS, prefix)
	}
}

// Namespaces returns a snapshot of the URI to prefix map.
func (r *Registry) Namespaces() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.nsToPrefix)
}

// Prefixes returns a snapshot of the prefix to URI map.
func (r *Registry) Prefixes() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.prefixToNS)
}

// RegisterAlias makes aliasNS:aliasProp a synonym for actualNS:actualProp.
// form is either NoOptions or an array form, in which case the alias
// addresses the first item (or x-default item) of the base array.
func (r *Registry) RegisterAlias(aliasNS, aliasProp, actualNS, actualProp string, form PropertyOptions) error {
	if aliasNS == "" || actualNS == "" {
		return Errorf(KindBadSchema, "empty schema namespace URI")
	}
	if aliasProp == "" || actualProp == "" {
		return Errorf(KindBadXPath, "empty property name")
	}
	if !isXMLNameNS(aliasProp) || !isXMLNameNS(actualProp) {
		return Errorf(KindBadXPath, "alias and actual property names must be simple")
	}
	if !form.IsOnlyArrayOptions() {
		return Errorf(KindBadOptions, "only array form flags allowed for aliases")
	}
	form, err := verifySetOptions(form, false)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	aliasPrefix, ok := r.nsToPrefix[aliasNS]
	if !ok {
		return Errorf(KindBadSchema, "alias namespace is not registered: %s", aliasNS)
	}
	actualPrefix, ok := r.nsToPrefix[actualNS]
	if !ok {
		return Errorf(KindBadSchema, "actual namespace is not registered: %s", actualNS)
	}
	key := aliasPrefix + ":" + aliasProp
	if _, exists := r.aliases[key]; exists {
		return Errorf(KindBadParam, "alias is already existing: %s", key)
	}
	if _, isAlias := r.aliases[actualPrefix+":"+actualProp]; isAlias {
		return Errorf(KindBadParam, "actual property is already an alias, use the base property")
	}
	r.aliases[key] = AliasInfo{
		Namespace: actualNS,
		Prefix:    actualPrefix,
		PropName:  actualProp,
		Form:      form,
	}
	return nil
}

// ResolveAlias returns the base property of aliasNS:aliasProp.
func (r *Registry) ResolveAlias(aliasNS, aliasProp string) (AliasInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix, ok := r.nsToPrefix[aliasNS]
	if !ok {
		return AliasInfo{}, false
	}
	info, ok := r.aliases[prefix+":"+aliasProp]
	return info, ok
}

// FindAlias looks up an alias by its qualified name.
func (r *Registry) FindAlias(qname string) (AliasInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.aliases[qname]
	return info, ok
}

// FindAliases returns the qualified names of every alias declared in
// aliasNS, sorted.
func (r *Registry) FindAliases(aliasNS string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix, ok := r.nsToPrefix[aliasNS]
	if !ok {
		return nil
	}
	var result []string
	for qname := range r.aliases {
		if strings.HasPrefix(qname, prefix+":") {
			result = append(result, qname)
		}
	}
	sort.Strings(result)
	return result
}

// Aliases returns a snapshot of the alias table keyed by qualified name.
func (r *Registry) Aliases() map[string]AliasInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.aliases)
}
