package xmp

import (
	"errors"
	"io"

	"github.com/aleksaelezovic/xmpkit/internal/dom"
	"github.com/aleksaelezovic/xmpkit/internal/encoding"
)

// Parse reads a serialized packet. The encoding is detected from the
// leading bytes. The whole input is parsed before anything is returned;
// on error no metadata object is produced.
func Parse(data []byte, opts *ParseOptions) (*Meta, error) {
	if opts == nil {
		opts = &ParseOptions{}
	}
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	log := opts.Logger
	if log == nil {
		log = discardLogger
	}

	doc, err := parseXML(data, opts)
	if err != nil {
		return nil, err
	}

	meta := NewWithRegistry(reg)
	rdfNode, header, found := findRootNode(doc, doc.Root(), opts.RequireXMPMeta)
	if !found {
		log.Debug("no rdf:RDF element found, returning empty metadata")
		return meta, nil
	}
	tree, err := parseRDF(reg, doc, rdfNode)
	if err != nil {
		return nil, err
	}
	meta.tree = tree
	meta.packetHeader = header

	if !opts.OmitNormalization {
		if err := meta.Normalize(opts); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

// ParseString is Parse for a string holding the packet.
func ParseString(s string, opts *ParseOptions) (*Meta, error) {
	return Parse([]byte(s), opts)
}

// ParseReader reads r to the end and parses the result.
func ParseReader(r io.Reader, opts *ParseOptions) (*Meta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, WrapError(KindBadStream, err, "failed to read packet")
	}
	return Parse(data, opts)
}

func parseXML(data []byte, opts *ParseOptions) (*dom.Document, error) {
	text, charset, err := encoding.ToUTF8(data)
	if err != nil {
		return nil, WrapError(KindBadXML, err, "unsupported input encoding")
	}
	if opts.FixControlChars {
		text = encoding.FixControlChars(text)
	}

	doc, err := dom.Parse(text)
	if err != nil && opts.AcceptLatin1 && charset == encoding.UTF8 {
		doc, err = dom.Parse(encoding.Latin1ToUTF8(text))
	}
	switch {
	case errors.Is(err, dom.ErrMultipleRoots):
		return nil, WrapError(KindBadRDF, err, "packet has more than one top level element")
	case err != nil:
		return nil, WrapError(KindBadXML, err, "XML parsing failure")
	}
	return doc, nil
}

// findRootNode searches for the rdf:RDF element, descending into
// x:xmpmeta (or the older x:xapmeta). With xmpmetaRequired only an rdf:RDF
// inside such a wrapper is accepted. The xpacket processing instruction
// seen on the way is returned as header.
func findRootNode(doc *dom.Document, parent dom.NodeID, xmpmetaRequired bool) (rdf dom.NodeID, header string, found bool) {
	for _, id := range doc.Children(parent) {
		switch doc.Kind(id) {
		case dom.ProcInstNode:
			if doc.LocalName(id) == "xpacket" {
				header = doc.Text(id)
			}
		case dom.ElementNode:
			space, local := doc.NamespaceURI(id), doc.LocalName(id)
			switch {
			case space == NsX && (local == "xmpmeta" || local == "xapmeta"):
				r, h, ok := findRootNode(doc, id, false)
				return r, pick(h, header), ok
			case !xmpmetaRequired && space == NsRDF && local == "RDF":
				return id, header, true
			default:
				if r, h, ok := findRootNode(doc, id, xmpmetaRequired); ok {
					return r, pick(h, header), true
				}
			}
		}
	}
	return dom.InvalidNode, header, false
}

func pick(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
