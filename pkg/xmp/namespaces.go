package xmp

// Well-known namespace URIs
const (
	NsXML            = "http://www.w3.org/XML/1998/namespace"
	NsRDF            = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NsX              = "adobe:ns:meta/"
	NsIX             = "http://ns.adobe.com/iX/1.0/"
	NsDC             = "http://purl.org/dc/elements/1.1/"
	NsIPTCCore       = "http://iptc.org/std/Iptc4xmpCore/1.0/xmlns/"
	NsIPTCExt        = "http://iptc.org/std/Iptc4xmpExt/2008-02-29/"
	NsDICOM          = "http://ns.adobe.com/DICOM/"
	NsPLUS           = "http://ns.useplus.org/ldf/xmp/1.0/"
	NsXMP            = "http://ns.adobe.com/xap/1.0/"
	NsXMPRights      = "http://ns.adobe.com/xap/1.0/rights/"
	NsXMPMM          = "http://ns.adobe.com/xap/1.0/mm/"
	NsXMPBJ          = "http://ns.adobe.com/xap/1.0/bj/"
	NsXMPNote        = "http://ns.adobe.com/xmp/note/"
	NsPDF            = "http://ns.adobe.com/pdf/1.3/"
	NsPDFX           = "http://ns.adobe.com/pdfx/1.3/"
	NsPDFXID         = "http://www.npes.org/pdfx/ns/id/"
	NsPDFASchema     = "http://www.aiim.org/pdfa/ns/schema#"
	NsPDFAProperty   = "http://www.aiim.org/pdfa/ns/property#"
	NsPDFAType       = "http://www.aiim.org/pdfa/ns/type#"
	NsPDFAField      = "http://www.aiim.org/pdfa/ns/field#"
	NsPDFAID         = "http://www.aiim.org/pdfa/ns/id/"
	NsPDFAExtension  = "http://www.aiim.org/pdfa/ns/extension/"
	NsPhotoshop      = "http://ns.adobe.com/photoshop/1.0/"
	NsPSAlbum        = "http://ns.adobe.com/album/1.0/"
	NsExif           = "http://ns.adobe.com/exif/1.0/"
	NsExifEX         = "http://cipa.jp/exif/1.0/"
	NsExifAux        = "http://ns.adobe.com/exif/1.0/aux/"
	NsTIFF           = "http://ns.adobe.com/tiff/1.0/"
	NsPNG            = "http://ns.adobe.com/png/1.0/"
	NsJPEG           = "http://ns.adobe.com/jpeg/1.0/"
	NsJP2K           = "http://ns.adobe.com/jp2k/1.0/"
	NsCameraRaw      = "http://ns.adobe.com/camera-raw-settings/1.0/"
	NsStockPhoto     = "http://ns.adobe.com/StockPhoto/1.0/"
	NsCreatorAtom    = "http://ns.adobe.com/creatorAtom/1.0/"
	NsASF            = "http://ns.adobe.com/asf/1.0/"
	NsWAV            = "http://ns.adobe.com/xmp/wav/1.0/"
	NsBWF            = "http://ns.adobe.com/bwf/bext/1.0/"
	NsRIFFInfo       = "http://ns.adobe.com/riff/info/"
	NsScript         = "http://ns.adobe.com/xmp/1.0/Script/"
	NsTransformXMP   = "http://ns.adobe.com/TransformXMP/"
	NsSWF            = "http://ns.adobe.com/swf/1.0/"
	NsDM             = "http://ns.adobe.com/xmp/1.0/DynamicMedia/"
	NsTransient      = "http://ns.adobe.com/xmp/transient/1.0/"
	TypeText         = "http://ns.adobe.com/xap/1.0/t/"
	TypePagedFile    = "http://ns.adobe.com/xap/1.0/t/pg/"
	TypeGraphics     = "http://ns.adobe.com/xap/1.0/g/"
	TypeImage        = "http://ns.adobe.com/xap/1.0/g/img/"
	TypeFont         = "http://ns.adobe.com/xap/1.0/sType/Font#"
	TypeDimensions   = "http://ns.adobe.com/xap/1.0/sType/Dimensions#"
	TypeResourceEvt  = "http://ns.adobe.com/xap/1.0/sType/ResourceEvent#"
	TypeResourceRef  = "http://ns.adobe.com/xap/1.0/sType/ResourceRef#"
	TypeVersion      = "http://ns.adobe.com/xap/1.0/sType/Version#"
	TypeJob          = "http://ns.adobe.com/xap/1.0/sType/Job#"
	TypeManifestItem = "http://ns.adobe.com/xap/1.0/sType/ManifestItem#"
	TypeIdentifierQ  = "http://ns.adobe.com/xmp/Identifier/qual/1.0/"
)

// Reserved names used inside the tree.
const (
	ArrayItemName  = "[]"
	XMLLang        = "xml:lang"
	RDFType        = "rdf:type"
	XDefault       = "x-default"
	PacketID       = "W5M0MpCehiHzreSzNTczkc9d"
	DefaultToolkit = "xmpkit 1.0"
)

var standardNamespaces = []struct{ uri, prefix string }{
	{NsXML, "xml"},
	{NsRDF, "rdf"},
	{NsDC, "dc"},
	{NsIPTCCore, "Iptc4xmpCore"},
	{NsIPTCExt, "Iptc4xmpExt"},
	{NsDICOM, "DICOM"},
	{NsPLUS, "plus"},
	{NsX, "x"},
	{NsIX, "iX"},
	{NsXMP, "xmp"},
	{NsXMPRights, "xmpRights"},
	{NsXMPMM, "xmpMM"},
	{NsXMPBJ, "xmpBJ"},
	{NsXMPNote, "xmpNote"},
	{NsPDF, "pdf"},
	{NsPDFX, "pdfx"},
	{NsPDFXID, "pdfxid"},
	{NsPDFASchema, "pdfaSchema"},
	{NsPDFAProperty, "pdfaProperty"},
	{NsPDFAType, "pdfaType"},
	{NsPDFAField, "pdfaField"},
	{NsPDFAID, "pdfaid"},
	{NsPDFAExtension, "pdfaExtension"},
	{NsPhotoshop, "photoshop"},
	{NsPSAlbum, "album"},
	{NsExif, "exif"},
	{NsExifEX, "exifEX"},
	{NsExifAux, "aux"},
	{NsTIFF, "tiff"},
	{NsPNG, "png"},
	{NsJPEG, "jpeg"},
	{NsJP2K, "jp2k"},
	{NsCameraRaw, "crs"},
	{NsStockPhoto, "bmsp"},
	{NsCreatorAtom, "creatorAtom"},
	{NsASF, "asf"},
	{NsWAV, "wav"},
	{NsBWF, "bext"},
	{NsRIFFInfo, "riffinfo"},
	{NsScript, "xmpScript"},
	{NsTransformXMP, "txmp"},
	{NsSWF, "swf"},
	{NsDM, "xmpDM"},
	{NsTransient, "xmpx"},
	{TypeText, "xmpT"},
	{TypePagedFile, "xmpTPg"},
	{TypeGraphics, "xmpG"},
	{TypeImage, "xmpGImg"},
	{TypeFont, "stFnt"},
	{TypeDimensions, "stDim"},
	{TypeResourceEvt, "stEvt"},
	{TypeResourceRef, "stRef"},
	{TypeVersion, "stVer"},
	{TypeJob, "stJob"},
	{TypeManifestItem, "stMfs"},
	{TypeIdentifierQ, "xmpidq"},
}

const (
	aliasToArray        = ValueIsArray
	aliasToArrayOrdered = ValueIsArray | ArrayIsOrdered
	aliasToAltText      = ValueIsArray | ArrayIsOrdered | ArrayIsAlternate | ArrayIsAltText
)

var standardAliases = []struct {
	aliasNS, aliasProp   string
	actualNS, actualProp string
	form                 PropertyOptions
}{
	{NsXMP, "Author", NsDC, "creator", aliasToArrayOrdered},
	{NsXMP, "Authors", NsDC, "creator", NoOptions},
	{NsXMP, "Description", NsDC, "description", NoOptions},
	{NsXMP, "Format", NsDC, "format", NoOptions},
	{NsXMP, "Keywords", NsDC, "subject", NoOptions},
	{NsXMP, "Locale", NsDC, "language", NoOptions},
	{NsXMP, "Title", NsDC, "title", NoOptions},
	{NsXMPRights, "Copyright", NsDC, "rights", NoOptions},

	{NsPDF, "Author", NsDC, "creator", aliasToArrayOrdered},
	{NsPDF, "BaseURL", NsXMP, "BaseURL", NoOptions},
	{NsPDF, "CreationDate", NsXMP, "CreateDate", NoOptions},
	{NsPDF, "Creator", NsXMP, "CreatorTool", NoOptions},
	{NsPDF, "ModDate", NsXMP, "ModifyDate", NoOptions},
	{NsPDF, "Subject", NsDC, "description", aliasToAltText},
	{NsPDF, "Title", NsDC, "title", aliasToAltText},

	{NsPhotoshop, "Author", NsDC, "creator", aliasToArrayOrdered},
	{NsPhotoshop, "Caption", NsDC, "description", aliasToAltText},
	{NsPhotoshop, "Copyright", NsDC, "rights", aliasToAltText},
	{NsPhotoshop, "Keywords", NsDC, "subject", NoOptions},
	{NsPhotoshop, "Marked", NsXMPRights, "Marked", NoOptions},
	{NsPhotoshop, "Title", NsDC, "title", aliasToAltText},
	{NsPhotoshop, "WebStatement", NsXMPRights, "WebStatement", NoOptions},

	{NsTIFF, "Artist", NsDC, "creator", aliasToArrayOrdered},
	{NsTIFF, "Copyright", NsDC, "rights", NoOptions},
	{NsTIFF, "DateTime", NsXMP, "ModifyDate", NoOptions},
	{NsTIFF, "ImageDescription", NsDC, "description", NoOptions},
	{NsTIFF, "Software", NsXMP, "CreatorTool", NoOptions},

	{NsPNG, "Author", NsDC, "creator", aliasToArrayOrdered},
	{NsPNG, "Copyright", NsDC, "rights", aliasToAltText},
	{NsPNG, "CreationTime", NsXMP, "CreateDate", NoOptions},
	{NsPNG, "Description", NsDC, "description", aliasToAltText},
	{NsPNG, "ModificationTime", NsXMP, "ModifyDate", NoOptions},
	{NsPNG, "Software", NsXMP, "CreatorTool", NoOptions},
	{NsPNG, "Title", NsDC, "title", aliasToAltText},
}
