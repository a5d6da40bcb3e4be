package epub

import (
	"encoding/xml"
	"fmt"
)

// opfPackage represents the root <package> element of an OPF file.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

// opfMetadata holds the Dublin Core elements the converter cares about.
type opfMetadata struct {
	Titles   []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creators []opfDCElement `xml:"http://purl.org/dc/elements/1.1/ creator"`
}

type opfDCElement struct {
	Value string `xml:",chardata"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

type opfSpineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// ManifestItem is one publication resource declared by the package manifest.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties string // space-separated property tokens, may be empty
}

// SpineRef is one reading-order entry pointing at a manifest item.
type SpineRef struct {
	IDRef  string
	Linear bool
}

// PackageDoc is the parsed package document: the metadata used for tagging
// plus the manifest/spine needed to walk the book in reading order.
type PackageDoc struct {
	Title    string
	Creator  string
	Manifest map[string]ManifestItem
	Spine    []SpineRef
}

// parseOPF decodes the package document. Manifest items must carry id, href
// and media-type; spine itemrefs must carry idref and a recognized linear
// value ("yes"/"true"/"no"/"false" or absent).
func parseOPF(data []byte) (*PackageDoc, error) {
	data = preprocessHTMLEntities(stripBOM(data))

	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("epub: parse OPF: %w", err)
	}

	doc := &PackageDoc{
		Manifest: make(map[string]ManifestItem, len(pkg.Manifest.Items)),
	}
	if len(pkg.Metadata.Titles) > 0 {
		doc.Title = pkg.Metadata.Titles[0].Value
	}
	if len(pkg.Metadata.Creators) > 0 {
		doc.Creator = pkg.Metadata.Creators[0].Value
	}

	for _, item := range pkg.Manifest.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("epub: manifest item missing id: %w", ErrInvalidEPub)
		}
		if item.Href == "" {
			return nil, fmt.Errorf("epub: manifest item %q missing href: %w", item.ID, ErrInvalidEPub)
		}
		if item.MediaType == "" {
			return nil, fmt.Errorf("epub: manifest item %q missing media-type: %w", item.ID, ErrInvalidEPub)
		}
		doc.Manifest[item.ID] = ManifestItem{
			ID:         item.ID,
			Href:       item.Href,
			MediaType:  item.MediaType,
			Properties: item.Properties,
		}
	}

	for _, ref := range pkg.Spine.ItemRefs {
		if ref.IDRef == "" {
			return nil, fmt.Errorf("epub: spine itemref missing idref: %w", ErrInvalidEPub)
		}
		linear, err := parseLinear(ref.Linear)
		if err != nil {
			return nil, err
		}
		doc.Spine = append(doc.Spine, SpineRef{IDRef: ref.IDRef, Linear: linear})
	}

	return doc, nil
}

// parseLinear interprets the spine linear attribute. The EPUB spec uses
// yes/no; true/false show up in the wild and are accepted too.
func parseLinear(v string) (bool, error) {
	switch v {
	case "", "yes", "true":
		return true, nil
	case "no", "false":
		return false, nil
	default:
		return false, fmt.Errorf("epub: spine itemref has invalid linear value %q: %w", v, ErrInvalidEPub)
	}
}
