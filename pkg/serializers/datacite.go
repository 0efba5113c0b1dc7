package serializers

import (
	"encoding/xml"
	"strings"

	"github.com/sciforge/depository/pkg/common/models"
)

// DataCite kernel-3 namespace; the element subset used here also validates
// against kernel 2.2.
const (
	dataciteNS  = "http://datacite.org/schema/kernel-3"
	dataciteXSI = "http://www.w3.org/2001/XMLSchema-instance"
	dataciteLoc = "http://datacite.org/schema/kernel-3 http://schema.datacite.org/meta/kernel-3/metadata.xsd"
)

type dcResource struct {
	XMLName        xml.Name `xml:"resource"`
	XMLNS          string   `xml:"xmlns,attr"`
	XMLNSXSI       string   `xml:"xmlns:xsi,attr"`
	SchemaLocation string   `xml:"xsi:schemaLocation,attr"`

	Identifier  dcIdentifier  `xml:"identifier"`
	Creators    []dcCreator   `xml:"creators>creator"`
	Titles      []string      `xml:"titles>title"`
	Publisher   string        `xml:"publisher"`
	PubYear     string        `xml:"publicationYear"`
	Subjects    []string      `xml:"subjects>subject,omitempty"`
	Contribs    *dcContribs   `xml:"contributors,omitempty"`
	Dates       []dcDate      `xml:"dates>date,omitempty"`
	ResType     *dcResType    `xml:"resourceType,omitempty"`
	AlternateID *dcAltIDs     `xml:"alternateIdentifiers,omitempty"`
	RelatedID   *dcRelIDs     `xml:"relatedIdentifiers,omitempty"`
	Rights      []dcRights    `xml:"rightsList>rights,omitempty"`
	Descs       *dcDescs      `xml:"descriptions,omitempty"`
}

type dcIdentifier struct {
	Type  string `xml:"identifierType,attr"`
	Value string `xml:",chardata"`
}

type dcCreator struct {
	Name        string    `xml:"creatorName"`
	NameID      *dcNameID `xml:"nameIdentifier,omitempty"`
	Affiliation string    `xml:"affiliation,omitempty"`
}

type dcNameID struct {
	Scheme string `xml:"nameIdentifierScheme,attr"`
	Value  string `xml:",chardata"`
}

type dcContribs struct {
	Contributors []dcContributor `xml:"contributor"`
}

type dcContributor struct {
	Type        string `xml:"contributorType,attr"`
	Name        string `xml:"contributorName"`
	Affiliation string `xml:"affiliation,omitempty"`
}

type dcDate struct {
	Type  string `xml:"dateType,attr"`
	Value string `xml:",chardata"`
}

type dcResType struct {
	General string `xml:"resourceTypeGeneral,attr"`
	Value   string `xml:",chardata"`
}

type dcAltIDs struct {
	IDs []dcAltID `xml:"alternateIdentifier"`
}

type dcAltID struct {
	Type  string `xml:"alternateIdentifierType,attr"`
	Value string `xml:",chardata"`
}

type dcRelIDs struct {
	IDs []dcRelID `xml:"relatedIdentifier"`
}

type dcRelID struct {
	Type     string `xml:"relatedIdentifierType,attr"`
	Relation string `xml:"relationType,attr"`
	Value    string `xml:",chardata"`
}

type dcRights struct {
	URI   string `xml:"rightsURI,attr,omitempty"`
	Value string `xml:",chardata"`
}

type dcDescs struct {
	Descriptions []dcDescription `xml:"description"`
}

type dcDescription struct {
	Type  string `xml:"descriptionType,attr"`
	Value string `xml:",chardata"`
}

var resourceTypeGeneral = map[string]string{
	"publication":  "Text",
	"poster":       "Text",
	"presentation": "Text",
	"dataset":      "Dataset",
	"image":        "Image",
	"video":        "Audiovisual",
	"software":     "Software",
	"lesson":       "InteractiveResource",
	"other":        "Other",
}

// DataCiteXML serializes record metadata to DataCite XML. Unknown fields are
// dropped silently; the mapping is lossless for the fields it claims.
func DataCiteXML(meta *models.RecordMetadata) ([]byte, error) {
	res := dcResource{
		XMLNS:          dataciteNS,
		XMLNSXSI:       dataciteXSI,
		SchemaLocation: dataciteLoc,
		Identifier:     dcIdentifier{Type: "DOI", Value: meta.DOI},
		Titles:         []string{meta.Title},
		Publisher:      "Depository",
		PubYear:        pubYear(meta.PublicationDate),
		Subjects:       meta.Keywords,
	}

	for _, cr := range meta.Creators {
		c := dcCreator{Name: cr.Name, Affiliation: cr.Affiliation}
		if cr.ORCID != "" {
			c.NameID = &dcNameID{Scheme: "ORCID", Value: cr.ORCID}
		} else if cr.GND != "" {
			c.NameID = &dcNameID{Scheme: "GND", Value: cr.GND}
		}
		res.Creators = append(res.Creators, c)
	}

	if len(meta.Contributors) > 0 {
		cs := &dcContribs{}
		for _, ct := range meta.Contributors {
			typ := ct.Type
			if typ == "" {
				typ = "Other"
			}
			cs.Contributors = append(cs.Contributors, dcContributor{
				Type: typ, Name: ct.Name, Affiliation: ct.Affiliation,
			})
		}
		res.Contribs = cs
	}

	res.Dates = append(res.Dates, dcDate{Type: "Issued", Value: meta.PublicationDate})
	if meta.AccessRight == "embargoed" && meta.EmbargoDate != "" {
		res.Dates = append(res.Dates, dcDate{Type: "Available", Value: meta.EmbargoDate})
	}

	if meta.ResourceType.Type != "" {
		general, ok := resourceTypeGeneral[meta.ResourceType.Type]
		if !ok {
			general = "Other"
		}
		value := meta.ResourceType.Type
		if meta.ResourceType.Subtype != "" {
			value = meta.ResourceType.Subtype
		}
		res.ResType = &dcResType{General: general, Value: value}
	}

	if len(meta.AlternateIdentifiers) > 0 {
		ids := &dcAltIDs{}
		for _, alt := range meta.AlternateIdentifiers {
			ids.IDs = append(ids.IDs, dcAltID{Type: strings.ToUpper(alt.Scheme), Value: alt.Identifier})
		}
		res.AlternateID = ids
	}

	if len(meta.RelatedIdentifiers) > 0 {
		ids := &dcRelIDs{}
		for _, rel := range meta.RelatedIdentifiers {
			ids.IDs = append(ids.IDs, dcRelID{
				Type:     strings.ToUpper(rel.Scheme),
				Relation: rel.Relation,
				Value:    rel.Identifier,
			})
		}
		res.RelatedID = ids
	}

	if meta.License != "" {
		res.Rights = append(res.Rights, dcRights{Value: meta.License})
	}
	res.Rights = append(res.Rights, dcRights{Value: "info:eu-repo/semantics/" + accessRightSemantics(meta.AccessRight)})

	if meta.Description != "" {
		res.Descs = &dcDescs{Descriptions: []dcDescription{{Type: "Abstract", Value: meta.Description}}}
	}

	out, err := xml.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func accessRightSemantics(accessRight string) string {
	switch accessRight {
	case "open":
		return "openAccess"
	case "embargoed":
		return "embargoedAccess"
	case "restricted":
		return "restrictedAccess"
	default:
		return "closedAccess"
	}
}

func pubYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}

// ParseDataCite reads DataCite XML back into metadata, for the fields the
// profile carries.
func ParseDataCite(data []byte) (*models.RecordMetadata, error) {
	var res struct {
		Identifier dcIdentifier `xml:"identifier"`
		Creators   []dcCreator  `xml:"creators>creator"`
		Titles     []string     `xml:"titles>title"`
		Subjects   []string     `xml:"subjects>subject"`
		Dates      []dcDate     `xml:"dates>date"`
		ResType    *dcResType   `xml:"resourceType"`
		RelatedID  *dcRelIDs    `xml:"relatedIdentifiers"`
		Descs      *dcDescs     `xml:"descriptions"`
	}
	if err := xml.Unmarshal(data, &res); err != nil {
		return nil, err
	}

	meta := &models.RecordMetadata{
		DOI:      res.Identifier.Value,
		Keywords: res.Subjects,
	}
	if len(res.Titles) > 0 {
		meta.Title = res.Titles[0]
	}
	for _, c := range res.Creators {
		cr := models.Creator{Name: c.Name, Affiliation: c.Affiliation}
		if c.NameID != nil && c.NameID.Scheme == "ORCID" {
			cr.ORCID = c.NameID.Value
		}
		meta.Creators = append(meta.Creators, cr)
	}
	for _, d := range res.Dates {
		switch d.Type {
		case "Issued":
			meta.PublicationDate = d.Value
		case "Available":
			meta.EmbargoDate = d.Value
		}
	}
	if res.RelatedID != nil {
		for _, rel := range res.RelatedID.IDs {
			meta.RelatedIdentifiers = append(meta.RelatedIdentifiers, models.RelatedIdentifier{
				Identifier: rel.Value,
				Scheme:     strings.ToLower(rel.Type),
				Relation:   rel.Relation,
			})
		}
	}
	if res.Descs != nil {
		for _, d := range res.Descs.Descriptions {
			if d.Type == "Abstract" {
				meta.Description = d.Value
			}
		}
	}
	return meta, nil
}
