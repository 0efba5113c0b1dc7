package serializers

import (
	"encoding/xml"

	"github.com/sciforge/depository/pkg/common/models"
)

type oaiDC struct {
	XMLName   xml.Name `xml:"oai_dc:dc"`
	XMLNSDC   string   `xml:"xmlns:dc,attr"`
	XMLNSOAI  string   `xml:"xmlns:oai_dc,attr"`
	XMLNSXSI  string   `xml:"xmlns:xsi,attr"`
	SchemaLoc string   `xml:"xsi:schemaLocation,attr"`

	Titles       []string `xml:"dc:title"`
	Creators     []string `xml:"dc:creator"`
	Subjects     []string `xml:"dc:subject,omitempty"`
	Descriptions []string `xml:"dc:description,omitempty"`
	Publishers   []string `xml:"dc:publisher,omitempty"`
	Contributors []string `xml:"dc:contributor,omitempty"`
	Dates        []string `xml:"dc:date,omitempty"`
	Types        []string `xml:"dc:type,omitempty"`
	Identifiers  []string `xml:"dc:identifier,omitempty"`
	Relations    []string `xml:"dc:relation,omitempty"`
	Rights       []string `xml:"dc:rights,omitempty"`
}

// DublinCoreXML serializes record metadata as oai_dc.
func DublinCoreXML(meta *models.RecordMetadata) ([]byte, error) {
	doc := oaiDC{
		XMLNSDC:   "http://purl.org/dc/elements/1.1/",
		XMLNSOAI:  "http://www.openarchives.org/OAI/2.0/oai_dc/",
		XMLNSXSI:  "http://www.w3.org/2001/XMLSchema-instance",
		SchemaLoc: "http://www.openarchives.org/OAI/2.0/oai_dc/ http://www.openarchives.org/OAI/2.0/oai_dc.xsd",
		Titles:    []string{meta.Title},
		Dates:     []string{meta.PublicationDate},
	}

	for _, c := range meta.Creators {
		doc.Creators = append(doc.Creators, c.Name)
	}
	for _, c := range meta.Contributors {
		doc.Contributors = append(doc.Contributors, c.Name)
	}
	doc.Subjects = meta.Keywords
	if meta.Description != "" {
		doc.Descriptions = []string{meta.Description}
	}
	if meta.ResourceType.Type != "" {
		doc.Types = []string{meta.ResourceType.Type}
	}
	if meta.DOI != "" {
		doc.Identifiers = append(doc.Identifiers, "doi:"+meta.DOI)
	}
	if meta.OAIIdentifier != "" {
		doc.Identifiers = append(doc.Identifiers, meta.OAIIdentifier)
	}
	for _, rel := range meta.RelatedIdentifiers {
		doc.Relations = append(doc.Relations, rel.Identifier)
	}
	if meta.License != "" {
		doc.Rights = append(doc.Rights, meta.License)
	}
	doc.Rights = append(doc.Rights, "info:eu-repo/semantics/"+accessRightSemantics(meta.AccessRight))

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
