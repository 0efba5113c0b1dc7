package serializers

import (
	"encoding/xml"

	"github.com/sciforge/depository/pkg/common/models"
)

type marcRecord struct {
	XMLName   xml.Name        `xml:"record"`
	XMLNS     string          `xml:"xmlns,attr"`
	Leader    string          `xml:"leader"`
	Controls  []marcControl   `xml:"controlfield"`
	DataField []marcDatafield `xml:"datafield"`
}

type marcControl struct {
	Tag   string `xml:"tag,attr"`
	Value string `xml:",chardata"`
}

type marcDatafield struct {
	Tag       string         `xml:"tag,attr"`
	Ind1      string         `xml:"ind1,attr"`
	Ind2      string         `xml:"ind2,attr"`
	Subfields []marcSubfield `xml:"subfield"`
}

type marcSubfield struct {
	Code  string `xml:"code,attr"`
	Value string `xml:",chardata"`
}

func datafield(tag string, subs ...marcSubfield) marcDatafield {
	return marcDatafield{Tag: tag, Ind1: " ", Ind2: " ", Subfields: subs}
}

func sub(code, value string) marcSubfield {
	return marcSubfield{Code: code, Value: value}
}

// MARC21XML serializes the semantic subset of record metadata carried by
// the MARC mapping.
func MARC21XML(meta *models.RecordMetadata) ([]byte, error) {
	rec := marcRecord{
		XMLNS:  "http://www.loc.gov/MARC21/slim",
		Leader: "00000nam a2200000uu 4500",
	}

	if meta.DOI != "" {
		rec.DataField = append(rec.DataField,
			marcDatafield{Tag: "024", Ind1: "7", Ind2: " ", Subfields: []marcSubfield{
				sub("a", meta.DOI), sub("2", "doi"),
			}})
	}

	for i, c := range meta.Creators {
		tag := "700"
		if i == 0 {
			tag = "100"
		}
		subs := []marcSubfield{sub("a", c.Name)}
		if c.Affiliation != "" {
			subs = append(subs, sub("u", c.Affiliation))
		}
		rec.DataField = append(rec.DataField, datafield(tag, subs...))
	}

	rec.DataField = append(rec.DataField, datafield("245", sub("a", meta.Title)))
	rec.DataField = append(rec.DataField, datafield("260", sub("c", meta.PublicationDate)))

	for _, kw := range meta.Keywords {
		rec.DataField = append(rec.DataField, datafield("653", sub("a", kw)))
	}
	if meta.Description != "" {
		rec.DataField = append(rec.DataField, datafield("520", sub("a", meta.Description)))
	}
	if meta.License != "" {
		rec.DataField = append(rec.DataField, datafield("540", sub("a", meta.License)))
	}
	rec.DataField = append(rec.DataField,
		datafield("542", sub("l", accessRightSemantics(meta.AccessRight))))
	if meta.ResourceType.Type != "" {
		value := meta.ResourceType.Type
		if meta.ResourceType.Subtype != "" {
			value = value + "-" + meta.ResourceType.Subtype
		}
		rec.DataField = append(rec.DataField, datafield("980", sub("a", value)))
	}

	out, err := xml.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
