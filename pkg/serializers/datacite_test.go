package serializers

import (
	"strings"
	"testing"

	"github.com/sciforge/depository/pkg/common/models"
	"github.com/stretchr/testify/require"
)

func sampleMeta() *models.RecordMetadata {
	return &models.RecordMetadata{
		DOI:             "10.5281/depository.42",
		Title:           "Test publication",
		Creators:        []models.Creator{{Name: "Doe, John", Affiliation: "CERN", ORCID: "0000-0002-1825-0097"}},
		PublicationDate: "2026-08-27",
		Description:     "An abstract.",
		Keywords:        []string{"physics", "data"},
		ResourceType:    models.ResourceType{Type: "publication", Subtype: "article"},
		AccessRight:     "open",
		License:         "cc-by",
		RelatedIdentifiers: []models.RelatedIdentifier{
			{Identifier: "10.1234/parent", Scheme: "doi", Relation: "isPartOf"},
		},
	}
}

func TestDataCiteRoundTrip(t *testing.T) {
	meta := sampleMeta()

	out, err := DataCiteXML(meta)
	require.NoError(t, err)
	require.Contains(t, string(out), `identifierType="DOI"`)
	require.Contains(t, string(out), "http://datacite.org/schema/kernel-3")

	parsed, err := ParseDataCite(out)
	require.NoError(t, err)

	require.Equal(t, meta.DOI, parsed.DOI)
	require.Equal(t, meta.Title, parsed.Title)
	require.Equal(t, meta.PublicationDate, parsed.PublicationDate)
	require.Equal(t, meta.Description, parsed.Description)
	require.Equal(t, meta.Keywords, parsed.Keywords)
	require.Equal(t, meta.RelatedIdentifiers, parsed.RelatedIdentifiers)
	require.Len(t, parsed.Creators, 1)
	require.Equal(t, "Doe, John", parsed.Creators[0].Name)
	require.Equal(t, "0000-0002-1825-0097", parsed.Creators[0].ORCID)
}

func TestDataCiteEmbargoedDates(t *testing.T) {
	meta := sampleMeta()
	meta.AccessRight = "embargoed"
	meta.EmbargoDate = "2099-01-01"

	out, err := DataCiteXML(meta)
	require.NoError(t, err)
	require.Contains(t, string(out), `dateType="Available"`)

	parsed, err := ParseDataCite(out)
	require.NoError(t, err)
	require.Equal(t, "2099-01-01", parsed.EmbargoDate)
}

func TestDublinCore(t *testing.T) {
	out, err := DublinCoreXML(sampleMeta())
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, "<dc:title>Test publication</dc:title>")
	require.Contains(t, s, "<dc:creator>Doe, John</dc:creator>")
	require.Contains(t, s, "<dc:identifier>doi:10.5281/depository.42</dc:identifier>")
	require.Contains(t, s, "info:eu-repo/semantics/openAccess")
}

func TestMARC21(t *testing.T) {
	out, err := MARC21XML(sampleMeta())
	require.NoError(t, err)
	s := string(out)
	require.Contains(t, s, `tag="245"`)
	require.Contains(t, s, "Test publication")
	require.Contains(t, s, `tag="100"`)
	require.Contains(t, s, `tag="024"`)
	require.Contains(t, s, "10.5281/depository.42")
}

func TestForAccept(t *testing.T) {
	_, mime := ForAccept("application/x-datacite+xml")
	require.Equal(t, MimeDataCite, mime)

	_, mime = ForAccept("text/html, application/marcxml+xml;q=0.9")
	require.Equal(t, MimeMARC21, mime)

	_, mime = ForAccept("")
	require.Equal(t, MimeJSON, mime)

	_, mime = ForAccept("text/csv")
	require.True(t, strings.HasPrefix(mime, "application/json"))
}
