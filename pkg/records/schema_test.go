package records

import (
	"testing"
	"time"

	"github.com/sciforge/depository/pkg/common/models"
	"github.com/stretchr/testify/require"
)

func validMeta() *models.RecordMetadata {
	return &models.RecordMetadata{
		Title:           "My first upload",
		Creators:        []models.Creator{{Name: "Doe, John", Affiliation: "Depository"}},
		PublicationDate: "2026-08-27",
		ResourceType:    models.ResourceType{Type: "publication", Subtype: "poster"},
		AccessRight:     AccessOpen,
		License:         "cc-by",
		Description:     "A poster.",
	}
}

func testNow() time.Time {
	return time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
}

func fieldCodes(err error) map[string]int {
	ve, ok := AsValidationError(err)
	if !ok {
		return nil
	}
	out := make(map[string]int)
	for _, f := range ve.Fields {
		out[f.Field] = f.Code
	}
	return out
}

func TestValidateAcceptsMinimalRecord(t *testing.T) {
	require.NoError(t, Validate(validMeta(), nil, testNow()))
}

func TestValidateMissingRequiredFields(t *testing.T) {
	meta := validMeta()
	meta.Title = ""
	meta.Creators = nil
	meta.PublicationDate = ""

	err := Validate(meta, nil, testNow())
	require.Error(t, err)

	codes := fieldCodes(err)
	require.Equal(t, CodeMissing, codes["metadata.title"])
	require.Equal(t, CodeMissing, codes["metadata.creators"])
	require.Equal(t, CodeMissing, codes["metadata.publication_date"])
}

func TestValidateUnknownUploadType(t *testing.T) {
	meta := validMeta()
	meta.ResourceType = models.ResourceType{Type: "sculpture"}

	err := Validate(meta, nil, testNow())
	require.Error(t, err)
	require.Equal(t, CodeUnknown, fieldCodes(err)["metadata.upload_type"])
}

func TestValidateSubtypeRequired(t *testing.T) {
	meta := validMeta()
	meta.ResourceType = models.ResourceType{Type: "publication"}

	err := Validate(meta, nil, testNow())
	require.Error(t, err)
	require.Equal(t, CodeMissing, fieldCodes(err)["metadata.publication_type"])
}

func TestValidateEmbargoRules(t *testing.T) {
	meta := validMeta()
	meta.AccessRight = AccessEmbargoed
	meta.EmbargoDate = "2099-01-01"
	require.NoError(t, Validate(meta, nil, testNow()))

	meta.EmbargoDate = "2020-01-01"
	err := Validate(meta, nil, testNow())
	require.Error(t, err)
	require.Equal(t, CodeInvalid, fieldCodes(err)["metadata.embargo_date"])

	meta.EmbargoDate = ""
	err = Validate(meta, nil, testNow())
	require.Error(t, err)
	require.Equal(t, CodeMissing, fieldCodes(err)["metadata.embargo_date"])
}

func TestValidateLicenseRequiredForOpen(t *testing.T) {
	meta := validMeta()
	meta.License = ""

	err := Validate(meta, nil, testNow())
	require.Error(t, err)
	require.Equal(t, CodeMissing, fieldCodes(err)["metadata.license"])

	// closed records do not need a license
	meta.AccessRight = AccessClosed
	require.NoError(t, Validate(meta, nil, testNow()))
}

func TestValidateAgainstRegistry(t *testing.T) {
	reg, err := NewRegistry("", "")
	require.NoError(t, err)

	meta := validMeta()
	meta.License = "wtfpl"
	verr := Validate(meta, reg, testNow())
	require.Error(t, verr)
	require.Equal(t, CodeUnknown, fieldCodes(verr)["metadata.license"])

	meta = validMeta()
	require.NoError(t, Validate(meta, reg, testNow()))
}

func TestValidateRestrictedNeedsConditions(t *testing.T) {
	meta := validMeta()
	meta.AccessRight = AccessRestricted
	meta.License = ""

	err := Validate(meta, nil, testNow())
	require.Error(t, err)
	require.Equal(t, CodeMissing, fieldCodes(err)["metadata.access_conditions"])

	meta.AccessConditions = "Apply by mail."
	require.NoError(t, Validate(meta, nil, testNow()))
}
