package records

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sciforge/depository/pkg/common/models"
)

// SchemaURL is pinned into every published document.
const SchemaURL = "https://depository.local/schemas/records/record-v1.0.0.json"

// Field error codes carried in the REST envelope.
const (
	CodeMissing = 10
	CodeInvalid = 11
	CodeUnknown = 12
)

// The access-right vocabulary lives in models so that packages on either
// side of records can share it.
const (
	AccessOpen       = models.AccessOpen
	AccessEmbargoed  = models.AccessEmbargoed
	AccessRestricted = models.AccessRestricted
	AccessClosed     = models.AccessClosed
)

var uploadTypes = map[string][]string{
	"publication": {"book", "section", "conferencepaper", "article", "patent",
		"preprint", "report", "softwaredocumentation", "thesis", "technicalnote",
		"workingpaper", "deliverable", "milestone", "proposal", "poster", "other"},
	"poster":       nil,
	"presentation": nil,
	"dataset":      nil,
	"image":        {"figure", "plot", "drawing", "diagram", "photo", "other"},
	"video":        nil,
	"software":     nil,
	"lesson":       nil,
	"other":        nil,
}

// ValidationError aggregates field-level failures.
type ValidationError struct {
	Fields []models.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
		} else {
			parts = append(parts, f.Message)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

type fieldCollector struct {
	fields []models.FieldError
}

func (c *fieldCollector) add(field string, code int, message string) {
	c.fields = append(c.fields, models.FieldError{Field: field, Code: code, Message: message})
}

func (c *fieldCollector) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

// Validate checks a metadata document against the record schema and the
// publish-time business rules. now anchors the embargo check.
func Validate(meta *models.RecordMetadata, reg *Registry, now time.Time) error {
	c := &fieldCollector{}

	if strings.TrimSpace(meta.Title) == "" {
		c.add("metadata.title", CodeMissing, "Title is required.")
	}
	if len(meta.Creators) == 0 {
		c.add("metadata.creators", CodeMissing, "At least one creator is required.")
	}
	for i, cr := range meta.Creators {
		if strings.TrimSpace(cr.Name) == "" {
			c.add(fmt.Sprintf("metadata.creators.%d.name", i), CodeMissing, "Creator name is required.")
		}
	}

	if meta.PublicationDate == "" {
		c.add("metadata.publication_date", CodeMissing, "Publication date is required.")
	} else if _, err := time.Parse("2006-01-02", meta.PublicationDate); err != nil {
		c.add("metadata.publication_date", CodeInvalid, "Publication date must be an ISO date (YYYY-MM-DD).")
	}

	subtypes, known := uploadTypes[meta.ResourceType.Type]
	if meta.ResourceType.Type == "" {
		c.add("metadata.upload_type", CodeMissing, "Upload type is required.")
	} else if !known {
		c.add("metadata.upload_type", CodeUnknown, fmt.Sprintf("Unknown upload type '%s'.", meta.ResourceType.Type))
	} else if len(subtypes) > 0 {
		if meta.ResourceType.Subtype == "" {
			c.add("metadata."+meta.ResourceType.Type+"_type", CodeMissing,
				fmt.Sprintf("Subtype is required for upload type '%s'.", meta.ResourceType.Type))
		} else if !contains(subtypes, meta.ResourceType.Subtype) {
			c.add("metadata."+meta.ResourceType.Type+"_type", CodeUnknown,
				fmt.Sprintf("Unknown subtype '%s'.", meta.ResourceType.Subtype))
		}
	}

	switch meta.AccessRight {
	case "":
		c.add("metadata.access_right", CodeMissing, "Access right is required.")
	case AccessOpen, AccessClosed:
	case AccessEmbargoed:
		if meta.EmbargoDate == "" {
			c.add("metadata.embargo_date", CodeMissing, "Embargo date is required for embargoed records.")
		} else if d, err := time.Parse("2006-01-02", meta.EmbargoDate); err != nil {
			c.add("metadata.embargo_date", CodeInvalid, "Embargo date must be an ISO date (YYYY-MM-DD).")
		} else if !d.After(now) {
			c.add("metadata.embargo_date", CodeInvalid, "Embargo date must be in the future.")
		}
	case AccessRestricted:
		if strings.TrimSpace(meta.AccessConditions) == "" {
			c.add("metadata.access_conditions", CodeMissing, "Access conditions are required for restricted records.")
		}
	default:
		c.add("metadata.access_right", CodeUnknown, fmt.Sprintf("Unknown access right '%s'.", meta.AccessRight))
	}

	if meta.AccessRight == AccessOpen || meta.AccessRight == AccessEmbargoed {
		if meta.License == "" {
			c.add("metadata.license", CodeMissing, "License is required for open and embargoed records.")
		} else if reg != nil && !reg.KnownLicense(meta.License) {
			c.add("metadata.license", CodeUnknown, fmt.Sprintf("Unknown license '%s'.", meta.License))
		}
	}

	if reg != nil {
		for i, comm := range meta.Communities {
			if !reg.KnownCommunity(comm) {
				c.add(fmt.Sprintf("metadata.communities.%d", i), CodeUnknown,
					"Provided community does not exist: "+comm)
			}
		}
	}

	for i, rel := range meta.RelatedIdentifiers {
		if rel.Identifier == "" || rel.Relation == "" {
			c.add(fmt.Sprintf("metadata.related_identifiers.%d", i), CodeInvalid,
				"Related identifiers need both identifier and relation.")
		}
	}

	return c.err()
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
