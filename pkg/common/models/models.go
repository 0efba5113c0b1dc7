package models

import (
	"time"
)

// RequestContext carries the authenticated caller through engine calls.
type RequestContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	IP     string `json:"ip,omitempty"`
	Admin  bool   `json:"admin,omitempty"`
}

// Agent identifies who sealed a submission package.
type Agent struct {
	Email     string `json:"email,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SchemaURL string `json:"$schema"`
}

type Creator struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
	GND         string `json:"gnd,omitempty"`
}

type Contributor struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	Type        string `json:"type"`
	ORCID       string `json:"orcid,omitempty"`
}

type RelatedIdentifier struct {
	Identifier string `json:"identifier"`
	Scheme     string `json:"scheme"`
	Relation   string `json:"relation"`
}

type AlternateIdentifier struct {
	Identifier string `json:"identifier"`
	Scheme     string `json:"scheme"`
}

type ResourceType struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
}

type Grant struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

type Journal struct {
	Title  string `json:"title,omitempty"`
	Volume string `json:"volume,omitempty"`
	Issue  string `json:"issue,omitempty"`
	Pages  string `json:"pages,omitempty"`
}

type RecordFile struct {
	FileID   string `json:"file_id"`
	Key      string `json:"key"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
	Type     string `json:"type,omitempty"`
}

// Access rights a record can carry. Metadata is always public; these govern
// the file bytes only.
const (
	AccessOpen       = "open"
	AccessEmbargoed  = "embargoed"
	AccessRestricted = "restricted"
	AccessClosed     = "closed"
)

// RecordMetadata is the published metadata document. The same shape is used
// for deposition drafts; publish-time validation decides which fields are
// mandatory.
type RecordMetadata struct {
	Schema               string                `json:"$schema,omitempty"`
	Recid                int64                 `json:"recid,omitempty"`
	ConceptRecid         string                `json:"conceptrecid,omitempty"`
	DOI                  string                `json:"doi,omitempty"`
	ConceptDOI           string                `json:"conceptdoi,omitempty"`
	OAIIdentifier        string                `json:"oai,omitempty"`
	ResourceType         ResourceType          `json:"resource_type"`
	Title                string                `json:"title"`
	Creators             []Creator             `json:"creators"`
	PublicationDate      string                `json:"publication_date"`
	Description          string                `json:"description,omitempty"`
	Keywords             []string              `json:"keywords,omitempty"`
	Notes                string                `json:"notes,omitempty"`
	AccessRight          string                `json:"access_right"`
	EmbargoDate          string                `json:"embargo_date,omitempty"`
	AccessConditions     string                `json:"access_conditions,omitempty"`
	AccessGrantees       []string              `json:"access_grantees,omitempty"`
	License              string                `json:"license,omitempty"`
	Communities          []string              `json:"communities,omitempty"`
	Grants               []Grant               `json:"grants,omitempty"`
	RelatedIdentifiers   []RelatedIdentifier   `json:"related_identifiers,omitempty"`
	AlternateIdentifiers []AlternateIdentifier `json:"alternate_identifiers,omitempty"`
	Contributors         []Contributor         `json:"contributors,omitempty"`
	References           []string              `json:"references,omitempty"`
	Journal              *Journal              `json:"journal,omitempty"`
	Owner                string                `json:"owner,omitempty"`
	Files                []RecordFile          `json:"files,omitempty"`
}

// FileInfo is the REST representation of an uploaded file.
type FileInfo struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Checksum string `json:"checksum"`
	Filesize int64  `json:"filesize"`
}

type PublishResponse struct {
	RecordID int64 `json:"record_id"`
}

// Event is the message envelope on the Kafka bus.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// FieldError is one entry of the REST error envelope.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrorEnvelope is returned on every non-2xx response.
type ErrorEnvelope struct {
	Status  int          `json:"status"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}
