package access

import (
	"time"

	"github.com/sciforge/depository/pkg/common/models"
)

// Firerole is a time-and-identity-parameterized access expression derived
// from a record's access right. It is evaluated on every access; no
// migration task is needed when an embargo lifts.
type Firerole struct {
	// PublicAfter is the zero time for always-public content and nil for
	// never-public content.
	PublicAfter *time.Time `json:"public_after,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`
	Grantees    []string   `json:"grantees,omitempty"`
}

// Allows decides whether the requester may read file bytes at the given
// instant. Record metadata is always public; only bytes are gated.
func (f Firerole) Allows(requester models.RequestContext, now time.Time) bool {
	if requester.Admin {
		return true
	}
	if f.PublicAfter != nil && !now.Before(*f.PublicAfter) {
		return true
	}
	if f.OwnerID != "" && requester.UserID == f.OwnerID {
		return true
	}
	for _, g := range f.Grantees {
		if g != "" && (g == requester.UserID || g == requester.Email) {
			return true
		}
	}
	return false
}

// Derive builds the firerole for a record's files.
func Derive(meta *models.RecordMetadata) Firerole {
	f := Firerole{OwnerID: meta.Owner}
	switch meta.AccessRight {
	case models.AccessOpen:
		epoch := time.Time{}
		f.PublicAfter = &epoch
	case models.AccessEmbargoed:
		if d, err := time.Parse("2006-01-02", meta.EmbargoDate); err == nil {
			f.PublicAfter = &d
		}
		// An unparseable embargo date leaves the files owner-only.
	case models.AccessRestricted:
		f.Grantees = append(f.Grantees, meta.AccessGrantees...)
	case models.AccessClosed:
	}
	return f
}

// Evaluate is the single-call form: derive and check in one step.
func Evaluate(meta *models.RecordMetadata, requester models.RequestContext, now time.Time) bool {
	return Derive(meta).Allows(requester, now)
}
