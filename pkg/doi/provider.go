package doi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sciforge/depository/pkg/common/models"
)

var ErrBannedPrefix = errors.New("DOI prefix is not allowed")

// Provider talks to (or stands in for) a DOI registrar. Every call is
// idempotent with respect to already-achieved remote state.
type Provider interface {
	Reserve(ctx context.Context, doi string, meta *models.RecordMetadata) error
	Register(ctx context.Context, doi string, meta *models.RecordMetadata, landingURL string) error
	Update(ctx context.Context, doi string, meta *models.RecordMetadata, landingURL string) error
	Delete(ctx context.Context, doi string) error
}

// Selector picks the provider for a DOI value by inspecting its prefix.
type Selector struct {
	prefix   string
	banned   []string
	managed  Provider
	external Provider
}

func NewSelector(prefix string, banned []string, managed Provider) *Selector {
	return &Selector{
		prefix:   strings.TrimSuffix(prefix, "/"),
		banned:   banned,
		managed:  managed,
		external: &ExternalProvider{},
	}
}

func (s *Selector) Prefix() string { return s.prefix }

// LocalDOI builds the managed DOI for a record identifier.
func (s *Selector) LocalDOI(recid int64) string {
	return fmt.Sprintf("%s/depository.%d", s.prefix, recid)
}

// ConceptDOI builds the managed concept DOI shared across versions.
func (s *Selector) ConceptDOI(conceptRecid string) string {
	return fmt.Sprintf("%s/depository.%s", s.prefix, conceptRecid)
}

func (s *Selector) IsManaged(doi string) bool {
	return strings.HasPrefix(doi, s.prefix+"/")
}

func (s *Selector) IsBanned(doi string) bool {
	for _, b := range s.banned {
		b = strings.TrimSuffix(b, "/")
		if strings.HasPrefix(doi, b+"/") || doi == b {
			return true
		}
	}
	return false
}

// ForDOI returns the provider responsible for the value, rejecting banned
// prefixes for new allocations.
func (s *Selector) ForDOI(doi string) (Provider, error) {
	if s.IsBanned(doi) {
		return nil, fmt.Errorf("%s: %w", doi, ErrBannedPrefix)
	}
	if s.IsManaged(doi) {
		return s.managed, nil
	}
	return s.external, nil
}
