package doi

import (
	"context"

	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
)

// ExternalProvider handles DOIs outside the managed prefix. It never makes
// network calls; status changes are log-only.
type ExternalProvider struct{}

func (p *ExternalProvider) Reserve(ctx context.Context, doi string, meta *models.RecordMetadata) error {
	logger.WithField("doi", doi).Debug("external DOI reserve (no-op)")
	return nil
}

func (p *ExternalProvider) Register(ctx context.Context, doi string, meta *models.RecordMetadata, landingURL string) error {
	logger.WithField("doi", doi).Debug("external DOI register (no-op)")
	return nil
}

func (p *ExternalProvider) Update(ctx context.Context, doi string, meta *models.RecordMetadata, landingURL string) error {
	logger.WithField("doi", doi).Debug("external DOI update (no-op)")
	return nil
}

func (p *ExternalProvider) Delete(ctx context.Context, doi string) error {
	logger.WithField("doi", doi).Debug("external DOI delete (no-op)")
	return nil
}
