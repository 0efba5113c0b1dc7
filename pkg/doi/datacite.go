package doi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/common/models"
	"github.com/sciforge/depository/pkg/serializers"
)

// RegistrarError wraps a failed registrar call. Recoverable errors are
// re-queued for retry; permanent ones need operator attention.
type RegistrarError struct {
	StatusCode  int
	Body        string
	Recoverable bool
}

func (e *RegistrarError) Error() string {
	kind := "permanent"
	if e.Recoverable {
		kind = "recoverable"
	}
	return fmt.Sprintf("registrar error (%s, HTTP %d): %s", kind, e.StatusCode, e.Body)
}

// IsRecoverable reports whether the error should be retried.
func IsRecoverable(err error) bool {
	var re *RegistrarError
	if errors.As(err, &re) {
		return re.Recoverable
	}
	// Network-level failures (timeouts, refused connections) are retriable.
	return err != nil
}

// DataCiteClient implements the managed provider against the DataCite MDS
// API: metadata is posted as DataCite XML, the DOI is minted with a landing
// URL, and deletion marks the DOI inactive.
type DataCiteClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

func NewDataCiteClient(baseURL, username, password string, timeout time.Duration) *DataCiteClient {
	return &DataCiteClient{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *DataCiteClient) Reserve(ctx context.Context, doi string, meta *models.RecordMetadata) error {
	// Posting metadata without minting the DOI reserves it in the draft
	// state at DataCite.
	return c.postMetadata(ctx, doi, meta)
}

func (c *DataCiteClient) Register(ctx context.Context, doi string, meta *models.RecordMetadata, landingURL string) error {
	if err := c.postMetadata(ctx, doi, meta); err != nil {
		return err
	}
	return c.mintDOI(ctx, doi, landingURL)
}

func (c *DataCiteClient) Update(ctx context.Context, doi string, meta *models.RecordMetadata, landingURL string) error {
	if err := c.postMetadata(ctx, doi, meta); err != nil {
		return err
	}
	return c.mintDOI(ctx, doi, landingURL)
}

func (c *DataCiteClient) Delete(ctx context.Context, doi string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/metadata/"+doi, nil)
	if err != nil {
		return err
	}
	return c.do(req, doi, "delete")
}

func (c *DataCiteClient) postMetadata(ctx context.Context, doi string, meta *models.RecordMetadata) error {
	withDOI := *meta
	withDOI.DOI = doi
	body, err := serializers.DataCiteXML(&withDOI)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/metadata", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/xml;charset=UTF-8")
	return c.do(req, doi, "metadata")
}

func (c *DataCiteClient) mintDOI(ctx context.Context, doi, landingURL string) error {
	payload := fmt.Sprintf("doi=%s\nurl=%s", doi, landingURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/doi/"+doi, strings.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	return c.do(req, doi, "mint")
}

func (c *DataCiteClient) do(req *http.Request, doi, op string) error {
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.client.Do(req)
	if err != nil {
		logger.WithError(err).WithField("doi", doi).Warn("registrar request failed")
		return &RegistrarError{StatusCode: 0, Body: err.Error(), Recoverable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	regErr := &RegistrarError{
		StatusCode:  resp.StatusCode,
		Body:        strings.TrimSpace(string(body)),
		Recoverable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
	}
	logger.WithFields(map[string]interface{}{
		"doi":    doi,
		"op":     op,
		"status": resp.StatusCode,
	}).Warn("registrar rejected request")
	return regErr
}
