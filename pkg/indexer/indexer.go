package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/records"
)

// Indexer pushes records into an external search index. Failures never fail
// a publish; the reconciler re-pushes stale records later.
type Indexer interface {
	Index(ctx context.Context, rec *records.Record) error
	Remove(ctx context.Context, recordID string) error
}

// HTTPIndexer talks to a document-per-record search endpoint.
type HTTPIndexer struct {
	baseURL string
	client  *http.Client
	redis   *redis.Client
}

func NewHTTPIndexer(baseURL string, rdb *redis.Client) *HTTPIndexer {
	return &HTTPIndexer{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		redis:   rdb,
	}
}

func revisionKey(recordID string) string {
	return "index:rev:" + recordID
}

// lastIndexed returns the last revision pushed for a record, -1 when the
// record was never indexed.
func (ix *HTTPIndexer) lastIndexed(ctx context.Context, recordID string) int {
	if ix.redis == nil {
		return -1
	}
	val, err := ix.redis.Get(ctx, revisionKey(recordID)).Result()
	if err != nil {
		return -1
	}
	rev, err := strconv.Atoi(val)
	if err != nil {
		return -1
	}
	return rev
}

// Index pushes the record unless the index already holds this revision;
// re-indexing identical content is a no-op on the index's version counter.
func (ix *HTTPIndexer) Index(ctx context.Context, rec *records.Record) error {
	id := rec.ID.String()
	if ix.lastIndexed(ctx, id) == rec.Revision {
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"id":       id,
		"revision": rec.Revision,
		"metadata": rec.Metadata,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		ix.baseURL+"/"+id, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("search index returned HTTP %d", resp.StatusCode)
	}

	if ix.redis != nil {
		ix.redis.Set(ctx, revisionKey(id), strconv.Itoa(rec.Revision), 0)
	}
	return nil
}

func (ix *HTTPIndexer) Remove(ctx context.Context, recordID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		ix.baseURL+"/"+recordID, nil)
	if err != nil {
		return err
	}
	resp, err := ix.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("search index returned HTTP %d", resp.StatusCode)
	}
	if ix.redis != nil {
		ix.redis.Del(ctx, revisionKey(recordID))
	}
	return nil
}

// Reconciler re-indexes records whose index state lags their current
// revision. It runs on a cron schedule in the worker.
type Reconciler struct {
	store   *records.Store
	indexer *HTTPIndexer
}

func NewReconciler(store *records.Store, indexer *HTTPIndexer) *Reconciler {
	return &Reconciler{store: store, indexer: indexer}
}

func (r *Reconciler) Run(ctx context.Context) (int, error) {
	recs, err := r.store.All(ctx)
	if err != nil {
		return 0, err
	}

	reindexed := 0
	for i := range recs {
		rec := &recs[i]
		if !IsStale(r.indexer.lastIndexed(ctx, rec.ID.String()), rec.Revision) {
			continue
		}
		if err := r.indexer.Index(ctx, rec); err != nil {
			logger.WithError(err).WithField("record", rec.ID).Warn("reconcile index push failed")
			continue
		}
		reindexed++
	}
	return reindexed, nil
}

// IsStale reports whether the indexed revision lags the current one.
func IsStale(lastIndexed, current int) bool {
	return lastIndexed < current
}
