package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sciforge/depository/pkg/common/kafka"
	"github.com/sciforge/depository/pkg/common/logger"
	"github.com/sciforge/depository/pkg/doi"
	"github.com/sciforge/depository/pkg/indexer"
	"github.com/sciforge/depository/pkg/observability/metrics"
	"github.com/sciforge/depository/pkg/outbox"
	"github.com/sciforge/depository/pkg/pidstore"
	"github.com/sciforge/depository/pkg/records"
	"gorm.io/gorm"
)

// Event types announced on the bus after a side effect lands.
const (
	EventDOIRegistered    = "doi.registered"
	EventDOIUpdated       = "doi.updated"
	EventDOIDeleted       = "doi.deleted"
	EventDOIFailed        = "doi.registration_failed"
	EventRecordIndexed    = "record.indexed"
	EventRecordRemoved    = "record.removed"
	EventOutboxDeadLetter = "outbox.dead_letter"
)

const source = "outbox-worker"

// payload is the shape every outbox message carries.
type payload struct {
	DOI      string `json:"doi,omitempty"`
	Depid    int64  `json:"depid,omitempty"`
	RecordID string `json:"record_id,omitempty"`
	Landing  string `json:"landing,omitempty"`
}

// Worker drains the transactional outbox: registrar calls and index pushes
// execute here, never inside a request transaction. Processing is
// at-least-once; every handler is idempotent.
type Worker struct {
	db        *gorm.DB
	box       *outbox.Outbox
	pids      *pidstore.Store
	recs      *records.Store
	sel       *doi.Selector
	index     indexer.Indexer
	producers map[string]*kafka.Producer
	dlq       *kafka.Producer
	interval  time.Duration
	base      time.Duration
	maxRetry  int
	batch     int
}

// New builds a worker. producers maps outbox topics to the event producers
// completion events go out on; each message is announced on the topic it was
// enqueued with.
func New(db *gorm.DB, box *outbox.Outbox, pids *pidstore.Store, recs *records.Store,
	sel *doi.Selector, index indexer.Indexer, producers map[string]*kafka.Producer, dlq *kafka.Producer,
	interval, retryBase time.Duration, maxRetry int) *Worker {
	return &Worker{
		db:        db,
		box:       box,
		pids:      pids,
		recs:      recs,
		sel:       sel,
		index:     index,
		producers: producers,
		dlq:       dlq,
		interval:  interval,
		base:      retryBase,
		maxRetry:  maxRetry,
		batch:     20,
	}
}

func (w *Worker) producerFor(topic string) *kafka.Producer {
	return w.producers[topic]
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				logger.WithError(err).Error("outbox drain failed")
			}
			if n, err := w.box.PendingCount(ctx); err == nil {
				metrics.OutboxBacklog.Set(float64(n))
			}
		}
	}
}

// drainOnce claims due messages under row locks and processes them. The
// claim transaction spans the side effect so a crashed worker releases its
// claim and another picks the message up.
func (w *Worker) drainOnce(ctx context.Context) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		box := w.box.WithTx(tx)
		msgs, err := box.ClaimDue(ctx, w.batch)
		if err != nil {
			return err
		}
		for i := range msgs {
			w.processClaimed(ctx, tx, box, &msgs[i])
		}
		return nil
	})
}

func (w *Worker) processClaimed(ctx context.Context, tx *gorm.DB, box *outbox.Outbox, msg *outbox.Message) {
	var p payload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		logger.WithError(err).WithField("message", msg.ID).Error("malformed outbox payload")
		w.deadLetter(ctx, box, msg, &p, err)
		return
	}

	err := w.handle(ctx, tx, msg.Kind, &p)
	if err == nil {
		if err := box.MarkSent(ctx, msg.ID); err != nil {
			logger.WithError(err).WithField("message", msg.ID).Error("marking outbox message sent")
			return
		}
		w.announce(ctx, msg.Topic, msg.Kind, &p)
		return
	}

	logger.WithError(err).WithFields(map[string]interface{}{
		"message": msg.ID,
		"kind":    msg.Kind,
		"attempt": msg.Attempts + 1,
	}).Warn("outbox message failed")

	maxAttempts := w.maxRetry
	var perm *permanentError
	if errors.As(err, &perm) || !doi.IsRecoverable(err) {
		// Permanent rejections never heal on retry.
		maxAttempts = msg.Attempts + 1
	}
	if rqErr := box.Requeue(ctx, msg, err, w.base, maxAttempts); errors.Is(rqErr, outbox.ErrExhausted) {
		w.deadLetter(ctx, box, msg, &p, err)
	} else if rqErr != nil {
		logger.WithError(rqErr).WithField("message", msg.ID).Error("requeueing outbox message")
	}
}

func (w *Worker) handle(ctx context.Context, tx *gorm.DB, kind string, p *payload) error {
	switch kind {
	case outbox.KindRegisterDOI:
		return w.registerDOI(ctx, tx, p, false)
	case outbox.KindUpdateDOI:
		return w.registerDOI(ctx, tx, p, true)
	case outbox.KindDeleteDOI:
		return w.deleteDOI(ctx, tx, p)
	case outbox.KindIndexRecord:
		return w.indexRecord(ctx, p)
	case outbox.KindRemoveRecord:
		return w.index.Remove(ctx, p.RecordID)
	default:
		return &permanentError{kind: kind}
	}
}

// registerDOI pushes metadata and the landing URL to the registrar, then
// mirrors the achieved state into the PID store. Re-registering an already
// registered DOI is a registrar-side no-op.
func (w *Worker) registerDOI(ctx context.Context, tx *gorm.DB, p *payload, update bool) error {
	rec, err := w.loadRecord(ctx, p.RecordID)
	if err != nil {
		return err
	}

	provider, err := w.sel.ForDOI(p.DOI)
	if err != nil {
		return err
	}

	if update {
		err = provider.Update(ctx, p.DOI, &rec.Metadata, p.Landing)
	} else {
		err = provider.Register(ctx, p.DOI, &rec.Metadata, p.Landing)
	}
	if err != nil {
		metrics.RegistrarAttempts.WithLabelValues("failure").Inc()
		return err
	}
	metrics.RegistrarAttempts.WithLabelValues("success").Inc()

	pids := w.pids.WithTx(tx)
	pid, err := pids.Get(ctx, pidstore.TypeDOI, p.DOI)
	if err != nil {
		return err
	}
	if mirrorAction(update, pid.Status) == pidstore.ActionUpdate {
		return pids.Update(ctx, pid, "registrar metadata updated")
	}
	return pids.Register(ctx, pid, "registered at registrar")
}

// mirrorAction picks how the local PID mirrors a successful registrar call.
// An update message for a DOI that is still RESERVED means the first
// registration never landed; the success just achieved is its registration.
func mirrorAction(update bool, status pidstore.Status) pidstore.Action {
	if update && pidstore.CanTransition(pidstore.ActionUpdate, status) {
		return pidstore.ActionUpdate
	}
	return pidstore.ActionRegister
}

func (w *Worker) deleteDOI(ctx context.Context, tx *gorm.DB, p *payload) error {
	provider, err := w.sel.ForDOI(p.DOI)
	if err != nil {
		return err
	}
	if err := provider.Delete(ctx, p.DOI); err != nil {
		metrics.RegistrarAttempts.WithLabelValues("failure").Inc()
		return err
	}
	metrics.RegistrarAttempts.WithLabelValues("success").Inc()

	pids := w.pids.WithTx(tx)
	pid, err := pids.Get(ctx, pidstore.TypeDOI, p.DOI)
	if err != nil {
		return err
	}
	return pids.Delete(ctx, pid, "deactivated at registrar")
}

func (w *Worker) indexRecord(ctx context.Context, p *payload) error {
	rec, err := w.loadRecord(ctx, p.RecordID)
	if err != nil {
		return err
	}
	return w.index.Index(ctx, rec)
}

func (w *Worker) loadRecord(ctx context.Context, id string) (*records.Record, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, &permanentError{kind: "bad record id"}
	}
	return w.recs.Get(ctx, rid)
}

// eventTypeFor maps an outbox kind to the completion event it announces.
func eventTypeFor(kind string) string {
	return map[string]string{
		outbox.KindRegisterDOI:  EventDOIRegistered,
		outbox.KindUpdateDOI:    EventDOIUpdated,
		outbox.KindDeleteDOI:    EventDOIDeleted,
		outbox.KindIndexRecord:  EventRecordIndexed,
		outbox.KindRemoveRecord: EventRecordRemoved,
	}[kind]
}

// announce publishes the completion event other services react to, on the
// topic the message was enqueued with.
func (w *Worker) announce(ctx context.Context, topic, kind string, p *payload) {
	pr := w.producerFor(topic)
	if pr == nil {
		return
	}
	eventType := eventTypeFor(kind)
	if eventType == "" {
		return
	}
	err := pr.PublishEvent(ctx, eventType, source, map[string]interface{}{
		"doi":       p.DOI,
		"depid":     p.Depid,
		"record_id": p.RecordID,
	})
	if err != nil {
		// The outbox row is already sent; the event is best effort.
		logger.WithError(err).Warn("publishing completion event")
	}
}

// deadLetter parks an exhausted message on the DLQ and tells the deposit
// service to flag the deposition.
func (w *Worker) deadLetter(ctx context.Context, box *outbox.Outbox, msg *outbox.Message, p *payload, cause error) {
	if w.dlq != nil {
		_ = w.dlq.PublishEvent(ctx, EventOutboxDeadLetter, source, map[string]interface{}{
			"message_id": msg.ID.String(),
			"kind":       msg.Kind,
			"payload":    json.RawMessage(msg.Payload),
			"error":      cause.Error(),
		})
	}
	pr := w.producerFor(msg.Topic)
	if pr != nil && (msg.Kind == outbox.KindRegisterDOI || msg.Kind == outbox.KindUpdateDOI) {
		_ = pr.PublishEvent(ctx, EventDOIFailed, source, map[string]interface{}{
			"doi":   p.DOI,
			"depid": p.Depid,
			"error": cause.Error(),
		})
	}
}

type permanentError struct {
	kind string
}

func (e *permanentError) Error() string {
	return "unprocessable outbox message: " + e.kind
}
