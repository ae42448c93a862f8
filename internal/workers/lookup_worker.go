package workers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"grouporder-workers/internal/postgres"
	"grouporder-workers/internal/rabbitmq"
	"grouporder-workers/models"

	"github.com/google/uuid"
)

// MessageSource delivers queue messages to a handler until it is closed.
type MessageSource interface {
	ConsumeQueue(queueName string, handler func([]byte) error) error
}

// Publisher sends an event to a queue.
type Publisher interface {
	Publish(ctx context.Context, queueName string, v interface{}) error
}

// SnapshotStore persists lookup results.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *postgres.OrderSnapshot) error
	GetSnapshot(ctx context.Context, id int64) (*postgres.OrderSnapshot, error)
}

// OrderLookup runs one group order lookup.
type OrderLookup interface {
	GetOrderDetails(ctx context.Context, link, sid string) *models.ExtractedOrder
}

type LookupWorker struct {
	consumer       MessageSource
	publisher      Publisher
	store          SnapshotStore
	service        OrderLookup
	queueName      string
	extractedQueue string
	lookupTimeout  time.Duration
	retryDelay     time.Duration
}

func NewLookupWorker(consumer MessageSource, publisher Publisher, store SnapshotStore, service OrderLookup, queueName, extractedQueue string, lookupTimeout time.Duration) *LookupWorker {
	return &LookupWorker{
		consumer:       consumer,
		publisher:      publisher,
		store:          store,
		service:        service,
		queueName:      queueName,
		extractedQueue: extractedQueue,
		lookupTimeout:  lookupTimeout,
		retryDelay:     initialRetryDelay,
	}
}

func (w *LookupWorker) Start() error {
	log.Printf("🚀 Starting Lookup Worker for queue: %s", w.queueName)
	return w.consumer.ConsumeQueue(w.queueName, w.handleMessage)
}

// handleMessage acks structured lookup failures after persisting them; only
// persistence and publish errors requeue the message.
func (w *LookupWorker) handleMessage(body []byte) error {
	var evt models.OrderLookupEvent
	if err := rabbitmq.ParseJSON(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.Link) == "" {
		return rabbitmq.Permanent(fmt.Errorf("lookup event %q has no link", evt.RequestID))
	}
	if evt.RequestID == "" {
		evt.RequestID = uuid.NewString()
	}

	log.Printf("📦 Processing Lookup Event: request_id=%s", evt.RequestID)

	lookupCtx, cancel := context.WithTimeout(context.Background(), w.lookupTimeout)
	order := w.service.GetOrderDetails(lookupCtx, evt.Link, evt.SID)
	cancel()

	snap, err := postgres.NewOrderSnapshot(evt.RequestID, evt.Link, order)
	if err != nil {
		return rabbitmq.Permanent(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := retry(ctx, "save snapshot "+evt.RequestID, maxRetries, w.retryDelay, func() error {
		return w.store.SaveSnapshot(ctx, snap)
	}); err != nil {
		return err
	}

	out := models.OrderExtractedEvent{
		Event:      models.EventExtracted,
		RequestID:  evt.RequestID,
		SnapshotID: snap.ID,
	}
	if !order.Success {
		out.Event = models.EventFailed
	}
	if err := w.publisher.Publish(ctx, w.extractedQueue, out); err != nil {
		return fmt.Errorf("failed to publish extracted event: %w", err)
	}

	if order.Success {
		log.Printf("✓ Lookup processed: request_id=%s, snapshot_id=%d, total=%.2f", evt.RequestID, snap.ID, order.Total)
	} else {
		log.Printf("✗ Lookup failed: request_id=%s, snapshot_id=%d, error=%s", evt.RequestID, snap.ID, *order.Error)
	}
	return nil
}
