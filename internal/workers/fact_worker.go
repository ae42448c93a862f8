package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"grouporder-workers/internal/jsonscan"
	"grouporder-workers/internal/postgres"
	"grouporder-workers/internal/rabbitmq"
	"grouporder-workers/models"
)

// FactSink stores analytics rows.
type FactSink interface {
	HasOrderFees(ctx context.Context, snapshotID int64) (bool, error)
	InsertOrderFees(ctx context.Context, data map[string]interface{}) error
	InsertOrderItems(ctx context.Context, rows []map[string]interface{}) error
}

type FactWorker struct {
	consumer   MessageSource
	sink       FactSink
	store      SnapshotStore
	queueName  string
	retryDelay time.Duration
	now        func() time.Time
}

func NewFactWorker(consumer MessageSource, sink FactSink, store SnapshotStore, queueName string) *FactWorker {
	return &FactWorker{
		consumer:   consumer,
		sink:       sink,
		store:      store,
		queueName:  queueName,
		retryDelay: initialRetryDelay,
		now:        time.Now,
	}
}

func (w *FactWorker) Start() error {
	log.Printf("🚀 Starting Fact Worker for queue: %s", w.queueName)
	return w.consumer.ConsumeQueue(w.queueName, w.handleMessage)
}

func (w *FactWorker) handleMessage(body []byte) error {
	var evt models.OrderExtractedEvent
	if err := rabbitmq.ParseJSON(body, &evt); err != nil {
		return err
	}

	log.Printf("📦 Processing Extracted Event: type=%s, snapshot_id=%d", evt.Event, evt.SnapshotID)

	switch evt.Event {
	case models.EventFailed:
		log.Printf("Skipping failed lookup: request_id=%s", evt.RequestID)
		return nil
	case models.EventExtracted:
	default:
		return rabbitmq.Permanent(fmt.Errorf("unknown event type: %s", evt.Event))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The snapshot commit may not be visible yet
	var snap *postgres.OrderSnapshot
	err := retry(ctx, fmt.Sprintf("load snapshot %d", evt.SnapshotID), maxRetries, w.retryDelay, func() error {
		var err error
		snap, err = w.store.GetSnapshot(ctx, evt.SnapshotID)
		return err
	})
	if errors.Is(err, postgres.ErrSnapshotNotFound) {
		return rabbitmq.Permanent(err)
	}
	if err != nil {
		return err
	}
	if !snap.Success {
		log.Printf("Snapshot %d is not a successful lookup, skipping", snap.ID)
		return nil
	}

	exists, err := w.sink.HasOrderFees(ctx, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to check existing facts: %w", err)
	}
	if exists {
		log.Printf("Snapshot %d already projected, skipping", snap.ID)
		return nil
	}

	order, err := snap.Order()
	if err != nil {
		return rabbitmq.Permanent(err)
	}

	ts := w.now().UTC()
	if err := w.sink.InsertOrderItems(ctx, itemFactRows(snap, order, ts)); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	if err := w.sink.InsertOrderFees(ctx, feeFactRow(snap, order, ts)); err != nil {
		return fmt.Errorf("failed to insert order fees: %w", err)
	}

	log.Printf("✓ Facts synced: snapshot_id=%d, items=%d, fees=%.2f, total=%.2f", snap.ID, len(order.Items), order.Fees, order.Total)
	return nil
}

func dateKey(snap *postgres.OrderSnapshot, ts time.Time) string {
	if !snap.CreatedAt.IsZero() {
		ts = snap.CreatedAt
	}
	return ts.UTC().Format("02012006") // ddMMYYYY
}

func restaurantName(o *models.ExtractedOrder) string {
	if o.RestaurantName == nil {
		return ""
	}
	return *o.RestaurantName
}

func feeFactRow(snap *postgres.OrderSnapshot, o *models.ExtractedOrder, ts time.Time) map[string]interface{} {
	hasUberOne := uint8(0)
	if o.HasUberOne {
		hasUberOne = 1
	}
	return map[string]interface{}{
		"snapshot_id":      snap.ID,
		"request_id":       snap.RequestID,
		"draft_order_uuid": snap.DraftOrderUUID,
		"date_key":         dateKey(snap, ts),
		"restaurant_name":  restaurantName(o),
		"customer_uuid":    o.CustomerDetails.String(models.CustomerUUID),
		"currency":         o.Currency,
		"subtotal":         o.Subtotal,
		"taxes":            o.Taxes,
		"fees":             o.Fees,
		"delivery_fee":     o.DeliveryFee,
		"service_fee":      o.ServiceFee,
		"tip":              o.Tip,
		"small_order_fee":  o.SmallOrderFee,
		"adjustments_fee":  o.AdjustmentsFee,
		"pickup_fee":       o.PickupFee,
		"other_fees":       o.OtherFees,
		"total":            o.Total,
		"uber_one_benefit": o.UberOneBenefit,
		"has_uber_one":     hasUberOne,
		"item_count":       int32(len(o.Items)),
		"event_time":       ts,
	}
}

func itemFactRows(snap *postgres.OrderSnapshot, o *models.ExtractedOrder, ts time.Time) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(o.Items))
	for i, it := range o.Items {
		customizations := it.Customizations
		if customizations == nil {
			customizations = []string{}
		}
		rows = append(rows, map[string]interface{}{
			"snapshot_id":     snap.ID,
			"line_no":         int32(i + 1),
			"date_key":        dateKey(snap, ts),
			"restaurant_name": restaurantName(o),
			"item_name":       it.Name,
			"quantity":        it.Quantity,
			"unit_price":      it.Price,
			"revenue":         jsonscan.Round2(it.Price * it.Quantity),
			"customizations":  customizations,
			"event_time":      ts,
		})
	}
	return rows
}
