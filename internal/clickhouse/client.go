package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"grouporder-workers/config"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type Client struct {
	conn     driver.Conn
	database string
}

func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		DialTimeout:  time.Second * 30,
	}

	// TLS only on the HTTPS port
	if cfg.Port == 8443 {
		opts.TLS = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Client{
		conn:     conn,
		database: cfg.Database,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// EnsureSchema creates the fact tables if they do not exist.
func (c *Client) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.Fact_Order_Fees (
			snapshot_id Int64,
			request_id String,
			draft_order_uuid String,
			date_key String,
			restaurant_name String,
			customer_uuid String,
			currency LowCardinality(String),
			subtotal Float64,
			taxes Float64,
			fees Float64,
			delivery_fee Float64,
			service_fee Float64,
			tip Float64,
			small_order_fee Float64,
			adjustments_fee Float64,
			pickup_fee Float64,
			other_fees Float64,
			total Float64,
			uber_one_benefit Float64,
			has_uber_one UInt8,
			item_count Int32,
			event_time DateTime
		) ENGINE = ReplacingMergeTree
		ORDER BY snapshot_id`, c.database),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.Fact_Order_Item (
			snapshot_id Int64,
			line_no Int32,
			date_key String,
			restaurant_name String,
			item_name String,
			quantity Float64,
			unit_price Float64,
			revenue Float64,
			customizations Array(String),
			event_time DateTime
		) ENGINE = ReplacingMergeTree
		ORDER BY (snapshot_id, line_no)`, c.database),
		fmt.Sprintf(`ALTER TABLE %s.Fact_Order_Fees ADD COLUMN IF NOT EXISTS customer_uuid String AFTER restaurant_name`, c.database),
	}
	for _, stmt := range stmts {
		if err := c.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare fact table: %w", err)
		}
	}
	return nil
}

// InsertOrderFees inserts one fee breakdown row into Fact_Order_Fees
func (c *Client) InsertOrderFees(ctx context.Context, data map[string]interface{}) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.Fact_Order_Fees (
			snapshot_id, request_id, draft_order_uuid, date_key, restaurant_name, customer_uuid, currency,
			subtotal, taxes, fees, delivery_fee, service_fee, tip, small_order_fee,
			adjustments_fee, pickup_fee, other_fees, total, uber_one_benefit, has_uber_one,
			item_count, event_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.database)

	return c.conn.Exec(ctx, query,
		data["snapshot_id"],
		data["request_id"],
		data["draft_order_uuid"],
		data["date_key"],
		data["restaurant_name"],
		data["customer_uuid"],
		data["currency"],
		data["subtotal"],
		data["taxes"],
		data["fees"],
		data["delivery_fee"],
		data["service_fee"],
		data["tip"],
		data["small_order_fee"],
		data["adjustments_fee"],
		data["pickup_fee"],
		data["other_fees"],
		data["total"],
		data["uber_one_benefit"],
		data["has_uber_one"],
		data["item_count"],
		data["event_time"],
	)
}

// InsertOrderItems batch inserts cart lines into Fact_Order_Item
func (c *Client) InsertOrderItems(ctx context.Context, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf(`
		INSERT INTO %s.Fact_Order_Item (
			snapshot_id, line_no, date_key, restaurant_name, item_name,
			quantity, unit_price, revenue, customizations, event_time
		)`, c.database))
	if err != nil {
		return fmt.Errorf("failed to prepare item batch: %w", err)
	}

	for _, r := range rows {
		if err := batch.Append(
			r["snapshot_id"],
			r["line_no"],
			r["date_key"],
			r["restaurant_name"],
			r["item_name"],
			r["quantity"],
			r["unit_price"],
			r["revenue"],
			r["customizations"],
			r["event_time"],
		); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append item row: %w", err)
		}
	}
	return batch.Send()
}

// HasOrderFees reports whether a snapshot was already projected, so redelivered
// events do not double count.
func (c *Client) HasOrderFees(ctx context.Context, snapshotID int64) (bool, error) {
	query := fmt.Sprintf(`
		SELECT count()
		FROM %s.Fact_Order_Fees
		WHERE snapshot_id = ?
	`, c.database)

	var n uint64
	if err := c.conn.QueryRow(ctx, query, snapshotID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
