package models

// Extracted event types.
const (
	EventExtracted = "extracted"
	EventFailed    = "failed"
)

// OrderLookupEvent is the message payload from RabbitMQ asking for a group order lookup
type OrderLookupEvent struct {
	RequestID string `json:"request_id"`
	Link      string `json:"link"`          // group order share link
	SID       string `json:"sid,omitempty"` // optional session token to seed the credential store
}

// OrderExtractedEvent is published once a lookup result has been persisted
type OrderExtractedEvent struct {
	Event      string `json:"event"`       // extracted | failed
	RequestID  string `json:"request_id"`  // caller correlation id
	SnapshotID int64  `json:"snapshot_id"` // ID in Postgres
}
