package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Notification status values. A record is created pending and moves exactly
// once to sent or failed, never back.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Failure reasons recorded when no delivery attempt is made.
const (
	ReasonRecipientNotFound = "Recipient not found"
	ReasonNoPushToken       = "No push token"
)

// Notification holds one requested push notification.
type Notification struct {
	ID                string     `db:"id" json:"id"`
	TargetRecipientID string     `db:"target_recipient_id" json:"target_recipient_id"`
	Title             string     `db:"title" json:"title"`
	Body              string     `db:"body" json:"body"`
	Data              DataMap    `db:"data" json:"data,omitempty"`
	Status            string     `db:"status" json:"status"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	FailedAt          *time.Time `db:"failed_at" json:"failed_at,omitempty"`
	MessageID         string     `db:"message_id" json:"message_id,omitempty"`
	Error             string     `db:"error" json:"error,omitempty"`
}

// Terminal reports whether the record already carries a final status.
func (n *Notification) Terminal() bool {
	return n.Status == StatusSent || n.Status == StatusFailed
}

// Recipient is a push target. An empty PushToken means the recipient is not
// currently reachable; that is a valid, expected state.
type Recipient struct {
	ID        string `db:"id" json:"id"`
	PushToken string `db:"push_token" json:"push_token"`
}

// CreatedEvent is the payload published to Kafka when a notification record
// is inserted.
type CreatedEvent struct {
	ID string `json:"id"`
}

// DataMap is the optional key-value section of a push payload, stored as
// jsonb.
type DataMap map[string]string

func (m DataMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *DataMap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into DataMap", src)
	}
}
