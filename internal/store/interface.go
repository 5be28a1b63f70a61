package store

import (
	"context"
	"time"

	"github.com/minhvu/pushrelay/internal/model"
)

// RecordStore defines the Record Store operations used by the dispatcher and
// the retention sweeper.
type RecordStore interface {
	// GetNotification loads one notification record by id.
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
	// GetRecipient loads one recipient profile by id.
	GetRecipient(ctx context.Context, id string) (*model.Recipient, error)
	// MarkSent writes the terminal sent status onto a still-pending record.
	// Repeating the write with the same values is a no-op.
	MarkSent(ctx context.Context, id, messageID string, at time.Time) error
	// MarkFailed writes the terminal failed status onto a still-pending record.
	MarkFailed(ctx context.Context, id, reason string, at time.Time) error
	// ExpiredIDs returns the ids of all notifications created before cutoff,
	// regardless of status.
	ExpiredIDs(ctx context.Context, cutoff time.Time) ([]string, error)
	// DeleteByIDs deletes the given notifications in one atomic statement and
	// returns the number of rows removed.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	Ping(ctx context.Context) error
}
