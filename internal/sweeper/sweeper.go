package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minhvu/pushrelay/internal/metrics"
	"github.com/minhvu/pushrelay/internal/store"
)

// RetentionWindow is how long notification records are kept, regardless of
// status.
const RetentionWindow = 30 * 24 * time.Hour

// DefaultChunkSize bounds a single delete statement. Each chunk is atomic on
// its own; chunks commit sequentially.
const DefaultChunkSize = 500

// Sweeper deletes notification records older than the retention window.
type Sweeper struct {
	store     store.RecordStore
	logger    *slog.Logger
	chunkSize int
	hour      int
	loc       *time.Location
	now       func() time.Time
}

func New(store store.RecordStore, logger *slog.Logger, chunkSize, hour int, loc *time.Location) *Sweeper {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Sweeper{
		store:     store,
		logger:    logger.With("component", "sweeper"),
		chunkSize: chunkSize,
		hour:      hour,
		loc:       loc,
		now:       time.Now,
	}
}

// Run performs one sweep and returns the number of records deleted. On a
// mid-sequence chunk failure it returns the count actually deleted so far
// together with the error, so a partial sweep is reported precisely.
func (s *Sweeper) Run(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-RetentionWindow)

	ids, err := s.store.ExpiredIDs(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to select expired notifications: %w", err)
	}
	if len(ids) == 0 {
		s.logger.Info("No expired notifications", slog.Time("cutoff", cutoff))
		return 0, nil
	}

	var deleted int64
	for _, chunk := range chunks(ids, s.chunkSize) {
		n, err := s.store.DeleteByIDs(ctx, chunk)
		deleted += n
		if err != nil {
			metrics.SweptRecords.Add(float64(deleted))
			return deleted, fmt.Errorf("sweep aborted after %d deletions: %w", deleted, err)
		}
	}

	metrics.SweptRecords.Add(float64(deleted))
	s.logger.Info("Sweep complete",
		slog.Int64("deleted", deleted), slog.Time("cutoff", cutoff))
	return deleted, nil
}

// Start runs the sweep once daily at the configured local hour. A failed run
// is logged only; the next run re-selects the same still-expired set.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info("Sweeper started",
		slog.Int("hour", s.hour), slog.String("timezone", s.loc.String()))

	for {
		next := nextRunAfter(s.now(), s.hour, s.loc)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Sweeper stopped")
			return ctx.Err()
		case <-timer.C:
			if _, err := s.Run(ctx); err != nil {
				s.logger.Error("Sweep failed", slog.Any("error", err))
			}
		}
	}
}

// nextRunAfter returns the next occurrence of hour o'clock in loc strictly
// after now.
func nextRunAfter(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// chunks splits ids into groups of at most size elements, preserving order.
func chunks(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
