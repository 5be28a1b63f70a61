package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/minhvu/pushrelay/internal/model"
)

// fakeStore keeps records in memory keyed by id with their creation times,
// so retention scenarios exercise the real cutoff filter.
type fakeStore struct {
	created     map[string]time.Time
	deleteCalls int
	failOnCall  int // 1-based call number that fails, 0 = never
}

func newFakeStore() *fakeStore {
	return &fakeStore{created: make(map[string]time.Time)}
}

func (f *fakeStore) add(age time.Duration, now time.Time) string {
	id := uuid.New().String()
	f.created[id] = now.Add(-age)
	return id
}

func (f *fakeStore) GetNotification(ctx context.Context, id string) (*model.Notification, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) GetRecipient(ctx context.Context, id string) (*model.Recipient, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) MarkSent(ctx context.Context, id, messageID string, at time.Time) error {
	return errors.New("not implemented")
}

func (f *fakeStore) MarkFailed(ctx context.Context, id, reason string, at time.Time) error {
	return errors.New("not implemented")
}

func (f *fakeStore) ExpiredIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	for id, createdAt := range f.created {
		if createdAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStore) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	f.deleteCalls++
	if f.failOnCall != 0 && f.deleteCalls == f.failOnCall {
		return 0, errors.New("batch commit failed")
	}
	var deleted int64
	for _, id := range ids {
		if _, ok := f.created[id]; ok {
			delete(f.created, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func newTestSweeper(f *fakeStore, chunkSize int, now time.Time) *Sweeper {
	s := New(f, slog.Default(), chunkSize, 2, time.UTC)
	s.now = func() time.Time { return now }
	return s
}

const day = 24 * time.Hour

func TestSweeper_Run_DeletesOnlyExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	f := newFakeStore()
	old40 := f.add(40*day, now)
	old31 := f.add(31*day, now)
	keep29 := f.add(29*day, now)
	keep1 := f.add(1*day, now)

	s := newTestSweeper(f, 0, now)
	deleted, err := s.Run(context.Background())

	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)
	require.NotContains(t, f.created, old40)
	require.NotContains(t, f.created, old31)
	require.Contains(t, f.created, keep29)
	require.Contains(t, f.created, keep1)
}

func TestSweeper_Run_NothingExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	f := newFakeStore()
	f.add(29*day, now)
	f.add(1*day, now)

	s := newTestSweeper(f, 0, now)
	deleted, err := s.Run(context.Background())

	require.NoError(t, err)
	require.Zero(t, deleted)
	require.Zero(t, f.deleteCalls)
}

func TestSweeper_Run_ChunksLargeSets(t *testing.T) {
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	f := newFakeStore()
	for i := 0; i < 1200; i++ {
		f.add(45*day, now)
	}

	s := newTestSweeper(f, 500, now)
	deleted, err := s.Run(context.Background())

	require.NoError(t, err)
	require.EqualValues(t, 1200, deleted)
	require.Equal(t, 3, f.deleteCalls)
	require.Empty(t, f.created)
}

func TestSweeper_Run_PartialFailureReportsDeletedCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	f := newFakeStore()
	for i := 0; i < 800; i++ {
		f.add(45*day, now)
	}
	f.failOnCall = 2

	s := newTestSweeper(f, 500, now)
	deleted, err := s.Run(context.Background())

	require.Error(t, err)
	require.EqualValues(t, 500, deleted)
	require.Contains(t, err.Error(), "after 500 deletions")
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []int
	}{
		{name: "empty", n: 0, size: 500, want: nil},
		{name: "under one chunk", n: 3, size: 500, want: []int{3}},
		{name: "exact chunk", n: 500, size: 500, want: []int{500}},
		{name: "two and a remainder", n: 1200, size: 500, want: []int{500, 500, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := make([]string, tt.n)
			for i := range ids {
				ids[i] = uuid.New().String()
			}

			got := chunks(ids, tt.size)
			require.Len(t, got, len(tt.want))
			for i, chunk := range got {
				require.Len(t, chunk, tt.want[i])
			}
		})
	}
}

func TestNextRunAfter(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before the hour runs same day",
			now:  time.Date(2026, 3, 1, 1, 30, 0, 0, loc),
			want: time.Date(2026, 3, 1, 2, 0, 0, 0, loc),
		},
		{
			name: "after the hour runs next day",
			now:  time.Date(2026, 3, 1, 2, 0, 1, 0, loc),
			want: time.Date(2026, 3, 2, 2, 0, 0, 0, loc),
		},
		{
			name: "exactly the hour runs next day",
			now:  time.Date(2026, 3, 1, 2, 0, 0, 0, loc),
			want: time.Date(2026, 3, 2, 2, 0, 0, 0, loc),
		},
		{
			name: "utc input converts to schedule timezone",
			now:  time.Date(2026, 2, 28, 18, 0, 0, 0, time.UTC), // 01:00 +07
			want: time.Date(2026, 3, 1, 2, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextRunAfter(tt.now, 2, loc)
			require.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}
