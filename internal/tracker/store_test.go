package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/hydrate/internal/apperror"
)

var testNow = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

// fakeSyncer assigns sequential server ids. Persist blocks on gate when set.
type fakeSyncer struct {
	mu        sync.Mutex
	next      int
	persisted []IntakeEvent
	deleted   []string
	failAdd   error
	failDel   error
	gate      chan struct{}
}

func (f *fakeSyncer) Persist(ctx context.Context, ev IntakeEvent) (string, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdd != nil {
		return "", f.failAdd
	}
	f.next++
	f.persisted = append(f.persisted, ev)
	return fmt.Sprintf("srv-%d", f.next), nil
}

func (f *fakeSyncer) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.failDel
}

func (f *fakeSyncer) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
	}
	s := NewStore(append(base, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func ids(events []IntakeEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

func TestStore_Append(t *testing.T) {
	s := newTestStore(t)

	ev, err := s.Append(250, time.Time{})
	require.NoError(t, err)

	assert.True(t, ev.IsLocal())
	assert.Equal(t, 250, ev.AmountMl)
	assert.Equal(t, testNow.UnixMilli(), ev.TimestampMs)
	assert.Equal(t, "2025-06-15", ev.DateKey)
	assert.Equal(t, []IntakeEvent{ev}, s.Events())
}

func TestStore_Append_InvalidAmount(t *testing.T) {
	s := newTestStore(t)

	for _, amount := range []int{0, -100} {
		_, err := s.Append(amount, time.Time{})
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Zero(t, s.Len())
}

func TestStore_Append_SortedDescending(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Append(100, testNow.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = s.Append(200, testNow)
	require.NoError(t, err)
	_, err = s.Append(300, testNow.Add(-time.Hour))
	require.NoError(t, err)

	events := s.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []int{200, 300, 100}, []int{events[0].AmountMl, events[1].AmountMl, events[2].AmountMl})
}

func TestStore_TodayTotalMatchesSum(t *testing.T) {
	s := newTestStore(t)

	for _, amount := range []int{250, 500, 330} {
		_, err := s.Append(amount, time.Time{})
		require.NoError(t, err)
	}
	_, err := s.Append(1000, testNow.AddDate(0, 0, -1))
	require.NoError(t, err)

	today := s.Today()
	assert.Equal(t, 1080, today.TotalMl)
	assert.Equal(t, 3, today.IntakeCount)
	require.NotNil(t, today.LastIntakeAt)
	assert.True(t, today.LastIntakeAt.Equal(testNow))
}

func TestStore_DateKeyUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	s := newTestStore(t, WithLocation(tokyo))

	// 20:00 UTC is the next morning in Tokyo
	ev, err := s.Append(250, time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-06-16", ev.DateKey)

	s.ReconcileRemote([]IntakeEvent{{ID: "srv-9", AmountMl: 100, TimestampMs: ev.TimestampMs + 1, DateKey: "1999-01-01"}})
	for _, e := range s.Events() {
		assert.Equal(t, "2025-06-16", e.DateKey)
	}
}

func TestStore_PersistPromotesID(t *testing.T) {
	syncer := &fakeSyncer{}
	s := newTestStore(t, WithSyncer(syncer))

	ev, err := s.Append(250, time.Time{})
	require.NoError(t, err)
	s.Wait()

	events := s.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "srv-1", events[0].ID)
	assert.Equal(t, ev.TimestampMs, events[0].TimestampMs)
}

func TestStore_PersistFailureKeepsLocal(t *testing.T) {
	syncer := &fakeSyncer{failAdd: errors.New("offline")}
	s := newTestStore(t, WithSyncer(syncer))

	ev, err := s.Append(250, time.Time{})
	require.NoError(t, err)
	s.Wait()

	assert.Equal(t, []string{ev.ID}, ids(s.Events()))
}

func TestStore_Remove_UndoLast(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append(500, testNow.Add(-time.Hour))
	require.NoError(t, err)
	before := s.Events()
	beforeTotal := s.TodayTotal()

	last, err := s.Append(250, time.Time{})
	require.NoError(t, err)

	removed, ok := s.Remove("")
	require.True(t, ok)
	assert.Equal(t, last, removed)
	assert.Equal(t, before, s.Events())
	assert.Equal(t, beforeTotal, s.TodayTotal())
}

func TestStore_Remove_EmptyLog(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Remove("")
	assert.False(t, ok)

	_, ok = s.Remove("missing")
	assert.False(t, ok)
}

func TestStore_Remove_PreviousDayLeavesTodayTotal(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append(400, time.Time{})
	require.NoError(t, err)
	yesterday, err := s.Append(250, testNow.AddDate(0, 0, -1))
	require.NoError(t, err)

	_, ok := s.Remove(yesterday.ID)
	require.True(t, ok)
	assert.Equal(t, 400, s.TodayTotal())
}

func TestStore_Remove_PersistedIssuesDelete(t *testing.T) {
	syncer := &fakeSyncer{}
	s := newTestStore(t, WithSyncer(syncer))
	s.Restore([]IntakeEvent{{ID: "srv-7", AmountMl: 300, TimestampMs: testNow.UnixMilli()}})

	_, ok := s.Remove("")
	require.True(t, ok)
	s.Wait()

	assert.Equal(t, []string{"srv-7"}, syncer.deletedIDs())
	assert.Zero(t, s.Len())
}

func TestStore_Remove_DeleteFailureKeepsRemoval(t *testing.T) {
	syncer := &fakeSyncer{failDel: errors.New("timeout")}
	s := newTestStore(t, WithSyncer(syncer))
	s.Restore([]IntakeEvent{{ID: "srv-7", AmountMl: 300, TimestampMs: testNow.UnixMilli()}})

	_, ok := s.Remove("srv-7")
	require.True(t, ok)
	s.Wait()

	assert.Zero(t, s.Len())

	// a stale fetch must not bring it back
	s.ReconcileRemote([]IntakeEvent{{ID: "srv-7", AmountMl: 300, TimestampMs: testNow.UnixMilli()}})
	assert.Zero(t, s.Len())
}

func TestStore_Remove_BeforeConfirmationDeletesServerCopy(t *testing.T) {
	syncer := &fakeSyncer{gate: make(chan struct{})}
	s := newTestStore(t, WithSyncer(syncer))

	_, err := s.Append(250, time.Time{})
	require.NoError(t, err)

	_, ok := s.Remove("")
	require.True(t, ok)

	close(syncer.gate)
	s.Wait()

	assert.Zero(t, s.Len())
	assert.Equal(t, []string{"srv-1"}, syncer.deletedIDs())
}

func TestStore_Remove_FailedPersistDropsTombstone(t *testing.T) {
	syncer := &fakeSyncer{gate: make(chan struct{}), failAdd: apperror.Validation("invalid_amount", "rejected")}
	s := newTestStore(t, WithSyncer(syncer))

	_, err := s.Append(250, time.Time{})
	require.NoError(t, err)
	_, ok := s.Remove("")
	require.True(t, ok)

	close(syncer.gate)
	s.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Empty(t, s.tombstones)
	assert.Empty(t, syncer.deleted, "nothing reached the server, nothing to delete")
}

func TestStore_ReconcileRemote(t *testing.T) {
	s := newTestStore(t)
	pending, err := s.Append(250, testNow.Add(-10*time.Minute))
	require.NoError(t, err)
	offline, err := s.Append(100, testNow.Add(-5*time.Minute))
	require.NoError(t, err)

	server := []IntakeEvent{
		{ID: "srv-1", AmountMl: 250, TimestampMs: pending.TimestampMs},
		{ID: "srv-2", AmountMl: 500, TimestampMs: testNow.Add(-time.Hour).UnixMilli()},
	}
	s.ReconcileRemote(server)

	assert.Equal(t, []string{offline.ID, "srv-1", "srv-2"}, ids(s.Events()))
	assert.Equal(t, 850, s.TodayTotal())
}

func TestStore_ReconcileRemote_Idempotent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Append(100, testNow.Add(-5*time.Minute))
	require.NoError(t, err)

	server := []IntakeEvent{
		{ID: "srv-1", AmountMl: 250, TimestampMs: testNow.Add(-10 * time.Minute).UnixMilli()},
		{ID: "srv-2", AmountMl: 500, TimestampMs: testNow.Add(-time.Hour).UnixMilli()},
	}
	s.ReconcileRemote(server)
	once := s.Events()

	s.ReconcileRemote(server)
	assert.Equal(t, once, s.Events())
}

func TestStore_ReconcileRemote_NoDuplicateIDs(t *testing.T) {
	s := newTestStore(t)
	s.Restore([]IntakeEvent{{ID: "srv-1", AmountMl: 250, TimestampMs: testNow.UnixMilli()}})

	s.ReconcileRemote([]IntakeEvent{
		{ID: "srv-1", AmountMl: 250, TimestampMs: testNow.UnixMilli()},
		{ID: "srv-1", AmountMl: 250, TimestampMs: testNow.UnixMilli()},
	})

	assert.Equal(t, []string{"srv-1"}, ids(s.Events()))
}

func TestStore_ConfirmationAfterReconcile(t *testing.T) {
	syncer := &fakeSyncer{gate: make(chan struct{})}
	s := newTestStore(t, WithSyncer(syncer))

	ev, err := s.Append(250, time.Time{})
	require.NoError(t, err)

	// the server copy arrives through a fetch before the add call returns
	s.ReconcileRemote([]IntakeEvent{{ID: "srv-1", AmountMl: 250, TimestampMs: ev.TimestampMs}})
	close(syncer.gate)
	s.Wait()

	assert.Equal(t, []string{"srv-1"}, ids(s.Events()))
}

func TestStore_OutOfOrderConfirmations(t *testing.T) {
	s := newTestStore(t)
	first, err := s.Append(100, testNow.Add(-2*time.Minute))
	require.NoError(t, err)
	second, err := s.Append(200, testNow.Add(-time.Minute))
	require.NoError(t, err)

	assert.True(t, s.Promote(second.ID, "srv-2"))
	assert.True(t, s.Promote(first.ID, "srv-1"))
	assert.False(t, s.Promote(first.ID, "srv-1"), "second promotion is a no-op")

	assert.Equal(t, []string{"srv-2", "srv-1"}, ids(s.Events()))
}

func TestStore_Merge(t *testing.T) {
	s := newTestStore(t)
	local, err := s.Append(250, time.Time{})
	require.NoError(t, err)
	s.Merge([]IntakeEvent{{ID: "srv-old", AmountMl: 400, TimestampMs: testNow.AddDate(0, 0, -3).UnixMilli()}})

	added := s.Merge([]IntakeEvent{
		{ID: "srv-old", AmountMl: 400, TimestampMs: testNow.AddDate(0, 0, -3).UnixMilli()},
		{ID: "srv-dup", AmountMl: 250, TimestampMs: local.TimestampMs},
		{ID: "srv-new", AmountMl: 600, TimestampMs: testNow.AddDate(0, 0, -2).UnixMilli()},
	})

	assert.Equal(t, 1, added)
	assert.Equal(t, []string{local.ID, "srv-new", "srv-old"}, ids(s.Events()))
}

func TestStore_OnChangeReceivesSnapshot(t *testing.T) {
	var snapshots [][]IntakeEvent
	s := newTestStore(t, OnChange(func(events []IntakeEvent) {
		snapshots = append(snapshots, events)
	}))

	_, err := s.Append(250, time.Time{})
	require.NoError(t, err)
	s.Remove("")

	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[0], 1)
	assert.Empty(t, snapshots[1])
}
