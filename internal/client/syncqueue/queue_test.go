package syncqueue

import (
	"errors"
	"testing"
	"time"

	"github.com/daybookapp/daybook/internal/client/models"
	"github.com/stretchr/testify/require"
)

func queueEntry(id, text string) *models.JournalEntry {
	return &models.JournalEntry{
		ID:   id,
		Date: "2024-01-15",
		Type: models.EntryTypeGeneral,
		Blocks: []models.Block{
			{ID: id + ":b1", Type: models.BlockTypeParagraph, Text: text},
		},
	}
}

func newTestQueue() (*Queue, *time.Time) {
	q := New(Backoff{Base: time.Second, Max: 30 * time.Second, Multiplier: 2}, 3)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	q.SetClock(func() time.Time { return now })
	return q, &now
}

func TestEnqueue_CoalescesPerEntryID(t *testing.T) {
	q, _ := newTestQueue()

	for i := 0; i < 10; i++ {
		q.Enqueue(queueEntry("e1", "draft"))
	}
	q.Enqueue(queueEntry("e1", "final"))

	require.Equal(t, 1, q.Len())
	item, ok := q.Get("e1")
	require.True(t, ok)
	require.Equal(t, "final", item.Snapshot.Blocks[0].Text)
}

func TestEnqueue_ContentChangeResetsRetries(t *testing.T) {
	q, _ := newTestQueue()

	q.Enqueue(queueEntry("e1", "a"))
	q.RecordTransientFailure("e1", errors.New("timeout"))
	q.RecordTransientFailure("e1", errors.New("timeout"))

	// Identical snapshot keeps the backoff position.
	q.Enqueue(queueEntry("e1", "a"))
	item, _ := q.Get("e1")
	require.Equal(t, 2, item.RetryCount)

	// Changed content resets it.
	q.Enqueue(queueEntry("e1", "b"))
	item, _ = q.Get("e1")
	require.Equal(t, 0, item.RetryCount)
}

func TestDue_RespectsBackoffSchedule(t *testing.T) {
	q, now := newTestQueue()

	q.Enqueue(queueEntry("e1", "a"))
	require.Len(t, q.Due(), 1)

	q.RecordTransientFailure("e1", errors.New("refused"))
	require.Empty(t, q.Due(), "item is scheduled in the future after a failure")

	*now = now.Add(3 * time.Second)
	require.Len(t, q.Due(), 1)
}

func TestRecordTransientFailure_BackoffGrowsMonotonically(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(queueEntry("e1", "a"))

	var prevDelay time.Duration
	var prevRetries int
	for i := 0; i < 3; i++ {
		item, ok := q.RecordTransientFailure("e1", errors.New("503"))
		require.True(t, ok)
		require.Greater(t, item.RetryCount, prevRetries)

		delay := item.NextAttempt.Sub(item.EnqueuedAt)
		require.GreaterOrEqual(t, delay, prevDelay)
		prevDelay = delay
		prevRetries = item.RetryCount
	}
}

func TestRecordTransientFailure_ParksAfterCap(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(queueEntry("e1", "a"))

	var item *Item
	for i := 0; i < 4; i++ {
		item, _ = q.RecordTransientFailure("e1", errors.New("503"))
	}
	require.True(t, item.Parked)
	require.Equal(t, 1, q.Len(), "parked items stay queued")
	require.Empty(t, q.Due())
}

func TestRecordPermanentFailure_ParksImmediately(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(queueEntry("e1", "a"))

	item, ok := q.RecordPermanentFailure("e1", errors.New("validation failed"))
	require.True(t, ok)
	require.True(t, item.Parked)
	require.Equal(t, "validation failed", item.LastError)
	require.Empty(t, q.Due())
	require.Equal(t, 1, q.Len())
}

func TestDefer_PushesOutWithoutSpendingRetries(t *testing.T) {
	q, now := newTestQueue()
	q.Enqueue(queueEntry("e1", "a"))

	q.Defer("e1", 30*time.Second)

	require.Empty(t, q.Due())
	item, _ := q.Get("e1")
	require.Equal(t, 0, item.RetryCount)
	require.False(t, item.Parked)

	*now = now.Add(30 * time.Second)
	require.Len(t, q.Due(), 1)

	// A later ResetSchedule (fresh login) overrides the deferral.
	q.Defer("e1", time.Hour)
	q.ResetSchedule()
	require.Len(t, q.Due(), 1)
}

func TestReviveParked_RestoresRotation(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(queueEntry("e1", "a"))
	q.RecordPermanentFailure("e1", errors.New("rejected"))

	require.Equal(t, 1, q.ReviveParked())

	item, _ := q.Get("e1")
	require.False(t, item.Parked)
	require.Equal(t, 0, item.RetryCount)
	require.Len(t, q.Due(), 1)
}

func TestRekey_MovesItemKeepingBookkeeping(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(queueEntry("local-1", "a"))
	q.RecordTransientFailure("local-1", errors.New("timeout"))

	q.Rekey("local-1", "perm-1")

	require.False(t, q.Has("local-1"))
	item, ok := q.Get("perm-1")
	require.True(t, ok)
	require.Equal(t, "perm-1", item.Snapshot.ID)
	require.Equal(t, 1, item.RetryCount)
}

func TestResetSchedule_MakesUnparkedItemsDue(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(queueEntry("e1", "a"))
	q.Enqueue(queueEntry("e2", "b"))
	q.RecordTransientFailure("e1", errors.New("timeout"))
	q.RecordPermanentFailure("e2", errors.New("rejected"))

	q.ResetSchedule()

	due := q.Due()
	require.Len(t, due, 1)
	require.Equal(t, "e1", due[0].EntryID)
}

func TestClear_DropsEverything(t *testing.T) {
	q, _ := newTestQueue()
	q.Enqueue(queueEntry("e1", "a"))
	q.Enqueue(queueEntry("e2", "b"))

	q.Clear()
	require.Equal(t, 0, q.Len())
}

func TestDue_OrderedByEnqueueTime(t *testing.T) {
	q, now := newTestQueue()

	q.Enqueue(queueEntry("e1", "a"))
	*now = now.Add(time.Second)
	q.Enqueue(queueEntry("e2", "b"))
	*now = now.Add(time.Second)

	due := q.Due()
	require.Len(t, due, 2)
	require.Equal(t, "e1", due[0].EntryID)
	require.Equal(t, "e2", due[1].EntryID)
}

func TestBackoff_DelayGrowsAndCaps(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 10 * time.Second, Multiplier: 2}

	require.Equal(t, time.Second, b.Delay(0))
	require.Equal(t, 2*time.Second, b.Delay(1))
	require.Equal(t, 4*time.Second, b.Delay(2))
	require.Equal(t, 8*time.Second, b.Delay(3))
	require.Equal(t, 10*time.Second, b.Delay(4))
	require.Equal(t, 10*time.Second, b.Delay(50))
}
