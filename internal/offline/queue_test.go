package offline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/till/internal/testutil"
)

var enqueueTime = time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

func TestQueue_EnqueueCapturesPayloadVerbatim(t *testing.T) {
	q := NewQueue(NewMemoryStore(), testutil.NewClock(enqueueTime))
	payload := []byte(`{"items":[{"product_id":1,"quantity":2,"unit_price":"4.50"}],"discount":"0","discount_type":"fixed","payment_method":"cash"}`)

	s, err := q.Enqueue(payload)
	require.NoError(t, err)
	assert.Equal(t, enqueueTime, s.EnqueuedAt)

	listed, err := q.List()
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, payload, []byte(listed[0].Payload), "replay contract is byte-for-byte")
}

func TestQueue_EnqueueDoesNotAliasCallerBuffer(t *testing.T) {
	q := NewQueue(NewMemoryStore(), testutil.NewClock(enqueueTime))
	payload := []byte(`{"items":[]}`)

	s, err := q.Enqueue(payload)
	require.NoError(t, err)

	payload[0] = 'X'
	assert.Equal(t, byte('{'), s.Payload[0])
}

func TestQueue_ListReturnsEnqueueOrder(t *testing.T) {
	q := NewQueue(NewMemoryStore(), testutil.NewClock(enqueueTime))
	first, err := q.Enqueue([]byte(`{"n":1}`))
	require.NoError(t, err)
	second, err := q.Enqueue([]byte(`{"n":2}`))
	require.NoError(t, err)

	listed, err := q.List()
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)
}

func TestQueue_RemoveAcknowledgesReconciledSale(t *testing.T) {
	q := NewQueue(NewMemoryStore(), testutil.NewClock(enqueueTime))
	s, err := q.Enqueue([]byte(`{"n":1}`))
	require.NoError(t, err)

	require.NoError(t, q.Remove(s.ID))

	listed, err := q.List()
	require.NoError(t, err)
	assert.Empty(t, listed)
}
