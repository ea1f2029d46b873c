package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingLogStore rejects attempt log writes so flush retry behaviour can be
// observed.
type failingLogStore struct {
	*MemStore
}

func (s *failingLogStore) AppendAttemptLogs(ctx context.Context, recs []AttemptRecord) error {
	return errors.New("disk full")
}

func TestAttemptLogBuffer_FlushEmptyIsNoOp(t *testing.T) {
	b := NewAttemptLogBuffer()
	n, err := b.Flush(context.Background(), NewMemStore())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAttemptLogBuffer_FlushPersistsAndClears(t *testing.T) {
	// GIVEN a buffer with two records
	store := NewMemStore()
	b := NewAttemptLogBuffer()
	b.Append(AttemptRecord{OrderID: 1, Outcome: OutcomeSuccess})
	b.Append(AttemptRecord{OrderID: 2, Outcome: OutcomeFailure, FailureReason: ReasonOutOfStock})
	require.Equal(t, 2, b.Len())

	// WHEN the buffer flushes
	n, err := b.Flush(context.Background(), store)
	require.NoError(t, err)

	// THEN the records landed in the store and the buffer is empty
	assert.Equal(t, 2, n)
	assert.Zero(t, b.Len())
	logs, err := store.ListAttemptLog(context.Background())
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestAttemptLogBuffer_FlushKeepsRecordsOnError(t *testing.T) {
	// GIVEN a store that rejects the batch insert
	b := NewAttemptLogBuffer()
	b.Append(AttemptRecord{OrderID: 1})

	// WHEN the flush fails
	n, err := b.Flush(context.Background(), &failingLogStore{NewMemStore()})

	// THEN the records stay buffered for the next attempt
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, b.Len())

	// and a later flush against a healthy store succeeds
	n, err = b.Flush(context.Background(), NewMemStore())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, b.Len())
}
