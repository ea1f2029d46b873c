package sim

import "context"

// AttemptLogBuffer queues fulfillment attempt records in memory so the hot
// path never writes to the store. The maintenance task flushes it once per
// period, which bounds its growth to one record per step between flushes.
type AttemptLogBuffer struct {
	records []AttemptRecord
}

// NewAttemptLogBuffer returns an empty buffer.
func NewAttemptLogBuffer() *AttemptLogBuffer {
	return &AttemptLogBuffer{}
}

// Append queues one record. O(1), no store I/O.
func (b *AttemptLogBuffer) Append(rec AttemptRecord) {
	b.records = append(b.records, rec)
}

// Len returns the number of buffered records.
func (b *AttemptLogBuffer) Len() int {
	return len(b.records)
}

// Flush batch-inserts all buffered records and clears the buffer. Flushing an
// empty buffer is a no-op. On store error the buffer is left intact so the
// records are retried at the next flush. Returns how many records were
// persisted.
func (b *AttemptLogBuffer) Flush(ctx context.Context, store Store) (int, error) {
	if len(b.records) == 0 {
		return 0, nil
	}
	if err := store.AppendAttemptLogs(ctx, b.records); err != nil {
		return 0, err
	}
	n := len(b.records)
	b.records = b.records[:0]
	return n, nil
}
