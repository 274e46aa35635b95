package storage

import (
	"context"
	"time"

	"gowalmart_seller/internal/walmart/business/models"
)

const DefaultBatchSize = 100

// Batcher buffers the records of one stream and upserts them in batches.
// It is not safe for concurrent use.
type Batcher struct {
	repo       *RecordRepository
	stream     string
	primaryKey []string
	syncedAt   time.Time
	size       int

	rows    []Row
	written int64
}

func NewBatcher(repo *RecordRepository, stream string, primaryKey []string, syncedAt time.Time, size int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{
		repo:       repo,
		stream:     stream,
		primaryKey: primaryKey,
		syncedAt:   syncedAt,
		size:       size,
		rows:       make([]Row, 0, size),
	}
}

// Add queues record. Records without a primary key are rejected with
// models.ErrMissingKey.
func (b *Batcher) Add(ctx context.Context, record models.Record) error {
	key, err := record.Key(b.primaryKey)
	if err != nil {
		return err
	}
	b.rows = append(b.rows, Row{Key: key, Data: record})
	if len(b.rows) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.rows) == 0 {
		return nil
	}
	n, err := b.repo.UpsertBatch(ctx, b.stream, b.rows, b.syncedAt)
	if err != nil {
		return err
	}
	b.written += int64(n)
	b.rows = b.rows[:0]
	return nil
}

// Written is the number of rows upserted so far.
func (b *Batcher) Written() int64 {
	return b.written
}
