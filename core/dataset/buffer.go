package dataset

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Buffer keeps the most recent samples in memory. When full, adding a sample
// evicts the oldest one. It is safe for concurrent use.
type Buffer struct {
	cache   *lru.Cache[uuid.UUID, Sample]
	evicted atomic.Int64
}

// NewBuffer returns a Buffer holding at most size samples.
func NewBuffer(size int) (*Buffer, error) {
	cache, err := lru.New[uuid.UUID, Sample](size)
	if err != nil {
		return nil, err
	}
	return &Buffer{cache: cache}, nil
}

// Add implements Sink.
func (b *Buffer) Add(_ context.Context, s Sample) error {
	if b.cache.Add(s.ID, s) {
		b.evicted.Add(1)
	}
	return nil
}

// Get returns the sample with the given ID without refreshing its age.
func (b *Buffer) Get(id uuid.UUID) (Sample, bool) {
	return b.cache.Peek(id)
}

func (b *Buffer) Len() int {
	return b.cache.Len()
}

// Evicted returns how many samples were pushed out since creation.
func (b *Buffer) Evicted() int64 {
	return b.evicted.Load()
}

// Samples returns the buffered samples from oldest to newest.
func (b *Buffer) Samples() []Sample {
	keys := b.cache.Keys()
	out := make([]Sample, 0, len(keys))
	for _, k := range keys {
		if s, ok := b.cache.Peek(k); ok {
			out = append(out, s)
		}
	}
	return out
}

// Drain moves the buffered samples, oldest first, into sink. Samples written
// before a failure are removed from the buffer.
func (b *Buffer) Drain(ctx context.Context, sink Sink) error {
	for _, s := range b.Samples() {
		if err := sink.Add(ctx, s); err != nil {
			return err
		}
		b.cache.Remove(s.ID)
	}
	return nil
}
