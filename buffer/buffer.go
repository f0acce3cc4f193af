package buffer

import (
	"sync"

	"github.com/alonana/harmetrics/core"
	"github.com/alonana/harmetrics/har"
)

// Deliverer receives ownership of a full batch. It must not block on network I/O.
type Deliverer interface {
	Deliver(batch []har.Entry)
}

type DelivererFunc func(batch []har.Entry)

func (f DelivererFunc) Deliver(batch []har.Entry) {
	f(batch)
}

// Buffer accumulates entries and hands them off once threshold entries were added.
// The threshold check and the reset happen under one lock, so every entry lands in
// exactly one delivered batch.
type Buffer struct {
	mutex     sync.Mutex
	threshold int
	entries   []har.Entry
	deliverer Deliverer
	count     uint64
}

func New(threshold int, deliverer Deliverer) *Buffer {
	if threshold < 1 {
		threshold = 1
	}
	return &Buffer{
		threshold: threshold,
		entries:   make([]har.Entry, 0, threshold),
		deliverer: deliverer,
	}
}

func (b *Buffer) Threshold() int {
	return b.threshold
}

func (b *Buffer) Add(entry har.Entry) {
	b.mutex.Lock()
	b.entries = append(b.entries, entry)
	var batch []har.Entry
	if len(b.entries) >= b.threshold {
		batch = b.takeLocked()
	}
	b.mutex.Unlock()

	if batch != nil {
		b.deliver(batch)
	}
}

// FlushAndReset hands off whatever has accumulated, even below the threshold. An
// empty buffer delivers nothing.
func (b *Buffer) FlushAndReset() {
	b.mutex.Lock()
	batch := b.takeLocked()
	b.mutex.Unlock()

	if batch != nil {
		b.deliver(batch)
	}
}

func (b *Buffer) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.entries)
}

// Flushed returns the number of entries handed to the deliverer so far.
func (b *Buffer) Flushed() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.count
}

func (b *Buffer) takeLocked() []har.Entry {
	if len(b.entries) == 0 {
		return nil
	}
	batch := b.entries
	b.entries = make([]har.Entry, 0, b.threshold)
	b.count += uint64(len(batch))
	return batch
}

func (b *Buffer) deliver(batch []har.Entry) {
	core.V2("flushing %v entries", len(batch))
	b.deliverer.Deliver(batch)
}
