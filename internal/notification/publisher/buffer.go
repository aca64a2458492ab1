package publisher

import (
	"sync"

	"compliancehub/internal/notification/models"
)

const defaultCapacity = 10000

// RingBuffer is a bounded, thread-safe FIFO of notifications awaiting
// fan-out. When full, the oldest entries are dropped.
type RingBuffer struct {
	mu       sync.Mutex
	items    []*models.Notification
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int

	dropped int64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &RingBuffer{
		items:    make([]*models.Notification, capacity),
		capacity: capacity,
	}
}

// Enqueue appends n, evicting the oldest entry when full. Reports whether
// an entry was evicted.
func (b *RingBuffer) Enqueue(n *models.Notification) (evicted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.capacity {
		b.items[b.tail] = nil
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
		evicted = true
	}
	b.items[b.head] = n
	b.head = (b.head + 1) % b.capacity
	b.count++
	return evicted
}

// Requeue puts undelivered entries back at the front, preserving their
// order. Entries that no longer fit are dropped.
func (b *RingBuffer) Requeue(batch []*models.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(batch) - 1; i >= 0; i-- {
		if b.count >= b.capacity {
			b.dropped += int64(i + 1)
			return
		}
		b.tail = (b.tail - 1 + b.capacity) % b.capacity
		b.items[b.tail] = batch[i]
		b.count++
	}
}

// DequeueBatch removes up to n entries from the front.
func (b *RingBuffer) DequeueBatch(n int) []*models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}
	out := make([]*models.Notification, n)
	for i := range n {
		out[i] = b.items[b.tail]
		b.items[b.tail] = nil
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return out
}

func (b *RingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Dropped returns the total number of evicted entries.
func (b *RingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
