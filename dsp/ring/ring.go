// Package ring implements the fixed-capacity sample FIFO that sits between
// a vocoder channel and the render path.
package ring

import (
	"errors"
	"fmt"
)

// ErrEmpty is the panic value of Shift on an empty buffer.
var ErrEmpty = errors.New("ring: shift from empty buffer")

// Buffer is a circular FIFO of float64 samples. It has no internal locking:
// one goroutine owns it.
type Buffer struct {
	data       []float64
	head       int
	size       int
	overwrites int
}

// New returns an empty buffer holding at most capacity samples.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring capacity must be > 0: %d", capacity)
	}
	return &Buffer{data: make([]float64, capacity)}, nil
}

// Size returns the number of unread samples.
func (b *Buffer) Size() int { return b.size }

// Capacity returns the fixed capacity.
func (b *Buffer) Capacity() int { return len(b.data) }

// Free returns Capacity() - Size().
func (b *Buffer) Free() int { return len(b.data) - b.size }

// Overwrites reports how many unread samples Push has discarded since
// construction. A correctly sized producer keeps this at zero.
func (b *Buffer) Overwrites() int { return b.overwrites }

// Push appends sample. When the buffer is full the oldest unread sample is
// dropped and the size stays at capacity.
func (b *Buffer) Push(sample float64) {
	n := len(b.data)
	tail := b.head + b.size
	if tail >= n {
		tail -= n
	}
	b.data[tail] = sample

	if b.size == n {
		b.head++
		if b.head == n {
			b.head = 0
		}
		b.overwrites++
		return
	}
	b.size++
}

// PushSlice pushes every element of src in order.
func (b *Buffer) PushSlice(src []float64) {
	n := len(b.data)
	if len(src) > n {
		b.overwrites += len(src) - n
		src = src[len(src)-n:]
	}

	if drop := len(src) - b.Free(); drop > 0 {
		b.discard(drop)
		b.overwrites += drop
	}

	tail := b.head + b.size
	if tail >= n {
		tail -= n
	}
	first := copy(b.data[tail:], src)
	copy(b.data, src[first:])
	b.size += len(src)
}

// Shift removes and returns the oldest sample. It panics with ErrEmpty when
// Size() is zero; callers check Size first.
func (b *Buffer) Shift() float64 {
	if b.size == 0 {
		panic(ErrEmpty)
	}
	v := b.data[b.head]
	b.head++
	if b.head == len(b.data) {
		b.head = 0
	}
	b.size--
	return v
}

// ShiftInto moves up to len(dst) of the oldest samples into dst and returns
// how many were moved.
func (b *Buffer) ShiftInto(dst []float64) int {
	count := len(dst)
	if count > b.size {
		count = b.size
	}

	first := copy(dst[:count], b.data[b.head:])
	copy(dst[first:count], b.data)
	b.discard(count)

	return count
}

// Reset drops all unread samples. Storage is kept.
func (b *Buffer) Reset() {
	b.head = 0
	b.size = 0
}

func (b *Buffer) discard(count int) {
	b.head = (b.head + count) % len(b.data)
	b.size -= count
	if b.size == 0 {
		b.head = 0
	}
}
