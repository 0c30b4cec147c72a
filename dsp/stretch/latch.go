package stretch

import (
	"math"
	"sync/atomic"
)

// canonicalNaN is the only NaN bit pattern a latch stores, so the inverted
// pattern of a stored value is never zero.
var canonicalNaN = math.Float64bits(math.NaN())

// latch is a single-slot mailbox with one reader. Store overwrites any value
// not yet taken; Take returns it at most once. The slot holds the inverted
// bits of the value so the zero value is empty and no call allocates.
type latch struct {
	v atomic.Uint64
}

func encodeLatch(v float64) uint64 {
	if math.IsNaN(v) {
		return ^canonicalNaN
	}
	return ^math.Float64bits(v)
}

func (l *latch) Store(v float64) {
	l.v.Store(encodeLatch(v))
}

// StoreIfEmpty stores v only when no value is pending and reports whether
// it did.
func (l *latch) StoreIfEmpty(v float64) bool {
	return l.v.CompareAndSwap(0, encodeLatch(v))
}

func (l *latch) Take() (float64, bool) {
	raw := l.v.Swap(0)
	if raw == 0 {
		return 0, false
	}
	return math.Float64frombits(^raw), true
}

func (l *latch) Pending() bool {
	return l.v.Load() != 0
}

// atomicFloat publishes a float64 from the render path to readers on other
// goroutines.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

func (f *atomicFloat) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}
