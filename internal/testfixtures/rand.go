package testfixtures

import "sync"

// SequenceRand returns the given values in order and then repeats the last
// one. It stands in for rand.Float64.
type SequenceRand struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequenceRand creates a SequenceRand. With no values it always returns 0.5.
func NewSequenceRand(values ...float64) *SequenceRand {
	if len(values) == 0 {
		values = []float64{0.5}
	}
	return &SequenceRand{values: values}
}

// Float64 returns the next value.
func (r *SequenceRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.values[min(r.next, len(r.values)-1)]
	r.next++
	return v
}
