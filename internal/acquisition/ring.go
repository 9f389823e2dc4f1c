package acquisition

import "sync"

// #region ring
// Ring is a fixed-capacity circular buffer of samples for one channel.
type Ring struct {
	mu       sync.RWMutex
	data     []float64
	head     int
	size     int
	capacity int
}

// NewRing creates a ring holding up to capacity samples.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{
		data:     make([]float64, capacity),
		capacity: capacity,
	}
}

// Push appends samples, overwriting the oldest once full.
func (r *Ring) Push(samples ...float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range samples {
		r.data[r.head] = v
		r.head = (r.head + 1) % r.capacity
		if r.size < r.capacity {
			r.size++
		}
	}
}

// Latest returns up to n of the most recent samples, oldest first.
func (r *Ring) Latest(n int) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.size {
		n = r.size
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		idx := (r.head - n + i + r.capacity) % r.capacity
		out[i] = r.data[idx]
	}
	return out
}

// Len returns the number of buffered samples.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// #endregion ring
