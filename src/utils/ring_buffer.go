package utils

import (
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// ReadingRing is a fixed-size circular buffer of sensor readings.
// True ring buffer - no resizing allowed!
// -----------------------------------------------------------------------------

type ReadingRing struct {
	data     []models.MReading
	capacity int
	index    int // Next write position
	size     int // Current number of elements
}

// -----------------------------------------------------------------------------

// NewReadingRing creates a new buffer with fixed capacity
func NewReadingRing(capacity int) *ReadingRing {
	if capacity <= 0 {
		capacity = 100 // Default reasonable size
	}

	return &ReadingRing{
		data:     make([]models.MReading, capacity),
		capacity: capacity,
		index:    0,
		size:     0,
	}
}

// -----------------------------------------------------------------------------

// Append adds a reading, overwriting the oldest once full
func (rb *ReadingRing) Append(r models.MReading) {
	rb.data[rb.index] = r
	rb.index = (rb.index + 1) % rb.capacity

	// Update size (never exceeds capacity)
	if rb.size < rb.capacity {
		rb.size++
	}
}

// -----------------------------------------------------------------------------

// Latest returns the most recent reading
func (rb *ReadingRing) Latest() (models.MReading, bool) {
	if rb.size == 0 {
		return models.MReading{}, false
	}
	idx := (rb.index - 1 + rb.capacity) % rb.capacity
	return rb.data[idx], true
}

// -----------------------------------------------------------------------------

// GetLatest returns the n most recent readings, oldest first
func (rb *ReadingRing) GetLatest(n int) []models.MReading {
	if rb.size == 0 || n <= 0 {
		return nil
	}
	if n > rb.size {
		n = rb.size
	}

	out := make([]models.MReading, 0, n)
	start := (rb.index - n + rb.capacity) % rb.capacity
	for i := 0; i < n; i++ {
		out = append(out, rb.data[(start+i)%rb.capacity])
	}
	return out
}

// -----------------------------------------------------------------------------

// Size returns the current number of stored readings
func (rb *ReadingRing) Size() int {
	return rb.size
}
