package views

import (
	"sort"
	"sync"
	"time"

	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// HistoryPoint is one entry in a history series, keyed by millisecond
// timestamp for deduplication.
// -----------------------------------------------------------------------------

type HistoryPoint struct {
	Time   time.Time
	Fields map[string]interface{}
}

// Key returns the deduplication key.
func (p HistoryPoint) Key() int64 {
	return p.Time.UnixMilli()
}

// -----------------------------------------------------------------------------
// HistorySeries is the detail view's reconciler: the REST-fetched history for
// one sensor, extended in place by streamed updates. Reapplying a point with
// a known timestamp replaces it (correction/replay support, never a
// duplicate); in-order arrival appends without re-sorting; points falling
// out of the active time window are dropped after every insertion.
// -----------------------------------------------------------------------------

type HistorySeries struct {
	mu       sync.Mutex
	sensorID int
	window   time.Duration
	points   []HistoryPoint

	now func() time.Time // test hook
}

// -----------------------------------------------------------------------------

func NewHistorySeries(sensorID int, timeRange string) (*HistorySeries, error) {
	window, err := models.WindowDuration(timeRange)
	if err != nil {
		return nil, err
	}
	return &HistorySeries{
		sensorID: sensorID,
		window:   window,
		now:      time.Now,
	}, nil
}

// -----------------------------------------------------------------------------

// SensorID returns the sensor this series tracks.
func (h *HistorySeries) SensorID() int {
	return h.sensorID
}

// -----------------------------------------------------------------------------

// SetTimeRange switches the active window. The caller is expected to follow
// up with a fresh fetch and Replace; streamed extension only applies between
// fetches.
func (h *HistorySeries) SetTimeRange(timeRange string) error {
	window, err := models.WindowDuration(timeRange)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.window = window
	h.mu.Unlock()
	return nil
}

// -----------------------------------------------------------------------------

// Replace installs a freshly fetched history, discarding the prior series.
func (h *HistorySeries) Replace(readings []models.MReading) {
	points := make([]HistoryPoint, 0, len(readings))
	for i := range readings {
		points = append(points, HistoryPoint{
			Time:   readings[i].Timestamp,
			Fields: readings[i].Fields(),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	h.mu.Lock()
	h.points = points
	h.truncateLocked()
	h.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Apply merges one streamed update into the series. Events for other sensors
// are ignored; returns whether the series changed.
func (h *HistorySeries) Apply(e models.MUpdateEvent) bool {
	if e.SensorID != h.sensorID {
		return false
	}

	point := HistoryPoint{Time: e.Timestamp, Fields: e.Fields}
	key := point.Key()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Replace on exact timestamp match: idempotent merge, length unchanged.
	if idx, found := h.indexOfLocked(key); found {
		h.points[idx] = point
		return true
	}

	h.points = append(h.points, point)

	// Common case is in-order arrival; only re-sort when the new point
	// landed out of order relative to its predecessor.
	n := len(h.points)
	if n > 1 && h.points[n-1].Time.Before(h.points[n-2].Time) {
		sort.Slice(h.points, func(i, j int) bool {
			return h.points[i].Time.Before(h.points[j].Time)
		})
	}

	h.truncateLocked()
	return true
}

// -----------------------------------------------------------------------------

// Points returns a copy of the series in timestamp order.
func (h *HistorySeries) Points() []HistoryPoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HistoryPoint(nil), h.points...)
}

// -----------------------------------------------------------------------------

// Len returns the number of points held.
func (h *HistorySeries) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.points)
}

// -----------------------------------------------------------------------------

// indexOfLocked finds a point by timestamp key via binary search.
func (h *HistorySeries) indexOfLocked(key int64) (int, bool) {
	idx := sort.Search(len(h.points), func(i int) bool {
		return h.points[i].Key() >= key
	})
	if idx < len(h.points) && h.points[idx].Key() == key {
		return idx, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// truncateLocked drops points older than now - window.
func (h *HistorySeries) truncateLocked() {
	cutoff := h.now().Add(-h.window)
	idx := sort.Search(len(h.points), func(i int) bool {
		return !h.points[i].Time.Before(cutoff)
	})
	if idx > 0 {
		h.points = append([]HistoryPoint(nil), h.points[idx:]...)
	}
}
