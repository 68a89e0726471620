package views

import (
	"sync"

	"monitor-observer/src/models"
)

// StatusPending is the placeholder before any stream data arrives.
const StatusPending = "pending"

// -----------------------------------------------------------------------------
// LiveStatusMap is the dashboard view's reconciler: sensor id -> latest live
// fields. Every update event merges shallowly into the existing entry, so
// fields present in the event overwrite and fields absent persist. Entries
// for sensors the event does not mention are never touched.
// -----------------------------------------------------------------------------

type LiveStatusMap struct {
	mu      sync.RWMutex
	entries map[int]map[string]interface{}
}

// -----------------------------------------------------------------------------

func NewLiveStatusMap() *LiveStatusMap {
	return &LiveStatusMap{entries: make(map[int]map[string]interface{})}
}

// -----------------------------------------------------------------------------

// InitPending seeds a pending placeholder for every listed sensor that has
// no entry yet, so the view never shows undefined state between the sensor
// list loading and the first stream data.
func (l *LiveStatusMap) InitPending(sensorIDs []int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range sensorIDs {
		if _, exists := l.entries[id]; !exists {
			l.entries[id] = map[string]interface{}{"status": StatusPending}
		}
	}
}

// -----------------------------------------------------------------------------

// Apply merges one update event into the map.
func (l *LiveStatusMap) Apply(e models.MUpdateEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.entries[e.SensorID]
	if !exists {
		entry = make(map[string]interface{})
		l.entries[e.SensorID] = entry
	}

	for k, v := range e.Fields {
		entry[k] = v
	}
	if e.SensorType != "" {
		entry["sensor_type"] = e.SensorType
	}
	entry["timestamp"] = e.Timestamp
}

// -----------------------------------------------------------------------------

// Get returns a copy of one sensor's entry, or nil when unknown.
func (l *LiveStatusMap) Get(sensorID int) map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, exists := l.entries[sensorID]
	if !exists {
		return nil
	}
	out := make(map[string]interface{}, len(entry))
	for k, v := range entry {
		out[k] = v
	}
	return out
}

// -----------------------------------------------------------------------------

// Snapshot returns a deep copy of the whole map.
func (l *LiveStatusMap) Snapshot() map[int]map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[int]map[string]interface{}, len(l.entries))
	for id, entry := range l.entries {
		cp := make(map[string]interface{}, len(entry))
		for k, v := range entry {
			cp[k] = v
		}
		out[id] = cp
	}
	return out
}

// -----------------------------------------------------------------------------

// Len returns the number of tracked sensors.
func (l *LiveStatusMap) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// -----------------------------------------------------------------------------

// Clear empties the map on view teardown.
func (l *LiveStatusMap) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[int]map[string]interface{})
}
