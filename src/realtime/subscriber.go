package realtime

import (
	"sort"
	"sync"

	"monitor-observer/src/logger"
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// Subscriber keeps the server informed of exactly which sensors the mounted
// views need streamed data for. Subscriptions are full-replace: every
// subscribe_sensors message carries the complete wanted set, and the server
// forgets everything across a reconnect, so the set is resent on every open
// after a sync_request that replays the latest known value per sensor.
// -----------------------------------------------------------------------------

type Subscriber struct {
	Manager *Manager
	Logger  *logger.Logger

	mu       sync.Mutex
	wanted   []int // sorted; nil until the first TrySubscribe
	lastSent []int // last set actually delivered on the live connection
	claims   map[string][]int
}

// -----------------------------------------------------------------------------

func NewSubscriber(m *Manager, log *logger.Logger) *Subscriber {
	s := &Subscriber{Manager: m, Logger: log, claims: make(map[string][]int)}
	m.OnOpen(s.handleOpen)
	return s
}

// -----------------------------------------------------------------------------

// ClaimView records the sensors one mounted view needs and resubscribes with
// the union across all views. Views claim on mount and release on unmount;
// the shared connection itself is never touched here.
func (s *Subscriber) ClaimView(view string, sensorIDs []int) {
	s.mu.Lock()
	s.claims[view] = normalizeIDs(sensorIDs)
	union := s.unionLocked()
	s.mu.Unlock()

	s.TrySubscribe(union)
}

// -----------------------------------------------------------------------------

// ReleaseView drops a view's claim and resubscribes with the remaining union.
func (s *Subscriber) ReleaseView(view string) {
	s.mu.Lock()
	if _, exists := s.claims[view]; !exists {
		s.mu.Unlock()
		return
	}
	delete(s.claims, view)
	union := s.unionLocked()
	s.mu.Unlock()

	s.TrySubscribe(union)
}

// -----------------------------------------------------------------------------

// unionLocked merges every view's claim. Callers hold s.mu.
func (s *Subscriber) unionLocked() []int {
	seen := make(map[int]struct{})
	var union []int
	for _, ids := range s.claims {
		for _, id := range ids {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				union = append(union, id)
			}
		}
	}
	if union == nil {
		union = []int{}
	}
	return union
}

// -----------------------------------------------------------------------------

// TrySubscribe records the wanted sensor set and, when it differs from the
// last set actually sent, pushes a full-replace subscription. A closed
// connection defers the send to the next open. An empty set is a valid
// subscribe-to-nothing, not an error.
func (s *Subscriber) TrySubscribe(sensorIDs []int) {
	ids := normalizeIDs(sensorIDs)

	s.mu.Lock()
	s.wanted = ids
	if equalIDs(ids, s.lastSent) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if s.Manager.State() != StateOpen {
		// Deferred: handleOpen resends the wanted set once connected.
		return
	}

	s.send(ids)
}

// -----------------------------------------------------------------------------

// Wanted returns the current wanted set (sorted copy).
func (s *Subscriber) Wanted() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.wanted...)
}

// -----------------------------------------------------------------------------

// handleOpen runs on every successful open. The server holds no memory of
// prior subscriptions, so the last-sent set is void: request a state replay
// first, then re-issue the full wanted set before any other traffic.
func (s *Subscriber) handleOpen() {
	s.mu.Lock()
	s.lastSent = nil
	wanted := s.wanted
	s.mu.Unlock()

	if err := s.Manager.Send(models.MClientMessage{
		Type:     models.MsgSyncRequest,
		Resource: "sensors",
	}); err != nil {
		s.Logger.Warning("sync request failed: %v", err)
	}

	if wanted != nil {
		s.send(wanted)
	}
}

// -----------------------------------------------------------------------------

func (s *Subscriber) send(ids []int) {
	err := s.Manager.Send(models.NewSubscribeMessage(ids))
	if err != nil {
		s.Logger.Warning("subscribe failed: %v", err)
		return
	}

	s.mu.Lock()
	s.lastSent = ids
	s.mu.Unlock()
	s.Logger.Debug("subscribed to %d sensors", len(ids))
}

// -----------------------------------------------------------------------------

// normalizeIDs copies and sorts so set comparison is a cheap ordered walk.
func normalizeIDs(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	sort.Ints(out)
	return out
}

// -----------------------------------------------------------------------------

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	if (a == nil) != (b == nil) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
