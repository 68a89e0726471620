package devserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"monitor-observer/src/logger"
	"monitor-observer/src/models"
	"monitor-observer/src/utils"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
//
// One goroutine owns the client set and the recent-readings cache; clients
// register/unregister through channels and readings fan out to every client
// subscribed to the reading's sensor.
// -----------------------------------------------------------------------------

type Hub struct {
	Config *models.MConfig
	Logger *logger.Logger

	clients    map[*Client]struct{}
	broadcast  chan models.MReading
	register   chan *Client
	unregister chan *Client
	sync       chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	// Latest readings per sensor, replayed on sync_request. Only the hub
	// goroutine touches the map.
	recent map[int]*utils.ReadingRing

	upgrader websocket.Upgrader
}

// -----------------------------------------------------------------------------

func NewHub(cfg *models.MConfig, log *logger.Logger) *Hub {
	return &Hub{
		Config:  cfg,
		Logger:  log,
		clients: make(map[*Client]struct{}),
		// Buffered channel to prevent lock/blocking
		broadcast:  make(chan models.MReading, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sync:       make(chan *Client, 16),
		done:       make(chan struct{}),
		recent:     make(map[int]*utils.ReadingRing),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// -----------------------------------------------------------------------------

// ServeWS upgrades one HTTP request into a stream client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warning("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, 64),
		subscriptions: make(map[int]struct{}),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------

// Broadcast queues one reading for fan-out.
func (h *Hub) Broadcast(r models.MReading) {
	select {
	case h.broadcast <- r:
	case <-h.done:
	}
}

// -----------------------------------------------------------------------------

// ClientCount reports the connected client count (approximate, for health).
func (h *Hub) ClientCount() int {
	return len(h.clients)
}

// -----------------------------------------------------------------------------

// run is the main Hub loop
func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			client.enqueue(controlFrame(models.MsgWelcome))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case client := <-h.sync:
			if _, ok := h.clients[client]; ok {
				h.replayLatest(client)
			}

		case reading := <-h.broadcast:
			h.remember(reading)

			payload, err := json.Marshal(readingFrame(reading))
			if err != nil {
				h.Logger.Error("cannot marshal reading: %v", err)
				continue
			}

			for client := range h.clients {
				if !client.subscribedTo(reading.SensorID) {
					continue
				}
				select {
				case client.send <- payload:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// -----------------------------------------------------------------------------

func (h *Hub) remember(r models.MReading) {
	ring, ok := h.recent[r.SensorID]
	if !ok {
		ring = utils.NewReadingRing(h.Config.Server.RecentReadingsCapacity)
		h.recent[r.SensorID] = ring
	}
	ring.Append(r)
}

// -----------------------------------------------------------------------------

// handleClientMessage processes one inbound frame from a stream client.
// Runs on the client's read goroutine; replies go through the send queue.
func (h *Hub) handleClientMessage(c *Client, raw []byte) {
	var msg struct {
		Type      string `json:"type"`
		SensorIDs []int  `json:"sensor_ids"`
		Resource  string `json:"resource"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.Logger.Debug("ignoring unparseable client frame: %v", err)
		return
	}

	switch msg.Type {
	case models.MsgPing:
		c.enqueue(controlFrame(models.MsgPong))

	case models.MsgSubscribeSensors:
		// Full-replace semantics: this set supersedes any prior one.
		c.setSubscriptions(msg.SensorIDs)
		c.enqueue(controlFrame(models.MsgReady))

	case models.MsgSyncRequest:
		// The client asks before subscribing (it just reconnected and the
		// server has no memory of it), so the hub loop replays the latest
		// reading of every sensor in the resource class.
		select {
		case h.sync <- c:
		case <-h.done:
		}

	default:
		h.Logger.Debug("unknown client message type %q", msg.Type)
	}
}

// -----------------------------------------------------------------------------

// replayLatest sends one sensor_batch with the latest known reading per
// sensor so the client recovers any gap incurred while disconnected.
func (h *Hub) replayLatest(c *Client) {
	var items []map[string]interface{}
	for _, ring := range h.recent {
		if reading, ok := ring.Latest(); ok {
			items = append(items, readingFrame(reading))
		}
	}
	if items == nil {
		items = []map[string]interface{}{}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":  models.MsgSensorBatch,
		"items": items,
	})
	if err != nil {
		h.Logger.Error("cannot marshal sync batch: %v", err)
		return
	}
	c.enqueue(payload)
}

// -----------------------------------------------------------------------------
// Frame helpers
// -----------------------------------------------------------------------------

func controlFrame(msgType string) []byte {
	payload, _ := json.Marshal(models.MControlMessage{Type: msgType})
	return payload
}

// readingFrame flattens a reading into the wire shape of a live update.
func readingFrame(r models.MReading) map[string]interface{} {
	frame := map[string]interface{}{
		"sensor_id":   r.SensorID,
		"sensor_type": r.SensorType,
		"timestamp":   r.Timestamp,
	}
	for k, v := range r.Fields() {
		frame[k] = v
	}
	return frame
}
