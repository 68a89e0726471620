package models

// Wire message types exchanged on the stream.
const (
	MsgPing             = "ping"
	MsgPong             = "pong"
	MsgWelcome          = "welcome"
	MsgReady            = "ready"
	MsgSensorBatch      = "sensor_batch"
	MsgSubscribeSensors = "subscribe_sensors"
	MsgSyncRequest      = "sync_request"
)

// -----------------------------------------------------------------------------
// MClientMessage is an outbound control message from client to server.
// subscribe_sensors carries the FULL wanted set each time (full-replace
// semantics, never incremental); sync_request names a resource class whose
// latest known values the server should replay.
// -----------------------------------------------------------------------------

type MClientMessage struct {
	Type     string `json:"type"`
	Resource string `json:"resource,omitempty"`
}

// -----------------------------------------------------------------------------

// MSubscribeMessage is the full-replace subscription message. The sensor id
// array is always present on the wire; an empty set is an explicit empty
// array that clears all subscriptions.
type MSubscribeMessage struct {
	Type      string `json:"type"`
	SensorIDs []int  `json:"sensor_ids"`
}

// -----------------------------------------------------------------------------

// NewSubscribeMessage builds a full-replace subscription message.
func NewSubscribeMessage(sensorIDs []int) MSubscribeMessage {
	if sensorIDs == nil {
		sensorIDs = []int{}
	}
	return MSubscribeMessage{Type: MsgSubscribeSensors, SensorIDs: sensorIDs}
}

// -----------------------------------------------------------------------------

// MControlMessage is an inbound server control frame (welcome/ready/pong).
type MControlMessage struct {
	Type string `json:"type"`
}
