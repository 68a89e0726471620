package realtime

import (
	"encoding/json"
	"time"

	"monitor-observer/src/helpers"
	"monitor-observer/src/models"
)

// -----------------------------------------------------------------------------
// Message normalization. Raw stream payloads arrive in several shapes:
//
//	flat update      {"sensor_id": 7, "sensor_type": "ping", "status": "ok", ...}
//	batch            {"type": "sensor_batch", "items": [ <flat>, ... ]}
//	envelope         {"type": "sensor_update", "data": <flat>}
//	control          {"type": "welcome" | "ready" | "pong" | "ping"}
//
// Every known shape maps to zero or more flat MUpdateEvents. Unrecognized
// objects map to zero events; only unparseable JSON is reported as an error
// so the caller can drop it without touching the connection.
// -----------------------------------------------------------------------------

// Normalize flattens one raw payload. control is the message type for
// control frames ("" for data payloads); events preserve batch array order.
func Normalize(payload []byte) (events []models.MUpdateEvent, control string, err error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, "", helpers.NewMalformedMessage("unparseable stream payload", err)
	}

	msgType, _ := raw["type"].(string)

	switch msgType {
	case models.MsgWelcome, models.MsgReady, models.MsgPong, models.MsgPing:
		return nil, msgType, nil

	case models.MsgSensorBatch:
		items, _ := raw["items"].([]interface{})
		for _, item := range items {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if e, ok := eventFromObject(obj); ok {
				events = append(events, e)
			}
		}
		return events, "", nil

	case "sensor_update":
		obj, ok := raw["data"].(map[string]interface{})
		if !ok {
			return nil, "", nil
		}
		if e, ok := eventFromObject(obj); ok {
			events = append(events, e)
		}
		return events, "", nil

	default:
		// Flat single update, or an unrecognized shape that yields nothing.
		if e, ok := eventFromObject(raw); ok {
			events = append(events, e)
		}
		return events, "", nil
	}
}

// -----------------------------------------------------------------------------

// eventFromObject maps one flat update object to an MUpdateEvent. sensor_id
// is required; an object without it is not an update.
func eventFromObject(obj map[string]interface{}) (models.MUpdateEvent, bool) {
	idVal, ok := obj["sensor_id"].(float64)
	if !ok {
		return models.MUpdateEvent{}, false
	}

	e := models.MUpdateEvent{
		SensorID: int(idVal),
		Fields:   make(map[string]interface{}),
	}

	if st, ok := obj["sensor_type"].(string); ok {
		e.SensorType = st
	}

	if tsStr, ok := obj["timestamp"].(string); ok {
		ts, err := time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return models.MUpdateEvent{}, false
		}
		e.Timestamp = ts
	} else {
		e.Timestamp = time.Now().UTC()
	}

	for k, v := range obj {
		switch k {
		case "sensor_id", "sensor_type", "timestamp", "type":
			// structural keys, not live state
		default:
			e.Fields[k] = v
		}
	}

	return e, true
}
