package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "VEHICLE_TICK").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	TypeVehicleTick      = "VEHICLE_TICK"
	TypeVehicleTeleop    = "VEHICLE_TELEOP"
	TypeRecordingStarted = "RECORDING_STARTED"
	TypeRecordingStopped = "RECORDING_STOPPED"
	TypePilotChanged     = "PILOT_CHANGED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewVehicleEvent stamps vehicle_id into the payload so every consumer can
// route without knowing the event type.
func NewVehicleEvent(eventType, vehicleID string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["vehicle_id"] = vehicleID
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}

// Envelope is the wire form shared by the in-process bus, NATS and the
// websocket hub.
type Envelope struct {
	Type       string                 `json:"type"`
	VehicleID  string                 `json:"vehicle_id"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func ToEnvelope(e Event) Envelope {
	vehicleID, _ := e.Payload()["vehicle_id"].(string)
	return Envelope{
		Type:       e.EventType(),
		VehicleID:  vehicleID,
		Data:       e.Payload(),
		OccurredAt: e.Timestamp(),
	}
}

func (e Envelope) EventType() string               { return e.Type }
func (e Envelope) Payload() map[string]interface{} { return e.Data }
func (e Envelope) Timestamp() time.Time            { return e.OccurredAt }
