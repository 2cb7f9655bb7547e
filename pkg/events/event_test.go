package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeCarriesVehicleID(t *testing.T) {
	evt := NewVehicleEvent(TypeVehicleTick, "car1", map[string]interface{}{"angle": 0.3})

	env := ToEnvelope(evt)
	assert.Equal(t, "car1", env.VehicleID)
	assert.Equal(t, TypeVehicleTick, env.EventType())

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var back Envelope
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "car1", back.VehicleID)
	assert.Equal(t, 0.3, back.Data["angle"])
	assert.True(t, env.OccurredAt.Equal(back.OccurredAt))
}

func TestNewVehicleEventNilData(t *testing.T) {
	evt := NewVehicleEvent(TypeRecordingStopped, "car2", nil)
	assert.Equal(t, "car2", evt.Payload()["vehicle_id"])
}
