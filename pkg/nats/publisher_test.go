package nats

import (
	"testing"

	"donkey-remote-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "vehicles.vehicle_tick", Subject(events.TypeVehicleTick))
	assert.Equal(t, "vehicles.recording_started", Subject(events.TypeRecordingStarted))
}
