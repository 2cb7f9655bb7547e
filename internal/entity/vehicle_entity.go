package entity

import (
	"sync"
	"sync/atomic"
	"time"

	"donkey-remote-be/pkg/drive"
)

// VehicleState is the mutable control state of one vehicle. Values handed
// out by Vehicle.Snapshot are copies.
type VehicleState struct {
	UserAngle    float64
	UserThrottle float64
	DriveMode    drive.Mode

	Pilot         drive.Pilot
	PilotAngle    float64
	PilotThrottle float64

	Session drive.Session

	// Milliseconds is reserved for tick timing metadata and is always zero.
	Milliseconds int64
}

// Recording reports whether a session handle is active.
func (s VehicleState) Recording() bool {
	return s.Session != nil
}

// PilotName returns the loaded pilot name or "".
func (s VehicleState) PilotName() string {
	if s.Pilot == nil {
		return ""
	}
	return s.Pilot.Name()
}

// Vehicle is the registry entry for one vehicle id.
//
// mu guards state and is held only for the duration of a single read or a
// single group of writes. tickMu keeps at most one control tick in flight.
// inferring is set while a pilot call is outstanding; a call abandoned on
// timeout keeps it set until the pilot returns.
// The latest frame is published through an atomic pointer so video readers
// never take a lock.
type Vehicle struct {
	Id        string
	CreatedAt time.Time

	mu    sync.Mutex
	state VehicleState

	tickMu    sync.Mutex
	inferring atomic.Bool

	frameSeq atomic.Uint64
	frame    atomic.Pointer[drive.Frame]
}

func NewVehicle(id string) *Vehicle {
	return &Vehicle{
		Id:        id,
		CreatedAt: time.Now(),
		state: VehicleState{
			DriveMode: drive.ModeUser,
		},
	}
}

// Snapshot returns a consistent copy of the control state.
func (v *Vehicle) Snapshot() VehicleState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Mutate applies fn atomically and returns the resulting state.
func (v *Vehicle) Mutate(fn func(s *VehicleState)) VehicleState {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.state)
	return v.state
}

// BeginTick serializes control ticks for this vehicle. Call the returned
// func to release.
func (v *Vehicle) BeginTick() func() {
	v.tickMu.Lock()
	return v.tickMu.Unlock
}

// BeginInference claims the pilot for one call. It returns false while a
// previous call, including one abandoned on timeout, has not returned.
func (v *Vehicle) BeginInference() bool {
	return v.inferring.CompareAndSwap(false, true)
}

// EndInference releases the claim taken by BeginInference.
func (v *Vehicle) EndInference() {
	v.inferring.Store(false)
}

// PublishFrame stores f as the latest frame, overwriting any previous one,
// and returns its sequence number.
func (v *Vehicle) PublishFrame(f *drive.Frame) uint64 {
	f.Seq = v.frameSeq.Add(1)
	v.frame.Store(f)
	return f.Seq
}

// LatestFrame returns the newest published frame or nil before the first tick.
func (v *Vehicle) LatestFrame() *drive.Frame {
	return v.frame.Load()
}
